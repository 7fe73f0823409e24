package models

import "time"

// Party holds the contact and address details for one side of a shipment.
type Party struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Company      string `json:"company,omitempty"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city" validate:"required"`
	PostalCode   string `json:"postalCode" validate:"required"`
	Landmark     string `json:"landmark,omitempty"`
	Country      string `json:"country"`
}

// ContentItem describes one declared line of shipment contents.
type ContentItem struct {
	ID                   string  `json:"id"`
	Description          string  `json:"description"`
	Quantity             int     `json:"quantity"`
	DeclaredValuePerUnit float64 `json:"declaredValuePerUnit"`
	HSNCode              string  `json:"hsnCode,omitempty"`
}

// PackageBox describes one physical box with its weight and dimensions in cm.
type PackageBox struct {
	ID       string  `json:"id"`
	WeightKg float64 `json:"weightKg"`
	LengthCm float64 `json:"lengthCm"`
	WidthCm  float64 `json:"widthCm"`
	HeightCm float64 `json:"heightCm"`
}

// ShipmentFlags carries handling indicators for the shipment.
type ShipmentFlags struct {
	Fragile        bool   `json:"fragile"`
	DangerousGoods bool   `json:"dangerousGoods"`
	Notes          string `json:"notes,omitempty"`
}

// BookingDraft is the in-progress booking, mutated across wizard steps and
// frozen at submission. Stored as JSON in the draft cache with a TTL.
type BookingDraft struct {
	DraftID       string          `json:"draftId"`
	Quote         BaselineQuote   `json:"quote"`
	Sender        Party           `json:"sender"`
	Recipient     Party           `json:"recipient"`
	ContentItems  []ContentItem   `json:"contentItems"`
	PackageBoxes  []PackageBox    `json:"packageBoxes"`
	Flags         ShipmentFlags   `json:"flags"`
	TermsAccepted bool            `json:"termsAccepted"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Step          int             `json:"step"`
	Pricing       PricingSnapshot `json:"pricing"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
