package models

import "time"

// BookingResult is the confirmed (or provisionally synthesized) booking handed
// to the UI and to document-generation collaborators. Never mutated after
// creation.
type BookingResult struct {
	ID             string      `json:"id"`
	ShipmentNumber string      `json:"shipmentNumber"`
	TrackingNumber string      `json:"trackingNumber"`
	CarrierName    string      `json:"carrierName"`
	ServiceType    string      `json:"serviceType"`
	Status         string      `json:"status"`
	// Provisional marks a locally synthesized result pending reconciliation.
	// It must never be treated as authoritative for carrier operations.
	Provisional bool        `json:"provisional"`
	PaymentInfo PaymentInfo `json:"paymentInfo"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// PackageInfo aggregates the physical shipment details for the backend request.
// Dimensions are those of the first box; weights and value are aggregates.
type PackageInfo struct {
	LengthCm            float64 `json:"length_cm"`
	WidthCm             float64 `json:"width_cm"`
	HeightCm            float64 `json:"height_cm"`
	ActualWeight        float64 `json:"actual_weight"`
	VolumetricWeight    float64 `json:"volumetric_weight"`
	ChargeableWeight    float64 `json:"chargeable_weight"`
	DeclaredValue       float64 `json:"declared_value"`
	ContentsDescription string  `json:"contents_description"`
	TotalQuantity       int     `json:"total_quantity"`
	Fragile             bool    `json:"fragile"`
	DangerousGoods      bool    `json:"dangerous_goods"`
}

// BookingRequest is the payload persisted by the marketplace booking backend.
type BookingRequest struct {
	Sender              Party       `json:"sender"`
	Recipient           Party       `json:"recipient"`
	PackageInfo         PackageInfo `json:"package_info"`
	CarrierName         string      `json:"carrier_name"`
	ServiceType         string      `json:"service_type"`
	PaymentMethod       string      `json:"payment_method"`
	PaymentID           string      `json:"payment_id"`
	FinalCost           float64     `json:"final_cost"`
	ActualPaymentAmount float64     `json:"actual_payment_amount"`
	Notes               string      `json:"notes,omitempty"`
}
