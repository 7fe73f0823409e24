package models

// PaymentMode selects how much of the updated cost is collected up front.
type PaymentMode string

const (
	// PaymentModeFull charges 100% of the updated cost.
	PaymentModeFull PaymentMode = "full"
	// PaymentModePartial charges a 10% deposit, remainder on delivery.
	PaymentModePartial PaymentMode = "partial"
)

// PaymentOrder is the order registered with the gateway before the widget opens.
type PaymentOrder struct {
	OrderID          string `json:"orderId"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
	Currency         string `json:"currency"`
	Receipt          string `json:"receipt"`
}

// GatewayResult is what the payment widget reports back on success.
type GatewayResult struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	GatewaySignature string `json:"gatewaySignature"`
}

// CheckoutPrefill pre-populates the payment widget with sender contact details.
type CheckoutPrefill struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone"`
}

// CheckoutPayload is returned to the client so it can open the payment widget.
type CheckoutPayload struct {
	OrderID          string          `json:"orderId"`
	AmountMinorUnits int64           `json:"amountMinorUnits"`
	Currency         string          `json:"currency"`
	KeyID            string          `json:"keyId"`
	Prefill          CheckoutPrefill `json:"prefill"`
}

// PaymentInfo records what was actually collected for a booking.
type PaymentInfo struct {
	Method        string  `json:"method"`
	TransactionID string  `json:"transactionId"`
	AmountPaid    float64 `json:"amountPaid"`
	Currency      string  `json:"currency"`
}
