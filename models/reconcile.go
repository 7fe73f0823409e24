package models

import "time"

// ReconcilePayload is enqueued when a provisional booking needs backend
// reconciliation. A worker outside this service picks it up; the booking core
// itself never retries.
type ReconcilePayload struct {
	ProvisionalID    string         `json:"provisionalId"`
	DraftID          string         `json:"draftId"`
	GatewayPaymentID string         `json:"gatewayPaymentId"`
	Request          BookingRequest `json:"request"`
	CreatedAt        time.Time      `json:"createdAt"`
}
