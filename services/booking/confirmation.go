package booking

import (
	"crypto/rand"
	"strings"
	"time"

	"parcelio/models"

	"github.com/google/uuid"
)

// BuildBookingRequest flattens a frozen draft into the backend payload.
// Dimensions come from the first box; weights and declared value are the
// aggregates from the latest pricing snapshot.
func BuildBookingRequest(draft *models.BookingDraft, paymentID string, amountPaid float64) models.BookingRequest {
	firstBox := draft.PackageBoxes[0]

	descriptions := make([]string, 0, len(draft.ContentItems))
	totalQuantity := 0
	for _, item := range draft.ContentItems {
		descriptions = append(descriptions, item.Description)
		totalQuantity += item.Quantity
	}

	return models.BookingRequest{
		Sender:    draft.Sender,
		Recipient: draft.Recipient,
		PackageInfo: models.PackageInfo{
			LengthCm:            firstBox.LengthCm,
			WidthCm:             firstBox.WidthCm,
			HeightCm:            firstBox.HeightCm,
			ActualWeight:        draft.Pricing.ActualWeight,
			VolumetricWeight:    draft.Pricing.VolumetricWeight,
			ChargeableWeight:    draft.Pricing.ChargeableWeight,
			DeclaredValue:       draft.Pricing.DeclaredValue,
			ContentsDescription: strings.Join(descriptions, ", "),
			TotalQuantity:       totalQuantity,
			Fragile:             draft.Flags.Fragile,
			DangerousGoods:      draft.Flags.DangerousGoods,
		},
		CarrierName:         draft.Quote.CarrierName,
		ServiceType:         draft.Quote.ServiceType,
		PaymentMethod:       draft.PaymentMethod,
		PaymentID:           paymentID,
		FinalCost:           draft.Pricing.UpdatedCost,
		ActualPaymentAmount: amountPaid,
		Notes:               draft.Flags.Notes,
	}
}

// SynthesizeProvisional builds a local stand-in result when payment succeeded
// but the backend booking call failed. The tracking token is a UX placeholder
// only, never valid for carrier operations; reconciliation replaces it.
func SynthesizeProvisional(draft *models.BookingDraft, paymentID string, amountPaid float64, currency string) *models.BookingResult {
	token := pseudoTrackingToken()
	return &models.BookingResult{
		ID:             "PROV-" + uuid.New().String(),
		ShipmentNumber: token,
		TrackingNumber: token,
		CarrierName:    draft.Quote.CarrierName,
		ServiceType:    draft.Quote.ServiceType,
		Status:         "booked",
		Provisional:    true,
		PaymentInfo: models.PaymentInfo{
			Method:        draft.PaymentMethod,
			TransactionID: paymentID,
			AmountPaid:    amountPaid,
			Currency:      currency,
		},
		CreatedAt: time.Now(),
	}
}

const trackingCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func pseudoTrackingToken() string {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		// Fall back to a uuid-derived token; this path never fails in practice.
		return "PT" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:12]
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = trackingCharset[int(b)%len(trackingCharset)]
	}
	return "PT" + string(out)
}
