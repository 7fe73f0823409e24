package booking

import (
	"math"

	"parcelio/models"
)

// VolumetricDivisor converts box volume in cubic cm to kilograms.
const VolumetricDivisor = 5000

const (
	priceUpdateThreshold       = 0.01
	significantChangeThreshold = 0.10
)

// BoxVolumetricWeight returns the dimensional weight of a single box, rounded
// up per box. Rounding must happen before summation across boxes; summing raw
// volumes first produces a different chargeable weight than the rest of the
// product shows.
func BoxVolumetricWeight(b models.PackageBox) float64 {
	return math.Ceil((b.LengthCm * b.WidthCm * b.HeightCm) / VolumetricDivisor)
}

// DeclaredValue aggregates the declared content value across all items. Used
// for customs and insurance display, not for chargeable-weight pricing.
func DeclaredValue(items []models.ContentItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.DeclaredValuePerUnit * float64(item.Quantity)
	}
	return total
}

// ComputePricing derives the chargeable weight and re-priced total for a draft
// against its baseline quote. Pure and cheap enough to run on every package or
// content mutation.
//
// The ratio-based re-pricing is a linear client-side estimate, not a new rate
// shop; the backend recalculates authoritatively at booking time.
func ComputePricing(draft *models.BookingDraft) models.PricingSnapshot {
	quote := draft.Quote
	snapshot := models.PricingSnapshot{
		DeclaredValue: DeclaredValue(draft.ContentItems),
	}

	actual := 0.0
	volumetric := 0.0
	hasWeight := false
	for _, box := range draft.PackageBoxes {
		if box.WeightKg > 0 {
			hasWeight = true
		}
		actual += box.WeightKg
		volumetric += BoxVolumetricWeight(box)
	}

	// Until the user enters any box weight, show the baseline figures as-is.
	if !hasWeight {
		snapshot.ActualWeight = quote.Weight
		snapshot.VolumetricWeight = quote.VolumetricWeight
		snapshot.ChargeableWeight = quote.ChargeableWeight()
		snapshot.UpdatedCost = quote.TotalCost
		return snapshot
	}

	snapshot.ActualWeight = actual
	snapshot.VolumetricWeight = volumetric
	snapshot.ChargeableWeight = math.Max(actual, volumetric)

	ratio := 1.0
	if baseline := quote.ChargeableWeight(); baseline > 0 {
		ratio = snapshot.ChargeableWeight / baseline
	}
	// Round to currency precision; threshold checks work on the displayed price.
	snapshot.UpdatedCost = math.Round(quote.TotalCost*ratio*100) / 100

	delta := math.Abs(snapshot.UpdatedCost - quote.TotalCost)
	snapshot.IsPriceUpdated = delta > priceUpdateThreshold*quote.TotalCost
	snapshot.SignificantChange = delta > significantChangeThreshold*quote.TotalCost
	return snapshot
}
