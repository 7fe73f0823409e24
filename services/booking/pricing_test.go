package booking

import (
	"testing"

	"parcelio/models"

	"github.com/stretchr/testify/assert"
)

func draftWith(quote models.BaselineQuote, boxes []models.PackageBox, items []models.ContentItem) *models.BookingDraft {
	return &models.BookingDraft{
		Quote:        quote,
		PackageBoxes: boxes,
		ContentItems: items,
	}
}

func TestComputePricing(t *testing.T) {
	quote := models.BaselineQuote{
		CarrierName:      "DHL",
		TotalCost:        1000,
		Weight:           5,
		VolumetricWeight: 1,
	}

	t.Run("actual weight dominates", func(t *testing.T) {
		d := draftWith(quote, []models.PackageBox{
			{WeightKg: 5, LengthCm: 20, WidthCm: 15, HeightCm: 10},
		}, nil)

		snap := ComputePricing(d)
		assert.Equal(t, 5.0, snap.ActualWeight)
		assert.Equal(t, 1.0, snap.VolumetricWeight)
		assert.Equal(t, 5.0, snap.ChargeableWeight)
	})

	t.Run("volumetric weight dominates", func(t *testing.T) {
		d := draftWith(quote, []models.PackageBox{
			{WeightKg: 2, LengthCm: 50, WidthCm: 40, HeightCm: 30},
		}, nil)

		snap := ComputePricing(d)
		assert.Equal(t, 12.0, snap.VolumetricWeight)
		assert.Equal(t, 12.0, snap.ChargeableWeight)
	})

	t.Run("volumetric weight rounds up per box before summing", func(t *testing.T) {
		d := draftWith(quote, []models.PackageBox{
			{WeightKg: 0.5, LengthCm: 10, WidthCm: 10, HeightCm: 10},
			{WeightKg: 0.5, LengthCm: 10, WidthCm: 10, HeightCm: 10},
		}, nil)

		// Each box is ceil(1000/5000) = 1; the sum must be 2, not
		// ceil(2000/5000) = 1.
		snap := ComputePricing(d)
		assert.Equal(t, 2.0, snap.VolumetricWeight)
	})

	t.Run("falls back to baseline while no box weight entered", func(t *testing.T) {
		d := draftWith(quote, []models.PackageBox{
			{LengthCm: 50, WidthCm: 40, HeightCm: 30},
		}, nil)

		snap := ComputePricing(d)
		assert.Equal(t, quote.Weight, snap.ActualWeight)
		assert.Equal(t, quote.VolumetricWeight, snap.VolumetricWeight)
		assert.Equal(t, 5.0, snap.ChargeableWeight)
		assert.Equal(t, quote.TotalCost, snap.UpdatedCost)
		assert.False(t, snap.IsPriceUpdated)
	})

	t.Run("ratio defaults to 1 when baseline chargeable weight is zero", func(t *testing.T) {
		zeroQuote := models.BaselineQuote{CarrierName: "DHL", TotalCost: 500}
		d := draftWith(zeroQuote, []models.PackageBox{
			{WeightKg: 3, LengthCm: 10, WidthCm: 10, HeightCm: 10},
		}, nil)

		snap := ComputePricing(d)
		assert.Equal(t, 500.0, snap.UpdatedCost)
	})

	t.Run("declared value aggregates quantity times unit value", func(t *testing.T) {
		d := draftWith(quote, []models.PackageBox{
			{WeightKg: 5, LengthCm: 10, WidthCm: 10, HeightCm: 10},
		}, []models.ContentItem{
			{Description: "books", Quantity: 3, DeclaredValuePerUnit: 50},
			{Description: "pens", Quantity: 10, DeclaredValuePerUnit: 2},
		})

		snap := ComputePricing(d)
		assert.Equal(t, 170.0, snap.DeclaredValue)
	})
}

func TestPriceUpdateThreshold(t *testing.T) {
	// Baseline chargeable weight 100 at cost 1000; box weight moves the price
	// linearly, so weight 101 is exactly a 1% change.
	quote := models.BaselineQuote{
		CarrierName: "FedEx",
		TotalCost:   1000,
		Weight:      100,
	}

	cases := []struct {
		name     string
		weightKg float64
		updated  bool
	}{
		{"0.99 percent change", 100.99, false},
		{"exactly 1.00 percent change", 101.00, false},
		{"1.01 percent change", 101.01, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := draftWith(quote, []models.PackageBox{
				{WeightKg: tc.weightKg, LengthCm: 10, WidthCm: 10, HeightCm: 10},
			}, nil)

			snap := ComputePricing(d)
			assert.Equal(t, tc.updated, snap.IsPriceUpdated)
		})
	}
}

func TestSignificantChangeDetector(t *testing.T) {
	quote := models.BaselineQuote{
		CarrierName: "FedEx",
		TotalCost:   1000,
		Weight:      100,
	}

	t.Run("below ten percent", func(t *testing.T) {
		d := draftWith(quote, []models.PackageBox{
			{WeightKg: 105, LengthCm: 10, WidthCm: 10, HeightCm: 10},
		}, nil)

		snap := ComputePricing(d)
		assert.True(t, snap.IsPriceUpdated)
		assert.False(t, snap.SignificantChange)
	})

	t.Run("above ten percent", func(t *testing.T) {
		d := draftWith(quote, []models.PackageBox{
			{WeightKg: 120, LengthCm: 10, WidthCm: 10, HeightCm: 10},
		}, nil)

		snap := ComputePricing(d)
		assert.True(t, snap.IsPriceUpdated)
		assert.True(t, snap.SignificantChange)
	})
}
