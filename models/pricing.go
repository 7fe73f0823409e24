package models

// PricingSnapshot is the derived pricing state for a draft, recomputed on
// every package or content mutation. Only the latest value is kept.
type PricingSnapshot struct {
	ActualWeight     float64 `json:"actualWeight"`
	VolumetricWeight float64 `json:"volumetricWeight"`
	ChargeableWeight float64 `json:"chargeableWeight"`
	UpdatedCost      float64 `json:"updatedCost"`
	DeclaredValue    float64 `json:"declaredValue"`
	// IsPriceUpdated is set when the recomputed cost moved more than 1%
	// away from the baseline quote.
	IsPriceUpdated bool `json:"isPriceUpdated"`
	// SignificantChange is set when the recomputed cost moved more than 10%
	// away from the baseline quote. The UI warns but payment is not gated;
	// the updated cost remains a client-side estimate.
	SignificantChange bool `json:"significantChange"`
}
