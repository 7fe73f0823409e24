package models

// BaselineQuote is the carrier rate quote the user selected before entering
// exact package details. Immutable once a draft has been created from it.
type BaselineQuote struct {
	QuoteID            string  `json:"quoteId"`
	CarrierName        string  `json:"carrierName"`
	ServiceType        string  `json:"serviceType"`
	TotalCost          float64 `json:"totalCost"`
	Currency           string  `json:"currency,omitempty"`
	Weight             float64 `json:"weight"`
	VolumetricWeight   float64 `json:"volumetricWeight"`
	OriginCountry      string  `json:"originCountry"`
	DestinationCountry string  `json:"destinationCountry"`
	ShipmentType       string  `json:"shipmentType"`
}

// ChargeableWeight returns the weight basis the quote was priced on.
func (q BaselineQuote) ChargeableWeight() float64 {
	if q.VolumetricWeight > q.Weight {
		return q.VolumetricWeight
	}
	return q.Weight
}
