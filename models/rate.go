package models

// RateTax carries the tax breakdown attached to a provider rate.
type RateTax struct {
	TotalWithTaxesAndFees float64 `json:"totalWithTaxesAndFees"`
}

// Rate is a single priced offer as returned by the hotel rate provider.
// Field names follow the provider's wire format.
type Rate struct {
	Code               string  `json:"code"`
	RoomCode           string  `json:"roomCode"`
	Description        string  `json:"description"`
	BasePriceBeforeTax float64 `json:"basePriceBeforeTax"`
	Tax                RateTax `json:"tax"`
}
