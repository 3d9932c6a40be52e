package domain

import "github.com/shopspring/decimal"

// RateObservation is the quoted conversion rate published for a given day.
type RateObservation struct {
	Date Date            `json:"date"`
	Rate decimal.Decimal `json:"rate"` // Precise decimal type
}
