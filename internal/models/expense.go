package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is one row of the destination Expenses table.
type Expense struct {
	ExpenseID     string            `json:"expenseID"`     // Primary Key (UUID)
	RunID         string            `json:"runID"`         // Reconciliation run that produced the row
	ExpenseDate   time.Time         `json:"expenseDate"`   // Calendar day, midnight UTC
	Rate          decimal.Decimal   `json:"rate"`          // Precise decimal type
	AmountForeign decimal.Decimal   `json:"amountForeign"` // Precise decimal type
	AmountHome    decimal.Decimal   `json:"amountHome"`    // AmountForeign * Rate
	Passthrough   map[string]string `json:"passthrough"`   // Ledger columns kept verbatim (jsonb)
	CreatedAt     time.Time         `json:"createdAt"`
}
