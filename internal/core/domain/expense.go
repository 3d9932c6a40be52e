package domain

import "github.com/shopspring/decimal"

// Field is a passthrough ledger column, kept verbatim.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fields is an ordered list of passthrough columns.
type Fields []Field

// Map returns the fields keyed by column name.
func (f Fields) Map() map[string]string {
	m := make(map[string]string, len(f))
	for _, field := range f {
		m[field.Name] = field.Value
	}
	return m
}

// ExpenseRecord represents one ledger line item.
type ExpenseRecord struct {
	Row           int              `json:"row"` // 1-based sheet row, for diagnostics
	Date          Date             `json:"date"`
	AmountForeign *decimal.Decimal `json:"amountForeign"` // Nullable: separator and annotation rows have no amount
	Fields        Fields           `json:"fields"`        // Passthrough columns in sheet order
}

// HasAmount reports whether the record carries a foreign amount.
func (e ExpenseRecord) HasAmount() bool {
	return e.AmountForeign != nil
}

// AlignedRecord is an expense resolved against the rate in effect on its date.
// Rate and AmountForeign are always populated; AmountHome = AmountForeign * Rate.
type AlignedRecord struct {
	Row           int             `json:"row"`
	Date          Date            `json:"date"`
	Rate          decimal.Decimal `json:"rate"`
	AmountForeign decimal.Decimal `json:"amountForeign"`
	AmountHome    decimal.Decimal `json:"amountHome"`
	Fields        Fields          `json:"fields"`
}
