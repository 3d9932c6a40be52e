package services

import (
	"slices"

	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AlignResult is the outcome of aligning a ledger with a rate series.
type AlignResult struct {
	Records []domain.AlignedRecord
	// Unresolved holds expenses with an amount dated before the first known rate.
	Unresolved []domain.ExpenseRecord
	// Skipped counts expenses without a foreign amount.
	Skipped int
}

// Align joins expenses with the rate series on date, forward-fills the rate across
// days without an observation and derives the home amount of every expense.
//
// Each expense resolves to the latest rate dated on or before its own date. Expenses
// without an amount are skipped; expenses dated before the first rate are returned in
// Unresolved. Records are ordered by date, ties keep ledger order. Inputs are not modified.
func Align(rates []domain.RateObservation, expenses []domain.ExpenseRecord) AlignResult {
	series := rateSeries(rates)

	ordered := slices.Clone(expenses)
	slices.SortStableFunc(ordered, func(a, b domain.ExpenseRecord) int {
		return a.Date.Compare(b.Date)
	})

	var result AlignResult
	var last *decimal.Decimal
	next := 0
	for _, exp := range ordered {
		for next < len(series) && !series[next].Date.After(exp.Date) {
			last = &series[next].Rate
			next++
		}

		if !exp.HasAmount() {
			result.Skipped++
			continue
		}
		if last == nil {
			result.Unresolved = append(result.Unresolved, exp)
			continue
		}

		result.Records = append(result.Records, domain.AlignedRecord{
			Row:           exp.Row,
			Date:          exp.Date,
			Rate:          *last,
			AmountForeign: *exp.AmountForeign,
			AmountHome:    exp.AmountForeign.Mul(*last),
			Fields:        slices.Clone(exp.Fields),
		})
	}
	return result
}

// rateSeries returns one observation per date in ascending order.
// When a date is quoted more than once the last quote in input order wins.
func rateSeries(rates []domain.RateObservation) []domain.RateObservation {
	series := slices.Clone(rates)
	slices.SortStableFunc(series, func(a, b domain.RateObservation) int {
		return a.Date.Compare(b.Date)
	})

	out := series[:0]
	for _, r := range series {
		if n := len(out); n > 0 && out[n-1].Date.Equal(r.Date) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}
