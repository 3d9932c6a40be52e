package ports

import (
	"context"

	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
)

// Note: Context is included on every collaborator so callers can impose timeouts.

// RateFetcher retrieves the exchange-rate series published on or after start.
// Observations are returned ordered by date ascending.
type RateFetcher interface {
	FetchRates(ctx context.Context, start domain.Date) ([]domain.RateObservation, error)
}

// LedgerLoader reads the expense records of a named sheet in a ledger document.
type LedgerLoader interface {
	LoadLedger(ctx context.Context, source, sheet string) ([]domain.ExpenseRecord, error)
}

// ExpenseWriter persists aligned expenses into a named table.
type ExpenseWriter interface {
	WriteExpenses(ctx context.Context, table string, runID string, records []domain.AlignedRecord) error
}
