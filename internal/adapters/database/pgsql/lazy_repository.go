package pgsql

import (
	"context"

	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenFunc connects to the store, typically applying migrations on the way.
type OpenFunc func(ctx context.Context) (*pgxpool.Pool, error)

// LazyExpenseRepository implements ports.ExpenseWriter, opening the pool on the first
// non-empty write. Runs that fail or align nothing never connect.
type LazyExpenseRepository struct {
	open OpenFunc
	pool *pgxpool.Pool
	repo *PgxExpenseRepository
}

// NewLazyExpenseRepository creates a LazyExpenseRepository connecting through open.
func NewLazyExpenseRepository(open OpenFunc) *LazyExpenseRepository {
	return &LazyExpenseRepository{open: open}
}

// WriteExpenses connects if needed and then writes like PgxExpenseRepository.
// A failed connect is returned unchanged and retried on the next call.
func (r *LazyExpenseRepository) WriteExpenses(ctx context.Context, table string, runID string, records []domain.AlignedRecord) error {
	if len(records) == 0 {
		return nil
	}
	if r.repo == nil {
		pool, err := r.open(ctx)
		if err != nil {
			return err
		}
		r.pool = pool
		r.repo = NewPgxExpenseRepository(pool)
	}
	return r.repo.WriteExpenses(ctx, table, runID, records)
}

// Pool returns the opened pool, or nil before the first write.
func (r *LazyExpenseRepository) Pool() *pgxpool.Pool {
	return r.pool
}
