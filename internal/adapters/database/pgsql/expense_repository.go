package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/fx_expense_reconciler/internal/apperrors"
	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
	"github.com/SscSPs/fx_expense_reconciler/internal/models"
	"github.com/SscSPs/fx_expense_reconciler/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExpensesTable is the default destination table.
const ExpensesTable = "Expenses"

// PgxExpenseRepository implements the ports.ExpenseWriter interface using pgxpool.
type PgxExpenseRepository struct {
	BaseRepository
	now func() time.Time
}

// NewPgxExpenseRepository creates a new PgxExpenseRepository.
func NewPgxExpenseRepository(pool *pgxpool.Pool) *PgxExpenseRepository {
	return newExpenseRepository(pool)
}

func newExpenseRepository(db txStarter) *PgxExpenseRepository {
	return &PgxExpenseRepository{
		BaseRepository: BaseRepository{db: db},
		now:            time.Now,
	}
}

// WriteExpenses inserts all records in a single transaction: either every row lands or none does.
func (r *PgxExpenseRepository) WriteExpenses(ctx context.Context, table string, runID string, records []domain.AlignedRecord) error {
	if len(records) == 0 {
		return nil
	}
	if table == "" {
		table = ExpensesTable
	}

	rows := mapping.ToModelExpenses(records, runID, r.now().UTC())
	batch := insertBatch(table, rows)

	return r.InTx(ctx, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := range rows {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("%w: failed to insert expense from ledger row %d: %w", apperrors.ErrWrite, records[i].Row, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("%w: failed to close insert batch: %w", apperrors.ErrWrite, err)
		}
		return nil
	})
}

// insertStatement returns the parameterized insert for table, with the identifier quoted.
func insertStatement(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (
			expense_id, run_id, expense_date, rate, amount_foreign, amount_home,
			passthrough, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		pgx.Identifier{table}.Sanitize(),
	)
}

func insertBatch(table string, rows []models.Expense) *pgx.Batch {
	query := insertStatement(table)
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(query,
			row.ExpenseID, row.RunID, row.ExpenseDate, row.Rate, row.AmountForeign,
			row.AmountHome, row.Passthrough, row.CreatedAt,
		)
	}
	return batch
}
