package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/fx_expense_reconciler/internal/apperrors"
	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
	"github.com/SscSPs/fx_expense_reconciler/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alignedRecords() []domain.AlignedRecord {
	return []domain.AlignedRecord{
		{Row: 2, Date: domain.MustParseDate("2024-01-02"), Rate: decimal.RequireFromString("1.3"), AmountForeign: decimal.NewFromInt(1), AmountHome: decimal.RequireFromString("1.3")},
		{Row: 3, Date: domain.MustParseDate("2024-01-03"), Rate: decimal.RequireFromString("1.3"), AmountForeign: decimal.NewFromInt(2), AmountHome: decimal.RequireFromString("2.6")},
	}
}

func TestInsertStatement_QuotesTable(t *testing.T) {
	assert.Contains(t, insertStatement("Expenses"), `INSERT INTO "Expenses" (`)
	assert.Contains(t, insertStatement(`bad"name`), `INSERT INTO "bad""name" (`)
}

func TestInsertBatch_QueuesOneStatementPerRow(t *testing.T) {
	rows := mapping.ToModelExpenses(alignedRecords(), "run", time.Now())

	batch := insertBatch(ExpensesTable, rows)

	assert.Equal(t, 2, batch.Len())
	for _, q := range batch.QueuedQueries {
		assert.True(t, strings.Contains(q.SQL, "amount_home"))
		assert.Len(t, q.Arguments, 8)
	}
}

func TestPgxExpenseRepository_WriteExpenses(t *testing.T) {
	ctx := context.Background()

	t.Run("commits every row in one transaction", func(t *testing.T) {
		tx := &fakeTx{batch: &fakeBatchResults{}}
		repo := newExpenseRepository(fakeDB{tx: tx})

		err := repo.WriteExpenses(ctx, "", "run-1", alignedRecords())

		require.NoError(t, err)
		require.NotNil(t, tx.sent)
		assert.Equal(t, 2, tx.sent.Len())
		assert.Contains(t, tx.sent.QueuedQueries[0].SQL, `INSERT INTO "Expenses"`)
		assert.Equal(t, "run-1", tx.sent.QueuedQueries[1].Arguments[1])
		assert.Equal(t, 2, tx.batch.execs)
		assert.True(t, tx.batch.closed)
		assert.True(t, tx.committed)
	})

	t.Run("a failing row rolls the whole run back", func(t *testing.T) {
		tx := &fakeTx{batch: &fakeBatchResults{failAt: 2}}
		repo := newExpenseRepository(fakeDB{tx: tx})

		err := repo.WriteExpenses(ctx, ExpensesTable, "run-1", alignedRecords())

		assert.ErrorIs(t, err, apperrors.ErrWrite)
		assert.ErrorContains(t, err, "ledger row 3")
		assert.True(t, tx.batch.closed)
		assert.True(t, tx.rolledBack)
		assert.False(t, tx.committed)
	})

	t.Run("no records never begins a transaction", func(t *testing.T) {
		repo := newExpenseRepository(fakeDB{beginErr: errors.New("unreachable")})

		assert.NoError(t, repo.WriteExpenses(ctx, ExpensesTable, "run-1", nil))
	})
}

func TestLazyExpenseRepository_ConnectsOnFirstWrite(t *testing.T) {
	ctx := context.Background()
	opens := 0
	refused := fmt.Errorf("%w: localhost:5432 unreachable", apperrors.ErrConnect)
	repo := NewLazyExpenseRepository(func(context.Context) (*pgxpool.Pool, error) {
		opens++
		return nil, refused
	})

	require.NoError(t, repo.WriteExpenses(ctx, ExpensesTable, "run-1", nil))
	assert.Zero(t, opens, "nothing to write must not connect")

	err := repo.WriteExpenses(ctx, ExpensesTable, "run-1", alignedRecords())
	assert.ErrorIs(t, err, apperrors.ErrConnect)
	assert.Equal(t, 1, opens)
	assert.Nil(t, repo.Pool())

	_ = repo.WriteExpenses(ctx, ExpensesTable, "run-1", alignedRecords())
	assert.Equal(t, 2, opens, "a failed connect is retried")
}
