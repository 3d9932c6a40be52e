package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/fx_expense_reconciler/internal/apperrors"
	"github.com/jackc/pgx/v5"
)

// txStarter is satisfied by *pgxpool.Pool.
type txStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BaseRepository runs repository work inside transactions.
type BaseRepository struct {
	db txStarter
}

// InTx runs fn in a transaction, committing when fn returns nil.
// An error from fn rolls the transaction back and is returned as is.
func (r *BaseRepository) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrWrite, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback also failed: %w)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrWrite, err)
	}
	return nil
}
