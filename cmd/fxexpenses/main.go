package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/SscSPs/fx_expense_reconciler/internal/adapters/boc"
	"github.com/SscSPs/fx_expense_reconciler/internal/adapters/database/pgsql"
	"github.com/SscSPs/fx_expense_reconciler/internal/adapters/xlsx"
	"github.com/SscSPs/fx_expense_reconciler/internal/apperrors"
	"github.com/SscSPs/fx_expense_reconciler/internal/core/services"
	"github.com/SscSPs/fx_expense_reconciler/pkg/config"
	"github.com/SscSPs/fx_expense_reconciler/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(config.DefaultPath)
	if err != nil {
		fail(logger, apperrors.NewStageError(services.StageConfig, apperrors.ErrConfig, err))
	}

	ctx := context.Background()

	// The store is opened and migrated only once there is something to write.
	sink := pgsql.NewLazyExpenseRepository(func(ctx context.Context) (*pgxpool.Pool, error) {
		return database.Open(ctx, cfg.DatabaseURL(), cfg.MigrationsPath, logger)
	})
	defer func() { database.ClosePgxPool(sink.Pool(), logger) }()

	svc := services.NewReconcileService(
		boc.NewClient(cfg.URL, boc.WithSeries(cfg.Series), boc.WithTimeout(cfg.HTTPTimeout)),
		xlsx.NewLoader(cfg.AmountColumn),
		sink,
		logger,
	)

	summary, err := svc.Run(ctx, services.RunParams{
		StartDate:    cfg.StartDate,
		LedgerSource: cfg.LedgerPath,
		Sheet:        cfg.Sheet,
		Table:        pgsql.ExpensesTable,
		HomeCurrency: cfg.HomeCurrency,
	})
	if err != nil {
		database.ClosePgxPool(sink.Pool(), logger)
		var stageErr *apperrors.StageError
		if !errors.As(err, &stageErr) {
			stageErr = apperrors.NewStageError("reconcile", nil, err)
		}
		fail(logger, stageErr)
	}

	logger.Info("Reconciliation finished", slog.String("summary", summary.String()))
}

// fail logs a one-line diagnostic naming the failed stage and its kind, then exits with status 1.
func fail(logger *slog.Logger, err *apperrors.StageError) {
	logger.Error("Stage failed", slog.Any("failure", err))
	os.Exit(1)
}
