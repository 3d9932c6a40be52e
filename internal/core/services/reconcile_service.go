package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/fx_expense_reconciler/internal/apperrors"
	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
	"github.com/SscSPs/fx_expense_reconciler/internal/core/ports"
	"github.com/SscSPs/fx_expense_reconciler/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pipeline stage names, used in diagnostics.
const (
	StageConfig     = "load config"
	StageConnect    = "connect database"
	StageFetchRates = "fetch rates"
	StageLoadLedger = "load ledger"
	StageWrite      = "write expenses"
)

// RunParams describes one reconciliation run.
type RunParams struct {
	StartDate    domain.Date
	LedgerSource string
	Sheet        string
	Table        string
	HomeCurrency string
}

// RunSummary reports what a run did.
type RunSummary struct {
	RunID      string
	Rates      int
	Expenses   int
	Aligned    int
	Skipped    int
	Unresolved int
	TotalHome  decimal.Decimal
}

// ReconcileService loads rates and expenses, aligns them and writes the result.
type ReconcileService struct {
	rates  ports.RateFetcher
	ledger ports.LedgerLoader
	sink   ports.ExpenseWriter
	logger *slog.Logger
}

// NewReconcileService creates a new ReconcileService.
func NewReconcileService(rates ports.RateFetcher, ledger ports.LedgerLoader, sink ports.ExpenseWriter, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		rates:  rates,
		ledger: ledger,
		sink:   sink,
		logger: logger,
	}
}

// Run executes the pipeline once. Stages run in order and the first failure aborts the
// run with a *apperrors.StageError; nothing is written unless every earlier stage succeeded.
func (s *ReconcileService) Run(ctx context.Context, params RunParams) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString(), TotalHome: decimal.Zero}
	logger := s.logger.With(slog.String("run_id", summary.RunID))

	logger.Info("Fetching exchange rates", slog.String("start_date", params.StartDate.String()))
	rates, err := s.rates.FetchRates(ctx, params.StartDate)
	if err != nil {
		return nil, apperrors.NewStageError(StageFetchRates, apperrors.ErrFetch, err)
	}
	summary.Rates = len(rates)
	logger.Info("Exchange rates fetched", slog.Int("count", len(rates)))

	logger.Info("Loading expense ledger", slog.String("source", params.LedgerSource), slog.String("sheet", params.Sheet))
	expenses, err := s.ledger.LoadLedger(ctx, params.LedgerSource, params.Sheet)
	if err != nil {
		return nil, apperrors.NewStageError(StageLoadLedger, apperrors.ErrLoad, err)
	}
	summary.Expenses = len(expenses)
	logger.Info("Expense ledger loaded", slog.Int("count", len(expenses)))

	result := Align(rates, expenses)
	summary.Aligned = len(result.Records)
	summary.Skipped = result.Skipped
	summary.Unresolved = len(result.Unresolved)
	for _, exp := range result.Unresolved {
		logger.Warn("Expense dated before the first known rate, dropped",
			slog.Int("row", exp.Row),
			slog.String("date", exp.Date.String()),
			slog.String("amount", exp.AmountForeign.String()),
		)
	}
	for _, rec := range result.Records {
		summary.TotalHome = summary.TotalHome.Add(rec.AmountHome)
	}

	if len(result.Records) == 0 {
		logger.Warn("No expenses could be aligned, nothing to write",
			slog.Int("expenses", summary.Expenses),
			slog.Int("rates", summary.Rates),
		)
		return summary, nil
	}

	// The sink connects on first use, so a refused connection surfaces here.
	if err := s.sink.WriteExpenses(ctx, params.Table, summary.RunID, result.Records); err != nil {
		stage := StageWrite
		if errors.Is(err, apperrors.ErrConnect) {
			stage = StageConnect
		}
		return nil, apperrors.NewStageError(stage, apperrors.ErrWrite, err)
	}

	logger.Info("Expenses written",
		slog.String("table", params.Table),
		slog.Int("aligned", summary.Aligned),
		slog.Int("skipped", summary.Skipped),
		slog.Int("unresolved", summary.Unresolved),
		slog.String("total_home", utils.FormatAmount(summary.TotalHome, params.HomeCurrency)),
	)
	return summary, nil
}

// String renders a one-line summary.
func (s RunSummary) String() string {
	return fmt.Sprintf("run %s: %d rates, %d expenses, %d aligned, %d skipped, %d unresolved, total %s",
		s.RunID, s.Rates, s.Expenses, s.Aligned, s.Skipped, s.Unresolved, s.TotalHome.String())
}
