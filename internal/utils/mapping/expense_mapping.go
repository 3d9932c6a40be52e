package mapping

import (
	"time"

	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
	"github.com/SscSPs/fx_expense_reconciler/internal/models"
	"github.com/google/uuid"
)

// ToModelExpense converts a domain AlignedRecord to a model Expense row.
func ToModelExpense(d domain.AlignedRecord, runID string, createdAt time.Time) models.Expense {
	return models.Expense{
		ExpenseID:     uuid.NewString(),
		RunID:         runID,
		ExpenseDate:   d.Date.Time(),
		Rate:          d.Rate,
		AmountForeign: d.AmountForeign,
		AmountHome:    d.AmountHome,
		Passthrough:   d.Fields.Map(),
		CreatedAt:     createdAt,
	}
}

// ToModelExpenses converts aligned records to model rows sharing the same run and timestamp.
func ToModelExpenses(records []domain.AlignedRecord, runID string, createdAt time.Time) []models.Expense {
	rows := make([]models.Expense, len(records))
	for i, rec := range records {
		rows[i] = ToModelExpense(rec, runID, createdAt)
	}
	return rows
}
