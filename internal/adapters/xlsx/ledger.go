// Package xlsx loads expense ledgers from Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SscSPs/fx_expense_reconciler/internal/apperrors"
	"github.com/SscSPs/fx_expense_reconciler/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Default column names of a ledger sheet.
const (
	DefaultDateColumn   = "date"
	DefaultAmountColumn = "USD"
)

// Loader implements ports.LedgerLoader for .xlsx documents.
// Header names are matched case-insensitively; every other column is passed through.
type Loader struct {
	DateColumn   string
	AmountColumn string
}

// NewLoader creates a Loader reading the foreign amount from amountColumn.
func NewLoader(amountColumn string) *Loader {
	if amountColumn == "" {
		amountColumn = DefaultAmountColumn
	}
	return &Loader{DateColumn: DefaultDateColumn, AmountColumn: amountColumn}
}

// LoadLedger opens the workbook at source and reads the named sheet.
func (l *Loader) LoadLedger(ctx context.Context, source, sheet string) ([]domain.ExpenseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrLoad, err)
	}
	f, err := excelize.OpenFile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open %s: %w", apperrors.ErrLoad, source, err)
	}
	defer f.Close()
	return l.read(f, sheet)
}

// ReadLedger reads the named sheet of a workbook provided as a stream.
func (l *Loader) ReadLedger(r io.Reader, sheet string) ([]domain.ExpenseRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open workbook: %w", apperrors.ErrLoad, err)
	}
	defer f.Close()
	return l.read(f, sheet)
}

type layout struct {
	date   int
	amount int
	names  []string // passthrough keys, "" for the date and amount columns
}

func (l *Loader) read(f *excelize.File, sheet string) ([]domain.ExpenseRecord, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: sheet %q not found", apperrors.ErrLoad, sheet)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: could not read sheet %q: %w", apperrors.ErrLoad, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no header row", apperrors.ErrLoad, sheet)
	}

	cols, err := l.layout(rows[0], sheetWidth(rows))
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %w", apperrors.ErrLoad, sheet, err)
	}
	date1904 := uses1904(f)

	var records []domain.ExpenseRecord
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, err := parseRow(row, i+2, cols, date1904)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %w", apperrors.ErrLoad, sheet, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// layout locates the fixed columns and keys every other column of the sheet.
// A column without a header is keyed by its letter; two columns may not share a key.
func (l *Loader) layout(header []string, width int) (layout, error) {
	if width < len(header) {
		width = len(header)
	}
	cols := layout{date: -1, amount: -1, names: make([]string, width)}
	seen := make(map[string]string, width)
	for i := 0; i < width; i++ {
		letter, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return cols, err
		}
		name := strings.TrimSpace(cell(header, i))
		switch {
		case name == "":
			name = letter
		case strings.EqualFold(name, l.DateColumn) && cols.date < 0:
			cols.date = i
			continue
		case strings.EqualFold(name, l.AmountColumn) && cols.amount < 0:
			cols.amount = i
			continue
		}
		if prev, ok := seen[strings.ToLower(name)]; ok {
			return cols, fmt.Errorf("column %s: header %q already used by column %s", letter, name, prev)
		}
		seen[strings.ToLower(name)] = letter
		cols.names[i] = name
	}
	if cols.date < 0 {
		return cols, fmt.Errorf("missing %q column", l.DateColumn)
	}
	if cols.amount < 0 {
		return cols, fmt.Errorf("missing %q column", l.AmountColumn)
	}
	for _, fixed := range []string{l.DateColumn, l.AmountColumn} {
		if letter, ok := seen[strings.ToLower(fixed)]; ok {
			return cols, fmt.Errorf("column %s: header %q repeats a fixed column", letter, fixed)
		}
	}
	return cols, nil
}

// sheetWidth is the widest row of the sheet; GetRows trims trailing empty cells.
func sheetWidth(rows [][]string) int {
	n := 0
	for _, row := range rows {
		n = max(n, len(row))
	}
	return n
}

func parseRow(row []string, rowNum int, cols layout, date1904 bool) (domain.ExpenseRecord, error) {
	rec := domain.ExpenseRecord{Row: rowNum}

	if raw := cell(row, cols.amount); raw != "" {
		amount, err := parseAmount(raw)
		if err != nil {
			return rec, fmt.Errorf("row %d: invalid amount %q: %w", rowNum, raw, err)
		}
		rec.AmountForeign = &amount
	}

	date, err := parseDate(cell(row, cols.date), date1904)
	switch {
	case err == nil:
		rec.Date = date
	case rec.HasAmount():
		return rec, fmt.Errorf("row %d: %w", rowNum, err)
	}
	// Rows without an amount are annotations; an unreadable date there is kept as zero.

	for i, name := range cols.names {
		if name == "" {
			continue
		}
		rec.Fields = append(rec.Fields, domain.Field{Name: name, Value: cell(row, i)})
	}
	return rec, nil
}

// parseDate accepts ISO text dates and Excel serial day numbers.
func parseDate(raw string, date1904 bool) (domain.Date, error) {
	if raw == "" {
		return domain.Date{}, fmt.Errorf("missing date")
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return domain.Date{}, fmt.Errorf("invalid date serial %q: %w", raw, err)
		}
		return domain.DateOf(t), nil
	}
	return domain.ParseDate(raw)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
}

func uses1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
