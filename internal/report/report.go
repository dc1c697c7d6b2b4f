package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"example.com/finance-tracker-bot/backend/internal/models"
)

const (
	SheetName = "Transactions"

	dateLayout = "2006-01-02 15:04"

	// excelize built-in format "#,##0.00"
	moneyNumFmt = 4
)

var header = []string{"id", "date", "type", "category", "amount", "wallet", "note"}

// Builder строит выгрузки транзакций в региональной временной зоне.
type Builder struct {
	loc *time.Location
}

// NewBuilder создает построитель отчетов.
func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{loc: loc}
}

// Spreadsheet собирает XLSX с выборкой и итогами для отправки в чат.
func (b *Builder) Spreadsheet(result models.ViewResult) ([]byte, error) {
	f, err := b.workbook(result.Transactions)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	row := len(result.Transactions) + 3
	for _, total := range summaryRows(result.Summary) {
		if err := f.SetSheetRow(SheetName, cell(4, row), &[]interface{}{total.label, total.value}); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteXLSX пишет все транзакции владельца в XLSX.
func (b *Builder) WriteXLSX(w io.Writer, rows []models.Transaction) error {
	f, err := b.workbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("render spreadsheet: %w", err)
	}
	return nil
}

// WriteCSV пишет транзакции в CSV с заголовком.
func (b *Builder) WriteCSV(w io.Writer, rows []models.Transaction) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return err
	}

	for _, txn := range rows {
		record := []string{
			strconv.FormatInt(txn.ID, 10),
			txn.CreatedAt.In(b.loc).Format(dateLayout),
			kindLabel(txn),
			txn.Category,
			txn.Amount.StringFixed(2),
			txn.Wallet,
			txn.Note,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func (b *Builder) workbook(rows []models.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for idx, txn := range rows {
		values := []interface{}{
			txn.ID,
			txn.CreatedAt.In(b.loc).Format(dateLayout),
			kindLabel(txn),
			txn.Category,
			txn.Amount.InexactFloat64(),
			txn.Wallet,
			txn.Note,
		}
		if err := f.SetSheetRow(SheetName, cell(1, idx+2), &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", idx+2, err)
		}
	}

	if err := b.decorate(f, len(rows)); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func (b *Builder) decorate(f *excelize.File, count int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "G1", bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if count > 0 {
		money, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
		if err != nil {
			return fmt.Errorf("money style: %w", err)
		}
		if err := f.SetCellStyle(SheetName, "E2", cell(5, count+1), money); err != nil {
			return fmt.Errorf("money style: %w", err)
		}
	}

	widths := []struct {
		col   string
		width float64
	}{
		{"A", 8}, {"B", 18}, {"C", 10}, {"D", 16}, {"E", 14}, {"F", 14}, {"G", 30},
	}
	for _, w := range widths {
		if err := f.SetColWidth(SheetName, w.col, w.col, w.width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	return nil
}

type total struct {
	label string
	value float64
}

func summaryRows(summary models.ViewSummary) []total {
	switch summary.Kind {
	case models.ViewKindIncome:
		return []total{{"Total Income", summary.Income.InexactFloat64()}}
	case models.ViewKindExpenses:
		return []total{{"Total Expenses", summary.Expenses.InexactFloat64()}}
	default:
		return []total{
			{"Total Income", summary.Income.InexactFloat64()},
			{"Total Expenses", summary.Expenses.InexactFloat64()},
			{"Net", summary.Net.InexactFloat64()},
		}
	}
}

func kindLabel(txn models.Transaction) string {
	if txn.IsIncome() {
		return string(models.EntryKindIncome)
	}
	return string(models.EntryKindExpense)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
