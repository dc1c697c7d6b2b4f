package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"example.com/finance-tracker-bot/backend/internal/models"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

func sampleRows() []models.Transaction {
	return []models.Transaction{
		{
			ID:        1,
			UserID:    1001,
			Category:  "Food",
			Amount:    decimal.RequireFromString("-250"),
			Wallet:    "UPI",
			Note:      "Lunch, with team",
			CreatedAt: time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:        2,
			UserID:    1001,
			Category:  "Salary",
			Amount:    decimal.RequireFromString("50000"),
			Wallet:    "Bank",
			CreatedAt: time.Date(2025, 6, 1, 4, 30, 0, 0, time.UTC),
		},
	}
}

// TestWriteCSV проверяет CSV выгрузку в региональной зоне.
func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewBuilder(ist).WriteCSV(&buf, sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, header, records[0])
	assert.Equal(t, []string{"1", "2025-06-16 14:30", "expense", "Food", "-250.00", "UPI", "Lunch, with team"}, records[1])
	assert.Equal(t, []string{"2", "2025-06-01 10:00", "income", "Salary", "50000.00", "Bank", ""}, records[2])
}

// TestWriteCSVEmpty проверяет выгрузку без транзакций.
func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewBuilder(nil).WriteCSV(&buf, nil))
	assert.Equal(t, "id,date,type,category,amount,wallet,note\n", buf.String())
}

// TestSpreadsheet проверяет строки и итоги XLSX отчета.
func TestSpreadsheet(t *testing.T) {
	rows := sampleRows()
	result := models.ViewResult{
		Transactions: rows,
		Summary: models.ViewSummary{
			Kind:     models.ViewKindAll,
			Income:   decimal.RequireFromString("50000"),
			Expenses: decimal.RequireFromString("250"),
			Net:      decimal.RequireFromString("49750"),
		},
	}

	data, err := NewBuilder(ist).Spreadsheet(result)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	category, err := f.GetCellValue(SheetName, "D2")
	require.NoError(t, err)
	assert.Equal(t, "Food", category)

	date, err := f.GetCellValue(SheetName, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01 10:00", date)

	labels := make([]string, 0, 3)
	for _, addr := range []string{"D5", "D6", "D7"} {
		value, err := f.GetCellValue(SheetName, addr)
		require.NoError(t, err)
		labels = append(labels, value)
	}
	assert.Equal(t, []string{"Total Income", "Total Expenses", "Net"}, labels)

	net, err := f.GetCellValue(SheetName, "E7", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "49750", net)
}

// TestSpreadsheetExpensesOnly проверяет итог только по расходам.
func TestSpreadsheetExpensesOnly(t *testing.T) {
	result := models.ViewResult{
		Transactions: sampleRows()[:1],
		Summary: models.ViewSummary{
			Kind:     models.ViewKindExpenses,
			Expenses: decimal.RequireFromString("250"),
		},
	}

	data, err := NewBuilder(ist).Spreadsheet(result)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	label, err := f.GetCellValue(SheetName, "D4")
	require.NoError(t, err)
	assert.Equal(t, "Total Expenses", label)

	next, err := f.GetCellValue(SheetName, "D5")
	require.NoError(t, err)
	assert.Empty(t, next)
}
