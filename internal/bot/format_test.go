package bot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"example.com/finance-tracker-bot/backend/internal/models"
)

// TestFormatSummary проверяет набор итогов по виду выборки.
func TestFormatSummary(t *testing.T) {
	summary := models.ViewSummary{
		Income:   decimal.NewFromInt(500),
		Expenses: decimal.RequireFromString("120.5"),
		Net:      decimal.RequireFromString("379.5"),
	}

	all := formatSummary(summary)
	assert.Contains(t, all, "🟢 Total Income   : ₹500.00")
	assert.Contains(t, all, "🔴 Total Expenses : ₹120.50")
	assert.Contains(t, all, "🧾 Net: ₹379.50")

	summary.Kind = models.ViewKindIncome
	income := formatSummary(summary)
	assert.Contains(t, income, "🟢 Total Income : ₹500.00")
	assert.NotContains(t, income, "Net")
}

// TestMoneyFixed проверяет вывод отрицательных сумм.
func TestMoneyFixed(t *testing.T) {
	assert.Equal(t, "-₹42.10", moneyFixed(decimal.RequireFromString("-42.1")))
	assert.Equal(t, "₹0.00", moneyFixed(decimal.Zero))
	assert.Equal(t, "₹42.1", money(decimal.RequireFromString("-42.1")))
}

// TestTitleCase проверяет заглавные буквы в названиях категорий.
func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Food Court", titleCase("food   COURT"))
	assert.Equal(t, "Ёлка", titleCase("ёлка"))
	assert.Equal(t, "", titleCase(""))
}
