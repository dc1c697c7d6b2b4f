package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/finance-tracker-bot/backend/internal/models"
)

// TestParseViewRangeWithFilters проверяет диапазон с фильтрами категорий и кошельков.
func TestParseViewRangeWithFilters(t *testing.T) {
	p, loc := newTestParser(t)

	query, ok := p.ParseView("show expenses of food,travel via upi from 2025-01-01 to 2025-01-31")
	require.True(t, ok)
	assert.Equal(t, VerbShow, query.Verb)
	assert.Equal(t, models.ViewKindExpenses, query.Kind)
	assert.Equal(t, []string{"food", "travel"}, query.Categories)
	assert.Equal(t, []string{"upi"}, query.Wallets)
	assert.False(t, query.AllTime)
	assert.True(t, time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Equal(query.From))
	assert.True(t, time.Date(2025, 1, 31, 23, 59, 59, 0, loc).Equal(query.To))
}

// TestParseViewRangeWalletAfterDates проверяет кошелек после диапазона и ключевое слово till.
func TestParseViewRangeWalletAfterDates(t *testing.T) {
	p, loc := newTestParser(t)

	query, ok := p.ParseView("Generate all transactions from 2025-06-01 till today via Cash, UPI.")
	require.True(t, ok)
	assert.Equal(t, VerbGenerate, query.Verb)
	assert.Equal(t, models.ViewKindTransactions, query.Kind)
	assert.Nil(t, query.Categories)
	assert.Equal(t, []string{"cash", "upi"}, query.Wallets)
	assert.True(t, time.Date(2025, 6, 16, 23, 59, 59, 0, loc).Equal(query.To))
}

// TestParseViewAll проверяет шаблон "за всё время".
func TestParseViewAll(t *testing.T) {
	p, _ := newTestParser(t)

	query, ok := p.ParseView("show all income of salary via bank")
	require.True(t, ok)
	assert.True(t, query.AllTime)
	assert.Equal(t, models.ViewKindIncome, query.Kind)
	assert.Equal(t, []string{"salary"}, query.Categories)
	assert.Equal(t, []string{"bank"}, query.Wallets)
}

// TestParseViewSingleDay проверяет шаблон одного дня, включая день по умолчанию.
func TestParseViewSingleDay(t *testing.T) {
	p, loc := newTestParser(t)

	query, ok := p.ParseView("show")
	require.True(t, ok)
	assert.Equal(t, models.ViewKindAll, query.Kind)
	assert.True(t, time.Date(2025, 6, 16, 0, 0, 0, 0, loc).Equal(query.From))

	query, ok = p.ParseView("show all expenses for yesterday")
	require.True(t, ok)
	assert.False(t, query.AllTime)
	assert.True(t, time.Date(2025, 6, 15, 0, 0, 0, 0, loc).Equal(query.From))
	assert.True(t, time.Date(2025, 6, 15, 23, 59, 59, 0, loc).Equal(query.To))

	query, ok = p.ParseView("show transactions of food for 2025-02-10 via upi")
	require.True(t, ok)
	assert.Equal(t, []string{"food"}, query.Categories)
	assert.Equal(t, []string{"upi"}, query.Wallets)
	assert.Equal(t, 10, query.From.Day())
}

// TestParseViewNoMatch проверяет, что посторонний текст не распознается как просмотр.
func TestParseViewNoMatch(t *testing.T) {
	p, _ := newTestParser(t)

	for _, text := range []string{"Food UPI", "show budget 3", "show budgets", "show expenses from 2025-13-01 to today", "display all"} {
		_, ok := p.ParseView(text)
		assert.False(t, ok, "input %q", text)
	}
}

// TestParseViewIsDeterministic проверяет, что одинаковый запрос дает одинаковый фильтр.
func TestParseViewIsDeterministic(t *testing.T) {
	p, _ := newTestParser(t)

	first, ok := p.ParseView("show income for today")
	require.True(t, ok)
	second, ok := p.ParseView("show income for today")
	require.True(t, ok)
	assert.Equal(t, first, second)
}
