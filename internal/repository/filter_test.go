package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildListQueryFilters проверяет, что фильтр просмотра превращается в условия запроса.
func TestBuildListQueryFilters(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)

	query, args, err := buildListQuery(TransactionFilter{
		UserID:       42,
		From:         &from,
		To:           &to,
		Sign:         SignNegative,
		CategoryLike: []string{"food", "travel"},
		WalletLike:   []string{"upi"},
	}).Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, query, "transactions")
	assert.Contains(t, query, "ILIKE")
	assert.Contains(t, query, " OR ")
	assert.Contains(t, query, "amount < 0")
	assert.Contains(t, query, "ORDER BY")
	assert.Len(t, args, 6)
	assert.Contains(t, args, int64(42))
	assert.Contains(t, args, "%food%")
	assert.Contains(t, args, "%travel%")
	assert.Contains(t, args, "%upi%")
}

// TestBuildListQueryOwnerOnly проверяет, что пустой фильтр ограничен только владельцем.
func TestBuildListQueryOwnerOnly(t *testing.T) {
	query, args, err := buildListQuery(TransactionFilter{UserID: 7}).Build(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, query, "ILIKE")
	assert.NotContains(t, query, "LIMIT")
	assert.Equal(t, []any{int64(7)}, args)
}

// TestBuildTotalsQueryExactLabels проверяет точное сравнение меток для бюджетов.
func TestBuildTotalsQueryExactLabels(t *testing.T) {
	query, args, err := buildTotalsQuery(TransactionFilter{
		UserID:     7,
		Sign:       SignNegative,
		CategoryIn: []string{" Food ", "TRAVEL"},
		WalletIn:   []string{"UPI"},
	}).Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, query, "SUM(amount)")
	assert.Contains(t, query, "lower(category) = ANY(")
	assert.Contains(t, query, "lower(wallet) = ANY(")
	assert.Contains(t, args, []string{"food", "travel"})
	assert.Contains(t, args, []string{"upi"})
}

// TestEscapeLike проверяет экранирование спецсимволов шаблона.
func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
	assert.Equal(t, "food", escapeLike("food"))
}

// TestDateOnly проверяет сохранение календарного дня при смене зоны.
func TestDateOnly(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	got := dateOnly(time.Date(2025, 6, 1, 1, 0, 0, 0, ist))

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), got)
}
