//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/finance-tracker-bot/backend/internal/database"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("finance_tracker"),
		postgres.WithUsername("finance"),
		postgres.WithPassword("finance"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, err = database.Migrate(dsn)
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

// TestTransactionRepositoryOwnerScope проверяет фильтры и изоляцию владельцев.
func TestTransactionRepositoryOwnerScope(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(startPostgres(t))

	day := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	food, err := repo.Insert(ctx, 1, TransactionInput{Category: "Food", Amount: decimal.NewFromInt(-250), Wallet: "UPI", CreatedAt: day})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 1, TransactionInput{Category: "Salary", Amount: decimal.NewFromInt(50000), Wallet: "Bank", CreatedAt: day})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, 2, TransactionInput{Category: "Food", Amount: decimal.NewFromInt(-99), Wallet: "UPI", CreatedAt: day})
	require.NoError(t, err)

	rows, err := repo.List(ctx, TransactionFilter{UserID: 1, Sign: SignNegative, CategoryLike: []string{"foo", "travel"}, WalletLike: []string{"up"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, food.ID, rows[0].ID)
	assert.Equal(t, "", rows[0].Note)

	totals, err := repo.Totals(ctx, TransactionFilter{UserID: 1})
	require.NoError(t, err)
	assert.True(t, totals.Income.Equal(decimal.NewFromInt(50000)))
	assert.True(t, totals.Expenses.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, int64(2), totals.Count)

	err = repo.Delete(ctx, 2, food.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, 1, food.ID)
	require.NoError(t, err)

	wallets, err := repo.DistinctWallets(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bank", "UPI"}, wallets)
}

// TestBudgetRepositoryDefaults проверяет единственность бюджета по умолчанию и его сброс.
func TestBudgetRepositoryDefaults(t *testing.T) {
	ctx := context.Background()
	repo := NewBudgetRepository(startPostgres(t))

	first, err := repo.Create(ctx, 1, BudgetInput{
		StartDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.NewFromInt(3000),
		Wallets:   []string{"UPI"},
		IsDefault: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, first.Categories)

	second, err := repo.Create(ctx, 1, BudgetInput{
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.NewFromInt(3000),
		IsDefault: true,
	})
	require.NoError(t, err)

	current, err := repo.GetDefault(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	_, err = repo.Create(ctx, 1, BudgetInput{
		StartDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, ErrInvalid)

	reset, err := repo.ResetExpiredDefaults(ctx, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	_, err = repo.GetDefault(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, 2, first.ID), ErrNotFound)
	require.NoError(t, repo.Delete(ctx, 1, first.ID))
}
