package ledger

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/repository"
)

type mockTransactionStore struct {
	mock.Mock
}

func (m *mockTransactionStore) Insert(ctx context.Context, userID int64, input repository.TransactionInput) (models.Transaction, error) {
	args := m.Called(ctx, userID, input)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *mockTransactionStore) GetByID(ctx context.Context, userID, id int64) (models.Transaction, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *mockTransactionStore) Update(ctx context.Context, userID, id int64, input repository.TransactionInput) (models.Transaction, error) {
	args := m.Called(ctx, userID, id, input)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *mockTransactionStore) Delete(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockTransactionStore) List(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]models.Transaction)
	return rows, args.Error(1)
}

func (m *mockTransactionStore) Totals(ctx context.Context, filter repository.TransactionFilter) (repository.Totals, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(repository.Totals), args.Error(1)
}

func (m *mockTransactionStore) DistinctWallets(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	labels, _ := args.Get(0).([]string)
	return labels, args.Error(1)
}

func (m *mockTransactionStore) DistinctCategories(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	labels, _ := args.Get(0).([]string)
	return labels, args.Error(1)
}

type mockBudgetStore struct {
	mock.Mock
}

func (m *mockBudgetStore) Create(ctx context.Context, userID int64, input repository.BudgetInput) (models.Budget, error) {
	args := m.Called(ctx, userID, input)
	return args.Get(0).(models.Budget), args.Error(1)
}

func (m *mockBudgetStore) GetByID(ctx context.Context, userID, id int64) (models.Budget, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(models.Budget), args.Error(1)
}

func (m *mockBudgetStore) GetDefault(ctx context.Context, userID int64) (models.Budget, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Budget), args.Error(1)
}

func (m *mockBudgetStore) List(ctx context.Context, userID int64) ([]models.Budget, error) {
	args := m.Called(ctx, userID)
	budgets, _ := args.Get(0).([]models.Budget)
	return budgets, args.Error(1)
}

func (m *mockBudgetStore) Delete(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockBudgetStore) ResetExpiredDefaults(ctx context.Context, today time.Time) (int64, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(int64), args.Error(1)
}
