package bot

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"example.com/finance-tracker-bot/backend/internal/ledger"
	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/parser"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) RecordEntry(ctx context.Context, userID int64, entry ledger.Entry) (models.Transaction, error) {
	args := m.Called(ctx, userID, entry)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *mockLedger) UpdateEntry(ctx context.Context, userID, id int64, entry ledger.Entry) (models.Transaction, error) {
	args := m.Called(ctx, userID, id, entry)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *mockLedger) GetTransaction(ctx context.Context, userID, id int64) (models.Transaction, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *mockLedger) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockLedger) View(ctx context.Context, userID int64, query parser.ViewQuery) (models.ViewResult, error) {
	args := m.Called(ctx, userID, query)
	return args.Get(0).(models.ViewResult), args.Error(1)
}

func (m *mockLedger) Wallets(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	values, _ := args.Get(0).([]string)
	return values, args.Error(1)
}

func (m *mockLedger) Categories(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	values, _ := args.Get(0).([]string)
	return values, args.Error(1)
}

func (m *mockLedger) CreateBudget(ctx context.Context, userID int64, draft ledger.BudgetDraft) (models.Budget, error) {
	args := m.Called(ctx, userID, draft)
	return args.Get(0).(models.Budget), args.Error(1)
}

func (m *mockLedger) GetBudget(ctx context.Context, userID, id int64) (models.Budget, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(models.Budget), args.Error(1)
}

func (m *mockLedger) ListBudgets(ctx context.Context, userID int64) ([]models.Budget, error) {
	args := m.Called(ctx, userID)
	budgets, _ := args.Get(0).([]models.Budget)
	return budgets, args.Error(1)
}

func (m *mockLedger) DeleteBudget(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockLedger) BudgetStatus(ctx context.Context, budget models.Budget) (models.BudgetStatus, error) {
	args := m.Called(ctx, budget)
	return args.Get(0).(models.BudgetStatus), args.Error(1)
}

func (m *mockLedger) DefaultBudgetStatus(ctx context.Context, userID int64) (models.BudgetStatus, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.BudgetStatus), args.Bool(1), args.Error(2)
}

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) Spreadsheet(result models.ViewResult) ([]byte, error) {
	args := m.Called(result)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type mockExportLinker struct {
	mock.Mock
}

func (m *mockExportLinker) ExportLink(userID int64) (string, time.Duration, error) {
	args := m.Called(userID)
	return args.String(0), args.Get(1).(time.Duration), args.Error(2)
}

type sentMessage struct {
	chatID    int64
	messageID int
	edited    bool
	reply     Reply
}

// fakeMessenger records every outbound call in order.
type fakeMessenger struct {
	mu        sync.Mutex
	messages  []sentMessage
	documents []Document
	answered  []string
}

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, reply Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{chatID: chatID, reply: reply})
	return nil
}

func (f *fakeMessenger) EditText(_ context.Context, chatID int64, messageID int, reply Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{chatID: chatID, messageID: messageID, edited: true, reply: reply})
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, callbackID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, callbackID)
	return nil
}

func (f *fakeMessenger) SendDocument(_ context.Context, _ int64, doc Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, doc)
	return nil
}

func (f *fakeMessenger) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return sentMessage{}
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeMessenger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}
