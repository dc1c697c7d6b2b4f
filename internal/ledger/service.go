package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/parser"
	"example.com/finance-tracker-bot/backend/internal/repository"
)

var (
	ErrNotFound = repository.ErrNotFound
	ErrInvalid  = repository.ErrInvalid
)

type TransactionStore interface {
	Insert(ctx context.Context, userID int64, input repository.TransactionInput) (models.Transaction, error)
	GetByID(ctx context.Context, userID, id int64) (models.Transaction, error)
	Update(ctx context.Context, userID, id int64, input repository.TransactionInput) (models.Transaction, error)
	Delete(ctx context.Context, userID, id int64) error
	List(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, error)
	Totals(ctx context.Context, filter repository.TransactionFilter) (repository.Totals, error)
	DistinctWallets(ctx context.Context, userID int64) ([]string, error)
	DistinctCategories(ctx context.Context, userID int64) ([]string, error)
}

type BudgetStore interface {
	Create(ctx context.Context, userID int64, input repository.BudgetInput) (models.Budget, error)
	GetByID(ctx context.Context, userID, id int64) (models.Budget, error)
	GetDefault(ctx context.Context, userID int64) (models.Budget, error)
	List(ctx context.Context, userID int64) ([]models.Budget, error)
	Delete(ctx context.Context, userID, id int64) error
	ResetExpiredDefaults(ctx context.Context, today time.Time) (int64, error)
}

// Entry описывает запись, собранную мастером или быстрым вводом.
type Entry struct {
	// Kind empty means the sign is taken from the category.
	Kind     models.EntryKind
	Category string `validate:"required"`
	Amount   decimal.Decimal
	Wallet   string `validate:"required"`
	Note     string
	Date     *time.Time
}

type BudgetDraft struct {
	StartDate     time.Time `validate:"required"`
	EndDate       time.Time `validate:"required,gtfield=StartDate"`
	Amount        decimal.Decimal
	Wallets       []string `validate:"dive,required"`
	Categories    []string `validate:"dive,required"`
	AllWallets    bool
	AllCategories bool
	IsDefault     bool
}

type Service struct {
	transactions TransactionStore
	budgets      BudgetStore
	loc          *time.Location
	now          func() time.Time
	validate     *validator.Validate
}

// NewService создает доменный сервис учета поверх хранилищ.
func NewService(transactions TransactionStore, budgets BudgetStore, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}

	return &Service{
		transactions: transactions,
		budgets:      budgets,
		loc:          loc,
		now:          now,
		validate:     validator.New(),
	}
}

// IsIncomeCategory сообщает, считается ли категория доходом при быстром вводе.
func IsIncomeCategory(category string) bool {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "income", "salary":
		return true
	default:
		return false
	}
}

// SignedAmount применяет знак записи: доход положительный, расход отрицательный.
func SignedAmount(kind models.EntryKind, category string, amount decimal.Decimal) decimal.Decimal {
	if kind == "" {
		kind = models.EntryKindExpense
		if IsIncomeCategory(category) {
			kind = models.EntryKindIncome
		}
	}

	amount = amount.Abs().Round(2)
	if kind == models.EntryKindExpense {
		return amount.Neg()
	}
	return amount
}

// RecordEntry сохраняет новую транзакцию.
func (s *Service) RecordEntry(ctx context.Context, userID int64, entry Entry) (models.Transaction, error) {
	input, err := s.entryInput(entry)
	if err != nil {
		return models.Transaction{}, err
	}

	txn, err := s.transactions.Insert(ctx, userID, input)
	if err != nil {
		return txn, err
	}

	return s.localizeTransaction(txn), nil
}

// UpdateEntry перезаписывает транзакцию владельца.
func (s *Service) UpdateEntry(ctx context.Context, userID, id int64, entry Entry) (models.Transaction, error) {
	input, err := s.entryInput(entry)
	if err != nil {
		return models.Transaction{}, err
	}

	txn, err := s.transactions.Update(ctx, userID, id, input)
	if err != nil {
		return txn, err
	}

	return s.localizeTransaction(txn), nil
}

// GetTransaction возвращает транзакцию владельца.
func (s *Service) GetTransaction(ctx context.Context, userID, id int64) (models.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, userID, id)
	if err != nil {
		return txn, err
	}

	return s.localizeTransaction(txn), nil
}

// DeleteTransaction удаляет транзакцию владельца.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return s.transactions.Delete(ctx, userID, id)
}

// View выполняет одну фильтрованную выборку и считает итоги.
func (s *Service) View(ctx context.Context, userID int64, query parser.ViewQuery) (models.ViewResult, error) {
	filter := repository.TransactionFilter{
		UserID:       userID,
		CategoryLike: query.Categories,
		WalletLike:   query.Wallets,
	}

	if !query.AllTime {
		from, to := query.From, query.To
		filter.From = &from
		filter.To = &to
	}

	switch query.Kind {
	case models.ViewKindIncome:
		filter.Sign = repository.SignPositive
	case models.ViewKindExpenses:
		filter.Sign = repository.SignNegative
	}

	rows, err := s.transactions.List(ctx, filter)
	if err != nil {
		return models.ViewResult{}, err
	}

	for i := range rows {
		rows[i] = s.localizeTransaction(rows[i])
	}

	return models.ViewResult{
		Transactions: rows,
		Summary:      Summarize(query.Kind, rows),
	}, nil
}

// Summarize считает итоги доходов, расходов и сальдо по строкам выборки.
func Summarize(kind models.ViewKind, rows []models.Transaction) models.ViewSummary {
	summary := models.ViewSummary{
		Kind:     kind,
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
	}

	for _, row := range rows {
		if row.IsIncome() {
			summary.Income = summary.Income.Add(row.Amount)
		} else {
			summary.Expenses = summary.Expenses.Add(row.Amount.Abs())
		}
	}

	summary.Net = summary.Income.Sub(summary.Expenses)
	return summary
}

// Transactions возвращает все транзакции владельца для выгрузки.
func (s *Service) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := s.transactions.List(ctx, repository.TransactionFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i] = s.localizeTransaction(rows[i])
	}

	return rows, nil
}

// Wallets возвращает кошельки владельца из истории транзакций.
func (s *Service) Wallets(ctx context.Context, userID int64) ([]string, error) {
	return s.transactions.DistinctWallets(ctx, userID)
}

// Categories возвращает категории владельца из истории транзакций.
func (s *Service) Categories(ctx context.Context, userID int64) ([]string, error) {
	return s.transactions.DistinctCategories(ctx, userID)
}

// Location возвращает региональную временную зону.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) entryInput(entry Entry) (repository.TransactionInput, error) {
	entry.Category = strings.TrimSpace(entry.Category)
	entry.Wallet = strings.TrimSpace(entry.Wallet)

	if err := s.validate.Struct(entry); err != nil {
		return repository.TransactionInput{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	createdAt := s.now().In(s.loc)
	if entry.Date != nil {
		createdAt = entry.Date.In(s.loc)
	}

	return repository.TransactionInput{
		Category:  entry.Category,
		Amount:    SignedAmount(entry.Kind, entry.Category, entry.Amount),
		Wallet:    entry.Wallet,
		Note:      strings.TrimSpace(entry.Note),
		CreatedAt: createdAt,
	}, nil
}

func (s *Service) localizeTransaction(txn models.Transaction) models.Transaction {
	txn.CreatedAt = txn.CreatedAt.In(s.loc)
	return txn
}

// IsNotFound сообщает, что запись владельца не найдена.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
