package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryKind string

type ViewKind string

type BudgetBanner string

const (
	EntryKindIncome  EntryKind = "income"
	EntryKindExpense EntryKind = "expense"

	ViewKindAll          ViewKind = ""
	ViewKindIncome       ViewKind = "income"
	ViewKindExpenses     ViewKind = "expenses"
	ViewKindTransactions ViewKind = "transactions"

	BannerExceeding      BudgetBanner = "exceeding"
	BannerNearExhaustion BudgetBanner = "near exhaustion"
	BannerWithinBudget   BudgetBanner = "within budget"
	BannerEnded          BudgetBanner = "ended"
)

// Transaction описывает одну запись дохода или расхода. Знак суммы: плюс для дохода, минус для расхода.
type Transaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Wallet    string          `json:"wallet"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsIncome сообщает, является ли запись доходом.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

type Budget struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Amount        decimal.Decimal `json:"amount"`
	Wallets       []string        `json:"wallets"`
	Categories    []string        `json:"categories"`
	AllWallets    bool            `json:"all_wallets"`
	AllCategories bool            `json:"all_categories"`
	IsDefault     bool            `json:"is_default"`
	CreatedAt     time.Time       `json:"created_at"`
}

type BudgetStatus struct {
	Budget       Budget
	TotalDays    int
	ElapsedDays  int
	Spent        decimal.Decimal
	Remaining    decimal.Decimal
	AvgDaily     decimal.Decimal
	OptimalDaily decimal.Decimal
	Projected    decimal.Decimal
	Ended        bool
	Banner       BudgetBanner
}

type ViewSummary struct {
	Kind     ViewKind
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal
}

type ViewResult struct {
	Transactions []Transaction
	Summary      ViewSummary
}
