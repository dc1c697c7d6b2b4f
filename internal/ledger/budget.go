package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/parser"
	"example.com/finance-tracker-bot/backend/internal/repository"
)

var nearExhaustionShare = decimal.NewFromFloat(0.2)

// CreateBudget сохраняет бюджет. Выбор "All" фиксирует метки, известные на момент создания.
func (s *Service) CreateBudget(ctx context.Context, userID int64, draft BudgetDraft) (models.Budget, error) {
	if err := s.validate.Struct(draft); err != nil {
		return models.Budget{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if !draft.Amount.IsPositive() {
		return models.Budget{}, fmt.Errorf("%w: budget amount must be positive", ErrInvalid)
	}

	if !draft.AllWallets && len(draft.Wallets) == 0 {
		return models.Budget{}, fmt.Errorf("%w: pick at least one wallet", ErrInvalid)
	}

	if !draft.AllCategories && len(draft.Categories) == 0 {
		return models.Budget{}, fmt.Errorf("%w: pick at least one category", ErrInvalid)
	}

	wallets := uniqueLabels(draft.Wallets)
	if draft.AllWallets {
		snapshot, err := s.transactions.DistinctWallets(ctx, userID)
		if err != nil {
			return models.Budget{}, err
		}
		wallets = uniqueLabels(snapshot)
	}

	categories := uniqueLabels(draft.Categories)
	if draft.AllCategories {
		snapshot, err := s.transactions.DistinctCategories(ctx, userID)
		if err != nil {
			return models.Budget{}, err
		}
		categories = uniqueLabels(snapshot)
	}

	budget, err := s.budgets.Create(ctx, userID, repository.BudgetInput{
		StartDate:     draft.StartDate,
		EndDate:       draft.EndDate,
		Amount:        draft.Amount.Round(2),
		Wallets:       wallets,
		Categories:    categories,
		AllWallets:    draft.AllWallets,
		AllCategories: draft.AllCategories,
		IsDefault:     draft.IsDefault,
	})
	if err != nil {
		return budget, err
	}

	return s.localizeBudget(budget), nil
}

// GetBudget возвращает бюджет владельца.
func (s *Service) GetBudget(ctx context.Context, userID, id int64) (models.Budget, error) {
	budget, err := s.budgets.GetByID(ctx, userID, id)
	if err != nil {
		return budget, err
	}

	return s.localizeBudget(budget), nil
}

// ListBudgets возвращает бюджеты владельца.
func (s *Service) ListBudgets(ctx context.Context, userID int64) ([]models.Budget, error) {
	budgets, err := s.budgets.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range budgets {
		budgets[i] = s.localizeBudget(budgets[i])
	}

	return budgets, nil
}

// DeleteBudget удаляет бюджет владельца.
func (s *Service) DeleteBudget(ctx context.Context, userID, id int64) error {
	return s.budgets.Delete(ctx, userID, id)
}

// BudgetStatus считает расход и прогноз бюджета на текущий день.
func (s *Service) BudgetStatus(ctx context.Context, budget models.Budget) (models.BudgetStatus, error) {
	spent := decimal.Zero

	if len(budget.Wallets) > 0 && len(budget.Categories) > 0 {
		from := parser.StartOfDay(budget.StartDate)
		to := parser.EndOfDay(budget.EndDate)

		totals, err := s.transactions.Totals(ctx, repository.TransactionFilter{
			UserID:     budget.UserID,
			From:       &from,
			To:         &to,
			Sign:       repository.SignNegative,
			WalletIn:   budget.Wallets,
			CategoryIn: budget.Categories,
		})
		if err != nil {
			return models.BudgetStatus{}, err
		}
		spent = totals.Expenses
	}

	return ComputeStatus(budget, spent, s.now().In(s.loc)), nil
}

// DefaultBudgetStatus возвращает состояние бюджета по умолчанию, если он есть.
func (s *Service) DefaultBudgetStatus(ctx context.Context, userID int64) (models.BudgetStatus, bool, error) {
	budget, err := s.budgets.GetDefault(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.BudgetStatus{}, false, nil
		}
		return models.BudgetStatus{}, false, err
	}

	status, err := s.BudgetStatus(ctx, s.localizeBudget(budget))
	if err != nil {
		return models.BudgetStatus{}, false, err
	}

	return status, true, nil
}

// ResetExpiredDefaults снимает флаг по умолчанию с закончившихся бюджетов.
func (s *Service) ResetExpiredDefaults(ctx context.Context) (int64, error) {
	return s.budgets.ResetExpiredDefaults(ctx, s.now().In(s.loc))
}

// ComputeStatus считает показатели бюджета по уже известной сумме расходов.
func ComputeStatus(budget models.Budget, spent decimal.Decimal, now time.Time) models.BudgetStatus {
	total := daysBetween(budget.StartDate, budget.EndDate) + 1
	elapsed := daysBetween(budget.StartDate, now) + 1
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}

	status := models.BudgetStatus{
		Budget:       budget,
		TotalDays:    total,
		ElapsedDays:  elapsed,
		Spent:        spent,
		Remaining:    budget.Amount.Sub(spent),
		AvgDaily:     decimal.Zero,
		OptimalDaily: decimal.Zero,
		Projected:    decimal.Zero,
		Ended:        daysBetween(budget.EndDate, now) > 0,
	}

	totalDec := decimal.NewFromInt(int64(total))
	if total > 0 {
		status.OptimalDaily = budget.Amount.Div(totalDec).Round(2)
	}

	if elapsed > 0 {
		elapsedDec := decimal.NewFromInt(int64(elapsed))
		status.AvgDaily = spent.Div(elapsedDec).Round(2)
		status.Projected = spent.Mul(totalDec).Div(elapsedDec).Round(2)
	}

	switch {
	case status.Ended:
		status.Banner = models.BannerEnded
	case status.Projected.GreaterThan(budget.Amount):
		status.Banner = models.BannerExceeding
	case status.Remaining.LessThan(budget.Amount.Mul(nearExhaustionShare)):
		status.Banner = models.BannerNearExhaustion
	default:
		status.Banner = models.BannerWithinBudget
	}

	return status
}

// daysBetween counts calendar days from a to b, each taken in its own zone.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

func (s *Service) localizeBudget(budget models.Budget) models.Budget {
	budget.StartDate = asLocalDate(budget.StartDate, s.loc)
	budget.EndDate = asLocalDate(budget.EndDate, s.loc)
	budget.CreatedAt = budget.CreatedAt.In(s.loc)
	return budget
}

func asLocalDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func uniqueLabels(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
