package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/finance-tracker-bot/backend/internal/models"
)

type BudgetRepository struct {
	db *pgxpool.Pool
}

type BudgetInput struct {
	StartDate     time.Time
	EndDate       time.Time
	Amount        decimal.Decimal
	Wallets       []string
	Categories    []string
	AllWallets    bool
	AllCategories bool
	IsDefault     bool
}

const budgetColumns = `id, user_id, start_date, end_date, amount, wallets, categories, all_wallets, all_categories, is_default, created_at`

// NewBudgetRepository создает репозиторий бюджетов.
func NewBudgetRepository(db *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Create сохраняет бюджет; новый бюджет по умолчанию снимает флаг с прежнего.
func (r *BudgetRepository) Create(ctx context.Context, userID int64, input BudgetInput) (models.Budget, error) {
	var budget models.Budget

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return budget, fmt.Errorf("begin budget tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if input.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE budgets SET is_default = FALSE WHERE user_id = $1 AND is_default`,
			userID,
		); err != nil {
			return budget, fmt.Errorf("clear default budget: %w", err)
		}
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO budgets (user_id, start_date, end_date, amount, wallets, categories, all_wallets, all_categories, is_default)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+budgetColumns,
		userID, dateOnly(input.StartDate), dateOnly(input.EndDate), input.Amount,
		nonNil(input.Wallets), nonNil(input.Categories), input.AllWallets, input.AllCategories, input.IsDefault,
	)
	budget, err = scanBudget(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			return budget, ErrInvalid
		}
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return budget, ErrConflict
		}
		return budget, fmt.Errorf("insert budget: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return budget, fmt.Errorf("commit budget: %w", err)
	}

	return budget, nil
}

// GetByID возвращает бюджет владельца по идентификатору.
func (r *BudgetRepository) GetByID(ctx context.Context, userID, id int64) (models.Budget, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	budget, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return budget, ErrNotFound
		}
		return budget, fmt.Errorf("get budget: %w", err)
	}

	return budget, nil
}

// GetDefault возвращает бюджет владельца, отмеченный по умолчанию.
func (r *BudgetRepository) GetDefault(ctx context.Context, userID int64) (models.Budget, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND is_default LIMIT 1`,
		userID,
	)

	budget, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return budget, ErrNotFound
		}
		return budget, fmt.Errorf("get default budget: %w", err)
	}

	return budget, nil
}

// List возвращает бюджеты владельца, новые периоды первыми.
func (r *BudgetRepository) List(ctx context.Context, userID int64) ([]models.Budget, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY start_date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, budget)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	return budgets, nil
}

// Delete удаляет бюджет владельца.
func (r *BudgetRepository) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ResetExpiredDefaults снимает флаг по умолчанию с бюджетов, период которых закончился до today.
func (r *BudgetRepository) ResetExpiredDefaults(ctx context.Context, today time.Time) (int64, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE budgets SET is_default = FALSE WHERE is_default AND end_date < $1`,
		dateOnly(today),
	)
	if err != nil {
		return 0, fmt.Errorf("reset expired default budgets: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanBudget(row pgx.Row) (models.Budget, error) {
	var budget models.Budget

	err := row.Scan(
		&budget.ID, &budget.UserID, &budget.StartDate, &budget.EndDate, &budget.Amount,
		&budget.Wallets, &budget.Categories, &budget.AllWallets, &budget.AllCategories,
		&budget.IsDefault, &budget.CreatedAt,
	)

	return budget, err
}

// dateOnly keeps the calendar day of t regardless of its zone.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
