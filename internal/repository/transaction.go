package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/finance-tracker-bot/backend/internal/models"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

type TransactionInput struct {
	Category  string
	Amount    decimal.Decimal
	Wallet    string
	Note      string
	CreatedAt time.Time
}

type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Count    int64
}

// NewTransactionRepository создает репозиторий транзакций.
func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Insert сохраняет новую транзакцию владельца.
func (r *TransactionRepository) Insert(ctx context.Context, userID int64, input TransactionInput) (models.Transaction, error) {
	var txn models.Transaction

	err := r.db.QueryRow(ctx,
		`INSERT INTO transactions (user_id, category, amount, wallet, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, user_id, category, amount, wallet, note, created_at`,
		userID, input.Category, input.Amount, input.Wallet, input.Note, input.CreatedAt,
	).Scan(&txn.ID, &txn.UserID, &txn.Category, &txn.Amount, &txn.Wallet, &txn.Note, &txn.CreatedAt)
	if err != nil {
		return txn, fmt.Errorf("insert transaction: %w", err)
	}

	return txn, nil
}

// GetByID возвращает транзакцию владельца по идентификатору.
func (r *TransactionRepository) GetByID(ctx context.Context, userID, id int64) (models.Transaction, error) {
	var txn models.Transaction

	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, category, amount, wallet, note, created_at
		 FROM transactions
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&txn.ID, &txn.UserID, &txn.Category, &txn.Amount, &txn.Wallet, &txn.Note, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return txn, ErrNotFound
		}
		return txn, fmt.Errorf("get transaction: %w", err)
	}

	return txn, nil
}

// Update перезаписывает поля транзакции владельца.
func (r *TransactionRepository) Update(ctx context.Context, userID, id int64, input TransactionInput) (models.Transaction, error) {
	var txn models.Transaction

	err := r.db.QueryRow(ctx,
		`UPDATE transactions
		 SET category = $3, amount = $4, wallet = $5, note = $6, created_at = $7
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, category, amount, wallet, note, created_at`,
		id, userID, input.Category, input.Amount, input.Wallet, input.Note, input.CreatedAt,
	).Scan(&txn.ID, &txn.UserID, &txn.Category, &txn.Amount, &txn.Wallet, &txn.Note, &txn.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return txn, ErrNotFound
		}
		return txn, fmt.Errorf("update transaction: %w", err)
	}

	return txn, nil
}

// Delete удаляет транзакцию владельца.
func (r *TransactionRepository) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List возвращает транзакции по фильтру, новые первыми.
func (r *TransactionRepository) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	query, args, err := buildListQuery(filter).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.Category, &txn.Amount, &txn.Wallet, &txn.Note, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return result, nil
}

// Totals считает суммы доходов и расходов по фильтру одним запросом.
func (r *TransactionRepository) Totals(ctx context.Context, filter TransactionFilter) (Totals, error) {
	var totals Totals

	query, args, err := buildTotalsQuery(filter).Build(ctx)
	if err != nil {
		return totals, fmt.Errorf("build totals query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&totals.Income, &totals.Expenses, &totals.Count); err != nil {
		return totals, fmt.Errorf("sum transactions: %w", err)
	}

	return totals, nil
}

// DistinctWallets возвращает кошельки, встречавшиеся у владельца.
func (r *TransactionRepository) DistinctWallets(ctx context.Context, userID int64) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT wallet FROM transactions WHERE user_id = $1 ORDER BY wallet`, userID)
}

// DistinctCategories возвращает категории, встречавшиеся у владельца.
func (r *TransactionRepository) DistinctCategories(ctx context.Context, userID int64) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT category FROM transactions WHERE user_id = $1 ORDER BY category`, userID)
}

func (r *TransactionRepository) distinct(ctx context.Context, query string, userID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	labels, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect labels: %w", err)
	}

	return labels, nil
}
