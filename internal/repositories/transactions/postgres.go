// Package transactions provides a PostgreSQL-backed repository for recorded
// expenses and incomes.
package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartspend/internal/common"
	"smartspend/internal/dbx"
	"smartspend/internal/models"
)

const selectColumns = `id, account_id, title, amount, category, type, tx_date, description, created_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (account_id, title, amount, category, type, tx_date, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		tx.AccountID, tx.Title, tx.Amount, tx.Category, tx.Type, tx.Date, tx.Description,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tx, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE id = $1`
	tx := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tx.ID, &tx.AccountID, &tx.Title, &tx.Amount, &tx.Category,
		&tx.Type, &tx.Date, &tx.Description, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tx, nil
}

func (r *PostgresRepository) Update(ctx context.Context, tx *models.Transaction) error {
	query := `
		UPDATE transactions
		SET title = $2, amount = $3, category = $4, type = $5, tx_date = $6, description = $7
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.Title, tx.Amount, tx.Category, tx.Type, tx.Date, tx.Description)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE account_id = $1 ORDER BY tx_date DESC, created_at DESC`
	return r.list(ctx, query, accountID)
}

func (r *PostgresRepository) ListForMonth(ctx context.Context, accountID string, month, year int) ([]*models.Transaction, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM transactions
		WHERE account_id = $1
		  AND EXTRACT(MONTH FROM tx_date) = $2
		  AND EXTRACT(YEAR FROM tx_date) = $3
		ORDER BY tx_date, created_at
	`
	return r.list(ctx, query, accountID, month, year)
}

func (r *PostgresRepository) ListInRange(ctx context.Context, accountID string, from, to time.Time) ([]*models.Transaction, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM transactions
		WHERE account_id = $1 AND tx_date >= $2 AND tx_date <= $3
		ORDER BY tx_date, created_at
	`
	return r.list(ctx, query, accountID, from, to)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []*models.Transaction
	for rows.Next() {
		tx := &models.Transaction{}
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Title, &tx.Amount,
			&tx.Category, &tx.Type, &tx.Date, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}
