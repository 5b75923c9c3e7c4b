// Package budgets provides a PostgreSQL-backed repository for per-category
// monthly budgets.
package budgets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartspend/internal/common"
	"smartspend/internal/dbx"
	"smartspend/internal/models"
)

const selectColumns = `id, account_id, category, ceiling, month, year, created_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, budget *models.Budget) (*models.Budget, error) {
	query := `
		INSERT INTO budgets (account_id, category, ceiling, month, year)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, category, month, year)
		DO UPDATE SET ceiling = EXCLUDED.ceiling
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		budget.AccountID, budget.Category, budget.Ceiling, budget.Month, budget.Year,
	).Scan(&budget.ID, &budget.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return budget, nil
}

func (r *PostgresRepository) Find(ctx context.Context, accountID, category string, month, year int) (*models.Budget, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM budgets
		WHERE account_id = $1 AND category = $2 AND month = $3 AND year = $4
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, accountID, category, month, year))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Budget, error) {
	query := `SELECT ` + selectColumns + ` FROM budgets WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1`, id)
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

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Budget, error) {
	query := `SELECT ` + selectColumns + ` FROM budgets WHERE account_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, accountID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Budget, error) {
	query := `SELECT ` + selectColumns + ` FROM budgets ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []*models.Budget
	for rows.Next() {
		budget := &models.Budget{}
		if err := rows.Scan(&budget.ID, &budget.AccountID, &budget.Category,
			&budget.Ceiling, &budget.Month, &budget.Year, &budget.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Budget, error) {
	budget := &models.Budget{}
	err := row.Scan(&budget.ID, &budget.AccountID, &budget.Category,
		&budget.Ceiling, &budget.Month, &budget.Year, &budget.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return budget, nil
}
