// Package tokens provides a PostgreSQL-backed repository for single-use
// security tokens (email verification and password reset).
package tokens

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

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert relies on the (account_id, kind) unique constraint: issuing a new
// token of a kind invalidates the previous one for that account.
func (r *PostgresRepository) Upsert(ctx context.Context, token *models.SecurityToken) error {
	query := `
		INSERT INTO security_tokens (account_id, kind, value, expires_at, issued_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, kind)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, issued_at = EXCLUDED.issued_at
		RETURNING id
	`
	var expires sql.NullTime
	if token.ExpiresAt != nil {
		expires = sql.NullTime{Time: *token.ExpiresAt, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		token.AccountID, token.Kind, token.Value, expires, token.IssuedAt,
	).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByValue(ctx context.Context, value string, kind models.TokenKind) (*models.SecurityToken, error) {
	query := `
		SELECT id, account_id, kind, value, expires_at, issued_at
		FROM security_tokens
		WHERE value = $1 AND kind = $2
	`
	token := &models.SecurityToken{}
	var expires sql.NullTime
	err := r.db.QueryRowContext(ctx, query, value, kind).Scan(
		&token.ID, &token.AccountID, &token.Kind, &token.Value, &expires, &token.IssuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if expires.Valid {
		token.ExpiresAt = &expires.Time
	}
	return token, nil
}

// DeleteByValue removes a token row. Exactly one caller observes the delete
// of a given value, which is what makes consumption single-use.
func (r *PostgresRepository) DeleteByValue(ctx context.Context, value string) error {
	query := `DELETE FROM security_tokens WHERE value = $1`
	res, err := r.db.ExecContext(ctx, query, value)
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

func (r *PostgresRepository) DeleteExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM security_tokens WHERE kind = $1 AND expires_at IS NOT NULL AND expires_at <= $2`
	res, err := r.db.ExecContext(ctx, query, models.KindReset, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteStaleVerifies(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM security_tokens WHERE kind = $1 AND issued_at < $2`
	res, err := r.db.ExecContext(ctx, query, models.KindVerify, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
