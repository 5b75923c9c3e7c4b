// Package services contains the engine's business logic: token lifecycle,
// account lifecycle, session limiting, ledger aggregation, budget alerts,
// and report export.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartspend/internal/clock"
	"smartspend/internal/common"
	"smartspend/internal/dbx"
	"smartspend/internal/keylock"
	"smartspend/internal/logging"
	"smartspend/internal/models"
	"smartspend/internal/repositories/repomanager"
)

// TokenVault issues, validates, and expires single-use security tokens.
// Verify tokens live until consumed; reset tokens carry a fixed validity
// window from issuance. At most one live token of a kind exists per account.
type TokenVault struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	locks *keylock.KeyedMutex
	clock clock.Clock
	log   logging.Logger
}

func NewTokenVault(db *sql.DB, repos repomanager.RepositoryManager, locks *keylock.KeyedMutex, clk clock.Clock, log logging.Logger) *TokenVault {
	return &TokenVault{db: db, repos: repos, locks: locks, clock: clk, log: log}
}

// Issue creates a fresh token for the account, replacing any live token of
// the same kind. ttl is required for reset tokens and ignored for verify
// tokens, which do not expire.
func (v *TokenVault) Issue(ctx context.Context, accountID string, kind models.TokenKind, ttl time.Duration) (*models.SecurityToken, error) {
	if kind == models.KindReset && ttl <= 0 {
		return nil, fmt.Errorf("reset tokens require a positive ttl")
	}

	unlock := v.locks.Lock(accountID)
	defer unlock()

	value, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("generating token value: %w", err)
	}

	token := &models.SecurityToken{
		AccountID: accountID,
		Kind:      kind,
		Value:     value,
		IssuedAt:  v.clock.Now(),
	}
	if kind == models.KindReset {
		expires := token.IssuedAt.Add(ttl)
		token.ExpiresAt = &expires
	}

	if err := v.repos.Tokens(v.db).Upsert(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Consume validates and destroys a token, returning the owning account.
// It reports common.ErrNotFound for unknown or already-consumed values and
// common.ErrTokenExpired for reset tokens past their window; detecting expiry
// clears the token as a side effect. A token can be consumed exactly once.
func (v *TokenVault) Consume(ctx context.Context, value string, kind models.TokenKind) (*models.Account, error) {
	// Peek outside the lock to learn which account to serialize on.
	peek, err := v.repos.Tokens(v.db).FindByValue(ctx, value, kind)
	if err != nil {
		return nil, err
	}

	unlock := v.locks.Lock(peek.AccountID)
	defer unlock()

	var account *models.Account
	var outcome error

	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokenRepo := v.repos.Tokens(tx)

		token, err := tokenRepo.FindByValue(ctx, value, kind)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// Consumed by a concurrent caller between peek and lock.
				outcome = common.ErrNotFound
				return nil
			}
			return err
		}

		if token.ExpiresAt != nil && !v.clock.Now().Before(*token.ExpiresAt) {
			// Expired tokens are cleared on detection; the delete must commit.
			if err := tokenRepo.DeleteByValue(ctx, token.Value); err != nil {
				return err
			}
			outcome = common.ErrTokenExpired
			return nil
		}

		if err := tokenRepo.DeleteByValue(ctx, token.Value); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				outcome = common.ErrNotFound
				return nil
			}
			return err
		}

		account, err = v.repos.Accounts(tx).GetByID(ctx, token.AccountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}
	return account, nil
}

// Sweep removes verify tokens older than maxVerifyAge and reset tokens past
// their expiry. It is a maintenance pass; lookups already treat stale tokens
// as invalid.
func (v *TokenVault) Sweep(ctx context.Context, maxVerifyAge time.Duration) error {
	now := v.clock.Now()
	repo := v.repos.Tokens(v.db)

	expired, err := repo.DeleteExpiredResets(ctx, now)
	if err != nil {
		return err
	}
	stale, err := repo.DeleteStaleVerifies(ctx, now.Add(-maxVerifyAge))
	if err != nil {
		return err
	}

	if expired > 0 || stale > 0 {
		v.log.Info(ctx, "token sweep completed", "expired_resets", expired, "stale_verifies", stale)
	}
	return nil
}
