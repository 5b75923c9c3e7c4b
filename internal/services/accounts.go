package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smartspend/internal/common"
	"smartspend/internal/hashing"
	"smartspend/internal/keylock"
	"smartspend/internal/logging"
	"smartspend/internal/models"
	"smartspend/internal/notify"
	"smartspend/internal/repositories/repomanager"
)

// notifyTimeout bounds the background delivery attempt for a single token.
const notifyTimeout = 10 * time.Second

// AccountService implements registration, verification, password reset, and
// seed-account bootstrap on top of the TokenVault.
type AccountService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	vault    *TokenVault
	hasher   hashing.Hasher
	notifier notify.Notifier
	locks    *keylock.KeyedMutex
	log      logging.Logger
	resetTTL time.Duration
}

func NewAccountService(db *sql.DB, repos repomanager.RepositoryManager, vault *TokenVault,
	hasher hashing.Hasher, notifier notify.Notifier, locks *keylock.KeyedMutex,
	log logging.Logger, resetTTL time.Duration) *AccountService {
	return &AccountService{
		db: db, repos: repos, vault: vault, hasher: hasher,
		notifier: notifier, locks: locks, log: log, resetTTL: resetTTL,
	}
}

// Register creates an unverified USER account, issues a verify token, and
// dispatches the notification. Emails match case-sensitively; a collision
// yields common.ErrDuplicateEmail.
func (s *AccountService) Register(ctx context.Context, email, password, firstName, lastName string) (*models.Account, error) {
	unlock := s.locks.Lock("email:" + email)
	defer unlock()

	repo := s.repos.Accounts(s.db)
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	account, err := repo.Create(ctx, &models.Account{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         models.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.vault.Issue(ctx, account.ID, models.KindVerify, 0)
	if err != nil {
		return nil, err
	}

	s.dispatch(account, models.KindVerify, token.Value)
	return account, nil
}

// Verify consumes a verify token and flags the account. It returns false for
// unknown or already-consumed tokens; only storage failures surface as errors.
func (s *AccountService) Verify(ctx context.Context, token string) (bool, error) {
	account, err := s.vault.Consume(ctx, token, models.KindVerify)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrTokenExpired) {
			return false, nil
		}
		return false, err
	}

	unlock := s.locks.Lock(account.ID)
	defer unlock()

	if err := s.repos.Accounts(s.db).SetVerified(ctx, account.ID, true); err != nil {
		return false, err
	}
	s.log.Info(ctx, "account verified", "email", account.Email)
	return true, nil
}

// Authenticate checks the credential and the verification gate, in that
// order: a wrong password is common.ErrInvalidCredentials even for an
// unverified account, and an unverified account with a correct password is
// common.ErrNotVerified.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.repos.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	if !account.Verified {
		return nil, common.ErrNotVerified
	}
	return account, nil
}

// RequestPasswordReset silently succeeds for unknown emails so the outcome
// never reveals whether an address is registered. For known accounts it
// issues a reset token with the configured ttl and dispatches the link.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.repos.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := s.vault.Issue(ctx, account.ID, models.KindReset, s.resetTTL)
	if err != nil {
		return err
	}

	s.dispatch(account, models.KindReset, token.Value)
	return nil
}

// ResetPassword consumes a reset token and replaces the credential hash.
// Unknown or expired tokens yield false with no mutation.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) (bool, error) {
	account, err := s.vault.Consume(ctx, token, models.KindReset)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrTokenExpired) {
			return false, nil
		}
		return false, err
	}

	unlock := s.locks.Lock(account.ID)
	defer unlock()

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return false, err
	}
	if err := s.repos.Accounts(s.db).UpdatePassword(ctx, account.ID, hash); err != nil {
		return false, err
	}
	s.log.Info(ctx, "password reset", "email", account.Email)
	return true, nil
}

// EnsureSeedAccount creates a pre-verified account only when the email is not
// yet registered. Safe to invoke on every process start.
func (s *AccountService) EnsureSeedAccount(ctx context.Context, email, password string, role models.Role, firstName, lastName string) error {
	unlock := s.locks.Lock("email:" + email)
	defer unlock()

	repo := s.repos.Accounts(s.db)
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, &models.Account{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		Verified:     true,
	})
	if errors.Is(err, common.ErrDuplicateEmail) {
		// Another instance seeded concurrently.
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info(ctx, "seed account created", "email", email, "role", role)
	return nil
}

// ToggleStatus flips the verification flag. Administrative operation.
func (s *AccountService) ToggleStatus(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	repo := s.repos.Accounts(s.db)
	account, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return repo.SetVerified(ctx, id, !account.Verified)
}

// Delete removes an account. Admin accounts are never deleted.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	repo := s.repos.Accounts(s.db)
	account, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if account.Role == models.RoleAdmin {
		return common.ErrUnauthorized
	}
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info(ctx, "account deleted", "email", account.Email)
	return nil
}

// List returns all accounts in creation order.
func (s *AccountService) List(ctx context.Context) ([]*models.Account, error) {
	return s.repos.Accounts(s.db).List(ctx)
}

// dispatch hands the notification to the Notifier in the background. Delivery
// is best-effort: failures are logged and the token stays valid.
func (s *AccountService) dispatch(account *models.Account, kind models.TokenKind, token string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Deliver(ctx, account, kind, token); err != nil {
			s.log.Warn(ctx, "token delivery failed", "email", account.Email, "kind", kind, "error", err)
		}
	}()
}
