package transactions

import (
	"context"
	"time"

	"smartspend/internal/models"
)

type Repository interface {
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, id string) error
	// ListByAccount returns the account's transactions, newest date first.
	ListByAccount(ctx context.Context, accountID string) ([]*models.Transaction, error)
	ListForMonth(ctx context.Context, accountID string, month, year int) ([]*models.Transaction, error)
	ListInRange(ctx context.Context, accountID string, from, to time.Time) ([]*models.Transaction, error)
	ListAll(ctx context.Context) ([]*models.Transaction, error)
	Count(ctx context.Context) (int64, error)
}
