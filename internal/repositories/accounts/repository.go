package accounts

import (
	"context"

	"smartspend/internal/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	SetVerified(ctx context.Context, id string, verified bool) error
	UpdatePassword(ctx context.Context, id string, hash string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Account, error)
	Count(ctx context.Context) (int64, error)
}
