package budgets

import (
	"context"

	"smartspend/internal/models"
)

type Repository interface {
	// Upsert saves the budget; a second save for the same
	// (account, category, month, year) overwrites the ceiling.
	Upsert(ctx context.Context, budget *models.Budget) (*models.Budget, error)
	Find(ctx context.Context, accountID, category string, month, year int) (*models.Budget, error)
	GetByID(ctx context.Context, id string) (*models.Budget, error)
	Delete(ctx context.Context, id string) error
	ListByAccount(ctx context.Context, accountID string) ([]*models.Budget, error)
	ListAll(ctx context.Context) ([]*models.Budget, error)
	Count(ctx context.Context) (int64, error)
}
