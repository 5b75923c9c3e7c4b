package tokens

import (
	"context"
	"time"

	"smartspend/internal/models"
)

type Repository interface {
	// Upsert stores the token, replacing any live token of the same kind for
	// the same account.
	Upsert(ctx context.Context, token *models.SecurityToken) error
	FindByValue(ctx context.Context, value string, kind models.TokenKind) (*models.SecurityToken, error)
	DeleteByValue(ctx context.Context, value string) error
	DeleteExpiredResets(ctx context.Context, now time.Time) (int64, error)
	DeleteStaleVerifies(ctx context.Context, cutoff time.Time) (int64, error)
}
