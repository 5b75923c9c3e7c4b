package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a per-category spending ceiling for one (month, year) period.
// At most one budget exists per (account, category, month, year); saving the
// same key again overwrites the ceiling.
type Budget struct {
	ID        string
	AccountID string
	Category  string
	Ceiling   decimal.Decimal
	Month     int
	Year      int
	CreatedAt time.Time
}
