package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"smartspend/internal/common"
	"smartspend/internal/logging"
	"smartspend/internal/models"
	"smartspend/internal/repositories/repomanager"
)

// DefaultAlertThreshold is the fraction of a budget ceiling at which an
// alert is raised.
const DefaultAlertThreshold = 0.8

// BudgetService manages per-category monthly budgets and evaluates spending
// against them.
type BudgetService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	threshold float64
	log       logging.Logger
}

func NewBudgetService(db *sql.DB, repos repomanager.RepositoryManager, threshold float64, log logging.Logger) *BudgetService {
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}
	return &BudgetService{db: db, repos: repos, threshold: threshold, log: log}
}

// Save upserts a budget keyed by (owner, category, month, year); saving the
// same key again overwrites the ceiling instead of creating a duplicate.
func (s *BudgetService) Save(ctx context.Context, budget *models.Budget) (*models.Budget, error) {
	if strings.TrimSpace(budget.Category) == "" {
		return nil, common.ErrInvalidCategory
	}
	if budget.Month < 1 || budget.Month > 12 || budget.Year < 1 {
		return nil, common.ErrInvalidPeriod
	}
	if budget.Ceiling.IsNegative() {
		return nil, common.ErrInvalidAmount
	}
	return s.repos.Budgets(s.db).Upsert(ctx, budget)
}

// Delete removes a budget after confirming it belongs to the caller.
func (s *BudgetService) Delete(ctx context.Context, ownerID, id string) error {
	repo := s.repos.Budgets(s.db)
	budget, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if budget.AccountID != ownerID {
		return common.ErrUnauthorized
	}
	return repo.Delete(ctx, id)
}

// ListByOwner returns the owner's budgets, newest first.
func (s *BudgetService) ListByOwner(ctx context.Context, ownerID string) ([]*models.Budget, error) {
	return s.repos.Budgets(s.db).ListByAccount(ctx, ownerID)
}

// Evaluate compares the bucket's expense total against the budget ceiling.
// A missing budget is the expected "no alert configured" state and returns
// (nil, nil). An alert is raised when spend >= ceiling * threshold.
func (s *BudgetService) Evaluate(ctx context.Context, ownerID, category string, month, year int) (*models.Alert, error) {
	budget, err := s.repos.Budgets(s.db).Find(ctx, ownerID, category, month, year)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	list, err := s.repos.Transactions(s.db).ListForMonth(ctx, ownerID, month, year)
	if err != nil {
		return nil, err
	}

	spent := decimal.Zero
	for _, tx := range list {
		if tx.Type == models.TypeExpense && tx.Category == category {
			spent = spent.Add(tx.Amount)
		}
	}

	mark := budget.Ceiling.Mul(decimal.NewFromFloat(s.threshold))
	if spent.LessThan(mark) {
		return nil, nil
	}

	ratio := 0.0
	if budget.Ceiling.IsPositive() {
		ratio = spent.Div(budget.Ceiling).InexactFloat64()
	}

	alert := &models.Alert{
		AccountID: ownerID,
		Category:  category,
		Month:     month,
		Year:      year,
		Ceiling:   budget.Ceiling,
		Spent:     spent,
		Ratio:     ratio,
	}
	s.log.Info(ctx, "budget alert", "account", ownerID, "category", category,
		"month", month, "year", year, "spent", spent.String(), "ceiling", budget.Ceiling.String())
	return alert, nil
}
