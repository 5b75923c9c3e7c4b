package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smartspend/internal/clock"
	"smartspend/internal/common"
	"smartspend/internal/logging"
	"smartspend/internal/models"
	"smartspend/internal/repositories/repomanager"
)

// LedgerService records transactions and computes category/month rollups.
// Aggregates are recomputed from the transaction set on read; the transaction
// rows stay the single source of truth.
type LedgerService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	evaluator *BudgetService
	clock     clock.Clock
	log       logging.Logger

	// onAlert, when set, receives every alert raised after a record or edit.
	onAlert func(models.Alert)
}

func NewLedgerService(db *sql.DB, repos repomanager.RepositoryManager, evaluator *BudgetService, clk clock.Clock, log logging.Logger) *LedgerService {
	return &LedgerService{db: db, repos: repos, evaluator: evaluator, clock: clk, log: log}
}

// OnAlert registers a sink for budget alerts raised by Record and Edit.
func (s *LedgerService) OnAlert(fn func(models.Alert)) { s.onAlert = fn }

// Record validates and persists a transaction, then evaluates the budget for
// the affected bucket. Evaluation problems are logged and never fail the
// record.
func (s *LedgerService) Record(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if err := validateTransaction(tx); err != nil {
		return nil, err
	}

	created, err := s.repos.Transactions(s.db).Create(ctx, tx)
	if err != nil {
		return nil, err
	}

	s.checkBudget(ctx, created)
	return created, nil
}

// Edit replaces a transaction's fields and re-attributes aggregation. The
// caller must own the transaction.
func (s *LedgerService) Edit(ctx context.Context, ownerID string, tx *models.Transaction) (*models.Transaction, error) {
	repo := s.repos.Transactions(s.db)

	existing, err := repo.GetByID(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if existing.AccountID != ownerID {
		return nil, common.ErrUnauthorized
	}

	tx.AccountID = ownerID
	if err := validateTransaction(tx); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, tx); err != nil {
		return nil, err
	}

	s.checkBudget(ctx, tx)
	return tx, nil
}

// Delete removes a transaction owned by the caller.
func (s *LedgerService) Delete(ctx context.Context, ownerID, id string) error {
	repo := s.repos.Transactions(s.db)

	existing, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.AccountID != ownerID {
		return common.ErrUnauthorized
	}
	return repo.Delete(ctx, id)
}

// ListByOwner returns the owner's transactions, newest date first.
func (s *LedgerService) ListByOwner(ctx context.Context, ownerID string) ([]*models.Transaction, error) {
	return s.repos.Transactions(s.db).ListByAccount(ctx, ownerID)
}

// TotalsForMonth sums the month's expenses and incomes.
// Balance = Income - Expense.
func (s *LedgerService) TotalsForMonth(ctx context.Context, ownerID string, month, year int) (models.MonthTotals, error) {
	list, err := s.repos.Transactions(s.db).ListForMonth(ctx, ownerID, month, year)
	if err != nil {
		return models.MonthTotals{}, err
	}

	totals := models.MonthTotals{Expense: decimal.Zero, Income: decimal.Zero}
	for _, tx := range list {
		switch tx.Type {
		case models.TypeExpense:
			totals.Expense = totals.Expense.Add(tx.Amount)
		case models.TypeIncome:
			totals.Income = totals.Income.Add(tx.Amount)
		}
	}
	totals.Balance = totals.Income.Sub(totals.Expense)
	return totals, nil
}

// CategoryBreakdown maps each category to its expense total for the month.
// Categories without expenses in the period are absent from the result, not
// present with a zero entry.
func (s *LedgerService) CategoryBreakdown(ctx context.Context, ownerID string, month, year int) (map[string]decimal.Decimal, error) {
	list, err := s.repos.Transactions(s.db).ListForMonth(ctx, ownerID, month, year)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[string]decimal.Decimal)
	for _, tx := range list {
		if tx.Type != models.TypeExpense {
			continue
		}
		breakdown[tx.Category] = breakdown[tx.Category].Add(tx.Amount)
	}
	return breakdown, nil
}

// Trend returns one expense total per calendar month, oldest first, from
// monthsBack-1 months ago through the current month inclusive. Months without
// transactions appear with a zero total.
func (s *LedgerService) Trend(ctx context.Context, ownerID string, monthsBack int) ([]models.TrendPoint, error) {
	if monthsBack < 1 {
		return nil, common.ErrInvalidPeriod
	}

	now := s.clock.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthsBack - 1), 0)
	last := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC)

	list, err := s.repos.Transactions(s.db).ListInRange(ctx, ownerID, first, last)
	if err != nil {
		return nil, err
	}

	type bucket struct{ month, year int }
	sums := make(map[bucket]decimal.Decimal)
	for _, tx := range list {
		if tx.Type != models.TypeExpense {
			continue
		}
		key := bucket{month: tx.Month(), year: tx.Year()}
		sums[key] = sums[key].Add(tx.Amount)
	}

	points := make([]models.TrendPoint, 0, monthsBack)
	for i := 0; i < monthsBack; i++ {
		m := first.AddDate(0, i, 0)
		total, ok := sums[bucket{month: int(m.Month()), year: m.Year()}]
		if !ok {
			total = decimal.Zero
		}
		points = append(points, models.TrendPoint{
			Label:   m.Format("Jan 2006"),
			Month:   int(m.Month()),
			Year:    m.Year(),
			Expense: total,
		})
	}
	return points, nil
}

// checkBudget evaluates the bucket the transaction landed in. A missing
// budget is the expected no-alert path; evaluator failures are only warned
// about, matching the best-effort alerting contract.
func (s *LedgerService) checkBudget(ctx context.Context, tx *models.Transaction) {
	if tx.Type != models.TypeExpense {
		return
	}

	alert, err := s.evaluator.Evaluate(ctx, tx.AccountID, tx.Category, tx.Month(), tx.Year())
	if err != nil {
		s.log.Warn(ctx, "budget evaluation failed", "account", tx.AccountID,
			"category", tx.Category, "error", err)
		return
	}
	if alert != nil && s.onAlert != nil {
		s.onAlert(*alert)
	}
}

func validateTransaction(tx *models.Transaction) error {
	if tx.Amount.IsNegative() {
		return common.ErrInvalidAmount
	}
	if strings.TrimSpace(tx.Category) == "" {
		return common.ErrInvalidCategory
	}
	if tx.Type != models.TypeExpense && tx.Type != models.TypeIncome {
		return common.ErrInvalidType
	}
	if tx.Date.IsZero() {
		return common.ErrInvalidPeriod
	}
	return nil
}
