package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"smartspend/internal/clock"
	"smartspend/internal/logging"
	"smartspend/internal/models"
	"smartspend/internal/repositories/repomanager"
)

// ReportKind selects which entity set a snapshot covers.
type ReportKind string

const (
	ReportUsers    ReportKind = "users"
	ReportExpenses ReportKind = "expenses"
	ReportBudgets  ReportKind = "budgets"
)

// UserRow is one account in a users snapshot.
type UserRow struct {
	ID        string `csv:"id"`
	Email     string `csv:"email"`
	FirstName string `csv:"first_name"`
	LastName  string `csv:"last_name"`
	Role      string `csv:"role"`
	Verified  bool   `csv:"verified"`
	CreatedAt string `csv:"created_at"`
}

// ExpenseRow is one transaction in an expenses snapshot.
type ExpenseRow struct {
	ID          string `csv:"id"`
	Email       string `csv:"email"`
	Title       string `csv:"title"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
	Type        string `csv:"type"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
}

// BudgetRow is one budget in a budgets snapshot.
type BudgetRow struct {
	ID        string `csv:"id"`
	Email     string `csv:"email"`
	Category  string `csv:"category"`
	Ceiling   string `csv:"ceiling"`
	Month     int    `csv:"month"`
	Year      int    `csv:"year"`
	CreatedAt string `csv:"created_at"`
}

// DashboardStats is the administrative overview of the whole system.
type DashboardStats struct {
	TotalUsers        int64
	TotalTransactions int64
	TotalExpense      decimal.Decimal
	ActiveUsers       int
	RecentAccounts    []*models.Account
	MonthlySeries     []models.TrendPoint
	CategoryStats     map[string]decimal.Decimal
}

// ReportService produces read-only tabular snapshots and system-wide
// statistics. It never mutates aggregate state.
type ReportService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	clock clock.Clock
	log   logging.Logger
}

func NewReportService(db *sql.DB, repos repomanager.RepositoryManager, clk clock.Clock, log logging.Logger) *ReportService {
	return &ReportService{db: db, repos: repos, clock: clk, log: log}
}

// UsersSnapshot lists all accounts in creation order.
func (s *ReportService) UsersSnapshot(ctx context.Context) ([]UserRow, error) {
	list, err := s.repos.Accounts(s.db).List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]UserRow, 0, len(list))
	for _, acc := range list {
		rows = append(rows, UserRow{
			ID:        acc.ID,
			Email:     acc.Email,
			FirstName: acc.FirstName,
			LastName:  acc.LastName,
			Role:      string(acc.Role),
			Verified:  acc.Verified,
			CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}

// ExpensesSnapshot lists all transactions in creation order, joined with the
// owner's email.
func (s *ReportService) ExpensesSnapshot(ctx context.Context) ([]ExpenseRow, error) {
	emails, err := s.emailIndex(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.repos.Transactions(s.db).ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]ExpenseRow, 0, len(list))
	for _, tx := range list {
		rows = append(rows, ExpenseRow{
			ID:          tx.ID,
			Email:       emails[tx.AccountID],
			Title:       tx.Title,
			Amount:      tx.Amount.StringFixed(2),
			Category:    tx.Category,
			Type:        string(tx.Type),
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
		})
	}
	return rows, nil
}

// BudgetsSnapshot lists all budgets in creation order, joined with the
// owner's email.
func (s *ReportService) BudgetsSnapshot(ctx context.Context) ([]BudgetRow, error) {
	emails, err := s.emailIndex(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.repos.Budgets(s.db).ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]BudgetRow, 0, len(list))
	for _, budget := range list {
		rows = append(rows, BudgetRow{
			ID:        budget.ID,
			Email:     emails[budget.AccountID],
			Category:  budget.Category,
			Ceiling:   budget.Ceiling.StringFixed(2),
			Month:     budget.Month,
			Year:      budget.Year,
			CreatedAt: budget.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}

// ExportCSV renders a snapshot as CSV text.
func (s *ReportService) ExportCSV(ctx context.Context, kind ReportKind) (string, error) {
	switch kind {
	case ReportUsers:
		rows, err := s.UsersSnapshot(ctx)
		if err != nil {
			return "", err
		}
		return gocsv.MarshalString(&rows)
	case ReportExpenses:
		rows, err := s.ExpensesSnapshot(ctx)
		if err != nil {
			return "", err
		}
		return gocsv.MarshalString(&rows)
	case ReportBudgets:
		rows, err := s.BudgetsSnapshot(ctx)
		if err != nil {
			return "", err
		}
		return gocsv.MarshalString(&rows)
	default:
		return "", fmt.Errorf("unknown report kind %q", kind)
	}
}

// DashboardStats computes the administrative overview: entity counts, the
// global expense total, accounts active in the last 30 days, the five most
// recent registrations, a 6-month expense series, and the current month's
// per-category totals.
func (s *ReportService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	accountsRepo := s.repos.Accounts(s.db)
	txRepo := s.repos.Transactions(s.db)

	totalUsers, err := accountsRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalTx, err := txRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	all, err := txRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	thirtyDaysAgo := now.AddDate(0, 0, -30)
	seriesStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -5, 0)

	totalExpense := decimal.Zero
	active := make(map[string]struct{})
	type bucket struct{ month, year int }
	monthly := make(map[bucket]decimal.Decimal)
	categories := make(map[string]decimal.Decimal)

	for _, tx := range all {
		if tx.Date.After(thirtyDaysAgo) {
			active[tx.AccountID] = struct{}{}
		}
		if tx.Type != models.TypeExpense {
			continue
		}
		totalExpense = totalExpense.Add(tx.Amount)

		key := bucket{month: tx.Month(), year: tx.Year()}
		monthly[key] = monthly[key].Add(tx.Amount)

		if tx.Month() == int(now.Month()) && tx.Year() == now.Year() {
			categories[tx.Category] = categories[tx.Category].Add(tx.Amount)
		}
	}

	series := make([]models.TrendPoint, 0, 6)
	for i := 0; i < 6; i++ {
		m := seriesStart.AddDate(0, i, 0)
		total, ok := monthly[bucket{month: int(m.Month()), year: m.Year()}]
		if !ok {
			total = decimal.Zero
		}
		series = append(series, models.TrendPoint{
			Label:   m.Format("Jan 2006"),
			Month:   int(m.Month()),
			Year:    m.Year(),
			Expense: total,
		})
	}

	accounts, err := accountsRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	if len(accounts) > 5 {
		accounts = accounts[:5]
	}

	return &DashboardStats{
		TotalUsers:        totalUsers,
		TotalTransactions: totalTx,
		TotalExpense:      totalExpense,
		ActiveUsers:       len(active),
		RecentAccounts:    accounts,
		MonthlySeries:     series,
		CategoryStats:     categories,
	}, nil
}

func (s *ReportService) emailIndex(ctx context.Context) (map[string]string, error) {
	accounts, err := s.repos.Accounts(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	emails := make(map[string]string, len(accounts))
	for _, acc := range accounts {
		emails[acc.ID] = acc.Email
	}
	return emails, nil
}
