package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"smartspend/internal/common"
	"smartspend/internal/dbx"
	"smartspend/internal/logging"
	"smartspend/internal/models"
	"smartspend/internal/repositories/accounts"
	"smartspend/internal/repositories/budgets"
	"smartspend/internal/repositories/tokens"
	"smartspend/internal/repositories/transactions"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- in-memory accounts repository ---

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]*models.Account
	seq  int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: make(map[string]*models.Account)}
}

func (m *memAccounts) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == account.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	m.seq++
	account.ID = fmt.Sprintf("a-%d", m.seq)
	account.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	m.byID[account.ID] = account
	return account, nil
}

func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.byID {
		if acc.Email == email {
			return acc, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return acc, nil
}

func (m *memAccounts) SetVerified(ctx context.Context, id string, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	acc.Verified = verified
	return nil
}

func (m *memAccounts) UpdatePassword(ctx context.Context, id string, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	acc.PasswordHash = hash
	return nil
}

func (m *memAccounts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memAccounts) List(ctx context.Context) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*models.Account, 0, len(m.byID))
	for _, acc := range m.byID {
		list = append(list, acc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (m *memAccounts) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

// --- in-memory tokens repository ---

type memTokens struct {
	mu      sync.Mutex
	byValue map[string]*models.SecurityToken
	seq     int
}

func newMemTokens() *memTokens {
	return &memTokens{byValue: make(map[string]*models.SecurityToken)}
}

func (m *memTokens) Upsert(ctx context.Context, token *models.SecurityToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for value, existing := range m.byValue {
		if existing.AccountID == token.AccountID && existing.Kind == token.Kind {
			delete(m.byValue, value)
		}
	}
	m.seq++
	token.ID = fmt.Sprintf("t-%d", m.seq)
	m.byValue[token.Value] = token
	return nil
}

func (m *memTokens) FindByValue(ctx context.Context, value string, kind models.TokenKind) (*models.SecurityToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.byValue[value]
	if !ok || token.Kind != kind {
		return nil, common.ErrNotFound
	}
	return token, nil
}

func (m *memTokens) DeleteByValue(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byValue[value]; !ok {
		return common.ErrNotFound
	}
	delete(m.byValue, value)
	return nil
}

func (m *memTokens) DeleteExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for value, token := range m.byValue {
		if token.Kind == models.KindReset && token.ExpiresAt != nil && !token.ExpiresAt.After(now) {
			delete(m.byValue, value)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) DeleteStaleVerifies(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for value, token := range m.byValue {
		if token.Kind == models.KindVerify && token.IssuedAt.Before(cutoff) {
			delete(m.byValue, value)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byValue)
}

// --- in-memory transactions repository ---

type memTransactions struct {
	mu    sync.Mutex
	byID  map[string]*models.Transaction
	order []string
	seq   int
}

func newMemTransactions() *memTransactions {
	return &memTransactions{byID: make(map[string]*models.Transaction)}
}

func (m *memTransactions) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	tx.ID = fmt.Sprintf("tx-%d", m.seq)
	tx.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	m.byID[tx.ID] = tx
	m.order = append(m.order, tx.ID)
	return tx, nil
}

func (m *memTransactions) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return tx, nil
}

func (m *memTransactions) Update(ctx context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[tx.ID]; !ok {
		return common.ErrNotFound
	}
	m.byID[tx.ID] = tx
	return nil
}

func (m *memTransactions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.byID, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memTransactions) ListByAccount(ctx context.Context, accountID string) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Transaction
	for _, id := range m.order {
		if m.byID[id].AccountID == accountID {
			list = append(list, m.byID[id])
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return list, nil
}

func (m *memTransactions) ListForMonth(ctx context.Context, accountID string, month, year int) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Transaction
	for _, id := range m.order {
		tx := m.byID[id]
		if tx.AccountID == accountID && tx.Month() == month && tx.Year() == year {
			list = append(list, tx)
		}
	}
	return list, nil
}

func (m *memTransactions) ListInRange(ctx context.Context, accountID string, from, to time.Time) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Transaction
	for _, id := range m.order {
		tx := m.byID[id]
		if tx.AccountID == accountID && !tx.Date.Before(from) && !tx.Date.After(to) {
			list = append(list, tx)
		}
	}
	return list, nil
}

func (m *memTransactions) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*models.Transaction, 0, len(m.order))
	for _, id := range m.order {
		list = append(list, m.byID[id])
	}
	return list, nil
}

func (m *memTransactions) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

// --- in-memory budgets repository ---

type memBudgets struct {
	mu    sync.Mutex
	byID  map[string]*models.Budget
	order []string
	seq   int
}

func newMemBudgets() *memBudgets {
	return &memBudgets{byID: make(map[string]*models.Budget)}
}

func (m *memBudgets) Upsert(ctx context.Context, budget *models.Budget) (*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.AccountID == budget.AccountID && existing.Category == budget.Category &&
			existing.Month == budget.Month && existing.Year == budget.Year {
			existing.Ceiling = budget.Ceiling
			return existing, nil
		}
	}
	m.seq++
	budget.ID = fmt.Sprintf("b-%d", m.seq)
	budget.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	m.byID[budget.ID] = budget
	m.order = append(m.order, budget.ID)
	return budget, nil
}

func (m *memBudgets) Find(ctx context.Context, accountID, category string, month, year int) (*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, budget := range m.byID {
		if budget.AccountID == accountID && budget.Category == category &&
			budget.Month == month && budget.Year == year {
			return budget, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memBudgets) GetByID(ctx context.Context, id string) (*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	budget, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return budget, nil
}

func (m *memBudgets) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memBudgets) ListByAccount(ctx context.Context, accountID string) ([]*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Budget
	for i := len(m.order) - 1; i >= 0; i-- {
		if budget, ok := m.byID[m.order[i]]; ok && budget.AccountID == accountID {
			list = append(list, budget)
		}
	}
	return list, nil
}

func (m *memBudgets) ListAll(ctx context.Context) ([]*models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Budget
	for _, id := range m.order {
		if budget, ok := m.byID[id]; ok {
			list = append(list, budget)
		}
	}
	return list, nil
}

func (m *memBudgets) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

// --- fake repository manager ---

type fakeRepoManager struct {
	acc *memAccounts
	tok *memTokens
	tx  *memTransactions
	bud *memBudgets
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		acc: newMemAccounts(),
		tok: newMemTokens(),
		tx:  newMemTransactions(),
		bud: newMemBudgets(),
	}
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (f *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository               { return f.acc }
func (f *fakeRepoManager) Tokens(dbx.DBTX) tokens.Repository                   { return f.tok }
func (f *fakeRepoManager) Transactions(db dbx.DBTX) transactions.Repository    { return f.tx }
func (f *fakeRepoManager) Budgets(db dbx.DBTX) budgets.Repository              { return f.bud }

// --- fake hasher and notifier ---

type fakeHasher struct{}

func (fakeHasher) Hash(raw string) (string, error) { return "hashed:" + raw, nil }
func (fakeHasher) Verify(raw, hash string) bool    { return hash == "hashed:"+raw }

type delivery struct {
	email string
	kind  models.TokenKind
	token string
}

type fakeNotifier struct {
	deliveries chan delivery
	fail       bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{deliveries: make(chan delivery, 16)}
}

func (f *fakeNotifier) Deliver(ctx context.Context, account *models.Account, kind models.TokenKind, token string) error {
	if f.fail {
		return fmt.Errorf("delivery transport down")
	}
	f.deliveries <- delivery{email: account.Email, kind: kind, token: token}
	return nil
}

func (f *fakeNotifier) await(timeout time.Duration) (delivery, bool) {
	select {
	case d := <-f.deliveries:
		return d, true
	case <-time.After(timeout):
		return delivery{}, false
	}
}
