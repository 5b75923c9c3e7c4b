package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money going out from money coming in.
type TransactionType string

const (
	TypeExpense TransactionType = "EXPENSE"
	TypeIncome  TransactionType = "INCOME"
)

// Transaction is a single recorded expense or income. Date is a calendar
// date, not a timestamp; amounts are non-negative.
type Transaction struct {
	ID          string
	AccountID   string
	Title       string
	Amount      decimal.Decimal
	Category    string
	Type        TransactionType
	Date        time.Time
	Description string
	CreatedAt   time.Time
}

// Month returns the 1-12 calendar month of the transaction date.
func (t *Transaction) Month() int { return int(t.Date.Month()) }

// Year returns the calendar year of the transaction date.
func (t *Transaction) Year() int { return t.Date.Year() }
