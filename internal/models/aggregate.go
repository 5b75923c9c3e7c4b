package models

import "github.com/shopspring/decimal"

// MonthTotals is the rollup for one account and month.
// Balance = Income - Expense.
type MonthTotals struct {
	Expense decimal.Decimal
	Income  decimal.Decimal
	Balance decimal.Decimal
}

// TrendPoint is one month in an expense trend series.
type TrendPoint struct {
	Label   string // e.g. "Jan 2026"
	Month   int
	Year    int
	Expense decimal.Decimal
}

// Alert reports that spending in a budget bucket crossed the configured
// fraction of the ceiling.
type Alert struct {
	AccountID string
	Category  string
	Month     int
	Year      int
	Ceiling   decimal.Decimal
	Spent     decimal.Decimal
	Ratio     float64
}
