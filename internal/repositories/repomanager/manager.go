package repomanager

import (
	"context"
	"database/sql"

	"smartspend/internal/dbx"
	"smartspend/internal/repositories/accounts"
	"smartspend/internal/repositories/budgets"
	"smartspend/internal/repositories/tokens"
	"smartspend/internal/repositories/transactions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	Budgets(db dbx.DBTX) budgets.Repository
	Tokens(db dbx.DBTX) tokens.Repository
}
