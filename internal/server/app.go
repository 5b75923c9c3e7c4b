// Package server initializes and runs the engine: it opens the database,
// applies migrations, seeds the bootstrap accounts, wires the services
// together, and keeps the token sweep running until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"smartspend/internal/clock"
	"smartspend/internal/hashing"
	"smartspend/internal/keylock"
	"smartspend/internal/logging"
	"smartspend/internal/models"
	"smartspend/internal/notify"
	"smartspend/internal/repositories/repomanager"
	"smartspend/internal/server/config"
	"smartspend/internal/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	Accounts *services.AccountService
	Ledger   *services.LedgerService
	Budgets  *services.BudgetService
	Sessions *services.SessionLimiter
	Reports  *services.ReportService
	Vault    *services.TokenVault

	notifier notify.Notifier
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		n, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.BaseURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("amqp init error: %w", err)
		}
		notifier = n
	} else {
		notifier = notify.NewLogNotifier(cfg.BaseURL, logger)
	}

	clk := clock.NewSystem()
	locks := keylock.New()
	hasher := hashing.NewBcrypt(cfg.BcryptCost)

	vault := services.NewTokenVault(db, repos, locks, clk, logger)
	accounts := services.NewAccountService(db, repos, vault, hasher, notifier, locks, logger, cfg.ResetTokenTTL)
	budgets := services.NewBudgetService(db, repos, cfg.AlertThreshold, logger)
	ledger := services.NewLedgerService(db, repos, budgets, clk, logger)
	sessions := services.NewSessionLimiter(cfg.SessionMax, cfg.SessionEvictOldest,
		[]byte(cfg.SecretKey), cfg.SessionValidity, clk, logger)
	reports := services.NewReportService(db, repos, clk, logger)

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		Accounts: accounts,
		Ledger:   ledger,
		Budgets:  budgets,
		Sessions: sessions,
		Reports:  reports,
		Vault:    vault,
		notifier: notifier,
	}, nil
}

// seed creates the bootstrap accounts when they are missing. Safe to run on
// every start.
func (app *App) seed(ctx context.Context) error {
	if err := app.Accounts.EnsureSeedAccount(ctx, app.config.AdminEmail, app.config.AdminPassword,
		models.RoleAdmin, "Admin", "User"); err != nil {
		return err
	}
	return app.Accounts.EnsureSeedAccount(ctx, app.config.DemoEmail, app.config.DemoPassword,
		models.RoleUser, "Demo", "User")
}

// sweepLoop expires stale tokens on a fixed interval until the context ends.
func (app *App) sweepLoop(ctx context.Context) error {
	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := app.Vault.Sweep(ctx, app.config.VerifyTokenMaxAge); err != nil {
				app.logger.Warn(ctx, "token sweep failed", "error", err)
			}
		}
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting engine")

	if err := app.seed(ctx); err != nil {
		return fmt.Errorf("seeding accounts: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.sweepLoop(ctx) })

	err := g.Wait()

	if closer, ok := app.notifier.(interface{ Close() }); ok {
		closer.Close()
	}
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Warn(context.Background(), "closing db", "error", cerr)
	}

	app.logger.Info(context.Background(), "engine stopped")
	return err
}
