package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callcenter_backend/internal/adapters"
	"callcenter_backend/internal/cdr"
	"callcenter_backend/internal/declarations"
	"callcenter_backend/internal/deposits"
	"callcenter_backend/internal/events"
	apphttp "callcenter_backend/internal/http"
	"callcenter_backend/internal/http/router"
	"callcenter_backend/internal/leadorders"
	"callcenter_backend/internal/ledger"
	"callcenter_backend/migrations"
	"callcenter_backend/platform/config"
	"callcenter_backend/platform/db"
	"callcenter_backend/platform/logger"
	"callcenter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadOrdersModule := leadorders.NewModule(pool)
	ledgerModule := ledger.NewModule(pool, val, log)

	// Declarations depend on the bonus table and the ledger through adapters.
	bonusCalc := adapters.NewBonusCalculatorAdapter()
	ledgerRecorder := adapters.NewLedgerRecorderAdapter(ledgerModule.Service())
	declarationsModule := declarations.NewModule(pool, bonusCalc, ledgerRecorder, eventBus, val, log)

	// The cdr module annotates call lists with declaration state.
	statusReader := adapters.NewDeclarationStatusAdapter(declarationsModule.Repository())
	cdrModule := cdr.NewModule(cdr.Config{
		BaseURL:        cfg.CDRBaseURL,
		Timeout:        cfg.CDRTimeout,
		MinCallSeconds: cfg.MinCallSeconds,
		RedisURL:       cfg.RedisURL,
		CacheTTL:       cfg.CDRCacheTTL,
	}, statusReader, val, log)

	// Deposits drive the declaration lifecycle during confirmation and keep
	// the slot tracker in step with approvals.
	declarationStore := adapters.NewDeclarationStoreAdapter(declarationsModule.Service())
	depositsModule := deposits.NewModule(pool, declarationStore, leadOrdersModule.Repository(), eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadOrdersModule,
			cdrModule,
			declarationsModule,
			ledgerModule,
			depositsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
