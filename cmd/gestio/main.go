package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gestio-erp/gestio-erp/internal/app"
	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/balances"
	"github.com/gestio-erp/gestio-erp/internal/ledger/fiscal"
	"github.com/gestio-erp/gestio-erp/internal/ledger/journals"
	"github.com/gestio-erp/gestio-erp/internal/ledger/recurring"
	"github.com/gestio-erp/gestio-erp/internal/ledger/reports"
	"github.com/gestio-erp/gestio-erp/internal/ledger/settings"
	"github.com/gestio-erp/gestio-erp/internal/observability"
	"github.com/gestio-erp/gestio-erp/internal/platform/cache"
	"github.com/gestio-erp/gestio-erp/internal/platform/db"
	"github.com/gestio-erp/gestio-erp/internal/shared"
	"github.com/gestio-erp/gestio-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var (
		balanceCache *balances.Cache
		taskClient   *jobs.Client
	)
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, balance caching and task enqueue disabled", slog.Any("error", err))
	} else {
		balanceCache = balances.NewCache(redisClient, cfg.BalanceCacheTTL)
		taskClient = jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Warn("task client close", slog.Any("error", err))
			}
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	settingsService := settings.NewService(settings.NewRepository(pool))
	settingsHandler := settings.NewHandler(logger, settingsService)

	accountsService := accounts.NewService(accounts.NewRepository(pool))
	accountsHandler := accounts.NewHandler(logger, accountsService)

	journalsService := journals.NewService(journals.NewRepository(pool), auditLogger)
	journalsHandler := journals.NewHandler(logger, journalsService, metrics)

	balancesService := balances.NewService(balances.NewRepository(pool), balanceCache)
	balancesHandler := balances.NewHandler(logger, balancesService, metrics)
	journalsService.WithBalanceInvalidator(balancesService)

	reportsService := reports.NewService(accountsService, balancesService)
	reportsHandler := reports.NewHandler(logger, reportsService)

	fiscalService := fiscal.NewService(settingsService, accountsService, balancesService, journalsService)
	fiscalHandler := fiscal.NewHandler(logger, fiscalService, metrics)

	recurringService := recurring.NewService(recurring.NewRepository(pool), journalsService)
	recurringHandler := recurring.NewHandler(logger, recurringService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AccountsHandler:  accountsHandler,
		JournalsHandler:  journalsHandler,
		BalancesHandler:  balancesHandler,
		ReportsHandler:   reportsHandler,
		FiscalHandler:    fiscalHandler,
		RecurringHandler: recurringHandler,
		SettingsHandler:  settingsHandler,
		Tasks:            taskClient,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
