package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/gestio-erp/gestio-erp/internal/app"
	"github.com/gestio-erp/gestio-erp/internal/ledger/balances"
	"github.com/gestio-erp/gestio-erp/internal/ledger/journals"
	"github.com/gestio-erp/gestio-erp/internal/ledger/recurring"
	"github.com/gestio-erp/gestio-erp/internal/ledger/settings"
	"github.com/gestio-erp/gestio-erp/internal/observability"
	"github.com/gestio-erp/gestio-erp/internal/platform/cache"
	"github.com/gestio-erp/gestio-erp/internal/platform/db"
	"github.com/gestio-erp/gestio-erp/internal/shared"
	"github.com/gestio-erp/gestio-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	var balanceCache *balances.Cache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, balance caching disabled", slog.Any("error", err))
	} else {
		balanceCache = balances.NewCache(redisClient, cfg.BalanceCacheTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	settingsService := settings.NewService(settings.NewRepository(pool))
	balancesService := balances.NewService(balances.NewRepository(pool), balanceCache)
	journalsService := journals.NewService(journals.NewRepository(pool), auditLogger)
	recurringService := recurring.NewService(recurring.NewRepository(pool), journalsService)

	equationJob := jobs.NewEquationScanJob(balancesService, settingsService, logger, metrics)
	recurringJob := jobs.NewRecurringGenerateJob(recurringService, settingsService, logger)

	equationTask, err := jobs.NewEquationScanTask(0)
	if err != nil {
		logger.Error("build equation scan task", slog.Any("error", err))
		os.Exit(1)
	}
	recurringTask, err := jobs.NewRecurringGenerateTask(0)
	if err != nil {
		logger.Error("build recurring generate task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskEquationScan, Handler: equationJob.Handle},
			{Type: jobs.TaskRecurringGenerate, Handler: recurringJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: recurringTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: equationTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
