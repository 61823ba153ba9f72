package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dinvox/internal/amqp"
	"dinvox/internal/backend"
	"dinvox/internal/config"
	applog "dinvox/internal/log"
	"dinvox/internal/services"
	"dinvox/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	logger.Info("Starting dinvox-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker computes digests straight from the store, so it runs
	// without a result cache.
	analyticsSvc := services.NewAnalyticsService(store.Backend,
		services.WithLocation(loc),
		services.WithPaceConfig(cfg.PaceConfig()),
		services.WithLogger(logger),
	)
	expenseSvc := services.NewExpenseService(store.Backend, nil, logger)
	ingest := worker.NewIngestWorker(expenseSvc, loc, logger)

	digests := worker.NewDigestScheduler(store.Backend, analyticsSvc, store.Ledger, amqpClient, worker.DigestConfig{
		Schedule:   cfg.DigestSchedule,
		RoutingKey: cfg.AMQPDigestRoutingKey,
		Location:   loc,
	}, logger)
	if err := digests.Start(ctx); err != nil {
		logger.Error("Failed to start digest scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	go func() {
		if err := amqpClient.ConsumeExpenses(ctx, ingest.HandleExpenseLogged); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	done := make(chan struct{})
	go func() {
		digests.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}

	stats := ingest.Stats()
	logger.Info("Worker shutdown complete",
		"stored", stats.Stored,
		"duplicates", stats.Duplicates,
		"rejected", stats.Rejected,
		"failed", stats.Failed)
}
