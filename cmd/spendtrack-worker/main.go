package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendtrack/internal/config"
	"spendtrack/internal/events"
	applog "spendtrack/internal/log"
	"spendtrack/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("starting spendtrack-worker", applog.FieldOperation, applog.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	auditWorker, err := worker.NewAuditWorker(cfg.AuditDBPath, logger)
	if err != nil {
		logger.Error("failed to initialize audit worker", applog.FieldError, err)
		os.Exit(1)
	}
	defer auditWorker.Close()

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("consuming expense events",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue,
			"audit_db", cfg.AuditDBPath)
		return client.Consume(ctx, auditWorker.HandleEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
