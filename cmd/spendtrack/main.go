package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendtrack/internal/auth"
	"spendtrack/internal/backend"
	"spendtrack/internal/cache"
	"spendtrack/internal/config"
	"spendtrack/internal/core"
	"spendtrack/internal/events"
	apphttp "spendtrack/internal/http"
	applog "spendtrack/internal/log"
	"spendtrack/internal/service"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend)).Create(backendCfg)
	if err != nil {
		logger.Error("failed to create store backend", applog.FieldError, err)
		os.Exit(1)
	}
	defer result.Cleanup()

	// Stats snapshots are cheap to rebuild; a small cache is plenty.
	cacheManager := cache.NewManager()
	statsCache := cache.NewLRUCache[core.Stats](100, cfg.StatsCacheTTL)
	cacheManager.Register(statsCache)
	cacheManager.StartCleanup(5 * time.Minute)
	defer cacheManager.Stop()

	var publisher service.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, expense events will not be published")
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		logger.Error("failed to configure auth", applog.FieldError, err)
		os.Exit(1)
	}

	svc := service.NewExpenseService(result.Store, publisher, statsCache,
		logger.WithComponent(applog.ComponentExpense))

	srv := apphttp.NewServer(":"+cfg.Port, svc, verifier,
		logger.WithComponent(applog.ComponentHTTP),
		apphttp.Options{
			TenantScoping:      cfg.TenantScoping,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
		})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			applog.FieldBackend, cfg.StoreBackend,
			"tenant_scoping", cfg.TenantScoping)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func buildVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeStatic:
		tokens, err := auth.ParseStaticTokens(cfg.StaticTokens)
		if err != nil {
			return nil, err
		}
		return auth.NewStaticVerifier(tokens), nil
	default:
		return auth.NewHTTPVerifier(cfg.BackendURL, cfg.BackendAPIKey), nil
	}
}
