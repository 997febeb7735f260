package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/vendor-inquiry/internal/api/router"
	"github.com/wolfman30/vendor-inquiry/internal/awsconfig"
	appconfig "github.com/wolfman30/vendor-inquiry/internal/config"
	httpmiddleware "github.com/wolfman30/vendor-inquiry/internal/http/middleware"
	"github.com/wolfman30/vendor-inquiry/internal/inquiries"
	"github.com/wolfman30/vendor-inquiry/internal/notify"
	"github.com/wolfman30/vendor-inquiry/internal/observability/metrics"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting vendor-inquiry API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx := context.Background()
	checks := map[string]router.ReadinessCheck{}

	// Storage
	var (
		repo  inquiries.Repository = inquiries.NewInMemoryRepository()
		stats http.Handler
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		repo = inquiries.NewPostgresRepository(pool)
		checks["postgres"] = pool.Ping

		db := stdlib.OpenDBFromPool(pool)
		defer func() { _ = db.Close() }()
		stats = inquiries.StatsHandler(inquiries.NewStatsStore(db), logger)
		logger.Info("using postgres inquiry repository")
	} else {
		logger.Warn("DATABASE_URL not set, inquiries are kept in memory")
	}

	// Rate limiting
	limiter, closeLimiter, err := buildLimiter(cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeLimiter()

	metricsHandler, intakeMetrics := setupMetrics(cfg.MetricsEnabled)

	// Operator notifications
	sender, err := buildEmailSender(ctx, cfg, logger)
	if err != nil {
		return err
	}
	notifier := notify.NewService(sender, notify.ParseRecipients(cfg.NotifyEmailTo), logger)

	inquiriesHandler := inquiries.NewHandler(repo, notifier, intakeMetrics, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		InquiriesHandler:   inquiriesHandler,
		StatsHandler:       stats,
		MetricsHandler:     metricsHandler,
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		ReadinessChecks:    checks,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	inquiriesHandler.Wait()

	logger.Info("server stopped")
	return nil
}

// setupMetrics always records; the handler is nil when exposure is disabled.
func setupMetrics(enabled bool) (http.Handler, *metrics.InquiryMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	intakeMetrics := metrics.NewInquiryMetrics(reg)
	if !enabled {
		return nil, intakeMetrics
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), intakeMetrics
}

// buildLimiter prefers a Redis fixed window so every replica shares one budget.
func buildLimiter(cfg *appconfig.Config, logger *logging.Logger, checks map[string]router.ReadinessCheck) (httpmiddleware.Limiter, func(), error) {
	if cfg.RedisAddr == "" {
		rl := httpmiddleware.NewRateLimiter(cfg.RateLimitPerMinute)
		logger.Info("using in-process rate limiter", "per_minute", cfg.RateLimitPerMinute)
		return rl, rl.Stop, nil
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

	logger.Info("using redis rate limiter", "addr", cfg.RedisAddr, "per_minute", cfg.RateLimitPerMinute)
	return httpmiddleware.NewRedisRateLimiter(client, cfg.RateLimitPerMinute), func() { _ = client.Close() }, nil
}

// buildEmailSender falls back to the stub sender when the chosen provider is not fully configured.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	switch cfg.NotifyEmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			logger.Info("operator email via sendgrid")
			return sender, nil
		}
		logger.Warn("SENDGRID_API_KEY not set, falling back to stub email sender")
	case "ses":
		if cfg.SESFromEmail == "" {
			logger.Warn("SES_FROM_EMAIL not set, falling back to stub email sender")
			break
		}
		awsCfg, err := awsconfig.Load(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		logger.Info("operator email via SES", "region", cfg.AWSRegion)
		return notify.NewSESSender(awsconfig.NewSESClient(awsCfg, cfg), sesConfig(cfg), logger), nil
	case "", "stub":
	default:
		logger.Warn("unknown NOTIFY_EMAIL_PROVIDER, using stub", "provider", cfg.NotifyEmailProvider)
	}
	return notify.NewStubEmailSender(logger), nil
}

func sesConfig(cfg *appconfig.Config) notify.SESConfig {
	return notify.SESConfig{
		FromEmail: cfg.SESFromEmail,
		FromName:  cfg.SESFromName,
	}
}

