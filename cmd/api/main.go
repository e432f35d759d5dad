package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/creator-sales-engine/internal/api/router"
	"github.com/wolfman30/creator-sales-engine/internal/app/bootstrap"
	appconfig "github.com/wolfman30/creator-sales-engine/internal/config"
	"github.com/wolfman30/creator-sales-engine/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/creator-sales-engine/internal/http/middleware"
	"github.com/wolfman30/creator-sales-engine/internal/observability/metrics"
	"github.com/wolfman30/creator-sales-engine/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting creator-sales-engine API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}
	auditDB, err := bootstrap.OpenAuditDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open audit db", "error", err)
		os.Exit(1)
	}
	if auditDB != nil {
		defer func() { _ = auditDB.Close() }()
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engineMetrics := metrics.NewEngineMetrics(registry)

	source, err := bootstrap.BuildTemplateSource(cfg, redisClient, engineMetrics, logger)
	if err != nil {
		logger.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	publishing := bootstrap.BuildPublishing(cfg, pool, logger)
	defer func() {
		if err := publishing.Close(); err != nil {
			logger.Warn("failed to close event publisher", "error", err)
		}
	}()
	publishing.StartDeliverer(ctx)

	auditStore := bootstrap.BuildAuditStore(auditDB)
	svc := bootstrap.BuildService(cfg, pool, auditStore, source, publishing.Publisher, engineMetrics, logger)
	var auditHandler *handlers.AuditHandler
	if auditStore != nil {
		auditHandler = handlers.NewAuditHandler(auditStore, logger)
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		Engine:             handlers.NewEngineHandler(svc, logger).WithGatherer(registry),
		Templates:          handlers.NewTemplatesHandler(source, logger),
		Audit:              auditHandler,
		CreatorJWTSecret:   cfg.CreatorJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})
	if cfg.CreatorJWTSecret == "" {
		logger.Warn("CREATOR_JWT_SECRET not set; /v1 routes will reject every request")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
