package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/mortgage-estimator-go/internal/app"
	"github.com/boddenberg/mortgage-estimator-go/internal/config"
	"github.com/boddenberg/mortgage-estimator-go/internal/handler"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/observability"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, "mortgage-estimator")
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("assumption_backend", cfg.AssumptionBackend),
		zap.Duration("provider_timeout", cfg.ProviderTimeout),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Bool("redis", cfg.RedisAddr != ""),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	)

	ctx := context.Background()

	// --- Tracing ---
	shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: "mortgage-estimator",
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
		Enabled:     cfg.TracingEnabled,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	// --- Wiring ---
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build estimator", zap.Error(err))
	}
	defer a.Close()
	logger.Info("assumption provider ready", zap.String("backend", a.Backend))

	// --- Router ---
	router := handler.NewRouter(a.Estimator, handler.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Probes:         a.Probes,
	}, a.Metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ProviderTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
