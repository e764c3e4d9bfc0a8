// Package app wires configuration into a ready-to-serve estimator.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/boddenberg/mortgage-estimator-go/internal/config"
	"github.com/boddenberg/mortgage-estimator-go/internal/handler"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/assumption"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/cache"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/observability"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/resilience"
	"github.com/boddenberg/mortgage-estimator-go/internal/port"
	"github.com/boddenberg/mortgage-estimator-go/internal/service"
	"github.com/boddenberg/mortgage-estimator-go/internal/session"
)

// App holds the wired components.
type App struct {
	Estimator *service.Estimator
	Metrics   *observability.Metrics
	Probes    []handler.Probe
	Backend   string

	closers []io.Closer
}

// Close releases caches and connections.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// New builds the estimator from cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Metrics: observability.NewMetrics()}

	// --- Assumption cache ---
	var responses port.ContextCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, "estimator:")
		if err != nil {
			return nil, err
		}
		logger.Info("using Redis for assumption cache", zap.String("addr", cfg.RedisAddr))
		responses = rc
		a.closers = append(a.closers, rc)
		a.Probes = append(a.Probes, handler.Probe{Name: "redis", Check: rc.Ping})
	} else {
		local := cache.NewLocal(cfg.CacheTTL)
		responses = local
		a.closers = append(a.closers, local)
	}

	// --- Backend ---
	backend, err := NewBackend(cfg, &http.Client{Timeout: cfg.HTTPTimeout})
	if err != nil {
		return nil, err
	}
	a.Backend = backend.Name()

	fallback := assumption.DefaultFallback(backend.Name())
	if cfg.FallbackInterestRate > 0 {
		fallback.InterestRate = cfg.FallbackInterestRate
	}
	if cfg.FallbackLivingCost > 0 {
		fallback.LivingCost = cfg.FallbackLivingCost
	}

	if _, static := backend.(*assumption.Static); !static {
		cb := resilience.NewCircuitBreaker(backend.Name(), resilience.BreakerSettings{}, logger)
		backend = assumption.Guard(backend, cb, resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		})
	}

	provider := assumption.NewProvider(backend, assumption.Options{
		Cache:    responses,
		CacheTTL: cfg.CacheTTL,
		Fallback: fallback,
	}, a.Metrics, logger)

	// --- Sessions ---
	sessions := cache.New[*session.Controller](cfg.SessionTTL)
	a.closers = append(a.closers, closerFunc(func() error { sessions.Close(); return nil }))

	a.Estimator = service.NewEstimator(provider, sessions, service.Options{
		SessionSecret:   cfg.SessionSecret,
		TokenTTL:        cfg.SessionTokenTTL,
		ProviderTimeout: cfg.ProviderTimeout,
		MaxConcurrency:  cfg.MaxConcurrency,
	}, a.Metrics, logger)

	return a, nil
}

// NewBackend selects the assumption backend named by cfg.AssumptionBackend.
func NewBackend(cfg *config.Config, httpClient *http.Client) (port.AssumptionBackend, error) {
	switch cfg.AssumptionBackend {
	case "deepseek":
		return assumption.NewChat(httpClient, assumption.ChatConfig{
			Name: "deepseek", BaseURL: cfg.DeepSeekBaseURL, APIKey: cfg.DeepSeekAPIKey, Model: cfg.DeepSeekModel,
		}), nil
	case "openai":
		return assumption.NewChat(httpClient, assumption.ChatConfig{
			Name: "openai", BaseURL: cfg.OpenAIBaseURL, APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel,
		}), nil
	case "gemini":
		return assumption.NewGemini(httpClient, assumption.GeminiConfig{
			BaseURL: cfg.GeminiBaseURL, APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel,
		}), nil
	case "static":
		rate := cfg.FallbackInterestRate
		if rate <= 0 {
			rate = assumption.DefaultFallback("static").InterestRate
		}
		return &assumption.Static{InterestRate: rate, LivingCost: cfg.FallbackLivingCost}, nil
	default:
		return nil, fmt.Errorf("unknown assumption backend %q", cfg.AssumptionBackend)
	}
}
