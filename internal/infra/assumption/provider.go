// Package assumption produces locale-specific mortgage assumptions from an
// LLM backend. Backend failures never reach the caller: they are tagged,
// logged, counted and replaced by a complete fallback parameter set.
package assumption

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/observability"
	"github.com/boddenberg/mortgage-estimator-go/internal/port"
)

var tracer = otel.Tracer("assumption")

const cacheName = "assumptions"

// Options configures a Provider.
type Options struct {
	Cache    port.ContextCache // nil disables caching
	CacheTTL time.Duration
	Fallback FallbackPolicy
}

// Provider implements port.AssumptionProvider on top of one backend.
type Provider struct {
	backend  port.AssumptionBackend
	cache    port.ContextCache
	cacheTTL time.Duration
	fallback FallbackPolicy
	group    singleflight.Group
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewProvider creates a provider.
func NewProvider(backend port.AssumptionBackend, opts Options, metrics *observability.Metrics, logger *zap.Logger) *Provider {
	return &Provider{
		backend:  backend,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		fallback: opts.Fallback,
		metrics:  metrics,
		logger:   logger,
	}
}

// Backend returns the backend name.
func (p *Provider) Backend() string { return p.backend.Name() }

// Fetch returns assumptions for in. The only errors are a context that is
// already done on entry; every backend failure yields fallback params.
func (p *Provider) Fetch(ctx context.Context, in domain.UserInput) (domain.AIMortgageParams, error) {
	ctx, span := tracer.Start(ctx, "Provider.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("backend", p.backend.Name()),
		attribute.String("city", in.City),
	)

	if err := ctx.Err(); err != nil {
		return domain.AIMortgageParams{}, fmt.Errorf("assumption fetch not started: %w", err)
	}

	key := cacheKey(in)
	if params, ok := p.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return params, nil
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		start := time.Now()
		res, err := p.backend.Generate(ctx, in)
		p.metrics.RecordRequestDuration("backend_generate", time.Since(start))
		if err == nil {
			p.metrics.RecordTokens(res.PromptTokens, res.CompletionTokens)
		}
		return res, err
	})

	if err != nil {
		pe := asProviderError(p.backend.Name(), err)
		p.metrics.IncrProviderFailure(pe.Backend, pe.Kind)
		p.metrics.IncrProviderCall(p.backend.Name(), "fallback")
		p.logger.Warn("assumption backend failed, using fallback",
			zap.String("backend", pe.Backend),
			zap.String("kind", string(pe.Kind)),
			zap.String("city", in.City),
			zap.Error(pe.Err),
		)
		span.SetAttributes(attribute.String("fallback.kind", string(pe.Kind)))
		return p.fallback.Params(in, pe.Err), nil
	}

	params := v.(*port.BackendResult).Params
	p.metrics.IncrProviderCall(p.backend.Name(), "ok")
	p.store(ctx, key, params)
	return params, nil
}

func cacheKey(in domain.UserInput) string {
	return fmt.Sprintf("assumptions:%s:%.0f:%t:%.0f:%.4f",
		in.City, in.Price, in.IsFirstHome, in.AnnualSalary, in.DownPaymentRatio)
}

func (p *Provider) lookup(ctx context.Context, key string) (domain.AIMortgageParams, bool) {
	var params domain.AIMortgageParams
	if p.cache == nil {
		return params, false
	}

	raw, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("assumption cache read failed", zap.String("key", key), zap.Error(err))
		ok = false
	}
	if ok {
		if err := json.Unmarshal(raw, &params); err != nil {
			p.logger.Warn("assumption cache entry corrupt", zap.String("key", key), zap.Error(err))
			ok = false
		}
	}

	if !ok {
		p.metrics.IncrCacheMiss(cacheName)
		return params, false
	}
	p.metrics.IncrCacheHit(cacheName)
	return params, true
}

func (p *Provider) store(ctx context.Context, key string, params domain.AIMortgageParams) {
	if p.cache == nil {
		return
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, raw, p.cacheTTL); err != nil {
		p.logger.Warn("assumption cache write failed", zap.String("key", key), zap.Error(err))
	}
}
