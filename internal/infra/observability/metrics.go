package observability

import (
	"time"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the estimator.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	providerCalls    *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	engineRuns       *prometheus.CounterVec
	staleResponses   prometheus.Counter
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	tokensUsed       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "estimator_request_duration_seconds",
				Help:    "Duration of operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		providerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_provider_calls_total",
				Help: "Assumption provider calls by backend and outcome (ok, fallback).",
			},
			[]string{"backend", "outcome"},
		),
		providerFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_provider_failures_total",
				Help: "Assumption backend failures by kind.",
			},
			[]string{"backend", "kind"},
		),
		engineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_engine_runs_total",
				Help: "Amortization engine runs by trigger.",
			},
			[]string{"trigger"},
		),
		staleResponses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "estimator_stale_responses_total",
				Help: "Assumption responses discarded because a newer calculation started.",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "estimator_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrProviderCall counts a provider call. outcome is "ok" or "fallback".
func (m *Metrics) IncrProviderCall(backend, outcome string) {
	m.providerCalls.WithLabelValues(backend, outcome).Inc()
}

// IncrProviderFailure counts a tagged backend failure.
func (m *Metrics) IncrProviderFailure(backend string, kind domain.ProviderFailureKind) {
	m.providerFailures.WithLabelValues(backend, string(kind)).Inc()
}

// IncrEngineRun counts an engine invocation.
func (m *Metrics) IncrEngineRun(trigger string) {
	m.engineRuns.WithLabelValues(trigger).Inc()
}

// IncrStaleResponse counts a discarded provider response.
func (m *Metrics) IncrStaleResponse() {
	m.staleResponses.Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// Snapshot returns cumulative estimator figures for GET /v1/metrics/estimator.
func (m *Metrics) Snapshot() *domain.EstimatorMetrics {
	calls := sumCounters(m.providerCalls)
	fallbacks := sumCountersWhere(m.providerCalls, "outcome", "fallback")
	hits := sumCounters(m.cacheHits)
	misses := sumCounters(m.cacheMisses)
	tokens := sumCounters(m.tokensUsed)

	snap := &domain.EstimatorMetrics{
		ProviderCalls:  int64(calls),
		EngineRuns:     int64(sumCounters(m.engineRuns)),
		StaleResponses: int64(counterValue(m.staleResponses)),
		Period:         "all_time",
	}
	if calls > 0 {
		snap.FallbackRate = fallbacks / calls
		snap.AvgTokensPerRequest = tokens / calls
	}
	if hits+misses > 0 {
		snap.CacheHitRate = hits / (hits + misses)
	}
	return snap
}

// EngineRuns returns the count for one trigger label.
func (m *Metrics) EngineRuns(trigger string) float64 {
	return counterValue(m.engineRuns.WithLabelValues(trigger))
}

func counterValue(c prometheus.Metric) float64 {
	pb := &dto.Metric{}
	if err := c.Write(pb); err != nil {
		return 0
	}
	if pb.Counter != nil && pb.Counter.Value != nil {
		return *pb.Counter.Value
	}
	return 0
}

func sumCounters(cv *prometheus.CounterVec) float64 {
	return sumCountersWhere(cv, "", "")
}

// sumCountersWhere sums every child of cv whose label matches value.
// An empty label sums all children.
func sumCountersWhere(cv *prometheus.CounterVec, label, value string) float64 {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		pb := &dto.Metric{}
		if err := metric.Write(pb); err != nil {
			continue
		}
		if label != "" && !hasLabel(pb, label, value) {
			continue
		}
		if pb.Counter != nil && pb.Counter.Value != nil {
			total += *pb.Counter.Value
		}
	}
	return total
}

func hasLabel(pb *dto.Metric, name, value string) bool {
	for _, lp := range pb.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
