package assumption_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/assumption"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/cache"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/observability"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/resilience"
	"github.com/boddenberg/mortgage-estimator-go/internal/port"
)

// --- Mocks ---

type fakeBackend struct {
	name  string
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(ctx context.Context, in domain.UserInput) (*port.BackendResult, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return &port.BackendResult{
		Params: domain.AIMortgageParams{
			InterestRate: 3.05, DownPaymentRatio: in.DownPaymentRatio, LoanTermYears: 30,
			MarketAnalysis: "ok", CityTrend: "平稳",
		},
		PromptTokens:     10,
		CompletionTokens: 5,
	}, nil
}

func newProvider(b port.AssumptionBackend, opts assumption.Options) (*assumption.Provider, *observability.Metrics) {
	m := observability.NewMetrics()
	if opts.Fallback == (assumption.FallbackPolicy{}) {
		opts.Fallback = assumption.DefaultFallback(b.Name())
	}
	return assumption.NewProvider(b, opts, m, zap.NewNop()), m
}

// --- Tests ---

func TestProvider_FallbackOnChatFailure(t *testing.T) {
	b := &fakeBackend{name: "deepseek", err: &domain.ErrProviderUnavailable{
		Backend: "deepseek", Kind: domain.FailureCredential, Err: errors.New("api key is missing"),
	}}
	p, m := newProvider(b, assumption.Options{})

	in := domain.DefaultUserInput()
	in.AnnualSalary = 120_000
	in.DownPaymentRatio = 0.4

	params, err := p.Fetch(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 3.1, params.InterestRate)
	assert.Equal(t, 0.4, params.DownPaymentRatio)
	assert.Equal(t, 30, params.LoanTermYears)
	assert.Equal(t, 7_500.0, params.NetMonthlyIncome)
	assert.Equal(t, 2_400.0, params.MonthlyHousingFund)
	assert.Equal(t, 3_000.0, params.MonthlyLivingCost)
	assert.Equal(t, "数据获取失败", params.CityTrend)
	assert.Equal(t, "AI 服务暂时不可用: api key is missing", params.MarketAnalysis)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.ProviderCalls)
	assert.Equal(t, 1.0, snap.FallbackRate)
}

func TestProvider_FallbackWithoutSalary(t *testing.T) {
	b := &fakeBackend{name: "gemini", err: errors.New("boom")}
	p, _ := newProvider(b, assumption.Options{})

	params, err := p.Fetch(context.Background(), domain.DefaultUserInput())
	require.NoError(t, err)

	assert.Equal(t, 3.6, params.InterestRate)
	assert.Zero(t, params.NetMonthlyIncome)
	assert.Zero(t, params.MonthlyHousingFund)
	assert.Equal(t, 3_000.0, params.MonthlyLivingCost)
	assert.Equal(t, "AI 服务暂时不可用。已应用通用估算值。", params.MarketAnalysis)
}

func TestProvider_CancelledContextIsError(t *testing.T) {
	b := &fakeBackend{name: "deepseek"}
	p, _ := newProvider(b, assumption.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Fetch(ctx, domain.DefaultUserInput())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestProvider_CachesSuccessOnly(t *testing.T) {
	local := cache.NewLocal(time.Minute)
	defer local.Close()

	b := &fakeBackend{name: "deepseek"}
	p, m := newProvider(b, assumption.Options{Cache: local, CacheTTL: time.Minute})
	in := domain.DefaultUserInput()

	first, err := p.Fetch(context.Background(), in)
	require.NoError(t, err)
	second, err := p.Fetch(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), b.calls.Load())
	assert.Equal(t, 0.5, m.Snapshot().CacheHitRate)

	failing := &fakeBackend{name: "deepseek", err: errors.New("down")}
	p2, _ := newProvider(failing, assumption.Options{Cache: local, CacheTTL: time.Minute})
	other := in
	other.City = "北京"
	_, _ = p2.Fetch(context.Background(), other)
	_, _ = p2.Fetch(context.Background(), other)
	assert.Equal(t, int32(2), failing.calls.Load())
}

func TestProvider_DeduplicatesConcurrentFetches(t *testing.T) {
	b := &fakeBackend{name: "deepseek", gate: make(chan struct{})}
	p, _ := newProvider(b, assumption.Options{})
	in := domain.DefaultUserInput()

	var wg sync.WaitGroup
	results := make([]domain.AIMortgageParams, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.Fetch(context.Background(), in)
		}(i)
	}

	require.Eventually(t, func() bool { return b.calls.Load() == 1 }, time.Second, time.Millisecond)
	// let the waiters join the in-flight call
	time.Sleep(20 * time.Millisecond)
	close(b.gate)
	wg.Wait()

	assert.Equal(t, int32(1), b.calls.Load())
	for _, r := range results {
		assert.Equal(t, 3.05, r.InterestRate)
	}
}

func TestProvider_OpenCircuitFallsBack(t *testing.T) {
	b := &fakeBackend{name: "deepseek", err: &domain.ErrProviderUnavailable{
		Backend: "deepseek", Kind: domain.FailureStatus, Err: errors.New("status 503"),
	}}
	cb := resilience.NewCircuitBreaker("deepseek", resilience.BreakerSettings{MinRequests: 1, FailureRatio: 0.5, OpenTimeout: time.Minute}, zap.NewNop())
	guarded := assumption.Guard(b, cb, resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond})
	p, m := newProvider(guarded, assumption.Options{})

	in := domain.DefaultUserInput()
	_, err := p.Fetch(context.Background(), in)
	require.NoError(t, err)

	in.City = "深圳"
	params, err := p.Fetch(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 3.1, params.InterestRate)
	assert.Contains(t, params.MarketAnalysis, "circuit breaker is open")
	assert.Equal(t, int32(1), b.calls.Load())
	assert.Equal(t, int64(2), m.Snapshot().ProviderCalls)
}

func TestGuard_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	flaky := backendFunc{name: "openai", fn: func() (*port.BackendResult, error) {
		if calls.Add(1) < 3 {
			return nil, &domain.ErrProviderUnavailable{Backend: "openai", Kind: domain.FailureNetwork, Err: errors.New("reset")}
		}
		return &port.BackendResult{Params: domain.AIMortgageParams{InterestRate: 3.0, LoanTermYears: 30}}, nil
	}}
	cb := resilience.NewCircuitBreaker("openai", resilience.BreakerSettings{}, zap.NewNop())
	g := assumption.Guard(flaky, cb, resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond})

	res, err := g.Generate(context.Background(), domain.DefaultUserInput())
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Params.InterestRate)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGuard_DoesNotRetryPermanentFailures(t *testing.T) {
	var calls atomic.Int32
	broken := backendFunc{name: "openai", fn: func() (*port.BackendResult, error) {
		calls.Add(1)
		return nil, &domain.ErrProviderUnavailable{Backend: "openai", Kind: domain.FailureParse, Err: errors.New("bad json")}
	}}
	cb := resilience.NewCircuitBreaker("openai", resilience.BreakerSettings{}, zap.NewNop())
	g := assumption.Guard(broken, cb, resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond})

	_, err := g.Generate(context.Background(), domain.DefaultUserInput())
	assert.Equal(t, domain.FailureParse, failureKind(t, err))
	assert.Equal(t, int32(1), calls.Load())
}

type backendFunc struct {
	name string
	fn   func() (*port.BackendResult, error)
}

func (b backendFunc) Name() string { return b.name }

func (b backendFunc) Generate(context.Context, domain.UserInput) (*port.BackendResult, error) {
	return b.fn()
}
