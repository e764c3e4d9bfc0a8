package assumption

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/resilience"
	"github.com/boddenberg/mortgage-estimator-go/internal/port"
)

// Guarded wraps a backend with a circuit breaker and retry.
type Guarded struct {
	inner port.AssumptionBackend
	cb    *gobreaker.CircuitBreaker
	cfg   resilience.Config
}

// Guard creates a guarded backend.
func Guard(inner port.AssumptionBackend, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Guarded {
	return &Guarded{inner: inner, cb: cb, cfg: cfg}
}

func (g *Guarded) Name() string { return g.inner.Name() }

func (g *Guarded) Generate(ctx context.Context, in domain.UserInput) (*port.BackendResult, error) {
	var out *port.BackendResult

	_, err := g.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, g.cfg, func() error {
			res, err := g.inner.Generate(ctx, in)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fail(g.Name(), domain.FailureCircuitOpen, err)
	}
	if err != nil {
		return nil, asProviderError(g.Name(), err)
	}
	return out, nil
}
