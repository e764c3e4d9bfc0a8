package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/observability"
	"github.com/boddenberg/mortgage-estimator-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("session")

// Controller owns the state of one session. Only the provider call runs
// outside the lock; every transition goes through Reduce.
type Controller struct {
	mu       sync.Mutex
	state    State
	provider port.AssumptionProvider
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewController creates a controller in the Idle state.
// A zero timeout disables the per-call provider deadline.
func NewController(
	input domain.UserInput,
	provider port.AssumptionProvider,
	timeout time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		state:    NewState(input),
		provider: provider,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetInput replaces the user input.
func (c *Controller) SetInput(input domain.UserInput) (State, error) {
	return c.dispatch(InputChanged{Input: input})
}

// SetRatio edits the down-payment ratio and recomputes locally.
func (c *Controller) SetRatio(ratio float64) (State, error) {
	return c.dispatch(RatioChanged{Ratio: ratio})
}

// EditParams edits the assumption copy and recomputes locally.
func (c *Controller) EditParams(edit domain.ParamsEdit) (State, error) {
	return c.dispatch(ParamsEdited{Edit: edit})
}

// Calculate runs a full cycle: fetch assumptions, then price the loan.
// If a newer Calculate starts before this one's fetch returns, the late
// response is discarded and a *domain.ErrConflict is returned.
func (c *Controller) Calculate(ctx context.Context) (State, error) {
	ctx, span := tracer.Start(ctx, "Controller.Calculate")
	defer span.End()

	started, err := c.dispatch(CalculateRequested{})
	if err != nil {
		return started, err
	}
	gen := started.Generation
	span.SetAttributes(attribute.Int64("session.generation", int64(gen)))

	start := time.Now()
	params, fetchErr := c.fetch(ctx, started.Input)
	c.metrics.RecordRequestDuration("provider", time.Since(start))

	var action Action
	if fetchErr != nil {
		c.logger.Error("assumption provider could not be entered",
			zap.Uint64("generation", gen),
			zap.Error(fetchErr),
		)
		action = AssumptionsFailed{Generation: gen, Err: fetchErr}
	} else {
		action = AssumptionsResolved{Generation: gen, Params: params}
	}

	next, err := c.dispatch(action)
	if errors.Is(err, ErrStale) {
		c.metrics.IncrStaleResponse()
		c.logger.Info("discarded stale assumption response",
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", next.Generation),
		)
		return next, &domain.ErrConflict{Message: "calculation superseded by a newer request"}
	}
	return next, err
}

func (c *Controller) fetch(ctx context.Context, input domain.UserInput) (domain.AIMortgageParams, error) {
	if c.provider == nil {
		return domain.AIMortgageParams{}, errors.New("no assumption provider configured")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.provider.Fetch(ctx, input)
}

func (c *Controller) dispatch(a Action) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state
	next, err := Reduce(prev, a)
	if err != nil {
		return prev, err
	}
	c.state = next
	if next.Result != nil && next.Result != prev.Result {
		c.metrics.IncrEngineRun(a.trigger())
	}
	return next, nil
}
