package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/mortgage-estimator-go/internal/catalog"
	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/engine"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/observability"
	"github.com/boddenberg/mortgage-estimator-go/internal/infra/resilience"
	"github.com/boddenberg/mortgage-estimator-go/internal/port"
	"github.com/boddenberg/mortgage-estimator-go/internal/session"
)

var tracer = otel.Tracer("service/estimator")

const maxCompareCities = 8

// Options configures the Estimator.
type Options struct {
	SessionSecret   string
	TokenTTL        time.Duration
	ProviderTimeout time.Duration
	MaxConcurrency  int
}

// Estimator serves stateless calculations and owns the session registry.
type Estimator struct {
	provider port.AssumptionProvider
	sessions port.Cache[*session.Controller]
	secret   []byte
	tokenTTL time.Duration
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewEstimator creates the estimator service with all dependencies injected.
// Provider calls from every path share one bulkhead of MaxConcurrency slots.
func NewEstimator(
	provider port.AssumptionProvider,
	sessions port.Cache[*session.Controller],
	opts Options,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Estimator {
	if provider != nil {
		provider = &boundedProvider{
			inner:    provider,
			bulkhead: resilience.NewBulkhead(opts.MaxConcurrency),
		}
	}
	return &Estimator{
		provider: provider,
		sessions: sessions,
		secret:   []byte(opts.SessionSecret),
		tokenTTL: opts.TokenTTL,
		timeout:  opts.ProviderTimeout,
		metrics:  metrics,
		logger:   logger,
	}
}

// Cities returns the city catalog.
func (e *Estimator) Cities() []domain.CityGroup {
	return catalog.Groups()
}

// Compute prices a loan from explicit parameters without any provider call.
func (e *Estimator) Compute(ctx context.Context, req *domain.ComputeRequest) (*domain.ComputeResponse, error) {
	_, span := tracer.Start(ctx, "Estimator.Compute")
	defer span.End()

	start := time.Now()
	result, err := engine.Compute(req.Price, req.DownPaymentRatio, req.Params, req.AnnualSalary > 0)
	if err != nil {
		return nil, err
	}
	e.metrics.IncrEngineRun("stateless")
	e.metrics.RecordRequestDuration("compute", time.Since(start))

	return &domain.ComputeResponse{Result: result, Formatted: engine.Summarize(result)}, nil
}

// Assumptions returns provider assumptions for in. Backend failures are
// already replaced by fallback params, so only bad input or a cancelled
// request produce an error.
func (e *Estimator) Assumptions(ctx context.Context, in domain.UserInput) (*domain.AIMortgageParams, error) {
	ctx, span := tracer.Start(ctx, "Estimator.Assumptions")
	defer span.End()
	span.SetAttributes(attribute.String("city", in.City))

	if err := validateSessionInput(in); err != nil {
		return nil, err
	}
	params, err := e.fetch(ctx, in)
	if err != nil {
		return nil, err
	}
	return &params, nil
}

// Compare fetches assumptions and prices the same purchase in several
// cities concurrently. Per-city engine errors are reported in the entry.
func (e *Estimator) Compare(ctx context.Context, req *domain.CompareRequest) ([]domain.CityComparison, error) {
	ctx, span := tracer.Start(ctx, "Estimator.Compare")
	defer span.End()

	if len(req.Cities) == 0 {
		return nil, &domain.ErrValidation{Field: "cities", Message: "at least one city is required"}
	}
	if len(req.Cities) > maxCompareCities {
		return nil, &domain.ErrValidation{Field: "cities", Message: fmt.Sprintf("at most %d cities", maxCompareCities)}
	}
	for _, city := range req.Cities {
		in := req.Input
		in.City = city
		if err := validateSessionInput(in); err != nil {
			return nil, err
		}
	}

	out := make([]domain.CityComparison, len(req.Cities))
	g, gctx := errgroup.WithContext(ctx)
	for i, city := range req.Cities {
		g.Go(func() error {
			in := req.Input
			in.City = city

			params, err := e.fetch(gctx, in)
			if err != nil {
				return fmt.Errorf("assumptions for %s: %w", city, err)
			}

			entry := domain.CityComparison{City: city, Tier: catalog.Tier(city), Params: params}
			result, err := engine.Compute(in.Price, in.DownPaymentRatio, params, in.HasSalary())
			if err != nil {
				entry.Error = err.Error()
			} else {
				e.metrics.IncrEngineRun("compare")
				entry.Result = result
				entry.Formatted = engine.Summarize(result)
			}
			out[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Estimator) fetch(ctx context.Context, in domain.UserInput) (domain.AIMortgageParams, error) {
	if e.provider == nil {
		return domain.AIMortgageParams{}, errors.New("no assumption provider configured")
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	start := time.Now()
	params, err := e.provider.Fetch(ctx, in)
	e.metrics.RecordRequestDuration("provider", time.Since(start))
	return params, err
}

// ============================================================
// Sessions
// ============================================================

// CreateSession starts a session in the Idle state and issues its token.
// A nil input starts from the default input.
func (e *Estimator) CreateSession(ctx context.Context, input *domain.UserInput) (*domain.SessionCreated, error) {
	_, span := tracer.Start(ctx, "Estimator.CreateSession")
	defer span.End()

	in := domain.DefaultUserInput()
	if input != nil {
		in = *input
	}
	if err := validateSessionInput(in); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctrl := session.NewController(in, e.provider, e.timeout, e.metrics, e.logger.With(zap.String("session_id", id)))
	e.sessions.Set(id, ctrl)

	token, err := e.signSessionToken(id)
	if err != nil {
		e.sessions.Delete(id)
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	e.logger.Info("session created", zap.String("session_id", id), zap.String("city", in.City))
	return &domain.SessionCreated{
		SessionID: id,
		Token:     token,
		ExpiresIn: int(e.tokenTTL.Seconds()),
		Session:   view(id, ctrl.Snapshot()),
	}, nil
}

// GetSession returns the current snapshot of a session.
func (e *Estimator) GetSession(_ context.Context, id string) (*domain.SessionView, error) {
	ctrl, err := e.controller(id)
	if err != nil {
		return nil, err
	}
	return view(id, ctrl.Snapshot()), nil
}

// UpdateInput replaces the session input. With assumptions already loaded
// the result is recomputed against them; no provider call is made.
func (e *Estimator) UpdateInput(_ context.Context, id string, in domain.UserInput) (*domain.SessionView, error) {
	ctrl, err := e.controller(id)
	if err != nil {
		return nil, err
	}
	if err := validateSessionInput(in); err != nil {
		return nil, err
	}
	st, err := ctrl.SetInput(in)
	if err != nil {
		return nil, err
	}
	return view(id, st), nil
}

// Calculate runs a full fetch-then-price cycle for the session.
func (e *Estimator) Calculate(ctx context.Context, id string) (*domain.SessionView, error) {
	ctx, span := tracer.Start(ctx, "Estimator.Calculate")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", id))

	ctrl, err := e.controller(id)
	if err != nil {
		return nil, err
	}
	st, err := ctrl.Calculate(ctx)
	if err != nil {
		return nil, err
	}
	return view(id, st), nil
}

// SetRatio changes the down-payment ratio and recomputes locally.
func (e *Estimator) SetRatio(_ context.Context, id string, ratio float64) (*domain.SessionView, error) {
	ctrl, err := e.controller(id)
	if err != nil {
		return nil, err
	}
	st, err := ctrl.SetRatio(ratio)
	if err != nil {
		return nil, err
	}
	return view(id, st), nil
}

// EditParams edits the session's assumption copy and recomputes locally.
func (e *Estimator) EditParams(_ context.Context, id string, edit domain.ParamsEdit) (*domain.SessionView, error) {
	ctrl, err := e.controller(id)
	if err != nil {
		return nil, err
	}
	st, err := ctrl.EditParams(edit)
	if err != nil {
		return nil, err
	}
	return view(id, st), nil
}

// controller looks up a live session and refreshes its expiry.
func (e *Estimator) controller(id string) (*session.Controller, error) {
	ctrl, ok := e.sessions.Get(id)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "session", ID: id}
	}
	e.sessions.Set(id, ctrl)
	return ctrl, nil
}

func view(id string, st session.State) *domain.SessionView {
	v := &domain.SessionView{
		SessionID:      id,
		Status:         st.Status,
		Input:          st.Input,
		EditableParams: st.Params,
		Result:         st.Result,
		Formatted:      engine.Summarize(st.Result),
		Generation:     st.Generation,
	}
	if st.Err != nil {
		v.Error = st.Err.Error()
	}
	return v
}

// validateSessionInput applies the field rules plus the catalog check.
func validateSessionInput(in domain.UserInput) error {
	if err := session.ValidateInput(in); err != nil {
		return err
	}
	if !catalog.Contains(in.City) {
		return &domain.ErrValidation{Field: "city", Message: fmt.Sprintf("unsupported city %q", in.City)}
	}
	return nil
}

// boundedProvider caps concurrent provider calls.
type boundedProvider struct {
	inner    port.AssumptionProvider
	bulkhead *resilience.Bulkhead
}

func (b *boundedProvider) Fetch(ctx context.Context, in domain.UserInput) (domain.AIMortgageParams, error) {
	if err := b.bulkhead.Acquire(ctx); err != nil {
		return domain.AIMortgageParams{}, fmt.Errorf("waiting for provider slot: %w", err)
	}
	defer b.bulkhead.Release()
	return b.inner.Fetch(ctx, in)
}
