// Package session keeps one estimator session consistent: which inputs the
// engine sees, when it reruns, and which assumption fetch is current.
//
// Transitions are a pure reducer over State. The Controller owns a State,
// performs the single remote call, and feeds the outcome back as an action.
package session

import (
	"errors"
	"math"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
	"github.com/boddenberg/mortgage-estimator-go/internal/engine"
)

// ErrStale is returned when an assumption response belongs to a
// superseded calculation.
var ErrStale = errors.New("stale assumption response")

// State is an immutable snapshot of a session. Params and Result are never
// mutated once referenced by a State.
type State struct {
	Status     domain.LoadingState
	Input      domain.UserInput
	Params     *domain.AIMortgageParams
	Result     *domain.CalculationResult
	Err        error
	Generation uint64
}

// NewState returns the initial Idle state for input.
func NewState(input domain.UserInput) State {
	return State{Status: domain.StateIdle, Input: input}
}

// Action is a message accepted by Reduce.
type Action interface {
	trigger() string
}

// InputChanged replaces the user input. In Success the engine reruns with
// the new price and ratio; the provider is not re-queried. It is refused
// while Loading, since the pending fetch was issued for the old input.
type InputChanged struct{ Input domain.UserInput }

// CalculateRequested starts a new fetch cycle.
type CalculateRequested struct{}

// AssumptionsResolved delivers provider output for a generation.
type AssumptionsResolved struct {
	Generation uint64
	Params     domain.AIMortgageParams
}

// AssumptionsFailed reports that the provider could not be entered.
type AssumptionsFailed struct {
	Generation uint64
	Err        error
}

// RatioChanged edits the down-payment ratio.
type RatioChanged struct{ Ratio float64 }

// ParamsEdited edits the editable parameter copy.
type ParamsEdited struct{ Edit domain.ParamsEdit }

func (InputChanged) trigger() string        { return "input" }
func (CalculateRequested) trigger() string  { return "calculate" }
func (AssumptionsResolved) trigger() string { return "fetch" }
func (AssumptionsFailed) trigger() string   { return "fetch" }
func (RatioChanged) trigger() string        { return "ratio" }
func (ParamsEdited) trigger() string        { return "params" }

// Reduce applies a to s. On error the returned state is s unchanged.
func Reduce(s State, a Action) (State, error) {
	switch a := a.(type) {
	case InputChanged:
		if s.Status == domain.StateLoading {
			return s, &domain.ErrConflict{Message: "input is locked while assumptions load"}
		}
		if err := ValidateInput(a.Input); err != nil {
			return s, err
		}
		next := s
		next.Input = a.Input
		return recompute(s, next)

	case RatioChanged:
		if err := validateRatio(a.Ratio); err != nil {
			return s, err
		}
		next := s
		next.Input.DownPaymentRatio = a.Ratio
		return recompute(s, next)

	case ParamsEdited:
		if s.Params == nil || s.Status != domain.StateSuccess {
			return s, &domain.ErrConflict{Message: "no assumptions to edit: run a calculation first"}
		}
		edited := a.Edit.Apply(*s.Params)
		next := s
		next.Params = &edited
		return recompute(s, next)

	case CalculateRequested:
		if s.Input.City == "" {
			return s, &domain.ErrValidation{Field: "city", Message: "is required"}
		}
		if s.Input.Price == 0 {
			return s, &domain.ErrValidation{Field: "price", Message: "is required"}
		}
		return State{
			Status:     domain.StateLoading,
			Input:      s.Input,
			Generation: s.Generation + 1,
		}, nil

	case AssumptionsResolved:
		if s.Status != domain.StateLoading || a.Generation != s.Generation {
			return s, ErrStale
		}
		params := a.Params
		res, err := engine.Compute(s.Input.Price, s.Input.DownPaymentRatio, params, s.Input.HasSalary())
		if err != nil {
			return State{
				Status:     domain.StateError,
				Input:      s.Input,
				Err:        err,
				Generation: s.Generation,
			}, nil
		}
		return State{
			Status:     domain.StateSuccess,
			Input:      s.Input,
			Params:     &params,
			Result:     res,
			Generation: s.Generation,
		}, nil

	case AssumptionsFailed:
		if s.Status != domain.StateLoading || a.Generation != s.Generation {
			return s, ErrStale
		}
		return State{
			Status:     domain.StateError,
			Input:      s.Input,
			Err:        a.Err,
			Generation: s.Generation,
		}, nil
	}

	return s, &domain.ErrValidation{Field: "action", Message: "unknown action"}
}

// recompute reruns the engine for next when a result is being displayed.
// Engine domain errors reject the edit so the editable copy stays
// engine-consumable.
func recompute(prev, next State) (State, error) {
	if next.Status != domain.StateSuccess || next.Params == nil {
		return next, nil
	}
	res, err := engine.Compute(next.Input.Price, next.Input.DownPaymentRatio, *next.Params, next.Input.HasSalary())
	if err != nil {
		return prev, err
	}
	next.Result = res
	return next, nil
}

// ValidateInput checks user input before it enters a session.
func ValidateInput(in domain.UserInput) error {
	if in.City == "" {
		return &domain.ErrValidation{Field: "city", Message: "is required"}
	}
	if !finite(in.Price) || in.Price <= 0 {
		return &domain.ErrValidation{Field: "price", Message: "must be a positive amount"}
	}
	if !finite(in.AnnualSalary) || in.AnnualSalary < 0 {
		return &domain.ErrValidation{Field: "annualSalary", Message: "must not be negative"}
	}
	return validateRatio(in.DownPaymentRatio)
}

func validateRatio(r float64) error {
	if !finite(r) || r < domain.MinDownPaymentRatio || r > domain.MaxDownPaymentRatio {
		return &domain.ErrValidation{
			Field:   "downPaymentRatio",
			Message: "must be between 0.15 and 0.80",
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
