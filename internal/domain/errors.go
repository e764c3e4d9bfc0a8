package domain

import "fmt"

// Error types for consistent error handling across the estimator.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates bad user input. No remote call is attempted.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrEngineDomain indicates inputs the amortization engine cannot price,
// such as a zero-month term or a negative loan amount.
type ErrEngineDomain struct {
	Field   string
	Message string
}

func (e *ErrEngineDomain) Error() string {
	return fmt.Sprintf("engine domain error on '%s': %s", e.Field, e.Message)
}

// ProviderFailureKind tags why an assumption backend failed.
type ProviderFailureKind string

const (
	FailureCredential  ProviderFailureKind = "credential"
	FailureNetwork     ProviderFailureKind = "network"
	FailureStatus      ProviderFailureKind = "status"
	FailureEmpty       ProviderFailureKind = "empty"
	FailureParse       ProviderFailureKind = "parse"
	FailureCircuitOpen ProviderFailureKind = "circuit_open"
	FailureTimeout     ProviderFailureKind = "timeout"
)

// ErrProviderUnavailable is a tagged assumption backend failure. The provider
// converts it into a fallback parameter set, so callers only see it in logs
// and metrics.
type ErrProviderUnavailable struct {
	Backend string
	Kind    ProviderFailureKind
	Err     error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("assumption provider unavailable [%s/%s]", e.Backend, e.Kind)
	}
	return fmt.Sprintf("assumption provider unavailable [%s/%s]: %v", e.Backend, e.Kind, e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error {
	return e.Err
}

// Permanent reports whether retrying cannot help.
func (e *ErrProviderUnavailable) Permanent() bool {
	switch e.Kind {
	case FailureCredential, FailureParse, FailureEmpty:
		return true
	}
	return false
}

// ErrUnauthorized indicates an invalid or missing session token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates the operation does not fit the current session state.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
