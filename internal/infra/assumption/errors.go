package assumption

import (
	"context"
	"errors"
	"net"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
)

func fail(backend string, kind domain.ProviderFailureKind, err error) error {
	return &domain.ErrProviderUnavailable{Backend: backend, Kind: kind, Err: err}
}

// transportFailure tags an error returned by http.Client.Do.
func transportFailure(backend string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fail(backend, domain.FailureTimeout, err)
	}
	return fail(backend, domain.FailureNetwork, err)
}

// asProviderError returns err tagged as a provider failure, keeping an
// existing tag when there is one.
func asProviderError(backend string, err error) *domain.ErrProviderUnavailable {
	var pe *domain.ErrProviderUnavailable
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ErrProviderUnavailable{Backend: backend, Kind: domain.FailureTimeout, Err: err}
	}
	return &domain.ErrProviderUnavailable{Backend: backend, Kind: domain.FailureNetwork, Err: err}
}
