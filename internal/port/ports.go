// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the session and
// service layers from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
)

// AssumptionProvider returns mortgage assumptions for a user input.
// Implementations absorb backend failures into a fallback parameter set;
// an error means the provider could not be entered at all.
type AssumptionProvider interface {
	Fetch(ctx context.Context, input domain.UserInput) (domain.AIMortgageParams, error)
}

// AssumptionBackend is one LLM service able to produce assumptions.
// Failures are returned as *domain.ErrProviderUnavailable.
type AssumptionBackend interface {
	Name() string
	Generate(ctx context.Context, input domain.UserInput) (*BackendResult, error)
}

// BackendResult is the decoded output of a backend call.
type BackendResult struct {
	Params           domain.AIMortgageParams
	PromptTokens     int
	CompletionTokens int
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// ContextCache is a cache backed by a remote store.
type ContextCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
