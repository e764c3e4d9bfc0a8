package cache

import (
	"context"
	"time"
)

// Local adapts InMemory to port.ContextCache for single-instance deployments.
// The per-call TTL is ignored; entries live for the cache's configured TTL.
type Local struct {
	m *InMemory[[]byte]
}

// NewLocal creates a local byte cache with the given TTL.
func NewLocal(ttl time.Duration) *Local {
	return &Local{m: New[[]byte](ttl)}
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.m.Get(key)
	return v, ok, nil
}

func (l *Local) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	l.m.Set(key, value)
	return nil
}

// Close stops the background cleanup.
func (l *Local) Close() error {
	l.m.Close()
	return nil
}
