package cache

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

// GuardedStore bounds every store call by a timeout and stops calling a
// failing store for a while. Searches then fall through to computation
// instead of waiting on the network.
type GuardedStore struct {
	store        Store
	breaker      *resilience.CircuitBreaker
	timeout      time.Duration
	flushTimeout time.Duration
}

// DefaultFlushTimeout bounds a pattern flush, which scans the whole keyspace
// and so gets far longer than a single Get or Set.
const DefaultFlushTimeout = 5 * time.Second

// Guard wraps store with the "query-cache" circuit breaker. Get and Set are
// bounded by timeout, FlushByPattern by DefaultFlushTimeout.
func Guard(store Store, timeout time.Duration) *GuardedStore {
	return &GuardedStore{
		store: store,
		breaker: resilience.NewCircuitBreaker("query-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			IsFailure: func(err error) bool {
				return err != nil && !errors.Is(err, apperrors.ErrCacheMiss)
			},
		}),
		timeout:      timeout,
		flushTimeout: DefaultFlushTimeout,
	}
}

// Get reads key. A miss passes through as ErrCacheMiss without counting
// against the breaker.
func (g *GuardedStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := g.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, g.timeout, "cache get", func(ctx context.Context) error {
			v, err := g.store.Get(ctx, key)
			value = v
			return err
		})
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key for ttl.
func (g *GuardedStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, g.timeout, "cache set", func(ctx context.Context) error {
			return g.store.Set(ctx, key, value, ttl)
		})
	})
}

// FlushByPattern deletes every key matching pattern and returns how many
// were removed.
func (g *GuardedStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := g.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, g.flushTimeout, "cache flush", func(ctx context.Context) error {
			var err error
			n, err = g.store.FlushByPattern(ctx, pattern)
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Open reports whether the breaker is currently rejecting calls.
func (g *GuardedStore) Open() bool {
	return g.breaker.State() == resilience.StateOpen
}
