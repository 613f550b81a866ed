// Package cache memoises ranked results in an external key-value store.
// Keys carry the index generation, so any AddDocument or RemoveDocument
// makes older entries unreachable without an explicit flush.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

const keyPrefix = "search:"

// Store is the subset of pkg/redis.Client the cache uses. Get must return
// errors.ErrCacheMiss for an absent key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies one cached result.
type Key struct {
	Generation uint64
	// Query is the canonical parsed form, see parser.Query.Key.
	Query  string
	Filter string
}

func (k Key) String() string {
	raw := fmt.Sprintf("%d|%s|%s", k.Generation, k.Query, k.Filter)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// QueryCache stores ranked results as JSON and collapses concurrent
// misses on the same key into one computation.
type QueryCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New returns a cache writing to store with the given entry ttl.
func New(store Store, ttl time.Duration) *QueryCache {
	return &QueryCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached results for key. Any store error counts as a
// miss.
func (c *QueryCache) Get(ctx context.Context, key Key) ([]ranker.ScoredDoc, bool) {
	k := key.String()
	data, err := c.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheMiss) {
			c.logger.Error("cache get failed", "key", k, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var docs []ranker.ScoredDoc
	if err := json.Unmarshal([]byte(data), &docs); err != nil {
		c.logger.Error("cache unmarshal failed", "key", k, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", key.Query, "key", k)
	return docs, true
}

// Set stores docs under key. Failures are logged and dropped.
func (c *QueryCache) Set(ctx context.Context, key Key, docs []ranker.ScoredDoc) {
	k := key.String()
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", k, "error", err)
		return
	}
	if err := c.store.Set(ctx, k, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", k, "error", err)
	}
}

// GetOrCompute returns the cached result for key or computes, stores and
// returns it. Concurrent misses on the same key share one computation. The
// boolean reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key Key,
	compute func() ([]ranker.ScoredDoc, error),
) ([]ranker.ScoredDoc, bool, error) {
	if docs, ok := c.Get(ctx, key); ok {
		return docs, true, nil
	}
	val, err, _ := c.group.Do(key.String(), func() (any, error) {
		docs, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]ranker.ScoredDoc), false, nil
}

// Invalidate deletes every cached result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counts since start.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
