package storage

import (
	"context"
	"sync"
	"time"

	"school_points_bot/internal/domain/ledger"
)

// CachedStore caches Load results for a short TTL. The dashboard reloads
// the table on every UI interaction, and this keeps that from hammering the
// disk. It is strictly a read-churn optimization: writes pass through and
// drop the cache, and the bot process never wraps its store in one.
type CachedStore struct {
	inner ledger.Store
	ttl   time.Duration

	mu       sync.Mutex
	cached   *ledger.State
	loadedAt time.Time
}

func NewCachedStore(inner ledger.Store, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, ttl: ttl}
}

func (c *CachedStore) Load(ctx context.Context) (*ledger.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.loadedAt) < c.ttl {
		return c.cached, nil
	}
	st, err := c.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.cached = st
	c.loadedAt = time.Now()
	return st, nil
}

func (c *CachedStore) Save(ctx context.Context, st *ledger.State) error {
	c.invalidate()
	return c.inner.Save(ctx, st)
}

func (c *CachedStore) Update(ctx context.Context, mutate func(*ledger.State) error) error {
	c.invalidate()
	return c.inner.Update(ctx, mutate)
}

func (c *CachedStore) invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
