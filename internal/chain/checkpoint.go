package chain

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CheckpointFetcher is the upstream call the cache refreshes from.
type CheckpointFetcher func() (*Checkpoint, error)

// CheckpointCache is a single-entry, time-boxed cache for the latest
// ledger checkpoint. Concurrent callers that miss share one upstream
// fetch; a fetch error propagates to every waiter and leaves the
// previous cached value (possibly none) in place.
type CheckpointCache struct {
	ttl   time.Duration
	fetch CheckpointFetcher
	now   func() time.Time

	group singleflight.Group

	mu  sync.RWMutex
	cur *Checkpoint
}

// NewCheckpointCache builds the cache. The clock and fetcher are
// injected so tests can drive both deterministically.
func NewCheckpointCache(ttl time.Duration, fetch CheckpointFetcher, now func() time.Time) *CheckpointCache {
	if now == nil {
		now = time.Now
	}
	return &CheckpointCache{
		ttl:   ttl,
		fetch: fetch,
		now:   now,
	}
}

// Get returns the cached checkpoint while it is younger than the TTL,
// refreshing it through a single in-flight upstream call otherwise.
func (c *CheckpointCache) Get() (*Checkpoint, error) {
	if cp := c.fresh(); cp != nil {
		return cp, nil
	}

	v, err, _ := c.group.Do("checkpoint", func() (interface{}, error) {
		// A concurrent flight may have refreshed the value while this
		// caller was waiting on the group.
		if cp := c.fresh(); cp != nil {
			return cp, nil
		}

		cp, err := c.fetch()
		if err != nil {
			return nil, err
		}
		cp.CachedAt = c.now()

		c.mu.Lock()
		c.cur = cp
		c.mu.Unlock()

		return cp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Checkpoint), nil
}

// TTL is the configured validity window.
func (c *CheckpointCache) TTL() time.Duration {
	return c.ttl
}

// fresh returns the cached checkpoint only while it is within the TTL.
func (c *CheckpointCache) fresh() *Checkpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cur == nil {
		return nil
	}
	if c.now().Sub(c.cur.CachedAt) >= c.ttl {
		return nil
	}
	return c.cur
}
