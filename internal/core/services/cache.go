package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// CacheStats reports result cache effectiveness.
type CacheStats struct {
	// Hits is the number of lookups served from the cache.
	Hits uint64

	// Misses is the number of lookups that fell through to compute.
	Misses uint64

	// Entries is the current number of cached answers.
	Entries int
}

// cacheEntry is one cached answer with its expiry and the index version
// it was computed against.
type cacheEntry struct {
	answer    *domain.GeneratedAnswer
	version   domain.IndexVersion
	expiresAt time.Time
}

// ResultCache memoises generated answers keyed by the full request.
// A cached answer is only served while the index version it was computed
// against is still current; a stale entry is recomputed, never returned.
// Concurrent identical requests collapse into one computation.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
	ttl     time.Duration
	hits    uint64
	misses  uint64
	now     func() time.Time
	// sweepCountdown triggers a full expiry sweep when it reaches zero.
	sweepCountdown int
}

// sweepEvery is the number of misses between full expiry sweeps.
const sweepEvery = 64

// NewResultCache creates a result cache with the given entry TTL.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries:        make(map[string]cacheEntry),
		ttl:            ttl,
		now:            time.Now,
		sweepCountdown: sweepEvery,
	}
}

// GetOrCompute returns the cached answer for key when it is fresh and was
// computed at the current index version. Otherwise compute runs; its
// result is cached at the version it reports. Concurrent callers with
// the same key share one compute call.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	key string,
	currentVersion domain.IndexVersion,
	compute func(ctx context.Context) (*domain.GeneratedAnswer, error),
) (*domain.GeneratedAnswer, error) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		if entry.version == currentVersion && c.now().Before(entry.expiresAt) {
			c.hits++
			c.mu.Unlock()
			return entry.answer, nil
		}
		// Stale answers must never be served.
		delete(c.entries, key)
	}
	c.misses++
	c.sweepCountdown--
	if c.sweepCountdown <= 0 {
		c.sweepLocked()
		c.sweepCountdown = sweepEvery
	}
	c.mu.Unlock()

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under singleflight: a concurrent caller may have
		// populated the entry while this one waited.
		c.mu.Lock()
		if entry, ok := c.entries[key]; ok &&
			entry.version == currentVersion && c.now().Before(entry.expiresAt) {
			c.mu.Unlock()
			return entry.answer, nil
		}
		c.mu.Unlock()

		answer, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = cacheEntry{
			answer:    answer,
			version:   answer.IndexVersion,
			expiresAt: c.now().Add(c.ttl),
		}
		c.mu.Unlock()
		return answer, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.GeneratedAnswer), nil
}

// Invalidate drops all cached answers.
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// sweepLocked drops every expired entry. Callers hold c.mu. Expiry is
// otherwise only checked on same-key lookups, so entries whose keys
// never recur would pin memory without this.
func (c *ResultCache) sweepLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Stats returns a snapshot of cache effectiveness counters, sweeping
// expired entries first so Entries reflects live answers only.
func (c *ResultCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
	}
}
