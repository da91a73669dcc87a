package pool

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// cacheEntry pairs a resolved descriptor with the time it was fetched.
type cacheEntry struct {
	descriptor *Descriptor
	found      bool
	fetchedAt  time.Time
}

// CachingProvider decorates a Provider with a TTL-bounded cache. Spec.md
// §3 allows caching "with a TTL ≤ 1 block"; this mirrors the teacher's
// age-based eviction idiom in pkg/queue/queue_manager.go.
type CachingProvider struct {
	inner Provider
	ttl   time.Duration

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	tokenA, tokenB common.Address
	dexType        DexType
}

// NewCachingProvider wraps inner with a cache whose entries expire after ttl.
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// Resolve implements Provider, serving from cache when the entry is fresh.
func (c *CachingProvider) Resolve(ctx context.Context, tokenA, tokenB common.Address, dexType DexType) (*Descriptor, bool, error) {
	key := cacheKey{tokenA: tokenA, tokenB: tokenB, dexType: dexType}

	c.mu.Lock()
	entry, exists := c.entries[key]
	c.mu.Unlock()

	if exists && time.Since(entry.fetchedAt) < c.ttl {
		return entry.descriptor, entry.found, nil
	}

	descriptor, found, err := c.inner.Resolve(ctx, tokenA, tokenB, dexType)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{descriptor: descriptor, found: found, fetchedAt: time.Now()}
	c.mu.Unlock()

	return descriptor, found, nil
}
