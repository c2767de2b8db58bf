package storage

import (
	"context"
	"time"

	cache "github.com/patrickmn/go-cache"
)

const cacheCleanupInterval = 10 * time.Minute

// MemoryIdempotency is a process-local idempotency store.
type MemoryIdempotency struct {
	cache *cache.Cache
}

func NewMemoryIdempotency(ttl time.Duration) *MemoryIdempotency {
	if ttl <= 0 {
		ttl = defaultIdempotencyKeyTTL
	}
	return &MemoryIdempotency{cache: cache.New(ttl, cacheCleanupInterval)}
}

func (m *MemoryIdempotency) SetIdempotency(_ context.Context, key string) (bool, error) {
	// Add fails when the key is present and not expired
	if err := m.cache.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *MemoryIdempotency) ReleaseIdempotency(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
