package recommendation

import (
	"context"
	"sync"
)

// Cache holds at most one Result per partner id.
type Cache interface {
	Get(ctx context.Context, partnerID string) (Result, bool, error)
	Put(ctx context.Context, partnerID string, res Result) error
	Delete(ctx context.Context, partnerID string) error
	Len(ctx context.Context) (int, error)
}

// MemoryCache is the process-local Cache used by default.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Result)}
}

func (c *MemoryCache) Get(_ context.Context, partnerID string) (Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[partnerID]
	return res, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, partnerID string, res Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[partnerID] = res
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, partnerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, partnerID)
	return nil
}

func (c *MemoryCache) Len(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}
