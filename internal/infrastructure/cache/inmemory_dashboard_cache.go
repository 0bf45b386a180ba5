package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/dashboard"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryDashboardCache is the single-instance dashboard cache. Expired
// entries are dropped lazily on read and on every bump.
type InMemoryDashboardCache struct {
	mu          sync.Mutex
	entries     map[string]entry
	generations map[uuid.UUID]int64
	now         func() time.Time
}

// NewInMemoryDashboardCache creates an empty cache
func NewInMemoryDashboardCache() *InMemoryDashboardCache {
	return &InMemoryDashboardCache{
		entries:     make(map[string]entry),
		generations: make(map[uuid.UUID]int64),
		now:         time.Now,
	}
}

// Get returns a live entry
func (c *InMemoryDashboardCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value
func (c *InMemoryDashboardCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Generation returns the tenant's current generation
func (c *InMemoryDashboardCache) Generation(_ context.Context, tenantID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[tenantID], nil
}

// BumpGeneration advances the tenant's generation
func (c *InMemoryDashboardCache) BumpGeneration(_ context.Context, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[tenantID]++
	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired ones included
func (c *InMemoryDashboardCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

var _ dashboard.Cache = (*InMemoryDashboardCache)(nil)
