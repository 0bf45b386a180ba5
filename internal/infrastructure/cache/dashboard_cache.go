package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/application/dashboard"
	"github.com/redis/go-redis/v9"
)

const dashboardGenerationPrefix = "p2p:dashboard:gen:"

// RedisDashboardCache keeps rendered dashboards in Redis so every instance
// sees the same generation counter
type RedisDashboardCache struct {
	client redis.UniversalClient
}

// NewRedisDashboardCache creates a dashboard cache on an existing client
func NewRedisDashboardCache(client redis.UniversalClient) *RedisDashboardCache {
	return &RedisDashboardCache{client: client}
}

// Get returns the cached payload, if any
func (c *RedisDashboardCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("dashboard cache get: %w", err)
	}
	return val, true, nil
}

// Set stores a payload with a TTL
func (c *RedisDashboardCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("dashboard cache set: %w", err)
	}
	return nil
}

// Generation reads the tenant's counter; a missing counter is generation 0
func (c *RedisDashboardCache) Generation(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, dashboardGenerationPrefix+tenantID.String()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("dashboard cache generation: %w", err)
	}
	return gen, nil
}

// BumpGeneration orphans every cached dashboard of the tenant. Old entries
// expire on their own TTL.
func (c *RedisDashboardCache) BumpGeneration(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Incr(ctx, dashboardGenerationPrefix+tenantID.String()).Err(); err != nil {
		return fmt.Errorf("dashboard cache bump: %w", err)
	}
	return nil
}

var _ dashboard.Cache = (*RedisDashboardCache)(nil)
