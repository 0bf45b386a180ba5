package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/report"
)

// DefaultCacheTTL is used when no TTL is configured
const DefaultCacheTTL = 5 * time.Minute

// Cache stores rendered dashboards. Entries are keyed by a per-tenant
// generation so bumping the generation invalidates every entry of the tenant
// at once.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context, tenantID uuid.UUID) (int64, error)
	BumpGeneration(ctx context.Context, tenantID uuid.UUID) error
}

func cacheKey(tenantID uuid.UUID, generation int64, role identity.Role, r report.DateRange) string {
	return fmt.Sprintf("p2p:dashboard:%s:g%d:%s:%s", tenantID, generation, role, r.Key())
}
