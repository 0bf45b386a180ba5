package dashboard

import (
	"context"

	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InvalidationHandler drops a tenant's cached dashboards whenever a document
// that feeds them changes
type InvalidationHandler struct {
	cache  Cache
	logger *zap.Logger
}

// NewInvalidationHandler creates a new InvalidationHandler
func NewInvalidationHandler(cache Cache, logger *zap.Logger) *InvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvalidationHandler{cache: cache, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *InvalidationHandler) EventTypes() []string {
	return procurement.FinancialEventTypes()
}

// Handle bumps the tenant generation
func (h *InvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.cache.BumpGeneration(ctx, event.TenantID()); err != nil {
		h.logger.Warn("Failed to invalidate dashboard cache",
			zap.String("tenant_id", event.TenantID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err))
		return err
	}
	return nil
}
