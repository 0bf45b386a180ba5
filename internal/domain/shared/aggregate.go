package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot adds the optimistic-lock version and a buffer of events
// raised since the aggregate was loaded.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// MarkModified stamps the update time. Version is advanced by the repository
// when the optimistic-lock update succeeds.
func (a *BaseAggregateRoot) MarkModified(at time.Time) {
	a.UpdatedAt = at
}

// AddDomainEvent buffers an event until the service publishes it after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the buffered events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the buffered events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// TenantAggregateRoot scopes an aggregate to a tenant and records its creator
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
}

// NewTenantAggregateRoot starts a version 1 aggregate owned by tenantID
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1},
		TenantID:          tenantID,
	}
}

// NewTenantAggregateRootWithCreator is NewTenantAggregateRoot with CreatedBy
// set unless createdBy is nil
func NewTenantAggregateRootWithCreator(tenantID, createdBy uuid.UUID) TenantAggregateRoot {
	root := NewTenantAggregateRoot(tenantID)
	if createdBy != uuid.Nil {
		root.CreatedBy = &createdBy
	}
	return root
}
