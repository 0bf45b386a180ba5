package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate. Events are published only
// after the transaction that produced them commits.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// BaseDomainEvent is embedded by concrete events for the envelope fields
type BaseDomainEvent struct {
	id            uuid.UUID
	eventType     string
	occurredAt    time.Time
	aggregateID   uuid.UUID
	aggregateType string
	tenantID      uuid.UUID
}

// NewBaseDomainEvent stamps a new event id and the current UTC time
func NewBaseDomainEvent(eventType, aggregateType string, aggregateID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		id:            uuid.New(),
		eventType:     eventType,
		occurredAt:    time.Now().UTC(),
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		tenantID:      tenantID,
	}
}

func (e BaseDomainEvent) EventID() uuid.UUID     { return e.id }
func (e BaseDomainEvent) EventType() string      { return e.eventType }
func (e BaseDomainEvent) OccurredAt() time.Time  { return e.occurredAt }
func (e BaseDomainEvent) AggregateID() uuid.UUID { return e.aggregateID }
func (e BaseDomainEvent) AggregateType() string  { return e.aggregateType }
func (e BaseDomainEvent) TenantID() uuid.UUID    { return e.tenantID }

// EventHandler reacts to published events. An empty EventTypes subscribes
// the handler to every event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher delivers committed events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is a publisher handlers can subscribe to
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
}
