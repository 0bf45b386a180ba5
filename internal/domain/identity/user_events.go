package identity

import (
	"github.com/procurement/backend/internal/domain/shared"
)

// Aggregate type constant for User
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserCreated            = "UserCreated"
	EventTypeUserDeactivated        = "UserDeactivated"
	EventTypeUserPermissionsChanged = "UserPermissionsChanged"
)

// UserCreatedEvent is published when a user is created
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// NewUserCreatedEvent creates a new UserCreatedEvent
func NewUserCreatedEvent(user *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, AggregateTypeUser, user.ID, user.TenantID),
		Username:        user.Username,
		Role:            user.Role,
	}
}

// UserDeactivatedEvent is published when a user is deactivated
type UserDeactivatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserDeactivatedEvent creates a new UserDeactivatedEvent
func NewUserDeactivatedEvent(user *User) *UserDeactivatedEvent {
	return &UserDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeactivated, AggregateTypeUser, user.ID, user.TenantID),
		Username:        user.Username,
	}
}

// UserPermissionsChangedEvent is published when module permissions are replaced
type UserPermissionsChangedEvent struct {
	shared.BaseDomainEvent
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

// NewUserPermissionsChangedEvent creates a new UserPermissionsChangedEvent
func NewUserPermissionsChangedEvent(user *User) *UserPermissionsChangedEvent {
	return &UserPermissionsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPermissionsChanged, AggregateTypeUser, user.ID, user.TenantID),
		Username:        user.Username,
		Permissions:     user.PermissionCodes(),
	}
}
