package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user together with its permissions
	Create(ctx context.Context, user *User) error

	// Update updates an existing user and replaces its permissions
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)

	// FindByUsername finds a user by username across tenants (login)
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindAll returns the tenant's users with pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, filter UserFilter) ([]*User, int64, error)

	// ExistsByUsername checks if a username already exists
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	Keyword   string
	Role      *Role
	Status    *UserStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// NewUserFilter creates a new UserFilter with default values
func NewUserFilter() UserFilter {
	return UserFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}
