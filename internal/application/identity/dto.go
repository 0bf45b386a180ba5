package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/infrastructure/auth"
)

// LoginRequest contains the credentials of a login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshRequest carries the refresh token being exchanged
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke with the access token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is a token pair plus the authenticated user
type LoginResult struct {
	Token *auth.TokenPair `json:"token"`
	User  UserResponse    `json:"user"`
}

// PermissionInput is one module grant of a permission change
type PermissionInput struct {
	Module   string `json:"module" binding:"required"`
	CanRead  bool   `json:"can_read"`
	CanWrite bool   `json:"can_write"`
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=100"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	DisplayName string `json:"display_name" binding:"max=200"`
	Role        string `json:"role" binding:"required,oneof=purchasing accounting treasury executive admin"`
	// Permissions replaces the role defaults when set
	Permissions []PermissionInput `json:"permissions" binding:"omitempty,dive"`
}

// SetPermissionsRequest replaces a user's module permissions
type SetPermissionsRequest struct {
	Permissions []PermissionInput `json:"permissions" binding:"dive"`
}

// UserListFilter represents the user list query
type UserListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"max=100"`
	Role     string `form:"role" binding:"omitempty,oneof=purchasing accounting treasury executive admin"`
	Status   string `form:"status" binding:"omitempty,oneof=active deactivated"`
}

// PermissionResponse is one module grant in API responses
type PermissionResponse struct {
	Module   string `json:"module"`
	CanRead  bool   `json:"can_read"`
	CanWrite bool   `json:"can_write"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          uuid.UUID            `json:"id"`
	Username    string               `json:"username"`
	Email       string               `json:"email,omitempty"`
	DisplayName string               `json:"display_name"`
	Role        string               `json:"role"`
	Status      string               `json:"status"`
	Permissions []PermissionResponse `json:"permissions"`
	LastLoginAt *time.Time           `json:"last_login_at,omitempty"`
	Version     int                  `json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ToUserResponse converts a domain user to a response
func ToUserResponse(u *identity.User) UserResponse {
	perms := make([]PermissionResponse, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		perms = append(perms, PermissionResponse{
			Module:   p.Module.String(),
			CanRead:  p.CanRead || p.CanWrite,
			CanWrite: p.CanWrite,
		})
	}
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.GetDisplayNameOrUsername(),
		Role:        u.Role.String(),
		Status:      string(u.Status),
		Permissions: perms,
		LastLoginAt: u.LastLoginAt,
		Version:     u.Version,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toModulePermissions(in []PermissionInput) []identity.ModulePermission {
	out := make([]identity.ModulePermission, len(in))
	for i, p := range in {
		out[i] = identity.ModulePermission{
			Module:   identity.Module(p.Module),
			CanRead:  p.CanRead,
			CanWrite: p.CanWrite,
		}
	}
	return out
}

func toUserFilter(f UserListFilter) identity.UserFilter {
	filter := identity.NewUserFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	filter.Keyword = f.Search
	if f.Role != "" {
		role := identity.Role(f.Role)
		filter.Role = &role
	}
	if f.Status != "" {
		status := identity.UserStatus(f.Status)
		filter.Status = &status
	}
	return filter
}
