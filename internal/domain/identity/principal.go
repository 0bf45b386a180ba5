package identity

import (
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// Principal is the authenticated actor passed explicitly into every application
// operation. It carries everything needed for authorization and audit attribution.
type Principal struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Username    string
	Role        Role
	IPAddress   string
	permissions map[Module]ModulePermission
}

// NewPrincipal builds a principal from already-resolved module permissions
func NewPrincipal(userID, tenantID uuid.UUID, username string, role Role, ip string, perms []ModulePermission) Principal {
	p := Principal{
		UserID:      userID,
		TenantID:    tenantID,
		Username:    username,
		Role:        role,
		IPAddress:   ip,
		permissions: make(map[Module]ModulePermission, len(perms)),
	}
	for _, perm := range perms {
		p.permissions[perm.Module] = perm
	}
	return p
}

// NewPrincipalFromCodes builds a principal from token permission codes
func NewPrincipalFromCodes(userID, tenantID uuid.UUID, username string, role Role, ip string, codes []string) Principal {
	p := NewPrincipal(userID, tenantID, username, role, ip, nil)
	p.permissions = ParsePermissionCodes(codes)
	return p
}

// CanRead reports whether the principal may read the module
func (p Principal) CanRead(m Module) bool {
	if p.Role == RoleAdmin {
		return true
	}
	perm, ok := p.permissions[m]
	return ok && (perm.CanRead || perm.CanWrite)
}

// CanWrite reports whether the principal may mutate the module
func (p Principal) CanWrite(m Module) bool {
	if p.Role == RoleAdmin {
		return true
	}
	perm, ok := p.permissions[m]
	return ok && perm.CanWrite
}

// Authorize returns shared.ErrForbidden unless the principal holds the access
func (p Principal) Authorize(m Module, access Access) error {
	if p.UserID == uuid.Nil || p.TenantID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	allowed := p.CanRead(m)
	if access == AccessWrite {
		allowed = p.CanWrite(m)
	}
	if !allowed {
		return shared.ErrForbidden
	}
	return nil
}

// Permissions returns the per-module permissions in module order
func (p Principal) Permissions() []ModulePermission {
	out := make([]ModulePermission, 0, len(p.permissions))
	for _, m := range AllModules() {
		if perm, ok := p.permissions[m]; ok {
			out = append(out, perm)
		}
	}
	return out
}

// ActorID returns a pointer to the user id for audit columns
func (p Principal) ActorID() *uuid.UUID {
	if p.UserID == uuid.Nil {
		return nil
	}
	id := p.UserID
	return &id
}
