package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	TenantAggregateModel
	Username     string                `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email        string                `gorm:"type:varchar(200)"`
	DisplayName  string                `gorm:"type:varchar(200)"`
	PasswordHash string                `gorm:"type:varchar(255);not null"`
	Role         identity.Role         `gorm:"type:varchar(20);not null;index"`
	Status       identity.UserStatus   `gorm:"type:varchar(20);not null;default:'active';index"`
	LastLoginAt  *time.Time            `gorm:"index"`
	LastLoginIP  string                `gorm:"type:varchar(45)"`
	Permissions  []UserPermissionModel `gorm:"foreignKey:UserID"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
// Permissions must be preloaded by the repository.
func (m *UserModel) ToDomain() *identity.User {
	user := &identity.User{
		Username:     m.Username,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		Status:       m.Status,
		Permissions:  make([]identity.ModulePermission, 0, len(m.Permissions)),
		LastLoginAt:  m.LastLoginAt,
		LastLoginIP:  m.LastLoginIP,
	}
	m.PopulateTenantAggregateRoot(&user.TenantAggregateRoot)
	for _, p := range m.Permissions {
		user.Permissions = append(user.Permissions, p.ToDomain())
	}
	return user
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.DisplayName = u.DisplayName
	m.PasswordHash = u.PasswordHash
	m.Role = u.Role
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.Permissions = make([]UserPermissionModel, len(u.Permissions))
	for i, p := range u.Permissions {
		m.Permissions[i] = UserPermissionModel{
			UserID:   u.ID,
			TenantID: u.TenantID,
			Module:   p.Module,
			CanRead:  p.CanRead,
			CanWrite: p.CanWrite,
		}
	}
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// UserPermissionModel stores one module grant of a user.
type UserPermissionModel struct {
	UserID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Module   identity.Module `gorm:"type:varchar(30);primaryKey"`
	TenantID uuid.UUID       `gorm:"type:uuid;not null;index"`
	CanRead  bool            `gorm:"not null;default:false"`
	CanWrite bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UserPermissionModel) TableName() string {
	return "user_permissions"
}

// ToDomain converts the persistence model to a domain ModulePermission.
func (m UserPermissionModel) ToDomain() identity.ModulePermission {
	return identity.ModulePermission{Module: m.Module, CanRead: m.CanRead, CanWrite: m.CanWrite}
}
