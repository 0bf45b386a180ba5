package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/shared"
)

// ActivityLogModel is the persistence model for an append-only activity log entry.
type ActivityLogModel struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	SubjectType shared.SubjectType `gorm:"type:varchar(30);not null;index:idx_activity_subject,priority:1"`
	SubjectID   uuid.UUID          `gorm:"type:uuid;not null;index:idx_activity_subject,priority:2"`
	Action      string             `gorm:"type:varchar(50);not null"`
	UserID      *uuid.UUID         `gorm:"type:uuid;index"`
	Username    string             `gorm:"type:varchar(100)"`
	IPAddress   string             `gorm:"type:varchar(45)"`
	Changes     audit.Changes      `gorm:"type:jsonb;serializer:json"`
	Notes       string             `gorm:"type:text"`
	CreatedAt   time.Time          `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ToDomain converts the persistence model to a domain ActivityLog.
func (m *ActivityLogModel) ToDomain() *audit.ActivityLog {
	changes := m.Changes
	if changes == nil {
		changes = audit.Changes{}
	}
	return &audit.ActivityLog{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Subject:   shared.SubjectRef{Type: m.SubjectType, ID: m.SubjectID},
		Action:    m.Action,
		UserID:    m.UserID,
		Username:  m.Username,
		IPAddress: m.IPAddress,
		Changes:   changes,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
	}
}

// ActivityLogModelFromDomain creates a new persistence model from a domain ActivityLog.
func ActivityLogModelFromDomain(l *audit.ActivityLog) *ActivityLogModel {
	return &ActivityLogModel{
		ID:          l.ID,
		TenantID:    l.TenantID,
		SubjectType: l.Subject.Type,
		SubjectID:   l.Subject.ID,
		Action:      l.Action,
		UserID:      l.UserID,
		Username:    l.Username,
		IPAddress:   l.IPAddress,
		Changes:     l.Changes,
		Notes:       l.Notes,
		CreatedAt:   l.CreatedAt,
	}
}
