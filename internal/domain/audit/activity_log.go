package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// Action names recorded in the activity log
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
	ActionFinalized    = "finalized"
	ActionClosed       = "closed"
	ActionCancelled    = "cancelled"
	ActionReceived     = "received"
	ActionReviewed     = "review_started"
	ActionApproved     = "approved"
	ActionRejected     = "rejected"
	ActionResubmitted  = "resubmitted"
	ActionFileUploaded = "file_uploaded"
	ActionFileDeleted  = "file_deleted"
	ActionPermissions  = "permissions_changed"
	ActionDeactivated  = "deactivated"
)

// Change is the before/after value of one field
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Changes is the change-set of one mutation keyed by field name
type Changes map[string]Change

// Set records a field change when the printed values differ
func (c Changes) Set(field string, from, to any) Changes {
	if fmt.Sprint(from) == fmt.Sprint(to) {
		return c
	}
	c[field] = Change{From: from, To: to}
	return c
}

// ActivityLog is an append-only audit record attached to a subject. It is kept
// after the subject is deleted.
type ActivityLog struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Subject   shared.SubjectRef
	Action    string
	UserID    *uuid.UUID
	Username  string
	IPAddress string
	Changes   Changes
	Notes     string
	CreatedAt time.Time
}

// Actor identifies who performed an action
type Actor struct {
	UserID    *uuid.UUID
	Username  string
	IPAddress string
}

// NewActivityLog creates an activity log entry
func NewActivityLog(tenantID uuid.UUID, subject shared.SubjectRef, action string, actor Actor, changes Changes, notes string) *ActivityLog {
	if changes == nil {
		changes = Changes{}
	}
	return &ActivityLog{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Subject:   subject,
		Action:    action,
		UserID:    actor.UserID,
		Username:  actor.Username,
		IPAddress: actor.IPAddress,
		Changes:   changes,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}
}

// ActivityLogRepository defines the interface for activity log persistence
type ActivityLogRepository interface {
	// Create appends an entry
	Create(ctx context.Context, log *ActivityLog) error

	// FindBySubject lists a subject's entries, newest first
	FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef, filter shared.Filter) ([]*ActivityLog, int64, error)

	// FindAll lists the tenant's entries, newest first, optionally filtered by subject type
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*ActivityLog, int64, error)
}
