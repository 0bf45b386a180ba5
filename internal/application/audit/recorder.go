package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
)

// ActorOf converts a principal into the audit attribution of its actions
func ActorOf(p identity.Principal) audit.Actor {
	return audit.Actor{
		UserID:    p.ActorID(),
		Username:  p.Username,
		IPAddress: p.IPAddress,
	}
}

// Record appends one activity log entry through repo. Callers pass the
// repository of their current transaction so the entry commits with the change.
func Record(
	ctx context.Context,
	repo audit.ActivityLogRepository,
	p identity.Principal,
	subjectType shared.SubjectType,
	subjectID uuid.UUID,
	action string,
	changes audit.Changes,
	notes string,
) error {
	entry := audit.NewActivityLog(p.TenantID, shared.SubjectRef{Type: subjectType, ID: subjectID}, action, ActorOf(p), changes, notes)
	return repo.Create(ctx, entry)
}
