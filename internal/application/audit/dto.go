package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/audit"
)

// ActivityLogListFilter holds the query parameters for listing activity logs
type ActivityLogListFilter struct {
	SubjectType string     `form:"subject_type"`
	SubjectID   *uuid.UUID `form:"-"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ActivityLogResponse represents an activity log entry in API responses
type ActivityLogResponse struct {
	ID          uuid.UUID     `json:"id"`
	SubjectType string        `json:"subject_type"`
	SubjectID   uuid.UUID     `json:"subject_id"`
	Action      string        `json:"action"`
	UserID      *uuid.UUID    `json:"user_id,omitempty"`
	Username    string        `json:"username"`
	IPAddress   string        `json:"ip_address,omitempty"`
	Changes     audit.Changes `json:"changes"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ToActivityLogResponse converts a domain entry to a response
func ToActivityLogResponse(l *audit.ActivityLog) ActivityLogResponse {
	return ActivityLogResponse{
		ID:          l.ID,
		SubjectType: l.Subject.Type.String(),
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
