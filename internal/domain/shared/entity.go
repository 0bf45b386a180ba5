package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps; UpdatedAt moves on every
// mutation through MarkModified.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity stamps a fresh id and UTC timestamps
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}
