package persistence

import (
	"context"

	"github.com/google/uuid"
	appattachment "github.com/procurement/backend/internal/application/attachment"
	"github.com/procurement/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// subjectTables maps each subject type to the table holding it
var subjectTables = map[shared.SubjectType]string{
	shared.SubjectVendor:           "vendors",
	shared.SubjectProject:          "projects",
	shared.SubjectPurchaseOrder:    "purchase_orders",
	shared.SubjectInvoice:          "invoices",
	shared.SubjectCheckRequisition: "check_requisitions",
	shared.SubjectDisbursement:     "disbursements",
	shared.SubjectUser:             "users",
}

// GormSubjectLookup resolves polymorphic subjects against their tables
type GormSubjectLookup struct {
	db *gorm.DB
}

// NewGormSubjectLookup creates a new GormSubjectLookup
func NewGormSubjectLookup(db *gorm.DB) *GormSubjectLookup {
	return &GormSubjectLookup{db: db}
}

// Exists reports whether the subject exists in the tenant
func (l *GormSubjectLookup) Exists(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef) (bool, error) {
	table, ok := subjectTables[subject.Type]
	if !ok {
		return false, shared.NewValidationError("subject_type", "Unknown subject type")
	}
	var count int64
	if err := l.db.WithContext(ctx).Table(table).
		Where("tenant_id = ? AND id = ?", tenantID, subject.ID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ appattachment.SubjectLookup = (*GormSubjectLookup)(nil)
