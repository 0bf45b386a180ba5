package shared

import "github.com/google/uuid"

// SubjectType names an entity that files, remarks and activity logs can attach to.
type SubjectType string

const (
	SubjectVendor           SubjectType = "vendor"
	SubjectProject          SubjectType = "project"
	SubjectPurchaseOrder    SubjectType = "purchase_order"
	SubjectInvoice          SubjectType = "invoice"
	SubjectCheckRequisition SubjectType = "check_requisition"
	SubjectDisbursement     SubjectType = "disbursement"
	SubjectUser             SubjectType = "user"
)

// IsValid checks if the subject type is known
func (s SubjectType) IsValid() bool {
	switch s {
	case SubjectVendor, SubjectProject, SubjectPurchaseOrder, SubjectInvoice,
		SubjectCheckRequisition, SubjectDisbursement, SubjectUser:
		return true
	}
	return false
}

// String returns the string representation
func (s SubjectType) String() string {
	return string(s)
}

// SubjectRef points at one polymorphic subject
type SubjectRef struct {
	Type SubjectType
	ID   uuid.UUID
}

// NewSubjectRef validates and builds a subject reference
func NewSubjectRef(subjectType string, id uuid.UUID) (SubjectRef, error) {
	st := SubjectType(subjectType)
	if !st.IsValid() {
		return SubjectRef{}, NewValidationError("subject_type", "Unknown subject type")
	}
	if id == uuid.Nil {
		return SubjectRef{}, NewValidationError("subject_id", "Subject ID is required")
	}
	return SubjectRef{Type: st, ID: id}, nil
}
