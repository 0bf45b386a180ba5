package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RequisitionStatus represents the status of a check requisition
type RequisitionStatus string

const (
	RequisitionStatusPendingApproval RequisitionStatus = "pending_approval"
	RequisitionStatusApproved        RequisitionStatus = "approved"
	RequisitionStatusRejected        RequisitionStatus = "rejected"
	RequisitionStatusProcessed       RequisitionStatus = "processed"
	RequisitionStatusPaid            RequisitionStatus = "paid"
)

// IsValid checks if the status is known
func (s RequisitionStatus) IsValid() bool {
	switch s {
	case RequisitionStatusPendingApproval, RequisitionStatusApproved, RequisitionStatusRejected,
		RequisitionStatusProcessed, RequisitionStatusPaid:
		return true
	}
	return false
}

// String returns the string representation
func (s RequisitionStatus) String() string {
	return string(s)
}

// IsActive reports whether a requisition in this status still holds its invoices
func (s RequisitionStatus) IsActive() bool {
	return s != RequisitionStatusRejected
}

// CheckRequisition is an internal request to pay one or more invoices
type CheckRequisition struct {
	shared.TenantAggregateRoot
	RequisitionNumber string
	VendorID          *uuid.UUID
	PayeeName         string
	ProjectID         *uuid.UUID
	PurchaseOrderID   *uuid.UUID
	PHPAmount         decimal.Decimal
	Purpose           string
	RequestedBy       *uuid.UUID
	RequestedByName   string
	RequestDate       time.Time
	Status            RequisitionStatus
	ApprovedAt        *time.Time
	ApprovedBy        *uuid.UUID
	RejectedAt        *time.Time
	RejectedBy        *uuid.UUID
	RejectionReason   string
	ProcessedAt       *time.Time
	ProcessedBy       *uuid.UUID
	PaidAt            *time.Time
	InvoiceIDs        []uuid.UUID
}

// RequisitionDetails holds the editable requisition fields
type RequisitionDetails struct {
	VendorID        *uuid.UUID
	PayeeName       string
	ProjectID       *uuid.UUID
	PurchaseOrderID *uuid.UUID
	PHPAmount       decimal.Decimal
	Purpose         string
	RequestedBy     *uuid.UUID
	RequestedByName string
	RequestDate     time.Time
	InvoiceIDs      []uuid.UUID
}

// ValidateRequisitionDetails checks the editable fields without building a requisition
func ValidateRequisitionDetails(d RequisitionDetails) error {
	verr := &shared.ValidationError{}
	validateRequisitionDetails(d, verr)
	return verr.OrNil()
}

// NewCheckRequisition creates a requisition awaiting approval
func NewCheckRequisition(tenantID, createdBy uuid.UUID, number string, details RequisitionDetails) (*CheckRequisition, error) {
	verr := &shared.ValidationError{}
	if strings.TrimSpace(number) == "" {
		verr.Add("requisition_number", "Requisition number is required")
	}
	validateRequisitionDetails(details, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	cr := &CheckRequisition{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		RequisitionNumber:   number,
		Status:              RequisitionStatusPendingApproval,
	}
	cr.apply(details)
	cr.AddDomainEvent(NewRequisitionStatusChangedEvent(cr, ""))
	return cr, nil
}

// Update edits a requisition still awaiting approval. It returns the invoice
// ids that were unlinked and newly linked.
func (r *CheckRequisition) Update(details RequisitionDetails) (removed, added []uuid.UUID, err error) {
	if r.Status != RequisitionStatusPendingApproval {
		return nil, nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit requisition in %s status", r.Status))
	}
	verr := &shared.ValidationError{}
	validateRequisitionDetails(details, verr)
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}

	removed, added = diffIDs(r.InvoiceIDs, details.InvoiceIDs)
	r.apply(details)
	r.MarkModified(time.Now().UTC())
	return removed, added, nil
}

// CanDelete reports whether the requisition may be removed
func (r *CheckRequisition) CanDelete() bool {
	return r.Status == RequisitionStatusPendingApproval || r.Status == RequisitionStatusRejected
}

// Approve approves the requisition when every critical check passed
func (r *CheckRequisition) Approve(checks ApprovalChecks, by uuid.UUID, at time.Time) error {
	if r.Status != RequisitionStatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve requisition in %s status", r.Status))
	}
	if failed := checks.FailedCritical(); len(failed) > 0 {
		return NewApprovalBlockedError(failed)
	}
	r.setStatus(RequisitionStatusApproved, at)
	r.ApprovedAt = &at
	r.ApprovedBy = &by
	return nil
}

// Reject rejects the requisition. The caller reverts its invoices.
func (r *CheckRequisition) Reject(reason string, by uuid.UUID, at time.Time) error {
	if r.Status != RequisitionStatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject requisition in %s status", r.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("rejection_reason", "Rejection reason is required")
	}
	r.setStatus(RequisitionStatusRejected, at)
	r.RejectedAt = &at
	r.RejectedBy = &by
	r.RejectionReason = reason
	return nil
}

// MarkProcessed attaches the requisition to an unreleased disbursement.
// A paid requisition whose release was withdrawn also returns here.
func (r *CheckRequisition) MarkProcessed(by *uuid.UUID, at time.Time) error {
	switch r.Status {
	case RequisitionStatusProcessed:
		return nil
	case RequisitionStatusApproved:
		r.ProcessedAt = &at
		r.ProcessedBy = by
	case RequisitionStatusPaid:
		r.PaidAt = nil
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot process requisition %s in %s status", r.RequisitionNumber, r.Status))
	}
	r.setStatus(RequisitionStatusProcessed, at)
	return nil
}

// MarkPaid records release of the disbursement check
func (r *CheckRequisition) MarkPaid(at time.Time) error {
	switch r.Status {
	case RequisitionStatusPaid:
		return nil
	case RequisitionStatusProcessed:
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay requisition %s in %s status", r.RequisitionNumber, r.Status))
	}
	r.setStatus(RequisitionStatusPaid, at)
	r.PaidAt = &at
	return nil
}

// RevertToApproved detaches the requisition from its disbursement
func (r *CheckRequisition) RevertToApproved(at time.Time) error {
	switch r.Status {
	case RequisitionStatusApproved:
		return nil
	case RequisitionStatusProcessed, RequisitionStatusPaid:
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot revert requisition %s in %s status", r.RequisitionNumber, r.Status))
	}
	r.setStatus(RequisitionStatusApproved, at)
	r.ProcessedAt = nil
	r.ProcessedBy = nil
	r.PaidAt = nil
	return nil
}

// LinksInvoice reports whether the requisition links the invoice
func (r *CheckRequisition) LinksInvoice(id uuid.UUID) bool {
	for _, inv := range r.InvoiceIDs {
		if inv == id {
			return true
		}
	}
	return false
}

func (r *CheckRequisition) setStatus(target RequisitionStatus, at time.Time) {
	from := r.Status
	r.Status = target
	r.MarkModified(at)
	r.AddDomainEvent(NewRequisitionStatusChangedEvent(r, from))
}

func (r *CheckRequisition) apply(d RequisitionDetails) {
	r.VendorID = d.VendorID
	r.PayeeName = strings.TrimSpace(d.PayeeName)
	r.ProjectID = d.ProjectID
	r.PurchaseOrderID = d.PurchaseOrderID
	r.PHPAmount = d.PHPAmount
	r.Purpose = strings.TrimSpace(d.Purpose)
	r.RequestedBy = d.RequestedBy
	r.RequestedByName = strings.TrimSpace(d.RequestedByName)
	r.RequestDate = d.RequestDate
	r.InvoiceIDs = dedupeIDs(d.InvoiceIDs)
}

func validateRequisitionDetails(d RequisitionDetails, verr *shared.ValidationError) {
	if strings.TrimSpace(d.PayeeName) == "" && d.VendorID == nil {
		verr.Add("payee_name", "Payee is required")
	}
	if !d.PHPAmount.IsPositive() {
		verr.Add("php_amount", "Amount must be positive")
	}
	if d.RequestDate.IsZero() {
		verr.Add("request_date", "Request date is required")
	}
	if len(d.InvoiceIDs) == 0 {
		verr.Add("invoice_ids", "At least one invoice is required")
	}
	for _, id := range d.InvoiceIDs {
		if id == uuid.Nil {
			verr.Add("invoice_ids", "Invoice ids must be valid")
			break
		}
	}
}

// dedupeIDs removes duplicates while keeping first-seen order
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// diffIDs returns ids only in before (removed) and only in after (added)
func diffIDs(before, after []uuid.UUID) (removed, added []uuid.UUID) {
	inBefore := toSet(before)
	inAfter := toSet(after)
	for _, id := range dedupeIDs(before) {
		if _, ok := inAfter[id]; !ok {
			removed = append(removed, id)
		}
	}
	for _, id := range dedupeIDs(after) {
		if _, ok := inBefore[id]; !ok {
			added = append(added, id)
		}
	}
	return removed, added
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
