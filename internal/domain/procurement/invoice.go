package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of a vendor invoice
type InvoiceStatus string

const (
	InvoiceStatusPending             InvoiceStatus = "pending"
	InvoiceStatusReceived            InvoiceStatus = "received"
	InvoiceStatusInProgress          InvoiceStatus = "in_progress"
	InvoiceStatusApproved            InvoiceStatus = "approved"
	InvoiceStatusRejected            InvoiceStatus = "rejected"
	InvoiceStatusPendingDisbursement InvoiceStatus = "pending_disbursement"
	InvoiceStatusPaid                InvoiceStatus = "paid"
)

// IsValid checks if the status is known
func (s InvoiceStatus) IsValid() bool {
	_, ok := invoiceTransitions[s]
	return ok
}

// String returns the string representation
func (s InvoiceStatus) String() string {
	return string(s)
}

// invoiceTransitions lists the transitions a user action may trigger
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending:             {InvoiceStatusReceived, InvoiceStatusRejected},
	InvoiceStatusReceived:            {InvoiceStatusInProgress, InvoiceStatusApproved, InvoiceStatusRejected},
	InvoiceStatusInProgress:          {InvoiceStatusApproved, InvoiceStatusRejected},
	InvoiceStatusRejected:            {InvoiceStatusPending},
	InvoiceStatusApproved:            {},
	InvoiceStatusPendingDisbursement: {},
	InvoiceStatusPaid:                {},
}

// invoiceCascadeTransitions lists the transitions driven by requisitions and disbursements
var invoiceCascadeTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusApproved:            {InvoiceStatusPendingDisbursement, InvoiceStatusPaid},
	InvoiceStatusPendingDisbursement: {InvoiceStatusPaid, InvoiceStatusApproved},
	InvoiceStatusPaid:                {InvoiceStatusApproved, InvoiceStatusPendingDisbursement},
}

// CanTransitionTo checks if a user action may move the status to target
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, t := range invoiceTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// CanCascadeTo checks if a cascade may move the status to target. Staying in
// the same status is always allowed.
func (s InvoiceStatus) CanCascadeTo(target InvoiceStatus) bool {
	if s == target {
		return true
	}
	for _, t := range invoiceCascadeTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsCascadeManaged reports whether the status is owned by the requisition/disbursement cascade
func (s InvoiceStatus) IsCascadeManaged() bool {
	switch s {
	case InvoiceStatusApproved, InvoiceStatusPendingDisbursement, InvoiceStatusPaid:
		return true
	}
	return false
}

// Invoice is a vendor sales invoice, billed against a purchase order or direct
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber   string
	PurchaseOrderID *uuid.UUID
	VendorID        uuid.UUID
	ProjectID       *uuid.UUID
	InvoiceDate     time.Time
	DueDate         *time.Time
	Currency        string
	GrossAmount     decimal.Decimal
	VATAmount       decimal.Decimal
	NetAmount       decimal.Decimal
	Status          InvoiceStatus
	SIReceivedAt    *time.Time
	ReceivedBy      *uuid.UUID
	ReviewedAt      *time.Time
	ReviewedBy      *uuid.UUID
	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID
	RejectedAt      *time.Time
	RejectionReason string
	PaidAt          *time.Time
	Description     string
}

// InvoiceDetails holds the editable invoice fields
type InvoiceDetails struct {
	InvoiceNumber   string
	PurchaseOrderID *uuid.UUID
	VendorID        uuid.UUID
	ProjectID       *uuid.UUID
	InvoiceDate     time.Time
	DueDate         *time.Time
	Currency        string
	GrossAmount     decimal.Decimal
	VATAmount       decimal.Decimal
	NetAmount       decimal.Decimal
	Description     string
}

// NewInvoice records a pending invoice
func NewInvoice(tenantID, createdBy uuid.UUID, details InvoiceDetails) (*Invoice, error) {
	verr := &shared.ValidationError{}
	validateInvoiceDetails(details, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Status:              InvoiceStatusPending,
	}
	inv.apply(details)
	inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, ""))
	return inv, nil
}

// Update edits the invoice. Cascade-managed invoices are read-only here.
func (i *Invoice) Update(details InvoiceDetails) error {
	if !i.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit invoice in %s status", i.Status))
	}
	verr := &shared.ValidationError{}
	validateInvoiceDetails(details, verr)
	if err := verr.OrNil(); err != nil {
		return err
	}
	i.apply(details)
	i.MarkModified(time.Now().UTC())
	return nil
}

// IsEditable reports whether user edits are allowed
func (i *Invoice) IsEditable() bool {
	return !i.Status.IsCascadeManaged()
}

// CanDelete reports whether the invoice may be removed
func (i *Invoice) CanDelete() bool {
	switch i.Status {
	case InvoiceStatusPending, InvoiceStatusReceived, InvoiceStatusRejected:
		return true
	}
	return false
}

// Receive records physical receipt of the sales invoice
func (i *Invoice) Receive(by uuid.UUID, at time.Time) error {
	if err := i.transition(InvoiceStatusReceived, at); err != nil {
		return err
	}
	i.SIReceivedAt = &at
	i.ReceivedBy = &by
	return nil
}

// StartReview marks the invoice as under review
func (i *Invoice) StartReview(by uuid.UUID, at time.Time) error {
	if err := i.transition(InvoiceStatusInProgress, at); err != nil {
		return err
	}
	i.ReviewedBy = &by
	return nil
}

// Approve approves the invoice for payment
func (i *Invoice) Approve(by uuid.UUID, at time.Time) error {
	if err := i.transition(InvoiceStatusApproved, at); err != nil {
		return err
	}
	if i.ReviewedAt == nil {
		i.ReviewedAt = &at
	}
	if i.ReviewedBy == nil {
		i.ReviewedBy = &by
	}
	i.ApprovedAt = &at
	i.ApprovedBy = &by
	return nil
}

// Reject rejects the invoice with a reason
func (i *Invoice) Reject(reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("rejection_reason", "Rejection reason is required")
	}
	if err := i.transition(InvoiceStatusRejected, at); err != nil {
		return err
	}
	i.RejectedAt = &at
	i.RejectionReason = reason
	return nil
}

// Resubmit returns a rejected invoice to pending
func (i *Invoice) Resubmit(at time.Time) error {
	if err := i.transition(InvoiceStatusPending, at); err != nil {
		return err
	}
	i.RejectedAt = nil
	i.RejectionReason = ""
	i.SIReceivedAt = nil
	i.ReceivedBy = nil
	i.ReviewedAt = nil
	i.ReviewedBy = nil
	return nil
}

// MarkPendingDisbursement moves the invoice under a requisition or unreleased disbursement
func (i *Invoice) MarkPendingDisbursement(at time.Time) error {
	if err := i.cascade(InvoiceStatusPendingDisbursement, at); err != nil {
		return err
	}
	i.PaidAt = nil
	return nil
}

// MarkPaid records payment through a released disbursement
func (i *Invoice) MarkPaid(at time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return nil
	}
	if err := i.cascade(InvoiceStatusPaid, at); err != nil {
		return err
	}
	i.PaidAt = &at
	return nil
}

// RevertToApproved returns the invoice to approved once nothing references it
func (i *Invoice) RevertToApproved(at time.Time) error {
	if err := i.cascade(InvoiceStatusApproved, at); err != nil {
		return err
	}
	i.PaidAt = nil
	return nil
}

func (i *Invoice) transition(target InvoiceStatus, at time.Time) error {
	if !i.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move invoice from %s to %s", i.Status, target))
	}
	from := i.Status
	i.Status = target
	i.MarkModified(at)
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, from))
	return nil
}

func (i *Invoice) cascade(target InvoiceStatus, at time.Time) error {
	if !i.Status.CanCascadeTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move invoice %s from %s to %s", i.InvoiceNumber, i.Status, target))
	}
	if i.Status == target {
		return nil
	}
	from := i.Status
	i.Status = target
	i.MarkModified(at)
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, from))
	return nil
}

func (i *Invoice) apply(d InvoiceDetails) {
	i.InvoiceNumber = strings.TrimSpace(d.InvoiceNumber)
	i.PurchaseOrderID = d.PurchaseOrderID
	i.VendorID = d.VendorID
	i.ProjectID = d.ProjectID
	i.InvoiceDate = d.InvoiceDate
	i.DueDate = d.DueDate
	i.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if i.Currency == "" {
		i.Currency = shared.DefaultCurrency
	}
	i.GrossAmount = d.GrossAmount
	i.VATAmount = d.VATAmount
	i.NetAmount = d.NetAmount
	i.Description = strings.TrimSpace(d.Description)
}

func validateInvoiceDetails(d InvoiceDetails, verr *shared.ValidationError) {
	if strings.TrimSpace(d.InvoiceNumber) == "" {
		verr.Add("invoice_number", "Invoice number is required")
	}
	if d.VendorID == uuid.Nil {
		verr.Add("vendor_id", "Vendor is required")
	}
	if d.InvoiceDate.IsZero() {
		verr.Add("invoice_date", "Invoice date is required")
	}
	if d.DueDate != nil && !d.InvoiceDate.IsZero() && d.DueDate.Before(d.InvoiceDate) {
		verr.Add("due_date", "Due date must not be before the invoice date")
	}
	if !d.NetAmount.IsPositive() {
		verr.Add("net_amount", "Net amount must be positive")
	}
	if d.GrossAmount.IsNegative() {
		verr.Add("gross_amount", "Gross amount cannot be negative")
	}
	if d.VATAmount.IsNegative() {
		verr.Add("vat_amount", "VAT amount cannot be negative")
	} else if d.VATAmount.GreaterThan(d.GrossAmount) {
		verr.Add("vat_amount", "VAT amount cannot exceed the gross amount")
	}
}
