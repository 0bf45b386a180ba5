package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderStatusOpen      PurchaseOrderStatus = "open"
	PurchaseOrderStatusClosed    PurchaseOrderStatus = "closed"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

// IsValid checks if the status is known
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusOpen, PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to target
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusDraft:
		return target == PurchaseOrderStatusOpen || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusOpen:
		return target == PurchaseOrderStatusClosed || target == PurchaseOrderStatusCancelled
	}
	return false
}

// PurchaseOrder is a commitment to a vendor that invoices are billed against.
// TotalInvoiced and TotalPaid are derived from the linked invoices.
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	PONumber             string
	VendorID             uuid.UUID
	ProjectID            uuid.UUID
	Amount               decimal.Decimal
	Currency             string
	Status               PurchaseOrderStatus
	Description          string
	PaymentTerms         string
	ExpectedDeliveryDate *time.Time
	FinalizedAt          *time.Time
	FinalizedBy          *uuid.UUID
	ClosedAt             *time.Time
	CancelledAt          *time.Time
	CancelReason         string
	TotalInvoiced        decimal.Decimal
	TotalPaid            decimal.Decimal
}

// PurchaseOrderDetails holds the editable purchase order fields
type PurchaseOrderDetails struct {
	VendorID             uuid.UUID
	ProjectID            uuid.UUID
	Amount               decimal.Decimal
	Currency             string
	Description          string
	PaymentTerms         string
	ExpectedDeliveryDate *time.Time
}

// NewPurchaseOrder creates a draft purchase order
func NewPurchaseOrder(tenantID, createdBy uuid.UUID, poNumber string, details PurchaseOrderDetails) (*PurchaseOrder, error) {
	verr := &shared.ValidationError{}
	if strings.TrimSpace(poNumber) == "" {
		verr.Add("po_number", "PO number is required")
	}
	validatePurchaseOrderDetails(details, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	po := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		PONumber:            poNumber,
		Status:              PurchaseOrderStatusDraft,
		TotalInvoiced:       decimal.Zero,
		TotalPaid:           decimal.Zero,
	}
	po.apply(details)
	po.AddDomainEvent(NewPurchaseOrderCreatedEvent(po))
	return po, nil
}

// Update changes the order. Commercial terms are editable only in draft;
// description and terms stay editable while open.
func (o *PurchaseOrder) Update(details PurchaseOrderDetails) error {
	switch o.Status {
	case PurchaseOrderStatusDraft:
		verr := &shared.ValidationError{}
		validatePurchaseOrderDetails(details, verr)
		if err := verr.OrNil(); err != nil {
			return err
		}
		o.apply(details)
	case PurchaseOrderStatusOpen:
		if details.VendorID != o.VendorID || details.ProjectID != o.ProjectID ||
			!details.Amount.Equal(o.Amount) || (details.Currency != "" && details.Currency != o.Currency) {
			return shared.NewDomainError("INVALID_STATE", "Only description, payment terms and delivery date can change on an open purchase order")
		}
		o.Description = strings.TrimSpace(details.Description)
		o.PaymentTerms = strings.TrimSpace(details.PaymentTerms)
		o.ExpectedDeliveryDate = details.ExpectedDeliveryDate
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit purchase order in %s status", o.Status))
	}
	o.MarkModified(time.Now().UTC())
	return nil
}

// Finalize opens the order for invoicing
func (o *PurchaseOrder) Finalize(by uuid.UUID) error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusOpen) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finalize purchase order in %s status", o.Status))
	}
	if !o.Amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Purchase order amount must be positive")
	}

	now := time.Now().UTC()
	o.Status = PurchaseOrderStatusOpen
	o.FinalizedAt = &now
	o.FinalizedBy = &by
	o.MarkModified(now)
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, PurchaseOrderStatusDraft))
	return nil
}

// Close marks an open order as fulfilled
func (o *PurchaseOrder) Close() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusClosed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot close purchase order in %s status", o.Status))
	}

	now := time.Now().UTC()
	o.Status = PurchaseOrderStatusClosed
	o.ClosedAt = &now
	o.MarkModified(now)
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, PurchaseOrderStatusOpen))
	return nil
}

// Cancel cancels a draft order, or an open order that has not been invoiced
func (o *PurchaseOrder) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel purchase order in %s status", o.Status))
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("cancel_reason", "Cancel reason is required")
	}
	if o.Status == PurchaseOrderStatusOpen && !o.TotalInvoiced.IsZero() {
		return shared.NewDomainError("ALREADY_INVOICED", "Cannot cancel a purchase order that has invoices")
	}

	from := o.Status
	now := time.Now().UTC()
	o.Status = PurchaseOrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = strings.TrimSpace(reason)
	o.MarkModified(now)
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, from))
	return nil
}

// CanDelete reports whether the order may be removed
func (o *PurchaseOrder) CanDelete() bool {
	return o.Status == PurchaseOrderStatusDraft
}

// AcceptsInvoices reports whether new invoices can be billed against the order
func (o *PurchaseOrder) AcceptsInvoices() bool {
	return o.Status == PurchaseOrderStatusOpen
}

// RecalculateTotals recomputes the derived totals from every invoice linked to
// the order. Rejected invoices are not invoiced; paid invoices count as paid.
// It reports whether either total changed.
func (o *PurchaseOrder) RecalculateTotals(invoices []*Invoice) bool {
	invoiced := decimal.Zero
	paid := decimal.Zero
	for _, inv := range invoices {
		if inv.PurchaseOrderID == nil || *inv.PurchaseOrderID != o.ID {
			continue
		}
		if inv.Status == InvoiceStatusRejected {
			continue
		}
		invoiced = invoiced.Add(inv.NetAmount)
		if inv.Status == InvoiceStatusPaid {
			paid = paid.Add(inv.NetAmount)
		}
	}

	if invoiced.Equal(o.TotalInvoiced) && paid.Equal(o.TotalPaid) {
		return false
	}
	o.TotalInvoiced = invoiced
	o.TotalPaid = paid
	o.MarkModified(time.Now().UTC())
	return true
}

// RemainingAmount is the uninvoiced part of the commitment
func (o *PurchaseOrder) RemainingAmount() decimal.Decimal {
	return o.Amount.Sub(o.TotalInvoiced)
}

// InvoicedPercentage returns total invoiced as a percentage of the order amount
func (o *PurchaseOrder) InvoicedPercentage() decimal.Decimal {
	return shared.Percentage(o.TotalInvoiced, o.Amount)
}

func (o *PurchaseOrder) apply(d PurchaseOrderDetails) {
	o.VendorID = d.VendorID
	o.ProjectID = d.ProjectID
	o.Amount = d.Amount
	o.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if o.Currency == "" {
		o.Currency = shared.DefaultCurrency
	}
	o.Description = strings.TrimSpace(d.Description)
	o.PaymentTerms = strings.TrimSpace(d.PaymentTerms)
	o.ExpectedDeliveryDate = d.ExpectedDeliveryDate
}

func validatePurchaseOrderDetails(d PurchaseOrderDetails, verr *shared.ValidationError) {
	if d.VendorID == uuid.Nil {
		verr.Add("vendor_id", "Vendor is required")
	}
	if d.ProjectID == uuid.Nil {
		verr.Add("project_id", "Project is required")
	}
	if !d.Amount.IsPositive() {
		verr.Add("amount", "Amount must be positive")
	}
	if c := strings.TrimSpace(d.Currency); c != "" && len(c) != 3 {
		verr.Add("currency", "Currency must be a 3-letter code")
	}
}
