package procurement

import (
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypePurchaseOrder    = "PurchaseOrder"
	AggregateTypeInvoice          = "Invoice"
	AggregateTypeCheckRequisition = "CheckRequisition"
	AggregateTypeDisbursement     = "Disbursement"
)

// Event type constants
const (
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderStatusChanged = "PurchaseOrderStatusChanged"
	EventTypeInvoiceStatusChanged       = "InvoiceStatusChanged"
	EventTypeRequisitionStatusChanged   = "CheckRequisitionStatusChanged"
	EventTypeDisbursementCreated        = "DisbursementCreated"
	EventTypeDisbursementUpdated        = "DisbursementUpdated"
	EventTypeDisbursementDeleted        = "DisbursementDeleted"
)

// FinancialEventTypes are the events that change dashboard figures
func FinancialEventTypes() []string {
	return []string{
		EventTypePurchaseOrderCreated,
		EventTypePurchaseOrderStatusChanged,
		EventTypeInvoiceStatusChanged,
		EventTypeRequisitionStatusChanged,
		EventTypeDisbursementCreated,
		EventTypeDisbursementUpdated,
		EventTypeDisbursementDeleted,
	}
}

// PurchaseOrderCreatedEvent is raised when a purchase order is drafted
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	PONumber string          `json:"po_number"`
	VendorID uuid.UUID       `json:"vendor_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(po *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, po.ID, po.TenantID),
		PONumber:        po.PONumber,
		VendorID:        po.VendorID,
		Amount:          po.Amount,
	}
}

// PurchaseOrderStatusChangedEvent is raised on finalize, close and cancel
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	PONumber string              `json:"po_number"`
	From     PurchaseOrderStatus `json:"from"`
	To       PurchaseOrderStatus `json:"to"`
}

// NewPurchaseOrderStatusChangedEvent creates a new PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(po *PurchaseOrder, from PurchaseOrderStatus) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderStatusChanged, AggregateTypePurchaseOrder, po.ID, po.TenantID),
		PONumber:        po.PONumber,
		From:            from,
		To:              po.Status,
	}
}

// InvoiceStatusChangedEvent is raised on every invoice status change, including creation
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string        `json:"invoice_number"`
	From          InvoiceStatus `json:"from,omitempty"`
	To            InvoiceStatus `json:"to"`
}

// NewInvoiceStatusChangedEvent creates a new InvoiceStatusChangedEvent
func NewInvoiceStatusChangedEvent(inv *Invoice, from InvoiceStatus) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceStatusChanged, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		From:            from,
		To:              inv.Status,
	}
}

// RequisitionStatusChangedEvent is raised on every requisition status change, including creation
type RequisitionStatusChangedEvent struct {
	shared.BaseDomainEvent
	RequisitionNumber string            `json:"requisition_number"`
	From              RequisitionStatus `json:"from,omitempty"`
	To                RequisitionStatus `json:"to"`
}

// NewRequisitionStatusChangedEvent creates a new RequisitionStatusChangedEvent
func NewRequisitionStatusChangedEvent(cr *CheckRequisition, from RequisitionStatus) *RequisitionStatusChangedEvent {
	return &RequisitionStatusChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRequisitionStatusChanged, AggregateTypeCheckRequisition, cr.ID, cr.TenantID),
		RequisitionNumber: cr.RequisitionNumber,
		From:              from,
		To:                cr.Status,
	}
}

// DisbursementChangedEvent is raised on disbursement create, update and delete
type DisbursementChangedEvent struct {
	shared.BaseDomainEvent
	VoucherNumber string            `json:"voucher_number"`
	Stage         DisbursementStage `json:"stage"`
	Amount        decimal.Decimal   `json:"amount"`
}

// NewDisbursementChangedEvent creates a new DisbursementChangedEvent of the given type
func NewDisbursementChangedEvent(d *Disbursement, eventType string) *DisbursementChangedEvent {
	return &DisbursementChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeDisbursement, d.ID, d.TenantID),
		VoucherNumber:   d.VoucherNumber,
		Stage:           d.Stage(),
		Amount:          d.Amount,
	}
}
