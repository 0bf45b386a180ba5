package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	auditapp "github.com/procurement/backend/internal/application/audit"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InvoiceService manages vendor invoices through review and approval and keeps
// the totals of their purchase orders current
type InvoiceService struct {
	repos          Repositories
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(repos Repositories, scope TransactionScope, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		repos:  repos,
		scope:  scope,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create records a pending invoice
func (s *InvoiceService) Create(ctx context.Context, p identity.Principal, req InvoiceRequest) (*InvoiceResponse, error) {
	if err := p.Authorize(identity.ModuleInvoices, identity.AccessWrite); err != nil {
		return nil, err
	}
	details, err := s.resolveDetails(ctx, p.TenantID, req, nil)
	if err != nil {
		return nil, err
	}
	inv, err := procurement.NewInvoice(p.TenantID, p.UserID, details)
	if err != nil {
		return nil, err
	}

	var events eventCollector
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return err
		}
		orders, err := recalculatePurchaseOrders(ctx, repos, p.TenantID, purchaseOrderIDs(inv))
		if err != nil {
			return err
		}

		events.collect(inv)
		for _, po := range orders {
			events.collect(po)
		}
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectInvoice, inv.ID, audit.ActionCreated, invoiceChanges(nil, inv), "")
	})
	if err != nil {
		return nil, transactionFailure(s.logger, "failed to create invoice", err)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Update edits an invoice that is not yet held by the payment cascade. Moving
// it between purchase orders recomputes both.
func (s *InvoiceService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req InvoiceRequest) (*InvoiceResponse, error) {
	if err := p.Authorize(identity.ModuleInvoices, identity.AccessWrite); err != nil {
		return nil, err
	}
	existing, err := s.repos.Invoices.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	details, err := s.resolveDetails(ctx, p.TenantID, req, existing)
	if err != nil {
		return nil, err
	}

	var (
		inv    *procurement.Invoice
		events eventCollector
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		found, err := repos.InvoiceRepo().FindByIDsForUpdate(ctx, p.TenantID, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return shared.ErrNotFound
		}
		inv = found[0]
		if req.Version != nil && *req.Version != inv.Version {
			return shared.ErrConcurrencyConflict
		}

		before := *inv
		if err := inv.Update(details); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return err
		}
		orders, err := recalculatePurchaseOrders(ctx, repos, p.TenantID, purchaseOrderIDs(&before, inv))
		if err != nil {
			return err
		}

		events.collect(inv)
		for _, po := range orders {
			events.collect(po)
		}
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectInvoice, inv.ID, audit.ActionUpdated, invoiceChanges(&before, inv), "")
	})
	if err != nil {
		return nil, transactionFailure(s.logger, "failed to update invoice", err)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Delete removes an invoice that has not been approved
func (s *InvoiceService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	if err := p.Authorize(identity.ModuleInvoices, identity.AccessWrite); err != nil {
		return err
	}

	var events eventCollector
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		inv, err := repos.InvoiceRepo().FindByID(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if !inv.CanDelete() {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot delete invoice in %s status", inv.Status))
		}
		if err := repos.InvoiceRepo().Delete(ctx, p.TenantID, inv.ID); err != nil {
			return err
		}
		orders, err := recalculatePurchaseOrders(ctx, repos, p.TenantID, purchaseOrderIDs(inv))
		if err != nil {
			return err
		}
		for _, po := range orders {
			events.collect(po)
		}

		changes := audit.Changes{}.
			Set("invoice_number", inv.InvoiceNumber, nil).
			Set("net_amount", inv.NetAmount.StringFixed(2), nil)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectInvoice, inv.ID, audit.ActionDeleted, changes, "")
	})
	if err != nil {
		return transactionFailure(s.logger, "failed to delete invoice", err)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	return nil
}

// Receive records physical receipt of the sales invoice
func (s *InvoiceService) Receive(ctx context.Context, p identity.Principal, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, p, id, audit.ActionReceived, "", func(inv *procurement.Invoice, at time.Time) error {
		return inv.Receive(p.UserID, at)
	})
}

// StartReview marks a received invoice as under review
func (s *InvoiceService) StartReview(ctx context.Context, p identity.Principal, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, p, id, audit.ActionReviewed, "", func(inv *procurement.Invoice, at time.Time) error {
		return inv.StartReview(p.UserID, at)
	})
}

// Approve approves an invoice for payment
func (s *InvoiceService) Approve(ctx context.Context, p identity.Principal, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, p, id, audit.ActionApproved, "", func(inv *procurement.Invoice, at time.Time) error {
		return inv.Approve(p.UserID, at)
	})
}

// Reject rejects an invoice under review
func (s *InvoiceService) Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req RejectRequest) (*InvoiceResponse, error) {
	return s.transition(ctx, p, id, audit.ActionRejected, req.Reason, func(inv *procurement.Invoice, at time.Time) error {
		return inv.Reject(req.Reason, at)
	})
}

// Resubmit returns a rejected invoice to pending
func (s *InvoiceService) Resubmit(ctx context.Context, p identity.Principal, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, p, id, audit.ActionResubmitted, "", func(inv *procurement.Invoice, at time.Time) error {
		return inv.Resubmit(at)
	})
}

// GetByID retrieves an invoice
func (s *InvoiceService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*InvoiceResponse, error) {
	if err := p.Authorize(identity.ModuleInvoices, identity.AccessRead); err != nil {
		return nil, err
	}
	inv, err := s.repos.Invoices.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, p identity.Principal, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	if err := p.Authorize(identity.ModuleInvoices, identity.AccessRead); err != nil {
		return nil, 0, err
	}
	domainFilter := toDomainFilter(filter.ListFilter)
	if filter.Status != "" {
		domainFilter = domainFilter.With("status", filter.Status)
	}
	if filter.VendorID != nil {
		domainFilter = domainFilter.With("vendor_id", *filter.VendorID)
	}
	if filter.ProjectID != nil {
		domainFilter = domainFilter.With("project_id", *filter.ProjectID)
	}
	if filter.PurchaseOrderID != nil {
		domainFilter = domainFilter.With("purchase_order_id", *filter.PurchaseOrderID)
	}
	items, total, err := s.repos.Invoices.FindAll(ctx, p.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]InvoiceResponse, len(items))
	for i, inv := range items {
		out[i] = ToInvoiceResponse(inv)
	}
	return out, total, nil
}

// transition runs one user-driven status change with its activity log
func (s *InvoiceService) transition(
	ctx context.Context,
	p identity.Principal,
	id uuid.UUID,
	action string,
	notes string,
	apply func(inv *procurement.Invoice, at time.Time) error,
) (*InvoiceResponse, error) {
	if err := p.Authorize(identity.ModuleInvoices, identity.AccessWrite); err != nil {
		return nil, err
	}

	var (
		inv    *procurement.Invoice
		events eventCollector
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		found, err := repos.InvoiceRepo().FindByIDsForUpdate(ctx, p.TenantID, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return shared.ErrNotFound
		}
		inv = found[0]

		from := inv.Status
		if err := apply(inv, s.now()); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return err
		}
		orders, err := recalculatePurchaseOrders(ctx, repos, p.TenantID, purchaseOrderIDs(inv))
		if err != nil {
			return err
		}

		events.collect(inv)
		for _, po := range orders {
			events.collect(po)
		}
		changes := audit.Changes{}.Set("status", string(from), string(inv.Status))
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectInvoice, inv.ID, action, changes, notes)
	})
	if err != nil {
		return nil, transactionFailure(s.logger, "failed to change invoice status", err)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// resolveDetails validates the references of an invoice request: the vendor
// must exist, the invoice number must be unique for the vendor and a linked
// purchase order must be open and billed by the same vendor. A missing
// project is taken from the purchase order. existing is nil on create.
func (s *InvoiceService) resolveDetails(ctx context.Context, tenantID uuid.UUID, req InvoiceRequest, existing *procurement.Invoice) (procurement.InvoiceDetails, error) {
	details := procurement.InvoiceDetails{
		InvoiceNumber:   req.InvoiceNumber,
		PurchaseOrderID: req.PurchaseOrderID,
		VendorID:        req.VendorID,
		ProjectID:       req.ProjectID,
		InvoiceDate:     req.InvoiceDate,
		DueDate:         req.DueDate,
		Currency:        req.Currency,
		GrossAmount:     req.GrossAmount,
		VATAmount:       req.VATAmount,
		NetAmount:       req.NetAmount,
		Description:     req.Description,
	}
	verr := &shared.ValidationError{}
	var excludeID *uuid.UUID
	keepsOrder := false
	if existing != nil {
		excludeID = &existing.ID
		keepsOrder = existing.PurchaseOrderID != nil && req.PurchaseOrderID != nil && *existing.PurchaseOrderID == *req.PurchaseOrderID
	}

	if _, err := s.repos.Vendors.FindByID(ctx, tenantID, req.VendorID); err != nil {
		if !isNotFound(err) {
			return details, err
		}
		verr.Add("vendor_id", "Vendor does not exist")
	}

	taken, err := s.repos.Invoices.ExistsByNumber(ctx, tenantID, req.VendorID, req.InvoiceNumber, excludeID)
	if err != nil {
		return details, err
	}
	if taken {
		verr.Add("invoice_number", "Invoice number already exists for this vendor")
	}

	if req.PurchaseOrderID != nil {
		po, err := s.repos.PurchaseOrders.FindByID(ctx, tenantID, *req.PurchaseOrderID)
		switch {
		case isNotFound(err):
			verr.Add("purchase_order_id", "Purchase order does not exist")
		case err != nil:
			return details, err
		case !keepsOrder && !po.AcceptsInvoices():
			verr.Add("purchase_order_id", fmt.Sprintf("Purchase order %s is %s and does not accept invoices", po.PONumber, po.Status))
		case po.VendorID != req.VendorID:
			verr.Add("vendor_id", "Vendor does not match the purchase order")
		default:
			if details.ProjectID == nil {
				details.ProjectID = &po.ProjectID
			}
		}
	}
	return details, verr.OrNil()
}

// invoiceChanges builds the audit change-set between two versions of an
// invoice; before is nil on create
func invoiceChanges(before, after *procurement.Invoice) audit.Changes {
	if before == nil {
		return audit.Changes{}.
			Set("invoice_number", nil, after.InvoiceNumber).
			Set("vendor_id", nil, after.VendorID.String()).
			Set("purchase_order_id", nil, optionalID(after.PurchaseOrderID)).
			Set("net_amount", nil, after.NetAmount.StringFixed(2))
	}
	return audit.Changes{}.
		Set("invoice_number", before.InvoiceNumber, after.InvoiceNumber).
		Set("vendor_id", before.VendorID.String(), after.VendorID.String()).
		Set("purchase_order_id", optionalID(before.PurchaseOrderID), optionalID(after.PurchaseOrderID)).
		Set("project_id", optionalID(before.ProjectID), optionalID(after.ProjectID)).
		Set("invoice_date", formatDate(&before.InvoiceDate), formatDate(&after.InvoiceDate)).
		Set("due_date", formatDate(before.DueDate), formatDate(after.DueDate)).
		Set("gross_amount", before.GrossAmount.StringFixed(2), after.GrossAmount.StringFixed(2)).
		Set("vat_amount", before.VATAmount.StringFixed(2), after.VATAmount.StringFixed(2)).
		Set("net_amount", before.NetAmount.StringFixed(2), after.NetAmount.StringFixed(2)).
		Set("description", before.Description, after.Description)
}
