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

// PurchaseOrderService manages purchase orders
type PurchaseOrderService struct {
	repos          Repositories
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(repos Repositories, scope TransactionScope, logger *zap.Logger) *PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderService{
		repos:  repos,
		scope:  scope,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a draft purchase order with a generated PO number
func (s *PurchaseOrderService) Create(ctx context.Context, p identity.Principal, req PurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if err := p.Authorize(identity.ModulePurchaseOrders, identity.AccessWrite); err != nil {
		return nil, err
	}
	if err := s.validateParties(ctx, p.TenantID, req.VendorID, req.ProjectID); err != nil {
		return nil, err
	}
	details := purchaseOrderDetails(req)

	var (
		po     *procurement.PurchaseOrder
		events eventCollector
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		number, err := repos.PurchaseOrderRepo().NextNumber(ctx, p.TenantID, s.now())
		if err != nil {
			return err
		}
		po, err = procurement.NewPurchaseOrder(p.TenantID, p.UserID, number, details)
		if err != nil {
			return err
		}
		if err := repos.PurchaseOrderRepo().Create(ctx, po); err != nil {
			return err
		}

		events.collect(po)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectPurchaseOrder, po.ID, audit.ActionCreated, purchaseOrderChanges(nil, po), "")
	})
	if err != nil {
		return nil, transactionFailure(s.logger, "failed to create purchase order", err)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// Update edits a draft order, or the description and terms of an open one
func (s *PurchaseOrderService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req PurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if err := p.Authorize(identity.ModulePurchaseOrders, identity.AccessWrite); err != nil {
		return nil, err
	}
	if err := s.validateParties(ctx, p.TenantID, req.VendorID, req.ProjectID); err != nil {
		return nil, err
	}
	details := purchaseOrderDetails(req)

	var po *procurement.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.PurchaseOrderRepo().FindByIDsForUpdate(ctx, p.TenantID, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return shared.ErrNotFound
		}
		po = found[0]
		if req.Version != nil && *req.Version != po.Version {
			return shared.ErrConcurrencyConflict
		}

		before := *po
		if err := po.Update(details); err != nil {
			return err
		}
		if err := repos.PurchaseOrderRepo().SaveWithLock(ctx, po); err != nil {
			return err
		}
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectPurchaseOrder, po.ID, audit.ActionUpdated, purchaseOrderChanges(&before, po), "")
	})
	if err != nil {
		return nil, transactionFailure(s.logger, "failed to update purchase order", err)
	}

	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// Finalize opens a draft order for invoicing
func (s *PurchaseOrderService) Finalize(ctx context.Context, p identity.Principal, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, p, id, audit.ActionFinalized, "", func(po *procurement.PurchaseOrder) error {
		return po.Finalize(p.UserID)
	})
}

// Close marks an open order as fulfilled
func (s *PurchaseOrderService) Close(ctx context.Context, p identity.Principal, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, p, id, audit.ActionClosed, "", func(po *procurement.PurchaseOrder) error {
		return po.Close()
	})
}

// Cancel cancels a draft order or an open order without invoices
func (s *PurchaseOrderService) Cancel(ctx context.Context, p identity.Principal, id uuid.UUID, req CancelRequest) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, p, id, audit.ActionCancelled, req.Reason, func(po *procurement.PurchaseOrder) error {
		return po.Cancel(req.Reason)
	})
}

// Delete removes a draft order
func (s *PurchaseOrderService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	if err := p.Authorize(identity.ModulePurchaseOrders, identity.AccessWrite); err != nil {
		return err
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		po, err := repos.PurchaseOrderRepo().FindByID(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if !po.CanDelete() {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot delete purchase order in %s status", po.Status))
		}
		if err := repos.PurchaseOrderRepo().Delete(ctx, p.TenantID, po.ID); err != nil {
			return err
		}
		changes := audit.Changes{}.
			Set("po_number", po.PONumber, nil).
			Set("amount", po.Amount.StringFixed(2), nil)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectPurchaseOrder, po.ID, audit.ActionDeleted, changes, "")
	})
	if err != nil {
		return transactionFailure(s.logger, "failed to delete purchase order", err)
	}
	return nil
}

// GetByID retrieves a purchase order
func (s *PurchaseOrderService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*PurchaseOrderResponse, error) {
	if err := p.Authorize(identity.ModulePurchaseOrders, identity.AccessRead); err != nil {
		return nil, err
	}
	po, err := s.repos.PurchaseOrders.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// List retrieves purchase orders with filtering and pagination
func (s *PurchaseOrderService) List(ctx context.Context, p identity.Principal, filter PurchaseOrderListFilter) ([]PurchaseOrderResponse, int64, error) {
	if err := p.Authorize(identity.ModulePurchaseOrders, identity.AccessRead); err != nil {
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
	items, total, err := s.repos.PurchaseOrders.FindAll(ctx, p.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PurchaseOrderResponse, len(items))
	for i, po := range items {
		out[i] = ToPurchaseOrderResponse(po)
	}
	return out, total, nil
}

func (s *PurchaseOrderService) transition(
	ctx context.Context,
	p identity.Principal,
	id uuid.UUID,
	action string,
	notes string,
	apply func(po *procurement.PurchaseOrder) error,
) (*PurchaseOrderResponse, error) {
	if err := p.Authorize(identity.ModulePurchaseOrders, identity.AccessWrite); err != nil {
		return nil, err
	}

	var (
		po     *procurement.PurchaseOrder
		events eventCollector
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		found, err := repos.PurchaseOrderRepo().FindByIDsForUpdate(ctx, p.TenantID, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return shared.ErrNotFound
		}
		po = found[0]

		from := po.Status
		if err := apply(po); err != nil {
			return err
		}
		if err := repos.PurchaseOrderRepo().SaveWithLock(ctx, po); err != nil {
			return err
		}

		events.collect(po)
		changes := audit.Changes{}.Set("status", string(from), string(po.Status))
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectPurchaseOrder, po.ID, action, changes, notes)
	})
	if err != nil {
		return nil, transactionFailure(s.logger, "failed to change purchase order status", err)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// validateParties checks that the vendor is active and the project exists
func (s *PurchaseOrderService) validateParties(ctx context.Context, tenantID, vendorID, projectID uuid.UUID) error {
	verr := &shared.ValidationError{}

	vendor, err := s.repos.Vendors.FindByID(ctx, tenantID, vendorID)
	switch {
	case isNotFound(err):
		verr.Add("vendor_id", "Vendor does not exist")
	case err != nil:
		return err
	case !vendor.IsActive:
		verr.Add("vendor_id", "Vendor is inactive")
	}

	if _, err := s.repos.Projects.FindByID(ctx, tenantID, projectID); err != nil {
		if !isNotFound(err) {
			return err
		}
		verr.Add("project_id", "Project does not exist")
	}
	return verr.OrNil()
}

func purchaseOrderDetails(req PurchaseOrderRequest) procurement.PurchaseOrderDetails {
	return procurement.PurchaseOrderDetails{
		VendorID:             req.VendorID,
		ProjectID:            req.ProjectID,
		Amount:               req.Amount,
		Currency:             req.Currency,
		Description:          req.Description,
		PaymentTerms:         req.PaymentTerms,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
	}
}

func purchaseOrderChanges(before, after *procurement.PurchaseOrder) audit.Changes {
	if before == nil {
		return audit.Changes{}.
			Set("po_number", nil, after.PONumber).
			Set("vendor_id", nil, after.VendorID.String()).
			Set("project_id", nil, after.ProjectID.String()).
			Set("amount", nil, after.Amount.StringFixed(2))
	}
	return audit.Changes{}.
		Set("vendor_id", before.VendorID.String(), after.VendorID.String()).
		Set("project_id", before.ProjectID.String(), after.ProjectID.String()).
		Set("amount", before.Amount.StringFixed(2), after.Amount.StringFixed(2)).
		Set("currency", before.Currency, after.Currency).
		Set("description", before.Description, after.Description).
		Set("payment_terms", before.PaymentTerms, after.PaymentTerms).
		Set("expected_delivery_date", formatDate(before.ExpectedDeliveryDate), formatDate(after.ExpectedDeliveryDate))
}
