package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	auditapp "github.com/procurement/backend/internal/application/audit"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CheckRequisitionService manages check requisitions and the status of the
// invoices they hold
type CheckRequisitionService struct {
	repos           Repositories
	scope           TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
	now             func() time.Time
}

// NewCheckRequisitionService creates a new CheckRequisitionService
func NewCheckRequisitionService(repos Repositories, scope TransactionScope, logger *zap.Logger) *CheckRequisitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckRequisitionService{
		repos:  repos,
		scope:  scope,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CheckRequisitionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *CheckRequisitionService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create records a requisition awaiting approval. Its approved invoices move
// to pending disbursement.
func (s *CheckRequisitionService) Create(ctx context.Context, p identity.Principal, req CheckRequisitionRequest) (*CheckRequisitionResponse, error) {
	if err := p.Authorize(identity.ModuleCheckRequisitions, identity.AccessWrite); err != nil {
		return nil, err
	}
	details := requisitionDetails(req)
	if err := procurement.ValidateRequisitionDetails(details); err != nil {
		return nil, err
	}
	if err := s.validateInvoices(ctx, p.TenantID, details.InvoiceIDs, nil); err != nil {
		return nil, err
	}

	var (
		cr     *procurement.CheckRequisition
		events eventCollector
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		number, err := repos.RequisitionRepo().NextNumber(ctx, p.TenantID, s.now())
		if err != nil {
			return err
		}
		cr, err = procurement.NewCheckRequisition(p.TenantID, p.UserID, number, details)
		if err != nil {
			return err
		}
		if err := repos.RequisitionRepo().Create(ctx, cr); err != nil {
			return err
		}
		invoices, err := s.holdInvoices(ctx, repos, p.TenantID, cr.InvoiceIDs)
		if err != nil {
			return err
		}

		events.collect(cr)
		for _, inv := range invoices {
			events.collect(inv)
		}
		changes := audit.Changes{}.
			Set("requisition_number", nil, cr.RequisitionNumber).
			Set("php_amount", nil, cr.PHPAmount.StringFixed(2)).
			Set("invoice_ids", nil, sortedStrings(cr.InvoiceIDs))
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectCheckRequisition, cr.ID, audit.ActionCreated, changes, "")
	})
	if err != nil {
		return nil, transactionFailure(s.logger, "failed to create check requisition", err)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	resp := ToCheckRequisitionResponse(cr)
	return &resp, nil
}

// Update edits a requisition awaiting approval. Newly linked invoices are held,
// unlinked ones revert to approved unless another requisition still holds them.
func (s *CheckRequisitionService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req CheckRequisitionRequest) (*CheckRequisitionResponse, error) {
	if err := p.Authorize(identity.ModuleCheckRequisitions, identity.AccessWrite); err != nil {
		return nil, err
	}
	details := requisitionDetails(req)
	if err := s.validateInvoices(ctx, p.TenantID, details.InvoiceIDs, &id); err != nil {
		return nil, err
	}

	var (
		cr     *procurement.CheckRequisition
		events eventCollector
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		var err error
		cr, err = repos.RequisitionRepo().FindByIDForUpdate(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if req.Version != nil && *req.Version != cr.Version {
			return shared.ErrConcurrencyConflict
		}

		before := *cr
		removed, added, err := cr.Update(details)
		if err != nil {
			return err
		}
		if err := repos.RequisitionRepo().SaveWithLock(ctx, cr); err != nil {
			return err
		}

		held, err := s.holdInvoices(ctx, repos, p.TenantID, added)
		if err != nil {
			return err
		}
		released, err := s.releaseInvoices(ctx, repos, p.TenantID, removed, cr.ID)
		if err != nil {
			return err
		}

		events.collect(cr)
		for _, inv := range append(held, released...) {
			events.collect(inv)
		}
		changes := audit.Changes{}.
			Set("payee_name", before.PayeeName, cr.PayeeName).
			Set("php_amount", before.PHPAmount.StringFixed(2), cr.PHPAmount.StringFixed(2)).
			Set("purpose", before.Purpose, cr.Purpose).
			Set("requested_by_name", before.RequestedByName, cr.RequestedByName).
			Set("request_date", formatDate(&before.RequestDate), formatDate(&cr.RequestDate)).
			Set("invoice_ids", sortedStrings(before.InvoiceIDs), sortedStrings(cr.InvoiceIDs))
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectCheckRequisition, cr.ID, audit.ActionUpdated, changes, "")
	})
	if err != nil {
		return nil, transactionFailure(s.logger, "failed to update check requisition", err)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	resp := ToCheckRequisitionResponse(cr)
	return &resp, nil
}

// Approve approves a requisition when every critical approval check passes
func (s *CheckRequisitionService) Approve(ctx context.Context, p identity.Principal, id uuid.UUID) (*CheckRequisitionResponse, error) {
	if err := p.Authorize(identity.ModuleCheckRequisitions, identity.AccessWrite); err != nil {
		return nil, err
	}

	var (
		cr     *procurement.CheckRequisition
		events eventCollector
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		var err error
		cr, err = repos.RequisitionRepo().FindByIDForUpdate(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		invoices, err := repos.InvoiceRepo().FindByIDs(ctx, p.TenantID, cr.InvoiceIDs)
		if err != nil {
			return err
		}

		checks := procurement.ValidateForApproval(cr, invoices)
		if err := cr.Approve(checks, p.UserID, s.now()); err != nil {
			return err
		}
		if err := repos.RequisitionRepo().SaveWithLock(ctx, cr); err != nil {
			return err
		}

		events.collect(cr)
		changes := audit.Changes{}.Set("status", string(procurement.RequisitionStatusPendingApproval), string(cr.Status))
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectCheckRequisition, cr.ID, audit.ActionApproved, changes, "")
	})
	if err != nil {
		s.recordDecision(ctx, p, "blocked", err)
		return nil, transactionFailure(s.logger, "failed to approve check requisition", err)
	}

	s.recordDecision(ctx, p, "approved", nil)
	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	resp := ToCheckRequisitionResponse(cr)
	return &resp, nil
}

// Reject rejects a requisition awaiting approval and releases its invoices
func (s *CheckRequisitionService) Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req RejectRequest) (*CheckRequisitionResponse, error) {
	if err := p.Authorize(identity.ModuleCheckRequisitions, identity.AccessWrite); err != nil {
		return nil, err
	}

	var (
		cr     *procurement.CheckRequisition
		events eventCollector
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		var err error
		cr, err = repos.RequisitionRepo().FindByIDForUpdate(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if err := cr.Reject(req.Reason, p.UserID, s.now()); err != nil {
			return err
		}
		if err := repos.RequisitionRepo().SaveWithLock(ctx, cr); err != nil {
			return err
		}
		released, err := s.releaseInvoices(ctx, repos, p.TenantID, cr.InvoiceIDs, cr.ID)
		if err != nil {
			return err
		}

		events.collect(cr)
		for _, inv := range released {
			events.collect(inv)
		}
		changes := audit.Changes{}.Set("status", string(procurement.RequisitionStatusPendingApproval), string(cr.Status))
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectCheckRequisition, cr.ID, audit.ActionRejected, changes, cr.RejectionReason)
	})
	if err != nil {
		return nil, transactionFailure(s.logger, "failed to reject check requisition", err)
	}

	s.recordDecision(ctx, p, "rejected", nil)
	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	resp := ToCheckRequisitionResponse(cr)
	return &resp, nil
}

// Delete removes a requisition awaiting approval or rejected. A pending
// requisition releases its invoices first.
func (s *CheckRequisitionService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	if err := p.Authorize(identity.ModuleCheckRequisitions, identity.AccessWrite); err != nil {
		return err
	}

	var events eventCollector
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		cr, err := repos.RequisitionRepo().FindByIDForUpdate(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if !cr.CanDelete() {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot delete requisition in %s status", cr.Status))
		}
		if err := repos.RequisitionRepo().Delete(ctx, p.TenantID, cr.ID); err != nil {
			return err
		}
		if cr.Status == procurement.RequisitionStatusPendingApproval {
			released, err := s.releaseInvoices(ctx, repos, p.TenantID, cr.InvoiceIDs, cr.ID)
			if err != nil {
				return err
			}
			for _, inv := range released {
				events.collect(inv)
			}
		}

		changes := audit.Changes{}.
			Set("requisition_number", cr.RequisitionNumber, nil).
			Set("php_amount", cr.PHPAmount.StringFixed(2), nil).
			Set("invoice_ids", sortedStrings(cr.InvoiceIDs), nil)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectCheckRequisition, cr.ID, audit.ActionDeleted, changes, "")
	})
	if err != nil {
		return transactionFailure(s.logger, "failed to delete check requisition", err)
	}

	publishEvents(ctx, s.eventPublisher, s.logger, events.events)
	return nil
}

// ApprovalChecks reports the pre-approval checks without changing anything
func (s *CheckRequisitionService) ApprovalChecks(ctx context.Context, p identity.Principal, id uuid.UUID) (*ApprovalChecksResponse, error) {
	if err := p.Authorize(identity.ModuleCheckRequisitions, identity.AccessRead); err != nil {
		return nil, err
	}
	cr, err := s.repos.Requisitions.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repos.Invoices.FindByIDs(ctx, p.TenantID, cr.InvoiceIDs)
	if err != nil {
		return nil, err
	}
	checks := procurement.ValidateForApproval(cr, invoices)
	return &ApprovalChecksResponse{
		RequisitionID: cr.ID,
		CanApprove:    checks.CanApprove(),
		Checks:        checks,
	}, nil
}

// GetByID retrieves a check requisition
func (s *CheckRequisitionService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*CheckRequisitionResponse, error) {
	if err := p.Authorize(identity.ModuleCheckRequisitions, identity.AccessRead); err != nil {
		return nil, err
	}
	cr, err := s.repos.Requisitions.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCheckRequisitionResponse(cr)
	return &resp, nil
}

// List retrieves check requisitions with filtering and pagination
func (s *CheckRequisitionService) List(ctx context.Context, p identity.Principal, filter CheckRequisitionListFilter) ([]CheckRequisitionResponse, int64, error) {
	if err := p.Authorize(identity.ModuleCheckRequisitions, identity.AccessRead); err != nil {
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
	items, total, err := s.repos.Requisitions.FindAll(ctx, p.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]CheckRequisitionResponse, len(items))
	for i, cr := range items {
		out[i] = ToCheckRequisitionResponse(cr)
	}
	return out, total, nil
}

// validateInvoices checks that every invoice exists and is approved or
// already pending disbursement, and that an edited requisition is still
// awaiting approval
func (s *CheckRequisitionService) validateInvoices(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, requisitionID *uuid.UUID) error {
	ids = uniqueIDs(ids)
	invoices, err := s.repos.Invoices.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]*procurement.Invoice, len(invoices))
	for _, inv := range invoices {
		found[inv.ID] = inv
	}

	verr := &shared.ValidationError{}
	for _, id := range ids {
		inv, ok := found[id]
		if !ok {
			verr.Add("invoice_ids", fmt.Sprintf("Invoice %s does not exist", id))
			continue
		}
		switch inv.Status {
		case procurement.InvoiceStatusApproved, procurement.InvoiceStatusPendingDisbursement:
		default:
			verr.Add("invoice_ids", fmt.Sprintf("Invoice %s is %s, only approved invoices can be requisitioned", inv.InvoiceNumber, inv.Status))
		}
	}
	if requisitionID == nil {
		return verr.OrNil()
	}

	current, err := s.repos.Requisitions.FindByID(ctx, tenantID, *requisitionID)
	if err != nil {
		return err
	}
	if current.Status != procurement.RequisitionStatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit requisition in %s status", current.Status))
	}
	return verr.OrNil()
}

// holdInvoices moves approved invoices under the requisition to pending
// disbursement; invoices already pending stay as they are
func (s *CheckRequisitionService) holdInvoices(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	invoices, err := repos.InvoiceRepo().FindByIDsForUpdate(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	if len(invoices) != len(uniqueIDs(ids)) {
		return nil, shared.NewValidationError("invoice_ids", "One or more invoices no longer exist")
	}

	at := s.now()
	held := make([]*procurement.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		switch inv.Status {
		case procurement.InvoiceStatusPendingDisbursement:
			continue
		case procurement.InvoiceStatusApproved:
		default:
			return nil, shared.NewValidationError("invoice_ids", fmt.Sprintf("Invoice %s is %s, only approved invoices can be requisitioned", inv.InvoiceNumber, inv.Status))
		}
		if err := inv.MarkPendingDisbursement(at); err != nil {
			return nil, err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return nil, err
		}
		held = append(held, inv)
	}
	return held, nil
}

// releaseInvoices reverts the given invoices to approved when no other active
// requisition holds them
func (s *CheckRequisitionService) releaseInvoices(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, ids []uuid.UUID, requisitionID uuid.UUID) ([]*procurement.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	invoices, err := repos.InvoiceRepo().FindByIDsForUpdate(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	return revertUnheldInvoices(ctx, repos, tenantID, invoices, requisitionID, s.now())
}

func (s *CheckRequisitionService) recordDecision(ctx context.Context, p identity.Principal, decision string, err error) {
	if s.businessMetrics == nil {
		return
	}
	var blocked *procurement.ApprovalBlockedError
	if err != nil && !errors.As(err, &blocked) {
		return
	}
	s.businessMetrics.RecordRequisitionDecision(ctx, p.TenantID, decision)
}

func requisitionDetails(req CheckRequisitionRequest) procurement.RequisitionDetails {
	return procurement.RequisitionDetails{
		VendorID:        req.VendorID,
		PayeeName:       req.PayeeName,
		ProjectID:       req.ProjectID,
		PurchaseOrderID: req.PurchaseOrderID,
		PHPAmount:       req.PHPAmount,
		Purpose:         req.Purpose,
		RequestedBy:     req.RequestedBy,
		RequestedByName: req.RequestedByName,
		RequestDate:     req.RequestDate,
		InvoiceIDs:      req.InvoiceIDs,
	}
}
