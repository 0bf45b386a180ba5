package procurement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	attachmentapp "github.com/procurement/backend/internal/application/attachment"
	auditapp "github.com/procurement/backend/internal/application/audit"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DisbursementService manages disbursements and drives the status cascade
// onto their check requisitions, invoices and purchase orders
type DisbursementService struct {
	repos           Repositories
	scope           TransactionScope
	storage         attachmentapp.ObjectStorageService
	locker          Locker
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
	now             func() time.Time
}

// NewDisbursementService creates a new DisbursementService
func NewDisbursementService(repos Repositories, scope TransactionScope, logger *zap.Logger) *DisbursementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DisbursementService{
		repos:  repos,
		scope:  scope,
		locker: NoopLocker{},
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetObjectStorage sets the storage receiving disbursement attachments
func (s *DisbursementService) SetObjectStorage(storage attachmentapp.ObjectStorageService) {
	s.storage = storage
}

// SetLocker sets the distributed lock serializing cascades
func (s *DisbursementService) SetLocker(locker Locker) {
	if locker != nil {
		s.locker = locker
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *DisbursementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *DisbursementService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create records a disbursement, attaches its requisitions and cascades the
// new statuses in one transaction
func (s *DisbursementService) Create(ctx context.Context, p identity.Principal, req DisbursementRequest) (*DisbursementResponse, error) {
	if err := p.Authorize(identity.ModuleDisbursements, identity.AccessWrite); err != nil {
		return nil, err
	}
	details := req.details()
	if err := procurement.ValidateDisbursementDetails(details); err != nil {
		return nil, err
	}
	if err := attachmentapp.ValidateUploads(req.Attachments); err != nil {
		return nil, err
	}
	if err := s.validateReferences(ctx, p.TenantID, details, nil, nil); err != nil {
		return nil, err
	}

	release, err := s.locker.Obtain(ctx, voucherLockKey(p.TenantID, details.VoucherNumber), DefaultLockTTL)
	if err != nil {
		return nil, err
	}
	defer s.release(release)

	d, err := procurement.NewDisbursement(p.TenantID, p.UserID, details)
	if err != nil {
		return nil, err
	}

	subject := shared.SubjectRef{Type: shared.SubjectDisbursement, ID: d.ID}
	stored, err := attachmentapp.StoreObjects(ctx, s.storage, p.TenantID, subject, req.Attachments, p.ActorID())
	if err != nil {
		return nil, err
	}

	var events eventCollector
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		if _, err := s.cascade(ctx, repos, p, d, nil, procurement.CascadeCreate, &events); err != nil {
			return err
		}
		for _, f := range stored.Files {
			if err := repos.FileRepo().Create(ctx, f); err != nil {
				return err
			}
		}

		changes := disbursementChanges(nil, d)
		notes := ""
		if n := len(stored.Files); n > 0 {
			notes = fmt.Sprintf("%d attachment(s) uploaded", n)
		}
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectDisbursement, d.ID, audit.ActionCreated, changes, notes)
	})
	if err != nil {
		for _, derr := range stored.Discard(ctx) {
			s.logger.Error("Failed to remove orphaned attachment", zap.Error(derr))
		}
		return nil, s.failure(ctx, p, procurement.CascadeCreate, "failed to create disbursement", err)
	}

	s.succeeded(ctx, p, procurement.CascadeCreate, events.events)
	if s.businessMetrics != nil {
		for _, f := range stored.Files {
			s.businessMetrics.RecordAttachmentBytes(ctx, p.TenantID, subject.Type.String(), f.Size)
		}
	}
	resp := ToDisbursementResponse(d)
	resp.Files = attachmentapp.ToFileResponses(stored.Files)
	return &resp, nil
}

// Update edits a disbursement. Requisitions leaving it revert to approved,
// requisitions joining it become processed, and every reachable invoice is
// recomputed. Submitting the same request twice yields the same statuses.
func (s *DisbursementService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req DisbursementRequest) (*DisbursementResponse, error) {
	if err := p.Authorize(identity.ModuleDisbursements, identity.AccessWrite); err != nil {
		return nil, err
	}
	details := req.details()
	if err := procurement.ValidateDisbursementDetails(details); err != nil {
		return nil, err
	}
	if len(req.Attachments) > 0 {
		return nil, shared.NewValidationError("attachments", "Upload files to an existing disbursement through the files endpoint")
	}

	existing, err := s.repos.Disbursements.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateReferences(ctx, p.TenantID, details, &id, existing.CheckRequisitionIDs); err != nil {
		return nil, err
	}

	release, err := s.locker.Obtain(ctx, disbursementLockKey(p.TenantID, id), DefaultLockTTL)
	if err != nil {
		return nil, err
	}
	defer s.release(release)

	var (
		d      *procurement.Disbursement
		events eventCollector
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		var err error
		d, err = repos.DisbursementRepo().FindByIDForUpdate(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if req.Version != nil && *req.Version != d.Version {
			return shared.ErrConcurrencyConflict
		}

		before := *d
		previous := append([]uuid.UUID(nil), d.CheckRequisitionIDs...)
		if err := d.Update(details); err != nil {
			return err
		}
		if _, err := s.cascade(ctx, repos, p, d, previous, procurement.CascadeUpdate, &events); err != nil {
			return err
		}

		changes := disbursementChanges(&before, d)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectDisbursement, d.ID, audit.ActionUpdated, changes, "")
	})
	if err != nil {
		return nil, s.failure(ctx, p, procurement.CascadeUpdate, "failed to update disbursement", err)
	}

	s.succeeded(ctx, p, procurement.CascadeUpdate, events.events)
	resp := ToDisbursementResponse(d)
	return &resp, nil
}

// Delete removes a disbursement, reverting its requisitions and the invoices
// no other requisition holds
func (s *DisbursementService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	if err := p.Authorize(identity.ModuleDisbursements, identity.AccessWrite); err != nil {
		return err
	}

	release, err := s.locker.Obtain(ctx, disbursementLockKey(p.TenantID, id), DefaultLockTTL)
	if err != nil {
		return err
	}
	defer s.release(release)

	var (
		events  eventCollector
		removed []string
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.reset()
		removed = nil
		d, err := repos.DisbursementRepo().FindByIDForUpdate(ctx, p.TenantID, id)
		if err != nil {
			return err
		}

		previous := append([]uuid.UUID(nil), d.CheckRequisitionIDs...)
		if _, err := s.cascade(ctx, repos, p, d, previous, procurement.CascadeDelete, &events); err != nil {
			return err
		}

		subject := shared.SubjectRef{Type: shared.SubjectDisbursement, ID: d.ID}
		files, err := repos.FileRepo().FindBySubject(ctx, p.TenantID, subject)
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := repos.FileRepo().Delete(ctx, p.TenantID, f.ID); err != nil {
				return err
			}
			removed = append(removed, f.StorageKey)
		}

		changes := audit.Changes{}.
			Set("voucher_number", d.VoucherNumber, nil).
			Set("amount", d.Amount.StringFixed(2), nil).
			Set("check_requisition_ids", sortedStrings(previous), nil)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectDisbursement, d.ID, audit.ActionDeleted, changes, "")
	})
	if err != nil {
		return s.failure(ctx, p, procurement.CascadeDelete, "failed to delete disbursement", err)
	}

	if s.storage != nil {
		for _, key := range removed {
			if err := s.storage.DeleteObject(ctx, key); err != nil {
				s.logger.Warn("Failed to delete attachment object", zap.String("storage_key", key), zap.Error(err))
			}
		}
	}
	s.succeeded(ctx, p, procurement.CascadeDelete, events.events)
	return nil
}

// GetByID retrieves a disbursement with its files
func (s *DisbursementService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*DisbursementResponse, error) {
	if err := p.Authorize(identity.ModuleDisbursements, identity.AccessRead); err != nil {
		return nil, err
	}
	d, err := s.repos.Disbursements.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToDisbursementResponse(d)
	if s.repos.Files != nil {
		files, err := s.repos.Files.FindBySubject(ctx, p.TenantID, shared.SubjectRef{Type: shared.SubjectDisbursement, ID: d.ID})
		if err != nil {
			return nil, err
		}
		resp.Files = attachmentapp.ToFileResponses(files)
	}
	return &resp, nil
}

// List retrieves disbursements with filtering and pagination
func (s *DisbursementService) List(ctx context.Context, p identity.Principal, filter DisbursementListFilter) ([]DisbursementResponse, int64, error) {
	if err := p.Authorize(identity.ModuleDisbursements, identity.AccessRead); err != nil {
		return nil, 0, err
	}
	domainFilter := toDomainFilter(filter.ListFilter)
	if filter.Stage != "" {
		domainFilter = domainFilter.With("stage", filter.Stage)
	}
	items, total, err := s.repos.Disbursements.FindAll(ctx, p.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]DisbursementResponse, len(items))
	for i, d := range items {
		out[i] = ToDisbursementResponse(d)
	}
	return out, total, nil
}

// cascade loads the requisitions and invoices touched by the change with row
// locks, plans and applies the transitions, and persists every changed
// aggregate including the disbursement itself and affected purchase orders
func (s *DisbursementService) cascade(
	ctx context.Context,
	repos TransactionalRepositories,
	p identity.Principal,
	d *procurement.Disbursement,
	previous []uuid.UUID,
	kind procurement.CascadeKind,
	events *eventCollector,
) (*procurement.CascadePlan, error) {
	var current []uuid.UUID
	if kind != procurement.CascadeDelete {
		current = d.CheckRequisitionIDs
	}
	involved := uniqueIDs(append(append([]uuid.UUID(nil), previous...), current...))

	reqs, err := repos.RequisitionRepo().FindByIDsForUpdate(ctx, p.TenantID, involved)
	if err != nil {
		return nil, err
	}
	state := procurement.CascadeState{
		Requisitions: make(map[uuid.UUID]procurement.RequisitionStatus, len(reqs)),
		Invoices:     make(map[uuid.UUID]procurement.InvoiceStatus),
		Links:        make(map[uuid.UUID][]uuid.UUID, len(reqs)),
	}
	reqByID := make(map[uuid.UUID]*procurement.CheckRequisition, len(reqs))
	var invoiceIDs []uuid.UUID
	for _, r := range reqs {
		reqByID[r.ID] = r
		state.Requisitions[r.ID] = r.Status
		state.Links[r.ID] = r.InvoiceIDs
		invoiceIDs = append(invoiceIDs, r.InvoiceIDs...)
	}
	invoiceIDs = uniqueIDs(invoiceIDs)

	invs, err := repos.InvoiceRepo().FindByIDsForUpdate(ctx, p.TenantID, invoiceIDs)
	if err != nil {
		return nil, err
	}
	invByID := make(map[uuid.UUID]*procurement.Invoice, len(invs))
	for _, inv := range invs {
		invByID[inv.ID] = inv
		state.Invoices[inv.ID] = inv.Status
	}

	state.ExternalRefs, err = repos.RequisitionRepo().ExternalRefs(ctx, p.TenantID, invoiceIDs, involved)
	if err != nil {
		return nil, err
	}

	plan, err := procurement.PlanCascade(state, procurement.CascadeEvent{
		Kind:     kind,
		Previous: previous,
		Current:  current,
		Released: d.IsReleased(),
	})
	if err != nil {
		return nil, err
	}
	if err := plan.Apply(reqByID, invByID, p.ActorID(), s.now()); err != nil {
		return nil, err
	}

	attached := make([]*procurement.CheckRequisition, 0, len(plan.Current))
	for _, id := range plan.Current {
		attached = append(attached, reqByID[id])
	}
	switch kind {
	case procurement.CascadeCreate:
		d.AttachRequisitions(attached)
		if err := repos.DisbursementRepo().Create(ctx, d); err != nil {
			return nil, err
		}
	case procurement.CascadeUpdate:
		d.AttachRequisitions(attached)
		if err := repos.DisbursementRepo().SaveWithLock(ctx, d); err != nil {
			return nil, err
		}
	case procurement.CascadeDelete:
		if err := repos.DisbursementRepo().Delete(ctx, p.TenantID, d.ID); err != nil {
			return nil, err
		}
	}

	for _, t := range plan.Requisitions {
		if err := repos.RequisitionRepo().SaveWithLock(ctx, reqByID[t.ID]); err != nil {
			return nil, err
		}
	}
	changedInvoices := make([]*procurement.Invoice, 0, len(plan.Invoices))
	for _, t := range plan.Invoices {
		inv := invByID[t.ID]
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return nil, err
		}
		changedInvoices = append(changedInvoices, inv)
	}
	orders, err := recalculatePurchaseOrders(ctx, repos, p.TenantID, purchaseOrderIDs(changedInvoices...))
	if err != nil {
		return nil, err
	}

	d.RecordCascade(kind)
	events.collect(d)
	for _, r := range reqs {
		events.collect(r)
	}
	for _, inv := range invs {
		events.collect(inv)
	}
	for _, po := range orders {
		events.collect(po)
	}

	s.logger.Debug("Disbursement cascade applied",
		zap.String("disbursement_id", d.ID.String()),
		zap.String("kind", string(kind)),
		zap.Int("requisitions", len(plan.Requisitions)),
		zap.Int("invoices", len(plan.Invoices)),
		zap.Int("purchase_orders", len(orders)))
	return plan, nil
}

// validateReferences runs the lookups that must pass before any transaction
// begins: voucher uniqueness and existence, status and exclusivity of every
// requisition
func (s *DisbursementService) validateReferences(
	ctx context.Context,
	tenantID uuid.UUID,
	details procurement.DisbursementDetails,
	excludeID *uuid.UUID,
	alreadyAttached []uuid.UUID,
) error {
	verr := &shared.ValidationError{}

	taken, err := s.repos.Disbursements.ExistsByVoucherNumber(ctx, tenantID, details.VoucherNumber, excludeID)
	if err != nil {
		return err
	}
	if taken {
		verr.Add("voucher_number", "Voucher number already exists")
	}

	ids := uniqueIDs(details.CheckRequisitionIDs)
	reqs, err := s.repos.Requisitions.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]*procurement.CheckRequisition, len(reqs))
	for _, r := range reqs {
		found[r.ID] = r
	}
	attached := make(map[uuid.UUID]struct{}, len(alreadyAttached))
	for _, id := range alreadyAttached {
		attached[id] = struct{}{}
	}
	for _, id := range ids {
		r, ok := found[id]
		if !ok {
			verr.Add("check_requisition_ids", fmt.Sprintf("Check requisition %s does not exist", id))
			continue
		}
		if _, ok := attached[id]; ok {
			continue
		}
		if r.Status != procurement.RequisitionStatusApproved {
			verr.Add("check_requisition_ids", fmt.Sprintf("Check requisition %s is %s, only approved requisitions can be attached", r.RequisitionNumber, r.Status))
		}
	}

	elsewhere, err := s.repos.Disbursements.FindAttachedElsewhere(ctx, tenantID, ids, excludeID)
	if err != nil {
		return err
	}
	for _, id := range elsewhere {
		number := id.String()
		if r, ok := found[id]; ok {
			number = r.RequisitionNumber
		}
		verr.Add("check_requisition_ids", fmt.Sprintf("Check requisition %s is already attached to another disbursement", number))
	}
	return verr.OrNil()
}

// failure maps an error raised inside the cascade transaction. Validation
// failures, missing rows and version conflicts reach the client unchanged;
// anything else surfaces as a generic transaction failure with the cause
// logged only.
func (s *DisbursementService) failure(ctx context.Context, p identity.Principal, kind procurement.CascadeKind, message string, err error) error {
	if s.businessMetrics != nil {
		s.businessMetrics.RecordCascade(ctx, p.TenantID, string(kind), telemetry.OutcomeFailed)
	}

	var verr *shared.ValidationError
	if errors.As(err, &verr) ||
		errors.Is(err, shared.ErrConcurrencyConflict) ||
		errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrForbidden) {
		return err
	}
	s.logger.Error("Disbursement cascade failed",
		zap.String("operation", string(kind)),
		zap.String("tenant_id", p.TenantID.String()),
		zap.Error(err))
	return shared.NewTransactionError(message, err)
}

func (s *DisbursementService) succeeded(ctx context.Context, p identity.Principal, kind procurement.CascadeKind, events []shared.DomainEvent) {
	if s.businessMetrics != nil {
		s.businessMetrics.RecordCascade(ctx, p.TenantID, string(kind), telemetry.OutcomeSuccess)
	}
	publishEvents(ctx, s.eventPublisher, s.logger, events)
}

func (s *DisbursementService) release(release func(context.Context) error) {
	// The request context may already be cancelled; the lock must still be freed.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := release(ctx); err != nil {
		s.logger.Warn("Failed to release cascade lock", zap.Error(err))
	}
}

func voucherLockKey(tenantID uuid.UUID, voucher string) string {
	return fmt.Sprintf("p2p:lock:%s:voucher:%s", tenantID, voucher)
}

func disbursementLockKey(tenantID, id uuid.UUID) string {
	return fmt.Sprintf("p2p:lock:%s:disbursement:%s", tenantID, id)
}

// disbursementChanges builds the audit change-set between two versions of a
// disbursement; before is nil on create
func disbursementChanges(before *procurement.Disbursement, after *procurement.Disbursement) audit.Changes {
	if before == nil {
		before = &procurement.Disbursement{}
	}
	changes := audit.Changes{}.
		Set("voucher_number", emptyAsNil(before.VoucherNumber), after.VoucherNumber).
		Set("check_number", emptyAsNil(before.CheckNumber), emptyAsNil(after.CheckNumber)).
		Set("bank_name", emptyAsNil(before.BankName), emptyAsNil(after.BankName)).
		Set("remarks", emptyAsNil(before.Remarks), emptyAsNil(after.Remarks)).
		Set("date_check_scheduled", formatDate(before.DateCheckScheduled), formatDate(after.DateCheckScheduled)).
		Set("date_check_printing", formatDate(before.DateCheckPrinting), formatDate(after.DateCheckPrinting)).
		Set("date_check_released_to_vendor", formatDate(before.DateCheckReleasedToVendor), formatDate(after.DateCheckReleasedToVendor))
	if before.ID == uuid.Nil || !before.Amount.Equal(after.Amount) {
		changes.Set("amount", amountOrNil(before), after.Amount.StringFixed(2))
	}
	changes.Set("check_requisition_ids", sortedStrings(before.CheckRequisitionIDs), sortedStrings(after.CheckRequisitionIDs))
	return changes
}

func amountOrNil(d *procurement.Disbursement) any {
	if d.ID == uuid.Nil {
		return nil
	}
	return d.Amount.StringFixed(2)
}

func emptyAsNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func sortedStrings(ids []uuid.UUID) []string {
	out := idStrings(ids)
	sort.Strings(out)
	return out
}
