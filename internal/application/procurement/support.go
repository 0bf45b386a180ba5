package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// eventSource is any aggregate that buffers domain events
type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// eventCollector gathers the events raised during a transaction so they can
// be published once it has committed
type eventCollector struct {
	events []shared.DomainEvent
}

func (c *eventCollector) collect(sources ...eventSource) {
	for _, src := range sources {
		c.events = append(c.events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
}

func (c *eventCollector) reset() {
	c.events = nil
}

// publishEvents delivers committed events. Publishing failures are logged
// and never undo the committed change.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}

// recalculatePurchaseOrders recomputes total_invoiced and total_paid of the
// given purchase orders from their invoices as stored in the current
// transaction. Callers save changed invoices first.
func recalculatePurchaseOrders(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, poIDs []uuid.UUID) ([]*procurement.PurchaseOrder, error) {
	ids := uniqueIDs(poIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	orders, err := repos.PurchaseOrderRepo().FindByIDsForUpdate(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	changed := make([]*procurement.PurchaseOrder, 0, len(orders))
	for _, po := range orders {
		invoices, err := repos.InvoiceRepo().FindByPurchaseOrder(ctx, tenantID, po.ID)
		if err != nil {
			return nil, err
		}
		if !po.RecalculateTotals(invoices) {
			continue
		}
		if err := repos.PurchaseOrderRepo().SaveWithLock(ctx, po); err != nil {
			return nil, err
		}
		changed = append(changed, po)
	}
	return changed, nil
}

// purchaseOrderIDs returns the purchase orders billed by the invoices
func purchaseOrderIDs(invoices ...*procurement.Invoice) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		if inv != nil && inv.PurchaseOrderID != nil {
			ids = append(ids, *inv.PurchaseOrderID)
		}
	}
	return ids
}

// revertUnheldInvoices moves invoices that a requisition released back to
// approved, unless another active requisition still holds them. Invoices
// already paid through another requisition keep their status.
func revertUnheldInvoices(
	ctx context.Context,
	repos TransactionalRepositories,
	tenantID uuid.UUID,
	invoices []*procurement.Invoice,
	releasingRequisition uuid.UUID,
	at time.Time,
) ([]*procurement.Invoice, error) {
	if len(invoices) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	refs, err := repos.RequisitionRepo().ExternalRefs(ctx, tenantID, ids, []uuid.UUID{releasingRequisition})
	if err != nil {
		return nil, err
	}

	reverted := make([]*procurement.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		held := refs[inv.ID]
		if held.Paid || held.Active > 0 || inv.Status != procurement.InvoiceStatusPendingDisbursement {
			continue
		}
		if err := inv.RevertToApproved(at); err != nil {
			return nil, err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return nil, err
		}
		reverted = append(reverted, inv)
	}
	return reverted, nil
}

// isBusinessError reports whether err should reach the client unchanged
// rather than being wrapped as a transaction failure
func isBusinessError(err error) bool {
	var verr *shared.ValidationError
	var derr *shared.DomainError
	var blocked *procurement.ApprovalBlockedError
	return errors.As(err, &verr) || errors.As(err, &derr) || errors.As(err, &blocked)
}

// transactionFailure passes business errors through and hides anything else
// behind a TransactionError
func transactionFailure(logger *zap.Logger, message string, err error) error {
	if isBusinessError(err) {
		return err
	}
	logger.Error(message, zap.Error(err))
	return shared.NewTransactionError(message, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

func optionalID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// toDomainFilter converts list query parameters into a repository filter
func toDomainFilter(f ListFilter) shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	return filter
}
