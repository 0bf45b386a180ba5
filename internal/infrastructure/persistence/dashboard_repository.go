package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// disbursementStageSQL derives the stage from the check dates, latest first
const disbursementStageSQL = "CASE " +
	"WHEN date_check_released_to_vendor IS NOT NULL THEN 'released' " +
	"WHEN date_check_printing IS NOT NULL THEN 'printing' " +
	"WHEN date_check_scheduled IS NOT NULL THEN 'scheduled' " +
	"ELSE 'draft' END"

var (
	purchaseOrderStatusOrder = []string{
		string(procurement.PurchaseOrderStatusDraft),
		string(procurement.PurchaseOrderStatusOpen),
		string(procurement.PurchaseOrderStatusClosed),
		string(procurement.PurchaseOrderStatusCancelled),
	}
	invoiceStatusOrder = []string{
		string(procurement.InvoiceStatusPending),
		string(procurement.InvoiceStatusReceived),
		string(procurement.InvoiceStatusInProgress),
		string(procurement.InvoiceStatusApproved),
		string(procurement.InvoiceStatusRejected),
		string(procurement.InvoiceStatusPendingDisbursement),
		string(procurement.InvoiceStatusPaid),
	}
	requisitionStatusOrder = []string{
		string(procurement.RequisitionStatusPendingApproval),
		string(procurement.RequisitionStatusApproved),
		string(procurement.RequisitionStatusRejected),
		string(procurement.RequisitionStatusProcessed),
		string(procurement.RequisitionStatusPaid),
	}
	disbursementStageOrder = []string{
		string(procurement.DisbursementStageDraft),
		string(procurement.DisbursementStageScheduled),
		string(procurement.DisbursementStagePrinting),
		string(procurement.DisbursementStageReleased),
	}
	unpaidInvoiceStatuses = []procurement.InvoiceStatus{
		procurement.InvoiceStatusApproved,
		procurement.InvoiceStatusPendingDisbursement,
	}
)

// GormDashboardRepository runs the dashboard aggregates in SQL
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// PurchaseOrdersByStatus groups purchase orders created in range
func (r *GormDashboardRepository) PurchaseOrdersByStatus(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) ([]report.StatusAggregate, error) {
	query := r.db.WithContext(ctx).Table("purchase_orders").
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, dr.Start(), dr.EndExclusive())
	return r.groupBy(query, "status", "amount", purchaseOrderStatusOrder)
}

// FinalizedPurchaseOrders sums purchase orders finalized in range, ignoring cancelled ones
func (r *GormDashboardRepository) FinalizedPurchaseOrders(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) (report.FinalizedSummary, error) {
	var out report.FinalizedSummary
	err := r.db.WithContext(ctx).Table("purchase_orders").
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount, COALESCE(SUM(total_invoiced), 0) AS invoiced").
		Where("tenant_id = ? AND status <> ? AND finalized_at >= ? AND finalized_at < ?",
			tenantID, procurement.PurchaseOrderStatusCancelled, dr.Start(), dr.EndExclusive()).
		Scan(&out).Error
	return out, err
}

// OpenCommitment sums the uninvoiced remainder of open purchase orders
// finalized in range
func (r *GormDashboardRepository) OpenCommitment(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) (decimal.Decimal, error) {
	return r.sum(r.db.WithContext(ctx).Table("purchase_orders").
		Where("tenant_id = ? AND status = ? AND finalized_at >= ? AND finalized_at < ?",
			tenantID, procurement.PurchaseOrderStatusOpen, dr.Start(), dr.EndExclusive()),
		"CASE WHEN amount > total_invoiced THEN amount - total_invoiced ELSE 0 END")
}

// TopVendors ranks vendors by the amount of purchase orders finalized in range
func (r *GormDashboardRepository) TopVendors(ctx context.Context, tenantID uuid.UUID, dr report.DateRange, limit int) ([]report.RankedAmount, error) {
	var out []report.RankedAmount
	err := r.db.WithContext(ctx).Table("purchase_orders AS po").
		Select("v.id AS id, v.code AS code, v.name AS name, COALESCE(SUM(po.amount), 0) AS amount").
		Joins("JOIN vendors AS v ON v.id = po.vendor_id").
		Where("po.tenant_id = ? AND po.status <> ? AND po.finalized_at >= ? AND po.finalized_at < ?",
			tenantID, procurement.PurchaseOrderStatusCancelled, dr.Start(), dr.EndExclusive()).
		Group("v.id, v.code, v.name").
		Order("amount DESC").Order("v.code").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// InvoicesReceived counts invoices received in range
func (r *GormDashboardRepository) InvoicesReceived(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) (report.CountAmount, error) {
	return r.countAmount(r.db.WithContext(ctx).Table("invoices").
		Where("tenant_id = ? AND si_received_at >= ? AND si_received_at < ?", tenantID, dr.Start(), dr.EndExclusive()),
		"net_amount")
}

// InvoicePipeline groups invoices received in range by status
func (r *GormDashboardRepository) InvoicePipeline(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) ([]report.StatusAggregate, error) {
	query := r.db.WithContext(ctx).Table("invoices").
		Where("tenant_id = ? AND si_received_at >= ? AND si_received_at < ?", tenantID, dr.Start(), dr.EndExclusive())
	return r.groupBy(query, "status", "net_amount", invoiceStatusOrder)
}

// InvoicesApproved counts invoices approved in range
func (r *GormDashboardRepository) InvoicesApproved(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) (report.CountAmount, error) {
	return r.countAmount(r.db.WithContext(ctx).Table("invoices").
		Where("tenant_id = ? AND approved_at >= ? AND approved_at < ?", tenantID, dr.Start(), dr.EndExclusive()),
		"net_amount")
}

type payableRow struct {
	DueDate     *time.Time
	InvoiceDate time.Time
	NetAmount   decimal.Decimal
}

// UnpaidPayables returns the due dates of approved and pending-disbursement
// invoices dated in range. An invoice without a due date is due on its
// invoice date.
func (r *GormDashboardRepository) UnpaidPayables(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) ([]report.DatedAmount, error) {
	var rows []payableRow
	if err := r.db.WithContext(ctx).Table("invoices").
		Select("due_date, invoice_date, net_amount").
		Where("tenant_id = ? AND status IN ? AND invoice_date >= ? AND invoice_date < ?",
			tenantID, unpaidInvoiceStatuses, dr.Start(), dr.EndExclusive()).
		Order("invoice_date").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]report.DatedAmount, len(rows))
	for i, row := range rows {
		due := row.InvoiceDate
		if row.DueDate != nil {
			due = *row.DueDate
		}
		out[i] = report.DatedAmount{Date: due, Amount: row.NetAmount}
	}
	return out, nil
}

// InvoicesUnderReview returns the receipt dates of received and in-progress
// invoices received in range
func (r *GormDashboardRepository) InvoicesUnderReview(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) ([]report.DatedAmount, error) {
	return r.dated(r.db.WithContext(ctx).Table("invoices").
		Where("tenant_id = ? AND status IN ? AND si_received_at >= ? AND si_received_at < ?", tenantID,
			[]procurement.InvoiceStatus{procurement.InvoiceStatusReceived, procurement.InvoiceStatusInProgress},
			dr.Start(), dr.EndExclusive()),
		"si_received_at", "net_amount")
}

// RequisitionsByStatus groups requisitions requested in range
func (r *GormDashboardRepository) RequisitionsByStatus(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) ([]report.StatusAggregate, error) {
	query := r.db.WithContext(ctx).Table("check_requisitions").
		Where("tenant_id = ? AND request_date >= ? AND request_date < ?", tenantID, dr.Start(), dr.EndExclusive())
	return r.groupBy(query, "status", "php_amount", requisitionStatusOrder)
}

// PendingRequisitions returns the request dates of requisitions requested in
// range that still await approval
func (r *GormDashboardRepository) PendingRequisitions(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) ([]report.DatedAmount, error) {
	return r.dated(r.db.WithContext(ctx).Table("check_requisitions").
		Where("tenant_id = ? AND status = ? AND request_date >= ? AND request_date < ?",
			tenantID, procurement.RequisitionStatusPendingApproval, dr.Start(), dr.EndExclusive()),
		"request_date", "php_amount")
}

// DisbursementPipeline groups disbursements scheduled in range by stage
func (r *GormDashboardRepository) DisbursementPipeline(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) ([]report.StatusAggregate, error) {
	query := r.db.WithContext(ctx).Table("disbursements").
		Where("tenant_id = ? AND date_check_scheduled >= ? AND date_check_scheduled < ?", tenantID, dr.Start(), dr.EndExclusive())
	return r.groupBy(query, disbursementStageSQL, "amount", disbursementStageOrder)
}

// DisbursementsReleased counts disbursements released in range
func (r *GormDashboardRepository) DisbursementsReleased(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) (report.CountAmount, error) {
	return r.countAmount(r.db.WithContext(ctx).Table("disbursements").
		Where("tenant_id = ? AND date_check_released_to_vendor >= ? AND date_check_released_to_vendor < ?",
			tenantID, dr.Start(), dr.EndExclusive()),
		"amount")
}

// UnreleasedDisbursements returns the scheduled dates of unreleased
// disbursements scheduled in range
func (r *GormDashboardRepository) UnreleasedDisbursements(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) ([]report.DatedAmount, error) {
	return r.dated(r.db.WithContext(ctx).Table("disbursements").
		Where("tenant_id = ? AND date_check_released_to_vendor IS NULL AND date_check_scheduled >= ? AND date_check_scheduled < ?",
			tenantID, dr.Start(), dr.EndExclusive()),
		"date_check_scheduled", "amount")
}

// InvoicedAmount sums non-rejected invoices received in range
func (r *GormDashboardRepository) InvoicedAmount(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) (decimal.Decimal, error) {
	return r.sum(r.db.WithContext(ctx).Table("invoices").
		Where("tenant_id = ? AND status <> ? AND si_received_at >= ? AND si_received_at < ?",
			tenantID, procurement.InvoiceStatusRejected, dr.Start(), dr.EndExclusive()),
		"net_amount")
}

// PaidAmount sums invoices paid in range
func (r *GormDashboardRepository) PaidAmount(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) (decimal.Decimal, error) {
	return r.sum(r.db.WithContext(ctx).Table("invoices").
		Where("tenant_id = ? AND status = ? AND paid_at >= ? AND paid_at < ?",
			tenantID, procurement.InvoiceStatusPaid, dr.Start(), dr.EndExclusive()),
		"net_amount")
}

// OutstandingPayables sums approved and pending-disbursement invoices received in range
func (r *GormDashboardRepository) OutstandingPayables(ctx context.Context, tenantID uuid.UUID, dr report.DateRange) (decimal.Decimal, error) {
	return r.sum(r.db.WithContext(ctx).Table("invoices").
		Where("tenant_id = ? AND status IN ? AND si_received_at >= ? AND si_received_at < ?",
			tenantID, unpaidInvoiceStatuses, dr.Start(), dr.EndExclusive()),
		"net_amount")
}

// TopProjects ranks projects by non-rejected invoice amount received in range
func (r *GormDashboardRepository) TopProjects(ctx context.Context, tenantID uuid.UUID, dr report.DateRange, limit int) ([]report.RankedAmount, error) {
	var out []report.RankedAmount
	err := r.db.WithContext(ctx).Table("invoices AS i").
		Select("p.id AS id, p.code AS code, p.name AS name, COALESCE(SUM(i.net_amount), 0) AS amount").
		Joins("JOIN projects AS p ON p.id = i.project_id").
		Where("i.tenant_id = ? AND i.status <> ? AND i.si_received_at >= ? AND i.si_received_at < ?",
			tenantID, procurement.InvoiceStatusRejected, dr.Start(), dr.EndExclusive()).
		Group("p.id, p.code, p.name").
		Order("amount DESC").Order("p.code").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *GormDashboardRepository) groupBy(query *gorm.DB, groupExpr, amountColumn string, order []string) ([]report.StatusAggregate, error) {
	var rows []report.StatusAggregate
	if err := query.
		Select(groupExpr + " AS status, COUNT(*) AS count, COALESCE(SUM(" + amountColumn + "), 0) AS amount").
		Group(groupExpr).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	rank := make(map[string]int, len(order))
	for i, s := range order {
		rank[s] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rank[rows[i].Status] < rank[rows[j].Status]
	})
	return rows, nil
}

func (r *GormDashboardRepository) countAmount(query *gorm.DB, amountColumn string) (report.CountAmount, error) {
	var out report.CountAmount
	err := query.Select("COUNT(*) AS count, COALESCE(SUM(" + amountColumn + "), 0) AS amount").Scan(&out).Error
	return out, err
}

func (r *GormDashboardRepository) sum(query *gorm.DB, expr string) (decimal.Decimal, error) {
	var out struct {
		Total decimal.Decimal
	}
	if err := query.Select("COALESCE(SUM(" + expr + "), 0) AS total").Scan(&out).Error; err != nil {
		return decimal.Zero, err
	}
	return out.Total, nil
}

type datedRow struct {
	Date   time.Time
	Amount decimal.Decimal
}

func (r *GormDashboardRepository) dated(query *gorm.DB, dateColumn, amountColumn string) ([]report.DatedAmount, error) {
	var rows []datedRow
	if err := query.Select(dateColumn + " AS date, " + amountColumn + " AS amount").
		Order(dateColumn).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]report.DatedAmount, len(rows))
	for i, row := range rows {
		out[i] = report.DatedAmount{Date: row.Date, Amount: row.Amount}
	}
	return out, nil
}

// Ensure GormDashboardRepository implements DashboardRepository
var _ report.DashboardRepository = (*GormDashboardRepository)(nil)
