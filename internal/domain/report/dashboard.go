package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopN is the length of the ranked lists on the dashboards
const TopN = 5

// CountAmount is a count with its summed amount
type CountAmount struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// StatusAggregate is a count and sum for one status
type StatusAggregate struct {
	Status string          `json:"status"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// RankedAmount is one entry of a top-N list
type RankedAmount struct {
	ID     uuid.UUID       `json:"id"`
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// FinalizedSummary aggregates purchase orders finalized in a range
type FinalizedSummary struct {
	Count    int64           `json:"count"`
	Amount   decimal.Decimal `json:"amount"`
	Invoiced decimal.Decimal `json:"invoiced"`
}

// PurchasingDashboard is the purchasing role's view
type PurchasingDashboard struct {
	Range              DateRange         `json:"range"`
	PurchaseOrders     []StatusAggregate `json:"purchase_orders_by_status"`
	Finalized          CountAmount       `json:"finalized"`
	OpenCommitment     decimal.Decimal   `json:"open_commitment"`
	InvoicedPercentage decimal.Decimal   `json:"invoiced_percentage"`
	TopVendors         []RankedAmount    `json:"top_vendors"`
}

// AccountingDashboard is the accounting role's view
type AccountingDashboard struct {
	Range         DateRange         `json:"range"`
	Received      CountAmount       `json:"received"`
	Pipeline      []StatusAggregate `json:"pipeline"`
	Approved      CountAmount       `json:"approved"`
	ApprovalRate  decimal.Decimal   `json:"approval_rate"`
	PayablesAging []AgingResult     `json:"payables_aging"`
	ReviewAging   []AgingResult     `json:"review_aging"`
}

// TreasuryDashboard is the treasury role's view
type TreasuryDashboard struct {
	Range                DateRange         `json:"range"`
	Requisitions         []StatusAggregate `json:"requisitions_by_status"`
	ApprovalAging        []AgingResult     `json:"approval_aging"`
	DisbursementPipeline []StatusAggregate `json:"disbursement_pipeline"`
	Released             CountAmount       `json:"released"`
	ReleaseAging         []AgingResult     `json:"release_aging"`
}

// ExecutiveDashboard is the executive role's view
type ExecutiveDashboard struct {
	Range               DateRange       `json:"range"`
	Committed           decimal.Decimal `json:"committed"`
	Invoiced            decimal.Decimal `json:"invoiced"`
	Paid                decimal.Decimal `json:"paid"`
	PaidPercentage      decimal.Decimal `json:"paid_percentage"`
	OutstandingPayables decimal.Decimal `json:"outstanding_payables"`
	TopProjects         []RankedAmount  `json:"top_projects"`
}

// DashboardRepository runs the SQL side of the dashboards. Every method sums and
// counts in the database; aging rows come back unclassified.
type DashboardRepository interface {
	// PurchaseOrdersByStatus groups purchase orders created in range
	PurchaseOrdersByStatus(ctx context.Context, tenantID uuid.UUID, r DateRange) ([]StatusAggregate, error)

	// FinalizedPurchaseOrders sums purchase orders finalized in range
	FinalizedPurchaseOrders(ctx context.Context, tenantID uuid.UUID, r DateRange) (FinalizedSummary, error)

	// OpenCommitment sums amount minus total invoiced over open purchase orders
	// finalized in range
	OpenCommitment(ctx context.Context, tenantID uuid.UUID, r DateRange) (decimal.Decimal, error)

	// TopVendors ranks vendors by purchase order amount finalized in range
	TopVendors(ctx context.Context, tenantID uuid.UUID, r DateRange, limit int) ([]RankedAmount, error)

	// InvoicesReceived counts invoices received in range
	InvoicesReceived(ctx context.Context, tenantID uuid.UUID, r DateRange) (CountAmount, error)

	// InvoicePipeline groups invoices received in range by status
	InvoicePipeline(ctx context.Context, tenantID uuid.UUID, r DateRange) ([]StatusAggregate, error)

	// InvoicesApproved counts invoices approved in range
	InvoicesApproved(ctx context.Context, tenantID uuid.UUID, r DateRange) (CountAmount, error)

	// UnpaidPayables returns due dates of approved and pending-disbursement
	// invoices dated in range
	UnpaidPayables(ctx context.Context, tenantID uuid.UUID, r DateRange) ([]DatedAmount, error)

	// InvoicesUnderReview returns receipt dates of received and in-progress
	// invoices received in range
	InvoicesUnderReview(ctx context.Context, tenantID uuid.UUID, r DateRange) ([]DatedAmount, error)

	// RequisitionsByStatus groups requisitions requested in range
	RequisitionsByStatus(ctx context.Context, tenantID uuid.UUID, r DateRange) ([]StatusAggregate, error)

	// PendingRequisitions returns request dates of requisitions requested in
	// range and still awaiting approval
	PendingRequisitions(ctx context.Context, tenantID uuid.UUID, r DateRange) ([]DatedAmount, error)

	// DisbursementPipeline groups disbursements scheduled in range by stage
	DisbursementPipeline(ctx context.Context, tenantID uuid.UUID, r DateRange) ([]StatusAggregate, error)

	// DisbursementsReleased counts disbursements released in range
	DisbursementsReleased(ctx context.Context, tenantID uuid.UUID, r DateRange) (CountAmount, error)

	// UnreleasedDisbursements returns scheduled dates of unreleased disbursements
	// scheduled in range
	UnreleasedDisbursements(ctx context.Context, tenantID uuid.UUID, r DateRange) ([]DatedAmount, error)

	// InvoicedAmount sums non-rejected invoices received in range
	InvoicedAmount(ctx context.Context, tenantID uuid.UUID, r DateRange) (decimal.Decimal, error)

	// PaidAmount sums invoices paid in range
	PaidAmount(ctx context.Context, tenantID uuid.UUID, r DateRange) (decimal.Decimal, error)

	// OutstandingPayables sums approved and pending-disbursement invoices
	// received in range
	OutstandingPayables(ctx context.Context, tenantID uuid.UUID, r DateRange) (decimal.Decimal, error)

	// TopProjects ranks projects by non-rejected invoice amount received in range
	TopProjects(ctx context.Context, tenantID uuid.UUID, r DateRange, limit int) ([]RankedAmount, error)
}

// Clock returns the current time
type Clock func() time.Time
