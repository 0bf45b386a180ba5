package dashboard

import (
	"context"
	"fmt"

	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportContentType is the media type of exported workbooks
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export is a rendered workbook
type Export struct {
	FileName string
	Content  []byte
}

// ExportService renders dashboards to xlsx workbooks, one sheet per metric group
type ExportService struct {
	dashboards *Service
}

// NewExportService creates a new ExportService
func NewExportService(dashboards *Service) *ExportService {
	return &ExportService{dashboards: dashboards}
}

// Export renders the dashboard of roleName, or of the principal's own role
// when roleName is empty
func (s *ExportService) Export(ctx context.Context, p identity.Principal, roleName string, q Query) (*Export, error) {
	var (
		resp *DashboardResponse
		err  error
	)
	if roleName == "" {
		resp, err = s.dashboards.ForPrincipal(ctx, p, q)
	} else {
		resp, err = s.dashboards.ForRole(ctx, p, roleName, q)
	}
	if err != nil {
		return nil, err
	}

	content, r, err := renderWorkbook(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to render dashboard workbook: %w", err)
	}
	return &Export{
		FileName: fmt.Sprintf("dashboard-%s-%s.xlsx", resp.Role, r.Key()),
		Content:  content,
	}, nil
}

func renderWorkbook(resp *DashboardResponse) ([]byte, report.DateRange, error) {
	f := excelize.NewFile()
	defer f.Close()
	w := &workbook{f: f}

	var r report.DateRange
	switch {
	case resp.Purchasing != nil:
		d := resp.Purchasing
		r = d.Range
		w.summary(r,
			row("Finalized purchase orders", d.Finalized.Count),
			row("Finalized amount", money(d.Finalized.Amount)),
			row("Open commitment", money(d.OpenCommitment)),
			row("Invoiced %", money(d.InvoicedPercentage)))
		w.statuses("Purchase Orders", d.PurchaseOrders)
		w.ranked("Top Vendors", "Vendor", d.TopVendors)
	case resp.Accounting != nil:
		d := resp.Accounting
		r = d.Range
		w.summary(r,
			row("Invoices received", d.Received.Count),
			row("Received net amount", money(d.Received.Amount)),
			row("Invoices approved", d.Approved.Count),
			row("Approved net amount", money(d.Approved.Amount)),
			row("Approval rate %", money(d.ApprovalRate)))
		w.statuses("Invoice Pipeline", d.Pipeline)
		w.aging("Payables Aging", d.PayablesAging)
		w.aging("Review Aging", d.ReviewAging)
	case resp.Treasury != nil:
		d := resp.Treasury
		r = d.Range
		w.summary(r,
			row("Disbursements released", d.Released.Count),
			row("Released amount", money(d.Released.Amount)))
		w.statuses("Requisitions", d.Requisitions)
		w.aging("Approval Aging", d.ApprovalAging)
		w.statuses("Disbursement Pipeline", d.DisbursementPipeline)
		w.aging("Release Aging", d.ReleaseAging)
	case resp.Executive != nil:
		d := resp.Executive
		r = d.Range
		w.summary(r,
			row("Committed", money(d.Committed)),
			row("Invoiced", money(d.Invoiced)),
			row("Paid", money(d.Paid)),
			row("Paid %", money(d.PaidPercentage)),
			row("Outstanding payables", money(d.OutstandingPayables)))
		w.ranked("Top Projects", "Project", d.TopProjects)
	default:
		return nil, r, fmt.Errorf("dashboard has no role view")
	}

	if w.err != nil {
		return nil, r, w.err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, r, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, r, err
	}
	return buf.Bytes(), r, nil
}

// workbook appends sheets and keeps the first error
type workbook struct {
	f   *excelize.File
	err error
}

func (w *workbook) table(sheet string, header []any, rows [][]any) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(sheet); err != nil {
		w.err = err
		return
	}
	all := append([][]any{header}, rows...)
	for i, values := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			w.err = err
			return
		}
		values := values
		if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
			w.err = err
			return
		}
	}
}

func (w *workbook) summary(r report.DateRange, rows ...[]any) {
	all := append([][]any{
		row("From", r.From.Format("2006-01-02")),
		row("To", r.To.Format("2006-01-02")),
	}, rows...)
	w.table("Summary", row("Metric", "Value"), all)
}

func (w *workbook) statuses(sheet string, items []report.StatusAggregate) {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, row(it.Status, it.Count, money(it.Amount)))
	}
	w.table(sheet, row("Status", "Count", "Amount"), rows)
}

func (w *workbook) aging(sheet string, items []report.AgingResult) {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, row(it.Label, it.Count, money(it.Amount)))
	}
	w.table(sheet, row("Bucket", "Count", "Amount"), rows)
}

func (w *workbook) ranked(sheet, subject string, items []report.RankedAmount) {
	rows := make([][]any, 0, len(items))
	for i, it := range items {
		rows = append(rows, row(i+1, it.Code, it.Name, money(it.Amount)))
	}
	w.table(sheet, row("Rank", "Code", subject, "Amount"), rows)
}

func row(values ...any) []any {
	return values
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
