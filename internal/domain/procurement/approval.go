package procurement

import (
	"fmt"
	"strings"

	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Approval check names
const (
	CheckAmountMatchesInvoices       = "amount_matches_invoices"
	CheckInvoicesPendingDisbursement = "invoices_pending_disbursement"
	CheckHasInvoices                 = "has_invoices"
	CheckPurposePresent              = "purpose_present"
	CheckRequesterIdentified         = "requester_identified"
)

// AmountTolerance is the largest accepted gap between a requisition and its invoices
var AmountTolerance = decimal.NewFromFloat(0.01)

// ApprovalCheck is one pre-approval validation result
type ApprovalCheck struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Critical bool   `json:"critical"`
	Message  string `json:"message"`
}

// ApprovalChecks is the full pre-approval report
type ApprovalChecks []ApprovalCheck

// FailedCritical returns the critical checks that did not pass
func (c ApprovalChecks) FailedCritical() ApprovalChecks {
	var failed ApprovalChecks
	for _, check := range c {
		if check.Critical && !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}

// CanApprove reports whether every critical check passed
func (c ApprovalChecks) CanApprove() bool {
	return len(c.FailedCritical()) == 0
}

// ValidateForApproval runs the pre-approval checks of a requisition against
// its linked invoices. Only the critical checks gate approval.
func ValidateForApproval(cr *CheckRequisition, invoices []*Invoice) ApprovalChecks {
	linked := make([]*Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if cr.LinksInvoice(inv.ID) {
			linked = append(linked, inv)
		}
	}

	total := decimal.Zero
	notPending := make([]string, 0)
	for _, inv := range linked {
		total = total.Add(inv.NetAmount)
		if inv.Status != InvoiceStatusPendingDisbursement {
			notPending = append(notPending, inv.InvoiceNumber)
		}
	}

	checks := ApprovalChecks{
		{
			Name:     CheckAmountMatchesInvoices,
			Passed:   shared.WithinTolerance(cr.PHPAmount, total, AmountTolerance),
			Critical: true,
			Message:  fmt.Sprintf("Requested amount %s, invoices total %s", cr.PHPAmount.StringFixed(2), total.StringFixed(2)),
		},
		{
			Name:     CheckInvoicesPendingDisbursement,
			Passed:   len(notPending) == 0,
			Critical: true,
			Message:  "All linked invoices are pending disbursement",
		},
		{
			Name:     CheckHasInvoices,
			Passed:   len(linked) > 0,
			Critical: true,
			Message:  fmt.Sprintf("%d linked invoice(s)", len(linked)),
		},
		{
			Name:    CheckPurposePresent,
			Passed:  strings.TrimSpace(cr.Purpose) != "",
			Message: "Purpose is stated",
		},
		{
			Name:    CheckRequesterIdentified,
			Passed:  cr.RequestedBy != nil || strings.TrimSpace(cr.RequestedByName) != "",
			Message: "Requester is identified",
		},
	}
	if len(notPending) > 0 {
		checks[1].Message = "Invoices not pending disbursement: " + strings.Join(notPending, ", ")
	}
	if len(linked) < len(cr.InvoiceIDs) {
		checks[2].Message = fmt.Sprintf("%d of %d linked invoice(s) found", len(linked), len(cr.InvoiceIDs))
	}
	return checks
}

// ApprovalBlockedError is returned when a critical approval check fails
type ApprovalBlockedError struct {
	Failed ApprovalChecks
}

// NewApprovalBlockedError creates an ApprovalBlockedError
func NewApprovalBlockedError(failed ApprovalChecks) *ApprovalBlockedError {
	return &ApprovalBlockedError{Failed: failed}
}

// Error implements the error interface
func (e *ApprovalBlockedError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for _, c := range e.Failed {
		names = append(names, c.Name)
	}
	return "approval blocked by failed checks: " + strings.Join(names, ", ")
}
