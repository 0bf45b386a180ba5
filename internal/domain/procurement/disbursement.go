package procurement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DisbursementStage is the pipeline stage derived from the check dates
type DisbursementStage string

const (
	DisbursementStageDraft     DisbursementStage = "draft"
	DisbursementStageScheduled DisbursementStage = "scheduled"
	DisbursementStagePrinting  DisbursementStage = "printing"
	DisbursementStageReleased  DisbursementStage = "released"
)

// Disbursement is the check paying one or more approved requisitions
type Disbursement struct {
	shared.TenantAggregateRoot
	VoucherNumber             string
	CheckNumber               string
	BankName                  string
	Amount                    decimal.Decimal
	DateCheckScheduled        *time.Time
	DateCheckPrinting         *time.Time
	DateCheckReleasedToVendor *time.Time
	Remarks                   string
	CheckRequisitionIDs       []uuid.UUID
}

// CheckDates are the pipeline dates of a disbursement
type CheckDates struct {
	Scheduled *time.Time
	Printing  *time.Time
	Released  *time.Time
}

// DisbursementDetails holds the editable disbursement fields
type DisbursementDetails struct {
	VoucherNumber       string
	CheckNumber         string
	BankName            string
	Remarks             string
	Dates               CheckDates
	CheckRequisitionIDs []uuid.UUID
}

// ValidateDisbursementDetails checks the request shape before any lookup
func ValidateDisbursementDetails(d DisbursementDetails) error {
	verr := &shared.ValidationError{}
	voucher := strings.TrimSpace(d.VoucherNumber)
	if voucher == "" {
		verr.Add("voucher_number", "Voucher number is required")
	} else if len(voucher) > 50 {
		verr.Add("voucher_number", "Voucher number cannot exceed 50 characters")
	}
	if len(d.CheckRequisitionIDs) == 0 {
		verr.Add("check_requisition_ids", "At least one check requisition is required")
	}
	for _, id := range d.CheckRequisitionIDs {
		if id == uuid.Nil {
			verr.Add("check_requisition_ids", "Check requisition ids must be valid")
			break
		}
	}
	validateCheckDates(d.Dates, verr)
	return verr.OrNil()
}

// NewDisbursement creates a disbursement. Requisitions are attached by the cascade.
func NewDisbursement(tenantID, createdBy uuid.UUID, details DisbursementDetails) (*Disbursement, error) {
	if err := ValidateDisbursementDetails(details); err != nil {
		return nil, err
	}
	d := &Disbursement{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Amount:              decimal.Zero,
	}
	d.apply(details)
	return d, nil
}

// Update replaces the voucher fields and dates
func (d *Disbursement) Update(details DisbursementDetails) error {
	if err := ValidateDisbursementDetails(details); err != nil {
		return err
	}
	d.apply(details)
	d.MarkModified(time.Now().UTC())
	return nil
}

// AttachRequisitions sets the attached requisitions and recomputes the amount
func (d *Disbursement) AttachRequisitions(reqs []*CheckRequisition) {
	ids := make([]uuid.UUID, 0, len(reqs))
	total := decimal.Zero
	for _, r := range reqs {
		ids = append(ids, r.ID)
		total = total.Add(r.PHPAmount)
	}
	d.CheckRequisitionIDs = ids
	d.Amount = total
}

// IsReleased reports whether the check has been released to the vendor
func (d *Disbursement) IsReleased() bool {
	return d.DateCheckReleasedToVendor != nil
}

// Stage returns the furthest pipeline stage reached
func (d *Disbursement) Stage() DisbursementStage {
	switch {
	case d.DateCheckReleasedToVendor != nil:
		return DisbursementStageReleased
	case d.DateCheckPrinting != nil:
		return DisbursementStagePrinting
	case d.DateCheckScheduled != nil:
		return DisbursementStageScheduled
	}
	return DisbursementStageDraft
}

// RecordCascade raises the change event once the cascade has been applied
func (d *Disbursement) RecordCascade(kind CascadeKind) {
	eventType := EventTypeDisbursementUpdated
	switch kind {
	case CascadeCreate:
		eventType = EventTypeDisbursementCreated
	case CascadeDelete:
		eventType = EventTypeDisbursementDeleted
	}
	d.AddDomainEvent(NewDisbursementChangedEvent(d, eventType))
}

func (d *Disbursement) apply(details DisbursementDetails) {
	d.VoucherNumber = strings.TrimSpace(details.VoucherNumber)
	d.CheckNumber = strings.TrimSpace(details.CheckNumber)
	d.BankName = strings.TrimSpace(details.BankName)
	d.Remarks = strings.TrimSpace(details.Remarks)
	d.DateCheckScheduled = truncateDay(details.Dates.Scheduled)
	d.DateCheckPrinting = truncateDay(details.Dates.Printing)
	d.DateCheckReleasedToVendor = truncateDay(details.Dates.Released)
	d.CheckRequisitionIDs = dedupeIDs(details.CheckRequisitionIDs)
}

func validateCheckDates(dates CheckDates, verr *shared.ValidationError) {
	if dates.Scheduled != nil && dates.Printing != nil && dates.Printing.Before(*dates.Scheduled) {
		verr.Add("date_check_printing", "Printing date must not be before the scheduled date")
	}
	if dates.Released != nil {
		if dates.Printing != nil && dates.Released.Before(*dates.Printing) {
			verr.Add("date_check_released_to_vendor", "Release date must not be before the printing date")
		} else if dates.Scheduled != nil && dates.Released.Before(*dates.Scheduled) {
			verr.Add("date_check_released_to_vendor", "Release date must not be before the scheduled date")
		}
	}
}

func truncateDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}
