package printing

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// VariousPayees is printed when the requisitions pay more than one payee
const VariousPayees = "Various"

// VoucherLine is one requisition paid by the check
type VoucherLine struct {
	RequisitionNumber string
	Payee             string
	Purpose           string
	Amount            decimal.Decimal
}

// Voucher is the printable check voucher of a disbursement
type Voucher struct {
	VoucherNumber string
	CheckNumber   string
	BankName      string
	Payee         string
	Amount        decimal.Decimal
	Scheduled     *time.Time
	Printing      *time.Time
	Released      *time.Time
	Remarks       string
	Lines         []VoucherLine
	PreparedBy    string
	PrintedAt     time.Time
	Layout        Layout
}

// NewVoucher assembles a voucher. Lines follow the disbursement's requisition
// order; payees resolves vendor names for requisitions without a payee name.
func NewVoucher(
	d *procurement.Disbursement,
	reqs []*procurement.CheckRequisition,
	payees map[uuid.UUID]string,
	preparedBy string,
	printedAt time.Time,
) (*Voucher, error) {
	byID := make(map[uuid.UUID]*procurement.CheckRequisition, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
	}

	v := &Voucher{
		VoucherNumber: d.VoucherNumber,
		CheckNumber:   d.CheckNumber,
		BankName:      d.BankName,
		Amount:        d.Amount,
		Scheduled:     d.DateCheckScheduled,
		Printing:      d.DateCheckPrinting,
		Released:      d.DateCheckReleasedToVendor,
		Remarks:       d.Remarks,
		Lines:         make([]VoucherLine, 0, len(d.CheckRequisitionIDs)),
		PreparedBy:    preparedBy,
		PrintedAt:     printedAt.UTC(),
		Layout:        VoucherLayout(),
	}

	for _, id := range d.CheckRequisitionIDs {
		r, ok := byID[id]
		if !ok {
			return nil, shared.NewDomainError("VOUCHER_INCOMPLETE", "A requisition of this disbursement could not be loaded")
		}
		payee := r.PayeeName
		if payee == "" && r.VendorID != nil {
			payee = payees[*r.VendorID]
		}
		v.Lines = append(v.Lines, VoucherLine{
			RequisitionNumber: r.RequisitionNumber,
			Payee:             payee,
			Purpose:           r.Purpose,
			Amount:            r.PHPAmount,
		})
		switch {
		case v.Payee == "":
			v.Payee = payee
		case v.Payee != payee:
			v.Payee = VariousPayees
		}
	}
	return v, nil
}
