package printing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/printing"
	"github.com/procurement/backend/internal/domain/procurement"
	"go.uber.org/zap"
)

// DisbursementReader loads disbursements
type DisbursementReader interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Disbursement, error)
}

// RequisitionReader loads check requisitions
type RequisitionReader interface {
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.CheckRequisition, error)
}

// VendorReader loads vendors
type VendorReader interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Vendor, error)
}

// VoucherPrinter turns a voucher into a PDF
type VoucherPrinter interface {
	PrintVoucher(ctx context.Context, v *printing.Voucher) ([]byte, error)
}

// VoucherService prints check vouchers for disbursements
type VoucherService struct {
	disbursements DisbursementReader
	requisitions  RequisitionReader
	vendors       VendorReader
	printer       VoucherPrinter
	now           func() time.Time
	logger        *zap.Logger
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(
	disbursements DisbursementReader,
	requisitions RequisitionReader,
	vendors VendorReader,
	printer VoucherPrinter,
	logger *zap.Logger,
) *VoucherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoucherService{
		disbursements: disbursements,
		requisitions:  requisitions,
		vendors:       vendors,
		printer:       printer,
		now:           time.Now,
		logger:        logger,
	}
}

// Print renders the check voucher of a disbursement
func (s *VoucherService) Print(ctx context.Context, p identity.Principal, disbursementID uuid.UUID) (*VoucherPDF, error) {
	if err := p.Authorize(identity.ModuleDisbursements, identity.AccessRead); err != nil {
		return nil, err
	}
	if s.printer == nil {
		return nil, ErrPrintingUnavailable
	}

	d, err := s.disbursements.FindByID(ctx, p.TenantID, disbursementID)
	if err != nil {
		return nil, err
	}
	reqs, err := s.requisitions.FindByIDs(ctx, p.TenantID, d.CheckRequisitionIDs)
	if err != nil {
		return nil, err
	}
	payees, err := s.payeeNames(ctx, p, reqs)
	if err != nil {
		return nil, err
	}

	v, err := printing.NewVoucher(d, reqs, payees, p.Username, s.now())
	if err != nil {
		return nil, err
	}
	pdf, err := s.printer.PrintVoucher(ctx, v)
	if err != nil {
		s.logger.Error("Failed to print voucher",
			zap.String("disbursement_id", d.ID.String()),
			zap.String("voucher_number", d.VoucherNumber),
			zap.Error(err))
		return nil, err
	}
	return &VoucherPDF{
		FileName: voucherFileName(d.VoucherNumber),
		Content:  pdf,
	}, nil
}

// payeeNames resolves vendor names for requisitions that carry no payee name
func (s *VoucherService) payeeNames(ctx context.Context, p identity.Principal, reqs []*procurement.CheckRequisition) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string)
	for _, r := range reqs {
		if r.PayeeName != "" || r.VendorID == nil {
			continue
		}
		if _, ok := names[*r.VendorID]; ok {
			continue
		}
		v, err := s.vendors.FindByID(ctx, p.TenantID, *r.VendorID)
		if err != nil {
			return nil, err
		}
		names[v.ID] = v.Name
	}
	return names, nil
}
