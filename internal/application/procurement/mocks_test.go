package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockVendorRepository is a mock implementation of VendorRepository
type MockVendorRepository struct {
	mock.Mock
}

func (m *MockVendorRepository) Create(ctx context.Context, vendor *procurement.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) SaveWithLock(ctx context.Context, vendor *procurement.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Vendor, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Vendor), args.Error(1)
}

func (m *MockVendorRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.Vendor, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*procurement.Vendor), args.Get(1).(int64), args.Error(2)
}

func (m *MockVendorRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

// MockProjectRepository is a mock implementation of ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *procurement.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) SaveWithLock(ctx context.Context, project *procurement.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Project, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Project), args.Error(1)
}

func (m *MockProjectRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.Project, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*procurement.Project), args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

// MockPurchaseOrderRepository is a mock implementation of PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) Create(ctx context.Context, po *procurement.PurchaseOrder) error {
	args := m.Called(ctx, po)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, po *procurement.PurchaseOrder) error {
	args := m.Called(ctx, po)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*procurement.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.PurchaseOrder, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*procurement.PurchaseOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseOrderRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error) {
	args := m.Called(ctx, tenantID, at)
	return args.String(0), args.Error(1)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *procurement.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *procurement.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*procurement.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*procurement.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByPurchaseOrder(ctx context.Context, tenantID, poID uuid.UUID) ([]*procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, poID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*procurement.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.Invoice, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*procurement.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID, vendorID uuid.UUID, number string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, vendorID, number, excludeID)
	return args.Bool(0), args.Error(1)
}

// MockRequisitionRepository is a mock implementation of CheckRequisitionRepository
type MockRequisitionRepository struct {
	mock.Mock
}

func (m *MockRequisitionRepository) Create(ctx context.Context, cr *procurement.CheckRequisition) error {
	args := m.Called(ctx, cr)
	return args.Error(0)
}

func (m *MockRequisitionRepository) SaveWithLock(ctx context.Context, cr *procurement.CheckRequisition) error {
	args := m.Called(ctx, cr)
	return args.Error(0)
}

func (m *MockRequisitionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.CheckRequisition, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.CheckRequisition), args.Error(1)
}

func (m *MockRequisitionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*procurement.CheckRequisition, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.CheckRequisition), args.Error(1)
}

func (m *MockRequisitionRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.CheckRequisition, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*procurement.CheckRequisition), args.Error(1)
}

func (m *MockRequisitionRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.CheckRequisition, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*procurement.CheckRequisition), args.Error(1)
}

func (m *MockRequisitionRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.CheckRequisition, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*procurement.CheckRequisition), args.Get(1).(int64), args.Error(2)
}

func (m *MockRequisitionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockRequisitionRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error) {
	args := m.Called(ctx, tenantID, at)
	return args.String(0), args.Error(1)
}

func (m *MockRequisitionRepository) ExternalRefs(ctx context.Context, tenantID uuid.UUID, invoiceIDs, excludeRequisitionIDs []uuid.UUID) (map[uuid.UUID]procurement.ExternalRefs, error) {
	args := m.Called(ctx, tenantID, invoiceIDs, excludeRequisitionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]procurement.ExternalRefs), args.Error(1)
}

func (m *MockRequisitionRepository) FindDisbursementID(ctx context.Context, tenantID, requisitionID uuid.UUID) (*uuid.UUID, error) {
	args := m.Called(ctx, tenantID, requisitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uuid.UUID), args.Error(1)
}

// MockDisbursementRepository is a mock implementation of DisbursementRepository
type MockDisbursementRepository struct {
	mock.Mock
}

func (m *MockDisbursementRepository) Create(ctx context.Context, d *procurement.Disbursement) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDisbursementRepository) SaveWithLock(ctx context.Context, d *procurement.Disbursement) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDisbursementRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Disbursement, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Disbursement, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.Disbursement, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*procurement.Disbursement), args.Get(1).(int64), args.Error(2)
}

func (m *MockDisbursementRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockDisbursementRepository) ExistsByVoucherNumber(ctx context.Context, tenantID uuid.UUID, voucher string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, voucher, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDisbursementRepository) FindAttachedElsewhere(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, excludeID *uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, ids, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockFileRepository is a mock implementation of FileRepository
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, file *attachment.File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockFileRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*attachment.File, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attachment.File), args.Error(1)
}

func (m *MockFileRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef) ([]*attachment.File, error) {
	args := m.Called(ctx, tenantID, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*attachment.File), args.Error(1)
}

func (m *MockFileRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockActivityLogRepository is a mock implementation of ActivityLogRepository
type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) Create(ctx context.Context, log *audit.ActivityLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockActivityLogRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef, filter shared.Filter) ([]*audit.ActivityLog, int64, error) {
	args := m.Called(ctx, tenantID, subject, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*audit.ActivityLog), args.Get(1).(int64), args.Error(2)
}

func (m *MockActivityLogRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*audit.ActivityLog, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*audit.ActivityLog), args.Get(1).(int64), args.Error(2)
}
