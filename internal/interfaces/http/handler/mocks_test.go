package handler

import (
	"context"

	"github.com/google/uuid"
	attachmentapp "github.com/procurement/backend/internal/application/attachment"
	auditapp "github.com/procurement/backend/internal/application/audit"
	dashboardapp "github.com/procurement/backend/internal/application/dashboard"
	identityapp "github.com/procurement/backend/internal/application/identity"
	printingapp "github.com/procurement/backend/internal/application/printing"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/mock"
)

func mockOne[T any](args mock.Arguments) (*T, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func mockPage[T any](args mock.Arguments) ([]T, int64, error) {
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]T), args.Get(1).(int64), args.Error(2)
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req identityapp.LoginRequest, ip string) (*identityapp.LoginResult, error) {
	return mockOne[identityapp.LoginResult](m.Called(ctx, req, ip))
}

func (m *MockAuthService) Refresh(ctx context.Context, req identityapp.RefreshRequest) (*identityapp.LoginResult, error) {
	return mockOne[identityapp.LoginResult](m.Called(ctx, req))
}

func (m *MockAuthService) Logout(ctx context.Context, access *auth.Claims, req identityapp.LogoutRequest) error {
	return m.Called(ctx, access, req).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, p identity.Principal) (*identityapp.UserResponse, error) {
	return mockOne[identityapp.UserResponse](m.Called(ctx, p))
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, p identity.Principal, req identityapp.CreateUserRequest) (*identityapp.UserResponse, error) {
	return mockOne[identityapp.UserResponse](m.Called(ctx, p, req))
}

func (m *MockUserService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*identityapp.UserResponse, error) {
	return mockOne[identityapp.UserResponse](m.Called(ctx, p, id))
}

func (m *MockUserService) List(ctx context.Context, p identity.Principal, filter identityapp.UserListFilter) ([]identityapp.UserResponse, int64, error) {
	return mockPage[identityapp.UserResponse](m.Called(ctx, p, filter))
}

func (m *MockUserService) SetPermissions(ctx context.Context, p identity.Principal, id uuid.UUID, req identityapp.SetPermissionsRequest) (*identityapp.UserResponse, error) {
	return mockOne[identityapp.UserResponse](m.Called(ctx, p, id, req))
}

func (m *MockUserService) Deactivate(ctx context.Context, p identity.Principal, id uuid.UUID) (*identityapp.UserResponse, error) {
	return mockOne[identityapp.UserResponse](m.Called(ctx, p, id))
}

// MockVendorService is a mock implementation of VendorService
type MockVendorService struct {
	mock.Mock
}

func (m *MockVendorService) Create(ctx context.Context, p identity.Principal, req procurementapp.CreateVendorRequest) (*procurementapp.VendorResponse, error) {
	return mockOne[procurementapp.VendorResponse](m.Called(ctx, p, req))
}

func (m *MockVendorService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.UpdateVendorRequest) (*procurementapp.VendorResponse, error) {
	return mockOne[procurementapp.VendorResponse](m.Called(ctx, p, id, req))
}

func (m *MockVendorService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.VendorResponse, error) {
	return mockOne[procurementapp.VendorResponse](m.Called(ctx, p, id))
}

func (m *MockVendorService) List(ctx context.Context, p identity.Principal, filter procurementapp.VendorListFilter) ([]procurementapp.VendorResponse, int64, error) {
	return mockPage[procurementapp.VendorResponse](m.Called(ctx, p, filter))
}

// MockPurchaseOrderService is a mock implementation of PurchaseOrderService
type MockPurchaseOrderService struct {
	mock.Mock
}

func (m *MockPurchaseOrderService) Create(ctx context.Context, p identity.Principal, req procurementapp.PurchaseOrderRequest) (*procurementapp.PurchaseOrderResponse, error) {
	return mockOne[procurementapp.PurchaseOrderResponse](m.Called(ctx, p, req))
}

func (m *MockPurchaseOrderService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.PurchaseOrderRequest) (*procurementapp.PurchaseOrderResponse, error) {
	return mockOne[procurementapp.PurchaseOrderResponse](m.Called(ctx, p, id, req))
}

func (m *MockPurchaseOrderService) Finalize(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.PurchaseOrderResponse, error) {
	return mockOne[procurementapp.PurchaseOrderResponse](m.Called(ctx, p, id))
}

func (m *MockPurchaseOrderService) Close(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.PurchaseOrderResponse, error) {
	return mockOne[procurementapp.PurchaseOrderResponse](m.Called(ctx, p, id))
}

func (m *MockPurchaseOrderService) Cancel(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.CancelRequest) (*procurementapp.PurchaseOrderResponse, error) {
	return mockOne[procurementapp.PurchaseOrderResponse](m.Called(ctx, p, id, req))
}

func (m *MockPurchaseOrderService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

func (m *MockPurchaseOrderService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.PurchaseOrderResponse, error) {
	return mockOne[procurementapp.PurchaseOrderResponse](m.Called(ctx, p, id))
}

func (m *MockPurchaseOrderService) List(ctx context.Context, p identity.Principal, filter procurementapp.PurchaseOrderListFilter) ([]procurementapp.PurchaseOrderResponse, int64, error) {
	return mockPage[procurementapp.PurchaseOrderResponse](m.Called(ctx, p, filter))
}

// MockInvoiceService is a mock implementation of InvoiceService
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, p identity.Principal, req procurementapp.InvoiceRequest) (*procurementapp.InvoiceResponse, error) {
	return mockOne[procurementapp.InvoiceResponse](m.Called(ctx, p, req))
}

func (m *MockInvoiceService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.InvoiceRequest) (*procurementapp.InvoiceResponse, error) {
	return mockOne[procurementapp.InvoiceResponse](m.Called(ctx, p, id, req))
}

func (m *MockInvoiceService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

func (m *MockInvoiceService) Receive(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error) {
	return mockOne[procurementapp.InvoiceResponse](m.Called(ctx, p, id))
}

func (m *MockInvoiceService) StartReview(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error) {
	return mockOne[procurementapp.InvoiceResponse](m.Called(ctx, p, id))
}

func (m *MockInvoiceService) Approve(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error) {
	return mockOne[procurementapp.InvoiceResponse](m.Called(ctx, p, id))
}

func (m *MockInvoiceService) Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.RejectRequest) (*procurementapp.InvoiceResponse, error) {
	return mockOne[procurementapp.InvoiceResponse](m.Called(ctx, p, id, req))
}

func (m *MockInvoiceService) Resubmit(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error) {
	return mockOne[procurementapp.InvoiceResponse](m.Called(ctx, p, id))
}

func (m *MockInvoiceService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error) {
	return mockOne[procurementapp.InvoiceResponse](m.Called(ctx, p, id))
}

func (m *MockInvoiceService) List(ctx context.Context, p identity.Principal, filter procurementapp.InvoiceListFilter) ([]procurementapp.InvoiceResponse, int64, error) {
	return mockPage[procurementapp.InvoiceResponse](m.Called(ctx, p, filter))
}

// MockCheckRequisitionService is a mock implementation of CheckRequisitionService
type MockCheckRequisitionService struct {
	mock.Mock
}

func (m *MockCheckRequisitionService) Create(ctx context.Context, p identity.Principal, req procurementapp.CheckRequisitionRequest) (*procurementapp.CheckRequisitionResponse, error) {
	return mockOne[procurementapp.CheckRequisitionResponse](m.Called(ctx, p, req))
}

func (m *MockCheckRequisitionService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.CheckRequisitionRequest) (*procurementapp.CheckRequisitionResponse, error) {
	return mockOne[procurementapp.CheckRequisitionResponse](m.Called(ctx, p, id, req))
}

func (m *MockCheckRequisitionService) Approve(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.CheckRequisitionResponse, error) {
	return mockOne[procurementapp.CheckRequisitionResponse](m.Called(ctx, p, id))
}

func (m *MockCheckRequisitionService) Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.RejectRequest) (*procurementapp.CheckRequisitionResponse, error) {
	return mockOne[procurementapp.CheckRequisitionResponse](m.Called(ctx, p, id, req))
}

func (m *MockCheckRequisitionService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

func (m *MockCheckRequisitionService) ApprovalChecks(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.ApprovalChecksResponse, error) {
	return mockOne[procurementapp.ApprovalChecksResponse](m.Called(ctx, p, id))
}

func (m *MockCheckRequisitionService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.CheckRequisitionResponse, error) {
	return mockOne[procurementapp.CheckRequisitionResponse](m.Called(ctx, p, id))
}

func (m *MockCheckRequisitionService) List(ctx context.Context, p identity.Principal, filter procurementapp.CheckRequisitionListFilter) ([]procurementapp.CheckRequisitionResponse, int64, error) {
	return mockPage[procurementapp.CheckRequisitionResponse](m.Called(ctx, p, filter))
}

// MockDisbursementService is a mock implementation of DisbursementService
type MockDisbursementService struct {
	mock.Mock
}

func (m *MockDisbursementService) Create(ctx context.Context, p identity.Principal, req procurementapp.DisbursementRequest) (*procurementapp.DisbursementResponse, error) {
	return mockOne[procurementapp.DisbursementResponse](m.Called(ctx, p, req))
}

func (m *MockDisbursementService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.DisbursementRequest) (*procurementapp.DisbursementResponse, error) {
	return mockOne[procurementapp.DisbursementResponse](m.Called(ctx, p, id, req))
}

func (m *MockDisbursementService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

func (m *MockDisbursementService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.DisbursementResponse, error) {
	return mockOne[procurementapp.DisbursementResponse](m.Called(ctx, p, id))
}

func (m *MockDisbursementService) List(ctx context.Context, p identity.Principal, filter procurementapp.DisbursementListFilter) ([]procurementapp.DisbursementResponse, int64, error) {
	return mockPage[procurementapp.DisbursementResponse](m.Called(ctx, p, filter))
}

// MockVoucherPrinter is a mock implementation of VoucherPrinter
type MockVoucherPrinter struct {
	mock.Mock
}

func (m *MockVoucherPrinter) Print(ctx context.Context, p identity.Principal, disbursementID uuid.UUID) (*printingapp.VoucherPDF, error) {
	return mockOne[printingapp.VoucherPDF](m.Called(ctx, p, disbursementID))
}

// MockFileService is a mock implementation of FileService
type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID, upload attachmentapp.Upload) (*attachmentapp.FileResponse, error) {
	return mockOne[attachmentapp.FileResponse](m.Called(ctx, p, subjectType, subjectID, upload))
}

func (m *MockFileService) List(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID) ([]attachmentapp.FileResponse, error) {
	args := m.Called(ctx, p, subjectType, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]attachmentapp.FileResponse), args.Error(1)
}

func (m *MockFileService) Download(ctx context.Context, p identity.Principal, fileID uuid.UUID) (*attachmentapp.DownloadResponse, error) {
	return mockOne[attachmentapp.DownloadResponse](m.Called(ctx, p, fileID))
}

func (m *MockFileService) Delete(ctx context.Context, p identity.Principal, fileID uuid.UUID) error {
	return m.Called(ctx, p, fileID).Error(0)
}

// MockRemarkService is a mock implementation of RemarkService
type MockRemarkService struct {
	mock.Mock
}

func (m *MockRemarkService) Create(ctx context.Context, p identity.Principal, req attachmentapp.CreateRemarkRequest) (*attachmentapp.RemarkResponse, error) {
	return mockOne[attachmentapp.RemarkResponse](m.Called(ctx, p, req))
}

func (m *MockRemarkService) List(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID, filter shared.Filter) ([]attachmentapp.RemarkResponse, int64, error) {
	return mockPage[attachmentapp.RemarkResponse](m.Called(ctx, p, subjectType, subjectID, filter))
}

func (m *MockRemarkService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	return m.Called(ctx, p, id).Error(0)
}

// MockActivityLogService is a mock implementation of ActivityLogService
type MockActivityLogService struct {
	mock.Mock
}

func (m *MockActivityLogService) List(ctx context.Context, p identity.Principal, filter auditapp.ActivityLogListFilter) ([]auditapp.ActivityLogResponse, int64, error) {
	return mockPage[auditapp.ActivityLogResponse](m.Called(ctx, p, filter))
}

// MockDashboardService is a mock implementation of DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) ForPrincipal(ctx context.Context, p identity.Principal, q dashboardapp.Query) (*dashboardapp.DashboardResponse, error) {
	return mockOne[dashboardapp.DashboardResponse](m.Called(ctx, p, q))
}

func (m *MockDashboardService) ForRole(ctx context.Context, p identity.Principal, roleName string, q dashboardapp.Query) (*dashboardapp.DashboardResponse, error) {
	return mockOne[dashboardapp.DashboardResponse](m.Called(ctx, p, roleName, q))
}

// MockDashboardExporter is a mock implementation of DashboardExporter
type MockDashboardExporter struct {
	mock.Mock
}

func (m *MockDashboardExporter) Export(ctx context.Context, p identity.Principal, roleName string, q dashboardapp.Query) (*dashboardapp.Export, error) {
	return mockOne[dashboardapp.Export](m.Called(ctx, p, roleName, q))
}
