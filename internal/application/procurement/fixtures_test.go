package procurement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

// testRepos holds one mock per repository
type testRepos struct {
	vendors       *MockVendorRepository
	projects      *MockProjectRepository
	orders        *MockPurchaseOrderRepository
	invoices      *MockInvoiceRepository
	requisitions  *MockRequisitionRepository
	disbursements *MockDisbursementRepository
	files         *MockFileRepository
	logs          *MockActivityLogRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		vendors:       new(MockVendorRepository),
		projects:      new(MockProjectRepository),
		orders:        new(MockPurchaseOrderRepository),
		invoices:      new(MockInvoiceRepository),
		requisitions:  new(MockRequisitionRepository),
		disbursements: new(MockDisbursementRepository),
		files:         new(MockFileRepository),
		logs:          new(MockActivityLogRepository),
	}
}

func (r *testRepos) repositories() Repositories {
	return Repositories{
		Vendors:        r.vendors,
		Projects:       r.projects,
		PurchaseOrders: r.orders,
		Invoices:       r.invoices,
		Requisitions:   r.requisitions,
		Disbursements:  r.disbursements,
		Files:          r.files,
		ActivityLogs:   r.logs,
	}
}

func (r *testRepos) scope() TransactionScope {
	return NewNoOpTransactionScope(r.repositories())
}

func (r *testRepos) expectActivityLog() {
	r.logs.On("Create", mock.Anything, mock.Anything).Return(nil)
}

func (r *testRepos) assertExpectations(t *testing.T) {
	t.Helper()
	r.vendors.AssertExpectations(t)
	r.projects.AssertExpectations(t)
	r.orders.AssertExpectations(t)
	r.invoices.AssertExpectations(t)
	r.requisitions.AssertExpectations(t)
	r.disbursements.AssertExpectations(t)
	r.files.AssertExpectations(t)
	r.logs.AssertExpectations(t)
}

func writer(tenantID uuid.UUID) identity.Principal {
	perms := make([]identity.ModulePermission, 0, len(identity.AllModules()))
	for _, m := range identity.AllModules() {
		perms = append(perms, identity.ModulePermission{Module: m, CanRead: true, CanWrite: true})
	}
	return identity.NewPrincipal(uuid.New(), tenantID, "treasurer", identity.RoleTreasury, "10.0.0.1", perms)
}

func reader(tenantID uuid.UUID, modules ...identity.Module) identity.Principal {
	perms := make([]identity.ModulePermission, 0, len(modules))
	for _, m := range modules {
		perms = append(perms, identity.ModulePermission{Module: m, CanRead: true})
	}
	return identity.NewPrincipal(uuid.New(), tenantID, "viewer", identity.RoleExecutive, "", perms)
}

func newInvoice(t *testing.T, tenantID uuid.UUID, poID *uuid.UUID, net int64, status procurement.InvoiceStatus) *procurement.Invoice {
	t.Helper()
	inv, err := procurement.NewInvoice(tenantID, uuid.New(), procurement.InvoiceDetails{
		InvoiceNumber:   "SI-" + uuid.NewString()[:8],
		PurchaseOrderID: poID,
		VendorID:        uuid.New(),
		InvoiceDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		GrossAmount:     decimal.NewFromInt(net),
		NetAmount:       decimal.NewFromInt(net),
	})
	require.NoError(t, err)
	inv.Status = status
	inv.ClearDomainEvents()
	return inv
}

func newRequisition(t *testing.T, tenantID uuid.UUID, amount int64, status procurement.RequisitionStatus, invoices ...*procurement.Invoice) *procurement.CheckRequisition {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	cr, err := procurement.NewCheckRequisition(tenantID, uuid.New(), "CR-202610-0001", procurement.RequisitionDetails{
		PayeeName:   "ACME Supply",
		PHPAmount:   decimal.NewFromInt(amount),
		Purpose:     "Payment of delivered materials",
		RequestDate: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		InvoiceIDs:  ids,
	})
	require.NoError(t, err)
	cr.Status = status
	cr.ClearDomainEvents()
	return cr
}

func newOpenPurchaseOrder(t *testing.T, tenantID uuid.UUID, amount int64) *procurement.PurchaseOrder {
	t.Helper()
	po, err := procurement.NewPurchaseOrder(tenantID, uuid.New(), "PO-202610-0001", procurement.PurchaseOrderDetails{
		VendorID:  uuid.New(),
		ProjectID: uuid.New(),
		Amount:    decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	require.NoError(t, po.Finalize(uuid.New()))
	po.ClearDomainEvents()
	return po
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
