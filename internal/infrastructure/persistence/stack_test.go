package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	dashboardapp "github.com/procurement/backend/internal/application/dashboard"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/infrastructure/cache"
	"github.com/procurement/backend/internal/infrastructure/event"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// procurementStack wires the procurement services over real repositories
type procurementStack struct {
	vendors       *procurementapp.VendorService
	projects      *procurementapp.ProjectService
	orders        *procurementapp.PurchaseOrderService
	invoices      *procurementapp.InvoiceService
	requisitions  *procurementapp.CheckRequisitionService
	disbursements *procurementapp.DisbursementService
	dashCache     *cache.InMemoryDashboardCache
}

func newProcurementStack(db *gorm.DB) *procurementStack {
	repos := procurementapp.Repositories{
		Vendors:        NewGormVendorRepository(db),
		Projects:       NewGormProjectRepository(db),
		PurchaseOrders: NewGormPurchaseOrderRepository(db),
		Invoices:       NewGormInvoiceRepository(db),
		Requisitions:   NewGormCheckRequisitionRepository(db),
		Disbursements:  NewGormDisbursementRepository(db),
		Files:          NewGormFileRepository(db),
		ActivityLogs:   NewGormActivityLogRepository(db),
	}
	scope := NewGormTransactionScope(db)
	log := zap.NewNop()

	dashCache := cache.NewInMemoryDashboardCache()
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(dashboardapp.NewInvalidationHandler(dashCache, log))

	s := &procurementStack{
		vendors:       procurementapp.NewVendorService(repos.Vendors, scope),
		projects:      procurementapp.NewProjectService(repos.Projects, scope),
		orders:        procurementapp.NewPurchaseOrderService(repos, scope, log),
		invoices:      procurementapp.NewInvoiceService(repos, scope, log),
		requisitions:  procurementapp.NewCheckRequisitionService(repos, scope, log),
		disbursements: procurementapp.NewDisbursementService(repos, scope, log),
		dashCache:     dashCache,
	}
	s.invoices.SetEventPublisher(bus)
	s.requisitions.SetEventPublisher(bus)
	s.disbursements.SetEventPublisher(bus)
	s.disbursements.SetObjectStorage(storage.NewMemoryStorage(time.Minute))
	return s
}

func assertInvoiceStatus(t *testing.T, s *procurementStack, p identity.Principal, id uuid.UUID, want string) {
	t.Helper()
	inv, err := s.invoices.GetByID(context.Background(), p, id)
	require.NoError(t, err)
	assert.Equal(t, want, inv.Status)
}

func assertRequisitionStatus(t *testing.T, s *procurementStack, p identity.Principal, id uuid.UUID, want string) {
	t.Helper()
	cr, err := s.requisitions.GetByID(context.Background(), p, id)
	require.NoError(t, err)
	assert.Equal(t, want, cr.Status)
}
