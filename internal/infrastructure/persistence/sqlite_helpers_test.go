package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens an isolated in-memory database with every table migrated.
// One connection keeps the in-memory database shared across queries.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.VendorModel{},
		&models.ProjectModel{},
		&models.PurchaseOrderModel{},
		&models.InvoiceModel{},
		&models.CheckRequisitionModel{},
		&models.CheckRequisitionInvoiceModel{},
		&models.DisbursementModel{},
		&models.DisbursementRequisitionModel{},
		&models.FileModel{},
		&models.RemarkModel{},
		&models.ActivityLogModel{},
		&models.UserModel{},
		&models.UserPermissionModel{},
	))
	return db
}

// fixture seeds procurement rows for one tenant
type fixture struct {
	t       *testing.T
	ctx     context.Context
	db      *gorm.DB
	tenant  uuid.UUID
	actor   uuid.UUID
	vendor  *procurement.Vendor
	project *procurement.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		db:     newSQLiteDB(t),
		tenant: uuid.New(),
		actor:  uuid.New(),
	}
	f.vendor = f.addVendor("ACME", "Acme Supplies")
	f.project = f.addProject("TOWER", "Tower Fit-out")
	return f
}

func (f *fixture) addVendor(code, name string) *procurement.Vendor {
	v, err := procurement.NewVendor(f.tenant, f.actor, code, procurement.VendorDetails{Name: name, PaymentTermsDays: 30})
	require.NoError(f.t, err)
	require.NoError(f.t, NewGormVendorRepository(f.db).Create(f.ctx, v))
	return v
}

func (f *fixture) addProject(code, name string) *procurement.Project {
	p, err := procurement.NewProject(f.tenant, f.actor, code, procurement.ProjectDetails{Name: name})
	require.NoError(f.t, err)
	require.NoError(f.t, NewGormProjectRepository(f.db).Create(f.ctx, p))
	return p
}

func (f *fixture) addPurchaseOrder(number string, amount int64) *procurement.PurchaseOrder {
	po, err := procurement.NewPurchaseOrder(f.tenant, f.actor, number, procurement.PurchaseOrderDetails{
		VendorID:  f.vendor.ID,
		ProjectID: f.project.ID,
		Amount:    decimal.NewFromInt(amount),
		Currency:  "PHP",
	})
	require.NoError(f.t, err)
	require.NoError(f.t, NewGormPurchaseOrderRepository(f.db).Create(f.ctx, po))
	return po
}

func (f *fixture) addInvoice(number string, net int64, status procurement.InvoiceStatus, receivedAt *time.Time) *procurement.Invoice {
	inv, err := procurement.NewInvoice(f.tenant, f.actor, procurement.InvoiceDetails{
		InvoiceNumber: number,
		VendorID:      f.vendor.ID,
		ProjectID:     &f.project.ID,
		InvoiceDate:   day(2026, 10, 1),
		GrossAmount:   decimal.NewFromInt(net),
		NetAmount:     decimal.NewFromInt(net),
	})
	require.NoError(f.t, err)
	inv.Status = status
	inv.SIReceivedAt = receivedAt
	require.NoError(f.t, NewGormInvoiceRepository(f.db).Create(f.ctx, inv))
	return inv
}

func (f *fixture) addRequisition(number string, amount int64, status procurement.RequisitionStatus, invoices ...*procurement.Invoice) *procurement.CheckRequisition {
	ids := make([]uuid.UUID, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	cr, err := procurement.NewCheckRequisition(f.tenant, f.actor, number, procurement.RequisitionDetails{
		VendorID:    &f.vendor.ID,
		PHPAmount:   decimal.NewFromInt(amount),
		RequestDate: day(2026, 10, 2),
		InvoiceIDs:  ids,
	})
	require.NoError(f.t, err)
	cr.Status = status
	require.NoError(f.t, NewGormCheckRequisitionRepository(f.db).Create(f.ctx, cr))
	return cr
}

func (f *fixture) addDisbursement(voucher string, dates procurement.CheckDates, reqs ...*procurement.CheckRequisition) *procurement.Disbursement {
	ids := make([]uuid.UUID, len(reqs))
	for i, cr := range reqs {
		ids[i] = cr.ID
	}
	d, err := procurement.NewDisbursement(f.tenant, f.actor, procurement.DisbursementDetails{
		VoucherNumber:       voucher,
		Dates:               dates,
		CheckRequisitionIDs: ids,
	})
	require.NoError(f.t, err)
	d.AttachRequisitions(reqs)
	require.NoError(f.t, NewGormDisbursementRepository(f.db).Create(f.ctx, d))
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}
