//go:build integration

package persistence

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	attachmentapp "github.com/procurement/backend/internal/application/attachment"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/migration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// newPostgresDB starts a disposable PostgreSQL container and applies the
// migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("p2p_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.Open(dsn, migrationsDir(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestPostgres_DisbursementCascade(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	s := newProcurementStack(newPostgresDB(t))
	admin := identity.NewPrincipal(uuid.New(), uuid.New(), "admin", identity.RoleAdmin, "127.0.0.1", nil)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	vendor, err := s.vendors.Create(ctx, admin, procurementapp.CreateVendorRequest{
		Code: "ACME", Name: "Acme Supplies", PaymentTermsDays: 30,
	})
	require.NoError(t, err)
	project, err := s.projects.Create(ctx, admin, procurementapp.CreateProjectRequest{
		Code: "TOWER", Name: "Tower Fit-out",
	})
	require.NoError(t, err)

	po, err := s.orders.Create(ctx, admin, procurementapp.PurchaseOrderRequest{
		VendorID:  vendor.ID,
		ProjectID: project.ID,
		Amount:    decimal.NewFromInt(100000),
	})
	require.NoError(t, err)
	_, err = s.orders.Finalize(ctx, admin, po.ID)
	require.NoError(t, err)

	inv, err := s.invoices.Create(ctx, admin, procurementapp.InvoiceRequest{
		InvoiceNumber:   "SI-1001",
		PurchaseOrderID: &po.ID,
		VendorID:        vendor.ID,
		ProjectID:       &project.ID,
		InvoiceDate:     today,
		GrossAmount:     decimal.NewFromInt(44800),
		VATAmount:       decimal.NewFromInt(4800),
		NetAmount:       decimal.NewFromInt(40000),
	})
	require.NoError(t, err)
	_, err = s.invoices.Receive(ctx, admin, inv.ID)
	require.NoError(t, err)
	_, err = s.invoices.Approve(ctx, admin, inv.ID)
	require.NoError(t, err)

	cr, err := s.requisitions.Create(ctx, admin, procurementapp.CheckRequisitionRequest{
		VendorID:        &vendor.ID,
		PurchaseOrderID: &po.ID,
		PHPAmount:       decimal.NewFromInt(40000),
		Purpose:         "Progress billing 1",
		RequestedByName: "Site Engineer",
		RequestDate:     today,
		InvoiceIDs:      []uuid.UUID{inv.ID},
	})
	require.NoError(t, err)
	assertInvoiceStatus(t, s, admin, inv.ID, "pending_disbursement")

	_, err = s.requisitions.Approve(ctx, admin, cr.ID)
	require.NoError(t, err)

	generation, err := s.dashCache.Generation(ctx, admin.TenantID)
	require.NoError(t, err)

	released := today
	d, err := s.disbursements.Create(ctx, admin, procurementapp.DisbursementRequest{
		VoucherNumber:             "CV-2026-0001",
		CheckNumber:               "000123",
		DateCheckReleasedToVendor: &released,
		CheckRequisitionIDs:       []uuid.UUID{cr.ID},
		Attachments: []attachmentapp.Upload{
			{Name: "voucher.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		},
	})
	require.NoError(t, err)

	assertInvoiceStatus(t, s, admin, inv.ID, "paid")
	assertRequisitionStatus(t, s, admin, cr.ID, "paid")
	order, err := s.orders.GetByID(ctx, admin, po.ID)
	require.NoError(t, err)
	assert.True(t, order.TotalPaid.Equal(decimal.NewFromInt(40000)))

	bumped, err := s.dashCache.Generation(ctx, admin.TenantID)
	require.NoError(t, err)
	assert.Greater(t, bumped, generation, "committed cascade invalidates cached dashboards")

	t.Run("voucher numbers are unique per tenant", func(t *testing.T) {
		_, err := s.disbursements.Create(ctx, admin, procurementapp.DisbursementRequest{
			VoucherNumber:       "CV-2026-0001",
			CheckRequisitionIDs: []uuid.UUID{cr.ID},
		})
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Error(), "voucher_number")
	})

	t.Run("deleting the disbursement reverts the cascade", func(t *testing.T) {
		require.NoError(t, s.disbursements.Delete(ctx, admin, d.ID))

		assertInvoiceStatus(t, s, admin, inv.ID, "approved")
		assertRequisitionStatus(t, s, admin, cr.ID, "approved")
		order, err := s.orders.GetByID(ctx, admin, po.ID)
		require.NoError(t, err)
		assert.True(t, order.TotalPaid.IsZero())
	})
}
