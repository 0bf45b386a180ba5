package persistence

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()
	assert.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, db.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormVendorRepository_FindByID_NotFound(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormVendorRepository(db.DB)
	tenantID, id := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "vendors" WHERE tenant_id = $1 AND id = $2`)).
		WithArgs(tenantID, id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), tenantID, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProjectRepository_SaveWithLock_StaleVersion(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormProjectRepository(db.DB)

	project, err := procurement.NewProject(uuid.New(), uuid.New(), "P-1", procurement.ProjectDetails{Name: "Warehouse"})
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE "projects" SET .* WHERE tenant_id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.SaveWithLock(context.Background(), project)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 1, project.Version, "version only advances on a successful write")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPurchaseOrderRepository_SaveWithLock_BumpsVersion(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormPurchaseOrderRepository(db.DB)

	po, err := procurement.NewPurchaseOrder(uuid.New(), uuid.New(), "PO-202610-0001", procurement.PurchaseOrderDetails{
		VendorID:  uuid.New(),
		ProjectID: uuid.New(),
		Amount:    decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE "purchase_orders" SET .* WHERE tenant_id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveWithLock(context.Background(), po))
	assert.Equal(t, 2, po.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), shared.ErrNotFound)
	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), shared.ErrAlreadyExists)

	other := errors.New("boom")
	assert.Equal(t, other, translateError(other))
}
