package procurement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	attachmentapp "github.com/procurement/backend/internal/application/attachment"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryStorage records uploaded objects
type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (s *memoryStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memoryStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return "memory://" + key, fixedNow.Add(expiresIn), nil
}

func (s *memoryStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func newDisbursementService(r *testRepos) *DisbursementService {
	svc := NewDisbursementService(r.repositories(), r.scope(), nopLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// expectValidReferences stubs the pre-transaction lookups for a create
func (r *testRepos) expectValidReferences(ctx context.Context, tenantID uuid.UUID, reqs ...*procurement.CheckRequisition) {
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, cr := range reqs {
		ids = append(ids, cr.ID)
	}
	r.disbursements.On("ExistsByVoucherNumber", ctx, tenantID, "CV-2026-001", mock.Anything).Return(false, nil)
	r.requisitions.On("FindByIDs", ctx, tenantID, ids).Return(reqs, nil)
	r.disbursements.On("FindAttachedElsewhere", ctx, tenantID, ids, mock.Anything).Return([]uuid.UUID{}, nil)
}

func TestDisbursementService_CreateReleasedCascadesToPaid(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	r := newTestRepos()

	po := newOpenPurchaseOrder(t, tenantID, 4000)
	inv := newInvoice(t, tenantID, &po.ID, 4000, procurement.InvoiceStatusPendingDisbursement)
	po.TotalInvoiced = decimal.NewFromInt(4000)
	cr := newRequisition(t, tenantID, 4000, procurement.RequisitionStatusApproved, inv)

	r.expectValidReferences(ctx, tenantID, cr)
	r.requisitions.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{cr.ID}).Return([]*procurement.CheckRequisition{cr}, nil)
	r.invoices.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)
	r.requisitions.On("ExternalRefs", ctx, tenantID, []uuid.UUID{inv.ID}, []uuid.UUID{cr.ID}).
		Return(map[uuid.UUID]procurement.ExternalRefs{}, nil)
	r.disbursements.On("Create", ctx, mock.AnythingOfType("*procurement.Disbursement")).Return(nil)
	r.requisitions.On("SaveWithLock", ctx, cr).Return(nil)
	r.invoices.On("SaveWithLock", ctx, inv).Return(nil)
	r.orders.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{po.ID}).Return([]*procurement.PurchaseOrder{po}, nil)
	r.invoices.On("FindByPurchaseOrder", ctx, tenantID, po.ID).Return([]*procurement.Invoice{inv}, nil)
	r.orders.On("SaveWithLock", ctx, po).Return(nil)
	r.expectActivityLog()

	released := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	resp, err := newDisbursementService(r).Create(ctx, writer(tenantID), DisbursementRequest{
		VoucherNumber:             "CV-2026-001",
		DateCheckScheduled:        &released,
		DateCheckReleasedToVendor: &released,
		CheckRequisitionIDs:       []uuid.UUID{cr.ID},
	})

	require.NoError(t, err)
	assert.Equal(t, "released", resp.Stage)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(4000)))
	assert.Equal(t, []uuid.UUID{cr.ID}, resp.CheckRequisitionIDs)
	assert.Equal(t, procurement.RequisitionStatusPaid, cr.Status)
	assert.Equal(t, procurement.InvoiceStatusPaid, inv.Status)
	assert.True(t, po.TotalPaid.Equal(decimal.NewFromInt(4000)))
	assert.True(t, po.TotalInvoiced.Equal(decimal.NewFromInt(4000)))
	r.assertExpectations(t)
}

func TestDisbursementService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("duplicate voucher is a field error", func(t *testing.T) {
		r := newTestRepos()
		cr := newRequisition(t, tenantID, 4000, procurement.RequisitionStatusApproved)

		r.disbursements.On("ExistsByVoucherNumber", ctx, tenantID, "CV-2026-001", mock.Anything).Return(true, nil)
		r.requisitions.On("FindByIDs", ctx, tenantID, []uuid.UUID{cr.ID}).Return([]*procurement.CheckRequisition{cr}, nil)
		r.disbursements.On("FindAttachedElsewhere", ctx, tenantID, []uuid.UUID{cr.ID}, mock.Anything).Return([]uuid.UUID{}, nil)

		_, err := newDisbursementService(r).Create(ctx, writer(tenantID), DisbursementRequest{
			VoucherNumber:       "CV-2026-001",
			CheckRequisitionIDs: []uuid.UUID{cr.ID},
		})

		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "voucher_number", verr.Fields[0].Field)
		r.disbursements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		r.assertExpectations(t)
	})

	t.Run("pending requisition cannot be attached", func(t *testing.T) {
		r := newTestRepos()
		cr := newRequisition(t, tenantID, 4000, procurement.RequisitionStatusPendingApproval)
		r.expectValidReferences(ctx, tenantID, cr)

		_, err := newDisbursementService(r).Create(ctx, writer(tenantID), DisbursementRequest{
			VoucherNumber:       "CV-2026-001",
			CheckRequisitionIDs: []uuid.UUID{cr.ID},
		})

		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "check_requisition_ids", verr.Fields[0].Field)
		r.assertExpectations(t)
	})

	t.Run("read-only principal is rejected before any lookup", func(t *testing.T) {
		r := newTestRepos()

		_, err := newDisbursementService(r).Create(ctx, reader(tenantID, identity.ModuleDisbursements), DisbursementRequest{
			VoucherNumber:       "CV-2026-001",
			CheckRequisitionIDs: []uuid.UUID{uuid.New()},
		})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		r.assertExpectations(t)
	})
}

func TestDisbursementService_CreateFailureRemovesUploadedObjects(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	r := newTestRepos()
	storage := newMemoryStorage()

	inv := newInvoice(t, tenantID, nil, 4000, procurement.InvoiceStatusPendingDisbursement)
	cr := newRequisition(t, tenantID, 4000, procurement.RequisitionStatusApproved, inv)

	r.expectValidReferences(ctx, tenantID, cr)
	r.requisitions.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{cr.ID}).Return([]*procurement.CheckRequisition{cr}, nil)
	r.invoices.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)
	r.requisitions.On("ExternalRefs", ctx, tenantID, []uuid.UUID{inv.ID}, []uuid.UUID{cr.ID}).
		Return(map[uuid.UUID]procurement.ExternalRefs{}, nil)
	r.disbursements.On("Create", ctx, mock.Anything).Return(errors.New("deadlock detected"))

	svc := newDisbursementService(r)
	svc.SetObjectStorage(storage)
	_, err := svc.Create(ctx, writer(tenantID), DisbursementRequest{
		VoucherNumber:       "CV-2026-001",
		CheckRequisitionIDs: []uuid.UUID{cr.ID},
		Attachments: []attachmentapp.Upload{
			{Name: "voucher.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.7")},
		},
	})

	var txErr *shared.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "failed to create disbursement", txErr.Message)
	assert.Equal(t, 0, storage.count())
	r.files.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	r.assertExpectations(t)
}

func TestDisbursementService_UpdateVersionMismatch(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	r := newTestRepos()

	cr := newRequisition(t, tenantID, 4000, procurement.RequisitionStatusProcessed)
	d, err := procurement.NewDisbursement(tenantID, uuid.New(), procurement.DisbursementDetails{
		VoucherNumber:       "CV-2026-001",
		CheckRequisitionIDs: []uuid.UUID{cr.ID},
	})
	require.NoError(t, err)
	d.Version = 3

	r.disbursements.On("FindByID", ctx, tenantID, d.ID).Return(d, nil)
	r.disbursements.On("ExistsByVoucherNumber", ctx, tenantID, "CV-2026-001", &d.ID).Return(false, nil)
	r.requisitions.On("FindByIDs", ctx, tenantID, []uuid.UUID{cr.ID}).Return([]*procurement.CheckRequisition{cr}, nil)
	r.disbursements.On("FindAttachedElsewhere", ctx, tenantID, []uuid.UUID{cr.ID}, &d.ID).Return([]uuid.UUID{}, nil)
	r.disbursements.On("FindByIDForUpdate", ctx, tenantID, d.ID).Return(d, nil)

	stale := 2
	_, err = newDisbursementService(r).Update(ctx, writer(tenantID), d.ID, DisbursementRequest{
		VoucherNumber:       "CV-2026-001",
		CheckRequisitionIDs: []uuid.UUID{cr.ID},
		Version:             &stale,
	})

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	r.requisitions.AssertNotCalled(t, "FindByIDsForUpdate", mock.Anything, mock.Anything, mock.Anything)
	r.assertExpectations(t)
}
