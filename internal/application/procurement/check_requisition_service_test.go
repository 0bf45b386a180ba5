package procurement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRequisitionService(r *testRepos) *CheckRequisitionService {
	svc := NewCheckRequisitionService(r.repositories(), r.scope(), nopLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestCheckRequisitionService_Approve(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("amount mismatch blocks approval", func(t *testing.T) {
		r := newTestRepos()
		inv := newInvoice(t, tenantID, nil, 4000, procurement.InvoiceStatusPendingDisbursement)
		cr := newRequisition(t, tenantID, 4500, procurement.RequisitionStatusPendingApproval, inv)

		r.requisitions.On("FindByIDForUpdate", ctx, tenantID, cr.ID).Return(cr, nil)
		r.invoices.On("FindByIDs", ctx, tenantID, cr.InvoiceIDs).Return([]*procurement.Invoice{inv}, nil)

		_, err := newRequisitionService(r).Approve(ctx, writer(tenantID), cr.ID)

		var blocked *procurement.ApprovalBlockedError
		require.True(t, errors.As(err, &blocked))
		require.Len(t, blocked.Failed, 1)
		assert.Equal(t, procurement.CheckAmountMatchesInvoices, blocked.Failed[0].Name)
		assert.Equal(t, procurement.RequisitionStatusPendingApproval, cr.Status)
		r.requisitions.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		r.assertExpectations(t)
	})

	t.Run("matching amount approves", func(t *testing.T) {
		r := newTestRepos()
		inv := newInvoice(t, tenantID, nil, 4000, procurement.InvoiceStatusPendingDisbursement)
		cr := newRequisition(t, tenantID, 4000, procurement.RequisitionStatusPendingApproval, inv)
		p := writer(tenantID)

		r.requisitions.On("FindByIDForUpdate", ctx, tenantID, cr.ID).Return(cr, nil)
		r.invoices.On("FindByIDs", ctx, tenantID, cr.InvoiceIDs).Return([]*procurement.Invoice{inv}, nil)
		r.requisitions.On("SaveWithLock", ctx, cr).Return(nil)
		r.expectActivityLog()

		resp, err := newRequisitionService(r).Approve(ctx, p, cr.ID)

		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
		require.NotNil(t, resp.ApprovedBy)
		assert.Equal(t, p.UserID, *resp.ApprovedBy)
		r.assertExpectations(t)
	})

	t.Run("read access is not enough", func(t *testing.T) {
		r := newTestRepos()

		_, err := newRequisitionService(r).Approve(ctx, reader(tenantID, identity.ModuleCheckRequisitions), uuid.New())

		assert.ErrorIs(t, err, shared.ErrForbidden)
		r.assertExpectations(t)
	})
}

func TestCheckRequisitionService_RejectRevertsOnlyUnheldInvoices(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	r := newTestRepos()

	free := newInvoice(t, tenantID, nil, 1000, procurement.InvoiceStatusPendingDisbursement)
	held := newInvoice(t, tenantID, nil, 3000, procurement.InvoiceStatusPendingDisbursement)
	cr := newRequisition(t, tenantID, 4000, procurement.RequisitionStatusPendingApproval, free, held)

	r.requisitions.On("FindByIDForUpdate", ctx, tenantID, cr.ID).Return(cr, nil)
	r.requisitions.On("SaveWithLock", ctx, cr).Return(nil)
	r.invoices.On("FindByIDsForUpdate", ctx, tenantID, cr.InvoiceIDs).Return([]*procurement.Invoice{free, held}, nil)
	r.requisitions.On("ExternalRefs", ctx, tenantID, []uuid.UUID{free.ID, held.ID}, []uuid.UUID{cr.ID}).
		Return(map[uuid.UUID]procurement.ExternalRefs{held.ID: {Active: 1}}, nil)
	r.invoices.On("SaveWithLock", ctx, free).Return(nil)
	r.expectActivityLog()

	resp, err := newRequisitionService(r).Reject(ctx, writer(tenantID), cr.ID, RejectRequest{Reason: "Duplicate request"})

	require.NoError(t, err)
	assert.Equal(t, "rejected", resp.Status)
	assert.Equal(t, procurement.InvoiceStatusApproved, free.Status)
	assert.Equal(t, procurement.InvoiceStatusPendingDisbursement, held.Status)
	r.invoices.AssertNotCalled(t, "SaveWithLock", ctx, held)
	r.assertExpectations(t)
}

func TestCheckRequisitionService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	request := func(ids ...uuid.UUID) CheckRequisitionRequest {
		return CheckRequisitionRequest{
			PayeeName:   "ACME Supply",
			PHPAmount:   decimal.NewFromInt(4000),
			Purpose:     "Payment",
			RequestDate: fixedNow,
			InvoiceIDs:  ids,
		}
	}

	t.Run("holds approved invoices", func(t *testing.T) {
		r := newTestRepos()
		inv := newInvoice(t, tenantID, nil, 4000, procurement.InvoiceStatusApproved)

		r.invoices.On("FindByIDs", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)
		r.requisitions.On("NextNumber", ctx, tenantID, fixedNow).Return("CR-202610-0007", nil)
		r.requisitions.On("Create", ctx, mock.AnythingOfType("*procurement.CheckRequisition")).Return(nil)
		r.invoices.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)
		r.invoices.On("SaveWithLock", ctx, inv).Return(nil)
		r.expectActivityLog()

		resp, err := newRequisitionService(r).Create(ctx, writer(tenantID), request(inv.ID))

		require.NoError(t, err)
		assert.Equal(t, "CR-202610-0007", resp.RequisitionNumber)
		assert.Equal(t, "pending_approval", resp.Status)
		assert.Equal(t, procurement.InvoiceStatusPendingDisbursement, inv.Status)
		r.assertExpectations(t)
	})

	t.Run("unapproved invoice fails before the transaction", func(t *testing.T) {
		r := newTestRepos()
		inv := newInvoice(t, tenantID, nil, 4000, procurement.InvoiceStatusReceived)

		r.invoices.On("FindByIDs", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)

		_, err := newRequisitionService(r).Create(ctx, writer(tenantID), request(inv.ID))

		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "invoice_ids", verr.Fields[0].Field)
		r.requisitions.AssertNotCalled(t, "NextNumber", mock.Anything, mock.Anything, mock.Anything)
		r.assertExpectations(t)
	})

	t.Run("storage failure surfaces as transaction error", func(t *testing.T) {
		r := newTestRepos()
		inv := newInvoice(t, tenantID, nil, 4000, procurement.InvoiceStatusApproved)

		r.invoices.On("FindByIDs", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)
		r.requisitions.On("NextNumber", ctx, tenantID, fixedNow).Return("", errors.New("connection reset"))

		_, err := newRequisitionService(r).Create(ctx, writer(tenantID), request(inv.ID))

		var txErr *shared.TransactionError
		require.True(t, errors.As(err, &txErr))
		assert.Equal(t, "failed to create check requisition", txErr.Message)
		r.assertExpectations(t)
	})
}

func TestCheckRequisitionService_DeleteRejectsApproved(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	r := newTestRepos()
	cr := newRequisition(t, tenantID, 4000, procurement.RequisitionStatusApproved, newInvoice(t, tenantID, nil, 4000, procurement.InvoiceStatusPendingDisbursement))

	r.requisitions.On("FindByIDForUpdate", ctx, tenantID, cr.ID).Return(cr, nil)

	err := newRequisitionService(r).Delete(ctx, writer(tenantID), cr.ID)

	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "INVALID_STATE", derr.Code)
	r.assertExpectations(t)
}

func TestCheckRequisitionService_ApprovalChecks(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	r := newTestRepos()
	inv := newInvoice(t, tenantID, nil, 4000, procurement.InvoiceStatusPendingDisbursement)
	cr := newRequisition(t, tenantID, 4000, procurement.RequisitionStatusPendingApproval, inv)

	r.requisitions.On("FindByID", ctx, tenantID, cr.ID).Return(cr, nil)
	r.invoices.On("FindByIDs", ctx, tenantID, cr.InvoiceIDs).Return([]*procurement.Invoice{inv}, nil)

	resp, err := newRequisitionService(r).ApprovalChecks(ctx, reader(tenantID, identity.ModuleCheckRequisitions), cr.ID)

	require.NoError(t, err)
	assert.True(t, resp.CanApprove)
	assert.Len(t, resp.Checks, 5)
	r.assertExpectations(t)
}
