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

func newInvoiceService(r *testRepos) *InvoiceService {
	svc := NewInvoiceService(r.repositories(), r.scope(), nopLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func invoiceRequest(vendorID uuid.UUID, poID *uuid.UUID) InvoiceRequest {
	return InvoiceRequest{
		InvoiceNumber:   "SI-1001",
		PurchaseOrderID: poID,
		VendorID:        vendorID,
		InvoiceDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		GrossAmount:     decimal.NewFromInt(2800),
		VATAmount:       decimal.NewFromInt(300),
		NetAmount:       decimal.NewFromInt(2500),
	}
}

func TestInvoiceService_CreateOnPurchaseOrder(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	r := newTestRepos()
	po := newOpenPurchaseOrder(t, tenantID, 10000)
	vendor := &procurement.Vendor{Code: "ACME", IsActive: true}

	// the created invoice is returned by the purchase order lookup
	created := make([]*procurement.Invoice, 1)
	r.vendors.On("FindByID", ctx, tenantID, po.VendorID).Return(vendor, nil)
	r.invoices.On("ExistsByNumber", ctx, tenantID, po.VendorID, "SI-1001", (*uuid.UUID)(nil)).Return(false, nil)
	r.orders.On("FindByID", ctx, tenantID, po.ID).Return(po, nil)
	r.invoices.On("Create", ctx, mock.AnythingOfType("*procurement.Invoice")).
		Run(func(args mock.Arguments) { created[0] = args.Get(1).(*procurement.Invoice) }).
		Return(nil)
	r.orders.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{po.ID}).Return([]*procurement.PurchaseOrder{po}, nil)
	r.invoices.On("FindByPurchaseOrder", ctx, tenantID, po.ID).Return(created, nil)
	r.orders.On("SaveWithLock", ctx, po).Return(nil)
	r.expectActivityLog()

	resp, err := newInvoiceService(r).Create(ctx, writer(tenantID), invoiceRequest(po.VendorID, &po.ID))

	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	require.NotNil(t, resp.ProjectID)
	assert.Equal(t, po.ProjectID, *resp.ProjectID)
	assert.True(t, po.TotalInvoiced.Equal(decimal.NewFromInt(2500)))
	assert.True(t, po.TotalPaid.IsZero())
	r.assertExpectations(t)
}

func TestInvoiceService_CreateRejectsUnusablePurchaseOrder(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	vendor := &procurement.Vendor{Code: "ACME", IsActive: true}

	tests := []struct {
		name      string
		prepare   func(po *procurement.PurchaseOrder)
		vendorID  func(po *procurement.PurchaseOrder) uuid.UUID
		wantField string
	}{
		{
			name:      "closed order",
			prepare:   func(po *procurement.PurchaseOrder) { require.NoError(t, po.Close()) },
			vendorID:  func(po *procurement.PurchaseOrder) uuid.UUID { return po.VendorID },
			wantField: "purchase_order_id",
		},
		{
			name:      "different vendor",
			prepare:   func(*procurement.PurchaseOrder) {},
			vendorID:  func(*procurement.PurchaseOrder) uuid.UUID { return uuid.New() },
			wantField: "vendor_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRepos()
			po := newOpenPurchaseOrder(t, tenantID, 10000)
			tt.prepare(po)
			vendorID := tt.vendorID(po)

			r.vendors.On("FindByID", ctx, tenantID, vendorID).Return(vendor, nil)
			r.invoices.On("ExistsByNumber", ctx, tenantID, vendorID, "SI-1001", (*uuid.UUID)(nil)).Return(false, nil)
			r.orders.On("FindByID", ctx, tenantID, po.ID).Return(po, nil)

			_, err := newInvoiceService(r).Create(ctx, writer(tenantID), invoiceRequest(vendorID, &po.ID))

			var verr *shared.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			r.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			r.assertExpectations(t)
		})
	}
}

func TestInvoiceService_UpdateHeldInvoice(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	r := newTestRepos()
	inv := newInvoice(t, tenantID, nil, 2500, procurement.InvoiceStatusPendingDisbursement)

	r.invoices.On("FindByID", ctx, tenantID, inv.ID).Return(inv, nil)
	r.vendors.On("FindByID", ctx, tenantID, inv.VendorID).Return(&procurement.Vendor{IsActive: true}, nil)
	r.invoices.On("ExistsByNumber", ctx, tenantID, inv.VendorID, "SI-1001", &inv.ID).Return(false, nil)
	r.invoices.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)

	_, err := newInvoiceService(r).Update(ctx, writer(tenantID), inv.ID, invoiceRequest(inv.VendorID, nil))

	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "INVALID_STATE", derr.Code)
	r.invoices.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	r.assertExpectations(t)
}

func TestInvoiceService_Workflow(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("approve records the approver", func(t *testing.T) {
		r := newTestRepos()
		inv := newInvoice(t, tenantID, nil, 2500, procurement.InvoiceStatusReceived)
		p := writer(tenantID)

		r.invoices.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)
		r.invoices.On("SaveWithLock", ctx, inv).Return(nil)
		r.expectActivityLog()

		resp, err := newInvoiceService(r).Approve(ctx, p, inv.ID)

		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
		require.NotNil(t, inv.ApprovedBy)
		assert.Equal(t, p.UserID, *inv.ApprovedBy)
		assert.Equal(t, fixedNow, *inv.ApprovedAt)
		r.assertExpectations(t)
	})

	t.Run("reject needs a reason", func(t *testing.T) {
		r := newTestRepos()
		inv := newInvoice(t, tenantID, nil, 2500, procurement.InvoiceStatusInProgress)

		r.invoices.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)

		_, err := newInvoiceService(r).Reject(ctx, writer(tenantID), inv.ID, RejectRequest{Reason: "  "})

		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "rejection_reason", verr.Fields[0].Field)
		assert.Equal(t, procurement.InvoiceStatusInProgress, inv.Status)
		r.assertExpectations(t)
	})

	t.Run("cascade statuses cannot be set by hand", func(t *testing.T) {
		r := newTestRepos()
		inv := newInvoice(t, tenantID, nil, 2500, procurement.InvoiceStatusPaid)

		r.invoices.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{inv.ID}).Return([]*procurement.Invoice{inv}, nil)

		_, err := newInvoiceService(r).StartReview(ctx, writer(tenantID), inv.ID)

		var derr *shared.DomainError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "INVALID_STATE", derr.Code)
		r.assertExpectations(t)
	})

	t.Run("missing invoice", func(t *testing.T) {
		r := newTestRepos()
		id := uuid.New()

		r.invoices.On("FindByIDsForUpdate", ctx, tenantID, []uuid.UUID{id}).Return([]*procurement.Invoice{}, nil)

		_, err := newInvoiceService(r).Receive(ctx, writer(tenantID), id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		r.assertExpectations(t)
	})
}

func TestInvoiceService_ListNeedsInvoiceAccess(t *testing.T) {
	r := newTestRepos()

	_, _, err := newInvoiceService(r).List(context.Background(), reader(uuid.New(), identity.ModuleVendors), InvoiceListFilter{})

	assert.ErrorIs(t, err, shared.ErrForbidden)
	r.assertExpectations(t)
}
