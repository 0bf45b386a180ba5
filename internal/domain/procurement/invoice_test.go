package procurement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from InvoiceStatus
		to   InvoiceStatus
		want bool
	}{
		{InvoiceStatusPending, InvoiceStatusReceived, true},
		{InvoiceStatusPending, InvoiceStatusApproved, false},
		{InvoiceStatusReceived, InvoiceStatusInProgress, true},
		{InvoiceStatusReceived, InvoiceStatusApproved, true},
		{InvoiceStatusInProgress, InvoiceStatusApproved, true},
		{InvoiceStatusInProgress, InvoiceStatusRejected, true},
		{InvoiceStatusRejected, InvoiceStatusPending, true},
		{InvoiceStatusApproved, InvoiceStatusRejected, false},
		{InvoiceStatusApproved, InvoiceStatusPendingDisbursement, false},
		{InvoiceStatusPaid, InvoiceStatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestInvoiceStatus_CanCascadeTo(t *testing.T) {
	assert.True(t, InvoiceStatusApproved.CanCascadeTo(InvoiceStatusPendingDisbursement))
	assert.True(t, InvoiceStatusPendingDisbursement.CanCascadeTo(InvoiceStatusPaid))
	assert.True(t, InvoiceStatusPaid.CanCascadeTo(InvoiceStatusApproved))
	assert.True(t, InvoiceStatusPaid.CanCascadeTo(InvoiceStatusPaid))
	assert.False(t, InvoiceStatusPending.CanCascadeTo(InvoiceStatusPaid))
	assert.False(t, InvoiceStatusRejected.CanCascadeTo(InvoiceStatusApproved))
}

func TestInvoice_ReviewFlow(t *testing.T) {
	f := newCascadeFixture()
	inv := f.invoice(t, 1200, InvoiceStatusPending)
	by := uuid.New()
	now := time.Now().UTC()

	require.NoError(t, inv.Receive(by, now))
	assert.Equal(t, now, *inv.SIReceivedAt)
	require.NoError(t, inv.StartReview(by, now))
	require.NoError(t, inv.Approve(by, now))
	assert.Equal(t, InvoiceStatusApproved, inv.Status)
	assert.NotNil(t, inv.ReviewedAt)
	assert.NotNil(t, inv.ApprovedAt)

	assert.False(t, inv.IsEditable())
	assert.False(t, inv.CanDelete())
	assert.Error(t, inv.Update(InvoiceDetails{}))
	assert.Error(t, inv.Reject("nope", now))
}

func TestInvoice_RejectAndResubmit(t *testing.T) {
	f := newCascadeFixture()
	inv := f.invoice(t, 1200, InvoiceStatusPending)
	now := time.Now().UTC()

	require.NoError(t, inv.Receive(uuid.New(), now))
	require.NoError(t, inv.Reject("Wrong TIN", now))
	assert.Equal(t, "Wrong TIN", inv.RejectionReason)
	assert.True(t, inv.CanDelete())

	require.NoError(t, inv.Resubmit(now))
	assert.Equal(t, InvoiceStatusPending, inv.Status)
	assert.Empty(t, inv.RejectionReason)
	assert.Nil(t, inv.SIReceivedAt)
}

func TestNewInvoice_Validation(t *testing.T) {
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewInvoice(uuid.New(), uuid.New(), InvoiceDetails{
		InvoiceDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		DueDate:     &due,
		GrossAmount: decimal.NewFromInt(10),
		VATAmount:   decimal.NewFromInt(20),
	})

	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"invoice_number", "vendor_id", "due_date", "net_amount", "vat_amount"}, fields)
}
