package procurement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVendorService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("normalizes the code", func(t *testing.T) {
		r := newTestRepos()
		r.vendors.On("ExistsByCode", ctx, tenantID, "ACME-01").Return(false, nil)
		r.vendors.On("Create", ctx, mock.AnythingOfType("*procurement.Vendor")).Return(nil)
		r.expectActivityLog()

		svc := NewVendorService(r.vendors, r.scope())
		resp, err := svc.Create(ctx, writer(tenantID), CreateVendorRequest{Code: " acme-01 ", Name: "ACME Supply"})

		require.NoError(t, err)
		assert.Equal(t, "ACME-01", resp.Code)
		assert.True(t, resp.IsActive)
		r.assertExpectations(t)
	})

	t.Run("duplicate code", func(t *testing.T) {
		r := newTestRepos()
		r.vendors.On("ExistsByCode", ctx, tenantID, "ACME-01").Return(true, nil)

		svc := NewVendorService(r.vendors, r.scope())
		_, err := svc.Create(ctx, writer(tenantID), CreateVendorRequest{Code: "ACME-01", Name: "ACME Supply"})

		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "code", verr.Fields[0].Field)
		r.vendors.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		r.assertExpectations(t)
	})

	t.Run("read-only principal", func(t *testing.T) {
		r := newTestRepos()

		svc := NewVendorService(r.vendors, r.scope())
		_, err := svc.Create(ctx, reader(tenantID, identity.ModuleVendors), CreateVendorRequest{Code: "ACME-01", Name: "ACME Supply"})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		r.assertExpectations(t)
	})
}

func TestVendorService_UpdateDeactivates(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	r := newTestRepos()
	vendor, err := procurement.NewVendor(tenantID, uuid.New(), "ACME-01", procurement.VendorDetails{Name: "ACME Supply"})
	require.NoError(t, err)

	r.vendors.On("FindByID", ctx, tenantID, vendor.ID).Return(vendor, nil)
	r.vendors.On("SaveWithLock", ctx, vendor).Return(nil)
	r.logs.On("Create", ctx, mock.Anything).Return(nil).Once()

	inactive := false
	resp, err := NewVendorService(r.vendors, r.scope()).Update(ctx, writer(tenantID), vendor.ID, UpdateVendorRequest{
		Name:             "ACME Supply Corp",
		PaymentTermsDays: 30,
		IsActive:         &inactive,
	})

	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	assert.Equal(t, "ACME Supply Corp", resp.Name)
	assert.Equal(t, 30, resp.PaymentTermsDays)
	r.assertExpectations(t)
}
