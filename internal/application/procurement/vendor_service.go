package procurement

import (
	"context"

	"github.com/google/uuid"
	auditapp "github.com/procurement/backend/internal/application/audit"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
)

// VendorService handles vendor master data
type VendorService struct {
	vendorRepo procurement.VendorRepository
	scope      TransactionScope
}

// NewVendorService creates a new VendorService
func NewVendorService(vendorRepo procurement.VendorRepository, scope TransactionScope) *VendorService {
	return &VendorService{vendorRepo: vendorRepo, scope: scope}
}

// Create creates a new vendor
func (s *VendorService) Create(ctx context.Context, p identity.Principal, req CreateVendorRequest) (*VendorResponse, error) {
	if err := p.Authorize(identity.ModuleVendors, identity.AccessWrite); err != nil {
		return nil, err
	}
	vendor, err := procurement.NewVendor(p.TenantID, p.UserID, req.Code, procurement.VendorDetails{
		Name:             req.Name,
		TIN:              req.TIN,
		Address:          req.Address,
		ContactPerson:    req.ContactPerson,
		Email:            req.Email,
		Phone:            req.Phone,
		PaymentTermsDays: req.PaymentTermsDays,
	})
	if err != nil {
		return nil, err
	}

	exists, err := s.vendorRepo.ExistsByCode(ctx, p.TenantID, vendor.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewValidationError("code", "Vendor code already exists")
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.VendorRepo().Create(ctx, vendor); err != nil {
			return err
		}
		changes := audit.Changes{}.Set("code", nil, vendor.Code).Set("name", nil, vendor.Name)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectVendor, vendor.ID, audit.ActionCreated, changes, "")
	})
	if err != nil {
		return nil, err
	}

	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// Update edits a vendor, including its active flag
func (s *VendorService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateVendorRequest) (*VendorResponse, error) {
	if err := p.Authorize(identity.ModuleVendors, identity.AccessWrite); err != nil {
		return nil, err
	}

	var vendor *procurement.Vendor
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		vendor, err = repos.VendorRepo().FindByID(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		before := *vendor

		if err := vendor.Update(procurement.VendorDetails{
			Name:             req.Name,
			TIN:              req.TIN,
			Address:          req.Address,
			ContactPerson:    req.ContactPerson,
			Email:            req.Email,
			Phone:            req.Phone,
			PaymentTermsDays: req.PaymentTermsDays,
		}); err != nil {
			return err
		}
		if req.IsActive != nil && *req.IsActive != vendor.IsActive {
			if *req.IsActive {
				err = vendor.Activate()
			} else {
				err = vendor.Deactivate()
			}
			if err != nil {
				return err
			}
		}
		if err := repos.VendorRepo().SaveWithLock(ctx, vendor); err != nil {
			return err
		}

		changes := audit.Changes{}.
			Set("name", before.Name, vendor.Name).
			Set("tin", before.TIN, vendor.TIN).
			Set("address", before.Address, vendor.Address).
			Set("contact_person", before.ContactPerson, vendor.ContactPerson).
			Set("email", before.Email, vendor.Email).
			Set("phone", before.Phone, vendor.Phone).
			Set("payment_terms_days", before.PaymentTermsDays, vendor.PaymentTermsDays).
			Set("is_active", before.IsActive, vendor.IsActive)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectVendor, vendor.ID, audit.ActionUpdated, changes, "")
	})
	if err != nil {
		return nil, err
	}

	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// GetByID retrieves a vendor
func (s *VendorService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*VendorResponse, error) {
	if err := p.Authorize(identity.ModuleVendors, identity.AccessRead); err != nil {
		return nil, err
	}
	vendor, err := s.vendorRepo.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// List retrieves vendors with filtering and pagination
func (s *VendorService) List(ctx context.Context, p identity.Principal, filter VendorListFilter) ([]VendorResponse, int64, error) {
	if err := p.Authorize(identity.ModuleVendors, identity.AccessRead); err != nil {
		return nil, 0, err
	}
	domainFilter := toDomainFilter(filter.ListFilter)
	if filter.IsActive != nil {
		domainFilter = domainFilter.With("is_active", *filter.IsActive)
	}
	vendors, total, err := s.vendorRepo.FindAll(ctx, p.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]VendorResponse, len(vendors))
	for i, v := range vendors {
		out[i] = ToVendorResponse(v)
	}
	return out, total, nil
}
