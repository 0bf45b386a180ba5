package procurement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// Vendor is a supplier that issues purchase orders' invoices and receives checks
type Vendor struct {
	shared.TenantAggregateRoot
	Code             string
	Name             string
	TIN              string
	Address          string
	ContactPerson    string
	Email            string
	Phone            string
	PaymentTermsDays int
	IsActive         bool
}

// VendorDetails holds the editable vendor fields
type VendorDetails struct {
	Name             string
	TIN              string
	Address          string
	ContactPerson    string
	Email            string
	Phone            string
	PaymentTermsDays int
}

// NewVendor creates an active vendor
func NewVendor(tenantID, createdBy uuid.UUID, code string, details VendorDetails) (*Vendor, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	verr := &shared.ValidationError{}
	if code == "" {
		verr.Add("code", "Vendor code is required")
	} else if len(code) > 50 {
		verr.Add("code", "Vendor code cannot exceed 50 characters")
	}
	validateVendorDetails(details, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	v := &Vendor{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Code:                code,
		IsActive:            true,
	}
	v.apply(details)
	return v, nil
}

// Update replaces the vendor's editable fields
func (v *Vendor) Update(details VendorDetails) error {
	verr := &shared.ValidationError{}
	validateVendorDetails(details, verr)
	if err := verr.OrNil(); err != nil {
		return err
	}
	v.apply(details)
	v.MarkModified(time.Now().UTC())
	return nil
}

// Deactivate hides the vendor from new documents
func (v *Vendor) Deactivate() error {
	if !v.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Vendor is already inactive")
	}
	v.IsActive = false
	v.MarkModified(time.Now().UTC())
	return nil
}

// Activate makes the vendor available again
func (v *Vendor) Activate() error {
	if v.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Vendor is already active")
	}
	v.IsActive = true
	v.MarkModified(time.Now().UTC())
	return nil
}

func (v *Vendor) apply(d VendorDetails) {
	v.Name = strings.TrimSpace(d.Name)
	v.TIN = strings.TrimSpace(d.TIN)
	v.Address = strings.TrimSpace(d.Address)
	v.ContactPerson = strings.TrimSpace(d.ContactPerson)
	v.Email = strings.ToLower(strings.TrimSpace(d.Email))
	v.Phone = strings.TrimSpace(d.Phone)
	v.PaymentTermsDays = d.PaymentTermsDays
}

func validateVendorDetails(d VendorDetails, verr *shared.ValidationError) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		verr.Add("name", "Vendor name is required")
	} else if len(name) > 200 {
		verr.Add("name", "Vendor name cannot exceed 200 characters")
	}
	if d.PaymentTermsDays < 0 || d.PaymentTermsDays > 365 {
		verr.Add("payment_terms_days", "Payment terms must be between 0 and 365 days")
	}
}
