package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormVendorRepository implements VendorRepository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// Create inserts a new vendor
func (r *GormVendorRepository) Create(ctx context.Context, vendor *procurement.Vendor) error {
	model := models.VendorModelFromDomain(vendor)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// SaveWithLock updates a vendor when its version is unchanged
func (r *GormVendorRepository) SaveWithLock(ctx context.Context, vendor *procurement.Vendor) error {
	expected := vendor.Version
	model := models.VendorModelFromDomain(vendor)
	model.Version = expected + 1
	if err := saveVersioned(r.db.WithContext(ctx), model, vendor.TenantID, expected); err != nil {
		return err
	}
	vendor.Version = model.Version
	return nil
}

// FindByID finds a vendor within the tenant
func (r *GormVendorRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Vendor, error) {
	var model models.VendorModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists vendors matching the filter
func (r *GormVendorRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.Vendor, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.VendorModel{}).Where("tenant_id = ?", tenantID)
	query = applyEquals(query, filter.Filters, map[string]string{"is_active": "is_active"})
	query = applySearch(query, filter.Search, "code", "name", "tin", "contact_person")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.VendorModel
	if err := applyPage(query, filter, VendorSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	vendors := make([]*procurement.Vendor, len(rows))
	for i := range rows {
		vendors[i] = rows[i].ToDomain()
	}
	return vendors, total, nil
}

// ExistsByCode checks if a vendor code is taken in the tenant
func (r *GormVendorRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.VendorModel{}).
		Where("tenant_id = ? AND UPPER(code) = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormVendorRepository implements VendorRepository
var _ procurement.VendorRepository = (*GormVendorRepository)(nil)
