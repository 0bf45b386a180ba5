package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// Create inserts a new purchase order
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, po *procurement.PurchaseOrder) error {
	return translateError(r.db.WithContext(ctx).Create(models.PurchaseOrderModelFromDomain(po)).Error)
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, po *procurement.PurchaseOrder) error {
	expected := po.Version
	model := models.PurchaseOrderModelFromDomain(po)
	model.Version = expected + 1
	if err := saveVersioned(r.db.WithContext(ctx), model, po.TenantID, expected); err != nil {
		return err
	}
	po.Version = model.Version
	return nil
}

// FindByID finds a purchase order within a tenant
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDsForUpdate loads purchase orders in id order and locks their rows
func (r *GormPurchaseOrderRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.PurchaseOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.PurchaseOrderModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]*procurement.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, nil
}

// FindAll finds purchase orders for a tenant with filtering
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).Where("tenant_id = ?", tenantID)
	query = applyEquals(query, filter.Filters, map[string]string{
		"status":     "status",
		"vendor_id":  "vendor_id",
		"project_id": "project_id",
	})
	query = applySearch(query, filter.Search, "po_number", "description")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PurchaseOrderModel
	if err := applyPage(query, filter, PurchaseOrderSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]*procurement.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, total, nil
}

// Delete removes a purchase order
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.PurchaseOrderModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NextNumber generates the next PO-YYYYMM-NNNN number for the month of at
func (r *GormPurchaseOrderRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error) {
	return nextDocumentNumber(r.db.WithContext(ctx), "purchase_orders", "po_number",
		procurement.PurchaseOrderNumberPrefix, tenantID, at)
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ procurement.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
