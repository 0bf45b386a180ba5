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

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create inserts a new invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *procurement.Invoice) error {
	return translateError(r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error)
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *procurement.Invoice) error {
	expected := invoice.Version
	model := models.InvoiceModelFromDomain(invoice)
	model.Version = expected + 1
	if err := saveVersioned(r.db.WithContext(ctx), model, invoice.TenantID, expected); err != nil {
		return err
	}
	invoice.Version = model.Version
	return nil
}

// FindByID finds an invoice within a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads invoices without locking
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.Invoice, error) {
	return r.findByIDs(r.db.WithContext(ctx), tenantID, ids)
}

// FindByIDsForUpdate loads invoices in id order and locks their rows
func (r *GormInvoiceRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.Invoice, error) {
	return r.findByIDs(forUpdate(r.db.WithContext(ctx)), tenantID, ids)
}

func (r *GormInvoiceRepository) findByIDs(db *gorm.DB, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.InvoiceModel
	if err := db.Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

// FindByPurchaseOrder lists every invoice billed against a purchase order
func (r *GormInvoiceRepository) FindByPurchaseOrder(ctx context.Context, tenantID, poID uuid.UUID) ([]*procurement.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND purchase_order_id = ?", tenantID, poID).
		Order("invoice_date").Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

// FindAll finds invoices for a tenant with filtering
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)
	query = applyEquals(query, filter.Filters, map[string]string{
		"status":            "status",
		"vendor_id":         "vendor_id",
		"project_id":        "project_id",
		"purchase_order_id": "purchase_order_id",
	})
	query = applySearch(query, filter.Search, "invoice_number", "description")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	if err := applyPage(query, filter, InvoiceSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return invoicesToDomain(rows), total, nil
}

// Delete removes an invoice
func (r *GormInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.InvoiceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByNumber checks if the vendor already issued the invoice number
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, tenantID, vendorID uuid.UUID, number string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND vendor_id = ? AND UPPER(invoice_number) = ?",
			tenantID, vendorID, strings.ToUpper(strings.TrimSpace(number)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func invoicesToDomain(rows []models.InvoiceModel) []*procurement.Invoice {
	out := make([]*procurement.Invoice, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ procurement.InvoiceRepository = (*GormInvoiceRepository)(nil)
