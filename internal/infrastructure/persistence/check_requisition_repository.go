package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCheckRequisitionRepository implements CheckRequisitionRepository using GORM.
// Invoice links are rewritten on every save.
type GormCheckRequisitionRepository struct {
	db *gorm.DB
}

// NewGormCheckRequisitionRepository creates a new GormCheckRequisitionRepository
func NewGormCheckRequisitionRepository(db *gorm.DB) *GormCheckRequisitionRepository {
	return &GormCheckRequisitionRepository{db: db}
}

// Create inserts a requisition together with its invoice links
func (r *GormCheckRequisitionRepository) Create(ctx context.Context, cr *procurement.CheckRequisition) error {
	model := models.CheckRequisitionModelFromDomain(cr)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateError(err)
		}
		return r.insertLinks(tx, model.Invoices)
	})
}

// SaveWithLock updates a requisition and replaces its invoice links
func (r *GormCheckRequisitionRepository) SaveWithLock(ctx context.Context, cr *procurement.CheckRequisition) error {
	expected := cr.Version
	model := models.CheckRequisitionModelFromDomain(cr)
	model.Version = expected + 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, cr.TenantID, expected); err != nil {
			return err
		}
		if err := tx.Where("check_requisition_id = ?", cr.ID).
			Delete(&models.CheckRequisitionInvoiceModel{}).Error; err != nil {
			return err
		}
		return r.insertLinks(tx, model.Invoices)
	})
	if err != nil {
		return err
	}
	cr.Version = model.Version
	return nil
}

func (r *GormCheckRequisitionRepository) insertLinks(tx *gorm.DB, links []models.CheckRequisitionInvoiceModel) error {
	if len(links) == 0 {
		return nil
	}
	return translateError(tx.Create(&links).Error)
}

// FindByID finds a requisition within the tenant
func (r *GormCheckRequisitionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.CheckRequisition, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a requisition and locks its row
func (r *GormCheckRequisitionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*procurement.CheckRequisition, error) {
	return r.findOne(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormCheckRequisitionRepository) findOne(db *gorm.DB, tenantID, id uuid.UUID) (*procurement.CheckRequisition, error) {
	var model models.CheckRequisitionModel
	if err := db.Preload("Invoices", orderByPosition).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads requisitions without locking
func (r *GormCheckRequisitionRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.CheckRequisition, error) {
	return r.findMany(r.db.WithContext(ctx), tenantID, ids)
}

// FindByIDsForUpdate loads requisitions in id order and locks their rows
func (r *GormCheckRequisitionRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.CheckRequisition, error) {
	return r.findMany(forUpdate(r.db.WithContext(ctx)), tenantID, ids)
}

func (r *GormCheckRequisitionRepository) findMany(db *gorm.DB, tenantID uuid.UUID, ids []uuid.UUID) ([]*procurement.CheckRequisition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.CheckRequisitionModel
	if err := db.Preload("Invoices", orderByPosition).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return requisitionsToDomain(rows), nil
}

// FindAll lists requisitions with filtering and pagination
func (r *GormCheckRequisitionRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.CheckRequisition, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CheckRequisitionModel{}).Where("tenant_id = ?", tenantID)
	query = applyEquals(query, filter.Filters, map[string]string{
		"status":     "status",
		"vendor_id":  "vendor_id",
		"project_id": "project_id",
	})
	query = applySearch(query, filter.Search, "requisition_number", "payee_name", "purpose")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CheckRequisitionModel
	if err := applyPage(query, filter, CheckRequisitionSortFields).
		Preload("Invoices", orderByPosition).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return requisitionsToDomain(rows), total, nil
}

// Delete removes a requisition and its invoice links
func (r *GormCheckRequisitionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND check_requisition_id = ?", tenantID, id).
			Delete(&models.CheckRequisitionInvoiceModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).
			Delete(&models.CheckRequisitionModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// NextNumber generates the next CR-YYYYMM-NNNN number for the month of at
func (r *GormCheckRequisitionRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error) {
	return nextDocumentNumber(r.db.WithContext(ctx), "check_requisitions", "requisition_number",
		procurement.CheckRequisitionNumberPrefix, tenantID, at)
}

type externalRefRow struct {
	InvoiceID uuid.UUID
	Active    int
	Paid      int
}

// ExternalRefs counts, per invoice, the non-rejected requisitions linking it
// other than the excluded ones. Invoices without such references are absent
// from the map.
func (r *GormCheckRequisitionRepository) ExternalRefs(ctx context.Context, tenantID uuid.UUID, invoiceIDs, excludeRequisitionIDs []uuid.UUID) (map[uuid.UUID]procurement.ExternalRefs, error) {
	refs := make(map[uuid.UUID]procurement.ExternalRefs)
	if len(invoiceIDs) == 0 {
		return refs, nil
	}

	query := r.db.WithContext(ctx).
		Table("check_requisition_invoices AS cri").
		Select("cri.invoice_id AS invoice_id, COUNT(*) AS active, "+
			"MAX(CASE WHEN cr.status = ? THEN 1 ELSE 0 END) AS paid", procurement.RequisitionStatusPaid).
		Joins("JOIN check_requisitions AS cr ON cr.id = cri.check_requisition_id").
		Where("cr.tenant_id = ? AND cri.invoice_id IN ? AND cr.status <> ?",
			tenantID, invoiceIDs, procurement.RequisitionStatusRejected)
	query = excludeIDs(query, "cr.id", excludeRequisitionIDs)

	var rows []externalRefRow
	if err := query.Group("cri.invoice_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		refs[row.InvoiceID] = procurement.ExternalRefs{Active: row.Active, Paid: row.Paid > 0}
	}
	return refs, nil
}

// FindDisbursementID returns the disbursement the requisition is attached to, if any
func (r *GormCheckRequisitionRepository) FindDisbursementID(ctx context.Context, tenantID, requisitionID uuid.UUID) (*uuid.UUID, error) {
	var links []models.DisbursementRequisitionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND check_requisition_id = ?", tenantID, requisitionID).
		Limit(1).
		Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	id := links[0].DisbursementID
	return &id, nil
}

func requisitionsToDomain(rows []models.CheckRequisitionModel) []*procurement.CheckRequisition {
	out := make([]*procurement.CheckRequisition, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// Ensure GormCheckRequisitionRepository implements CheckRequisitionRepository
var _ procurement.CheckRequisitionRepository = (*GormCheckRequisitionRepository)(nil)
