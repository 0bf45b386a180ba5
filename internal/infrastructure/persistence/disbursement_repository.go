package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDisbursementRepository implements DisbursementRepository using GORM
type GormDisbursementRepository struct {
	db *gorm.DB
}

// NewGormDisbursementRepository creates a new GormDisbursementRepository
func NewGormDisbursementRepository(db *gorm.DB) *GormDisbursementRepository {
	return &GormDisbursementRepository{db: db}
}

// Create inserts a disbursement together with its requisition links
func (r *GormDisbursementRepository) Create(ctx context.Context, d *procurement.Disbursement) error {
	model := models.DisbursementModelFromDomain(d)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateError(err)
		}
		return r.insertLinks(tx, model.Requisitions)
	})
}

// SaveWithLock updates a disbursement and replaces its requisition links
func (r *GormDisbursementRepository) SaveWithLock(ctx context.Context, d *procurement.Disbursement) error {
	expected := d.Version
	model := models.DisbursementModelFromDomain(d)
	model.Version = expected + 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, d.TenantID, expected); err != nil {
			return err
		}
		if err := tx.Where("disbursement_id = ?", d.ID).
			Delete(&models.DisbursementRequisitionModel{}).Error; err != nil {
			return err
		}
		return r.insertLinks(tx, model.Requisitions)
	})
	if err != nil {
		return err
	}
	d.Version = model.Version
	return nil
}

func (r *GormDisbursementRepository) insertLinks(tx *gorm.DB, links []models.DisbursementRequisitionModel) error {
	if len(links) == 0 {
		return nil
	}
	return translateError(tx.Create(&links).Error)
}

// FindByID finds a disbursement within the tenant
func (r *GormDisbursementRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Disbursement, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a disbursement and locks its row
func (r *GormDisbursementRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Disbursement, error) {
	return r.findOne(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormDisbursementRepository) findOne(db *gorm.DB, tenantID, id uuid.UUID) (*procurement.Disbursement, error) {
	var model models.DisbursementModel
	if err := db.Preload("Requisitions", orderByPosition).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists disbursements with filtering and pagination. The stage
// filter is derived from the check dates.
func (r *GormDisbursementRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.Disbursement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DisbursementModel{}).Where("tenant_id = ?", tenantID)
	if stage, ok := filter.Filters["stage"]; ok {
		query = applyStage(query, procurement.DisbursementStage(toString(stage)))
	}
	query = applySearch(query, filter.Search, "voucher_number", "check_number", "bank_name")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.DisbursementModel
	if err := applyPage(query, filter, DisbursementSortFields).
		Preload("Requisitions", orderByPosition).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*procurement.Disbursement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

func applyStage(query *gorm.DB, stage procurement.DisbursementStage) *gorm.DB {
	switch stage {
	case procurement.DisbursementStageReleased:
		return query.Where("date_check_released_to_vendor IS NOT NULL")
	case procurement.DisbursementStagePrinting:
		return query.Where("date_check_released_to_vendor IS NULL AND date_check_printing IS NOT NULL")
	case procurement.DisbursementStageScheduled:
		return query.Where("date_check_released_to_vendor IS NULL AND date_check_printing IS NULL AND date_check_scheduled IS NOT NULL")
	case procurement.DisbursementStageDraft:
		return query.Where("date_check_released_to_vendor IS NULL AND date_check_printing IS NULL AND date_check_scheduled IS NULL")
	}
	return query
}

// Delete removes a disbursement and its requisition links
func (r *GormDisbursementRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND disbursement_id = ?", tenantID, id).
			Delete(&models.DisbursementRequisitionModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).
			Delete(&models.DisbursementModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ExistsByVoucherNumber checks if a voucher number is taken
func (r *GormDisbursementRepository) ExistsByVoucherNumber(ctx context.Context, tenantID uuid.UUID, voucher string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.DisbursementModel{}).
		Where("tenant_id = ? AND UPPER(voucher_number) = ?", tenantID, strings.ToUpper(strings.TrimSpace(voucher)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAttachedElsewhere returns the requisitions among ids that another
// disbursement holds
func (r *GormDisbursementRepository) FindAttachedElsewhere(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, excludeID *uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).Model(&models.DisbursementRequisitionModel{}).
		Where("tenant_id = ? AND check_requisition_id IN ?", tenantID, ids)
	if excludeID != nil {
		query = query.Where("disbursement_id <> ?", *excludeID)
	}
	var attached []uuid.UUID
	if err := query.Order("check_requisition_id").Pluck("check_requisition_id", &attached).Error; err != nil {
		return nil, err
	}
	return attached, nil
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case procurement.DisbursementStage:
		return string(s)
	}
	return ""
}

// Ensure GormDisbursementRepository implements DisbursementRepository
var _ procurement.DisbursementRepository = (*GormDisbursementRepository)(nil)
