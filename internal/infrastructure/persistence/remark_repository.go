package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRemarkRepository implements RemarkRepository using GORM
type GormRemarkRepository struct {
	db *gorm.DB
}

// NewGormRemarkRepository creates a new GormRemarkRepository
func NewGormRemarkRepository(db *gorm.DB) *GormRemarkRepository {
	return &GormRemarkRepository{db: db}
}

func (r *GormRemarkRepository) Create(ctx context.Context, remark *attachment.Remark) error {
	return translateError(r.db.WithContext(ctx).Create(models.RemarkModelFromDomain(remark)).Error)
}

func (r *GormRemarkRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*attachment.Remark, error) {
	var model models.RemarkModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySubject pages through a subject's remarks, newest first
func (r *GormRemarkRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef, filter shared.Filter) ([]*attachment.Remark, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RemarkModel{}).
		Where("tenant_id = ? AND subject_type = ? AND subject_id = ?", tenantID, subject.Type, subject.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.RemarkModel
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	remarks := make([]*attachment.Remark, len(rows))
	for i := range rows {
		remarks[i] = rows[i].ToDomain()
	}
	return remarks, total, nil
}

func (r *GormRemarkRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.RemarkModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ attachment.RemarkRepository = (*GormRemarkRepository)(nil)
