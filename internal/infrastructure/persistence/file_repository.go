package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFileRepository implements FileRepository using GORM
type GormFileRepository struct {
	db *gorm.DB
}

// NewGormFileRepository creates a new GormFileRepository
func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

// Create inserts file metadata
func (r *GormFileRepository) Create(ctx context.Context, file *attachment.File) error {
	return translateError(r.db.WithContext(ctx).Create(models.FileModelFromDomain(file)).Error)
}

// FindByID finds a file within the tenant
func (r *GormFileRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*attachment.File, error) {
	var model models.FileModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySubject lists files attached to a subject, newest first
func (r *GormFileRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef) ([]*attachment.File, error) {
	var rows []models.FileModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subject_type = ? AND subject_id = ?", tenantID, subject.Type, subject.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	files := make([]*attachment.File, len(rows))
	for i := range rows {
		files[i] = rows[i].ToDomain()
	}
	return files, nil
}

// Delete removes file metadata
func (r *GormFileRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.FileModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ attachment.FileRepository = (*GormFileRepository)(nil)
