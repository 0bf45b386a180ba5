package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormActivityLogRepository implements ActivityLogRepository using GORM.
// Entries are append-only.
type GormActivityLogRepository struct {
	db *gorm.DB
}

// NewGormActivityLogRepository creates a new GormActivityLogRepository
func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

// Create appends an entry
func (r *GormActivityLogRepository) Create(ctx context.Context, log *audit.ActivityLog) error {
	return r.db.WithContext(ctx).Create(models.ActivityLogModelFromDomain(log)).Error
}

// FindBySubject lists a subject's entries, newest first
func (r *GormActivityLogRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef, filter shared.Filter) ([]*audit.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLogModel{}).
		Where("tenant_id = ? AND subject_type = ? AND subject_id = ?", tenantID, subject.Type, subject.ID)
	return r.page(query, filter)
}

// FindAll lists the tenant's entries, newest first
func (r *GormActivityLogRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*audit.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLogModel{}).Where("tenant_id = ?", tenantID)
	query = applyEquals(query, filter.Filters, map[string]string{"subject_type": "subject_type"})
	return r.page(query, filter)
}

func (r *GormActivityLogRepository) page(query *gorm.DB, filter shared.Filter) ([]*audit.ActivityLog, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ActivityLogModel
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	logs := make([]*audit.ActivityLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, total, nil
}

// Ensure GormActivityLogRepository implements ActivityLogRepository
var _ audit.ActivityLogRepository = (*GormActivityLogRepository)(nil)
