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

// GormProjectRepository implements ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

func (r *GormProjectRepository) Create(ctx context.Context, project *procurement.Project) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProjectModelFromDomain(project)).Error)
}

func (r *GormProjectRepository) SaveWithLock(ctx context.Context, project *procurement.Project) error {
	expected := project.Version
	model := models.ProjectModelFromDomain(project)
	model.Version = expected + 1
	if err := saveVersioned(r.db.WithContext(ctx), model, project.TenantID, expected); err != nil {
		return err
	}
	project.Version = model.Version
	return nil
}

func (r *GormProjectRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormProjectRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*procurement.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProjectModel{}).Where("tenant_id = ?", tenantID)
	query = applyEquals(query, filter.Filters, map[string]string{"status": "status"})
	query = applySearch(query, filter.Search, "code", "name")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProjectModel
	if err := applyPage(query, filter, ProjectSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	projects := make([]*procurement.Project, len(rows))
	for i := range rows {
		projects[i] = rows[i].ToDomain()
	}
	return projects, total, nil
}

func (r *GormProjectRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProjectModel{}).
		Where("tenant_id = ? AND UPPER(code) = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ procurement.ProjectRepository = (*GormProjectRepository)(nil)
