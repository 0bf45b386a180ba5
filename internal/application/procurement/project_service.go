package procurement

import (
	"context"

	"github.com/google/uuid"
	auditapp "github.com/procurement/backend/internal/application/audit"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
)

// ProjectService handles project master data
type ProjectService struct {
	projectRepo procurement.ProjectRepository
	scope       TransactionScope
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo procurement.ProjectRepository, scope TransactionScope) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, scope: scope}
}

// Create creates a new project
func (s *ProjectService) Create(ctx context.Context, p identity.Principal, req CreateProjectRequest) (*ProjectResponse, error) {
	if err := p.Authorize(identity.ModuleProjects, identity.AccessWrite); err != nil {
		return nil, err
	}
	project, err := procurement.NewProject(p.TenantID, p.UserID, req.Code, procurement.ProjectDetails{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return nil, err
	}

	exists, err := s.projectRepo.ExistsByCode(ctx, p.TenantID, project.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewValidationError("code", "Project code already exists")
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.ProjectRepo().Create(ctx, project); err != nil {
			return err
		}
		changes := audit.Changes{}.Set("code", nil, project.Code).Set("name", nil, project.Name)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectProject, project.ID, audit.ActionCreated, changes, "")
	})
	if err != nil {
		return nil, err
	}

	resp := ToProjectResponse(project)
	return &resp, nil
}

// Update edits a project and optionally moves its status
func (s *ProjectService) Update(ctx context.Context, p identity.Principal, id uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error) {
	if err := p.Authorize(identity.ModuleProjects, identity.AccessWrite); err != nil {
		return nil, err
	}

	var project *procurement.Project
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		project, err = repos.ProjectRepo().FindByID(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		before := *project

		if err := project.Update(procurement.ProjectDetails{
			Name:        req.Name,
			Description: req.Description,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
		}); err != nil {
			return err
		}
		if req.Status != nil {
			if err := project.ChangeStatus(procurement.ProjectStatus(*req.Status)); err != nil {
				return err
			}
		}
		if err := repos.ProjectRepo().SaveWithLock(ctx, project); err != nil {
			return err
		}

		changes := audit.Changes{}.
			Set("name", before.Name, project.Name).
			Set("description", before.Description, project.Description).
			Set("start_date", formatDate(before.StartDate), formatDate(project.StartDate)).
			Set("end_date", formatDate(before.EndDate), formatDate(project.EndDate)).
			Set("status", string(before.Status), string(project.Status))
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectProject, project.ID, audit.ActionUpdated, changes, "")
	})
	if err != nil {
		return nil, err
	}

	resp := ToProjectResponse(project)
	return &resp, nil
}

// GetByID retrieves a project
func (s *ProjectService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*ProjectResponse, error) {
	if err := p.Authorize(identity.ModuleProjects, identity.AccessRead); err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProjectResponse(project)
	return &resp, nil
}

// List retrieves projects with filtering and pagination
func (s *ProjectService) List(ctx context.Context, p identity.Principal, filter ProjectListFilter) ([]ProjectResponse, int64, error) {
	if err := p.Authorize(identity.ModuleProjects, identity.AccessRead); err != nil {
		return nil, 0, err
	}
	domainFilter := toDomainFilter(filter.ListFilter)
	if filter.Status != "" {
		domainFilter = domainFilter.With("status", filter.Status)
	}
	projects, total, err := s.projectRepo.FindAll(ctx, p.TenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProjectResponse, len(projects))
	for i, pr := range projects {
		out[i] = ToProjectResponse(pr)
	}
	return out, total, nil
}
