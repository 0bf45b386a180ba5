package procurement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// ProjectStatus represents the status of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// IsValid checks if the status is known
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted:
		return true
	}
	return false
}

// Project is a cost center purchase orders and invoices are charged against
type Project struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Description string
	Status      ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
}

// ProjectDetails holds the editable project fields
type ProjectDetails struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// NewProject creates an active project
func NewProject(tenantID, createdBy uuid.UUID, code string, details ProjectDetails) (*Project, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	verr := &shared.ValidationError{}
	if code == "" {
		verr.Add("code", "Project code is required")
	} else if len(code) > 50 {
		verr.Add("code", "Project code cannot exceed 50 characters")
	}
	validateProjectDetails(details, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	p := &Project{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Code:                code,
		Status:              ProjectStatusActive,
	}
	p.apply(details)
	return p, nil
}

// Update replaces the project's editable fields
func (p *Project) Update(details ProjectDetails) error {
	verr := &shared.ValidationError{}
	validateProjectDetails(details, verr)
	if err := verr.OrNil(); err != nil {
		return err
	}
	p.apply(details)
	p.MarkModified(time.Now().UTC())
	return nil
}

// ChangeStatus moves the project to another status. Completed projects are final.
func (p *Project) ChangeStatus(status ProjectStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("status", "Unknown project status")
	}
	if p.Status == ProjectStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Completed projects cannot change status")
	}
	if p.Status == status {
		return nil
	}
	p.Status = status
	p.MarkModified(time.Now().UTC())
	return nil
}

func (p *Project) apply(d ProjectDetails) {
	p.Name = strings.TrimSpace(d.Name)
	p.Description = strings.TrimSpace(d.Description)
	p.StartDate = d.StartDate
	p.EndDate = d.EndDate
}

func validateProjectDetails(d ProjectDetails, verr *shared.ValidationError) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		verr.Add("name", "Project name is required")
	} else if len(name) > 200 {
		verr.Add("name", "Project name cannot exceed 200 characters")
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		verr.Add("end_date", "End date must not be before start date")
	}
}
