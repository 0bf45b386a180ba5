package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
)

// ProjectService is the project master data API
type ProjectService interface {
	Create(ctx context.Context, p identity.Principal, req procurementapp.CreateProjectRequest) (*procurementapp.ProjectResponse, error)
	Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.UpdateProjectRequest) (*procurementapp.ProjectResponse, error)
	GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.ProjectResponse, error)
	List(ctx context.Context, p identity.Principal, filter procurementapp.ProjectListFilter) ([]procurementapp.ProjectResponse, int64, error)
}

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	BaseHandler
	projects ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projects ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create handles POST /projects
// @ID           createProject
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body procurementapp.CreateProjectRequest true "Request body"
// @Success      201 {object} dto.Response{data=procurementapp.ProjectResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req procurementapp.CreateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	project, err := h.projects.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, project)
}

// Update handles PUT /projects/:id
// @ID           updateProject
// @Summary      Update a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Param        request body procurementapp.UpdateProjectRequest true "Request body"
// @Success      200 {object} dto.Response{data=procurementapp.ProjectResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	var req procurementapp.UpdateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	project, err := h.projects.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// GetByID handles GET /projects/:id
// @ID           getProject
// @Summary      Get a project by ID
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.ProjectResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	project, err := h.projects.GetByID(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// List handles GET /projects
// @ID           listProjects
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" Enums(created_at, updated_at) default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Param        status query string false "Project status" Enums(active, on_hold, completed)
// @Success      200 {object} dto.Response{data=[]procurementapp.ProjectResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter procurementapp.ProjectListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	projects, total, err := h.projects.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, projects, total, page, size)
}
