package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
)

// CheckRequisitionService is the check requisition API
type CheckRequisitionService interface {
	Create(ctx context.Context, p identity.Principal, req procurementapp.CheckRequisitionRequest) (*procurementapp.CheckRequisitionResponse, error)
	Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.CheckRequisitionRequest) (*procurementapp.CheckRequisitionResponse, error)
	Approve(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.CheckRequisitionResponse, error)
	Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.RejectRequest) (*procurementapp.CheckRequisitionResponse, error)
	Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error
	ApprovalChecks(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.ApprovalChecksResponse, error)
	GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.CheckRequisitionResponse, error)
	List(ctx context.Context, p identity.Principal, filter procurementapp.CheckRequisitionListFilter) ([]procurementapp.CheckRequisitionResponse, int64, error)
}

// CheckRequisitionHandler handles check requisition endpoints
type CheckRequisitionHandler struct {
	BaseHandler
	requisitions CheckRequisitionService
}

// NewCheckRequisitionHandler creates a new CheckRequisitionHandler
func NewCheckRequisitionHandler(requisitions CheckRequisitionService) *CheckRequisitionHandler {
	return &CheckRequisitionHandler{requisitions: requisitions}
}

// Create handles POST /check-requisitions
// @ID           createCheckRequisition
// @Summary      Create a check requisition
// @Tags         check-requisitions
// @Accept       json
// @Produce      json
// @Param        request body procurementapp.CheckRequisitionRequest true "Request body"
// @Success      201 {object} dto.Response{data=procurementapp.CheckRequisitionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /check-requisitions [post]
func (h *CheckRequisitionHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req procurementapp.CheckRequisitionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cr, err := h.requisitions.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cr)
}

// Update handles PUT /check-requisitions/:id
// @ID           updateCheckRequisition
// @Summary      Update a check requisition
// @Tags         check-requisitions
// @Accept       json
// @Produce      json
// @Param        id path string true "Check requisition ID" format(uuid)
// @Param        request body procurementapp.CheckRequisitionRequest true "Request body"
// @Success      200 {object} dto.Response{data=procurementapp.CheckRequisitionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /check-requisitions/{id} [put]
func (h *CheckRequisitionHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	var req procurementapp.CheckRequisitionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cr, err := h.requisitions.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cr)
}

// ApprovalChecks handles GET /check-requisitions/:id/approval-checks
// @ID           getCheckRequisitionApprovalChecks
// @Summary      Run the approval checks
// @Tags         check-requisitions
// @Produce      json
// @Param        id path string true "Check requisition ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.ApprovalChecksResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /check-requisitions/{id}/approval-checks [get]
func (h *CheckRequisitionHandler) ApprovalChecks(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	checks, err := h.requisitions.ApprovalChecks(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, checks)
}

// Approve handles POST /check-requisitions/:id/approve. A failed critical
// check answers 422 with the failed checks as details.
// @ID           approveCheckRequisition
// @Summary      Approve a check requisition
// @Description  Answers 422 with the failed critical checks as details
// @Tags         check-requisitions
// @Produce      json
// @Param        id path string true "Check requisition ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.CheckRequisitionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /check-requisitions/{id}/approve [post]
func (h *CheckRequisitionHandler) Approve(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	cr, err := h.requisitions.Approve(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cr)
}

// Reject handles POST /check-requisitions/:id/reject
// @ID           rejectCheckRequisition
// @Summary      Reject a check requisition
// @Tags         check-requisitions
// @Accept       json
// @Produce      json
// @Param        id path string true "Check requisition ID" format(uuid)
// @Param        request body procurementapp.RejectRequest true "Request body"
// @Success      200 {object} dto.Response{data=procurementapp.CheckRequisitionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /check-requisitions/{id}/reject [post]
func (h *CheckRequisitionHandler) Reject(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	var req procurementapp.RejectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cr, err := h.requisitions.Reject(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cr)
}

// Delete handles DELETE /check-requisitions/:id
// @ID           deleteCheckRequisition
// @Summary      Delete a check requisition
// @Tags         check-requisitions
// @Produce      json
// @Param        id path string true "Check requisition ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /check-requisitions/{id} [delete]
func (h *CheckRequisitionHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.requisitions.Delete(c.Request.Context(), p, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetByID handles GET /check-requisitions/:id
// @ID           getCheckRequisition
// @Summary      Get a check requisition by ID
// @Tags         check-requisitions
// @Produce      json
// @Param        id path string true "Check requisition ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.CheckRequisitionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /check-requisitions/{id} [get]
func (h *CheckRequisitionHandler) GetByID(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	cr, err := h.requisitions.GetByID(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cr)
}

// List handles GET /check-requisitions
// @ID           listCheckRequisitions
// @Summary      List check requisitions
// @Tags         check-requisitions
// @Produce      json
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" Enums(created_at, updated_at) default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Param        status query string false "Requisition status" Enums(pending_approval, approved, rejected, processed, paid)
// @Param        vendor_id query string false "Vendor ID" format(uuid)
// @Param        project_id query string false "Project ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]procurementapp.CheckRequisitionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /check-requisitions [get]
func (h *CheckRequisitionHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter procurementapp.CheckRequisitionListFilter
	if !h.bindQuery(c, &filter) || !h.queryUUIDs(c, map[string]**uuid.UUID{
		"vendor_id":  &filter.VendorID,
		"project_id": &filter.ProjectID,
	}) {
		return
	}
	items, total, err := h.requisitions.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, items, total, page, size)
}
