package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
)

// VendorService is the vendor master data API
type VendorService interface {
	Create(ctx context.Context, p identity.Principal, req procurementapp.CreateVendorRequest) (*procurementapp.VendorResponse, error)
	Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.UpdateVendorRequest) (*procurementapp.VendorResponse, error)
	GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.VendorResponse, error)
	List(ctx context.Context, p identity.Principal, filter procurementapp.VendorListFilter) ([]procurementapp.VendorResponse, int64, error)
}

// VendorHandler handles vendor endpoints
type VendorHandler struct {
	BaseHandler
	vendors VendorService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendors VendorService) *VendorHandler {
	return &VendorHandler{vendors: vendors}
}

// Create handles POST /vendors
// @ID           createVendor
// @Summary      Create a vendor
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        request body procurementapp.CreateVendorRequest true "Request body"
// @Success      201 {object} dto.Response{data=procurementapp.VendorResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /vendors [post]
func (h *VendorHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req procurementapp.CreateVendorRequest
	if !h.bindJSON(c, &req) {
		return
	}
	vendor, err := h.vendors.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, vendor)
}

// Update handles PUT /vendors/:id
// @ID           updateVendor
// @Summary      Update a vendor
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Param        request body procurementapp.UpdateVendorRequest true "Request body"
// @Success      200 {object} dto.Response{data=procurementapp.VendorResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /vendors/{id} [put]
func (h *VendorHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	var req procurementapp.UpdateVendorRequest
	if !h.bindJSON(c, &req) {
		return
	}
	vendor, err := h.vendors.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vendor)
}

// GetByID handles GET /vendors/:id
// @ID           getVendor
// @Summary      Get a vendor by ID
// @Tags         vendors
// @Produce      json
// @Param        id path string true "Vendor ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.VendorResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /vendors/{id} [get]
func (h *VendorHandler) GetByID(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	vendor, err := h.vendors.GetByID(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vendor)
}

// List handles GET /vendors
// @ID           listVendors
// @Summary      List vendors
// @Tags         vendors
// @Produce      json
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" Enums(created_at, updated_at) default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Param        is_active query bool false "Active vendors only"
// @Success      200 {object} dto.Response{data=[]procurementapp.VendorResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /vendors [get]
func (h *VendorHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter procurementapp.VendorListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	vendors, total, err := h.vendors.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, vendors, total, page, size)
}
