package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
)

// InvoiceService is the invoice API
type InvoiceService interface {
	Create(ctx context.Context, p identity.Principal, req procurementapp.InvoiceRequest) (*procurementapp.InvoiceResponse, error)
	Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.InvoiceRequest) (*procurementapp.InvoiceResponse, error)
	Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error
	Receive(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error)
	StartReview(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error)
	Approve(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error)
	Reject(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.RejectRequest) (*procurementapp.InvoiceResponse, error)
	Resubmit(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error)
	GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.InvoiceResponse, error)
	List(ctx context.Context, p identity.Principal, filter procurementapp.InvoiceListFilter) ([]procurementapp.InvoiceResponse, int64, error)
}

type invoiceTransition func(context.Context, identity.Principal, uuid.UUID) (*procurementapp.InvoiceResponse, error)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Create handles POST /invoices
// @ID           createInvoice
// @Summary      Create a invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body procurementapp.InvoiceRequest true "Request body"
// @Success      201 {object} dto.Response{data=procurementapp.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req procurementapp.InvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// Update handles PUT /invoices/:id
// @ID           updateInvoice
// @Summary      Update a invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body procurementapp.InvoiceRequest true "Request body"
// @Success      200 {object} dto.Response{data=procurementapp.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	var req procurementapp.InvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Delete handles DELETE /invoices/:id
// @ID           deleteInvoice
// @Summary      Delete a invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), p, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Receive handles POST /invoices/:id/receive
// @ID           receiveInvoice
// @Summary      Mark an invoice received
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id}/receive [post]
func (h *InvoiceHandler) Receive(c *gin.Context) { h.transition(c, h.invoices.Receive) }

// Review handles POST /invoices/:id/review
// @ID           reviewInvoice
// @Summary      Start reviewing an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id}/review [post]
func (h *InvoiceHandler) Review(c *gin.Context) { h.transition(c, h.invoices.StartReview) }

// Approve handles POST /invoices/:id/approve
// @ID           approveInvoice
// @Summary      Approve an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id}/approve [post]
func (h *InvoiceHandler) Approve(c *gin.Context) { h.transition(c, h.invoices.Approve) }

// Resubmit handles POST /invoices/:id/resubmit
// @ID           resubmitInvoice
// @Summary      Resubmit a rejected invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id}/resubmit [post]
func (h *InvoiceHandler) Resubmit(c *gin.Context) { h.transition(c, h.invoices.Resubmit) }

// Reject handles POST /invoices/:id/reject
// @ID           rejectInvoice
// @Summary      Reject an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body procurementapp.RejectRequest true "Request body"
// @Success      200 {object} dto.Response{data=procurementapp.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id}/reject [post]
func (h *InvoiceHandler) Reject(c *gin.Context) {
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
	inv, err := h.invoices.Reject(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

func (h *InvoiceHandler) transition(c *gin.Context, fn invoiceTransition) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	inv, err := fn(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// GetByID handles GET /invoices/:id
// @ID           getInvoice
// @Summary      Get a invoice by ID
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	h.transition(c, h.invoices.GetByID)
}

// List handles GET /invoices
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" Enums(created_at, updated_at) default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Param        status query string false "Invoice status" Enums(pending, received, in_progress, approved, rejected, pending_disbursement, paid)
// @Param        vendor_id query string false "Vendor ID" format(uuid)
// @Param        project_id query string false "Project ID" format(uuid)
// @Param        purchase_order_id query string false "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]procurementapp.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter procurementapp.InvoiceListFilter
	if !h.bindQuery(c, &filter) || !h.queryUUIDs(c, map[string]**uuid.UUID{
		"vendor_id":         &filter.VendorID,
		"project_id":        &filter.ProjectID,
		"purchase_order_id": &filter.PurchaseOrderID,
	}) {
		return
	}
	invoices, total, err := h.invoices.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, invoices, total, page, size)
}
