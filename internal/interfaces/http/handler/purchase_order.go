package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
)

// PurchaseOrderService is the purchase order API
type PurchaseOrderService interface {
	Create(ctx context.Context, p identity.Principal, req procurementapp.PurchaseOrderRequest) (*procurementapp.PurchaseOrderResponse, error)
	Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.PurchaseOrderRequest) (*procurementapp.PurchaseOrderResponse, error)
	Finalize(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.PurchaseOrderResponse, error)
	Close(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.PurchaseOrderResponse, error)
	Cancel(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.CancelRequest) (*procurementapp.PurchaseOrderResponse, error)
	Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error
	GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.PurchaseOrderResponse, error)
	List(ctx context.Context, p identity.Principal, filter procurementapp.PurchaseOrderListFilter) ([]procurementapp.PurchaseOrderResponse, int64, error)
}

// PurchaseOrderHandler handles purchase order endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orders PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orders PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// Create handles POST /purchase-orders
// @ID           createPurchaseOrder
// @Summary      Create a purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        request body procurementapp.PurchaseOrderRequest true "Request body"
// @Success      201 {object} dto.Response{data=procurementapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req procurementapp.PurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Update handles PUT /purchase-orders/:id
// @ID           updatePurchaseOrder
// @Summary      Update a purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body procurementapp.PurchaseOrderRequest true "Request body"
// @Success      200 {object} dto.Response{data=procurementapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	var req procurementapp.PurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Finalize handles POST /purchase-orders/:id/finalize
// @ID           finalizePurchaseOrder
// @Summary      Finalize a purchase order
// @Description  Moves a draft order to open
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/finalize [post]
func (h *PurchaseOrderHandler) Finalize(c *gin.Context) {
	h.transition(c, h.orders.Finalize)
}

// Close handles POST /purchase-orders/:id/close
// @ID           closePurchaseOrder
// @Summary      Close a purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/close [post]
func (h *PurchaseOrderHandler) Close(c *gin.Context) {
	h.transition(c, h.orders.Close)
}

// Cancel handles POST /purchase-orders/:id/cancel
// @ID           cancelPurchaseOrder
// @Summary      Cancel a purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body procurementapp.CancelRequest true "Request body"
// @Success      200 {object} dto.Response{data=procurementapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	var req procurementapp.CancelRequest
	h.transition(c, func(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.PurchaseOrderResponse, error) {
		return h.orders.Cancel(ctx, p, id, req)
	}, &req)
}

// transition runs a status change; body, when given, is bound first
func (h *PurchaseOrderHandler) transition(
	c *gin.Context,
	fn func(context.Context, identity.Principal, uuid.UUID) (*procurementapp.PurchaseOrderResponse, error),
	body ...any,
) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	for _, b := range body {
		if !h.bindJSON(c, b) {
			return
		}
	}
	order, err := fn(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete handles DELETE /purchase-orders/:id
// @ID           deletePurchaseOrder
// @Summary      Delete a purchase order
// @Description  Only draft orders without invoices can be deleted
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [delete]
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), p, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetByID handles GET /purchase-orders/:id
// @ID           getPurchaseOrder
// @Summary      Get a purchase order by ID
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetByID(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List handles GET /purchase-orders
// @ID           listPurchaseOrders
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Produce      json
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" Enums(created_at, updated_at) default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Param        status query string false "Order status" Enums(draft, open, closed, cancelled)
// @Param        vendor_id query string false "Vendor ID" format(uuid)
// @Param        project_id query string false "Project ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]procurementapp.PurchaseOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter procurementapp.PurchaseOrderListFilter
	if !h.bindQuery(c, &filter) || !h.queryUUIDs(c, map[string]**uuid.UUID{
		"vendor_id":  &filter.VendorID,
		"project_id": &filter.ProjectID,
	}) {
		return
	}
	orders, total, err := h.orders.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, orders, total, page, size)
}
