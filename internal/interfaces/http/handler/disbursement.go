package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	printingapp "github.com/procurement/backend/internal/application/printing"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/interfaces/http/dto"
)

// Multipart field names of disbursement create and update
const (
	disbursementPayloadField     = "payload"
	disbursementAttachmentsField = "attachments"
)

// DisbursementService is the disbursement API
type DisbursementService interface {
	Create(ctx context.Context, p identity.Principal, req procurementapp.DisbursementRequest) (*procurementapp.DisbursementResponse, error)
	Update(ctx context.Context, p identity.Principal, id uuid.UUID, req procurementapp.DisbursementRequest) (*procurementapp.DisbursementResponse, error)
	Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error
	GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*procurementapp.DisbursementResponse, error)
	List(ctx context.Context, p identity.Principal, filter procurementapp.DisbursementListFilter) ([]procurementapp.DisbursementResponse, int64, error)
}

// VoucherPrinter renders a disbursement's check voucher
type VoucherPrinter interface {
	Print(ctx context.Context, p identity.Principal, disbursementID uuid.UUID) (*printingapp.VoucherPDF, error)
}

// DisbursementHandler handles disbursement endpoints
type DisbursementHandler struct {
	BaseHandler
	disbursements DisbursementService
	vouchers      VoucherPrinter
	maxFileSize   int64
}

// NewDisbursementHandler creates a new DisbursementHandler. maxFileSize caps
// how much of each attachment is read before validation rejects it.
func NewDisbursementHandler(disbursements DisbursementService, vouchers VoucherPrinter, maxFileSize int64) *DisbursementHandler {
	return &DisbursementHandler{
		disbursements: disbursements,
		vouchers:      vouchers,
		maxFileSize:   maxFileSize,
	}
}

// bindRequest accepts either a JSON body or a multipart form whose payload
// field holds the JSON and whose attachments field holds the files
func (h *DisbursementHandler) bindRequest(c *gin.Context) (procurementapp.DisbursementRequest, bool) {
	var req procurementapp.DisbursementRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return req, h.bindJSON(c, &req)
	}

	uploads, form, ok := h.multipartFiles(c, disbursementAttachmentsField, h.maxFileSize)
	if !ok {
		return req, false
	}
	payload := form.Value[disbursementPayloadField]
	if len(payload) == 0 {
		h.ValidationError(c, []dto.ValidationDetail{{Field: disbursementPayloadField, Message: "This field is required"}})
		return req, false
	}
	if err := json.Unmarshal([]byte(payload[0]), &req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid payload JSON")
		return req, false
	}
	if !h.validate(c, &req) {
		return req, false
	}
	req.Attachments = uploads
	return req, true
}

// Create handles POST /disbursements
// @ID           createDisbursement
// @Summary      Create a disbursement
// @Description  Linked requisitions move to processed and their invoices to pending_disbursement
// @Tags         disbursements
// @Accept       json
// @Produce      json
// @Param        request body procurementapp.DisbursementRequest true "Request body"
// @Success      201 {object} dto.Response{data=procurementapp.DisbursementResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /disbursements [post]
func (h *DisbursementHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	d, err := h.disbursements.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, d)
}

// Update handles PUT /disbursements/:id
// @ID           updateDisbursement
// @Summary      Update a disbursement
// @Description  Requisitions removed from the voucher revert to approved; a release date marks the rest paid
// @Tags         disbursements
// @Accept       json
// @Produce      json
// @Param        id path string true "Disbursement ID" format(uuid)
// @Param        request body procurementapp.DisbursementRequest true "Request body"
// @Success      200 {object} dto.Response{data=procurementapp.DisbursementResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /disbursements/{id} [put]
func (h *DisbursementHandler) Update(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	d, err := h.disbursements.Update(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// Delete handles DELETE /disbursements/:id
// @ID           deleteDisbursement
// @Summary      Delete a disbursement
// @Description  Every linked requisition reverts to approved
// @Tags         disbursements
// @Produce      json
// @Param        id path string true "Disbursement ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /disbursements/{id} [delete]
func (h *DisbursementHandler) Delete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.disbursements.Delete(c.Request.Context(), p, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetByID handles GET /disbursements/:id
// @ID           getDisbursement
// @Summary      Get a disbursement by ID
// @Tags         disbursements
// @Produce      json
// @Param        id path string true "Disbursement ID" format(uuid)
// @Success      200 {object} dto.Response{data=procurementapp.DisbursementResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /disbursements/{id} [get]
func (h *DisbursementHandler) GetByID(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	d, err := h.disbursements.GetByID(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// List handles GET /disbursements
// @ID           listDisbursements
// @Summary      List disbursements
// @Tags         disbursements
// @Produce      json
// @Param        search query string false "Search term"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" Enums(created_at, updated_at) default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Param        stage query string false "Voucher stage" Enums(draft, scheduled, printing, released)
// @Success      200 {object} dto.Response{data=[]procurementapp.DisbursementResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /disbursements [get]
func (h *DisbursementHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter procurementapp.DisbursementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.disbursements.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, items, total, page, size)
}

// Voucher handles GET /disbursements/:id/voucher and streams the PDF
// @ID           printDisbursementVoucher
// @Summary      Print the check voucher
// @Tags         disbursements
// @Produce      application/pdf
// @Param        id path string true "Disbursement ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /disbursements/{id}/voucher [get]
func (h *DisbursementHandler) Voucher(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	if h.vouchers == nil {
		h.HandleError(c, printingapp.ErrPrintingUnavailable)
		return
	}
	pdf, err := h.vouchers.Print(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+pdf.FileName+`"`)
	c.Data(http.StatusOK, printingapp.PDFContentType, pdf.Content)
}
