package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	attachmentapp "github.com/procurement/backend/internal/application/attachment"
	auditapp "github.com/procurement/backend/internal/application/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/interfaces/http/dto"
)

// FileService manages files attached to records
type FileService interface {
	Upload(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID, upload attachmentapp.Upload) (*attachmentapp.FileResponse, error)
	List(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID) ([]attachmentapp.FileResponse, error)
	Download(ctx context.Context, p identity.Principal, fileID uuid.UUID) (*attachmentapp.DownloadResponse, error)
	Delete(ctx context.Context, p identity.Principal, fileID uuid.UUID) error
}

// RemarkService manages free-text remarks on records
type RemarkService interface {
	Create(ctx context.Context, p identity.Principal, req attachmentapp.CreateRemarkRequest) (*attachmentapp.RemarkResponse, error)
	List(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID, filter shared.Filter) ([]attachmentapp.RemarkResponse, int64, error)
	Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error
}

// ActivityLogService lists audit entries
type ActivityLogService interface {
	List(ctx context.Context, p identity.Principal, filter auditapp.ActivityLogListFilter) ([]auditapp.ActivityLogResponse, int64, error)
}

// subjectQuery selects the record whose files or remarks are listed
type subjectQuery struct {
	SubjectType string `form:"subject_type" binding:"required,subject_type"`
	SubjectID   string `form:"subject_id" binding:"required,uuid"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (q subjectQuery) subjectID() uuid.UUID {
	// validated by the uuid binding tag
	return uuid.MustParse(q.SubjectID)
}

// AttachmentHandler serves files, remarks and the activity log
type AttachmentHandler struct {
	BaseHandler
	files       FileService
	remarks     RemarkService
	activity    ActivityLogService
	maxFileSize int64
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(files FileService, remarks RemarkService, activity ActivityLogService, maxFileSize int64) *AttachmentHandler {
	return &AttachmentHandler{
		files:       files,
		remarks:     remarks,
		activity:    activity,
		maxFileSize: maxFileSize,
	}
}

// UploadFile handles POST /files as multipart with subject_type, subject_id
// and a single file field
// @ID           uploadFile
// @Summary      Upload a file
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        subject_type formData string true "Subject type"
// @Param        subject_id formData string true "Subject ID" format(uuid)
// @Param        file formData file true "File to attach"
// @Success      201 {object} dto.Response{data=attachmentapp.FileResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      413 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Security     BearerAuth
// @Router       /files [post]
func (h *AttachmentHandler) UploadFile(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	uploads, form, ok := h.multipartFiles(c, "file", h.maxFileSize)
	if !ok {
		return
	}

	var details []dto.ValidationDetail
	subjectType := firstValue(form.Value["subject_type"])
	if !shared.SubjectType(subjectType).IsValid() {
		details = append(details, dto.ValidationDetail{Field: "subject_type", Message: "Unknown subject type"})
	}
	subjectID, err := uuid.Parse(firstValue(form.Value["subject_id"]))
	if err != nil {
		details = append(details, dto.ValidationDetail{Field: "subject_id", Message: "Invalid UUID format"})
	}
	if len(uploads) != 1 {
		details = append(details, dto.ValidationDetail{Field: "file", Message: "Exactly one file is required"})
	}
	if len(details) > 0 {
		h.ValidationError(c, details)
		return
	}

	file, err := h.files.Upload(c.Request.Context(), p, subjectType, subjectID, uploads[0])
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, file)
}

// ListFiles handles GET /files?subject_type=&subject_id=
// @ID           listFiles
// @Summary      List files of a subject
// @Tags         files
// @Produce      json
// @Param        subject_type query string true "Subject type" Enums(vendor, project, purchase_order, invoice, check_requisition, disbursement)
// @Param        subject_id query string true "Subject ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]attachmentapp.FileResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /files [get]
func (h *AttachmentHandler) ListFiles(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q subjectQuery
	if !h.bindQuery(c, &q) {
		return
	}
	files, err := h.files.List(c.Request.Context(), p, q.SubjectType, q.subjectID())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, files)
}

// DownloadFile handles GET /files/:id/download and returns a presigned URL
// @ID           downloadFile
// @Summary      Get a download link
// @Description  Returns a presigned URL for the stored object
// @Tags         files
// @Produce      json
// @Param        id path string true "File ID" format(uuid)
// @Success      200 {object} dto.Response{data=attachmentapp.DownloadResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Security     BearerAuth
// @Router       /files/{id}/download [get]
func (h *AttachmentHandler) DownloadFile(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	link, err := h.files.Download(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// DeleteFile handles DELETE /files/:id
// @ID           deleteFile
// @Summary      Delete a file
// @Tags         files
// @Produce      json
// @Param        id path string true "File ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /files/{id} [delete]
func (h *AttachmentHandler) DeleteFile(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.files.Delete(c.Request.Context(), p, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateRemark handles POST /remarks
// @ID           createRemark
// @Summary      Add a remark
// @Tags         remarks
// @Accept       json
// @Produce      json
// @Param        request body attachmentapp.CreateRemarkRequest true "Request body"
// @Success      201 {object} dto.Response{data=attachmentapp.RemarkResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /remarks [post]
func (h *AttachmentHandler) CreateRemark(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req attachmentapp.CreateRemarkRequest
	if !h.bindJSON(c, &req) {
		return
	}
	remark, err := h.remarks.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, remark)
}

// ListRemarks handles GET /remarks?subject_type=&subject_id=
// @ID           listRemarks
// @Summary      List remarks of a subject
// @Tags         remarks
// @Produce      json
// @Param        subject_type query string true "Subject type" Enums(vendor, project, purchase_order, invoice, check_requisition, disbursement)
// @Param        subject_id query string true "Subject ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]attachmentapp.RemarkResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /remarks [get]
func (h *AttachmentHandler) ListRemarks(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var q subjectQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, size := pageOf(q.Page, q.PageSize)
	filter := shared.DefaultFilter()
	filter.Page, filter.PageSize = page, size

	remarks, total, err := h.remarks.List(c.Request.Context(), p, q.SubjectType, q.subjectID(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, remarks, total, page, size)
}

// DeleteRemark handles DELETE /remarks/:id
// @ID           deleteRemark
// @Summary      Delete a remark
// @Tags         remarks
// @Produce      json
// @Param        id path string true "Remark ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /remarks/{id} [delete]
func (h *AttachmentHandler) DeleteRemark(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.remarks.Delete(c.Request.Context(), p, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListActivity handles GET /activity-logs
// @ID           listActivityLogs
// @Summary      List activity logs
// @Description  Without subject_type the tenant-wide feed is returned, admins only
// @Tags         activity-logs
// @Produce      json
// @Param        subject_type query string false "Subject type"
// @Param        subject_id query string false "Subject ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]auditapp.ActivityLogResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /activity-logs [get]
func (h *AttachmentHandler) ListActivity(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter auditapp.ActivityLogListFilter
	if !h.bindQuery(c, &filter) || !h.queryUUIDs(c, map[string]**uuid.UUID{
		"subject_id": &filter.SubjectID,
	}) {
		return
	}
	logs, total, err := h.activity.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, logs, total, page, size)
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
