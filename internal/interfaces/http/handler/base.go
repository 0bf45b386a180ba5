// Package handler holds the gin handlers of the procurement API.
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/interfaces/http/dto"
	"github.com/procurement/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// principal returns the authenticated principal or writes 401
func (h *BaseHandler) principal(c *gin.Context) (identity.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
	}
	return p, ok
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// ValidationError sends a 422 response with field details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusUnprocessableEntity, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// bindError answers a failed bind: field failures are 422 with details,
// anything else (syntax, wrong types, oversized bodies) is 400
func (h *BaseHandler) bindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); len(details) > 0 {
		h.ValidationError(c, details)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body")
}

// bindJSON binds and validates the request body, answering on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// bindQuery binds and validates query parameters, answering on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		if details := middleware.ValidationDetails(err); len(details) > 0 {
			h.ValidationError(c, details)
			return false
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid query parameters")
		return false
	}
	return true
}

// validate runs the binding validator on an already decoded value
func (h *BaseHandler) validate(c *gin.Context, req any) bool {
	if err := binding.Validator.ValidateStruct(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// parseUUID reads a UUID path parameter, answering 400 when malformed
func (h *BaseHandler) parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+strings.ReplaceAll(param, "_", " ")+" format")
		return uuid.Nil, false
	}
	return id, true
}

// HandleError converts service errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		details := make([]dto.ValidationDetail, len(verr.Fields))
		for i, f := range verr.Fields {
			details[i] = dto.ValidationDetail{Field: f.Field, Message: f.Message}
		}
		h.ValidationError(c, details)
		return
	}

	var blocked *procurement.ApprovalBlockedError
	if errors.As(err, &blocked) {
		details := make([]dto.ValidationDetail, len(blocked.Failed))
		for i, check := range blocked.Failed {
			details[i] = dto.ValidationDetail{Field: check.Name, Message: check.Message}
		}
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeApprovalBlocked,
			"Requisition cannot be approved until every critical check passes", requestID)
		resp.Error.Details = details
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	var txErr *shared.TransactionError
	if errors.As(err, &txErr) {
		logger.FromGin(c).Error("Transaction rolled back",
			zap.String("message", txErr.Message),
			zap.Error(txErr.Cause))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeTransactionFailed, txErr.Message, requestID))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	logger.FromGin(c).Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

// pageOf returns the effective page and page size of a list query
func pageOf(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, shared.Filter{PageSize: pageSize}.Limit()
}

// queryUUIDs reads optional UUID query parameters into the given targets,
// answering 422 with one detail per malformed value
func (h *BaseHandler) queryUUIDs(c *gin.Context, targets map[string]**uuid.UUID) bool {
	var details []dto.ValidationDetail
	for name, target := range targets {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			details = append(details, dto.ValidationDetail{Field: name, Message: "Invalid UUID format"})
			continue
		}
		*target = &id
	}
	if len(details) > 0 {
		h.ValidationError(c, details)
		return false
	}
	return true
}
