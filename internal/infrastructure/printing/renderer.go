package printing

import (
	"context"
	"errors"

	"github.com/procurement/backend/internal/domain/printing"
)

// Render error codes
const (
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
	ErrCodeInvalidRequest = "INVALID_RENDER_REQUEST"
	ErrCodeTemplateFailed = "TEMPLATE_FAILED"
)

// ErrRendererUnavailable is returned when printing is disabled
var ErrRendererUnavailable = errors.New("pdf renderer is not configured")

// RenderRequest is one HTML document to print
type RenderRequest struct {
	HTML   string
	Layout printing.Layout
	Title  string
	// FooterHTML uses Chrome's print template classes (pageNumber, totalPages)
	FooterHTML string
}

// PDFRenderer prints HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) ([]byte, error)
	Close() error
}

// RenderError carries a machine readable code
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error { return e.Cause }

// NewRenderError creates a RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
