package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	attachmentapp "github.com/procurement/backend/internal/application/attachment"
	"github.com/procurement/backend/internal/interfaces/http/dto"
)

// readUploads loads the multipart files under field. Each file is read
// up to maxSize+1 bytes so oversized files still fail attachment validation
// instead of being silently truncated.
func readUploads(headers []*multipart.FileHeader, maxSize int64) ([]attachmentapp.Upload, error) {
	uploads := make([]attachmentapp.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh, maxSize)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, attachmentapp.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader, maxSize int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

// multipartFiles parses the multipart form and returns the files of field,
// answering 400 when the body is not a readable multipart form
func (h *BaseHandler) multipartFiles(c *gin.Context, field string, maxSize int64) ([]attachmentapp.Upload, *multipart.Form, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return nil, nil, false
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid multipart form")
		return nil, nil, false
	}
	uploads, err := readUploads(form.File[field], maxSize)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Could not read uploaded file")
		return nil, nil, false
	}
	return uploads, form, true
}
