package attachment

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/attachment"
)

// FileResponse represents an attached file in API responses
type FileResponse struct {
	ID           uuid.UUID  `json:"id"`
	SubjectType  string     `json:"subject_type"`
	SubjectID    uuid.UUID  `json:"subject_id"`
	OriginalName string     `json:"original_name"`
	MimeType     string     `json:"mime_type"`
	Extension    string     `json:"extension"`
	Size         int64      `json:"size"`
	UploadedBy   *uuid.UUID `json:"uploaded_by,omitempty"`
	UploadedAt   time.Time  `json:"uploaded_at"`
}

// DownloadResponse carries a presigned download URL
type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	FileName  string    `json:"file_name"`
}

// RemarkResponse represents a remark in API responses
type RemarkResponse struct {
	ID          uuid.UUID `json:"id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   uuid.UUID `json:"subject_id"`
	Body        string    `json:"body"`
	AuthorID    uuid.UUID `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRemarkRequest represents a request to add a remark
type CreateRemarkRequest struct {
	SubjectType string    `json:"subject_type" binding:"required,subject_type"`
	SubjectID   uuid.UUID `json:"subject_id" binding:"required"`
	Body        string    `json:"body" binding:"required,max=5000"`
}

// ToFileResponse converts a domain file to a response
func ToFileResponse(f *attachment.File) FileResponse {
	return FileResponse{
		ID:           f.ID,
		SubjectType:  f.Subject.Type.String(),
		SubjectID:    f.Subject.ID,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		Extension:    f.Extension,
		Size:         f.Size,
		UploadedBy:   f.UploadedBy,
		UploadedAt:   f.UploadedAt(),
	}
}

// ToFileResponses converts a list of domain files
func ToFileResponses(files []*attachment.File) []FileResponse {
	out := make([]FileResponse, len(files))
	for i, f := range files {
		out[i] = ToFileResponse(f)
	}
	return out
}

// ToRemarkResponse converts a domain remark to a response
func ToRemarkResponse(r *attachment.Remark) RemarkResponse {
	return RemarkResponse{
		ID:          r.ID,
		SubjectType: r.Subject.Type.String(),
		SubjectID:   r.Subject.ID,
		Body:        r.Body,
		AuthorID:    r.AuthorID,
		AuthorName:  r.AuthorName,
		CreatedAt:   r.CreatedAt,
	}
}
