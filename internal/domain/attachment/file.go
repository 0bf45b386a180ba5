package attachment

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// MaxFileSize is the largest accepted attachment (10 MiB)
const MaxFileSize int64 = 10 << 20

// allowedExtensions maps accepted extensions to their canonical content type
var allowedExtensions = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// AllowedExtensions returns the accepted file extensions
func AllowedExtensions() []string {
	return []string{"pdf", "jpg", "jpeg", "png"}
}

// File is a stored document attached to a subject
type File struct {
	shared.BaseEntity
	TenantID     uuid.UUID
	Subject      shared.SubjectRef
	OriginalName string
	StorageKey   string
	MimeType     string
	Extension    string
	Size         int64
	UploadedBy   *uuid.UUID
}

// ValidateUpload checks the name and size of an upload before it is stored
func ValidateUpload(originalName string, size int64) (string, error) {
	name := strings.TrimSpace(originalName)
	if name == "" {
		return "", shared.NewValidationError("file", "File name is required")
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if _, ok := allowedExtensions[ext]; !ok {
		return "", shared.NewValidationError("file", "File type must be one of: "+strings.Join(AllowedExtensions(), ", "))
	}
	if size <= 0 {
		return "", shared.NewValidationError("file", "File is empty")
	}
	if size > MaxFileSize {
		return "", shared.NewValidationError("file", fmt.Sprintf("File cannot exceed %d MB", MaxFileSize>>20))
	}
	return ext, nil
}

// NewFile validates an upload and assigns it a storage key
func NewFile(tenantID uuid.UUID, subject shared.SubjectRef, originalName string, size int64, uploadedBy *uuid.UUID) (*File, error) {
	ext, err := ValidateUpload(originalName, size)
	if err != nil {
		return nil, err
	}

	f := &File{
		BaseEntity:   shared.NewBaseEntity(),
		TenantID:     tenantID,
		Subject:      subject,
		OriginalName: path.Base(strings.TrimSpace(originalName)),
		Extension:    ext,
		MimeType:     allowedExtensions[ext],
		Size:         size,
		UploadedBy:   uploadedBy,
	}
	f.StorageKey = fmt.Sprintf("tenants/%s/%s/%s/%s.%s", tenantID, subject.Type, subject.ID, f.ID, ext)
	return f, nil
}

// FileRepository defines the interface for file metadata persistence
type FileRepository interface {
	// Create inserts file metadata
	Create(ctx context.Context, file *File) error

	// FindByID finds a file within the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*File, error)

	// FindBySubject lists files attached to a subject, newest first
	FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef) ([]*File, error)

	// Delete removes file metadata
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Remark is a free-text comment on a subject
type Remark struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	Subject    shared.SubjectRef
	Body       string
	AuthorID   uuid.UUID
	AuthorName string
}

// NewRemark creates a remark
func NewRemark(tenantID uuid.UUID, subject shared.SubjectRef, body string, authorID uuid.UUID, authorName string) (*Remark, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewValidationError("body", "Remark cannot be empty")
	}
	if len(body) > 5000 {
		return nil, shared.NewValidationError("body", "Remark cannot exceed 5000 characters")
	}
	return &Remark{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Subject:    subject,
		Body:       body,
		AuthorID:   authorID,
		AuthorName: authorName,
	}, nil
}

// CanDelete reports whether the user may delete the remark
func (r *Remark) CanDelete(userID uuid.UUID, isAdmin bool) bool {
	return isAdmin || r.AuthorID == userID
}

// RemarkRepository defines the interface for remark persistence
type RemarkRepository interface {
	Create(ctx context.Context, remark *Remark) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Remark, error)
	FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef, filter shared.Filter) ([]*Remark, int64, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// UploadedAt returns the upload time
func (f *File) UploadedAt() time.Time {
	return f.CreatedAt
}
