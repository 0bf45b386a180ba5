package attachment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/shared"
)

// ObjectStorageService defines the interface for object storage operations.
// It is implemented by the infrastructure layer (S3, MinIO, in-memory stub).
type ObjectStorageService interface {
	// Upload stores an object under the key
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// GenerateDownloadURL generates a presigned URL for downloading an object
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error
}

// Upload is a file received from a client
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the upload size in bytes
func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

// ValidateUploads checks every upload before anything is stored
func ValidateUploads(uploads []Upload) error {
	verr := &shared.ValidationError{}
	for _, u := range uploads {
		if _, err := attachment.ValidateUpload(u.Name, u.Size()); err != nil {
			verr.Add("attachments", fmt.Sprintf("%s: %s", u.Name, err.Error()))
		}
	}
	return verr.OrNil()
}

// StoredObjects are uploads already written to object storage whose metadata
// rows have not been committed yet
type StoredObjects struct {
	Files   []*attachment.File
	storage ObjectStorageService
}

// Discard deletes the stored objects. It is called when the transaction that
// should have recorded them fails.
func (s *StoredObjects) Discard(ctx context.Context) []error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, f := range s.Files {
		if err := s.storage.DeleteObject(ctx, f.StorageKey); err != nil {
			errs = append(errs, fmt.Errorf("delete object %s: %w", f.StorageKey, err))
		}
	}
	return errs
}

// StoreObjects validates the uploads, assigns storage keys under the subject
// and writes the objects. On a partial failure the objects already written
// are removed again.
func StoreObjects(
	ctx context.Context,
	storage ObjectStorageService,
	tenantID uuid.UUID,
	subject shared.SubjectRef,
	uploads []Upload,
	uploadedBy *uuid.UUID,
) (*StoredObjects, error) {
	stored := &StoredObjects{storage: storage}
	if len(uploads) == 0 {
		return stored, nil
	}
	if storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "File storage is not configured")
	}

	for _, u := range uploads {
		file, err := attachment.NewFile(tenantID, subject, u.Name, u.Size(), uploadedBy)
		if err != nil {
			stored.Discard(ctx)
			return nil, err
		}
		if err := storage.Upload(ctx, file.StorageKey, u.Data, file.MimeType); err != nil {
			stored.Discard(ctx)
			return nil, fmt.Errorf("upload %s: %w", file.OriginalName, err)
		}
		stored.Files = append(stored.Files, file)
	}
	return stored, nil
}
