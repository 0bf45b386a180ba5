package attachment

import (
	"context"
	"time"

	"github.com/google/uuid"
	auditapp "github.com/procurement/backend/internal/application/audit"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultDownloadURLExpiry is how long presigned download links stay valid
const DefaultDownloadURLExpiry = 15 * time.Minute

// FileService manages files attached to procurement documents
type FileService struct {
	fileRepo       attachment.FileRepository
	scope          TransactionScope
	subjects       SubjectLookup
	storage        ObjectStorageService
	downloadExpiry time.Duration
	metrics        *telemetry.BusinessMetrics
	logger         *zap.Logger
}

// NewFileService creates a new FileService
func NewFileService(
	fileRepo attachment.FileRepository,
	scope TransactionScope,
	subjects SubjectLookup,
	storage ObjectStorageService,
	logger *zap.Logger,
) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileService{
		fileRepo:       fileRepo,
		scope:          scope,
		subjects:       subjects,
		storage:        storage,
		downloadExpiry: DefaultDownloadURLExpiry,
		logger:         logger,
	}
}

// SetDownloadExpiry overrides the presigned URL lifetime
func (s *FileService) SetDownloadExpiry(d time.Duration) {
	if d > 0 {
		s.downloadExpiry = d
	}
}

// SetBusinessMetrics enables the uploaded-bytes counter
func (s *FileService) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// Upload stores the object first, then records the metadata and activity log
// in one transaction. A failed transaction removes the stored object.
func (s *FileService) Upload(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID, upload Upload) (*FileResponse, error) {
	subject, err := s.authorize(ctx, p, subjectType, subjectID, identity.AccessWrite)
	if err != nil {
		return nil, err
	}

	stored, err := StoreObjects(ctx, s.storage, p.TenantID, subject, []Upload{upload}, p.ActorID())
	if err != nil {
		return nil, err
	}
	file := stored.Files[0]

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.FileRepo().Create(ctx, file); err != nil {
			return err
		}
		changes := audit.Changes{}.Set("file", nil, file.OriginalName)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, subject.Type, subject.ID, audit.ActionFileUploaded, changes, "")
	})
	if err != nil {
		for _, derr := range stored.Discard(ctx) {
			s.logger.Error("Failed to remove orphaned object", zap.Error(derr))
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordAttachmentBytes(ctx, p.TenantID, subject.Type.String(), file.Size)
	}

	resp := ToFileResponse(file)
	return &resp, nil
}

// List returns the files attached to a subject
func (s *FileService) List(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID) ([]FileResponse, error) {
	subject, err := subjectRef(p, subjectType, subjectID, identity.AccessRead)
	if err != nil {
		return nil, err
	}
	files, err := s.fileRepo.FindBySubject(ctx, p.TenantID, subject)
	if err != nil {
		return nil, err
	}
	return ToFileResponses(files), nil
}

// Download returns a presigned URL for a file
func (s *FileService) Download(ctx context.Context, p identity.Principal, fileID uuid.UUID) (*DownloadResponse, error) {
	file, err := s.fileRepo.FindByID(ctx, p.TenantID, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := subjectRef(p, file.Subject.Type.String(), file.Subject.ID, identity.AccessRead); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "File storage is not configured")
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, file.StorageKey, s.downloadExpiry)
	if err != nil {
		return nil, err
	}
	return &DownloadResponse{URL: url, ExpiresAt: expiresAt, FileName: file.OriginalName}, nil
}

// Delete removes a file record and then its object
func (s *FileService) Delete(ctx context.Context, p identity.Principal, fileID uuid.UUID) error {
	file, err := s.fileRepo.FindByID(ctx, p.TenantID, fileID)
	if err != nil {
		return err
	}
	if _, err := subjectRef(p, file.Subject.Type.String(), file.Subject.ID, identity.AccessWrite); err != nil {
		return err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.FileRepo().Delete(ctx, p.TenantID, file.ID); err != nil {
			return err
		}
		changes := audit.Changes{}.Set("file", file.OriginalName, nil)
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, file.Subject.Type, file.Subject.ID, audit.ActionFileDeleted, changes, "")
	})
	if err != nil {
		return err
	}

	if s.storage != nil {
		if err := s.storage.DeleteObject(ctx, file.StorageKey); err != nil {
			s.logger.Warn("Failed to delete stored object",
				zap.String("storage_key", file.StorageKey),
				zap.Error(err))
		}
	}
	return nil
}

func (s *FileService) authorize(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID, access identity.Access) (shared.SubjectRef, error) {
	subject, err := subjectRef(p, subjectType, subjectID, access)
	if err != nil {
		return shared.SubjectRef{}, err
	}
	if s.subjects != nil {
		exists, err := s.subjects.Exists(ctx, p.TenantID, subject)
		if err != nil {
			return shared.SubjectRef{}, err
		}
		if !exists {
			return shared.SubjectRef{}, shared.ErrNotFound
		}
	}
	return subject, nil
}

// subjectRef parses the subject and checks the principal against the subject's module
func subjectRef(p identity.Principal, subjectType string, subjectID uuid.UUID, access identity.Access) (shared.SubjectRef, error) {
	module, ok := identity.ModuleForSubject(subjectType)
	if !ok {
		return shared.SubjectRef{}, shared.NewValidationError("subject_type", "Unknown subject type")
	}
	if err := p.Authorize(module, access); err != nil {
		return shared.SubjectRef{}, err
	}
	return shared.NewSubjectRef(subjectType, subjectID)
}
