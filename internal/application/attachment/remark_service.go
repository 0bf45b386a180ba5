package attachment

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
)

// RemarkService manages free-text remarks on procurement documents
type RemarkService struct {
	remarkRepo attachment.RemarkRepository
	subjects   SubjectLookup
}

// NewRemarkService creates a new RemarkService
func NewRemarkService(remarkRepo attachment.RemarkRepository, subjects SubjectLookup) *RemarkService {
	return &RemarkService{remarkRepo: remarkRepo, subjects: subjects}
}

// Create adds a remark. Commenting needs only read access to the subject.
func (s *RemarkService) Create(ctx context.Context, p identity.Principal, req CreateRemarkRequest) (*RemarkResponse, error) {
	subject, err := subjectRef(p, req.SubjectType, req.SubjectID, identity.AccessRead)
	if err != nil {
		return nil, err
	}
	if s.subjects != nil {
		exists, err := s.subjects.Exists(ctx, p.TenantID, subject)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, shared.ErrNotFound
		}
	}

	remark, err := attachment.NewRemark(p.TenantID, subject, req.Body, p.UserID, p.Username)
	if err != nil {
		return nil, err
	}
	if err := s.remarkRepo.Create(ctx, remark); err != nil {
		return nil, err
	}
	resp := ToRemarkResponse(remark)
	return &resp, nil
}

// List returns a subject's remarks newest first
func (s *RemarkService) List(ctx context.Context, p identity.Principal, subjectType string, subjectID uuid.UUID, filter shared.Filter) ([]RemarkResponse, int64, error) {
	subject, err := subjectRef(p, subjectType, subjectID, identity.AccessRead)
	if err != nil {
		return nil, 0, err
	}
	remarks, total, err := s.remarkRepo.FindBySubject(ctx, p.TenantID, subject, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]RemarkResponse, len(remarks))
	for i, r := range remarks {
		out[i] = ToRemarkResponse(r)
	}
	return out, total, nil
}

// Delete removes a remark. Only its author or an admin may delete it.
func (s *RemarkService) Delete(ctx context.Context, p identity.Principal, id uuid.UUID) error {
	remark, err := s.remarkRepo.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return err
	}
	if _, err := subjectRef(p, remark.Subject.Type.String(), remark.Subject.ID, identity.AccessRead); err != nil {
		return err
	}
	if !remark.CanDelete(p.UserID, p.Role == identity.RoleAdmin) {
		return shared.ErrForbidden
	}
	return s.remarkRepo.Delete(ctx, p.TenantID, id)
}
