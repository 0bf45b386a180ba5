package audit

import (
	"context"

	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
)

// QueryService lists activity logs
type QueryService struct {
	logRepo audit.ActivityLogRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(logRepo audit.ActivityLogRepository) *QueryService {
	return &QueryService{logRepo: logRepo}
}

// List returns activity logs newest first. Listing one subject requires read
// access to its module; the tenant-wide feed is restricted to admins.
func (s *QueryService) List(ctx context.Context, p identity.Principal, filter ActivityLogListFilter) ([]ActivityLogResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}

	var (
		logs  []*audit.ActivityLog
		total int64
		err   error
	)
	switch {
	case filter.SubjectType != "" && filter.SubjectID != nil:
		subject, serr := shared.NewSubjectRef(filter.SubjectType, *filter.SubjectID)
		if serr != nil {
			return nil, 0, serr
		}
		if err := authorizeSubject(p, subject.Type); err != nil {
			return nil, 0, err
		}
		logs, total, err = s.logRepo.FindBySubject(ctx, p.TenantID, subject, domainFilter)
	case filter.SubjectType != "":
		if !shared.SubjectType(filter.SubjectType).IsValid() {
			return nil, 0, shared.NewValidationError("subject_type", "Unknown subject type")
		}
		if err := authorizeSubject(p, shared.SubjectType(filter.SubjectType)); err != nil {
			return nil, 0, err
		}
		domainFilter = domainFilter.With("subject_type", filter.SubjectType)
		logs, total, err = s.logRepo.FindAll(ctx, p.TenantID, domainFilter)
	default:
		if p.Role != identity.RoleAdmin {
			return nil, 0, shared.ErrForbidden
		}
		logs, total, err = s.logRepo.FindAll(ctx, p.TenantID, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	out := make([]ActivityLogResponse, len(logs))
	for i, l := range logs {
		out[i] = ToActivityLogResponse(l)
	}
	return out, total, nil
}

func authorizeSubject(p identity.Principal, subjectType shared.SubjectType) error {
	module, ok := identity.ModuleForSubject(subjectType.String())
	if !ok {
		return shared.NewValidationError("subject_type", "Unknown subject type")
	}
	return p.Authorize(module, identity.AccessRead)
}
