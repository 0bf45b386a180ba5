package attachment

import (
	"context"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/attachment"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/shared"
)

// TransactionScope runs file and remark changes together with their activity log
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories sharing one transaction
type TransactionalRepositories interface {
	FileRepo() attachment.FileRepository
	RemarkRepo() attachment.RemarkRepository
	ActivityLogRepo() audit.ActivityLogRepository
}

// SubjectLookup resolves whether a polymorphic subject exists in the tenant
type SubjectLookup interface {
	Exists(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef) (bool, error)
}

// NoOpTransactionScope runs the function against plain repositories
type NoOpTransactionScope struct {
	fileRepo   attachment.FileRepository
	remarkRepo attachment.RemarkRepository
	logRepo    audit.ActivityLogRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(fileRepo attachment.FileRepository, remarkRepo attachment.RemarkRepository, logRepo audit.ActivityLogRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{fileRepo: fileRepo, remarkRepo: remarkRepo, logRepo: logRepo}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// FileRepo returns the file repository.
func (s *NoOpTransactionScope) FileRepo() attachment.FileRepository {
	return s.fileRepo
}

// RemarkRepo returns the remark repository.
func (s *NoOpTransactionScope) RemarkRepo() attachment.RemarkRepository {
	return s.remarkRepo
}

// ActivityLogRepo returns the activity log repository.
func (s *NoOpTransactionScope) ActivityLogRepo() audit.ActivityLogRepository {
	return s.logRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
