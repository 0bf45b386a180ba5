package identity

import (
	"context"

	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
)

// TransactionScope runs user changes together with their activity log
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories sharing one transaction
type TransactionalRepositories interface {
	UserRepo() identity.UserRepository
	ActivityLogRepo() audit.ActivityLogRepository
}

// NoOpTransactionScope runs the function against plain repositories
type NoOpTransactionScope struct {
	userRepo identity.UserRepository
	logRepo  audit.ActivityLogRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(userRepo identity.UserRepository, logRepo audit.ActivityLogRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{userRepo: userRepo, logRepo: logRepo}
}

// Execute runs fn without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// UserRepo returns the user repository
func (s *NoOpTransactionScope) UserRepo() identity.UserRepository {
	return s.userRepo
}

// ActivityLogRepo returns the activity log repository
func (s *NoOpTransactionScope) ActivityLogRepo() audit.ActivityLogRepository {
	return s.logRepo
}
