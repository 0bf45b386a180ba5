package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	auditapp "github.com/procurement/backend/internal/application/audit"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService manages the users of a tenant. Every operation requires the
// users module.
type UserService struct {
	userRepo   identity.UserRepository
	scope      TransactionScope
	blacklist  auth.TokenBlacklist
	sessionTTL time.Duration
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, scope TransactionScope, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{userRepo: userRepo, scope: scope, logger: logger}
}

// SetEventPublisher sets the publisher for user events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetTokenBlacklist enables session revocation on deactivation. ttl should
// cover the refresh token lifetime.
func (s *UserService) SetTokenBlacklist(blacklist auth.TokenBlacklist, ttl time.Duration) {
	s.blacklist = blacklist
	s.sessionTTL = ttl
}

// Create creates a user with the role's default permissions, or with the
// explicit permissions of the request
func (s *UserService) Create(ctx context.Context, p identity.Principal, req CreateUserRequest) (*UserResponse, error) {
	if err := p.Authorize(identity.ModuleUsers, identity.AccessWrite); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewValidationError("username", "Username already exists")
	}

	user, err := identity.NewUser(p.TenantID, req.Username, req.Password, identity.Role(req.Role))
	if err != nil {
		return nil, err
	}
	user.CreatedBy = p.ActorID()
	if err := user.SetEmail(req.Email); err != nil {
		return nil, err
	}
	if err := user.SetDisplayName(req.DisplayName); err != nil {
		return nil, err
	}
	if req.Permissions != nil {
		if err := user.SetPermissions(toModulePermissions(req.Permissions)); err != nil {
			return nil, err
		}
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.UserRepo().Create(ctx, user); err != nil {
			return err
		}
		changes := audit.Changes{}.
			Set("username", nil, user.Username).
			Set("role", nil, user.Role.String()).
			Set("permissions", nil, user.PermissionCodes())
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectUser, user.ID, audit.ActionCreated, changes, "")
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, user)

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()),
		zap.String("created_by", p.UserID.String()))

	resp := ToUserResponse(user)
	return &resp, nil
}

// GetByID retrieves a user of the principal's tenant
func (s *UserService) GetByID(ctx context.Context, p identity.Principal, id uuid.UUID) (*UserResponse, error) {
	if err := p.Authorize(identity.ModuleUsers, identity.AccessRead); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List retrieves the tenant's users with filtering and pagination
func (s *UserService) List(ctx context.Context, p identity.Principal, filter UserListFilter) ([]UserResponse, int64, error) {
	if err := p.Authorize(identity.ModuleUsers, identity.AccessRead); err != nil {
		return nil, 0, err
	}
	users, total, err := s.userRepo.FindAll(ctx, p.TenantID, toUserFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = ToUserResponse(u)
	}
	return out, total, nil
}

// SetPermissions replaces a user's module permissions. The change applies
// to the user's next token refresh.
func (s *UserService) SetPermissions(ctx context.Context, p identity.Principal, id uuid.UUID, req SetPermissionsRequest) (*UserResponse, error) {
	if err := p.Authorize(identity.ModuleUsers, identity.AccessWrite); err != nil {
		return nil, err
	}

	var user *identity.User
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		user, err = repos.UserRepo().FindByID(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		before := user.PermissionCodes()
		if err := user.SetPermissions(toModulePermissions(req.Permissions)); err != nil {
			return err
		}
		if err := repos.UserRepo().Update(ctx, user); err != nil {
			return err
		}
		changes := audit.Changes{}.Set("permissions", before, user.PermissionCodes())
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectUser, user.ID, audit.ActionPermissions, changes, "")
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, user)

	resp := ToUserResponse(user)
	return &resp, nil
}

// Deactivate blocks a user from logging in and revokes the user's sessions
func (s *UserService) Deactivate(ctx context.Context, p identity.Principal, id uuid.UUID) (*UserResponse, error) {
	if err := p.Authorize(identity.ModuleUsers, identity.AccessWrite); err != nil {
		return nil, err
	}
	if id == p.UserID {
		return nil, shared.NewDomainError("CANNOT_DEACTIVATE_SELF", "You cannot deactivate your own account")
	}

	var user *identity.User
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		user, err = repos.UserRepo().FindByID(ctx, p.TenantID, id)
		if err != nil {
			return err
		}
		if err := user.Deactivate(); err != nil {
			return err
		}
		if err := repos.UserRepo().Update(ctx, user); err != nil {
			return err
		}
		changes := audit.Changes{}.Set("status", string(identity.UserStatusActive), string(user.Status))
		return auditapp.Record(ctx, repos.ActivityLogRepo(), p, shared.SubjectUser, user.ID, audit.ActionDeactivated, changes, "")
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, user)

	if s.blacklist != nil {
		if err := s.blacklist.RevokeSessions(ctx, user.ID.String(), s.sessionTTL); err != nil {
			s.logger.Error("Failed to revoke sessions of deactivated user",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		}
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Int("count", len(events)), zap.Error(err))
	}
}
