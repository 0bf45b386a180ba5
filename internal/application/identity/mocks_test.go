package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/audit"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// MockActivityLogRepository is a mock implementation of ActivityLogRepository
type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) Create(ctx context.Context, log *audit.ActivityLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockActivityLogRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subject shared.SubjectRef, filter shared.Filter) ([]*audit.ActivityLog, int64, error) {
	args := m.Called(ctx, tenantID, subject, filter)
	return nil, 0, args.Error(2)
}

func (m *MockActivityLogRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*audit.ActivityLog, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return nil, 0, args.Error(2)
}

const testPassword = "s3cure-pass"

var testTenant = uuid.MustParse("7d5a2c9e-3f4b-4a61-9c1d-0e8f6b2a4c11")

func newTestUser(t *testing.T, username string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(testTenant, username, testPassword, role)
	require.NoError(t, err)
	u.ClearDomainEvents()
	return u
}

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "identity-test-secret-at-least-32-chars",
		Issuer:                 "p2p-test",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		MaxRefreshCount:        5,
	})
}

func adminPrincipal() identity.Principal {
	return identity.NewPrincipal(uuid.New(), testTenant, "root", identity.RoleAdmin, "127.0.0.1", nil)
}
