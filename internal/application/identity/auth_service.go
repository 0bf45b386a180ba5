package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials hides whether the username or the password was wrong
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	// ErrAccountDeactivated is returned when a deactivated user authenticates
	ErrAccountDeactivated = shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	// ErrInvalidRefreshToken is returned for unusable refresh tokens
	ErrInvalidRefreshToken = shared.NewDomainError("INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired")
)

// AuthService handles login, token refresh and logout
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
		now:        time.Now,
	}
}

// Login verifies the credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, req LoginRequest, ip string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("Login failed: unknown user", zap.String("username", req.Username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(req.Password) {
		s.logger.Info("Login failed: wrong password",
			zap.String("username", user.Username),
			zap.String("ip", ip))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", user.Username))
		return nil, ErrAccountDeactivated
	}

	user.RecordLoginSuccess(ip)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// the login itself succeeded, only the bookkeeping failed
		s.logger.Warn("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.SubjectOf(user))
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", user.TenantID.String()),
		zap.String("role", user.Role.String()))

	return &LoginResult{Token: pair, User: ToUserResponse(user)}, nil
}

// Refresh exchanges a refresh token for a new pair. The user is reloaded so
// role and permission changes apply, and the old refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*LoginResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrAccountDeactivated
	}

	pair, err := s.jwtService.RefreshTokenPair(req.RefreshToken, auth.SubjectOf(user))
	if err != nil {
		if errors.Is(err, auth.ErrMaxRefreshExceeded) {
			return nil, shared.NewDomainError("REFRESH_LIMIT_EXCEEDED", "Session expired, please log in again")
		}
		return nil, ErrInvalidRefreshToken
	}

	if err := s.revoke(ctx, claims); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
	}

	return &LoginResult{Token: pair, User: ToUserResponse(user)}, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, access *auth.Claims, req LogoutRequest) error {
	if access == nil {
		return shared.ErrUnauthorized
	}
	if err := s.revoke(ctx, access); err != nil {
		return err
	}
	if req.RefreshToken == "" {
		return nil
	}
	refresh, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		// an unusable refresh token needs no revocation
		return nil
	}
	if refresh.UserID != access.UserID {
		return ErrInvalidRefreshToken
	}
	return s.revoke(ctx, refresh)
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, p identity.Principal) (*UserResponse, error) {
	if p.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, p.TenantID, p.UserID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// CheckAccessToken reports ErrTokenBlacklisted for revoked access tokens
func (s *AuthService) CheckAccessToken(ctx context.Context, claims *auth.Claims) error {
	return s.checkRevoked(ctx, claims)
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil {
		return nil
	}
	revoked, err := s.blacklist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsSessionRevoked(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return auth.ErrTokenBlacklisted
	}
	return nil
}

func (s *AuthService) revoke(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil {
		return nil
	}
	ttl := claims.RemainingTTL(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.RevokeToken(ctx, claims.ID, ttl)
}
