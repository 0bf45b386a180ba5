// Package middleware provides the gin middleware of the procurement API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys set by Authenticate
const (
	ClaimsKey     = "jwt_claims"
	PrincipalKey  = "principal"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenChecker rejects access tokens that were revoked after issue
type TokenChecker interface {
	CheckAccessToken(ctx context.Context, claims *auth.Claims) error
}

// AuthConfig holds configuration for the authentication middleware
type AuthConfig struct {
	JWTService *auth.JWTService
	// Revocation is optional; without it only signature and expiry are checked
	Revocation TokenChecker
	Logger     *zap.Logger
}

// Authenticate validates the bearer token and stores the claims and the
// identity.Principal they describe in the gin context
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, log, err, "Token validation failed")
			return
		}

		if cfg.Revocation != nil {
			if err := cfg.Revocation.CheckAccessToken(c.Request.Context(), claims); err != nil {
				if !errors.Is(err, auth.ErrTokenBlacklisted) {
					// Redis trouble: fail open, signature and expiry already passed
					log.Error("Failed to check token revocation",
						zap.String("jti", claims.ID),
						zap.Error(err))
				} else {
					abortUnauthorized(c, log, err, "Token has been revoked")
					return
				}
			}
		}

		principal, err := claims.Principal(c.ClientIP())
		if err != nil {
			abortUnauthorized(c, log, err, "Token claims are invalid")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(PrincipalKey, principal)

		// request_id is already on the gin logger
		ctx, reqLog := logger.Enrich(c.Request.Context(), logger.FromGin(c), logger.RequestFields{
			TenantID: claims.TenantID,
			UserID:   claims.UserID,
			Username: claims.Username,
		})
		c.Request = c.Request.WithContext(ctx)
		logger.SetGin(c, reqLog)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Warn("Authentication failed",
		zap.Error(err),
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path))

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidClaims):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, c.GetString(RequestIDKey)))
}

// GetClaims returns the access token claims stored by Authenticate
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetPrincipal returns the principal stored by Authenticate
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(identity.Principal); ok {
			return p, true
		}
	}
	return identity.Principal{}, false
}

// SetPrincipal stores a principal; handler tests use it to skip token issuing
func SetPrincipal(c *gin.Context, p identity.Principal) {
	c.Set(PrincipalKey, p)
}
