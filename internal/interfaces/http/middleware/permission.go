package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/interfaces/http/dto"
)

// RequiredAccess is read for GET and HEAD, write for everything else
func RequiredAccess(method string) identity.Access {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return identity.AccessRead
	default:
		return identity.AccessWrite
	}
}

// RequireModule rejects principals without access to module before the
// handler runs. Services repeat the check; this one keeps denied requests
// away from body parsing and uploads.
func RequireModule(module identity.Module) gin.HandlerFunc {
	return requireAccess(module, func(c *gin.Context) identity.Access {
		return RequiredAccess(c.Request.Method)
	})
}

// RequireModuleAccess checks a fixed access level regardless of the method,
// e.g. read access for a POST that only computes a preview
func RequireModuleAccess(module identity.Module, access identity.Access) gin.HandlerFunc {
	return requireAccess(module, func(*gin.Context) identity.Access { return access })
}

func requireAccess(module identity.Module, accessFor func(*gin.Context) identity.Access) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", c.GetString(RequestIDKey)))
			return
		}
		if err := p.Authorize(module, accessFor(c)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden,
					"You do not have "+string(accessFor(c))+" access to "+module.String(),
					c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}
