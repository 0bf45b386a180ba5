package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
)

// Profiling labels the request goroutine for Pyroscope with the route,
// method, resource and tenant. Runs after Authenticate.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.LabelMethod: c.Request.Method,
			telemetry.LabelRoute:  route,
		}
		if controller := controllerFromRoute(route); controller != "" {
			labels[telemetry.LabelController] = controller
		}
		if p, ok := GetPrincipal(c); ok {
			labels[telemetry.LabelTenantID] = p.TenantID.String()
		}

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// controllerFromRoute returns the first resource segment:
// "/api/v1/check-requisitions/:id/approve" -> "check-requisitions"
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
