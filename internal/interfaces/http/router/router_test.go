package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/interfaces/http/dto"
	"github.com/procurement/backend/internal/interfaces/http/handler"
	"github.com/procurement/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	NewRouter(engine, WithAPIVersion("v2")).Register(
		NewResourceGroup("/ping").GET("", func(c *gin.Context) { c.String(http.StatusOK, "pong") }),
	).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestResourceGroup(t *testing.T) {
	var trail []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			trail = append(trail, name)
		}
	}

	g := NewResourceGroup("/dashboard", mark("group")).
		GET("/export", mark("export")).
		GET("/:role", mark("role")).
		DELETE("/:role", mark("delete"))
	assert.Equal(t, "/dashboard", g.Prefix())

	engine := gin.New()
	g.RegisterRoutes(engine.Group("/api/v1"))

	for _, tc := range []struct {
		method, path string
		want         []string
	}{
		{http.MethodGet, "/api/v1/dashboard/export", []string{"group", "export"}},
		{http.MethodGet, "/api/v1/dashboard/treasury", []string{"group", "role"}},
		{http.MethodDelete, "/api/v1/dashboard/treasury", []string{"group", "delete"}},
	} {
		trail = nil
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, trail, tc.path)
	}
}

func testJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "router-test-secret-at-least-32-chars",
		Issuer:                 "procurement-test",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		MaxRefreshCount:        3,
	})
}

// newTestEngine wires handlers without services; every request in these
// tests is settled by middleware before a service would be reached.
func newTestEngine(t *testing.T, jwt *auth.JWTService, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	h := Handlers{
		System:            handler.NewSystemHandler("procurement", "test", nil),
		Auth:              handler.NewAuthHandler(nil),
		Users:             handler.NewUserHandler(nil),
		Vendors:           handler.NewVendorHandler(nil),
		Projects:          handler.NewProjectHandler(nil),
		PurchaseOrders:    handler.NewPurchaseOrderHandler(nil),
		Invoices:          handler.NewInvoiceHandler(nil),
		CheckRequisitions: handler.NewCheckRequisitionHandler(nil),
		Disbursements:     handler.NewDisbursementHandler(nil, nil, 1<<20),
		Attachments:       handler.NewAttachmentHandler(nil, nil, nil, 1<<20),
		Dashboard:         handler.NewDashboardHandler(nil, nil),
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = []string{"https://app.example.com"}

	engine, err := New(h, Options{
		Auth:         middleware.AuthConfig{JWTService: jwt},
		CORS:         cors,
		MaxBodySize:  1 << 20,
		LoginLimiter: limiter,
		ServiceName:  "procurement-test",
	})
	require.NoError(t, err)
	return engine
}

func bearer(t *testing.T, jwt *auth.JWTService, role identity.Role, permissions ...string) string {
	t.Helper()
	pair, err := jwt.GenerateTokenPair(auth.TokenSubject{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "frank",
		Role:        role,
		Permissions: permissions,
	})
	require.NoError(t, err)
	return middleware.BearerPrefix + pair.AccessToken
}

func serve(engine *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.AuthHeaderKey, token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNew_HealthEndpoints(t *testing.T) {
	engine := newTestEngine(t, testJWT(), nil)

	for _, path := range []string{"/health", "/ready", "/api/v1/system/info"} {
		w := serve(engine, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	}
}

func TestNew_AuthenticationRequired(t *testing.T) {
	engine := newTestEngine(t, testJWT(), nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/invoices"},
		{http.MethodPost, "/api/v1/check-requisitions/" + uuid.NewString() + "/approve"},
		{http.MethodGet, "/api/v1/disbursements/" + uuid.NewString() + "/voucher"},
		{http.MethodGet, "/api/v1/files"},
		{http.MethodGet, "/api/v1/activity-logs"},
		{http.MethodGet, "/api/v1/dashboard/export"},
		{http.MethodGet, "/api/v1/auth/me"},
	} {
		w := serve(engine, tc.method, tc.path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestNew_ModuleGate(t *testing.T) {
	jwt := testJWT()
	engine := newTestEngine(t, jwt, nil)
	executive := bearer(t, jwt, identity.RoleExecutive, "invoices:read", "dashboard:read")

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"write on a read grant", http.MethodPost, "/api/v1/invoices"},
		{"transition on a read grant", http.MethodPost, "/api/v1/invoices/" + uuid.NewString() + "/approve"},
		{"no grant at all", http.MethodGet, "/api/v1/disbursements"},
		{"user administration", http.MethodGet, "/api/v1/users"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path, executive)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), dto.ErrCodeForbidden)
		})
	}
}

func TestNew_NotFound(t *testing.T) {
	engine := newTestEngine(t, testJWT(), nil)
	w := serve(engine, http.MethodGet, "/api/v1/warehouses", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeNotFound)
}

func TestNew_LoginRateLimit(t *testing.T) {
	engine := newTestEngine(t, testJWT(), middleware.NewRateLimiter(1, time.Minute))

	first := serve(engine, http.MethodPost, "/api/v1/auth/login", "")
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)

	second := serve(engine, http.MethodPost, "/api/v1/auth/login", "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// refresh is not limited
	w := serve(engine, http.MethodPost, "/api/v1/auth/refresh", "")
	assert.NotEqual(t, http.StatusTooManyRequests, w.Code)
}

func TestNew_CORSPreflight(t *testing.T) {
	engine := newTestEngine(t, testJWT(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/invoices", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
