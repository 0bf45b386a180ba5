// Package router assembles the gin engine: the global middleware chain, the
// unauthenticated health endpoints and the versioned API groups.
package router

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/interfaces/http/dto"
	"github.com/procurement/backend/internal/interfaces/http/handler"
	"github.com/procurement/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouteRegistrar registers routes below the versioned API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects registrars and mounts them under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix, "v1" by default
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a Router on engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues registrars for Setup
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts every registrar in registration order
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// ResourceGroup is one prefix of the API with its own middleware, usually
// authentication plus a module permission gate
type ResourceGroup struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewResourceGroup creates a group mounted at prefix
func NewResourceGroup(prefix string, middleware ...gin.HandlerFunc) *ResourceGroup {
	return &ResourceGroup{prefix: prefix, middleware: middleware}
}

func (g *ResourceGroup) handle(method, path string, handlers []gin.HandlerFunc) *ResourceGroup {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// GET registers a GET route
func (g *ResourceGroup) GET(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (g *ResourceGroup) POST(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (g *ResourceGroup) PUT(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodPut, path, handlers)
}

// DELETE registers a DELETE route
func (g *ResourceGroup) DELETE(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle(http.MethodDelete, path, handlers)
}

// RegisterRoutes implements RouteRegistrar. Routes are added in the order
// they were declared, so static segments must precede parameters.
func (g *ResourceGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
}

// Prefix returns the group prefix
func (g *ResourceGroup) Prefix() string {
	return g.prefix
}

// Handlers are the HTTP handlers the API routes to
type Handlers struct {
	System            *handler.SystemHandler
	Auth              *handler.AuthHandler
	Users             *handler.UserHandler
	Vendors           *handler.VendorHandler
	Projects          *handler.ProjectHandler
	PurchaseOrders    *handler.PurchaseOrderHandler
	Invoices          *handler.InvoiceHandler
	CheckRequisitions *handler.CheckRequisitionHandler
	Disbursements     *handler.DisbursementHandler
	Attachments       *handler.AttachmentHandler
	Dashboard         *handler.DashboardHandler
}

// Options configure the middleware chain
type Options struct {
	Logger           *zap.Logger
	Auth             middleware.AuthConfig
	CORS             middleware.CORSConfig
	HSTS             bool
	MaxBodySize      int64
	TrustedProxies   []string
	LoginLimiter     *middleware.RateLimiter
	ServiceName      string
	TracingEnabled   bool
	ProfilingEnabled bool
	// Meter is nil when metrics are disabled
	Meter metric.Meter
}

// New builds the engine with every route of the API
func New(h Handlers, opts Options) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}
	httpMetrics, err := middleware.HTTPMetrics(opts.Meter)
	if err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log, "/health", "/ready"),
		middleware.Secure(opts.HSTS),
		middleware.CORSWithConfig(opts.CORS),
		middleware.BodyLimit(opts.MaxBodySize),
		middleware.Tracing(opts.ServiceName, opts.TracingEnabled),
		middleware.SpanErrorMarker(),
		httpMetrics,
	)

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	if opts.Auth.Logger == nil {
		opts.Auth.Logger = log
	}
	authenticated := []gin.HandlerFunc{
		middleware.Authenticate(opts.Auth),
		middleware.SpanAttributes(),
		middleware.Profiling(opts.ProfilingEnabled),
	}
	with := func(hs ...gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clone(authenticated), hs...)
	}
	guarded := func(module identity.Module) []gin.HandlerFunc {
		return with(middleware.RequireModule(module))
	}

	login := []gin.HandlerFunc{h.Auth.Login}
	if opts.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{middleware.RateLimit(opts.LoginLimiter)}, login...)
	}

	NewRouter(engine).Register(
		NewResourceGroup("/system").
			GET("/info", h.System.GetSystemInfo),

		NewResourceGroup("/auth").
			POST("/login", login...).
			POST("/refresh", h.Auth.Refresh).
			POST("/logout", with(h.Auth.Logout)...).
			GET("/me", with(h.Auth.Me)...),

		NewResourceGroup("/users", guarded(identity.ModuleUsers)...).
			POST("", h.Users.Create).
			GET("", h.Users.List).
			GET("/:id", h.Users.GetByID).
			PUT("/:id/permissions", h.Users.SetPermissions).
			POST("/:id/deactivate", h.Users.Deactivate),

		NewResourceGroup("/vendors", guarded(identity.ModuleVendors)...).
			POST("", h.Vendors.Create).
			GET("", h.Vendors.List).
			GET("/:id", h.Vendors.GetByID).
			PUT("/:id", h.Vendors.Update),

		NewResourceGroup("/projects", guarded(identity.ModuleProjects)...).
			POST("", h.Projects.Create).
			GET("", h.Projects.List).
			GET("/:id", h.Projects.GetByID).
			PUT("/:id", h.Projects.Update),

		NewResourceGroup("/purchase-orders", guarded(identity.ModulePurchaseOrders)...).
			POST("", h.PurchaseOrders.Create).
			GET("", h.PurchaseOrders.List).
			GET("/:id", h.PurchaseOrders.GetByID).
			PUT("/:id", h.PurchaseOrders.Update).
			DELETE("/:id", h.PurchaseOrders.Delete).
			POST("/:id/finalize", h.PurchaseOrders.Finalize).
			POST("/:id/close", h.PurchaseOrders.Close).
			POST("/:id/cancel", h.PurchaseOrders.Cancel),

		NewResourceGroup("/invoices", guarded(identity.ModuleInvoices)...).
			POST("", h.Invoices.Create).
			GET("", h.Invoices.List).
			GET("/:id", h.Invoices.GetByID).
			PUT("/:id", h.Invoices.Update).
			DELETE("/:id", h.Invoices.Delete).
			POST("/:id/receive", h.Invoices.Receive).
			POST("/:id/review", h.Invoices.Review).
			POST("/:id/approve", h.Invoices.Approve).
			POST("/:id/reject", h.Invoices.Reject).
			POST("/:id/resubmit", h.Invoices.Resubmit),

		NewResourceGroup("/check-requisitions", guarded(identity.ModuleCheckRequisitions)...).
			POST("", h.CheckRequisitions.Create).
			GET("", h.CheckRequisitions.List).
			GET("/:id", h.CheckRequisitions.GetByID).
			PUT("/:id", h.CheckRequisitions.Update).
			DELETE("/:id", h.CheckRequisitions.Delete).
			GET("/:id/approval-checks", h.CheckRequisitions.ApprovalChecks).
			POST("/:id/approve", h.CheckRequisitions.Approve).
			POST("/:id/reject", h.CheckRequisitions.Reject),

		NewResourceGroup("/disbursements", guarded(identity.ModuleDisbursements)...).
			POST("", h.Disbursements.Create).
			GET("", h.Disbursements.List).
			GET("/:id", h.Disbursements.GetByID).
			PUT("/:id", h.Disbursements.Update).
			DELETE("/:id", h.Disbursements.Delete).
			GET("/:id/voucher", h.Disbursements.Voucher),

		// subject-level permissions are checked by the services
		NewResourceGroup("/files", authenticated...).
			POST("", h.Attachments.UploadFile).
			GET("", h.Attachments.ListFiles).
			GET("/:id/download", h.Attachments.DownloadFile).
			DELETE("/:id", h.Attachments.DeleteFile),

		NewResourceGroup("/remarks", authenticated...).
			POST("", h.Attachments.CreateRemark).
			GET("", h.Attachments.ListRemarks).
			DELETE("/:id", h.Attachments.DeleteRemark),

		NewResourceGroup("/activity-logs", authenticated...).
			GET("", h.Attachments.ListActivity),

		NewResourceGroup("/dashboard", guarded(identity.ModuleDashboard)...).
			GET("", h.Dashboard.Mine).
			GET("/export", h.Dashboard.Export).
			GET("/:role", h.Dashboard.ByRole),
	).Setup()

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound,
			"Route not found", c.GetString(middleware.RequestIDKey)))
	})
	return engine, nil
}
