// Command server runs the procurement API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	attachmentapp "github.com/procurement/backend/internal/application/attachment"
	auditapp "github.com/procurement/backend/internal/application/audit"
	dashboardapp "github.com/procurement/backend/internal/application/dashboard"
	identityapp "github.com/procurement/backend/internal/application/identity"
	printingapp "github.com/procurement/backend/internal/application/printing"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/infrastructure/auth"
	"github.com/procurement/backend/internal/infrastructure/cache"
	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/procurement/backend/internal/infrastructure/event"
	"github.com/procurement/backend/internal/infrastructure/logger"
	"github.com/procurement/backend/internal/infrastructure/persistence"
	"github.com/procurement/backend/internal/infrastructure/printing"
	"github.com/procurement/backend/internal/infrastructure/storage"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"github.com/procurement/backend/internal/interfaces/http/handler"
	"github.com/procurement/backend/internal/interfaces/http/middleware"
	"github.com/procurement/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	loginAttempts = 10
	loginWindow   = time.Minute
)

//	@title			Procurement API
//	@version		1.0
//	@description	Procure-to-pay backend: vendors, purchase orders, invoices, check requisitions and disbursements

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	providers, err := telemetry.NewProviders(ctx, cfg.Telemetry.Providers(cfg.App.Version), log)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	if level, err := logger.ParseLevel(cfg.Log.Level); err == nil {
		log = telemetry.BridgeLogger(log, providers, level)
	}

	profiler, err := telemetry.NewProfiler(cfg.Telemetry.Profiler(), log)
	if err != nil {
		return fmt.Errorf("init profiler: %w", err)
	}
	defer func() { _ = profiler.Stop() }()
	if profiler.Running() {
		providers.EnableSpanProfiles()
	}

	var meter metric.Meter
	if providers.MetricsEnabled() {
		meter = providers.Meter(cfg.Telemetry.ServiceName)
	}

	log.Info("Starting procurement backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port))

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Log.SlowQueryThreshold)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry.DB(), meter, log); err != nil {
		return fmt.Errorf("instrument database: %w", err)
	}
	log.Info("Database connected")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	var (
		blacklist      auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
		dashboardCache dashboardapp.Cache  = cache.NewInMemoryDashboardCache()
		locker         procurementapp.Locker
	)
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		dashboardCache = cache.NewRedisDashboardCache(redisClient)
		if cfg.Lock.Enabled {
			locker = cache.NewRedisLocker(redisClient, cfg.Lock.RetryCount, cfg.Lock.RetryDelay, log)
		}
	}

	objectStorage, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	var printer printingapp.VoucherPrinter
	if cfg.Printing.Enabled {
		renderer := printing.NewChromedpRenderer(cfg.Printing, log)
		defer func() { _ = renderer.Close() }()
		printer = printing.NewVoucherPrinter(renderer)
	}

	var businessMetrics *telemetry.BusinessMetrics
	if meter != nil {
		businessMetrics, err = telemetry.NewBusinessMetrics(meter)
		if err != nil {
			return fmt.Errorf("init business metrics: %w", err)
		}
	}

	// repositories
	repos := procurementapp.Repositories{
		Vendors:        persistence.NewGormVendorRepository(db.DB),
		Projects:       persistence.NewGormProjectRepository(db.DB),
		PurchaseOrders: persistence.NewGormPurchaseOrderRepository(db.DB),
		Invoices:       persistence.NewGormInvoiceRepository(db.DB),
		Requisitions:   persistence.NewGormCheckRequisitionRepository(db.DB),
		Disbursements:  persistence.NewGormDisbursementRepository(db.DB),
		Files:          persistence.NewGormFileRepository(db.DB),
		ActivityLogs:   persistence.NewGormActivityLogRepository(db.DB),
	}
	userRepo := persistence.NewGormUserRepository(db.DB)
	remarkRepo := persistence.NewGormRemarkRepository(db.DB)
	subjects := persistence.NewGormSubjectLookup(db.DB)
	procurementScope := persistence.NewGormTransactionScope(db.DB)

	// services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, persistence.NewGormIdentityTransactionScope(db.DB), log)
	userService.SetTokenBlacklist(blacklist, cfg.JWT.AccessTokenExpiration)

	vendorService := procurementapp.NewVendorService(repos.Vendors, procurementScope)
	projectService := procurementapp.NewProjectService(repos.Projects, procurementScope)
	purchaseOrderService := procurementapp.NewPurchaseOrderService(repos, procurementScope, log)
	invoiceService := procurementapp.NewInvoiceService(repos, procurementScope, log)
	requisitionService := procurementapp.NewCheckRequisitionService(repos, procurementScope, log)
	requisitionService.SetBusinessMetrics(businessMetrics)
	disbursementService := procurementapp.NewDisbursementService(repos, procurementScope, log)
	disbursementService.SetObjectStorage(objectStorage)
	disbursementService.SetLocker(locker)
	disbursementService.SetBusinessMetrics(businessMetrics)

	fileService := attachmentapp.NewFileService(repos.Files,
		persistence.NewGormAttachmentTransactionScope(db.DB), subjects, objectStorage, log)
	fileService.SetDownloadExpiry(cfg.Storage.PresignExpiry)
	fileService.SetBusinessMetrics(businessMetrics)
	remarkService := attachmentapp.NewRemarkService(remarkRepo, subjects)
	activityService := auditapp.NewQueryService(repos.ActivityLogs)

	voucherService := printingapp.NewVoucherService(repos.Disbursements, repos.Requisitions, repos.Vendors, printer, log)

	dashboardService := dashboardapp.NewService(persistence.NewGormDashboardRepository(db.DB), log)
	if cfg.Dashboard.CacheEnabled {
		dashboardService.SetCache(dashboardCache, cfg.Dashboard.CacheTTL)
	}
	exportService := dashboardapp.NewExportService(dashboardService)

	// committed events fan out after each transaction
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(dashboardapp.NewInvalidationHandler(dashboardCache, log))
	userService.SetEventPublisher(bus)
	purchaseOrderService.SetEventPublisher(bus)
	invoiceService.SetEventPublisher(bus)
	requisitionService.SetEventPublisher(bus)
	disbursementService.SetEventPublisher(bus)

	if err := middleware.SetupValidator(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	loginLimiter := middleware.NewRateLimiter(loginAttempts, loginWindow)
	go loginLimiter.Run(ctx)

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine, err := router.New(router.Handlers{
		System:            handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, checks),
		Auth:              handler.NewAuthHandler(authService),
		Users:             handler.NewUserHandler(userService),
		Vendors:           handler.NewVendorHandler(vendorService),
		Projects:          handler.NewProjectHandler(projectService),
		PurchaseOrders:    handler.NewPurchaseOrderHandler(purchaseOrderService),
		Invoices:          handler.NewInvoiceHandler(invoiceService),
		CheckRequisitions: handler.NewCheckRequisitionHandler(requisitionService),
		Disbursements:     handler.NewDisbursementHandler(disbursementService, voucherService, cfg.Upload.MaxSize),
		Attachments:       handler.NewAttachmentHandler(fileService, remarkService, activityService, cfg.Upload.MaxSize),
		Dashboard:         handler.NewDashboardHandler(dashboardService, exportService),
	}, router.Options{
		Logger:           log,
		Auth:             middleware.AuthConfig{JWTService: jwtService, Revocation: authService, Logger: log},
		CORS:             cors,
		HSTS:             cfg.App.IsProduction(),
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		LoginLimiter:     loginLimiter,
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   providers.TracingEnabled(),
		ProfilingEnabled: profiler.Running(),
		Meter:            meter,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server exited gracefully")
	return nil
}
