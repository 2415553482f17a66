package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	catalogapp "github.com/cobranzas/backend/internal/application/catalog"
	financeapp "github.com/cobranzas/backend/internal/application/finance"
	identityapp "github.com/cobranzas/backend/internal/application/identity"
	offlineapp "github.com/cobranzas/backend/internal/application/offline"
	partnerapp "github.com/cobranzas/backend/internal/application/partner"
	printingapp "github.com/cobranzas/backend/internal/application/printing"
	reportapp "github.com/cobranzas/backend/internal/application/report"
	tradeapp "github.com/cobranzas/backend/internal/application/trade"
	"github.com/cobranzas/backend/internal/domain/printing"
	"github.com/cobranzas/backend/internal/infrastructure/auth"
	"github.com/cobranzas/backend/internal/infrastructure/cache"
	"github.com/cobranzas/backend/internal/infrastructure/config"
	"github.com/cobranzas/backend/internal/infrastructure/export"
	"github.com/cobranzas/backend/internal/infrastructure/logger"
	"github.com/cobranzas/backend/internal/infrastructure/persistence"
	infraprinting "github.com/cobranzas/backend/internal/infrastructure/printing"
	"github.com/cobranzas/backend/internal/infrastructure/storage"
	"github.com/cobranzas/backend/internal/infrastructure/telemetry"
	"github.com/cobranzas/backend/internal/interfaces/http/handler"
	"github.com/cobranzas/backend/internal/interfaces/http/middleware"
	"github.com/cobranzas/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/cobranzas/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const portfolioMetricsInterval = time.Minute

//	@title			Cobranzas Backend API
//	@version		1.0
//	@description	Installment sales and field collection API

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// OTLP log export tees every zap entry to the collector
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if logsProvider.IsEnabled() {
		log, err = logger.New(logCfg, logsProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Cobranzas Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down log provider", zap.Error(err))
		}
	}()

	// Initialize database connection with the zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled {
		tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:    true,
			LogFullSQL: !cfg.IsProduction(),
		}, log)
		if err := tracing.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Redis backs idempotency keys and token revocation when enabled
	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = client.Close()
		}()
		redisClient = client
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	idempotencyStore := cache.NewIdempotencyStore(redisClient, log)
	var revocations auth.RevocationList
	if redisClient != nil {
		revocations = auth.NewRedisRevocationList(redisClient)
	} else {
		revocations = auth.NewInMemoryRevocationList()
	}

	objectStorage, err := storage.New(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	collectionRepo := persistence.NewGormCollectionRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)
	changeFeed := persistence.NewGormChangeFeedRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, revocations, log)
	userService := identityapp.NewUserService(userRepo, revocations, cfg.JWT.RefreshTokenExpiration, log)
	customerService := partnerapp.NewCustomerService(customerRepo, saleRepo, userRepo, log)
	productService := catalogapp.NewProductService(productRepo, log)
	saleService := tradeapp.NewSaleService(txScope.ForTrade(), saleRepo, customerRepo, productRepo, userRepo, log)
	collectionService := financeapp.NewCollectionService(txScope.ForFinance(), collectionRepo, saleRepo, customerRepo, log)
	offlineService := offlineapp.NewOfflineService(
		customerRepo, saleRepo, syncLogRepo, changeFeed, collectionService,
		idempotencyStore, cfg.Offline.IdempotencyTTL, log,
	)
	reportService := reportapp.NewReportService(
		saleRepo, customerRepo, collectionRepo, userRepo,
		export.NewXLSXExporter(),
		reportapp.Config{
			DefaultAfterDays: cfg.Report.DefaultAfterDays,
			ArchiveExports:   cfg.Report.ArchiveExports,
		},
		log,
	)

	templates, err := infraprinting.NewTemplateEngine()
	if err != nil {
		log.Fatal("Failed to load receipt templates", zap.Error(err))
	}
	var pdfRenderer infraprinting.PDFRenderer
	if cfg.Printing.Enabled {
		chrome := infraprinting.NewChromedpRenderer(&infraprinting.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			RemoteURL:      cfg.Printing.ChromeRemoteURL,
			NoSandbox:      cfg.Printing.NoSandbox,
			Logger:         log,
		})
		defer func() {
			_ = chrome.Close()
		}()
		pdfRenderer = chrome
	}
	paperSize, err := printing.ParsePaperSize(cfg.Printing.PaperSize)
	if err != nil {
		log.Fatal("Invalid receipt paper size", zap.Error(err))
	}
	receiptService := printingapp.NewReceiptService(
		collectionRepo, saleRepo, customerRepo, userRepo,
		templates, pdfRenderer,
		printingapp.Config{
			CompanyName:     cfg.Printing.CompanyName,
			PaperSize:       paperSize,
			ArchiveReceipts: cfg.Printing.ArchiveReceipts,
		},
		log,
	)

	if cfg.Storage.Enabled {
		reportService.SetArchive(objectStorage)
		receiptService.SetArchive(objectStorage)
	}

	// Business metrics for collections, write-backs, exports and the portfolio
	collectionMetrics, err := telemetry.NewCollectionMetrics(telemetry.CollectionMetricsConfig{
		Meter:             meterProvider.Meter("cobranzas.collections"),
		Logger:            log,
		PortfolioProvider: telemetry.NewGormPortfolioMetricsProvider(db.DB),
		DefaultAfterDays:  cfg.Report.DefaultAfterDays,
	})
	if err != nil {
		log.Fatal("Failed to create collection metrics", zap.Error(err))
	}
	collectionService.SetMetrics(collectionMetrics)
	offlineService.SetMetrics(collectionMetrics)
	reportService.SetMetrics(collectionMetrics)
	if meterProvider.IsEnabled() {
		collectionMetrics.StartPeriodicCollection(ctx, portfolioMetricsInterval)
		defer collectionMetrics.Stop()
	}

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		User:       handler.NewUserHandler(userService),
		Customer:   handler.NewCustomerHandler(customerService),
		Product:    handler.NewProductHandler(productService),
		Sale:       handler.NewSaleHandler(saleService),
		Collection: handler.NewCollectionHandler(collectionService, receiptService),
		Report:     handler.NewReportHandler(reportService),
		Offline:    handler.NewOfflineHandler(offlineService),
		System:     handler.NewSystemHandler(db, version),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Revocations = revocations
	jwtConfig.Logger = log
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	// Apply middleware stack in order:
	// 1. RequestID, Logger, Recovery
	// 2. Tracing and span error marking
	// 3. Security headers, CORS, body limit, metrics
	// 4. JWT authentication, then the span and profiling labels that need the actor
	engine.Use(logger.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", handler.DownloadURLHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(meterProvider, log))
	engine.Use(jwtMiddleware)
	engine.Use(middleware.TracingAttributeInjector())
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = profiler.IsEnabled()
	engine.Use(middleware.ProfilingWithConfig(profiling))

	// Health check outside API versioning for load balancers
	engine.GET("/health", handlers.System.Health)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, jwtMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	loginLimiter := middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)
	loginLimiter.StartCleanup(ctx)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterAPI(r, handlers, router.Guards{
		Login: middleware.RateLimit(loginLimiter),
	}).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("go_version", runtime.Version()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
