package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-admission-api/api/swagger"
	"github.com/noah-isme/sma-admission-api/internal/handler"
	"github.com/noah-isme/sma-admission-api/internal/middleware"
	"github.com/noah-isme/sma-admission-api/internal/models"
	"github.com/noah-isme/sma-admission-api/internal/repository"
	"github.com/noah-isme/sma-admission-api/internal/service"
	"github.com/noah-isme/sma-admission-api/pkg/addresslookup"
	"github.com/noah-isme/sma-admission-api/pkg/cache"
	"github.com/noah-isme/sma-admission-api/pkg/config"
	"github.com/noah-isme/sma-admission-api/pkg/database"
	"github.com/noah-isme/sma-admission-api/pkg/export"
	"github.com/noah-isme/sma-admission-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-admission-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-admission-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-admission-api/pkg/storage"
)

// @title SMA Admission API
// @version 1.0.0
// @description Online enrollment wizard and administration of submitted enrollments.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	migrate := flag.Bool("migrate", false, "apply pending migrations before serving")
	migrationsDir := flag.String("migrations", "migrations", "directory holding *.up.sql files")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if *migrate {
		applied, err := database.Migrate(ctx, db, *migrationsDir, logr)
		if err != nil {
			logr.Fatal("migration failed", zap.Error(err))
		}
		logr.Info("migrations applied", zap.Int("count", applied))
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	kv := repository.NewCacheRepository(redisClient, logr)
	defer kv.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	counterRepo := repository.NewEnrollmentCounterRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	financialRepo := repository.NewFinancialResponsibleRepository(db)
	sectionRepo := repository.NewClassSectionRepository(db)
	linkRepo := repository.NewClassLinkRepository(db)

	artifacts, err := storage.NewLocalStorage(cfg.Signature.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare signature storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Signature.SignedURLSecret, cfg.Signature.SignedURLTTL)
	signatures := service.NewSignatureService(artifacts, signer, cfg.Signature, logr)

	classLinks := service.NewClassLinkService(linkRepo, metrics, logr)
	retrier := service.NewClassLinkRetrier(classLinks, cfg.ClassLinkRetry, metrics, logr)
	retrier.Start(ctx)
	defer retrier.Stop()

	allocator := service.NewSequenceAllocator(cfg.Enrollment.SequenceStrategy, enrollmentRepo, counterRepo, time.Now, metrics)
	schema := service.NewStudentSchema(cfg.Enrollment)
	reconciler := service.NewStudentReconciler(studentRepo, schema, metrics, logr)
	writer := service.NewEnrollmentWriter(enrollmentRepo, guardianRepo, financialRepo, signatures, classLinks, retrier, time.Now, logr)
	submissions := service.NewSubmissionService(allocator, sectionRepo, reconciler, writer, metrics, logr)

	identity := service.NewIdentityService(service.IdentityConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
		SignInURL:         cfg.Identity.SignInURL,
		ReturnBaseURL:     cfg.Identity.ReturnBaseURL,
	})
	stateStore := service.NewWizardStateStore(kv, cfg.Enrollment.WizardResumeTTL, identity.ReturnURL, logr)
	wizardSessions := service.NewWizardSessionService(service.WizardSessionDeps{
		KV:         kv,
		Wizard:     service.NewEnrollmentWizard(validator.New(), time.Now),
		Store:      stateStore,
		Submission: submissions,
		Signatures: signatures,
		Identity:   identity,
		TTL:        cfg.Enrollment.WizardSessionTTL,
		Metrics:    metrics,
		Logger:     logr,
	})

	addressCache := service.NewCacheService(kv, metrics, cfg.AddressLookup.CacheTTL, logr, true)
	addresses := service.NewAddressService(addresslookup.New(cfg.AddressLookup.BaseURL, cfg.AddressLookup.Timeout), addressCache, cfg.AddressLookup.CacheTTL, metrics, logr)

	enrollments := service.NewEnrollmentService(service.EnrollmentServiceDeps{
		Enrollments: enrollmentRepo,
		Students:    studentRepo,
		Guardians:   guardianRepo,
		Financial:   financialRepo,
		Sections:    sectionRepo,
		LinkFinder:  linkRepo,
		Linker:      classLinks,
		Signatures:  signatures,
		APIPrefix:   cfg.APIPrefix,
		Logger:      logr,
	})
	exports := service.NewExportService(enrollmentRepo, enrollments, signatures, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis":    kv.Ping,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/health", metricsHandler.Health)
	api.GET("/ready", metricsHandler.Ready)

	wizardHandler := handler.NewWizardHandler(wizardSessions)
	wizard := api.Group("/tenants/:tenantID/enrollment-wizard", middleware.OptionalJWT(identity))
	wizard.POST("", wizardHandler.Start)
	wizard.POST("/resume", wizardHandler.Resume)
	wizard.GET("/resume/:ticket", wizardHandler.PendingRedirect)
	wizard.GET("/:sessionID", wizardHandler.Get)
	wizard.PUT("/:sessionID/student", wizardHandler.Student)
	wizard.PUT("/:sessionID/guardians", wizardHandler.Guardians)
	wizard.PUT("/:sessionID/financial-responsible", wizardHandler.FinancialResponsible)
	wizard.PUT("/:sessionID/signature", wizardHandler.Signature)
	wizard.DELETE("/:sessionID/signature", wizardHandler.ClearSignature)
	wizard.POST("/:sessionID/back", wizardHandler.Back)
	wizard.POST("/:sessionID/confirm", wizardHandler.Confirm)

	api.GET("/addresses/:postalCode", handler.NewAddressHandler(addresses).Lookup)
	api.GET("/signatures/:token", handler.NewSignatureHandler(signatures).Download)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollments, exports)
	admin := api.Group("/tenants/:tenantID/enrollments",
		middleware.JWT(identity),
		middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
		middleware.TenantScope("tenantID"),
	)
	admin.GET("", enrollmentHandler.List)
	admin.GET("/export", enrollmentHandler.Export)
	admin.GET("/:id", enrollmentHandler.Detail)
	admin.GET("/:id/receipt", enrollmentHandler.Receipt)
	admin.POST("/:id/class-link", enrollmentHandler.LinkClass)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
