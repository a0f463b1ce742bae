package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mistriconnect/technician-backend/internal/config"
	"github.com/mistriconnect/technician-backend/internal/database"
	"github.com/mistriconnect/technician-backend/internal/handlers"
	"github.com/mistriconnect/technician-backend/internal/middleware"
	"github.com/mistriconnect/technician-backend/internal/services"
	"github.com/mistriconnect/technician-backend/pkg/docstore"
	"github.com/mistriconnect/technician-backend/pkg/jwt"
	"github.com/mistriconnect/technician-backend/pkg/notify"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting MistriConnect Technician Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database schema up to date")

	// Initialize repositories
	technicianRepo := database.NewTechnicianRepository(db)
	documentRepo := database.NewDocumentRepository(db)
	requestRepo := database.NewMaintenanceRequestRepository(db)
	catalogRepo := database.NewCatalogRepository(db)
	auditRepo := database.NewAuditLogRepository(db)

	// Initialize the document store
	var store docstore.Store
	if cfg.DocStore.Mode == "gcs" {
		logger.Info("Initializing GCS document store...")
		gcsStore, err := docstore.NewGCSStore(context.Background(), docstore.GCSConfig{
			Bucket:    cfg.DocStore.Bucket,
			URLPrefix: cfg.DocStore.URLPrefix,
		})
		if err != nil {
			logger.Fatalf("Failed to create GCS document store: %v", err)
		}
		defer gcsStore.Close()
		store = gcsStore
	} else {
		logger.Info("Document store in local mode (files stored on disk)")
		store, err = docstore.NewLocalStore(cfg.DocStore.LocalDir, cfg.DocStore.URLPrefix)
		if err != nil {
			logger.Fatalf("Failed to create local document store: %v", err)
		}
	}

	// Initialize the notification gateway
	var gateway notify.Gateway
	if cfg.Notify.Mode == "production" {
		logger.Info("Notification gateway in production mode (webhook delivery)")
		gateway = notify.NewWebhookGateway(notify.WebhookConfig{
			WebhookURL: cfg.Notify.WebhookURL,
			APIKey:     cfg.Notify.APIKey,
			Timeout:    cfg.Notify.Timeout,
		})
	} else {
		logger.Info("Notification gateway in development mode (events logged only)")
		gateway = notify.NewDevGateway(logger)
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	auditService := services.NewAuditService(auditRepo)
	profileService := services.NewProfileService(technicianRepo, documentRepo, requestRepo, catalogRepo)
	submissionService := services.NewSubmissionService(db, technicianRepo, documentRepo, catalogRepo, store, gateway)
	maintenanceService := services.NewMaintenanceService(db, technicianRepo, requestRepo, catalogRepo, store)
	resolutionService := services.NewResolutionService(db, technicianRepo, documentRepo, requestRepo, gateway)
	logger.Info("Services initialized")

	// Initialize handlers
	technicianHandler := handlers.NewTechnicianHandler(
		profileService,
		submissionService,
		maintenanceService,
		auditService,
		cfg.DocStore.MaxUploadSize,
	)
	adminHandler := handlers.NewAdminHandler(profileService, resolutionService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")

	auth := middleware.AuthMiddleware(jwtService)
	techCtx := middleware.TechnicianContext(technicianRepo)

	technician := v1.Group("/technician", auth, middleware.RequireRole(jwt.RoleTechnician))
	{
		technician.POST("/register", technicianHandler.Register)
		technician.GET("/zones", technicianHandler.ListZones)

		profile := technician.Group("", techCtx)
		{
			profile.GET("/profile", technicianHandler.GetProfile)
			profile.POST("/onboarding/steps", technicianHandler.SubmitStep)
			profile.POST("/documents", technicianHandler.UploadDocument)
		}

		verified := technician.Group("/requests", techCtx, middleware.RequireVerifiedTechnician())
		{
			verified.POST("/service", technicianHandler.SubmitServiceChange)
			verified.POST("/zone", technicianHandler.SubmitZoneTransfer)
			verified.POST("/bank", technicianHandler.SubmitBankUpdate)
			verified.POST("/:kind/:id/dismiss", technicianHandler.DismissRequest)
			verified.POST("/:kind/:id/archive", technicianHandler.ArchiveRequest)
		}
	}

	admin := v1.Group("/admin", auth, middleware.RequireRole(jwt.RoleAdmin))
	{
		admin.GET("/applications", adminHandler.ListApplications)
		admin.GET("/applications/:id", adminHandler.GetApplication)
		admin.POST("/applications/:id/decision", adminHandler.DecideApplication)
		admin.POST("/technicians/:id/requests/:kind/:requestId/decision", adminHandler.DecideMaintenanceRequest)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      c.Request.URL.RawQuery,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}).Info("Request completed")
	}
}

// healthCheckHandler reports server and database health
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
