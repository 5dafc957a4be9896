package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/daeyeo/daeyeo-backend/config"
	"github.com/daeyeo/daeyeo-backend/internal/app/controller"
	"github.com/daeyeo/daeyeo-backend/internal/app/repository"
	"github.com/daeyeo/daeyeo-backend/internal/app/service"
	"github.com/daeyeo/daeyeo-backend/internal/db"
	"github.com/daeyeo/daeyeo-backend/internal/middleware"
	"github.com/daeyeo/daeyeo-backend/internal/router"
	"github.com/daeyeo/daeyeo-backend/internal/scheduler"
	"github.com/daeyeo/daeyeo-backend/internal/storage"
	"github.com/daeyeo/daeyeo-backend/internal/websocket"
	"github.com/daeyeo/daeyeo-backend/pkg/bgcheck"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
	"github.com/daeyeo/daeyeo-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting DAEYEO Verification Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize Redis (verification code store)
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	// Initialize background check provider client
	providerClient, err := bgcheck.NewClient(bgcheck.Config{
		ProviderName:  cfg.Provider.Name,
		BaseURL:       cfg.Provider.BaseURL,
		APIKey:        cfg.Provider.APIKey,
		WebhookSecret: cfg.Provider.WebhookSecret,
	})
	if err != nil {
		logger.Fatal("Failed to initialize background check client", err)
	}

	// Initialize S3 storage (verification documents)
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Start WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	requestRepo := repository.NewVerificationRequestRepository(db.GetDB())
	statusRepo := repository.NewVerificationStatusRepository(db.GetDB())
	notificationRepo := repository.NewNotificationRepository(db.GetDB())

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, hub)
	statusService := service.NewStatusService(
		requestRepo,
		statusRepo,
		service.DefaultScoringConfig(),
		service.DefaultBadgeConfig(),
		notificationService,
	)
	backgroundCheckService := service.NewBackgroundCheckService(
		requestRepo,
		statusService,
		notificationService,
		providerClient,
		cfg.Provider.RecheckAfter,
		cfg.Provider.MaxPendingAge,
	)
	verificationService := service.NewVerificationService(
		requestRepo,
		statusService,
		notificationService,
		service.RedisCodeStore{},
		service.UtilChallengeSender{},
		backgroundCheckService,
		service.DefaultScoringConfig(),
		service.DefaultRequirementsConfig(),
		cfg.Verification.CodeTTL,
		cfg.Verification.MaxCodeAttempts,
	)
	adminReviewService := service.NewAdminReviewService(requestRepo, statusService, notificationService)

	// Initialize controllers
	verificationController := controller.NewVerificationController(verificationService, statusService, s3Storage)
	adminController := controller.NewAdminVerificationController(adminReviewService)
	notificationController := controller.NewNotificationController(notificationService, hub)
	webhookController := controller.NewWebhookController(backgroundCheckService, providerClient)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Start scheduler (expiry sweep + provider polling)
	verificationScheduler := scheduler.NewVerificationScheduler(backgroundCheckService)
	if err := verificationScheduler.Start(); err != nil {
		logger.Fatal("Failed to start verification scheduler", err)
	}
	defer verificationScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		verificationController,
		adminController,
		notificationController,
		webhookController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
