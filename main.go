package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/handlers"
	"github.com/onurcolak/edubot-service/internal/conversation"
	"github.com/onurcolak/edubot-service/internal/delivery"
	"github.com/onurcolak/edubot-service/internal/intent"
	"github.com/onurcolak/edubot-service/internal/lock"
	"github.com/onurcolak/edubot-service/internal/metrics"
	"github.com/onurcolak/edubot-service/internal/middlewares"
	"github.com/onurcolak/edubot-service/internal/monitor"
	"github.com/onurcolak/edubot-service/internal/repository"
	"github.com/onurcolak/edubot-service/internal/service"
	"github.com/onurcolak/edubot-service/pkg/database"
	"github.com/onurcolak/edubot-service/pkg/logger"
	"github.com/onurcolak/edubot-service/pkg/redis"
	"github.com/onurcolak/edubot-service/pkg/validator"
	"github.com/onurcolak/edubot-service/pkg/whatsapp"
	"github.com/onurcolak/edubot-service/routes"

	_ "github.com/onurcolak/edubot-service/docs" // swagger docs
)

// @title EduBot WhatsApp Service API
// @version 1.0
// @description WhatsApp bot for student registration, homework submission and subscriptions
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	// Load config, .env first when present
	dotEnvLoaded, dotEnvErr := environments.LoadDotEnv()
	cfg := environments.Load()

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic("failed to initialise logger: " + err.Error())
	}
	defer logger.Sync()

	if dotEnvErr != nil {
		logger.Warnf("Ignoring .env: %v", dotEnvErr)
	} else if dotEnvLoaded {
		logger.Infof("Loaded variables from .env")
	}

	// Hard-fail on missing secrets or bad values
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("%v", err)
	}

	logger.Infof("Starting %s service...", cfg.Bot.Name)

	// Init DB
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed data
	if environments.GetEnvAsBool("SEED_DATA", false) {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	// Init redis. Without it, dedupe is off and locking is per process.
	var (
		redisClient *redis.Client
		locker      lock.Locker = lock.NewKeyed()
		events      service.EventStore
		cachePinger handlers.CachePinger
	)
	if cfg.RedisEnabled() {
		redisClient, err = redis.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warnf("Redis not available, using in-process locks without dedupe: %v", err)
			redisClient = nil
		} else {
			locker = redisClient
			events = redisClient
			cachePinger = redisClient
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	botMetrics := metrics.New(registry)

	// Initialize WhatsApp client
	waClient := whatsapp.NewClient(cfg.WhatsApp)
	logger.Infof("WhatsApp Cloud API configured: %s", waClient.MessagesURL())

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)

	// Initialize service
	botService := service.NewBotService(
		userRepo,
		deliveryRepo,
		intent.NewRouter(),
		conversation.NewMachine(cfg.Bot),
		delivery.NewSender(waClient, cfg.Delivery, botMetrics),
		locker,
		events,
		botMetrics,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize delivery monitor
	deliveryMonitor := monitor.NewDeliveryMonitor(
		botService,
		cfg.Alert.CheckInterval,
		cfg.Alert.WebhookURL,
		cfg.Alert.IterationCount,
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cachePinger)
	webhookHandler := handlers.NewWebhookHandler(botService, cfg.WhatsApp.VerifyToken)
	userHandler := handlers.NewUserHandler(botService)
	deliveryHandler := handlers.NewDeliveryHandler(botService)
	monitorHandler := handlers.NewMonitorHandler(deliveryMonitor, ctx, cfg)

	// Auto-start monitor
	if environments.GetEnvAsBool("AUTO_START_MONITOR", true) {
		logger.Infof("Auto-starting delivery monitor...")
		if err := deliveryMonitor.Start(ctx); err != nil {
			logger.Warnf("Failed to auto-start delivery monitor: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middlewares.APIKeyHeader,
		},
	}))

	// Setup routes
	routes.RegisterRoutes(
		e,
		healthHandler,
		webhookHandler,
		userHandler,
		deliveryHandler,
		monitorHandler,
		registry,
		cfg,
	)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Shutdown HTTP server first so in-flight webhooks finish their replies
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	if deliveryMonitor.IsRunning() {
		logger.Infof("Stopping delivery monitor...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- deliveryMonitor.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping delivery monitor: %v", err)
			}
		case <-stopCtx.Done():
			logger.Warnf("Delivery monitor stop timeout, forcing shutdown")
		}
	}

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		logger.Infof("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}
