package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/handlers"
	"github.com/onurcolak/edubot-service/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	userHandler *handlers.UserHandler,
	deliveryHandler *handlers.DeliveryHandler,
	monitorHandler *handlers.MonitorHandler,
	gatherer prometheus.Gatherer,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// WhatsApp Cloud API callbacks
	e.GET("/webhook", webhookHandler.Verify)
	e.POST("/webhook", webhookHandler.Receive, middlewares.WebhookSignature(cfg.WhatsApp.AppSecret))

	// Admin API, one key for every group
	v1 := e.Group("/api/v1", middlewares.APIKeyAuth(cfg.Auth.AdminAPIKey))

	users := v1.Group("/users")
	users.GET("", userHandler.ListUsers)
	users.GET("/stats", userHandler.GetUserStats)
	users.GET("/:phone", userHandler.GetUser)

	deliveries := v1.Group("/deliveries")
	deliveries.GET("", deliveryHandler.ListDeliveries)
	deliveries.GET("/stats", deliveryHandler.GetDeliveryStats)

	monitorGroup := v1.Group("/monitor")
	monitorGroup.POST("/start", monitorHandler.StartMonitor)
	monitorGroup.POST("/stop", monitorHandler.StopMonitor)
	monitorGroup.GET("/status", monitorHandler.GetMonitorStatus)
}
