package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/internal/monitor"
	"github.com/onurcolak/edubot-service/pkg/response"
	"github.com/onurcolak/edubot-service/pkg/validator"
)

type MonitorHandler struct {
	monitor *monitor.DeliveryMonitor
	ctx     context.Context
	config  *environments.Config
}

type StartMonitorRequest struct {
	Interval       *int `json:"interval,omitempty" validate:"omitempty,min=1,max=1440"`
	AlertThreshold *int `json:"alertThreshold,omitempty" validate:"omitempty,min=1"`
}

func NewMonitorHandler(
	mon *monitor.DeliveryMonitor,
	ctx context.Context,
	cfg *environments.Config,
) *MonitorHandler {
	return &MonitorHandler{
		monitor: mon,
		ctx:     ctx,
		config:  cfg,
	}
}

// StartMonitor godoc
// @Summary Start the delivery monitor
// @Description Starts the periodic delivery check that alerts when every reply keeps failing
// @Tags monitor
// @Accept json
// @Produce json
// @Param x-api-key header string true "Admin API key"
// @Param request body StartMonitorRequest false "Monitor parameters (optional)"
// @Success 200 {object} response.SuccessResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/monitor/start [post]
func (h *MonitorHandler) StartMonitor(c echo.Context) error {
	if h.monitor.IsRunning() {
		return response.OkWithMessage(c, "Monitor is already running", h.monitor.GetStatus())
	}

	var req StartMonitorRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	intervalMinutes := int(h.config.Alert.CheckInterval.Minutes())
	if req.Interval != nil {
		intervalMinutes = *req.Interval
	}

	alertThreshold := h.config.Alert.IterationCount
	if req.AlertThreshold != nil {
		alertThreshold = *req.AlertThreshold
	}

	if err := h.monitor.StartWithParams(h.ctx, intervalMinutes, alertThreshold); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Monitor started successfully", h.monitor.GetStatus())
}

// StopMonitor godoc
// @Summary Stop the delivery monitor
// @Tags monitor
// @Accept json
// @Produce json
// @Param x-api-key header string true "Admin API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/monitor/stop [post]
func (h *MonitorHandler) StopMonitor(c echo.Context) error {
	if !h.monitor.IsRunning() {
		return response.OkWithMessage(c, "Monitor is already stopped", h.monitor.GetStatus())
	}

	if err := h.monitor.Stop(); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Monitor stopped successfully", h.monitor.GetStatus())
}

// GetMonitorStatus godoc
// @Summary Get delivery monitor status
// @Tags monitor
// @Accept json
// @Produce json
// @Param x-api-key header string true "Admin API key"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/monitor/status [get]
func (h *MonitorHandler) GetMonitorStatus(c echo.Context) error {
	return response.Ok(c, h.monitor.GetStatus())
}
