package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/edubot-service/internal/domain"
	"github.com/onurcolak/edubot-service/pkg/response"
)

const (
	defaultStatsWindow = 24 * time.Hour
	maxStatsWindow     = 30 * 24 * time.Hour
)

type deliveryQueries interface {
	ListDeliveries(ctx context.Context, failedOnly bool, page, pageSize int) ([]domain.Delivery, int64, error)
	GetDeliveryStats(ctx context.Context, since time.Time) (domain.DeliveryStats, error)
}

type DeliveryHandler struct {
	service deliveryQueries
	now     func() time.Time
}

func NewDeliveryHandler(service deliveryQueries) *DeliveryHandler {
	return &DeliveryHandler{service: service, now: time.Now}
}

// ListDeliveries godoc
// @Summary List reply deliveries
// @Description Retrieves a paginated list of replies with the fallback level that delivered them
// @Tags deliveries
// @Accept json
// @Produce json
// @Param x-api-key header string true "Admin API key"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param failed query bool false "Only replies where every attempt failed"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/deliveries [get]
func (h *DeliveryHandler) ListDeliveries(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	failedOnly := false
	if failedStr := c.QueryParam("failed"); failedStr != "" {
		failedOnly, err = strconv.ParseBool(failedStr)
		if err != nil {
			return response.BadRequest(c, fmt.Errorf("failed must be true or false"))
		}
	}

	deliveries, totalCount, err := h.service.ListDeliveries(c.Request().Context(), failedOnly, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, deliveries, page, pageSize, totalCount)
}

// GetDeliveryStats godoc
// @Summary Get delivery statistics
// @Description Returns reply counts per fallback level over a recent window
// @Tags deliveries
// @Accept json
// @Produce json
// @Param x-api-key header string true "Admin API key"
// @Param window query string false "Go duration, e.g. 1h or 30m (default: 24h, max: 720h)"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/deliveries/stats [get]
func (h *DeliveryHandler) GetDeliveryStats(c echo.Context) error {
	window := defaultStatsWindow
	if windowStr := c.QueryParam("window"); windowStr != "" {
		d, err := time.ParseDuration(windowStr)
		if err != nil || d <= 0 || d > maxStatsWindow {
			return response.BadRequest(c, fmt.Errorf("window must be a duration between 1s and %s", maxStatsWindow))
		}
		window = d
	}

	since := h.now().Add(-window)
	stats, err := h.service.GetDeliveryStats(c.Request().Context(), since)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	total := stats.Total()
	deliveredRate := 0.0
	if total > 0 {
		deliveredRate = float64(total-stats.None) / float64(total)
	}

	return response.Ok(c, map[string]any{
		"since":         since.UTC().Format(time.RFC3339),
		"interactive":   stats.Interactive,
		"text":          stats.Text,
		"fallback":      stats.Fallback,
		"none":          stats.None,
		"total":         total,
		"deliveredRate": deliveredRate,
	})
}
