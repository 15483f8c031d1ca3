package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type dbPinger interface {
	PingContext(ctx context.Context) error
}

// CachePinger is the optional valkey connection. Pass a nil interface when
// it is not configured.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health checks.
type HealthHandler struct {
	db           dbPinger
	cache        CachePinger
	checkTimeout time.Duration
}

func NewHealthHandler(db dbPinger, cache CachePinger) *HealthHandler {
	return &HealthHandler{
		db:           db,
		cache:        cache,
		checkTimeout: 2 * time.Second,
	}
}

// Health returns overall status and basic component statuses (DB and Redis).
// @Summary Health check
// @Description Returns overall status with DB and Redis connectivity results
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	overallStatus := "ok"
	code := http.StatusOK

	dbStatus := "up"
	if h.db == nil {
		dbStatus = "down"
	} else if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
	}
	if dbStatus == "down" {
		overallStatus = "down"
		code = http.StatusServiceUnavailable
	}

	// Without valkey the bot falls back to in-process locking, so it stays usable.
	redisStatus := "disabled"
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			redisStatus = "down"
			if overallStatus == "ok" {
				overallStatus = "degraded"
			}
		} else {
			redisStatus = "up"
		}
	}

	return c.JSON(code, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().Format(time.RFC3339),
		"components": map[string]any{
			"database": map[string]any{
				"status": dbStatus,
			},
			"redis": map[string]any{
				"status": redisStatus,
			},
		},
	})
}
