package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/internal/monitor"
	validatorpkg "github.com/onurcolak/edubot-service/pkg/validator"
)

func newMonitorHandler(ctx context.Context) (*MonitorHandler, *monitor.DeliveryMonitor) {
	cfg := &environments.Config{
		Alert: environments.AlertConfig{IterationCount: 3, CheckInterval: 5 * time.Minute},
	}
	mon := monitor.NewDeliveryMonitor(&fakeQueries{}, cfg.Alert.CheckInterval, "", cfg.Alert.IterationCount)
	return NewMonitorHandler(mon, ctx, cfg), mon
}

func postJSON(path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validatorpkg.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestStartMonitor_InvalidIntervalIs422(t *testing.T) {
	h, mon := newMonitorHandler(context.Background())

	c, rec := postJSON("/api/v1/monitor/start", `{"interval": 0}`)
	if err := h.StartMonitor(c); err != nil {
		t.Fatalf("StartMonitor returned error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if mon.IsRunning() {
		t.Fatalf("expected monitor not to start on invalid input")
	}
}

func TestStartAndStopMonitor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, mon := newMonitorHandler(ctx)

	c, rec := postJSON("/api/v1/monitor/start", `{"interval": 10, "alertThreshold": 2}`)
	if err := h.StartMonitor(c); err != nil {
		t.Fatalf("StartMonitor returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !mon.IsRunning() {
		t.Fatalf("expected monitor to be running")
	}

	var body struct {
		Data monitor.Status `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.Data.Interval != 10*time.Minute || body.Data.AlertThreshold != 2 {
		t.Fatalf("unexpected status: %+v", body.Data)
	}

	c, rec = postJSON("/api/v1/monitor/stop", "")
	if err := h.StopMonitor(c); err != nil {
		t.Fatalf("StopMonitor returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if mon.IsRunning() {
		t.Fatalf("expected monitor to be stopped")
	}
}
