package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/onurcolak/edubot-service/internal/domain"
)

// fakeStats returns one entry of windows per call.
type fakeStats struct {
	mu      sync.Mutex
	windows []domain.DeliveryStats
	err     error
	since   []time.Time
}

func (f *fakeStats) GetDeliveryStats(ctx context.Context, since time.Time) (domain.DeliveryStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.since = append(f.since, since)
	if f.err != nil {
		return domain.DeliveryStats{}, f.err
	}
	if len(f.windows) == 0 {
		return domain.DeliveryStats{}, nil
	}
	w := f.windows[0]
	f.windows = f.windows[1:]
	return w, nil
}

func TestMonitor_CheckMixedResultsResetsCounter(t *testing.T) {
	stats := &fakeStats{windows: []domain.DeliveryStats{
		{None: 4},
		{Interactive: 3, Text: 1, None: 1},
	}}
	m := NewDeliveryMonitor(stats, time.Minute, "", 3)

	m.check(context.Background())
	if got := m.GetStatus().ConsecutiveAllFailCount; got != 1 {
		t.Fatalf("expected ConsecutiveAllFailCount=1, got %d", got)
	}

	m.check(context.Background())

	status := m.GetStatus()
	if status.ConsecutiveAllFailCount != 0 {
		t.Errorf("expected ConsecutiveAllFailCount=0, got %d", status.ConsecutiveAllFailCount)
	}
	if status.RunsCount != 2 {
		t.Errorf("expected RunsCount=2, got %d", status.RunsCount)
	}
	if status.DeliveredTotal != 4 || status.FailedTotal != 5 {
		t.Errorf("unexpected totals: delivered=%d failed=%d", status.DeliveredTotal, status.FailedTotal)
	}
}

func TestMonitor_EmptyWindowKeepsCounter(t *testing.T) {
	stats := &fakeStats{windows: []domain.DeliveryStats{{None: 2}, {}}}
	m := NewDeliveryMonitor(stats, time.Minute, "", 5)

	m.check(context.Background())
	m.check(context.Background())

	if got := m.GetStatus().ConsecutiveAllFailCount; got != 1 {
		t.Fatalf("expected quiet window not to reset the counter, got %d", got)
	}
}

func TestMonitor_StatsErrorIsNotAFailure(t *testing.T) {
	stats := &fakeStats{err: errors.New("db down")}
	m := NewDeliveryMonitor(stats, time.Minute, "", 1)

	m.check(context.Background())

	status := m.GetStatus()
	if status.ConsecutiveAllFailCount != 0 {
		t.Errorf("expected no failure count on stats error, got %d", status.ConsecutiveAllFailCount)
	}
	if status.RunsCount != 1 {
		t.Errorf("expected RunsCount=1, got %d", status.RunsCount)
	}
}

func TestMonitor_WindowsAreContiguous(t *testing.T) {
	stats := &fakeStats{}
	m := NewDeliveryMonitor(stats, time.Minute, "", 3)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	m.windowStart = clock.Add(-time.Minute)

	m.check(context.Background())
	clock = clock.Add(time.Minute)
	m.check(context.Background())

	if len(stats.since) != 2 {
		t.Fatalf("expected 2 stats calls, got %d", len(stats.since))
	}
	if !stats.since[1].Equal(stats.since[0].Add(time.Minute)) {
		t.Fatalf("expected second window to start where the first ended, got %v then %v", stats.since[0], stats.since[1])
	}
}

func TestMonitor_AlertPostedAtThreshold(t *testing.T) {
	received := make(chan alertPayload, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p alertPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("failed to decode alert: %v", err)
		}
		received <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	stats := &fakeStats{windows: []domain.DeliveryStats{
		{None: 2}, {None: 3},
		{None: 1}, {None: 4},
		{Interactive: 1}, {None: 1}, {None: 1},
	}}
	m := NewDeliveryMonitor(stats, time.Minute, srv.URL, 2)

	m.check(context.Background())
	select {
	case <-received:
		t.Fatalf("expected no alert below threshold")
	case <-time.After(50 * time.Millisecond):
	}

	m.check(context.Background())

	select {
	case p := <-received:
		if p.Alert != "consecutive_all_fail" {
			t.Errorf("unexpected alert type %q", p.Alert)
		}
		if p.ConsecutiveFailures != 2 || p.RepliesInWindow != 3 {
			t.Errorf("unexpected alert payload: %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected alert to be posted")
	}

	// The streak continues: no repeat alert.
	m.check(context.Background())
	m.check(context.Background())
	select {
	case p := <-received:
		t.Fatalf("expected a single alert per streak, got another: %+v", p)
	case <-time.After(100 * time.Millisecond):
	}

	// A delivered window ends the streak; the next one alerts again.
	m.check(context.Background())
	m.check(context.Background())
	m.check(context.Background())
	select {
	case p := <-received:
		if p.ConsecutiveFailures != 2 {
			t.Errorf("unexpected alert payload: %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected alert for the new streak")
	}
}

func TestMonitor_StartAndStopToggleRunning(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewDeliveryMonitor(&fakeStats{}, 10*time.Millisecond, "", 3)

	if m.IsRunning() {
		t.Fatalf("expected monitor to be not running initially")
	}

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if !m.IsRunning() {
		t.Fatalf("expected monitor to be running after Start")
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if m.IsRunning() {
		t.Fatalf("expected monitor to be not running after Stop")
	}
}

func TestMonitor_StartWithParamsOverridesInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewDeliveryMonitor(&fakeStats{}, time.Minute, "", 3)
	if err := m.StartWithParams(ctx, 15, 7); err != nil {
		t.Fatalf("StartWithParams returned error: %v", err)
	}
	defer func() { _ = m.Stop() }()

	status := m.GetStatus()
	if status.Interval != 15*time.Minute {
		t.Errorf("expected 15m interval, got %v", status.Interval)
	}
	if status.AlertThreshold != 7 {
		t.Errorf("expected threshold 7, got %d", status.AlertThreshold)
	}
}
