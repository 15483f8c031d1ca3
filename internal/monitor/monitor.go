// Package monitor periodically checks how replies are being delivered and
// alerts when every reply in consecutive windows failed.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/edubot-service/internal/domain"
	"github.com/onurcolak/edubot-service/pkg/logger"
)

// statsProvider matches BotService.GetDeliveryStats.
type statsProvider interface {
	GetDeliveryStats(ctx context.Context, since time.Time) (domain.DeliveryStats, error)
}

const defaultInterval = 5 * time.Minute

type DeliveryMonitor struct {
	stats           statsProvider
	http            *resty.Client
	interval        time.Duration
	alertWebhook    string
	alertThreshold  int // consecutive all-fail windows before alerting
	lastAlertSentAt time.Time

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	lastRunAt      time.Time
	windowStart    time.Time
	runsCount      int64
	lastStats      domain.DeliveryStats
	deliveredTotal int64
	failedTotal    int64

	consecutiveAllFailCount int
	now                     func() time.Time
}

func NewDeliveryMonitor(stats statsProvider, interval time.Duration, alertWebhook string, alertThreshold int) *DeliveryMonitor {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &DeliveryMonitor{
		stats:          stats,
		http:           resty.New().SetTimeout(10 * time.Second),
		interval:       interval,
		alertWebhook:   alertWebhook,
		alertThreshold: alertThreshold,
		now:            time.Now,
	}
}

// StartWithParams overrides the interval (in minutes) and alert threshold for this run.
func (m *DeliveryMonitor) StartWithParams(ctx context.Context, intervalMinutes int, alertThreshold int) error {
	m.mu.Lock()
	if intervalMinutes > 0 {
		m.interval = time.Duration(intervalMinutes) * time.Minute
	}
	if alertThreshold > 0 {
		m.alertThreshold = alertThreshold
	}
	m.consecutiveAllFailCount = 0
	m.mu.Unlock()

	return m.Start(ctx)
}

func (m *DeliveryMonitor) Start(ctx context.Context) error {
	m.mu.Lock()

	if m.running {
		m.mu.Unlock()
		logger.Warnf("Delivery monitor is already running")
		return nil
	}

	m.running = true
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	m.windowStart = m.now()
	interval := m.interval
	m.mu.Unlock()

	logger.Infof("Starting delivery monitor with interval: %v", interval)

	go m.run(ctx, interval)

	return nil
}

func (m *DeliveryMonitor) run(ctx context.Context, interval time.Duration) {
	defer close(m.doneChan)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check(ctx)

		case <-m.stopChan:
			logger.Warnf("Delivery monitor received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Delivery monitor context cancelled")
			return
		}
	}
}

// check looks at deliveries recorded since the previous check.
func (m *DeliveryMonitor) check(ctx context.Context) {
	m.mu.Lock()
	now := m.now()
	since := m.windowStart
	if since.IsZero() {
		since = now.Add(-m.interval)
	}
	m.windowStart = now
	m.lastRunAt = now
	m.runsCount++
	runNumber := m.runsCount
	alertWebhook := m.alertWebhook
	alertThreshold := m.alertThreshold
	m.mu.Unlock()

	stats, err := m.stats.GetDeliveryStats(ctx, since)
	if err != nil {
		logger.Errorf("[Check #%d] Failed to load delivery stats: %v", runNumber, err)
		return
	}

	total := stats.Total()
	delivered := total - stats.None

	m.mu.Lock()
	m.lastStats = stats
	m.deliveredTotal += delivered
	m.failedTotal += stats.None

	if total == 0 {
		m.mu.Unlock()
		logger.Debugf("[Check #%d] No replies since %s", runNumber, since.Format(time.RFC3339))
		return
	}

	if delivered == 0 {
		m.consecutiveAllFailCount++
		failCount := m.consecutiveAllFailCount
		logger.Warnf("[Check #%d] All %d replies failed to deliver (consecutive count: %d/%d)",
			runNumber, total, failCount, alertThreshold)

		// One alert per streak.
		if failCount == alertThreshold && alertThreshold > 0 && alertWebhook != "" {
			go m.sendAlert(alertWebhook, runNumber, failCount, total)
		}
	} else {
		if m.consecutiveAllFailCount > 0 {
			logger.Debugf("[Check #%d] Resetting consecutive failure count (was: %d)",
				runNumber, m.consecutiveAllFailCount)
		}
		m.consecutiveAllFailCount = 0
	}
	m.mu.Unlock()

	logger.Infof("[Check #%d] %d replies: %d interactive, %d text, %d fallback, %d undelivered",
		runNumber, total, stats.Interactive, stats.Text, stats.Fallback, stats.None)
}

func (m *DeliveryMonitor) Stop() error {
	m.mu.Lock()

	if !m.running {
		m.mu.Unlock()
		logger.Warnf("Delivery monitor is not running")
		return nil
	}

	m.running = false
	stopChan := m.stopChan
	doneChan := m.doneChan
	m.mu.Unlock()

	close(stopChan)
	<-doneChan

	logger.Infof("Delivery monitor stopped")
	return nil
}

func (m *DeliveryMonitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *DeliveryMonitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := Status{
		Running:                 m.running,
		LastRunAt:               m.lastRunAt,
		RunsCount:               m.runsCount,
		Interval:                m.interval,
		LastWindow:              m.lastStats,
		DeliveredTotal:          m.deliveredTotal,
		FailedTotal:             m.failedTotal,
		AlertThreshold:          m.alertThreshold,
		ConsecutiveAllFailCount: m.consecutiveAllFailCount,
		LastAlertSentAt:         m.lastAlertSentAt,
	}

	if m.running {
		status.NextRunAt = m.windowStart.Add(m.interval)
	}

	return status
}

type alertPayload struct {
	Alert               string `json:"alert"`
	RunNumber           int64  `json:"runNumber"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	RepliesInWindow     int64  `json:"repliesInWindow"`
	Timestamp           string `json:"timestamp"`
	Message             string `json:"message"`
}

func (m *DeliveryMonitor) sendAlert(webhookURL string, runNumber int64, consecutiveFailures int, replies int64) {
	payload := alertPayload{
		Alert:               "consecutive_all_fail",
		RunNumber:           runNumber,
		ConsecutiveFailures: consecutiveFailures,
		RepliesInWindow:     replies,
		Timestamp:           time.Now().Format(time.RFC3339),
		Message: fmt.Sprintf(
			"All %d replies failed to deliver for %d consecutive checks",
			replies,
			consecutiveFailures,
		),
	}

	resp, err := m.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(webhookURL)
	if err != nil {
		logger.Errorf("Failed to send alert to webhook: %v", err)
		return
	}

	if resp.StatusCode() == 200 || resp.StatusCode() == 204 {
		m.mu.Lock()
		m.lastAlertSentAt = time.Now()
		m.mu.Unlock()
		logger.Infof("Alert sent successfully to %s (consecutive failures: %d)", webhookURL, consecutiveFailures)
	} else {
		logger.Warnf("Alert webhook returned status %d", resp.StatusCode())
	}
}

type Status struct {
	Running                 bool                 `json:"running"`
	LastRunAt               time.Time            `json:"lastRunAt,omitempty"`
	NextRunAt               time.Time            `json:"nextRunAt,omitempty"`
	RunsCount               int64                `json:"runsCount"`
	Interval                time.Duration        `json:"interval"`
	LastWindow              domain.DeliveryStats `json:"lastWindow"`
	DeliveredTotal          int64                `json:"deliveredTotal"`
	FailedTotal             int64                `json:"failedTotal"`
	AlertThreshold          int                  `json:"alertThreshold"`
	ConsecutiveAllFailCount int                  `json:"consecutiveAllFailCount"`
	LastAlertSentAt         time.Time            `json:"lastAlertSentAt,omitempty"`
}
