package domain

import (
	"strings"
	"time"
)

type DeliveryLevel string

const (
	LevelInteractive DeliveryLevel = "interactive"
	LevelText        DeliveryLevel = "text"
	LevelFallback    DeliveryLevel = "fallback"
	LevelNone        DeliveryLevel = "none"
)

type AttemptResult struct {
	Level     DeliveryLevel `json:"level"`
	Success   bool          `json:"success"`
	MessageID string        `json:"messageId,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// DeliveryReport describes one run of the fallback chain.
type DeliveryReport struct {
	Recipient string          `json:"recipient"`
	Level     DeliveryLevel   `json:"level"`
	MessageID string          `json:"messageId,omitempty"`
	Attempts  []AttemptResult `json:"attempts"`
}

func (r DeliveryReport) Delivered() bool {
	return r.Level != LevelNone && r.Level != ""
}

// FailureReasons joins the errors of every failed attempt.
func (r DeliveryReport) FailureReasons() string {
	var reasons []string
	for _, a := range r.Attempts {
		if !a.Success && a.Error != "" {
			reasons = append(reasons, string(a.Level)+": "+a.Error)
		}
	}
	return strings.Join(reasons, "; ")
}

// Delivery is the persisted outcome of a reply, kept for investigation.
type Delivery struct {
	ID             int64         `db:"id" json:"id"`
	Reference      string        `db:"reference" json:"reference"`
	PhoneNumber    string        `db:"phone_number" json:"phoneNumber"`
	InboundEventID string        `db:"inbound_event_id" json:"inboundEventId"`
	Level          DeliveryLevel `db:"level" json:"level"`
	MessageID      *string       `db:"message_id" json:"messageId,omitempty"`
	Failures       *string       `db:"failures" json:"failures,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
}

type DeliveryStats struct {
	Interactive int64 `db:"interactive" json:"interactive"`
	Text        int64 `db:"text" json:"text"`
	Fallback    int64 `db:"fallback" json:"fallback"`
	None        int64 `db:"none" json:"none"`
}

func (s DeliveryStats) Total() int64 {
	return s.Interactive + s.Text + s.Fallback + s.None
}
