// Package delivery sends replies through a fixed fallback chain:
// interactive message, then plain text, then a canned acknowledgment.
package delivery

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/internal/domain"
	"github.com/onurcolak/edubot-service/internal/metrics"
	"github.com/onurcolak/edubot-service/pkg/logger"
)

// Transport is the outbound messaging API (pkg/whatsapp.Client in production).
type Transport interface {
	SendInteractive(ctx context.Context, to, body string, buttons []domain.Button) (string, error)
	SendText(ctx context.Context, to, body string) (string, error)
}

type attempt struct {
	level domain.DeliveryLevel
	send  func(ctx context.Context) (string, error)
}

type Sender struct {
	transport Transport
	config    environments.DeliveryConfig
	metrics   *metrics.BotMetrics
	log       *zap.SugaredLogger
}

func NewSender(transport Transport, cfg environments.DeliveryConfig, m *metrics.BotMetrics) *Sender {
	return &Sender{
		transport: transport,
		config:    cfg,
		metrics:   m,
		log:       logger.L(),
	}
}

// WithLogger replaces the logger used for attempt outcomes.
func (s *Sender) WithLogger(l *zap.SugaredLogger) *Sender {
	s.log = l
	return s
}

// Deliver walks the fallback chain and stops at the first success. It never
// fails: a report with level "none" means every attempt failed.
func (s *Sender) Deliver(ctx context.Context, to string, msg domain.OutboundMessage) domain.DeliveryReport {
	msg = msg.Normalize()

	report := domain.DeliveryReport{
		Recipient: to,
		Level:     domain.LevelNone,
	}

	for _, a := range s.attempts(to, msg) {
		result := s.run(ctx, to, a)
		report.Attempts = append(report.Attempts, result)

		if result.Success {
			report.Level = a.level
			report.MessageID = result.MessageID
			break
		}
	}

	s.metrics.ObserveDelivery(string(report.Level))

	if !report.Delivered() {
		s.log.Errorw("all delivery attempts failed",
			"to", to,
			"attempts", len(report.Attempts),
			"reasons", report.FailureReasons(),
		)
	}

	return report
}

func (s *Sender) attempts(to string, msg domain.OutboundMessage) []attempt {
	chain := make([]attempt, 0, 3)

	if msg.HasButtons() {
		chain = append(chain, attempt{
			level: domain.LevelInteractive,
			send: func(ctx context.Context) (string, error) {
				return s.transport.SendInteractive(ctx, to, truncate(msg.Text, s.config.MaxTextLength), msg.Buttons)
			},
		})
	}

	chain = append(chain,
		attempt{
			level: domain.LevelText,
			send: func(ctx context.Context) (string, error) {
				return s.transport.SendText(ctx, to, s.textBody(msg))
			},
		},
		attempt{
			level: domain.LevelFallback,
			send: func(ctx context.Context) (string, error) {
				return s.transport.SendText(ctx, to, s.config.FallbackText)
			},
		},
	)

	return chain
}

func (s *Sender) run(ctx context.Context, to string, a attempt) (result domain.AttemptResult) {
	result.Level = a.level

	attemptCtx, cancel := context.WithTimeout(ctx, s.config.AttemptTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		// A panicking transport counts as a failed attempt.
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		result.Duration = time.Since(start)
		s.metrics.ObserveAttempt(string(a.level), result.Success)

		if result.Success {
			s.log.Infow("delivery attempt succeeded",
				"to", to, "level", string(a.level), "message_id", result.MessageID, "duration", result.Duration)
		} else {
			s.log.Warnw("delivery attempt failed",
				"to", to, "level", string(a.level), "error", result.Error, "duration", result.Duration)
		}
	}()

	id, err := a.send(attemptCtx)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.MessageID = id
	return result
}

// textBody is the message text followed by the button hints, cut to
// MaxTextLength. The body is shortened first so the hints survive.
func (s *Sender) textBody(msg domain.OutboundMessage) string {
	max := s.config.MaxTextLength
	hints := buttonHints(msg.Buttons)
	if max <= 0 || hints == "" {
		return truncate(msg.Text+hints, max)
	}

	room := max - utf8.RuneCountInString(hints)
	if room <= len(ellipsis) {
		return truncate(msg.Text+hints, max)
	}
	return truncate(msg.Text, room) + hints
}

const ellipsis = "..."

func truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	if max <= len(ellipsis) {
		return string(runes[:max])
	}
	return string(runes[:max-len(ellipsis)]) + ellipsis
}

// buttonHints lists the button choices so a plain text reply still tells the
// user what they can type.
func buttonHints(buttons []domain.Button) string {
	if len(buttons) == 0 {
		return ""
	}
	hint := "\n\nReply with:"
	for _, b := range buttons {
		hint += "\n• " + b.Title
	}
	return hint
}
