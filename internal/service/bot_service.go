package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onurcolak/edubot-service/internal/conversation"
	"github.com/onurcolak/edubot-service/internal/domain"
	"github.com/onurcolak/edubot-service/internal/metrics"
	"github.com/onurcolak/edubot-service/pkg/logger"
)

// Small internal interfaces so we can test without touching real DB/Redis/WhatsApp.
type userRepository interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
	SaveTransition(ctx context.Context, user domain.User, submission *domain.HomeworkSubmission) error

	List(ctx context.Context, state *domain.ConversationState, page, pageSize int) ([]domain.User, int64, error)
	CountByState(ctx context.Context) ([]domain.StateCount, error)
	ListHomework(ctx context.Context, phoneNumber string, limit int) ([]domain.HomeworkSubmission, error)
}

type deliveryRepository interface {
	Create(ctx context.Context, d *domain.Delivery) error
	List(ctx context.Context, failedOnly bool, page, pageSize int) ([]domain.Delivery, int64, error)
	Stats(ctx context.Context, since time.Time) (domain.DeliveryStats, error)
}

type classifier interface {
	Classify(text string) domain.Intent
}

type sender interface {
	Deliver(ctx context.Context, to string, msg domain.OutboundMessage) domain.DeliveryReport
}

type locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// EventStore deduplicates platform redeliveries. It is optional; pass nil to
// process every delivery.
type EventStore interface {
	ClaimEvent(ctx context.Context, eventID string) (bool, error)
	ReleaseEvent(ctx context.Context, eventID string) error
}

const (
	recentHomeworkLimit = 10
	recordTimeout       = 5 * time.Second
)

type BotService struct {
	users      userRepository
	deliveries deliveryRepository
	router     classifier
	machine    *conversation.Machine
	sender     sender
	locker     locker
	events     EventStore
	metrics    *metrics.BotMetrics
	log        *zap.SugaredLogger
	now        func() time.Time
}

func NewBotService(
	users userRepository,
	deliveries deliveryRepository,
	router classifier,
	machine *conversation.Machine,
	sender sender,
	locker locker,
	events EventStore,
	m *metrics.BotMetrics,
) *BotService {
	return &BotService{
		users:      users,
		deliveries: deliveries,
		router:     router,
		machine:    machine,
		sender:     sender,
		locker:     locker,
		events:     events,
		metrics:    m,
		log:        logger.L(),
		now:        time.Now,
	}
}

func (s *BotService) WithLogger(l *zap.SugaredLogger) *BotService {
	s.log = l
	return s
}

// HandleInbound runs one inbound message through the bot. It returns an error
// only when the new state could not be persisted; delivery problems are
// reported in the DeliveryReport. A redelivered event returns (nil, nil).
func (s *BotService) HandleInbound(ctx context.Context, in domain.InboundMessage) (*domain.DeliveryReport, error) {
	if in.PhoneNumber == "" {
		return nil, fmt.Errorf("inbound message has no sender")
	}

	claimed, err := s.claim(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.log.Infow("duplicate inbound event ignored", "eventId", in.EventID, "from", in.PhoneNumber)
		s.metrics.ObserveInbound("duplicate")
		return nil, nil
	}

	unlock, err := s.locker.Lock(ctx, in.PhoneNumber)
	if err != nil {
		s.release(in.EventID)
		return nil, fmt.Errorf("failed to lock conversation for %s: %w", in.PhoneNumber, err)
	}
	defer unlock()

	now := in.ReceivedAt
	if now.IsZero() {
		now = s.now()
	}

	user, err := s.users.GetByPhone(ctx, in.PhoneNumber)
	if err != nil {
		s.release(in.EventID)
		s.metrics.ObserveInbound("error")
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		lead := domain.NewLead(in.PhoneNumber, now)
		user = &lead
	}

	intent := s.router.Classify(in.RoutingText())
	s.metrics.ObserveIntent(string(intent))

	result := s.machine.Step(*user, conversation.Input{
		Intent:  intent,
		Text:    in.Text,
		MediaID: in.MediaID,
		At:      now,
	})

	if err := s.users.SaveTransition(ctx, result.User, result.Submission); err != nil {
		s.log.Errorw("failed to persist conversation state",
			"from", in.PhoneNumber,
			"eventId", in.EventID,
			"state", string(result.User.State),
			"error", err.Error(),
		)
		s.release(in.EventID)
		s.metrics.ObserveInbound("error")
		return nil, fmt.Errorf("failed to save conversation state: %w", err)
	}

	s.metrics.ObserveTransition(string(user.State), string(result.User.State))
	s.log.Infow("conversation step",
		"from", in.PhoneNumber,
		"intent", string(intent),
		"prevState", string(user.State),
		"state", string(result.User.State),
	)

	report := s.sender.Deliver(ctx, in.PhoneNumber, result.Reply)
	s.record(ctx, in, report)
	s.metrics.ObserveInbound("processed")

	return &report, nil
}

func (s *BotService) claim(ctx context.Context, eventID string) (bool, error) {
	if s.events == nil || eventID == "" {
		return true, nil
	}

	claimed, err := s.events.ClaimEvent(ctx, eventID)
	if err != nil {
		// Dedupe is best effort; the message is still processed.
		s.log.Warnw("event dedupe unavailable", "eventId", eventID, "error", err.Error())
		return true, nil
	}

	return claimed, nil
}

func (s *BotService) release(eventID string) {
	if s.events == nil || eventID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.events.ReleaseEvent(ctx, eventID); err != nil {
		s.log.Warnw("failed to release event claim", "eventId", eventID, "error", err.Error())
	}
}

func (s *BotService) record(ctx context.Context, in domain.InboundMessage, report domain.DeliveryReport) {
	d := &domain.Delivery{
		Reference:      uuid.NewString(),
		PhoneNumber:    in.PhoneNumber,
		InboundEventID: in.EventID,
		Level:          report.Level,
		CreatedAt:      s.now(),
	}
	if report.MessageID != "" {
		messageID := report.MessageID
		d.MessageID = &messageID
	}
	if reasons := report.FailureReasons(); reasons != "" {
		d.Failures = &reasons
	}

	// The webhook caller may already be gone after the send attempts.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.deliveries.Create(recordCtx, d); err != nil {
		s.log.Errorw("failed to record delivery",
			"to", in.PhoneNumber,
			"level", string(report.Level),
			"error", err.Error(),
		)
	}
}

func (s *BotService) ListUsers(
	ctx context.Context,
	state *domain.ConversationState,
	page,
	pageSize int,
) ([]domain.User, int64, error) {
	return s.users.List(ctx, state, page, pageSize)
}

// GetUser returns the user with their most recent homework, or nil if unknown.
func (s *BotService) GetUser(ctx context.Context, phoneNumber string) (*domain.User, []domain.HomeworkSubmission, error) {
	user, err := s.users.GetByPhone(ctx, phoneNumber)
	if err != nil || user == nil {
		return nil, nil, err
	}

	homework, err := s.users.ListHomework(ctx, phoneNumber, recentHomeworkLimit)
	if err != nil {
		return nil, nil, err
	}

	return user, homework, nil
}

func (s *BotService) GetUserStats(ctx context.Context) ([]domain.StateCount, error) {
	return s.users.CountByState(ctx)
}

func (s *BotService) ListDeliveries(ctx context.Context, failedOnly bool, page, pageSize int) ([]domain.Delivery, int64, error) {
	return s.deliveries.List(ctx, failedOnly, page, pageSize)
}

func (s *BotService) GetDeliveryStats(ctx context.Context, since time.Time) (domain.DeliveryStats, error) {
	return s.deliveries.Stats(ctx, since)
}
