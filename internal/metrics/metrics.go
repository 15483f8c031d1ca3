package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters for the inbound -> reply pipeline.
type BotMetrics struct {
	inboundTotal     *prometheus.CounterVec
	intentsTotal     *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	attemptsTotal    *prometheus.CounterVec
	deliveriesTotal  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edubot",
			Subsystem: "webhook",
			Name:      "inbound_messages_total",
			Help:      "Inbound WhatsApp messages by outcome",
		}, []string{"outcome"}),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edubot",
			Subsystem: "conversation",
			Name:      "intents_total",
			Help:      "Classified intents",
		}, []string{"intent"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edubot",
			Subsystem: "conversation",
			Name:      "transitions_total",
			Help:      "Conversation state transitions",
		}, []string{"from", "to"}),
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edubot",
			Subsystem: "delivery",
			Name:      "attempts_total",
			Help:      "Send attempts per fallback level",
		}, []string{"level", "outcome"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edubot",
			Subsystem: "delivery",
			Name:      "replies_total",
			Help:      "Replies by the level that finally delivered them",
		}, []string{"level"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.intentsTotal, m.transitionsTotal, m.attemptsTotal, m.deliveriesTotal)
	return m
}

func (m *BotMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *BotMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

func (m *BotMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *BotMetrics) ObserveAttempt(level string, success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.attemptsTotal.WithLabelValues(level, outcome).Inc()
}

func (m *BotMetrics) ObserveDelivery(level string) {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues(level).Inc()
}
