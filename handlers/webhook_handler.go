package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/edubot-service/internal/domain"
	"github.com/onurcolak/edubot-service/pkg/logger"
	"github.com/onurcolak/edubot-service/pkg/response"
	"github.com/onurcolak/edubot-service/pkg/whatsapp"
)

// inboundProcessor matches BotService.HandleInbound.
type inboundProcessor interface {
	HandleInbound(ctx context.Context, in domain.InboundMessage) (*domain.DeliveryReport, error)
}

type WebhookHandler struct {
	bot         inboundProcessor
	verifyToken string
}

func NewWebhookHandler(bot inboundProcessor, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		bot:         bot,
		verifyToken: verifyToken,
	}
}

// Verify godoc
// @Summary Webhook verification
// @Description Meta subscription handshake; echoes hub.challenge when the verify token matches
// @Tags webhook
// @Produce plain
// @Param hub.mode query string true "Always 'subscribe'"
// @Param hub.verify_token query string true "Verify token configured in the Meta app"
// @Param hub.challenge query string true "Challenge to echo back"
// @Success 200 {string} string
// @Failure 403 {object} response.ErrorResponse
// @Router /webhook [get]
func (h *WebhookHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		logger.Warnf("Webhook verification rejected (mode=%q)", mode)
		return response.Forbidden(c, "Verification failed")
	}

	logger.Infof("Webhook verified")
	return response.Challenge(c, challenge)
}

// Receive godoc
// @Summary Receive WhatsApp messages
// @Description Handles a WhatsApp Cloud API change notification. Always acknowledged with 200 unless conversation state could not be saved, in which case 500 asks the platform to retry.
// @Tags webhook
// @Accept json
// @Produce json
// @Param X-Hub-Signature-256 header string false "HMAC-SHA256 of the body, required when an app secret is configured"
// @Param payload body whatsapp.WebhookPayload true "Change notification"
// @Success 200 {object} response.AckResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /webhook [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	var payload whatsapp.WebhookPayload
	if err := c.Bind(&payload); err != nil {
		// Retrying a payload we cannot parse would never succeed.
		logger.Warnf("Ignoring malformed webhook payload: %v", err)
		return response.Ack(c)
	}

	messages := payload.InboundMessages()
	if len(messages) == 0 {
		logger.Debugf("Webhook payload carried no messages (object=%q)", payload.Object)
		return response.Ack(c)
	}

	ctx := c.Request().Context()
	failed := 0
	var lastErr error

	for _, msg := range messages {
		report, err := h.bot.HandleInbound(ctx, msg)
		if err != nil {
			failed++
			lastErr = err
			logger.Errorf("Failed to handle message %s from %s: %v", msg.EventID, msg.PhoneNumber, err)
			continue
		}

		if report != nil && !report.Delivered() {
			logger.Warnf("Reply to %s was not delivered: %s", msg.PhoneNumber, report.FailureReasons())
		}
	}

	if failed > 0 {
		return response.InternalServerError(c, fmt.Errorf("failed to handle %d of %d messages: %w", failed, len(messages), lastErr))
	}

	return response.Ack(c)
}
