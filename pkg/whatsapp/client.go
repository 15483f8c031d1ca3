package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/internal/domain"
	"github.com/onurcolak/edubot-service/pkg/logger"
)

// Client talks to the WhatsApp Cloud API messages endpoint.
type Client struct {
	httpClient  *resty.Client
	messagesURL string
}

func NewClient(cfg environments.WhatsAppConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient:  client,
		messagesURL: fmt.Sprintf("%s/%s/%s/messages", cfg.APIBaseURL, cfg.APIVersion, cfg.PhoneNumberID),
	}
}

// SendText sends a plain text message and returns the provider message id.
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	payload := SendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &TextBody{Body: body},
	}

	return c.send(ctx, payload)
}

// SendInteractive sends body with quick-reply buttons.
func (c *Client) SendInteractive(ctx context.Context, to, body string, buttons []domain.Button) (string, error) {
	if len(buttons) == 0 {
		return "", fmt.Errorf("interactive message requires at least one button")
	}
	if len(buttons) > domain.MaxButtons {
		return "", fmt.Errorf("interactive message allows at most %d buttons, got %d", domain.MaxButtons, len(buttons))
	}

	replyButtons := make([]ReplyButton, 0, len(buttons))
	for _, b := range buttons {
		replyButtons = append(replyButtons, ReplyButton{
			Type:  "reply",
			Reply: ButtonReply{ID: b.ID, Title: b.Title},
		})
	}

	payload := SendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive: &Interactive{
			Type:   "button",
			Body:   TextBody{Text: body},
			Action: Action{Buttons: replyButtons},
		},
	}

	return c.send(ctx, payload)
}

func (c *Client) send(ctx context.Context, payload SendRequest) (string, error) {
	var result SendResponse
	var apiErr ErrorResponse

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		SetError(&apiErr).
		Post(c.messagesURL)

	duration := time.Since(startTime)

	if err != nil {
		return "", fmt.Errorf("failed to send %s message: %w", payload.Type, err)
	}

	logger.Debugf("WhatsApp %s message to %s completed in %v (status: %d)", payload.Type, payload.To, duration, resp.StatusCode())

	if resp.StatusCode() != http.StatusOK {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("whatsapp api error %d (code %d): %s", resp.StatusCode(), apiErr.Error.Code, apiErr.Error.Message)
		}
		return "", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), resp.String())
	}

	if len(result.Messages) == 0 || result.Messages[0].ID == "" {
		return "", fmt.Errorf("whatsapp api returned no message id")
	}

	return result.Messages[0].ID, nil
}

func (c *Client) MessagesURL() string {
	return c.messagesURL
}
