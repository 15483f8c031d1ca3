package middlewares

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/edubot-service/pkg/response"
	"github.com/onurcolak/edubot-service/pkg/whatsapp"
)

const (
	APIKeyHeader = "x-api-key"

	// Larger webhook bodies are rejected unread.
	maxWebhookBody = 1 << 20
)

// secureCompare compares two strings in a way that is safer against timing attacks.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func APIKeyAuth(apiKey string) echo.MiddlewareFunc {
	// If the API key is not configured, treat this as a server-side misconfiguration.
	if apiKey == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return response.InternalServerError(
					c,
					fmt.Errorf("API key is not configured for this endpoint group"),
				)
			}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(APIKeyHeader)
			if token == "" || !secureCompare(token, apiKey) {
				return response.Unauthorized(c)
			}

			return next(c)
		}
	}
}

// WebhookSignature checks X-Hub-Signature-256 against the raw body. With an
// empty appSecret every request passes. The body is restored for the handler.
func WebhookSignature(appSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if appSecret == "" {
				return next(c)
			}

			req := c.Request()
			body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBody))
			if err != nil {
				return response.BadRequest(c, fmt.Errorf("failed to read webhook body: %w", err))
			}
			_ = req.Body.Close()

			if !whatsapp.VerifySignature(appSecret, body, req.Header.Get(whatsapp.SignatureHeader)) {
				return response.InvalidSignature(c)
			}

			req.Body = io.NopCloser(bytes.NewReader(body))
			return next(c)
		}
	}
}
