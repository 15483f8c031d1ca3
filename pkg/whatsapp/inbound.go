package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/onurcolak/edubot-service/internal/domain"
)

const SignatureHeader = "X-Hub-Signature-256"

// InboundMessages flattens every user message in the payload. Status
// callbacks are ignored.
func (p WebhookPayload) InboundMessages() []domain.InboundMessage {
	var out []domain.InboundMessage

	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" && change.Field != "messages" {
				continue
			}

			names := make(map[string]string, len(change.Value.Contacts))
			for _, c := range change.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}

			for _, msg := range change.Value.Messages {
				if msg.From == "" {
					continue
				}
				out = append(out, toInbound(msg, names[msg.From]))
			}
		}
	}

	return out
}

func toInbound(msg Message, profileName string) domain.InboundMessage {
	in := domain.InboundMessage{
		EventID:     msg.ID,
		PhoneNumber: msg.From,
		ProfileName: profileName,
		Type:        domain.InboundOther,
		ReceivedAt:  parseUnix(msg.Timestamp),
	}

	switch msg.Type {
	case "text":
		in.Type = domain.InboundText
		if msg.Text != nil {
			in.Text = msg.Text.Body
		}
	case "interactive":
		in.Type = domain.InboundButtonReply
		if msg.Interactive != nil {
			if r := msg.Interactive.ButtonReply; r != nil {
				in.ButtonID, in.Text = r.ID, r.Title
			} else if r := msg.Interactive.ListReply; r != nil {
				in.ButtonID, in.Text = r.ID, r.Title
			}
		}
	case "button":
		in.Type = domain.InboundButtonReply
		if msg.Button != nil {
			in.ButtonID, in.Text = msg.Button.Payload, msg.Button.Text
		}
	case "image":
		in.Type = domain.InboundImage
		if msg.Image != nil {
			in.MediaID, in.Text = msg.Image.ID, msg.Image.Caption
		}
	case "document":
		in.Type = domain.InboundImage
		if msg.Document != nil {
			in.MediaID, in.Text = msg.Document.ID, msg.Document.Caption
		}
	}

	return in
}

func parseUnix(ts string) time.Time {
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || secs <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}

// VerifySignature checks header ("sha256=<hex>") against an HMAC-SHA256 of body.
func VerifySignature(appSecret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok || sig == "" {
		return false
	}

	expected, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)

	return hmac.Equal(mac.Sum(nil), expected)
}

// Sign returns the header value Meta would send for body.
func Sign(appSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
