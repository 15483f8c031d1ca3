package whatsapp

import (
	"encoding/json"
	"testing"

	"github.com/onurcolak/edubot-service/internal/domain"
)

const samplePayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA1",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550001111", "phone_number_id": "1055"},
        "contacts": [{"profile": {"name": "Ada"}, "wa_id": "2348012345678"}],
        "messages": [
          {"from": "2348012345678", "id": "wamid.A", "timestamp": "1710408600", "type": "text", "text": {"body": "hello"}},
          {"from": "2348012345678", "id": "wamid.B", "timestamp": "1710408601", "type": "interactive",
           "interactive": {"type": "button_reply", "button_reply": {"id": "main_menu", "title": "Main menu"}}},
          {"from": "2348012345678", "id": "wamid.C", "timestamp": "1710408602", "type": "image",
           "image": {"id": "media-1", "mime_type": "image/jpeg", "caption": "question 3"}}
        ]
      }
    }]
  }]
}`

func TestInboundMessages_ParsesAllTypes(t *testing.T) {
	var p WebhookPayload
	if err := json.Unmarshal([]byte(samplePayload), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	msgs := p.InboundMessages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	if msgs[0].Type != domain.InboundText || msgs[0].Text != "hello" || msgs[0].ProfileName != "Ada" {
		t.Errorf("unexpected text message %+v", msgs[0])
	}
	if msgs[0].ReceivedAt.Unix() != 1710408600 {
		t.Errorf("unexpected timestamp %v", msgs[0].ReceivedAt)
	}

	if msgs[1].Type != domain.InboundButtonReply || msgs[1].ButtonID != "main_menu" {
		t.Errorf("unexpected button message %+v", msgs[1])
	}
	if msgs[1].RoutingText() != "main_menu" {
		t.Errorf("expected routing text to be the button id, got %q", msgs[1].RoutingText())
	}

	if msgs[2].Type != domain.InboundImage || msgs[2].MediaID != "media-1" || msgs[2].Text != "question 3" {
		t.Errorf("unexpected image message %+v", msgs[2])
	}
}

func TestInboundMessages_StatusOnlyPayloadIsEmpty(t *testing.T) {
	raw := `{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages","value":{"statuses":[{"id":"wamid.X","status":"delivered"}]}}]}]}`

	var p WebhookPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if msgs := p.InboundMessages(); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"object":"whatsapp_business_account"}`)
	header := Sign("app-secret", body)

	if !VerifySignature("app-secret", body, header) {
		t.Fatalf("expected signature to verify")
	}
	if VerifySignature("other-secret", body, header) {
		t.Fatalf("expected signature with wrong secret to fail")
	}
	if VerifySignature("app-secret", body, "") {
		t.Fatalf("expected empty header to fail")
	}
	if VerifySignature("app-secret", body, "sha256=zz") {
		t.Fatalf("expected malformed hex to fail")
	}
}
