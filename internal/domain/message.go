package domain

import (
	"time"
	"unicode/utf8"
)

const (
	// MaxButtons is the WhatsApp limit for reply buttons in one interactive message.
	MaxButtons = 3
	// MaxButtonTitle is the WhatsApp limit for a reply button title.
	MaxButtonTitle = 20

	DefaultPromptText = "Please choose an option below."
)

type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MainMenuButtons is the standard top-level menu.
func MainMenuButtons() []Button {
	return []Button{
		{ID: string(IntentHomework), Title: "📚 Homework"},
		{ID: string(IntentSubscribe), Title: "💳 Subscribe"},
		{ID: string(IntentHelp), Title: "❓ Help"},
	}
}

type OutboundMessage struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

func (m OutboundMessage) HasButtons() bool {
	return len(m.Buttons) > 0
}

// Normalize enforces the transport limits and guarantees the message is never
// empty: missing text gets a default prompt, a message without text and buttons
// also gets the main menu.
func (m OutboundMessage) Normalize() OutboundMessage {
	out := OutboundMessage{Text: m.Text}

	for _, b := range m.Buttons {
		if len(out.Buttons) == MaxButtons {
			break
		}
		if b.ID == "" {
			continue
		}
		title := b.Title
		if title == "" {
			title = b.ID
		}
		out.Buttons = append(out.Buttons, Button{ID: b.ID, Title: truncateRunes(title, MaxButtonTitle)})
	}

	if out.Text == "" {
		out.Text = DefaultPromptText
		if len(out.Buttons) == 0 {
			out.Buttons = MainMenuButtons()
		}
	}

	return out
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

type InboundType string

const (
	InboundText        InboundType = "text"
	InboundButtonReply InboundType = "button"
	InboundImage       InboundType = "image"
	InboundOther       InboundType = "other"
)

// InboundMessage is one user message extracted from a webhook delivery.
type InboundMessage struct {
	EventID     string
	PhoneNumber string
	ProfileName string
	Type        InboundType
	Text        string
	ButtonID    string
	MediaID     string
	ReceivedAt  time.Time
}

// RoutingText is what the intent router sees: the button id for button
// replies, otherwise the text body (or image caption).
func (m InboundMessage) RoutingText() string {
	if m.ButtonID != "" {
		return m.ButtonID
	}
	return m.Text
}
