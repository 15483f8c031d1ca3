// Package intent maps free text and button ids to a domain.Intent.
package intent

import (
	"strings"

	"github.com/onurcolak/edubot-service/internal/domain"
)

type rule struct {
	intent   domain.Intent
	keywords []string
}

// rules is evaluated top to bottom and the first hit wins. main_menu must stay
// first so a user can leave any flow. The homework type ids come before
// "homework" because they contain it.
var rules = []rule{
	{domain.IntentMainMenu, []string{"main_menu", "main menu", "menu", "start over", "go back"}},
	{domain.IntentHomeworkText, []string{"homework_text", "text homework", "type it"}},
	{domain.IntentHomeworkImage, []string{"homework_image", "image homework", "send an image"}},
	{domain.IntentSubscribe, []string{"subscribe", "subscription", "payment", "pay", "premium", "upgrade"}},
	{domain.IntentHomework, []string{"homework", "assignment", "submit"}},
	{domain.IntentHelp, []string{"help", "faq", "support", "how does"}},
	{domain.IntentGreeting, []string{"hello", "hi there", "good morning", "good afternoon", "good evening"}},
}

// Classify returns the intent of text. It depends only on text, never on the
// conversation state. Input that matches nothing yields IntentUnknown.
func Classify(text string) domain.Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return domain.IntentUnknown
	}

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(normalized, kw) {
				return r.intent
			}
		}
	}

	return domain.IntentUnknown
}

// Exact is Classify without substring matching: text must be one of the
// keywords (or a button id) and nothing else.
func Exact(text string) domain.Intent {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if normalized == "" {
		return domain.IntentUnknown
	}

	for _, r := range rules {
		if normalized == string(r.intent) {
			return r.intent
		}
		for _, kw := range r.keywords {
			if normalized == kw {
				return r.intent
			}
		}
	}

	return domain.IntentUnknown
}

// Router is the injectable form of Classify.
type Router struct{}

func NewRouter() *Router { return &Router{} }

func (Router) Classify(text string) domain.Intent { return Classify(text) }
