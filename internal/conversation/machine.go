// Package conversation holds the scripted dialogue: given a user and a
// classified message it computes the next state and the reply.
package conversation

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/onurcolak/edubot-service/environments"
	"github.com/onurcolak/edubot-service/internal/domain"
	"github.com/onurcolak/edubot-service/internal/intent"
)

const (
	maxNameLength = 60
	// Matches users.homework_subject and homework_submissions.subject.
	maxSubjectLength = 100
)

// Input is one classified inbound message.
type Input struct {
	Intent  domain.Intent
	Text    string
	MediaID string
	At      time.Time
}

// Result is what a single step produces. User is a copy; the caller persists it.
type Result struct {
	User       domain.User
	Reply      domain.OutboundMessage
	Submission *domain.HomeworkSubmission
}

type Machine struct {
	cfg   environments.BotConfig
	newID func() string
}

func NewMachine(cfg environments.BotConfig) *Machine {
	return &Machine{
		cfg:   cfg,
		newID: func() string { return uuid.NewString() },
	}
}

// Step computes the transition for (user.State, in). It has no side effects.
func (m *Machine) Step(user domain.User, in Input) Result {
	if in.At.IsZero() {
		in.At = time.Now()
	}
	user.LastInteractionAt = in.At
	user.UpdatedAt = in.At

	var res Result
	switch {
	case user.Registered && in.Intent == domain.IntentMainMenu:
		// Checked before any state handler so "main menu" is never read as
		// a name, a subject or homework content.
		res = m.welcomeBack(user)
	case !user.Registered:
		res = m.stepUnregistered(user, in)
	default:
		res = m.stepRegistered(user, in)
	}

	res.Reply = res.Reply.Normalize()
	return res
}

func (m *Machine) stepUnregistered(user domain.User, in Input) Result {
	if user.State != domain.StateRegisteringName {
		// INITIAL, or anything a lead should not be in.
		user.State = domain.StateRegisteringName
		return Result{User: user, Reply: domain.OutboundMessage{
			Text: fmt.Sprintf("👋 Welcome to %s! Let's get you registered.\n\nPlease reply with your full name.", m.cfg.Name),
		}}
	}

	// Only a bare keyword is refused; names like "Othello" contain one.
	switch intent.Exact(in.Text) {
	case domain.IntentMainMenu, domain.IntentHelp, domain.IntentGreeting:
		return Result{User: user, Reply: domain.OutboundMessage{
			Text: "Before we continue, please reply with your full name.",
		}}
	}

	name, ok := parseName(in.Text)
	if !ok {
		return Result{User: user, Reply: domain.OutboundMessage{
			Text: "Please reply with your full name (for example: Ada Okafor).",
		}}
	}

	user.FullName = name
	user.FirstName = strings.Fields(name)[0]
	user.Registered = true
	user.State = domain.StateRegistered
	user.ClearDraft()

	return Result{User: user, Reply: domain.OutboundMessage{
		Text:    fmt.Sprintf("Thanks, %s! 🎉 You're now registered with %s.\n\nWhat would you like to do?", user.FirstName, m.cfg.Name),
		Buttons: domain.MainMenuButtons(),
	}}
}

func (m *Machine) stepRegistered(user domain.User, in Input) Result {
	switch user.State {
	case domain.StateRegistered, domain.StateHomeworkSubmitted, domain.StatePaymentPending:
		return m.stepIdle(user, in)
	case domain.StateHomeworkType:
		return m.stepHomeworkType(user, in)
	case domain.StateHomeworkSubject:
		return m.stepHomeworkSubject(user, in)
	case domain.StateHomeworkContent:
		return m.stepHomeworkContent(user, in)
	default:
		// Registered users have no business in INITIAL/REGISTERING_NAME, and an
		// unknown stored value is treated the same way.
		user.State = domain.StateRegistered
		user.ClearDraft()
		return Result{User: user, Reply: domain.OutboundMessage{
			Text:    fmt.Sprintf("Hi %s, let's start again from the main menu.", displayName(user)),
			Buttons: domain.MainMenuButtons(),
		}}
	}
}

func (m *Machine) stepIdle(user domain.User, in Input) Result {
	switch in.Intent {
	case domain.IntentHomework:
		user.State = domain.StateHomeworkType
		user.ClearDraft()
		return Result{User: user, Reply: homeworkTypePrompt("How would you like to submit your homework?")}

	case domain.IntentHomeworkText, domain.IntentHomeworkImage:
		return m.chooseHomeworkType(user, in.Intent)

	case domain.IntentSubscribe:
		user.State = domain.StatePaymentPending
		user.ClearDraft()
		return Result{User: user, Reply: m.paymentReply()}

	case domain.IntentHelp:
		user.State = domain.StateRegistered
		user.ClearDraft()
		return Result{User: user, Reply: domain.OutboundMessage{
			Text:    m.faqText(),
			Buttons: domain.MainMenuButtons(),
		}}

	case domain.IntentGreeting, domain.IntentMainMenu:
		return m.welcomeBack(user)

	default:
		user.State = domain.StateRegistered
		user.ClearDraft()
		return Result{User: user, Reply: domain.OutboundMessage{
			Text:    "Sorry, I didn't understand that. Please pick an option below.",
			Buttons: domain.MainMenuButtons(),
		}}
	}
}

func (m *Machine) stepHomeworkType(user domain.User, in Input) Result {
	switch in.Intent {
	case domain.IntentHomeworkText, domain.IntentHomeworkImage:
		return m.chooseHomeworkType(user, in.Intent)
	}

	// Plain answers typed after a text-only fallback prompt.
	switch strings.ToLower(strings.TrimSpace(in.Text)) {
	case "text", "typed", "type":
		return m.chooseHomeworkType(user, domain.IntentHomeworkText)
	case "image", "photo", "picture":
		return m.chooseHomeworkType(user, domain.IntentHomeworkImage)
	}

	return Result{User: user, Reply: homeworkTypePrompt("Please choose how you'd like to submit: text or image.")}
}

func (m *Machine) chooseHomeworkType(user domain.User, it domain.Intent) Result {
	hwType := domain.HomeworkText
	if it == domain.IntentHomeworkImage {
		hwType = domain.HomeworkImage
	}

	user.ClearDraft()
	user.HomeworkType = &hwType
	user.State = domain.StateHomeworkSubject

	return Result{User: user, Reply: domain.OutboundMessage{
		Text:    "Which subject is this for? (e.g. Mathematics, English, Biology)",
		Buttons: []domain.Button{mainMenuButton()},
	}}
}

func (m *Machine) stepHomeworkSubject(user domain.User, in Input) Result {
	subject := strings.Join(strings.Fields(in.Text), " ")
	if subject == "" {
		return Result{User: user, Reply: domain.OutboundMessage{
			Text:    "Please type the subject name.",
			Buttons: []domain.Button{mainMenuButton()},
		}}
	}
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		return Result{User: user, Reply: domain.OutboundMessage{
			Text:    fmt.Sprintf("That subject is too long. Please use at most %d characters (e.g. Mathematics).", maxSubjectLength),
			Buttons: []domain.Button{mainMenuButton()},
		}}
	}

	user.HomeworkSubject = &subject
	user.State = domain.StateHomeworkContent

	prompt := "Great! Now type your homework question."
	if user.HomeworkType != nil && *user.HomeworkType == domain.HomeworkImage {
		prompt = "Great! Now send a clear photo of your homework."
	}

	return Result{User: user, Reply: domain.OutboundMessage{
		Text:    prompt,
		Buttons: []domain.Button{mainMenuButton()},
	}}
}

func (m *Machine) stepHomeworkContent(user domain.User, in Input) Result {
	hwType := domain.HomeworkText
	if user.HomeworkType != nil {
		hwType = *user.HomeworkType
	}

	content := strings.TrimSpace(in.Text)
	switch {
	case hwType == domain.HomeworkImage && in.MediaID == "":
		return Result{User: user, Reply: domain.OutboundMessage{
			Text:    "I was expecting an image. Please send a photo of your homework.",
			Buttons: []domain.Button{mainMenuButton()},
		}}
	case hwType == domain.HomeworkText && content == "":
		return Result{User: user, Reply: domain.OutboundMessage{
			Text:    "Please type your homework question.",
			Buttons: []domain.Button{mainMenuButton()},
		}}
	}

	subject := ""
	if user.HomeworkSubject != nil {
		subject = *user.HomeworkSubject
	}

	sub := &domain.HomeworkSubmission{
		Reference:   m.newID(),
		PhoneNumber: user.PhoneNumber,
		Type:        hwType,
		Subject:     subject,
		Content:     content,
		CreatedAt:   in.At,
	}
	if in.MediaID != "" {
		mediaID := in.MediaID
		sub.MediaID = &mediaID
	}

	user.ClearDraft()
	user.State = domain.StateHomeworkSubmitted

	return Result{
		User:       user,
		Submission: sub,
		Reply: domain.OutboundMessage{
			Text: fmt.Sprintf("✅ Homework received! Reference: %s\n\nA tutor will get back to you soon.",
				ShortReference(sub.Reference)),
			Buttons: []domain.Button{
				{ID: string(domain.IntentHomework), Title: "📚 Submit another"},
				mainMenuButton(),
			},
		},
	}
}

func (m *Machine) welcomeBack(user domain.User) Result {
	user.State = domain.StateRegistered
	user.ClearDraft()

	return Result{User: user, Reply: domain.OutboundMessage{
		Text:    fmt.Sprintf("Welcome back, %s! 👋 What would you like to do?", displayName(user)),
		Buttons: domain.MainMenuButtons(),
	}}
}

func (m *Machine) paymentReply() domain.OutboundMessage {
	text := fmt.Sprintf("💳 Subscribe to %s Premium for unlimited homework help.", m.cfg.Name)
	if m.cfg.PaymentURL != "" {
		text += "\n\nComplete your payment here: " + m.cfg.PaymentURL
	} else {
		text += "\n\nOur team will send you a payment link shortly."
	}

	return domain.OutboundMessage{
		Text:    text,
		Buttons: []domain.Button{mainMenuButton()},
	}
}

func (m *Machine) faqText() string {
	var b strings.Builder
	b.WriteString("❓ *Help*\n\n")
	b.WriteString("• Tap *Homework* to send a question as text or a photo.\n")
	b.WriteString("• Tap *Subscribe* to get premium access.\n")
	b.WriteString("• Type *menu* at any time to come back here.")
	if m.cfg.SupportContact != "" {
		b.WriteString("\n\nNeed a human? Contact " + m.cfg.SupportContact)
	}
	return b.String()
}

func homeworkTypePrompt(text string) domain.OutboundMessage {
	return domain.OutboundMessage{
		Text: text,
		Buttons: []domain.Button{
			{ID: string(domain.IntentHomeworkText), Title: "✍️ Text"},
			{ID: string(domain.IntentHomeworkImage), Title: "📷 Image"},
			mainMenuButton(),
		},
	}
}

func mainMenuButton() domain.Button {
	return domain.Button{ID: string(domain.IntentMainMenu), Title: "🏠 Main menu"}
}

func displayName(user domain.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	return "there"
}

// parseName accepts up to maxNameLength characters of letters, spaces and
// name punctuation, with at least two letters.
func parseName(text string) (string, bool) {
	name := strings.Join(strings.Fields(text), " ")
	if name == "" || len([]rune(name)) > maxNameLength {
		return "", false
	}

	letters := 0
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ', r == '-', r == '\'', r == '.':
		default:
			return "", false
		}
	}
	if letters < 2 {
		return "", false
	}

	return name, true
}

// ShortReference is the part of a submission reference shown to students.
func ShortReference(ref string) string {
	ref = strings.ToUpper(strings.ReplaceAll(ref, "-", ""))
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}
