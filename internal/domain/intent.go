package domain

// Intent is the symbolic label the router assigns to an inbound message.
// Button reply ids use the same strings.
type Intent string

const (
	IntentMainMenu      Intent = "main_menu"
	IntentHomeworkText  Intent = "homework_text"
	IntentHomeworkImage Intent = "homework_image"
	IntentSubscribe     Intent = "subscribe"
	IntentHomework      Intent = "homework"
	IntentHelp          Intent = "help"
	IntentGreeting      Intent = "greeting"
	IntentUnknown       Intent = "unknown"
)
