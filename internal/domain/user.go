package domain

import "time"

type ConversationState string

const (
	StateInitial           ConversationState = "INITIAL"
	StateRegisteringName   ConversationState = "REGISTERING_NAME"
	StateRegistered        ConversationState = "REGISTERED"
	StateHomeworkType      ConversationState = "HOMEWORK_TYPE"
	StateHomeworkSubject   ConversationState = "HOMEWORK_SUBJECT"
	StateHomeworkContent   ConversationState = "HOMEWORK_CONTENT"
	StateHomeworkSubmitted ConversationState = "HOMEWORK_SUBMITTED"
	StatePaymentPending    ConversationState = "PAYMENT_PENDING"
)

// AllStates lists every state in the order they appear in the dialogue.
var AllStates = []ConversationState{
	StateInitial,
	StateRegisteringName,
	StateRegistered,
	StateHomeworkType,
	StateHomeworkSubject,
	StateHomeworkContent,
	StateHomeworkSubmitted,
	StatePaymentPending,
}

func (s ConversationState) Valid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

type HomeworkType string

const (
	HomeworkText  HomeworkType = "text"
	HomeworkImage HomeworkType = "image"
)

// User is a WhatsApp contact. Until Registered is true the row is a lead.
type User struct {
	PhoneNumber       string            `db:"phone_number" json:"phoneNumber"`
	FirstName         string            `db:"first_name" json:"firstName"`
	FullName          string            `db:"full_name" json:"fullName"`
	Registered        bool              `db:"registered" json:"registered"`
	State             ConversationState `db:"state" json:"state"`
	HomeworkType      *HomeworkType     `db:"homework_type" json:"homeworkType,omitempty"`
	HomeworkSubject   *string           `db:"homework_subject" json:"homeworkSubject,omitempty"`
	LastInteractionAt time.Time         `db:"last_interaction_at" json:"lastInteractionAt"`
	CreatedAt         time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updatedAt"`
}

// NewLead returns the record created for a phone number seen for the first time.
func NewLead(phoneNumber string, now time.Time) User {
	return User{
		PhoneNumber:       phoneNumber,
		State:             StateInitial,
		LastInteractionAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// ClearDraft drops any in-progress homework submission.
func (u *User) ClearDraft() {
	u.HomeworkType = nil
	u.HomeworkSubject = nil
}

type HomeworkSubmission struct {
	Reference   string       `db:"reference" json:"reference"`
	PhoneNumber string       `db:"phone_number" json:"phoneNumber"`
	Type        HomeworkType `db:"type" json:"type"`
	Subject     string       `db:"subject" json:"subject"`
	Content     string       `db:"content" json:"content"`
	MediaID     *string      `db:"media_id" json:"mediaId,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
}

type StateCount struct {
	State ConversationState `db:"state" json:"state"`
	Count int64             `db:"count" json:"count"`
}
