package pkg

import "time"

// UrgencyLevel is the triage severity attached to assistant messages and to
// the session as a whole. Levels are ordered: low < medium < high.
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

// Rank returns the numeric severity of the level. Unknown levels rank
// below low so they can never win an escalation.
func (u UrgencyLevel) Rank() int {
	switch u {
	case UrgencyLow:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyHigh:
		return 2
	}
	return -1
}

// SessionStatus describes where a session is in its lifecycle.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// MessageType describes who authored a message.
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
)

// Session represents one intake conversation. Sessions start active with
// low urgency and are closed explicitly; current_urgency_level only ever
// moves upward in severity.
type Session struct {
	ID             string        `json:"session_id"`
	UserProfileID  *string       `json:"user_profile_id,omitempty"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        *time.Time    `json:"end_time,omitempty"`
	MessageCount   int           `json:"message_count"`
	CurrentUrgency UrgencyLevel  `json:"current_urgency_level"`
	Status         SessionStatus `json:"status"`
	ContextSummary *string       `json:"context_summary,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Profile holds the structured intake data for a session. At most one
// profile exists per session; repeated submissions upsert non-nil fields
// and leave the rest untouched.
type Profile struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	Age                *string   `json:"age,omitempty"`
	Gender             *string   `json:"gender,omitempty"`
	PrimarySymptom     *string   `json:"primary_symptom,omitempty"`
	Duration           *string   `json:"duration,omitempty"`
	Intensity          []int64   `json:"intensity,omitempty"`
	AssociatedSymptoms []string  `json:"associated_symptoms,omitempty"`
	KnownConditions    []string  `json:"known_conditions,omitempty"`
	FamilyHistory      *string   `json:"family_history,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProfileUpdate carries a partial profile submission. Nil fields are left
// untouched on upsert.
type ProfileUpdate struct {
	Age                *string  `json:"age"`
	Gender             *string  `json:"gender"`
	PrimarySymptom     *string  `json:"primary_symptom"`
	Duration           *string  `json:"duration"`
	Intensity          []int64  `json:"intensity"`
	AssociatedSymptoms []string `json:"associated_symptoms"`
	KnownConditions    []string `json:"known_conditions"`
	FamilyHistory      *string  `json:"family_history"`
}

// Message is one entry in a session's append-only conversation log.
// UrgencyLevel and NextQuestions are set only on assistant messages.
type Message struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	Type          MessageType    `json:"message_type"`
	Content       string         `json:"content"`
	UrgencyLevel  *UrgencyLevel  `json:"urgency_level,omitempty"`
	NextQuestions []string       `json:"next_questions"`
	Metadata      map[string]any `json:"metadata"`
	Timestamp     time.Time      `json:"timestamp"`
}

// TurnRequest is the payload for sending one user utterance.
type TurnRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// TurnResponse returns both persisted messages of a turn plus the session
// status at the time the turn was handled.
type TurnResponse struct {
	SessionID        string        `json:"session_id"`
	UserMessage      Message       `json:"user_message"`
	AssistantMessage Message       `json:"assistant_message"`
	SessionStatus    SessionStatus `json:"session_status"`
}

// SessionSummary is the read-only aggregate served to the results page.
type SessionSummary struct {
	SessionID         string       `json:"session_id"`
	StartTime         time.Time    `json:"start_time"`
	EndTime           time.Time    `json:"end_time"`
	MessageCount      int          `json:"message_count"`
	Profile           *Profile     `json:"user_profile,omitempty"`
	SymptomsMentioned []string     `json:"symptoms_mentioned"`
	MaxUrgency        UrgencyLevel `json:"max_urgency_level"`
	UserMessageCount  int          `json:"conversation_length"`
	LastMessageAt     time.Time    `json:"last_message_time"`
}
