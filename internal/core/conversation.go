// Package core owns the session state machine and the response
// classification pipeline: it sequences message persistence, context
// building, model invocation and urgency escalation for every turn.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"medagent/internal/llm"
	"medagent/pkg"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a session or profile does not exist. The
// HTTP layer maps it to a 404.
var ErrNotFound = errors.New("not found")

// historyLoad is how many trailing messages are loaded per turn to build
// the model context.
const historyLoad = 10

// Store is the record-store contract consumed by the core. It is
// implemented by db.Repository; tests substitute an in-memory fake.
// Lookups return (nil, nil) when the record is absent.
type Store interface {
	CreateSession(ctx context.Context, profileRef *string) (*pkg.Session, error)
	GetSession(ctx context.Context, sessionID string) (*pkg.Session, error)
	UpsertProfile(ctx context.Context, sessionID string, upd *pkg.ProfileUpdate) (*pkg.Profile, error)
	GetProfile(ctx context.Context, sessionID string) (*pkg.Profile, error)
	SaveMessage(ctx context.Context, m *pkg.Message) (*pkg.Message, error)
	ListMessages(ctx context.Context, sessionID string, limit int) ([]pkg.Message, error)
	RecentMessages(ctx context.Context, sessionID string, n int) ([]pkg.Message, error)
	EscalateUrgency(ctx context.Context, sessionID string, level pkg.UrgencyLevel) (bool, error)
	CloseSession(ctx context.Context, sessionID string) (bool, error)
}

// Alerter receives the IDs of sessions that escalate to high urgency.
type Alerter interface {
	Notify(ctx context.Context, sessionID string) error
}

// Conversations orchestrates the chat between a user and the assistant.
// All collaborators are injected at construction time; the orchestrator
// holds no state of its own beyond per-session locks.
type Conversations struct {
	store  Store
	model  llm.Client
	alerts Alerter
	log    zerolog.Logger

	locks sync.Map // session ID -> *sync.Mutex
}

// NewConversations constructs the orchestrator. alerts may be nil when no
// escalation channel is configured.
func NewConversations(store Store, model llm.Client, alerts Alerter, log zerolog.Logger) *Conversations {
	return &Conversations{store: store, model: model, alerts: alerts, log: log}
}

// lockSession serialises turns on one session. Concurrent turns on the
// same session would otherwise race on message_count and the urgency
// level.
func (c *Conversations) lockSession(sessionID string) func() {
	v, _ := c.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateSession allocates a new active session with low urgency and no
// messages. Every call creates a distinct session.
func (c *Conversations) CreateSession(ctx context.Context, profileRef *string) (*pkg.Session, error) {
	sess, err := c.store.CreateSession(ctx, profileRef)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("session_id", sess.ID).Msg("session created")
	return sess, nil
}

// Session retrieves a session or ErrNotFound.
func (c *Conversations) Session(ctx context.Context, sessionID string) (*pkg.Session, error) {
	sess, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	return sess, nil
}

// SaveProfile upserts the profile of an existing session. Nil fields of
// the update are left untouched.
func (c *Conversations) SaveProfile(ctx context.Context, sessionID string, upd *pkg.ProfileUpdate) (*pkg.Profile, error) {
	if _, err := c.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	return c.store.UpsertProfile(ctx, sessionID, upd)
}

// Profile retrieves the profile of a session or ErrNotFound.
func (c *Conversations) Profile(ctx context.Context, sessionID string) (*pkg.Profile, error) {
	profile, err := c.store.GetProfile(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// History returns up to limit messages of a session in chronological
// order.
func (c *Conversations) History(ctx context.Context, sessionID string, limit int) ([]pkg.Message, error) {
	return c.store.ListMessages(ctx, sessionID, limit)
}

// SendTurn handles one user utterance: it persists the user message,
// builds the model context from profile and recent history, invokes the
// model, classifies the reply, persists the assistant message and
// escalates the session urgency when warranted. A model failure never
// fails the turn; the fallback reply is classified medium and persisted
// like any other assistant message.
func (c *Conversations) SendTurn(ctx context.Context, sessionID, userText string) (*pkg.TurnResponse, error) {
	unlock := c.lockSession(sessionID)
	defer unlock()

	sess, err := c.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	profile, err := c.store.GetProfile(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history, err := c.store.RecentMessages(ctx, sessionID, historyLoad)
	if err != nil {
		return nil, err
	}

	userMsg, err := c.store.SaveMessage(ctx, &pkg.Message{
		SessionID: sessionID,
		Type:      pkg.MessageUser,
		Content:   userText,
	})
	if err != nil {
		return nil, err
	}

	contextBlock := BuildContext(profile, history)

	var (
		reply     string
		level     pkg.UrgencyLevel
		questions []string
	)
	reply, err = c.model.Complete(ctx, SystemPrompt, contextBlock, userText)
	if err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("model call failed, using fallback")
		reply, level, questions = Fallback()
	} else {
		level, questions = Classify(reply, userText)
	}

	assistantMsg, err := c.store.SaveMessage(ctx, &pkg.Message{
		SessionID:     sessionID,
		Type:          pkg.MessageAssistant,
		Content:       reply,
		UrgencyLevel:  &level,
		NextQuestions: questions,
	})
	if err != nil {
		return nil, err
	}

	if level != pkg.UrgencyLow {
		escalated, err := c.store.EscalateUrgency(ctx, sessionID, level)
		if err != nil {
			return nil, err
		}
		if escalated && level == pkg.UrgencyHigh && c.alerts != nil {
			if err := c.alerts.Notify(ctx, sessionID); err != nil {
				c.log.Warn().Err(err).Str("session_id", sessionID).Msg("urgency alert failed")
			}
		}
	}

	return &pkg.TurnResponse{
		SessionID:        sessionID,
		UserMessage:      *userMsg,
		AssistantMessage: *assistantMsg,
		SessionStatus:    sess.Status,
	}, nil
}

// Welcome generates the deterministic templated greeting for a session,
// persists it as an assistant message with low urgency and the fixed
// opening questions, and returns it.
func (c *Conversations) Welcome(ctx context.Context, sessionID string) (*pkg.Message, error) {
	if _, err := c.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	profile, err := c.store.GetProfile(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	parts := []string{WelcomeIntro}
	if profile != nil && profile.PrimarySymptom != nil {
		parts = append(parts, fmt.Sprintf(WelcomeKnownSymptom, *profile.PrimarySymptom))
	} else {
		parts = append(parts, WelcomeGeneric)
	}
	parts = append(parts, WelcomeClose)

	level := pkg.UrgencyLow
	questions := make([]string, len(OpeningQuestions))
	copy(questions, OpeningQuestions)
	return c.store.SaveMessage(ctx, &pkg.Message{
		SessionID:     sessionID,
		Type:          pkg.MessageAssistant,
		Content:       strings.Join(parts, " "),
		UrgencyLevel:  &level,
		NextQuestions: questions,
	})
}

// Close transitions a session to completed and stamps its end time.
// Closing an already-completed session leaves it completed with its
// original end time.
func (c *Conversations) Close(ctx context.Context, sessionID string) error {
	ok, err := c.store.CloseSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	c.log.Info().Str("session_id", sessionID).Msg("session closed")
	return nil
}
