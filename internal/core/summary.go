package core

import (
	"context"
	"time"

	"medagent/pkg"
)

// summaryHistoryCap bounds how many messages the summary aggregates.
const summaryHistoryCap = 500

// Summaries builds read-only session reports. Building a summary has no
// side effects on the session.
type Summaries struct {
	store Store
}

// NewSummaries constructs a summary builder over the given store.
func NewSummaries(store Store) *Summaries {
	return &Summaries{store: store}
}

// Build aggregates a session's messages and profile into a report: the
// highest urgency recorded on assistant messages, the distinct symptoms
// mentioned in the profile, and basic conversation counts. Returns
// ErrNotFound when the session does not exist.
func (s *Summaries) Build(ctx context.Context, sessionID string) (*pkg.SessionSummary, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}

	profile, err := s.store.GetProfile(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, sessionID, summaryHistoryCap)
	if err != nil {
		return nil, err
	}

	userCount := 0
	maxUrgency := pkg.UrgencyLow
	for _, m := range msgs {
		if m.Type == pkg.MessageUser {
			userCount++
			continue
		}
		if m.UrgencyLevel != nil && m.UrgencyLevel.Rank() > maxUrgency.Rank() {
			maxUrgency = *m.UrgencyLevel
		}
	}

	endTime := time.Now().UTC()
	if sess.EndTime != nil {
		endTime = *sess.EndTime
	}
	lastMessage := sess.StartTime
	if len(msgs) > 0 {
		lastMessage = msgs[len(msgs)-1].Timestamp
	}

	return &pkg.SessionSummary{
		SessionID:         sessionID,
		StartTime:         sess.StartTime,
		EndTime:           endTime,
		MessageCount:      len(msgs),
		Profile:           profile,
		SymptomsMentioned: symptomSet(profile),
		MaxUrgency:        maxUrgency,
		UserMessageCount:  userCount,
		LastMessageAt:     lastMessage,
	}, nil
}

// symptomSet collects the distinct symptom names from a profile, primary
// symptom first. The order of the rest follows the profile for
// deterministic output.
func symptomSet(profile *pkg.Profile) []string {
	out := []string{}
	if profile == nil {
		return out
	}
	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	if profile.PrimarySymptom != nil {
		add(*profile.PrimarySymptom)
	}
	for _, s := range profile.AssociatedSymptoms {
		add(s)
	}
	return out
}
