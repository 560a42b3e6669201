package core

import (
	"context"
	"testing"
	"time"

	"medagent/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urgency(u pkg.UrgencyLevel) *pkg.UrgencyLevel { return &u }

func TestSummaryUnknownSession(t *testing.T) {
	sums := NewSummaries(newMemStore())
	_, err := sums.Build(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryAggregates(t *testing.T) {
	store := newMemStore()
	sums := NewSummaries(store)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, nil)
	require.NoError(t, err)
	_, err = store.UpsertProfile(ctx, sess.ID, &pkg.ProfileUpdate{
		PrimarySymptom:     str("fever"),
		AssociatedSymptoms: []string{"chills", "fever", "headache"},
	})
	require.NoError(t, err)

	for _, m := range []pkg.Message{
		{SessionID: sess.ID, Type: pkg.MessageUser, Content: "I have a fever"},
		{SessionID: sess.ID, Type: pkg.MessageAssistant, Content: "Since when?", UrgencyLevel: urgency(pkg.UrgencyLow)},
		{SessionID: sess.ID, Type: pkg.MessageUser, Content: "Three days, with chills"},
		{SessionID: sess.ID, Type: pkg.MessageAssistant, Content: "See a doctor.", UrgencyLevel: urgency(pkg.UrgencyMedium)},
	} {
		_, err := store.SaveMessage(ctx, &m)
		require.NoError(t, err)
	}

	summary, err := sums.Build(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, summary.SessionID)
	assert.Equal(t, 4, summary.MessageCount)
	assert.Equal(t, 2, summary.UserMessageCount)
	assert.Equal(t, pkg.UrgencyMedium, summary.MaxUrgency)
	// Deduplicated, primary symptom first.
	assert.Equal(t, []string{"fever", "chills", "headache"}, summary.SymptomsMentioned)
	require.NotNil(t, summary.Profile)
}

func TestSummaryMaxUrgencyIgnoresUserMessages(t *testing.T) {
	store := newMemStore()
	sums := NewSummaries(store)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, nil)
	require.NoError(t, err)
	// A user message never carries urgency; a session with no classified
	// assistant message reports low.
	_, err = store.SaveMessage(ctx, &pkg.Message{SessionID: sess.ID, Type: pkg.MessageUser, Content: "chest pain"})
	require.NoError(t, err)

	summary, err := sums.Build(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, pkg.UrgencyLow, summary.MaxUrgency)
	assert.Empty(t, summary.SymptomsMentioned)
}

func TestSummaryEndTime(t *testing.T) {
	store := newMemStore()
	sums := NewSummaries(store)
	ctx := context.Background()

	t.Run("open session uses aggregation time", func(t *testing.T) {
		sess, err := store.CreateSession(ctx, nil)
		require.NoError(t, err)
		before := time.Now().UTC()
		summary, err := sums.Build(ctx, sess.ID)
		require.NoError(t, err)
		assert.False(t, summary.EndTime.Before(before))
	})

	t.Run("closed session uses its end time", func(t *testing.T) {
		sess, err := store.CreateSession(ctx, nil)
		require.NoError(t, err)
		ok, err := store.CloseSession(ctx, sess.ID)
		require.NoError(t, err)
		require.True(t, ok)

		closed, err := store.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		require.NotNil(t, closed.EndTime)

		summary, err := sums.Build(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, *closed.EndTime, summary.EndTime)
	})
}
