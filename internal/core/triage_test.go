package core

import (
	"testing"

	"medagent/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyUrgencyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		userText string
		want     pkg.UrgencyLevel
	}{
		{
			name:     "emergency number always wins",
			reply:    "Please call 911 right away.",
			userText: "just a scratch",
			want:     pkg.UrgencyHigh,
		},
		{
			name:     "high keyword in reply",
			reply:    "That sounds like chest pain, seek help.",
			userText: "ok",
			want:     pkg.UrgencyHigh,
		},
		{
			name:     "medium keyword beats user-text fallback",
			reply:    "Contact your doctor for a persistent high fever",
			userText: "I have had a fever for three days",
			want:     pkg.UrgencyMedium,
		},
		{
			name:     "user symptom keyword as fallback",
			reply:    "Try to rest and stay hydrated.",
			userText: "the pain comes and goes",
			want:     pkg.UrgencyMedium,
		},
		{
			name:     "matching is case-insensitive",
			reply:    "This is URGENT, go now.",
			userText: "ok",
			want:     pkg.UrgencyHigh,
		},
		{
			name:     "nothing matches",
			reply:    "Sounds like you are doing fine.",
			userText: "just checking in",
			want:     pkg.UrgencyLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, _ := Classify(tt.reply, tt.userText)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestClassifyQuestions(t *testing.T) {
	t.Run("fever topic list", func(t *testing.T) {
		_, questions := Classify(
			"Contact your doctor for a persistent high fever",
			"I have had a fever for three days",
		)
		assert.Equal(t, []string{
			"Have you measured your temperature recently?",
			"Do you have chills or sweating?",
			"Have you taken any medication for the fever?",
		}, questions)
	})

	t.Run("fever takes priority over pain", func(t *testing.T) {
		_, questions := Classify("ok", "fever and pain everywhere")
		assert.Equal(t, questionTopics[0].questions, questions)
	})

	t.Run("generic list when no topic matches", func(t *testing.T) {
		_, questions := Classify("ok", "I feel strange")
		assert.Equal(t, genericQuestions, questions)
	})

	t.Run("never more than three", func(t *testing.T) {
		for _, userText := range []string{"fever", "pain", "headache", "cough", "other"} {
			_, questions := Classify("ok", userText)
			assert.LessOrEqual(t, len(questions), 3)
		}
	})
}

func TestClassifyIsPure(t *testing.T) {
	reply := "You should see a doctor about that persistent cough."
	userText := "I have had a cough and a fever"

	level1, q1 := Classify(reply, userText)
	level2, q2 := Classify(reply, userText)
	assert.Equal(t, level1, level2)
	assert.Equal(t, q1, q2)

	// Mutating a returned slice must not leak into later calls.
	q1[0] = "mutated"
	_, q3 := Classify(reply, userText)
	assert.Equal(t, q2, q3)
}

func TestFallback(t *testing.T) {
	reply, level, questions := Fallback()
	assert.Equal(t, FallbackReply, reply)
	assert.Equal(t, pkg.UrgencyMedium, level)
	require.Len(t, questions, 2)
	assert.Equal(t, FallbackQuestions, questions)
}
