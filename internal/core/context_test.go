package core

import (
	"fmt"
	"strings"
	"testing"

	"medagent/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContextEmptyInputs(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil, nil))
	assert.Equal(t, "", BuildContext(&pkg.Profile{}, nil))
	assert.Equal(t, "", BuildContext(nil, []pkg.Message{}))
}

func TestBuildContextProfileOnly(t *testing.T) {
	profile := &pkg.Profile{
		Age:                str("42"),
		Gender:             str("female"),
		PrimarySymptom:     str("headache"),
		Duration:           str("three days"),
		Intensity:          []int64{7, 5},
		AssociatedSymptoms: []string{"nausea", "dizziness"},
		KnownConditions:    []string{"hypertension"},
	}

	got := BuildContext(profile, nil)
	want := strings.Join([]string{
		"USER PROFILE:",
		"Age: 42",
		"Gender: female",
		"Primary symptom: headache",
		"Duration: three days",
		"Intensity: 7/10",
		"Associated symptoms: nausea, dizziness",
		"Known conditions: hypertension",
	}, "\n")
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "PREVIOUS CONVERSATION")
}

func TestBuildContextHistoryOnly(t *testing.T) {
	history := []pkg.Message{
		{Type: pkg.MessageUser, Content: "I feel dizzy"},
		{Type: pkg.MessageAssistant, Content: "Since when?"},
	}

	got := BuildContext(nil, history)
	want := "PREVIOUS CONVERSATION:\nUser: I feel dizzy\nAssistant: Since when?"
	assert.Equal(t, want, got)
}

func TestBuildContextJoinsSectionsWithBlankLine(t *testing.T) {
	profile := &pkg.Profile{Age: str("42")}
	history := []pkg.Message{{Type: pkg.MessageUser, Content: "hello"}}

	got := BuildContext(profile, history)
	parts := strings.Split(got, "\n\n")
	require.Len(t, parts, 2)
	assert.True(t, strings.HasPrefix(parts[0], "USER PROFILE:"))
	assert.True(t, strings.HasPrefix(parts[1], "PREVIOUS CONVERSATION:"))
}

func TestBuildContextKeepsLastSixMessages(t *testing.T) {
	var history []pkg.Message
	for i := 1; i <= 8; i++ {
		history = append(history, pkg.Message{
			Type:    pkg.MessageUser,
			Content: fmt.Sprintf("message %d", i),
		})
	}

	got := BuildContext(nil, history)
	assert.NotContains(t, got, "message 1")
	assert.NotContains(t, got, "message 2")
	for i := 3; i <= 8; i++ {
		assert.Contains(t, got, fmt.Sprintf("message %d", i))
	}
}

func TestBuildContextIntensityUsesFirstElement(t *testing.T) {
	got := BuildContext(&pkg.Profile{Intensity: []int64{7}}, nil)
	assert.Equal(t, "USER PROFILE:\nIntensity: 7/10", got)
}
