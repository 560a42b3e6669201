package core

import (
	"fmt"
	"strings"

	"medagent/pkg"
)

// historyWindow is the number of trailing messages included in the model
// context.
const historyWindow = 6

// BuildContext assembles the text block given to the model ahead of the
// new user utterance. It renders the present profile fields as labeled
// lines in a fixed order, then the last messages of the conversation, and
// joins the non-empty sections with a blank line. Both inputs are
// optional; with neither, the result is the empty string.
func BuildContext(profile *pkg.Profile, history []pkg.Message) string {
	var sections []string

	if profile != nil {
		var lines []string
		if profile.Age != nil {
			lines = append(lines, "Age: "+*profile.Age)
		}
		if profile.Gender != nil {
			lines = append(lines, "Gender: "+*profile.Gender)
		}
		if profile.PrimarySymptom != nil {
			lines = append(lines, "Primary symptom: "+*profile.PrimarySymptom)
		}
		if profile.Duration != nil {
			lines = append(lines, "Duration: "+*profile.Duration)
		}
		if len(profile.Intensity) > 0 {
			lines = append(lines, fmt.Sprintf("Intensity: %d/10", profile.Intensity[0]))
		}
		if len(profile.AssociatedSymptoms) > 0 {
			lines = append(lines, "Associated symptoms: "+strings.Join(profile.AssociatedSymptoms, ", "))
		}
		if len(profile.KnownConditions) > 0 {
			lines = append(lines, "Known conditions: "+strings.Join(profile.KnownConditions, ", "))
		}
		if len(lines) > 0 {
			sections = append(sections, "USER PROFILE:\n"+strings.Join(lines, "\n"))
		}
	}

	if len(history) > 0 {
		recent := history
		if len(recent) > historyWindow {
			recent = recent[len(recent)-historyWindow:]
		}
		lines := make([]string, 0, len(recent))
		for _, m := range recent {
			speaker := "Assistant"
			if m.Type == pkg.MessageUser {
				speaker = "User"
			}
			lines = append(lines, speaker+": "+m.Content)
		}
		sections = append(sections, "PREVIOUS CONVERSATION:\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}
