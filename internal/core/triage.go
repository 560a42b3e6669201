package core

import (
	"strings"

	"medagent/pkg"
)

// triage.go classifies assistant replies into urgency tiers and derives
// suggested follow-up questions. Classification is a deterministic pure
// function over (reply, user text): the same inputs always produce the
// same outputs, which is what makes the pipeline testable at all.

// urgencyRule maps a keyword set to a tier. Rules are evaluated in order
// against the assistant reply; the first matching rule wins.
type urgencyRule struct {
	level    pkg.UrgencyLevel
	keywords []string
}

var replyRules = []urgencyRule{
	{pkg.UrgencyHigh, []string{
		"911", "emergency", "call an ambulance", "immediately", "urgent",
		"chest pain", "difficulty breathing", "loss of consciousness",
	}},
	{pkg.UrgencyMedium, []string{
		"doctor", "contact a doctor", "high fever", "persistent",
		"concerning", "medical evaluation", "medical check",
	}},
}

// userSymptomKeywords bump the tier to medium when the reply itself
// matched nothing but the user reported a generic symptom.
var userSymptomKeywords = []string{"pain", "fever", "unwell"}

// questionTopic pairs a keyword in the user utterance with its fixed
// follow-up list. Topics are checked in declaration order and the first
// match wins.
type questionTopic struct {
	keyword   string
	questions []string
}

var questionTopics = []questionTopic{
	{"fever", []string{
		"Have you measured your temperature recently?",
		"Do you have chills or sweating?",
		"Have you taken any medication for the fever?",
	}},
	{"pain", []string{
		"Can you describe the type of pain in more detail?",
		"Is the pain constant or does it come and go?",
		"What makes the pain better or worse?",
	}},
	{"headache", []string{
		"Are you sensitive to light?",
		"Is the headache accompanied by nausea?",
		"Where is the pain located?",
	}},
	{"cough", []string{
		"Is the cough dry or with phlegm?",
		"Do you have difficulty breathing?",
		"How long have you had the cough?",
	}},
}

var genericQuestions = []string{
	"Can you describe any other symptoms?",
	"How do you feel overall?",
	"Is there anything else worrying you?",
}

const maxQuestions = 3

// Classify derives the urgency tier and follow-up questions for one
// assistant reply given the user utterance that triggered it.
func Classify(reply, userText string) (pkg.UrgencyLevel, []string) {
	return classifyUrgency(reply, userText), suggestQuestions(userText)
}

func classifyUrgency(reply, userText string) pkg.UrgencyLevel {
	replyLower := strings.ToLower(reply)
	for _, rule := range replyRules {
		if containsAny(replyLower, rule.keywords) {
			return rule.level
		}
	}
	if containsAny(strings.ToLower(userText), userSymptomKeywords) {
		return pkg.UrgencyMedium
	}
	return pkg.UrgencyLow
}

func suggestQuestions(userText string) []string {
	userLower := strings.ToLower(userText)
	questions := genericQuestions
	for _, topic := range questionTopics {
		if strings.Contains(userLower, topic.keyword) {
			questions = topic.questions
			break
		}
	}
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	out := make([]string, len(questions))
	copy(out, questions)
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Fallback is the reply used when the model invocation fails: fixed text,
// medium urgency, and a short fixed question list. It never fails.
func Fallback() (string, pkg.UrgencyLevel, []string) {
	questions := make([]string, len(FallbackQuestions))
	copy(questions, FallbackQuestions)
	return FallbackReply, pkg.UrgencyMedium, questions
}
