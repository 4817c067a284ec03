package exercise

import (
	"fmt"
	"maps"
	"strings"
)

// Message keys translated through the Localizer.
const (
	MsgStarted           = "runtime.started"
	MsgPaused            = "runtime.paused"
	MsgResumed           = "runtime.resumed"
	MsgOptionSelected    = "option.selected"
	MsgOptionDeselected  = "option.deselected"
	MsgFeedbackCorrect   = "feedback.correct"
	MsgFeedbackPartial   = "feedback.partial"
	MsgFeedbackIncorrect = "feedback.incorrect"
	MsgHint              = "hint.shown"
	MsgTimeUp            = "timer.up"
	MsgCompleted         = "runtime.completed"
)

var defaultMessages = map[string]string{
	MsgStarted:           "Exercise started",
	MsgPaused:            "Exercise paused",
	MsgResumed:           "Exercise resumed",
	MsgOptionSelected:    "{option} selected",
	MsgOptionDeselected:  "{option} deselected",
	MsgFeedbackCorrect:   "Correct! {explanation}",
	MsgFeedbackPartial:   "Partially correct, score {score}. {explanation}",
	MsgFeedbackIncorrect: "Not quite. {explanation}",
	MsgHint:              "Hint: {hint}",
	MsgTimeUp:            "Time is up",
	MsgCompleted:         "Exercise completed with score {score}",
}

// DefaultMessages returns a copy of the built-in English messages.
func DefaultMessages() map[string]string {
	return maps.Clone(defaultMessages)
}

// StaticLocalizer serves messages from a fixed table, falling back to the
// built-in English messages. It is the runtime's default Localizer.
type StaticLocalizer struct {
	locale   string
	messages map[string]string
}

// NewStaticLocalizer creates a localizer for locale. messages override the
// built-in table.
func NewStaticLocalizer(locale string, messages map[string]string) *StaticLocalizer {
	merged := DefaultMessages()
	maps.Copy(merged, messages)
	if locale == "" {
		locale = "en"
	}
	return &StaticLocalizer{locale: locale, messages: merged}
}

// Translate implements Localizer.
func (l *StaticLocalizer) Translate(key string, params map[string]any) string {
	tmpl, ok := l.messages[key]
	if !ok {
		return key
	}
	return FormatMessage(tmpl, params)
}

// Locale implements Localizer.
func (l *StaticLocalizer) Locale() string { return l.locale }

// IsRTL implements Localizer.
func (l *StaticLocalizer) IsRTL() bool { return false }

// FormatMessage replaces {name} placeholders in tmpl with params. Unknown
// placeholders are left in place and surrounding whitespace is trimmed.
func FormatMessage(tmpl string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(tmpl, "{") {
		return strings.TrimSpace(tmpl)
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(tmpl))
}
