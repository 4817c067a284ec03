package exercise

import "context"

// Answer is a variant-defined answer shape. The runtime passes it through
// untouched; only the variant interprets it.
type Answer any

// ValidationResult describes one submission. Only the most recent result is
// kept in the runtime state.
type ValidationResult struct {
	IsCorrect          bool     `json:"isCorrect"`
	IsPartiallyCorrect bool     `json:"isPartiallyCorrect"`
	CorrectSet         []string `json:"correctSet"`
	Explanation        string   `json:"explanation"`
}

// Variant is the capability object that gives a runtime its exercise
// semantics. Implementations must be safe to call from any goroutine and
// must not retain def.
type Variant interface {
	// Type matches Definition.Type.
	Type() string

	// ValidateAnswer is a pure function of def and answer.
	ValidateAnswer(ctx context.Context, def *Definition, answer Answer) (ValidationResult, error)

	// CalculateScore returns a score in [0,100].
	CalculateScore(ctx context.Context, def *Definition, answer Answer) (float64, error)

	// Project returns a structural description of the question and options.
	Project(def *Definition) Projection

	// CurrentAnswer maps the raw selection into the canonical answer shape.
	CurrentAnswer(def *Definition, selected []string) Answer
}

// Speakable is implemented by variants with a speech side channel.
type Speakable interface {
	// SpeechFor returns the text for a single option.
	SpeechFor(def *Definition, optionID string) (string, bool)
	// SpeechAll returns the texts played by "play all", in order.
	SpeechAll(def *Definition) []string
}

// Localizable is implemented by variants whose explanations can be
// rendered through a Localizer.
type Localizable interface {
	LocalizeExplanation(def *Definition, result ValidationResult, loc Localizer) string
}

// Projection is the presentation-agnostic view of an exercise.
type Projection struct {
	ExerciseID         string            `json:"exerciseId"`
	Type               string            `json:"type"`
	Question           string            `json:"question"`
	Instructions       string            `json:"instructions,omitempty"`
	SelectionMode      SelectionMode     `json:"selectionMode"`
	RequiredSelections int               `json:"requiredSelections"`
	Options            []OptionView      `json:"options"`
	Media              []MediaRef        `json:"media,omitempty"`
	Attributes         map[string]string `json:"attributes,omitempty"`
}

// OptionView is one option inside a Projection.
type OptionView struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Position int       `json:"position"`
	Selected bool      `json:"selected"`
	HasAudio bool      `json:"hasAudio"`
	Media    *MediaRef `json:"media,omitempty"`
}
