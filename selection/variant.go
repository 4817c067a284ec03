// Package selection implements the selection exercise variant: the learner
// picks one or more options and the answer is compared against the correct
// set from the definition.
package selection

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/GoCodeAlone/exercise"
)

// Type is the definition type handled by this variant.
const Type = "selection"

// ErrUnknownOption is returned when an answer names an option that is not
// part of the definition.
var ErrUnknownOption = errors.New("answer references unknown option")

// Answer is the canonical selection answer: option ids in ascending order
// without duplicates.
type Answer []string

// NewAnswer normalizes ids into an Answer.
func NewAnswer(ids ...string) Answer {
	a := Answer(slices.Clone(ids))
	slices.Sort(a)
	return Answer(slices.Compact(a))
}

// Variant implements exercise.Variant, exercise.Speakable and
// exercise.Localizable. The zero value is not usable; call New.
type Variant struct {
	templates map[string]string
}

// Option configures a Variant.
type Option func(*Variant)

// WithTemplate sets the explanation template for category. Templates use
// the {answers} placeholder.
func WithTemplate(category, template string) Option {
	return func(v *Variant) {
		v.templates[category] = template
	}
}

// New creates a selection variant with the built-in explanation templates.
func New(opts ...Option) *Variant {
	v := &Variant{templates: maps.Clone(defaultTemplates)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Type implements exercise.Variant.
func (v *Variant) Type() string { return Type }

// ValidateAnswer implements exercise.Variant.
func (v *Variant) ValidateAnswer(_ context.Context, def *exercise.Definition, answer exercise.Answer) (exercise.ValidationResult, error) {
	ids, err := coerce(def, answer)
	if err != nil {
		return exercise.ValidationResult{}, err
	}
	g := grade(def, ids)
	return exercise.ValidationResult{
		IsCorrect:          g.exact,
		IsPartiallyCorrect: !g.exact && g.partial > 0,
		CorrectSet:         NewAnswer(def.Solution.Correct...),
		Explanation:        v.explain(def, nil),
	}, nil
}

// CalculateScore implements exercise.Variant.
func (v *Variant) CalculateScore(_ context.Context, def *exercise.Definition, answer exercise.Answer) (float64, error) {
	ids, err := coerce(def, answer)
	if err != nil {
		return 0, err
	}
	g := grade(def, ids)
	if g.exact {
		return 100, nil
	}
	return g.partial, nil
}

// Project implements exercise.Variant.
func (v *Variant) Project(def *exercise.Definition) exercise.Projection {
	views := make([]exercise.OptionView, len(def.Content.Options))
	for i, opt := range def.Content.Options {
		views[i] = exercise.OptionView{
			ID:       opt.ID,
			Label:    label(opt),
			Position: i + 1,
			HasAudio: opt.Speech != "" || (opt.Media != nil && opt.Media.Kind == "audio"),
			Media:    opt.Media,
		}
	}
	attrs := map[string]string{
		"hints": strconv.Itoa(len(def.Solution.Hints)),
	}
	if def.Solution.Category != "" {
		attrs["category"] = def.Solution.Category
	}
	if def.Settings.TimeLimit > 0 {
		attrs["timeLimit"] = def.Settings.TimeLimit.String()
	}
	return exercise.Projection{
		ExerciseID:         def.ID,
		Type:               Type,
		Question:           def.Content.Question,
		Instructions:       def.Content.Instructions,
		SelectionMode:      def.Settings.SelectionMode,
		RequiredSelections: def.Settings.RequiredSelections,
		Options:            views,
		Media:              slices.Clone(def.Content.Media),
		Attributes:         attrs,
	}
}

// CurrentAnswer implements exercise.Variant.
func (v *Variant) CurrentAnswer(_ *exercise.Definition, selected []string) exercise.Answer {
	return NewAnswer(selected...)
}

// SpeechFor implements exercise.Speakable.
func (v *Variant) SpeechFor(def *exercise.Definition, optionID string) (string, bool) {
	opt, ok := def.Option(optionID)
	if !ok {
		return "", false
	}
	text := speech(opt)
	return text, text != ""
}

// SpeechAll implements exercise.Speakable.
func (v *Variant) SpeechAll(def *exercise.Definition) []string {
	texts := make([]string, 0, len(def.Content.Options))
	for _, opt := range def.Content.Options {
		if text := speech(opt); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// LocalizeExplanation implements exercise.Localizable.
func (v *Variant) LocalizeExplanation(def *exercise.Definition, _ exercise.ValidationResult, loc exercise.Localizer) string {
	return v.explain(def, loc)
}

func coerce(def *exercise.Definition, answer exercise.Answer) ([]string, error) {
	var ids []string
	switch a := answer.(type) {
	case nil:
	case Answer:
		ids = a
	case []string:
		ids = a
	case string:
		if a != "" {
			ids = []string{a}
		}
	default:
		return nil, fmt.Errorf("%w: %T", exercise.ErrUnsupportedAnswer, answer)
	}
	for _, id := range ids {
		if _, ok := def.Option(id); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOption, id)
		}
	}
	return NewAnswer(ids...), nil
}

type grading struct {
	exact   bool
	partial float64
}

// grade compares ids against the correct set. Partial credit is the share of
// correct options selected; with StrictPartialCredit it is only awarded when
// no incorrect option is selected.
func grade(def *exercise.Definition, ids []string) grading {
	correct := NewAnswer(def.Solution.Correct...)
	hits, misses := 0, 0
	for _, id := range ids {
		if slices.Contains(correct, id) {
			hits++
		} else {
			misses++
		}
	}

	if misses == 0 && hits == len(correct) {
		return grading{exact: true}
	}
	sol := def.Solution
	if !sol.PartialCredit || hits == 0 || (sol.StrictPartialCredit && misses > 0) {
		return grading{}
	}
	return grading{partial: float64(hits) / float64(len(correct)) * 100}
}

func label(opt exercise.Option) string {
	if opt.Label != "" {
		return opt.Label
	}
	return opt.Value
}

func speech(opt exercise.Option) string {
	if opt.Speech != "" {
		return opt.Speech
	}
	return label(opt)
}

// joinValues renders values as "a", "a and b" or "a, b and c".
func joinValues(values []string, and string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	}
	return strings.Join(values[:len(values)-1], ", ") + " " + and + " " + values[len(values)-1]
}
