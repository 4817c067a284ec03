package exercise

import "time"

// SelectionMode governs how SelectOption mutates the selected set.
type SelectionMode string

const (
	// SelectionSingle keeps at most one selected option.
	SelectionSingle SelectionMode = "single"
	// SelectionMultiple toggles options up to Settings.RequiredSelections.
	SelectionMultiple SelectionMode = "multiple"
)

// Definition is the immutable description of one exercise. It is owned by
// the host; the runtime keeps a private deep copy.
type Definition struct {
	ID       string   `json:"id" yaml:"id" toml:"id" required:"true" desc:"Unique exercise identifier"`
	Type     string   `json:"type" yaml:"type" toml:"type" required:"true" desc:"Variant type, e.g. selection"`
	Content  Content  `json:"content" yaml:"content" toml:"content"`
	Solution Solution `json:"solution" yaml:"solution" toml:"solution"`
	Settings Settings `json:"settings" yaml:"settings" toml:"settings"`
}

// Content holds the presentation-agnostic material of an exercise.
type Content struct {
	Question     string     `json:"question" yaml:"question" toml:"question" required:"true"`
	Instructions string     `json:"instructions,omitempty" yaml:"instructions,omitempty" toml:"instructions"`
	Options      []Option   `json:"options" yaml:"options" toml:"options"`
	Media        []MediaRef `json:"media,omitempty" yaml:"media,omitempty" toml:"media"`
}

// Option is one selectable answer.
type Option struct {
	ID    string `json:"id" yaml:"id" toml:"id"`
	Value string `json:"value" yaml:"value" toml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty" toml:"label"`
	// Speech is the text spoken for this option; Value is used when empty.
	Speech string    `json:"speech,omitempty" yaml:"speech,omitempty" toml:"speech"`
	Media  *MediaRef `json:"media,omitempty" yaml:"media,omitempty" toml:"media"`
}

// MediaRef points at an asset the MediaLoader should preload.
type MediaRef struct {
	Kind string `json:"kind" yaml:"kind" toml:"kind"`
	URI  string `json:"uri" yaml:"uri" toml:"uri"`
	Alt  string `json:"alt,omitempty" yaml:"alt,omitempty" toml:"alt"`
}

// Solution holds the correct-answer rules.
type Solution struct {
	Correct       []string `json:"correct" yaml:"correct" toml:"correct"`
	Hints         []string `json:"hints,omitempty" yaml:"hints,omitempty" toml:"hints"`
	PartialCredit bool     `json:"partialCredit" yaml:"partialCredit" toml:"partialCredit"`
	// StrictPartialCredit only awards partial credit when no incorrect
	// option is selected.
	StrictPartialCredit bool `json:"strictPartialCredit,omitempty" yaml:"strictPartialCredit,omitempty" toml:"strictPartialCredit"`
	// Category tags the explanation template, e.g. "sound-matching" or "synonym".
	Category string `json:"category,omitempty" yaml:"category,omitempty" toml:"category"`
}

// Settings configures how a single exercise is played.
type Settings struct {
	SelectionMode         SelectionMode `json:"selectionMode" yaml:"selectionMode" toml:"selectionMode" default:"single" validate:"oneof=single multiple"`
	RequiredSelections    int           `json:"requiredSelections" yaml:"requiredSelections" toml:"requiredSelections" validate:"gte=0"`
	TimeLimit             time.Duration `json:"timeLimit,omitempty" yaml:"timeLimit,omitempty" toml:"timeLimit" validate:"gte=0"`
	AllowMultipleAttempts bool          `json:"allowMultipleAttempts" yaml:"allowMultipleAttempts" toml:"allowMultipleAttempts"`
	// MaxAttempts ends the exercise after this many submissions. Zero means unlimited.
	MaxAttempts int `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty" toml:"maxAttempts" validate:"gte=0"`
}

// Option returns the option with the given id.
func (d *Definition) Option(id string) (Option, bool) {
	for _, opt := range d.Content.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// OptionIndex returns the position of id in the option list, or -1.
func (d *Definition) OptionIndex(id string) int {
	for i, opt := range d.Content.Options {
		if opt.ID == id {
			return i
		}
	}
	return -1
}

// MediaRefs lists every media reference in content and options.
func (d *Definition) MediaRefs() []MediaRef {
	refs := make([]MediaRef, 0, len(d.Content.Media))
	refs = append(refs, d.Content.Media...)
	for _, opt := range d.Content.Options {
		if opt.Media != nil {
			refs = append(refs, *opt.Media)
		}
	}
	return refs
}

// SelectionBound is the maximum size of the selected set.
func (d *Definition) SelectionBound() int {
	if d.Settings.SelectionMode != SelectionMultiple {
		return 1
	}
	if d.Settings.RequiredSelections > 0 {
		return d.Settings.RequiredSelections
	}
	return len(d.Content.Options)
}

// Clone returns a deep copy.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	c := *d
	c.Content.Options = make([]Option, len(d.Content.Options))
	for i, opt := range d.Content.Options {
		c.Content.Options[i] = opt
		if opt.Media != nil {
			m := *opt.Media
			c.Content.Options[i].Media = &m
		}
	}
	c.Content.Media = append([]MediaRef(nil), d.Content.Media...)
	c.Solution.Correct = append([]string(nil), d.Solution.Correct...)
	c.Solution.Hints = append([]string(nil), d.Solution.Hints...)
	return &c
}
