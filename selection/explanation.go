package selection

import (
	"github.com/GoCodeAlone/exercise"
)

// Explanation categories with built-in templates.
const (
	CategorySoundMatching = "sound-matching"
	CategorySynonym       = "synonym"
	CategoryAntonym       = "antonym"
	CategoryRhyme         = "rhyme"
	CategoryDefault       = "default"
)

// ExplanationKey returns the Localizer key consulted for category.
func ExplanationKey(category string) string {
	if category == "" {
		category = CategoryDefault
	}
	return "explanation." + category
}

var defaultTemplates = map[string]string{
	CategorySoundMatching: "{answers} share the same sound.",
	CategorySynonym:       "{answers} mean the same thing.",
	CategoryAntonym:       "{answers} mean the opposite.",
	CategoryRhyme:         "{answers} rhyme.",
	CategoryDefault:       "The correct answer is {answers}.",
}

// explain renders the explanation for def from the correct option values.
// A localizer that knows the category key wins over the template table.
func (v *Variant) explain(def *exercise.Definition, loc exercise.Localizer) string {
	values := make([]string, 0, len(def.Solution.Correct))
	for _, opt := range def.Content.Options {
		for _, id := range def.Solution.Correct {
			if opt.ID == id {
				values = append(values, opt.Value)
				break
			}
		}
	}
	params := map[string]any{"answers": joinValues(values, "and")}

	key := ExplanationKey(def.Solution.Category)
	if loc != nil {
		and := loc.Translate("explanation.and", nil)
		if and != "explanation.and" {
			params["answers"] = joinValues(values, and)
		}
		if msg := loc.Translate(key, params); msg != key {
			return msg
		}
	}

	tmpl, ok := v.templates[def.Solution.Category]
	if !ok {
		tmpl = v.templates[CategoryDefault]
	}
	return exercise.FormatMessage(tmpl, params)
}
