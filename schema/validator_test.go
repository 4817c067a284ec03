package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/exercise"
)

func validDefinition() *exercise.Definition {
	return &exercise.Definition{
		ID:   "syn-1",
		Type: "selection",
		Content: exercise.Content{
			Question: "Pick the synonym of quick",
			Options: []exercise.Option{
				{ID: "a", Value: "fast"},
				{ID: "b", Value: "slow"},
			},
		},
		Solution: exercise.Solution{Correct: []string{"a"}, Category: "synonym"},
		Settings: exercise.Settings{SelectionMode: exercise.SelectionSingle},
	}
}

func TestValidDefinitionPasses(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	res := v.Validate(context.Background(), validDefinition())
	assert.True(t, res.Success, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestSchemaViolationsAreReported(t *testing.T) {
	v := MustNew()
	def := validDefinition()
	def.Content.Question = ""
	def.Content.Options[1].Media = &exercise.MediaRef{Kind: "hologram", URI: "x"}

	res := v.Validate(context.Background(), def)
	require.False(t, res.Success)
	joined := strings.Join(res.Errors, "\n")
	assert.Contains(t, joined, "/content/question")
	assert.Contains(t, joined, "/content/options/1/media/kind")
}

func TestCrossFieldRules(t *testing.T) {
	v := MustNew()

	def := validDefinition()
	def.Content.Options = append(def.Content.Options, exercise.Option{ID: "a", Value: "rapid"})
	def.Solution.Correct = []string{"a", "zzz"}

	res := v.Validate(context.Background(), def)
	require.False(t, res.Success)
	assert.Contains(t, strings.Join(res.Errors, "\n"), `duplicate option id "a"`)
	assert.Contains(t, strings.Join(res.Errors, "\n"), `"zzz" is not an option id`)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "single mode with several correct options")
}

func TestNoCorrectOptionsWarning(t *testing.T) {
	def := validDefinition()
	def.Solution.Correct = []string{}

	res := MustNew().Validate(context.Background(), def)
	assert.True(t, res.Success, "errors: %v", res.Errors)
	assert.Contains(t, res.Warnings, "/solution/correct: no correct options, only an empty answer is correct")
}

func TestWarningsDoNotFail(t *testing.T) {
	v := MustNew()
	def := validDefinition()
	def.Settings.RequiredSelections = 5
	def.Settings.MaxAttempts = 3

	res := v.Validate(context.Background(), def)
	assert.True(t, res.Success)
	assert.Len(t, res.Warnings, 2)
}

func TestValidateJSONRejectsGarbage(t *testing.T) {
	res := MustNew().ValidateJSON([]byte("{not json"))
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "failed to unmarshal JSON data")
}

func TestNilDefinition(t *testing.T) {
	res := MustNew().Validate(context.Background(), nil)
	assert.False(t, res.Success)
}
