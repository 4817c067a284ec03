package feeders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/exercise"
)

const yamlDefinition = `
id: rhyme-1
type: selection
content:
  question: Which words rhyme with cat?
  options:
    - {id: a, value: hat}
    - {id: b, value: dog}
    - {id: c, value: bat}
solution:
  correct: [a, c]
  partialCredit: true
  category: rhyme
settings:
  selectionMode: multiple
  requiredSelections: 2
  timeLimit: 30s
`

const jsonDefinition = `{
  "id": "syn-1",
  "type": "selection",
  "content": {"question": "Pick a synonym of big", "options": [{"id": "a", "value": "large"}, {"id": "b", "value": "tiny"}]},
  "solution": {"correct": ["a"], "hints": ["Think size"]},
  "settings": {"timeLimit": "1m", "maxAttempts": 3, "allowMultipleAttempts": true}
}`

const tomlDefinition = `
id = "ant-1"
type = "selection"

[content]
question = "Opposite of hot?"

[[content.options]]
id = "a"
value = "cold"

[[content.options]]
id = "b"
value = "warm"

[solution]
correct = ["a"]
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefinitionFormats(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		def, err := LoadDefinition(writeFile(t, "def.yaml", yamlDefinition))
		require.NoError(t, err)
		assert.Equal(t, "rhyme-1", def.ID)
		assert.Len(t, def.Content.Options, 3)
		assert.Equal(t, exercise.SelectionMultiple, def.Settings.SelectionMode)
		assert.Equal(t, 30*time.Second, def.Settings.TimeLimit)
		assert.True(t, def.Solution.PartialCredit)
	})

	t.Run("json", func(t *testing.T) {
		def, err := LoadDefinition(writeFile(t, "def.json", jsonDefinition))
		require.NoError(t, err)
		assert.Equal(t, time.Minute, def.Settings.TimeLimit)
		assert.Equal(t, 3, def.Settings.MaxAttempts)
		assert.Equal(t, exercise.SelectionSingle, def.Settings.SelectionMode, "default applied")
		assert.Equal(t, []string{"Think size"}, def.Solution.Hints)
	})

	t.Run("toml", func(t *testing.T) {
		def, err := LoadDefinition(writeFile(t, "def.toml", tomlDefinition))
		require.NoError(t, err)
		assert.Equal(t, "cold", def.Content.Options[0].Value)
		assert.Equal(t, []string{"a"}, def.Solution.Correct)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := LoadDefinition(writeFile(t, "def.ini", "id=x"))
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestDecodeDefinitionErrors(t *testing.T) {
	_, err := DecodeDefinition(strings.NewReader("{not json"), FormatJSON)
	require.ErrorIs(t, err, ErrDefinitionDecode)

	_, err = DecodeDefinition(strings.NewReader(`{"id": "x", "type": "selection", "content": {"question": "q"}, "settings": {"selectionMode": "any"}}`), FormatJSON)
	require.Error(t, err, "selection mode is validated")

	def, err := DecodeDefinition(strings.NewReader(`{"type": "selection"}`), FormatJSON, WithoutValidation())
	require.NoError(t, err)
	assert.Empty(t, def.ID)
}

func TestDecodeDefinitionRunsMigratorsInOrder(t *testing.T) {
	var order []string
	first := MigratorFunc(func(doc map[string]any) error {
		order = append(order, "first")
		doc["id"] = "renamed"
		return nil
	})
	second := MigratorFunc(func(doc map[string]any) error {
		order = append(order, "second")
		assert.Equal(t, "renamed", doc["id"])
		return nil
	})

	def, err := DecodeDefinition(strings.NewReader(yamlDefinition), FormatYAML, WithMigrator(first), WithMigrator(second))
	require.NoError(t, err)
	assert.Equal(t, "renamed", def.ID)
	assert.Equal(t, []string{"first", "second"}, order)

	failing := MigratorFunc(func(map[string]any) error { return assert.AnError })
	_, err = DecodeDefinition(strings.NewReader(yamlDefinition), FormatYAML, WithMigrator(failing))
	require.ErrorIs(t, err, ErrMigration)
	require.ErrorIs(t, err, assert.AnError)
}

func TestLegacyMigrator(t *testing.T) {
	legacy := `{
	  "id": "old-1",
	  "question": "Which sounds like /k/?",
	  "options": ["cat", "sun", "kite"],
	  "correctAnswers": ["cat", "opt-3"],
	  "multiSelect": true,
	  "timeLimitSeconds": 45,
	  "hints": ["Listen to the first sound"]
	}`

	def, err := DecodeDefinition(strings.NewReader(legacy), FormatJSON, WithMigrator(LegacyMigrator{}))
	require.NoError(t, err)
	assert.Equal(t, "selection", def.Type)
	assert.Equal(t, "Which sounds like /k/?", def.Content.Question)
	require.Len(t, def.Content.Options, 3)
	assert.Equal(t, exercise.Option{ID: "opt-2", Value: "sun"}, def.Content.Options[1])
	assert.Equal(t, []string{"opt-1", "opt-3"}, def.Solution.Correct)
	assert.Equal(t, []string{"Listen to the first sound"}, def.Solution.Hints)
	assert.Equal(t, exercise.SelectionMultiple, def.Settings.SelectionMode)
	assert.Equal(t, 45*time.Second, def.Settings.TimeLimit)

	_, err = DecodeDefinition(strings.NewReader(`{"id": "x", "question": "q", "options": ["a"], "correctAnswers": ["z"]}`),
		FormatJSON, WithMigrator(LegacyMigrator{}))
	require.ErrorIs(t, err, ErrMigration)

	// nested documents pass through untouched
	def, err = DecodeDefinition(strings.NewReader(yamlDefinition), FormatYAML, WithMigrator(LegacyMigrator{}))
	require.NoError(t, err)
	assert.Equal(t, "rhyme-1", def.ID)
}

func TestFileFeedersFeedKey(t *testing.T) {
	var content exercise.Content
	require.NoError(t, NewYamlFeeder(writeFile(t, "d.yaml", yamlDefinition)).FeedKey("content", &content))
	assert.Equal(t, "Which words rhyme with cat?", content.Question)

	var settings exercise.Settings
	require.NoError(t, NewJSONFeeder(writeFile(t, "d.json", jsonDefinition)).FeedKey("settings", &settings))
	assert.Equal(t, 3, settings.MaxAttempts)

	var solution exercise.Solution
	require.NoError(t, NewTomlFeeder(writeFile(t, "d.toml", tomlDefinition)).FeedKey("solution", &solution))
	assert.Equal(t, []string{"a"}, solution.Correct)

	var missing exercise.Settings
	require.NoError(t, NewTomlFeeder(writeFile(t, "e.toml", tomlDefinition)).FeedKey("settings", &missing))
	assert.Zero(t, missing)

	require.ErrorIs(t, NewYamlFeeder("").Feed(&content), ErrEmptyPath)
}
