package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/exercise"
)

func fourOptionDefinition() *exercise.Definition {
	return &exercise.Definition{
		ID:   "rhyme-1",
		Type: Type,
		Content: exercise.Content{
			Question: "Which words rhyme with cat?",
			Options: []exercise.Option{
				{ID: "a", Value: "hat"},
				{ID: "b", Value: "bat", Speech: "b-a-t"},
				{ID: "c", Value: "dog"},
				{ID: "d", Value: "sun", Label: "Sun"},
			},
		},
		Solution: exercise.Solution{
			Correct:       []string{"b", "a"},
			PartialCredit: true,
			Category:      CategoryRhyme,
		},
		Settings: exercise.Settings{
			SelectionMode:      exercise.SelectionMultiple,
			RequiredSelections: 2,
		},
	}
}

func TestNewAnswerNormalizes(t *testing.T) {
	assert.Equal(t, Answer{"a", "b", "c"}, NewAnswer("c", "a", "b", "a"))
	assert.Empty(t, NewAnswer())
}

func TestScoring(t *testing.T) {
	v := New()
	ctx := context.Background()

	tests := []struct {
		name        string
		answer      exercise.Answer
		strict      bool
		partial     bool
		wantScore   float64
		wantCorrect bool
		wantPartial bool
	}{
		{name: "exact match", answer: NewAnswer("a", "b"), partial: true, wantScore: 100, wantCorrect: true},
		{name: "exact match unordered slice", answer: []string{"b", "a"}, partial: true, wantScore: 100, wantCorrect: true},
		{name: "one correct one incorrect", answer: NewAnswer("a", "c"), partial: true, wantScore: 50, wantPartial: true},
		{name: "strict subset", answer: "a", partial: true, wantScore: 50, wantPartial: true},
		{name: "strict mode rejects incorrect member", answer: NewAnswer("a", "c"), partial: true, strict: true, wantScore: 0},
		{name: "strict mode keeps clean subset", answer: NewAnswer("b"), partial: true, strict: true, wantScore: 50, wantPartial: true},
		{name: "partial credit disabled", answer: NewAnswer("a"), wantScore: 0},
		{name: "only incorrect", answer: NewAnswer("c", "d"), partial: true, wantScore: 0},
		{name: "empty", answer: nil, partial: true, wantScore: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := fourOptionDefinition()
			def.Solution.PartialCredit = tt.partial
			def.Solution.StrictPartialCredit = tt.strict

			score, err := v.CalculateScore(ctx, def, tt.answer)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantScore, score, 0.001)

			res, err := v.ValidateAnswer(ctx, def, tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCorrect, res.IsCorrect)
			assert.Equal(t, tt.wantPartial, res.IsPartiallyCorrect)
			assert.Equal(t, []string{"a", "b"}, res.CorrectSet)
		})
	}
}

func TestScoreStaysInRangeForEveryAnswer(t *testing.T) {
	v := New()
	def := fourOptionDefinition()
	ids := []string{"a", "b", "c", "d"}

	for mask := 0; mask < 1<<len(ids); mask++ {
		var answer []string
		for i, id := range ids {
			if mask&(1<<i) != 0 {
				answer = append(answer, id)
			}
		}
		for _, strict := range []bool{false, true} {
			def.Solution.StrictPartialCredit = strict
			score, err := v.CalculateScore(context.Background(), def, answer)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, 0.0, "answer %v", answer)
			assert.LessOrEqual(t, score, 100.0, "answer %v", answer)
		}
	}
}

func TestMalformedAnswers(t *testing.T) {
	v := New()
	def := fourOptionDefinition()

	_, err := v.ValidateAnswer(context.Background(), def, 42)
	require.ErrorIs(t, err, exercise.ErrUnsupportedAnswer)

	_, err = v.CalculateScore(context.Background(), def, []string{"zzz"})
	require.ErrorIs(t, err, ErrUnknownOption)
}

func TestExplanationUsesCategoryTemplate(t *testing.T) {
	v := New()
	def := fourOptionDefinition()

	res, err := v.ValidateAnswer(context.Background(), def, NewAnswer("a"))
	require.NoError(t, err)
	assert.Equal(t, "hat and bat rhyme.", res.Explanation)

	def.Solution.Category = "unknown-category"
	res, err = v.ValidateAnswer(context.Background(), def, NewAnswer("a"))
	require.NoError(t, err)
	assert.Equal(t, "The correct answer is hat and bat.", res.Explanation)

	custom := New(WithTemplate(CategoryRhyme, "Rhymes: {answers}"))
	def.Solution.Category = CategoryRhyme
	res, err = custom.ValidateAnswer(context.Background(), def, NewAnswer("a"))
	require.NoError(t, err)
	assert.Equal(t, "Rhymes: hat and bat", res.Explanation)
}

func TestExplanationUsesOptionValues(t *testing.T) {
	def := fourOptionDefinition()
	def.Solution.Correct = []string{"d"}
	def.Solution.Category = ""

	res, err := New().ValidateAnswer(context.Background(), def, NewAnswer("d"))
	require.NoError(t, err)
	assert.Equal(t, "The correct answer is sun.", res.Explanation, "labels are display text only")
}

func TestLocalizeExplanation(t *testing.T) {
	v := New()
	def := fourOptionDefinition()

	loc := exercise.NewStaticLocalizer("es", map[string]string{
		"explanation.rhyme": "{answers} riman.",
		"explanation.and":   "y",
	})
	assert.Equal(t, "hat y bat riman.", v.LocalizeExplanation(def, exercise.ValidationResult{}, loc))

	// unknown key falls back to the template table
	def.Solution.Category = CategorySynonym
	assert.Equal(t, "hat y bat mean the same thing.", v.LocalizeExplanation(def, exercise.ValidationResult{}, loc))
}

func TestProject(t *testing.T) {
	def := fourOptionDefinition()
	def.Content.Options[2].Media = &exercise.MediaRef{Kind: "audio", URI: "dog.mp3"}

	p := New().Project(def)
	assert.Equal(t, "rhyme-1", p.ExerciseID)
	assert.Equal(t, Type, p.Type)
	assert.Equal(t, exercise.SelectionMultiple, p.SelectionMode)
	assert.Equal(t, 2, p.RequiredSelections)
	require.Len(t, p.Options, 4)
	assert.Equal(t, "Sun", p.Options[3].Label)
	assert.Equal(t, 1, p.Options[0].Position)
	assert.False(t, p.Options[0].HasAudio)
	assert.True(t, p.Options[1].HasAudio)
	assert.True(t, p.Options[2].HasAudio)
	assert.Equal(t, CategoryRhyme, p.Attributes["category"])
	assert.Equal(t, "0", p.Attributes["hints"])
}

func TestSpeech(t *testing.T) {
	v := New()
	def := fourOptionDefinition()

	text, ok := v.SpeechFor(def, "b")
	require.True(t, ok)
	assert.Equal(t, "b-a-t", text)

	_, ok = v.SpeechFor(def, "missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"hat", "b-a-t", "dog", "Sun"}, v.SpeechAll(def))
}

func TestCurrentAnswer(t *testing.T) {
	got := New().CurrentAnswer(fourOptionDefinition(), []string{"d", "a"})
	assert.Equal(t, Answer{"a", "d"}, got)
}
