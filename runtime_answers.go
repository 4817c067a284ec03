package exercise

import (
	"context"
	"math"
	"slices"
	"strconv"
	"time"
)

// Submission is the outcome of an accepted SubmitAnswer call.
type Submission struct {
	Answer    Answer
	Result    ValidationResult
	Score     float64
	Attempt   int
	Completed bool
}

// SelectOption toggles id in the selected set. It only acts while Running.
//
// In single mode a new id replaces the current selection and selecting the
// current id clears it. In multiple mode ids toggle, and a selection that
// would exceed Definition.SelectionBound is ignored without an event.
// Unknown ids are ignored.
func (r *Runtime) SelectOption(id string) {
	r.mu.Lock()
	s := &r.state
	if s.phase != PhaseRunning {
		r.mu.Unlock()
		return
	}
	opt, ok := r.def.Option(id)
	if !ok {
		r.mu.Unlock()
		r.logger.Debug("Ignoring unknown option", "option", id)
		return
	}

	var action InteractionAction
	switch {
	case s.isSelected(id):
		action = ActionDeselect
		s.selected = slices.DeleteFunc(s.selected, func(sel string) bool { return sel == id })
	case r.def.Settings.SelectionMode != SelectionMultiple:
		action = ActionSelect
		s.selected = []string{id}
	case len(s.selected) >= r.def.SelectionBound():
		r.mu.Unlock()
		r.logger.Debug("Selection bound reached", "option", id, "bound", r.def.SelectionBound())
		return
	default:
		action = ActionSelect
		s.selected = append(s.selected, id)
	}
	payload := InteractionPayload{
		Action:   action,
		OptionID: id,
		Selected: slices.Clone(s.selected),
	}
	r.mu.Unlock()

	ctx := context.Background()
	r.dispatch(ctx, []Event{NewEvent(EventUserInteraction, payload)})

	key := MsgOptionSelected
	if action == ActionDeselect {
		key = MsgOptionDeselected
	}
	label := opt.Label
	if label == "" {
		label = opt.Value
	}
	r.announce(key, map[string]any{"option": label}, PriorityPolite)
	r.track(ctx, "option_"+string(action)+"ed", map[string]any{"optionId": id, "selected": len(payload.Selected)})
}

// SubmitAnswer validates and scores answer. A nil answer is derived from
// the current selection through the variant.
//
// It returns nil without touching the state when the runtime is not Running,
// is already completed, or another submission is in flight. Validation
// errors and panics are reported as error events and also yield nil.
func (r *Runtime) SubmitAnswer(ctx context.Context, answer Answer) *Submission {
	r.mu.Lock()
	s := &r.state
	if s.phase != PhaseRunning || s.completed || s.loading {
		r.mu.Unlock()
		return nil
	}
	s.loading = true
	epoch := r.epoch
	selected := slices.Clone(s.selected)
	r.mu.Unlock()

	result, score, resolved, err := r.evaluate(ctx, answer, selected)

	r.mu.Lock()
	if r.epoch != epoch {
		// Reset or Destroy replaced the state this submission belongs to.
		r.mu.Unlock()
		return nil
	}
	s.loading = false
	if err != nil {
		r.mu.Unlock()
		r.handleError(ctx, ErrorKindValidation, "submitAnswer", err)
		return nil
	}

	s.attempts++
	if result.IsCorrect {
		s.correct++
	}
	s.score = score
	s.accuracy = float64(s.correct) / float64(s.attempts) * 100
	fb := result
	s.feedback = &fb

	s.history = append(s.history, AnswerRecord{
		Attempt:     s.attempts,
		Answer:      resolved,
		Result:      result,
		Score:       score,
		SubmittedAt: time.Now(),
	})
	if over := len(s.history) - r.cfg.MaxHistory; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}

	sub := &Submission{Answer: resolved, Result: result, Score: score, Attempt: s.attempts}
	events := []Event{NewEvent(EventAnswerSubmitted, SubmissionPayload{
		Answer:   resolved,
		Result:   result,
		Score:    score,
		Attempts: s.attempts,
		Accuracy: s.accuracy,
	})}

	settings := r.def.Settings
	if result.IsCorrect || !settings.AllowMultipleAttempts ||
		(settings.MaxAttempts > 0 && s.attempts >= settings.MaxAttempts) {
		events = append(events, r.completeLocked(CompletionAnswered))
		sub.Completed = true
	}
	results := r.resultsLocked()
	r.mu.Unlock()

	r.logger.Debug("Answer submitted", "attempt", sub.Attempt, "correct", result.IsCorrect, "score", score)
	r.dispatch(ctx, events)
	r.announceFeedback(result, score)
	r.track(ctx, "answer_submitted", map[string]any{
		"attempt":   sub.Attempt,
		"correct":   result.IsCorrect,
		"partial":   result.IsPartiallyCorrect,
		"score":     score,
		"completed": sub.Completed,
	})
	if sub.Completed {
		r.finished(ctx, results)
	}
	return sub
}

// evaluate runs the variant outside the state lock.
func (r *Runtime) evaluate(ctx context.Context, answer Answer, selected []string) (result ValidationResult, score float64, resolved Answer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoveredError(rec)
		}
	}()

	resolved = answer
	if resolved == nil {
		resolved = r.variant.CurrentAnswer(r.def, selected)
	}
	if result, err = r.variant.ValidateAnswer(ctx, r.def, resolved); err != nil {
		return result, 0, resolved, err
	}
	if score, err = r.variant.CalculateScore(ctx, r.def, resolved); err != nil {
		return result, 0, resolved, err
	}
	if math.IsNaN(score) {
		score = 0
	}
	score = min(max(score, 0), 100)

	if loc, ok := r.variant.(Localizable); ok {
		result.Explanation = loc.LocalizeExplanation(r.def, result, r.localizer)
	}
	return result, score, resolved, nil
}

func (r *Runtime) announceFeedback(result ValidationResult, score float64) {
	params := map[string]any{
		"score":       formatScore(score),
		"explanation": result.Explanation,
	}
	switch {
	case result.IsCorrect:
		r.announce(MsgFeedbackCorrect, params, PriorityAssertive)
	case result.IsPartiallyCorrect:
		r.announce(MsgFeedbackPartial, params, PriorityAssertive)
	default:
		r.announce(MsgFeedbackIncorrect, params, PriorityAssertive)
	}
}

// ShowHint reveals the next unused hint while Running. It returns false
// once every hint has been shown.
func (r *Runtime) ShowHint() (string, bool) {
	r.mu.Lock()
	s := &r.state
	hints := r.def.Solution.Hints
	if s.phase != PhaseRunning || s.hintsUsed >= len(hints) {
		r.mu.Unlock()
		return "", false
	}
	hint := hints[s.hintsUsed]
	s.hintsUsed++
	payload := HintPayload{
		Hint:      hint,
		Index:     s.hintsUsed - 1,
		HintsUsed: s.hintsUsed,
		Remaining: len(hints) - s.hintsUsed,
	}
	r.mu.Unlock()

	ctx := context.Background()
	r.dispatch(ctx, []Event{NewEvent(EventHintShown, payload)})
	r.announce(MsgHint, map[string]any{"hint": hint}, PriorityPolite)
	r.track(ctx, "hint_shown", map[string]any{"index": payload.Index})
	return hint, true
}

// Key names understood by HandleKey.
const (
	KeyEnter = "enter"
	KeyHint  = "h"
	KeySpace = "space"
)

// HandleKey maps a keyboard key to an action: "1" to "9" select the n-th
// option, "enter" submits the current selection, "h" shows a hint and
// "space" toggles pause. It reports whether the key was recognized.
func (r *Runtime) HandleKey(key string) bool {
	switch key {
	case KeyEnter:
		r.SubmitAnswer(context.Background(), nil)
		return true
	case KeyHint:
		r.ShowHint()
		return true
	case KeySpace:
		switch r.Phase() {
		case PhaseRunning:
			r.Pause()
		case PhasePaused:
			r.Resume()
		}
		return true
	}

	n, err := strconv.Atoi(key)
	if err != nil || n < 1 || n > 9 || n > len(r.def.Content.Options) {
		return false
	}
	r.SelectOption(r.def.Content.Options[n-1].ID)
	return true
}

// Project returns the variant projection with the current selection marked.
func (r *Runtime) Project() Projection {
	p := r.variant.Project(r.def)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range p.Options {
		p.Options[i].Selected = r.state.isSelected(p.Options[i].ID)
	}
	return p
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
