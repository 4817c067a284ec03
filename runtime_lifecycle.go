package exercise

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Initialize validates the definition, preloads media, binds input,
// initializes registered plugins and opens an analytics session. It is a
// no-op unless the runtime is Uninitialized.
//
// Schema and media failures are reported as error events and do not block
// initialization unless Config.StrictValidation or Config.RequireMedia is
// set, in which case the runtime returns to Uninitialized and the
// initialization error is returned.
func (r *Runtime) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.state.phase != PhaseUninitialized {
		r.mu.Unlock()
		return nil
	}
	r.state.phase = PhaseInitializing
	r.state.loading = true
	epoch := r.epoch
	r.mu.Unlock()

	r.logger.Info("Initializing exercise")
	payload := InitializedPayload{ExerciseID: r.def.ID, SessionID: r.sessionID}

	if r.schema != nil {
		res := r.validateSchema(ctx)
		payload.SchemaWarnings = res.Warnings
		for _, w := range res.Warnings {
			r.logger.Warn("Schema warning", "warning", w)
		}
		if !res.Success {
			err := fmt.Errorf("%w: %s", ErrSchemaInvalid, strings.Join(res.Errors, "; "))
			if r.cfg.StrictValidation {
				return r.abortInitialize(ctx, epoch, "initialize:schema", err)
			}
			payload.SchemaErrors = res.Errors
			r.logger.Warn("Definition failed schema validation, continuing", "errors", res.Errors)
			r.handleError(ctx, ErrorKindInitialization, "initialize:schema", err)
		}
	}

	if refs := r.def.MediaRefs(); r.media != nil && len(refs) > 0 {
		if err := r.preloadMedia(ctx, refs); err != nil {
			if r.cfg.RequireMedia {
				return r.abortInitialize(ctx, epoch, "initialize:media", fmt.Errorf("%w: %w", ErrMedia, err))
			}
			payload.MediaFailed = true
			r.handleError(ctx, ErrorKindMedia, "initialize:media", err)
		}
	}

	if r.stale(epoch) {
		r.logger.Debug("Runtime destroyed during initialization, discarding result")
		return nil
	}

	if r.input != nil {
		unbind := r.input.Bind(func(key string) { r.HandleKey(key) })
		r.mu.Lock()
		r.unbind = unbind
		r.mu.Unlock()
	}

	r.initPendingPlugins(ctx)

	r.mu.Lock()
	if r.epoch != epoch || r.state.phase != PhaseInitializing {
		r.mu.Unlock()
		return nil
	}
	r.state.phase = PhaseReady
	r.state.loading = false
	r.mu.Unlock()

	// plugins registered while Initialize was running
	r.initPendingPlugins(ctx)

	r.track(ctx, "session_started", map[string]any{
		"type":           r.def.Type,
		"locale":         r.localizer.Locale(),
		"schemaWarnings": len(payload.SchemaWarnings),
		"mediaFailed":    payload.MediaFailed,
	})
	r.logger.Info("Exercise ready")
	r.dispatch(ctx, []Event{NewEvent(EventInitialized, payload)})
	return nil
}

func (r *Runtime) abortInitialize(ctx context.Context, epoch uint64, where string, err error) error {
	r.mu.Lock()
	if r.epoch == epoch && r.state.phase == PhaseInitializing {
		r.state.phase = PhaseUninitialized
		r.state.loading = false
	}
	r.mu.Unlock()
	return r.handleError(ctx, ErrorKindInitialization, where, err)
}

func (r *Runtime) validateSchema(ctx context.Context) (res SchemaResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = SchemaResult{Errors: []string{recoveredError(rec).Error()}}
		}
	}()
	return r.schema.Validate(ctx, r.def)
}

func (r *Runtime) preloadMedia(ctx context.Context, refs []MediaRef) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recoveredError(rec)
		}
	}()
	return r.media.Preload(ctx, refs)
}

// stale reports whether Reset or Destroy ran since epoch was read.
func (r *Runtime) stale(epoch uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch != epoch || r.state.phase == PhaseDestroyed
}

// Start moves a Ready runtime to Running and starts the timer.
func (r *Runtime) Start() {
	r.mu.Lock()
	if r.state.phase != PhaseReady {
		r.mu.Unlock()
		return
	}
	r.state.phase = PhaseRunning
	r.state.started = true
	r.state.startedAt = time.Now()
	epoch := r.epoch
	r.ticks.Start(func() { r.onTick(epoch) })
	r.mu.Unlock()

	ctx := context.Background()
	r.logger.Info("Exercise started")
	r.dispatch(ctx, []Event{NewEvent(EventStarted, r.lifecycle(PhaseReady, PhaseRunning))})
	r.announce(MsgStarted, nil, PriorityPolite)
	r.track(ctx, "exercise_started", nil)
}

// Pause moves a Running runtime to Paused. Ticks are ignored while paused.
func (r *Runtime) Pause() {
	if !r.transition(PhaseRunning, PhasePaused) {
		return
	}
	r.dispatch(context.Background(), []Event{NewEvent(EventPaused, r.lifecycle(PhaseRunning, PhasePaused))})
	r.announce(MsgPaused, nil, PriorityPolite)
}

// Resume moves a Paused runtime back to Running.
func (r *Runtime) Resume() {
	if !r.transition(PhasePaused, PhaseRunning) {
		return
	}
	r.dispatch(context.Background(), []Event{NewEvent(EventResumed, r.lifecycle(PhasePaused, PhaseRunning))})
	r.announce(MsgResumed, nil, PriorityPolite)
}

func (r *Runtime) transition(from, to Phase) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.phase != from {
		return false
	}
	r.state.phase = to
	return true
}

func (r *Runtime) lifecycle(from, to Phase) LifecyclePayload {
	return LifecyclePayload{ExerciseID: r.def.ID, From: from, To: to}
}

// Reset clears the run state and returns to Ready. Plugins, listeners and
// the input binding are kept. It is a no-op before initialization and after
// Destroy.
func (r *Runtime) Reset() {
	r.mu.Lock()
	from := r.state.phase
	switch from {
	case PhaseReady, PhaseRunning, PhasePaused, PhaseCompleted:
	default:
		r.mu.Unlock()
		return
	}
	r.ticks.Stop()
	r.epoch++
	r.state = runState{phase: PhaseReady}
	r.timer.Reset()
	r.mu.Unlock()

	ctx := context.Background()
	r.logger.Info("Exercise reset", "from", from)
	r.dispatch(ctx, []Event{NewEvent(EventReset, r.lifecycle(from, PhaseReady))})
	r.track(ctx, "exercise_reset", map[string]any{"from": from.String()})
}

// onTick advances the timer by one unit while Running. Ticks scheduled
// before the last Reset carry an old epoch and are dropped.
func (r *Runtime) onTick(epoch uint64) {
	r.mu.Lock()
	if r.epoch != epoch || r.state.phase != PhaseRunning {
		r.mu.Unlock()
		return
	}
	payload, expired := r.timer.Advance()
	r.mu.Unlock()

	r.dispatch(context.Background(), []Event{NewEvent(EventTimerTick, payload)})
	if expired {
		r.HandleTimeUp()
	}
}

// HandleTimeUp completes the exercise with CompletionTimeUp. It acts at
// most once per run; later calls and ticks are ignored.
func (r *Runtime) HandleTimeUp() {
	r.mu.Lock()
	s := &r.state
	if s.timeUp || s.completed || (s.phase != PhaseRunning && s.phase != PhasePaused) {
		r.mu.Unlock()
		return
	}
	s.timeUp = true
	events := []Event{NewEvent(EventTimeUp, r.timer.payload())}
	events = append(events, r.completeLocked(CompletionTimeUp))
	results := r.resultsLocked()
	r.mu.Unlock()

	ctx := context.Background()
	r.logger.Info("Time is up", "elapsed", results.TotalTime)
	r.dispatch(ctx, events)
	r.announce(MsgTimeUp, nil, PriorityAssertive)
	r.finished(ctx, results)
}

// Complete ends a Running or Paused exercise with CompletionManual. It is
// idempotent and a no-op in any other phase.
func (r *Runtime) Complete() {
	r.mu.Lock()
	s := &r.state
	if s.completed {
		r.mu.Unlock()
		return
	}
	if s.phase != PhaseRunning && s.phase != PhasePaused {
		r.mu.Unlock()
		return
	}
	ev := r.completeLocked(CompletionManual)
	results := r.resultsLocked()
	r.mu.Unlock()

	ctx := context.Background()
	r.dispatch(ctx, []Event{ev})
	r.finished(ctx, results)
}

// completeLocked marks the run completed and returns the completed event.
// The caller holds r.mu.
func (r *Runtime) completeLocked(reason CompletionReason) Event {
	s := &r.state
	s.completed = true
	s.phase = PhaseCompleted
	s.reason = reason
	s.completedAt = time.Now()
	r.ticks.Stop()
	return NewEvent(EventCompleted, r.resultsLocked())
}

func (r *Runtime) finished(ctx context.Context, results Results) {
	r.logger.Info("Exercise completed", "reason", results.Reason, "score", results.Score, "attempts", results.Attempts)
	r.announce(MsgCompleted, map[string]any{"score": formatScore(results.Score)}, PriorityPolite)
	r.track(ctx, "exercise_completed", map[string]any{
		"reason":    string(results.Reason),
		"score":     results.Score,
		"accuracy":  results.Accuracy,
		"attempts":  results.Attempts,
		"hintsUsed": results.HintsUsed,
		"totalTime": results.TotalTime.String(),
		"timeUp":    results.TimeUp,
	})
}

// Destroy stops the timer, detaches input, cancels playback, destroys every
// plugin and clears all listeners. It is idempotent.
func (r *Runtime) Destroy() {
	r.mu.Lock()
	from := r.state.phase
	if from == PhaseDestroyed {
		r.mu.Unlock()
		return
	}
	r.ticks.Stop()
	r.epoch++
	r.state.phase = PhaseDestroyed
	r.state.loading = false
	unbind := r.unbind
	r.unbind = nil
	plugins := slices.Clone(r.plugins)
	r.plugins = nil
	cancel := r.playCancel
	r.mu.Unlock()

	ctx := context.Background()
	if unbind != nil {
		unbind()
	}
	if cancel != nil {
		cancel()
	}
	if r.speaker != nil {
		r.cancelSpeaker()
	}

	// plugins are torn down in reverse registration order
	for i := len(plugins) - 1; i >= 0; i-- {
		r.destroyPlugin(ctx, plugins[i])
	}

	r.track(ctx, "session_ended", map[string]any{"from": from.String()})
	r.dispatch(ctx, []Event{NewEvent(EventDestroyed, r.lifecycle(from, PhaseDestroyed))})
	r.bus.Clear()
	r.logger.Info("Runtime destroyed")
}
