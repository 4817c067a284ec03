// Package exercise provides a presentation-agnostic runtime for interactive
// learning exercises.
//
// A Runtime drives one exercise Definition through its lifecycle:
//
//	Uninitialized -> Initializing -> Ready -> Running <-> Paused -> Completed -> Destroyed
//
// Answer semantics come from an injected Variant. Everything the runtime
// touches outside its own state (schema validation, localization,
// announcements, analytics, media, speech, keyboard input) is a collaborator
// interface supplied through RuntimeOption values.
//
// Basic usage:
//
//	rt, err := exercise.NewRuntime(def, exercise.DefaultConfig(), selection.New())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer rt.Destroy()
//	if err := rt.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//	rt.Start()
//	rt.SelectOption("a")
//	sub := rt.SubmitAnswer(ctx, nil)
package exercise

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Runtime is the exercise engine. All methods are safe for concurrent use.
// Events are delivered after the state lock is released, so observers may
// call back into the runtime.
type Runtime struct {
	mu sync.Mutex

	def       *Definition
	cfg       Config
	variant   Variant
	sessionID string

	logger    Logger
	bus       *EventBus
	schema    SchemaValidator
	localizer Localizer
	announcer Announcer
	analytics AnalyticsSink
	media     MediaLoader
	speaker   AudioSpeaker
	input     InputSource
	ticks     TickSource

	state runState
	timer *Timer
	// epoch changes on Reset and Destroy so in-flight work can detect that
	// the state it started from is gone.
	epoch  uint64
	unbind func()

	plugins []*pluginEntry

	playMu     sync.Mutex
	playCancel context.CancelFunc
}

// RuntimeOption configures a Runtime during construction.
type RuntimeOption func(*Runtime)

// WithLogger sets the logger.
func WithLogger(logger Logger) RuntimeOption {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSchemaValidator sets the definition validator used by Initialize.
func WithSchemaValidator(v SchemaValidator) RuntimeOption {
	return func(r *Runtime) { r.schema = v }
}

// WithLocalizer sets the localizer.
func WithLocalizer(l Localizer) RuntimeOption {
	return func(r *Runtime) {
		if l != nil {
			r.localizer = l
		}
	}
}

// WithAnnouncer sets the accessibility announcer.
func WithAnnouncer(a Announcer) RuntimeOption {
	return func(r *Runtime) {
		if a != nil {
			r.announcer = a
		}
	}
}

// WithAnalytics sets the analytics sink.
func WithAnalytics(sink AnalyticsSink) RuntimeOption {
	return func(r *Runtime) {
		if sink != nil {
			r.analytics = sink
		}
	}
}

// WithMediaLoader sets the media loader used by Initialize.
func WithMediaLoader(loader MediaLoader) RuntimeOption {
	return func(r *Runtime) { r.media = loader }
}

// WithAudioSpeaker sets the speaker used by PlayOption and PlayAll.
func WithAudioSpeaker(speaker AudioSpeaker) RuntimeOption {
	return func(r *Runtime) { r.speaker = speaker }
}

// WithInputSource sets the keyboard source bound during Initialize.
func WithInputSource(src InputSource) RuntimeOption {
	return func(r *Runtime) { r.input = src }
}

// WithTickSource replaces the default cron tick source.
func WithTickSource(src TickSource) RuntimeOption {
	return func(r *Runtime) {
		if src != nil {
			r.ticks = src
		}
	}
}

// NewRuntime creates a runtime for def. The definition is deep-copied and
// cfg is prepared (defaults applied, then validated).
func NewRuntime(def *Definition, cfg Config, variant Variant, opts ...RuntimeOption) (*Runtime, error) {
	if variant == nil {
		return nil, ErrVariantNil
	}
	if def == nil {
		return nil, ErrDefinitionNil
	}
	if def.Type != variant.Type() {
		return nil, fmt.Errorf("%w: definition %q has type %q, variant is %q", ErrVariantMismatch, def.ID, def.Type, variant.Type())
	}
	if err := cfg.Prepare(); err != nil {
		return nil, err
	}

	clone := def.Clone()
	if err := ProcessConfigDefaults(&clone.Settings); err != nil {
		return nil, fmt.Errorf("settings defaults: %w", err)
	}

	r := &Runtime{
		def:       clone,
		cfg:       cfg,
		variant:   variant,
		sessionID: newSessionID(),
		logger:    discardLogger(),
		announcer: nopAnnouncer{},
		analytics: nopAnalytics{},
		state:     runState{phase: PhaseUninitialized},
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.localizer == nil {
		r.localizer = NewStaticLocalizer(cfg.Locale, nil)
	}
	if r.ticks == nil {
		r.ticks = NewCronTickSource(cfg.TimeUnit)
	}
	r.logger = WithLogValues(r.logger, "exercise", clone.ID, "session", r.sessionID)
	unit := cfg.TimeUnit
	if u, ok := r.ticks.(interface{ Unit() time.Duration }); ok {
		unit = u.Unit()
	}
	r.timer = NewTimer(unit, clone.Settings.TimeLimit)
	r.bus = NewEventBus(r.logger)
	r.bus.setFailureHook(func(ctx context.Context, _ Event, err *RuntimeError) {
		r.reportError(ctx, err)
	})

	r.logger.Debug("Runtime created", "type", clone.Type, "options", len(clone.Content.Options))
	return r, nil
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Definition returns a copy of the runtime's definition.
func (r *Runtime) Definition() *Definition {
	return r.def.Clone()
}

// Config returns the prepared configuration.
func (r *Runtime) Config() Config { return r.cfg }

// SessionID identifies this runtime instance in logs and analytics.
func (r *Runtime) SessionID() string { return r.sessionID }

// Logger returns the runtime's scoped logger.
func (r *Runtime) Logger() Logger { return r.logger }

// Localizer returns the active localizer.
func (r *Runtime) Localizer() Localizer { return r.localizer }

// Events returns the runtime's event bus, for use with Listen.
func (r *Runtime) Events() *EventBus { return r.bus }

// On registers fn for kind and returns the observer to pass to Off.
func (r *Runtime) On(kind EventKind, fn func(ctx context.Context, event Event) error) Observer {
	return r.bus.On(kind, fn)
}

// Off removes an observer. Removing an unknown observer is a no-op.
func (r *Runtime) Off(observer Observer) {
	r.bus.Off(observer)
}

// Emit delivers a custom event through the runtime bus.
func (r *Runtime) Emit(ctx context.Context, kind EventKind, payload any) error {
	return r.bus.Emit(ctx, kind, payload)
}

// State returns a snapshot of the run state.
func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.snapshot(r.timer)
}

// Phase returns the current lifecycle phase.
func (r *Runtime) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.phase
}

// Results returns the aggregated results so far.
func (r *Runtime) Results() Results {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resultsLocked()
}

// History returns the retained answer records, oldest first.
func (r *Runtime) History() []AnswerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AnswerRecord(nil), r.state.history...)
}

func (r *Runtime) resultsLocked() Results {
	s := &r.state
	var total time.Duration
	if !s.startedAt.IsZero() {
		end := s.completedAt
		if end.IsZero() {
			end = time.Now()
		}
		total = end.Sub(s.startedAt)
	}
	return Results{
		ExerciseID:         r.def.ID,
		Score:              s.score,
		Accuracy:           s.accuracy,
		TotalTime:          total,
		Attempts:           s.attempts,
		HintsUsed:          s.hintsUsed,
		CorrectSubmissions: s.correct,
		Reason:             s.reason,
		TimeUp:             s.timeUp,
	}
}

// dispatch delivers events collected under the lock. It must be called
// without holding r.mu.
func (r *Runtime) dispatch(ctx context.Context, events []Event) {
	for _, ev := range events {
		if err := r.bus.NotifyObservers(ctx, ev); err != nil {
			r.logger.Warn("Event dropped", "event", ev.Kind, "error", err)
		}
	}
}

// handleError records err in the state and surfaces it as an error event.
func (r *Runtime) handleError(ctx context.Context, kind ErrorKind, where string, err error) *RuntimeError {
	rerr := newRuntimeError(kind, where, err)
	r.logger.Error("Runtime error", "kind", kind, "context", where, "error", err)
	r.reportError(ctx, rerr)
	return rerr
}

func (r *Runtime) reportError(ctx context.Context, rerr *RuntimeError) {
	r.mu.Lock()
	r.state.err = rerr
	r.mu.Unlock()

	r.track(ctx, "error", map[string]any{
		"kind":    string(rerr.Kind),
		"context": rerr.Context,
		"message": rerr.Error(),
	})
	_ = r.bus.NotifyObservers(ctx, NewEvent(EventError, errorPayload(rerr)))
}

// track forwards an analytics event. Sink failures never reach the caller.
func (r *Runtime) track(ctx context.Context, name string, payload map[string]any) {
	if payload == nil {
		payload = make(map[string]any, 2)
	}
	payload["exerciseId"] = r.def.ID
	payload["sessionId"] = r.sessionID

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Analytics sink panicked", "event", name, "error", recoveredError(rec))
		}
	}()
	if err := r.analytics.TrackEvent(ctx, name, payload); err != nil {
		r.logger.Warn("Analytics event dropped", "event", name, "error", err)
	}
}

// announce translates key and forwards it to the announcer.
func (r *Runtime) announce(key string, params map[string]any, priority Priority) {
	if r.cfg.MuteAnnouncements {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Announcer panicked", "key", key, "error", recoveredError(rec))
		}
	}()
	r.announcer.Announce(r.localizer.Translate(key, params), priority)
}
