package exercise

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const fakeType = "fake"

var errFakeValidation = errors.New("fake validation failure")

// fakeVariant scores []string answers against Solution.Correct.
type fakeVariant struct {
	mu       sync.Mutex
	err      error
	panicMsg string
	score    *float64

	// gate, when set, blocks ValidateAnswer until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

func (v *fakeVariant) Type() string { return fakeType }

func (v *fakeVariant) ValidateAnswer(ctx context.Context, def *Definition, answer Answer) (ValidationResult, error) {
	v.mu.Lock()
	gate, entered, err, panicMsg := v.gate, v.entered, v.err, v.panicMsg
	v.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	if err != nil {
		return ValidationResult{}, err
	}
	ids, _ := answer.([]string)
	hits := 0
	for _, id := range ids {
		if slices.Contains(def.Solution.Correct, id) {
			hits++
		}
	}
	exact := hits == len(def.Solution.Correct) && len(ids) == hits
	return ValidationResult{
		IsCorrect:          exact,
		IsPartiallyCorrect: !exact && hits > 0 && def.Solution.PartialCredit,
		CorrectSet:         slices.Clone(def.Solution.Correct),
		Explanation:        "because",
	}, nil
}

func (v *fakeVariant) CalculateScore(ctx context.Context, def *Definition, answer Answer) (float64, error) {
	v.mu.Lock()
	override := v.score
	v.mu.Unlock()
	if override != nil {
		return *override, nil
	}
	res, _ := v.ValidateAnswer(ctx, def, answer)
	if res.IsCorrect {
		return 100, nil
	}
	return 0, nil
}

func (v *fakeVariant) Project(def *Definition) Projection {
	p := Projection{ExerciseID: def.ID, Type: def.Type, Question: def.Content.Question}
	for i, opt := range def.Content.Options {
		p.Options = append(p.Options, OptionView{ID: opt.ID, Label: opt.Value, Position: i})
	}
	return p
}

func (v *fakeVariant) CurrentAnswer(def *Definition, selected []string) Answer {
	out := slices.Clone(selected)
	slices.Sort(out)
	return out
}

func (v *fakeVariant) SpeechFor(def *Definition, optionID string) (string, bool) {
	opt, ok := def.Option(optionID)
	return opt.Value, ok
}

func (v *fakeVariant) SpeechAll(def *Definition) []string {
	var out []string
	for _, opt := range def.Content.Options {
		out = append(out, opt.Value)
	}
	return out
}

// block makes the next ValidateAnswer wait until the returned release is called.
func (v *fakeVariant) block() (entered <-chan struct{}, release func()) {
	gate := make(chan struct{})
	in := make(chan struct{})
	v.mu.Lock()
	v.gate = gate
	v.entered = in
	v.mu.Unlock()
	return in, func() {
		v.mu.Lock()
		v.gate = nil
		v.entered = nil
		v.mu.Unlock()
		close(gate)
	}
}

func fakeDefinition() *Definition {
	return &Definition{
		ID:   "ex-1",
		Type: fakeType,
		Content: Content{
			Question: "Which are fruit?",
			Options: []Option{
				{ID: "a", Value: "apple"},
				{ID: "b", Value: "bread"},
				{ID: "c", Value: "cherry"},
			},
		},
		Solution: Solution{Correct: []string{"a"}, Hints: []string{"It is red", "It grows on trees"}},
	}
}

type testRuntime struct {
	*Runtime
	variant   *fakeVariant
	ticks     *ManualTickSource
	events    *eventLog
	announcer *recordingAnnouncer
}

func newTestRuntime(t *testing.T, def *Definition, cfg Config, opts ...RuntimeOption) *testRuntime {
	t.Helper()
	variant := &fakeVariant{}
	ticks := NewManualTickSource()
	announcer := &recordingAnnouncer{}
	all := append([]RuntimeOption{WithTickSource(ticks), WithAnnouncer(announcer)}, opts...)
	rt, err := NewRuntime(def, cfg, variant, all...)
	require.NoError(t, err)
	events := &eventLog{}
	require.NoError(t, rt.Events().RegisterObserver(events))
	t.Cleanup(rt.Destroy)
	return &testRuntime{Runtime: rt, variant: variant, ticks: ticks, events: events, announcer: announcer}
}

// running returns a runtime that has been initialized and started.
func running(t *testing.T, def *Definition, opts ...RuntimeOption) *testRuntime {
	t.Helper()
	rt := newTestRuntime(t, def, DefaultConfig(), opts...)
	require.NoError(t, rt.Initialize(context.Background()))
	rt.Start()
	require.Equal(t, PhaseRunning, rt.Phase())
	return rt
}

// eventLog records every event it observes.
// handlerLog is a TickSource that keeps every handler it was started with
// so a test can fire a tick from an earlier run.
type handlerLog struct {
	handlers []func()
}

func (h *handlerLog) Start(handler func()) { h.handlers = append(h.handlers, handler) }
func (h *handlerLog) Stop()                {}
func (h *handlerLog) fire(run int)         { h.handlers[run]() }

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) OnEvent(_ context.Context, event Event) error {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
	return nil
}

func (l *eventLog) ObserverID() string { return "test-event-log" }

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

func (l *eventLog) count(kind EventKind) int {
	n := 0
	for _, k := range l.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (l *eventLog) last(kind EventKind) (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Kind == kind {
			return l.events[i], true
		}
	}
	return Event{}, false
}

func (l *eventLog) errors() []ErrorPayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ErrorPayload
	for _, ev := range l.events {
		if p, ok := ev.Payload.(ErrorPayload); ok {
			out = append(out, p)
		}
	}
	return out
}

type announcement struct {
	Message  string
	Priority Priority
}

type recordingAnnouncer struct {
	mu   sync.Mutex
	msgs []announcement
}

func (a *recordingAnnouncer) Announce(message string, priority Priority) {
	a.mu.Lock()
	a.msgs = append(a.msgs, announcement{message, priority})
	a.mu.Unlock()
}

func (a *recordingAnnouncer) messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.msgs))
	for i, m := range a.msgs {
		out[i] = m.Message
	}
	return out
}

type panickingSink struct{ calls int }

func (s *panickingSink) TrackEvent(context.Context, string, map[string]any) error {
	s.calls++
	panic("sink exploded")
}

type schemaFunc func(ctx context.Context, def *Definition) SchemaResult

func (f schemaFunc) Validate(ctx context.Context, def *Definition) SchemaResult { return f(ctx, def) }

type mediaFunc func(ctx context.Context, refs []MediaRef) error

func (f mediaFunc) Preload(ctx context.Context, refs []MediaRef) error { return f(ctx, refs) }

// blockingSpeaker blocks Play until ctx is canceled or release is closed.
type blockingSpeaker struct {
	mu       sync.Mutex
	played   []string
	started  chan string
	release  chan struct{}
	err      error
	canceled int
}

func newBlockingSpeaker() *blockingSpeaker {
	return &blockingSpeaker{started: make(chan string, 16), release: make(chan struct{})}
}

func (s *blockingSpeaker) Play(ctx context.Context, text string, _ SpeechOptions) error {
	s.mu.Lock()
	s.played = append(s.played, text)
	err := s.err
	s.mu.Unlock()
	s.started <- text
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
		return nil
	}
}

func (s *blockingSpeaker) Cancel() {
	s.mu.Lock()
	s.canceled++
	s.mu.Unlock()
}

type fakeInput struct {
	mu       sync.Mutex
	handler  InputHandler
	unbounds int
}

func (in *fakeInput) Bind(handler InputHandler) func() {
	in.mu.Lock()
	in.handler = handler
	in.mu.Unlock()
	return func() {
		in.mu.Lock()
		in.handler = nil
		in.unbounds++
		in.mu.Unlock()
	}
}

func (in *fakeInput) press(keys ...string) {
	for _, k := range keys {
		in.mu.Lock()
		h := in.handler
		in.mu.Unlock()
		if h != nil {
			h(k)
		}
	}
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting")
		return ""
	}
}
