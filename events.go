package exercise

import "time"

// EventKind identifies a runtime event. Values follow the CloudEvents
// reverse domain notation so they can be forwarded unchanged as CloudEvent
// types.
type EventKind string

// Event kinds emitted by the runtime. The payload type carried by each kind
// is noted alongside.
const (
	EventInitialized EventKind = "com.exercise.runtime.initialized" // InitializedPayload
	EventStarted     EventKind = "com.exercise.runtime.started"     // LifecyclePayload
	EventPaused      EventKind = "com.exercise.runtime.paused"      // LifecyclePayload
	EventResumed     EventKind = "com.exercise.runtime.resumed"     // LifecyclePayload
	EventReset       EventKind = "com.exercise.runtime.reset"       // LifecyclePayload
	EventDestroyed   EventKind = "com.exercise.runtime.destroyed"   // LifecyclePayload

	EventUserInteraction EventKind = "com.exercise.interaction"      // InteractionPayload
	EventAnswerSubmitted EventKind = "com.exercise.answer.submitted" // SubmissionPayload
	EventHintShown       EventKind = "com.exercise.hint.shown"       // HintPayload
	EventCompleted       EventKind = "com.exercise.completed"        // Results

	EventTimerTick EventKind = "com.exercise.timer.tick" // TickPayload
	EventTimeUp    EventKind = "com.exercise.timer.up"   // TickPayload

	EventError EventKind = "com.exercise.error" // ErrorPayload

	EventPluginRegistered   EventKind = "com.exercise.plugin.registered"   // PluginPayload
	EventPluginUnregistered EventKind = "com.exercise.plugin.unregistered" // PluginPayload

	EventPlaybackStarted EventKind = "com.exercise.playback.started" // PlaybackPayload
	EventPlaybackEnded   EventKind = "com.exercise.playback.ended"   // PlaybackPayload
)

// Event is an ephemeral notification delivered to observers.
type Event struct {
	Kind      EventKind
	Payload   any
	Timestamp time.Time
}

// NewEvent stamps an event with the current time.
func NewEvent(kind EventKind, payload any) Event {
	return Event{Kind: kind, Payload: payload, Timestamp: time.Now()}
}

// InitializedPayload reports the outcome of Initialize.
type InitializedPayload struct {
	ExerciseID     string   `json:"exerciseId"`
	SessionID      string   `json:"sessionId"`
	SchemaWarnings []string `json:"schemaWarnings,omitempty"`
	SchemaErrors   []string `json:"schemaErrors,omitempty"`
	MediaFailed    bool     `json:"mediaFailed,omitempty"`
}

// LifecyclePayload accompanies phase transitions.
type LifecyclePayload struct {
	ExerciseID string `json:"exerciseId"`
	From       Phase  `json:"from"`
	To         Phase  `json:"to"`
}

// InteractionAction names what a user interaction did.
type InteractionAction string

const (
	ActionSelect   InteractionAction = "select"
	ActionDeselect InteractionAction = "deselect"
)

// InteractionPayload accompanies EventUserInteraction.
type InteractionPayload struct {
	Action   InteractionAction `json:"action"`
	OptionID string            `json:"optionId"`
	Selected []string          `json:"selected"`
}

// SubmissionPayload accompanies EventAnswerSubmitted.
type SubmissionPayload struct {
	Answer   Answer           `json:"answer"`
	Result   ValidationResult `json:"result"`
	Score    float64          `json:"score"`
	Attempts int              `json:"attempts"`
	Accuracy float64          `json:"accuracy"`
}

// HintPayload accompanies EventHintShown.
type HintPayload struct {
	Hint      string `json:"hint"`
	Index     int    `json:"index"`
	HintsUsed int    `json:"hintsUsed"`
	Remaining int    `json:"remaining"`
}

// TickPayload accompanies EventTimerTick and EventTimeUp.
type TickPayload struct {
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"remaining"`
	Limited   bool          `json:"limited"`
}

// ErrorPayload accompanies EventError.
type ErrorPayload struct {
	Kind      ErrorKind `json:"kind"`
	Context   string    `json:"context"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// PluginPayload accompanies plugin registry events.
type PluginPayload struct {
	Name        string `json:"name"`
	Initialized bool   `json:"initialized"`
}

// PlaybackPayload accompanies playback events.
type PlaybackPayload struct {
	OptionID string `json:"optionId,omitempty"`
	All      bool   `json:"all"`
	Items    int    `json:"items"`
	Canceled bool   `json:"canceled,omitempty"`
}

func errorPayload(err *RuntimeError) ErrorPayload {
	return ErrorPayload{
		Kind:      err.Kind,
		Context:   err.Context,
		Message:   err.Error(),
		Timestamp: err.Timestamp,
	}
}
