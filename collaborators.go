package exercise

import "context"

// SchemaResult is the outcome of schema validation.
type SchemaResult struct {
	Success  bool
	Errors   []string
	Warnings []string
}

// SchemaValidator checks a definition before the runtime accepts it.
type SchemaValidator interface {
	Validate(ctx context.Context, def *Definition) SchemaResult
}

// Localizer turns message keys into human-readable strings. It is never
// consulted for control flow.
type Localizer interface {
	// Translate returns the message for key with {name} placeholders filled
	// from params. Unknown keys return the key itself.
	Translate(key string, params map[string]any) string
	Locale() string
	IsRTL() bool
}

// Priority of an accessibility announcement.
type Priority string

const (
	PriorityPolite    Priority = "polite"
	PriorityAssertive Priority = "assertive"
)

// Announcer forwards messages to assistive technology. Fire-and-forget.
type Announcer interface {
	Announce(message string, priority Priority)
}

// AnalyticsSink receives analytics events. Errors and panics are swallowed
// by the runtime.
type AnalyticsSink interface {
	TrackEvent(ctx context.Context, name string, payload map[string]any) error
}

// MediaLoader preloads the media an exercise references.
type MediaLoader interface {
	Preload(ctx context.Context, refs []MediaRef) error
}

// SpeechOptions tune a single utterance.
type SpeechOptions struct {
	Locale string
	Rate   float64
}

// AudioSpeaker plays text as speech. Play blocks until the utterance ends
// or ctx is canceled; Cancel stops any utterance in progress.
type AudioSpeaker interface {
	Play(ctx context.Context, text string, opts SpeechOptions) error
	Cancel()
}

// InputHandler receives a normalized key name ("1", "enter", "h", "space").
type InputHandler func(key string)

// InputSource delivers keyboard input. Bind returns a function that detaches
// the handler.
type InputSource interface {
	Bind(handler InputHandler) (unbind func())
}

// LoggerAnnouncer writes announcements to a Logger.
type LoggerAnnouncer struct {
	Logger Logger
}

// Announce implements Announcer.
func (a LoggerAnnouncer) Announce(message string, priority Priority) {
	if a.Logger == nil {
		return
	}
	a.Logger.Info("Announcement", "message", message, "priority", priority)
}

type nopAnnouncer struct{}

func (nopAnnouncer) Announce(string, Priority) {}

type nopAnalytics struct{}

func (nopAnalytics) TrackEvent(context.Context, string, map[string]any) error { return nil }
