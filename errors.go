package exercise

import (
	"errors"
	"fmt"
	"time"
)

// Runtime errors
var (
	// Construction errors
	ErrVariantNil       = errors.New("variant is nil")
	ErrDefinitionNil    = errors.New("definition is nil")
	ErrVariantMismatch  = errors.New("definition type does not match variant type")
	ErrRuntimeDestroyed = errors.New("runtime has been destroyed")

	// Error taxonomy sentinels. RuntimeError values match these with errors.Is.
	ErrInitialization = errors.New("initialization failed")
	ErrValidation     = errors.New("answer validation failed")
	ErrPlugin         = errors.New("plugin failed")
	ErrListener       = errors.New("listener failed")
	ErrPlayback       = errors.New("playback failed")
	ErrMedia          = errors.New("media preload failed")

	// Plugin registry errors
	ErrPluginNameEmpty         = errors.New("plugin name is empty")
	ErrPluginNil               = errors.New("plugin is nil")
	ErrPluginAlreadyRegistered = errors.New("plugin already registered")

	// Playback errors
	ErrPlaybackBusy       = errors.New("playback already in progress")
	ErrNoSpeaker          = errors.New("no audio speaker configured")
	ErrNothingToPlay      = errors.New("variant has no speech for the request")
	ErrSchemaInvalid      = errors.New("definition does not satisfy schema")
	ErrUnsupportedAnswer  = errors.New("unsupported answer type")
	ErrObserverNil        = errors.New("observer is nil")
	ErrRecoveredPanic     = errors.New("recovered panic")
	ErrUnknownEventKind   = errors.New("unknown event kind")
	ErrNotImplemented     = errors.New("variant does not implement capability")
	ErrSelectionModeValue = errors.New("selection mode must be single or multiple")
)

// ErrorKind classifies a caught error.
type ErrorKind string

const (
	ErrorKindInitialization ErrorKind = "initialization"
	ErrorKindValidation     ErrorKind = "validation"
	ErrorKindPlugin         ErrorKind = "plugin"
	ErrorKindListener       ErrorKind = "listener"
	ErrorKindPlayback       ErrorKind = "playback"
	ErrorKindMedia          ErrorKind = "media"
)

var kindSentinels = map[ErrorKind]error{
	ErrorKindInitialization: ErrInitialization,
	ErrorKindValidation:     ErrValidation,
	ErrorKindPlugin:         ErrPlugin,
	ErrorKindListener:       ErrListener,
	ErrorKindPlayback:       ErrPlayback,
	ErrorKindMedia:          ErrMedia,
}

// RuntimeError is the error recorded in the runtime state and carried by
// EventError. Context names the operation that failed ("submitAnswer",
// "plugin:timer-hud", ...).
type RuntimeError struct {
	Kind      ErrorKind
	Context   string
	Err       error
	Timestamp time.Time
}

func newRuntimeError(kind ErrorKind, context string, err error) *RuntimeError {
	return &RuntimeError{
		Kind:      kind,
		Context:   context,
		Err:       err,
		Timestamp: time.Now(),
	}
}

func (e *RuntimeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error in %s", e.Kind, e.Context)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Context, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *RuntimeError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// recoveredError converts a recovered panic value into an error.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %w", ErrRecoveredPanic, err)
	}
	return fmt.Errorf("%w: %v", ErrRecoveredPanic, r)
}
