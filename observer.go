package exercise

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Observer defines the interface for objects that want to be notified of
// runtime events. Observers register with a Subject and are called
// synchronously, in registration order, for every matching event.
type Observer interface {
	// OnEvent is called when an event occurs that the observer is interested in.
	// A returned error or a panic is logged and isolated; it never reaches the
	// emitter or other observers.
	OnEvent(ctx context.Context, event Event) error

	// ObserverID returns a unique identifier for this observer.
	// This ID is used for registration tracking and debugging.
	ObserverID() string
}

// Subject defines the interface for objects that can be observed.
type Subject interface {
	// RegisterObserver adds an observer to receive notifications.
	// If kinds is empty, the observer receives all events. Registering an
	// ID that is already present replaces its filter and keeps its position.
	RegisterObserver(observer Observer, kinds ...EventKind) error

	// UnregisterObserver removes an observer. It is idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers delivers an event to a snapshot of the observers
	// registered when the call began.
	NotifyObservers(ctx context.Context, event Event) error

	// GetObservers returns information about currently registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo provides information about a registered observer.
type ObserverInfo struct {
	ID           string      `json:"id"`
	Kinds        []EventKind `json:"kinds"`
	RegisteredAt time.Time   `json:"registeredAt"`
}

// FunctionalObserver adapts a function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event Event) error
}

// NewFunctionalObserver creates an observer that calls handler for each event.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	kinds        map[EventKind]bool
	registeredAt time.Time
}

func (r *observerRegistration) wants(kind EventKind) bool {
	return len(r.kinds) == 0 || r.kinds[kind]
}

// listenerFailureFunc is called after an observer fails while handling event.
type listenerFailureFunc func(ctx context.Context, event Event, err *RuntimeError)

// EventBus is the runtime's Subject implementation. Delivery is synchronous;
// the observer list is copied before each dispatch so observers added or
// removed by a handler take effect from the next dispatch on.
type EventBus struct {
	mu            sync.RWMutex
	registrations []*observerRegistration
	logger        Logger
	onFailure     listenerFailureFunc
}

// NewEventBus creates an empty bus. A nil logger discards output.
func NewEventBus(logger Logger) *EventBus {
	if logger == nil {
		logger = discardLogger()
	}
	return &EventBus{logger: logger}
}

// RegisterObserver implements Subject.
func (b *EventBus) RegisterObserver(observer Observer, kinds ...EventKind) error {
	if observer == nil {
		return ErrObserverNil
	}

	kindSet := make(map[EventKind]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	reg := &observerRegistration{
		observer:     observer,
		kinds:        kindSet,
		registeredAt: time.Now(),
	}
	for i, existing := range b.registrations {
		if existing.observer.ObserverID() == observer.ObserverID() {
			b.registrations[i] = reg
			b.logger.Debug("Observer re-registered", "observerID", observer.ObserverID(), "kinds", kinds)
			return nil
		}
	}
	b.registrations = append(b.registrations, reg)

	b.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "kinds", kinds)
	return nil
}

// UnregisterObserver implements Subject.
func (b *EventBus) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := observer.ObserverID()
	for i, reg := range b.registrations {
		if reg.observer.ObserverID() == id {
			b.registrations = append(b.registrations[:i:i], b.registrations[i+1:]...)
			b.logger.Debug("Observer unregistered", "observerID", id)
			break
		}
	}
	return nil
}

// NotifyObservers implements Subject. Observer failures are logged and
// reported through the failure hook; they are never returned.
func (b *EventBus) NotifyObservers(ctx context.Context, event Event) error {
	if event.Kind == "" {
		return ErrUnknownEventKind
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	snapshot := make([]*observerRegistration, len(b.registrations))
	copy(snapshot, b.registrations)
	onFailure := b.onFailure
	b.mu.RUnlock()

	for _, reg := range snapshot {
		if !reg.wants(event.Kind) {
			continue
		}
		if err := b.deliver(ctx, reg.observer, event); err != nil {
			b.logger.Error("Observer error", "observerID", reg.observer.ObserverID(), "event", event.Kind, "error", err)
			// failures while delivering an error event are only logged
			if onFailure != nil && event.Kind != EventError {
				onFailure(ctx, event, newRuntimeError(ErrorKindListener, "listener:"+reg.observer.ObserverID(), err))
			}
		}
	}
	return nil
}

func (b *EventBus) deliver(ctx context.Context, observer Observer, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(r)
		}
	}()
	return observer.OnEvent(ctx, event)
}

// GetObservers implements Subject. Observers are listed in registration order.
func (b *EventBus) GetObservers() []ObserverInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	info := make([]ObserverInfo, 0, len(b.registrations))
	for _, reg := range b.registrations {
		kinds := make([]EventKind, 0, len(reg.kinds))
		for k := range reg.kinds {
			kinds = append(kinds, k)
		}
		info = append(info, ObserverInfo{
			ID:           reg.observer.ObserverID(),
			Kinds:        kinds,
			RegisteredAt: reg.registeredAt,
		})
	}
	return info
}

// On registers fn for a single event kind and returns the observer so it can
// be passed to Off.
func (b *EventBus) On(kind EventKind, fn func(ctx context.Context, event Event) error) Observer {
	observer := NewFunctionalObserver(newListenerID(kind), fn)
	// only a nil observer can fail registration
	_ = b.RegisterObserver(observer, kind)
	return observer
}

// Off removes an observer returned by On.
func (b *EventBus) Off(observer Observer) {
	_ = b.UnregisterObserver(observer)
}

// Emit builds an event and delivers it.
func (b *EventBus) Emit(ctx context.Context, kind EventKind, payload any) error {
	return b.NotifyObservers(ctx, NewEvent(kind, payload))
}

// Clear drops every registration.
func (b *EventBus) Clear() {
	b.mu.Lock()
	b.registrations = nil
	b.mu.Unlock()
}

// Len returns the number of registered observers.
func (b *EventBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.registrations)
}

func (b *EventBus) setFailureHook(fn listenerFailureFunc) {
	b.mu.Lock()
	b.onFailure = fn
	b.mu.Unlock()
}

// Listen registers a typed handler for kind on subject. Events whose payload
// is not a P are skipped.
func Listen[P any](subject Subject, kind EventKind, fn func(ctx context.Context, payload P)) (Observer, error) {
	observer := NewFunctionalObserver(newListenerID(kind), func(ctx context.Context, event Event) error {
		payload, ok := event.Payload.(P)
		if !ok {
			return nil
		}
		fn(ctx, payload)
		return nil
	})
	if err := subject.RegisterObserver(observer, kind); err != nil {
		return nil, fmt.Errorf("listen %s: %w", kind, err)
	}
	return observer, nil
}

func newListenerID(kind EventKind) string {
	return string(kind) + "#" + uuid.NewString()
}
