// Package analytics provides exercise.AnalyticsSink implementations. Events
// are converted to CloudEvents and written to one or more output targets.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/GoCodeAlone/exercise"
)

// TypePrefix prefixes analytics event names to form CloudEvent types.
const TypePrefix = "com.exercise.analytics."

// Sink writes analytics events to output targets as CloudEvents.
type Sink struct {
	source  string
	targets []OutputTarget
	logger  exercise.Logger
}

// NewSink creates a sink. source becomes the CloudEvents source attribute.
func NewSink(source string, logger exercise.Logger, targets ...OutputTarget) *Sink {
	if logger == nil {
		logger = exercise.NopLogger()
	}
	return &Sink{source: source, targets: targets, logger: logger}
}

// NewSinkFromConfig builds targets from configs.
func NewSinkFromConfig(source string, logger exercise.Logger, configs ...OutputConfig) (*Sink, error) {
	targets := make([]OutputTarget, 0, len(configs))
	for i, cfg := range configs {
		if err := exercise.ValidateConfig(&cfg); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		t, err := NewOutputTarget(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		targets = append(targets, t)
	}
	return NewSink(source, logger, targets...), nil
}

// Start starts every target.
func (s *Sink) Start(ctx context.Context) error {
	for _, t := range s.targets {
		if err := t.Start(ctx); err != nil {
			return fmt.Errorf("failed to start output target: %w", err)
		}
	}
	return nil
}

// Stop flushes and stops every target, returning the joined errors.
func (s *Sink) Stop(ctx context.Context) error {
	var errs []error
	for _, t := range s.targets {
		if err := t.Flush(); err != nil {
			errs = append(errs, err)
		}
		if err := t.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TrackEvent implements exercise.AnalyticsSink.
func (s *Sink) TrackEvent(_ context.Context, name string, payload map[string]any) error {
	ext := map[string]any{}
	if sid, ok := payload["sessionId"].(string); ok {
		ext["sessionid"] = sid
	}
	ce := exercise.NewCloudEvent(TypePrefix+name, s.source, payload, ext)
	if id, ok := payload["exerciseId"].(string); ok {
		ce.SetSubject(id)
	}
	return s.write(ce.Type(), func(t OutputTarget) error { return t.WriteEvent(ce) })
}

func (s *Sink) write(eventType string, fn func(OutputTarget) error) error {
	var errs []error
	for _, t := range s.targets {
		if err := fn(t); err != nil {
			s.logger.Debug("Analytics output failed", "event", eventType, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Forwarder is an exercise.Observer that writes runtime events to the
// sink's targets unchanged.
type Forwarder struct {
	sink       *Sink
	exerciseID string
}

// Forwarder returns an observer forwarding runtime events for exerciseID.
func (s *Sink) Forwarder(exerciseID string) *Forwarder {
	return &Forwarder{sink: s, exerciseID: exerciseID}
}

// OnEvent implements exercise.Observer.
func (f *Forwarder) OnEvent(_ context.Context, event exercise.Event) error {
	ce := exercise.ToCloudEvent(event, f.sink.source, f.exerciseID)
	if err := exercise.ValidateCloudEvent(ce); err != nil {
		return err
	}
	return f.sink.write(ce.Type(), func(t OutputTarget) error { return t.WriteEvent(ce) })
}

// ObserverID implements exercise.Observer.
func (f *Forwarder) ObserverID() string {
	return "analytics-forwarder:" + f.exerciseID
}

// Record is one event captured by a Recorder.
type Record struct {
	Name    string
	Payload map[string]any
	At      time.Time
}

// Recorder keeps analytics events in memory.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	// Err, when set, is returned from every TrackEvent call after recording.
	Err error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// TrackEvent implements exercise.AnalyticsSink.
func (r *Recorder) TrackEvent(_ context.Context, name string, payload map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Name: name, Payload: maps.Clone(payload), At: time.Now()})
	return r.Err
}

// Records returns a copy of the captured events.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Names returns the captured event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.records))
	for i, rec := range r.records {
		names[i] = rec.Name
	}
	return names
}

// Count returns how many events named name were captured.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Name == name {
			n++
		}
	}
	return n
}

// Reset drops all captured events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}
