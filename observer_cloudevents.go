package exercise

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// NewCloudEvent creates a CloudEvent with a UUIDv7 id and JSON data.
func NewCloudEvent(eventType, source string, data any, extensions map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}

	for key, value := range extensions {
		event.SetExtension(key, value)
	}

	return event
}

// ToCloudEvent converts a runtime event into a CloudEvent. The subject is
// set to the exercise id and the original timestamp is preserved.
func ToCloudEvent(event Event, source, exerciseID string) cloudevents.Event {
	ce := NewCloudEvent(string(event.Kind), source, event.Payload, nil)
	if !event.Timestamp.IsZero() {
		ce.SetTime(event.Timestamp)
	}
	if exerciseID != "" {
		ce.SetSubject(exerciseID)
	}
	return ce
}

// generateEventID generates a unique identifier for CloudEvents using UUIDv7.
// UUIDv7 includes timestamp information which provides time-ordered uniqueness.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent returns an error when event is not a well-formed CloudEvent.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}
