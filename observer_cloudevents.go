package taskapi

import (
	"errors"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// NewCloudEvent creates a new CloudEvent with an id, source, type, time and
// optional JSON data. Metadata entries become CloudEvent extensions.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event
}

// generateEventID generates a time-ordered identifier using UUIDv7.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates that a CloudEvent conforms to the specification.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

// HandleEventEmissionError standardizes how modules treat emission failures.
// A missing subject is silently ignored; other errors are logged at debug level.
// It returns false only when the error was not handled.
func HandleEventEmissionError(err error, logger Logger, moduleName, eventType string) bool {
	if errors.Is(err, ErrNoSubjectForEventEmission) {
		return true
	}

	if logger != nil {
		logger.Debug("Failed to emit event", "module", moduleName, "eventType", eventType, "error", err)
		return true
	}

	return false
}
