// Package taskapi provides Observer pattern interfaces for event-driven communication.
// Events use the CloudEvents specification so that task lifecycle events can be
// forwarded to external systems without translation.
package taskapi

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer defines the interface for objects that want to be notified of events.
type Observer interface {
	// OnEvent is called when an event occurs that the observer is interested in.
	// Observers should handle events quickly to avoid piling up goroutines.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// Subject defines the interface for objects that can be observed.
type Subject interface {
	// RegisterObserver adds an observer to receive notifications.
	// If eventTypes is empty, the observer receives all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. It is idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers sends an event to all interested observers without
	// blocking on their handlers.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers returns information about currently registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo provides information about a registered observer.
type ObserverInfo struct {
	ID           string    `json:"id"`
	EventTypes   []string  `json:"eventTypes"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// EventType constants for application events, in reverse domain notation.
const (
	EventTypeModuleInitialized = "com.taskapi.module.initialized"
	EventTypeModuleStarted     = "com.taskapi.module.started"
	EventTypeModuleStopped     = "com.taskapi.module.stopped"

	EventTypeConfigLoaded  = "com.taskapi.config.loaded"
	EventTypeConfigChanged = "com.taskapi.config.changed"

	EventTypeApplicationStarted = "com.taskapi.application.started"
	EventTypeApplicationStopped = "com.taskapi.application.stopped"
)

// ObservableModule is an optional interface for modules that emit events or
// observe events emitted by others. RegisterObservers is called once every
// module has been initialized.
type ObservableModule interface {
	Module
	RegisterObservers(subject Subject) error
	EmitEvent(ctx context.Context, event cloudevents.Event) error
}

// FunctionalObserver adapts a plain function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates a new observer that uses the provided function
// to handle events.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
