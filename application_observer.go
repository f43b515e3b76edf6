package taskapi

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool // empty means all events
	registeredAt time.Time
}

// RegisterObserver adds an observer to receive notifications from the application.
// If eventTypes is empty, the observer receives all events.
func (app *StdApplication) RegisterObserver(observer Observer, eventTypes ...string) error {
	app.observerMu.Lock()
	defer app.observerMu.Unlock()

	eventTypeMap := make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	app.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}

	app.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer from receiving notifications.
func (app *StdApplication) UnregisterObserver(observer Observer) error {
	app.observerMu.Lock()
	defer app.observerMu.Unlock()

	if _, exists := app.observers[observer.ObserverID()]; exists {
		delete(app.observers, observer.ObserverID())
		app.logger.Debug("Observer unregistered", "observerID", observer.ObserverID())
	}

	return nil
}

// NotifyObservers validates the event and hands it to every interested
// observer on its own goroutine. Observer errors and panics are logged.
func (app *StdApplication) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}

	if err := ValidateCloudEvent(event); err != nil {
		app.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	app.observerMu.RLock()
	defer app.observerMu.RUnlock()

	for _, registration := range app.observers {
		if len(registration.eventTypes) > 0 && !registration.eventTypes[event.Type()] {
			continue
		}

		go func(registration *observerRegistration) {
			defer func() {
				if r := recover(); r != nil {
					app.logger.Error("Observer panicked", "observerID", registration.observer.ObserverID(), "event", event.Type(), "panic", r)
				}
			}()

			if err := registration.observer.OnEvent(ctx, event); err != nil {
				app.logger.Error("Observer error", "observerID", registration.observer.ObserverID(), "event", event.Type(), "error", err)
			}
		}(registration)
	}

	return nil
}

// emitEvent emits an application-sourced CloudEvent.
func (app *StdApplication) emitEvent(ctx context.Context, eventType string, data any) {
	event := NewCloudEvent(eventType, "application", data, nil)
	if err := app.NotifyObservers(ctx, event); err != nil {
		app.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}

// GetObservers returns information about currently registered observers.
func (app *StdApplication) GetObservers() []ObserverInfo {
	app.observerMu.RLock()
	defer app.observerMu.RUnlock()

	info := make([]ObserverInfo, 0, len(app.observers))
	for _, registration := range app.observers {
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}

		info = append(info, ObserverInfo{
			ID:           registration.observer.ObserverID(),
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}

	return info
}
