// Package eventlogger writes application CloudEvents to a log output.
//
// The module registers itself as an observer. Events are queued on a buffered
// channel and written by a single processor goroutine, so a slow output never
// blocks the emitter. Events observed before Start are queued and written once
// the processor runs.
//
// Configuration:
//
//	eventlogger:
//	  enabled: true
//	  level: INFO
//	  output: logger
//	  event_type_filters:
//	    - com.taskapi.task.created
//	    - com.taskapi.task.deleted
package eventlogger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/gobwas/glob"

	"github.com/lab4/taskapi"
)

// ModuleName is the unique identifier for the eventlogger module.
const ModuleName = "eventlogger"

// ServiceName is the name of the service provided by this module.
const ServiceName = "eventlogger.observer"

// EventLoggerModule observes application events and writes them to the
// configured output target.
type EventLoggerModule struct {
	name      string
	config    *EventLoggerConfig
	logger    taskapi.Logger
	output    OutputTarget
	filters   []glob.Glob
	eventChan chan cloudevents.Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	started   bool
	stopped   bool
	mutex     sync.RWMutex
	subject   taskapi.Subject
}

// NewModule creates a new instance of the event logger module.
func NewModule() *EventLoggerModule {
	return &EventLoggerModule{
		name: ModuleName,
	}
}

// Name returns the unique identifier for this module.
func (m *EventLoggerModule) Name() string {
	return m.name
}

// RegisterConfig registers the module's configuration structure.
func (m *EventLoggerModule) RegisterConfig(app taskapi.Application) error {
	app.RegisterConfigSection(m.Name(), taskapi.NewStdConfigProvider(&EventLoggerConfig{}))
	return nil
}

// Init builds the output target and the event queue.
func (m *EventLoggerModule) Init(app taskapi.Application) error {
	cfg, err := app.GetConfigSection(m.name)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", m.name, err)
	}

	m.config = cfg.GetConfig().(*EventLoggerConfig)
	m.logger = app.Logger()

	output, err := NewOutputTarget(m.config, m.logger)
	if err != nil {
		return fmt.Errorf("failed to create output target: %w", err)
	}
	m.output = output

	filters, err := compileFilters(m.config.EventTypeFilters)
	if err != nil {
		return err
	}
	m.filters = filters

	m.eventChan = make(chan cloudevents.Event, m.config.BufferSize)
	m.stopChan = make(chan struct{})

	m.logger.Info("Event logger module initialized", "output", m.config.Output, "level", m.config.Level, "filters", len(m.config.EventTypeFilters))
	return nil
}

// Start opens the output target and starts the processor goroutine.
func (m *EventLoggerModule) Start(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.started || !m.config.Enabled {
		return nil
	}

	if err := m.output.Start(ctx); err != nil {
		return fmt.Errorf("failed to start output target: %w", err)
	}

	m.wg.Add(1)
	go m.processEvents()

	m.started = true
	m.logger.Info("Event logger started", "output", m.config.Output)
	m.emitOperationalEvent(ctx, EventTypeLoggerStarted, map[string]any{"output": m.config.Output})
	return nil
}

// Stop drains queued events within ShutdownDrainTimeout, then closes the output.
func (m *EventLoggerModule) Stop(ctx context.Context) error {
	m.mutex.Lock()
	if !m.started {
		m.mutex.Unlock()
		return nil
	}
	m.started = false
	m.stopped = true
	close(m.stopChan)
	m.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	drainCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownDrainTimeout)
	defer cancel()

	select {
	case <-done:
	case <-drainCtx.Done():
		m.logger.Warn("Event logger drain timed out, some events were not written")
	}

	if err := m.output.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop output target: %w", err)
	}

	m.logger.Info("Event logger stopped")
	return nil
}

// ProvidesServices exposes the module as an observer so other code can
// attach it to additional subjects.
func (m *EventLoggerModule) ProvidesServices() []taskapi.ServiceProvider {
	return []taskapi.ServiceProvider{
		{
			Name:        ServiceName,
			Description: "Event logger observer",
			Instance:    taskapi.Observer(m),
		},
	}
}

// RegisterObservers registers the module with the application subject.
// Event types are matched against EventTypeFilters in OnEvent.
func (m *EventLoggerModule) RegisterObservers(subject taskapi.Subject) error {
	m.subject = subject
	if !m.config.Enabled {
		m.logger.Info("Event logger disabled, not registering as observer")
		return nil
	}
	if err := subject.RegisterObserver(m); err != nil {
		return fmt.Errorf("failed to register event logger as observer: %w", err)
	}
	return nil
}

// EmitEvent implements the ObservableModule interface.
func (m *EventLoggerModule) EmitEvent(ctx context.Context, event cloudevents.Event) error {
	if m.subject == nil {
		return taskapi.ErrNoSubjectForEventEmission
	}
	if err := m.subject.NotifyObservers(ctx, event); err != nil {
		return fmt.Errorf("failed to notify observers: %w", err)
	}
	return nil
}

// ObserverID returns the observer identifier.
func (m *EventLoggerModule) ObserverID() string {
	return ModuleName
}

// OnEvent queues an event for writing. It returns ErrEventBufferFull when
// the queue is saturated; the event is dropped.
func (m *EventLoggerModule) OnEvent(ctx context.Context, event cloudevents.Event) error {
	if isOwnEvent(event) || !m.accepts(event.Type()) {
		return nil
	}

	m.mutex.RLock()
	closed := m.eventChan == nil || m.stopped
	m.mutex.RUnlock()
	if closed {
		return nil
	}

	select {
	case m.eventChan <- event:
		return nil
	default:
		m.logger.Warn("Event buffer full, dropping event", "eventType", event.Type())
		return ErrEventBufferFull
	}
}

func (m *EventLoggerModule) processEvents() {
	defer m.wg.Done()

	for {
		select {
		case event := <-m.eventChan:
			m.writeEvent(event)
		case <-m.stopChan:
			for {
				select {
				case event := <-m.eventChan:
					m.writeEvent(event)
				default:
					return
				}
			}
		}
	}
}

func (m *EventLoggerModule) writeEvent(event cloudevents.Event) {
	level := eventLevel(event.Type())
	if !shouldLogLevel(level, m.config.Level) {
		return
	}

	entry := &LogEntry{
		Timestamp: event.Time(),
		Level:     level,
		Type:      event.Type(),
		Source:    event.Source(),
		ID:        event.ID(),
	}
	if len(event.Data()) > 0 {
		var data any
		if err := event.DataAs(&data); err == nil {
			entry.Data = data
		} else {
			entry.Data = string(event.Data())
		}
	}
	if ext := event.Extensions(); len(ext) > 0 {
		entry.Metadata = ext
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := m.output.WriteEvent(entry); err != nil {
		m.logger.Error("Failed to write event", "eventType", event.Type(), "error", err)
		m.emitOperationalEvent(context.Background(), EventTypeOutputError, map[string]any{
			"eventType": event.Type(),
			"error":     err.Error(),
		})
	}
}

// eventLevel maps an event type to a log level.
func eventLevel(eventType string) string {
	switch {
	case strings.Contains(eventType, "failed") || strings.Contains(eventType, "error"):
		return "ERROR"
	case strings.Contains(eventType, ".config."):
		return "DEBUG"
	default:
		return "INFO"
	}
}

func isOwnEvent(event cloudevents.Event) bool {
	return strings.HasPrefix(event.Type(), "com.taskapi.eventlogger.")
}

// accepts reports whether eventType matches a configured filter.
func (m *EventLoggerModule) accepts(eventType string) bool {
	if len(m.filters) == 0 {
		return true
	}
	for _, f := range m.filters {
		if f.Match(eventType) {
			return true
		}
	}
	return false
}

func (m *EventLoggerModule) emitOperationalEvent(ctx context.Context, eventType string, data map[string]any) {
	event := taskapi.NewCloudEvent(eventType, "eventlogger-module", data, nil)
	if err := m.EmitEvent(ctx, event); err != nil {
		taskapi.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}
