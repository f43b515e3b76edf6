// Package tasks serves the task CRUD API.
//
// The module owns an in-memory Store seeded at Init and mounts the same
// handlers under every configured prefix (by default /apiv1 and /apiv2) on
// the chimux router. Payloads are checked against JSON Schemas from the
// jsonschema module before any store access; failures are answered with 422.
// Successful mutations are published as CloudEvents. When a scheduler is
// present, a periodic summary job logs and publishes the task counts. The
// same counts are exported as Prometheus gauges on the metrics path and,
// when an address is configured, pushed to DogStatsD by the summary job.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/lab4/taskapi"
	"github.com/lab4/taskapi/modules/chimux"
	"github.com/lab4/taskapi/modules/jsonschema"
	"github.com/lab4/taskapi/modules/scheduler"
)

// ModuleName is the unique identifier for the tasks module.
const ModuleName = "tasks"

// StoreServiceName is the name under which the Store is published.
const StoreServiceName = "tasks.store"

const summaryJobName = "tasks-summary"

// TasksModule wires the store, the handlers and the summary job.
type TasksModule struct {
	app     taskapi.Application
	config  *TasksConfig
	logger  taskapi.Logger
	store   Store
	handler *Handler
	subject taskapi.Subject
	statsd  *statsdExporter

	mu           sync.Mutex
	sched        scheduler.Service
	summaryJobID string
}

// NewModule creates a new tasks module.
func NewModule() *TasksModule {
	return &TasksModule{}
}

// Name returns the unique identifier for this module.
func (m *TasksModule) Name() string {
	return ModuleName
}

// Dependencies returns the modules that must be initialized first.
func (m *TasksModule) Dependencies() []string {
	return []string{chimux.ModuleName, jsonschema.Name}
}

// RegisterConfig registers the module's configuration structure.
func (m *TasksModule) RegisterConfig(app taskapi.Application) error {
	app.RegisterConfigSection(ModuleName, taskapi.NewStdConfigProvider(&TasksConfig{}))
	return nil
}

// Init seeds the store and registers the routes.
func (m *TasksModule) Init(app taskapi.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", ModuleName, err)
	}
	m.app = app
	m.config = cfg.GetConfig().(*TasksConfig)
	m.logger = app.Logger()

	seed, err := seedTasks(m.config)
	if err != nil {
		return err
	}
	mem, err := NewMemoryStore(seed...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSeedLoad, err)
	}
	m.store = NewEventingStore(mem, m.emitEvent)

	var schemas jsonschema.JSONSchemaService
	if err := app.GetService(jsonschema.ServiceName, &schemas); err != nil {
		return fmt.Errorf("failed to get schema service: %w", err)
	}
	m.handler, err = NewHandler(m.store, schemas, m.logger)
	if err != nil {
		return err
	}

	var router chimux.BasicRouter
	if err := app.GetService(chimux.ServiceName, &router); err != nil {
		return fmt.Errorf("failed to get router service: %w", err)
	}
	router.Get("/", m.handler.Root)
	for _, prefix := range m.config.Prefixes {
		router.Route(prefix, m.handler.Routes)
	}
	if m.config.MetricsPath != "" {
		metrics, err := metricsHandler(m.store)
		if err != nil {
			return fmt.Errorf("failed to register task metrics: %w", err)
		}
		router.Get(m.config.MetricsPath, metrics.ServeHTTP)
	}

	if m.config.StatsdAddr != "" {
		m.statsd, err = newStatsdExporter(m.config.StatsdAddr)
		if err != nil {
			return err
		}
	}

	m.logger.Info("Tasks module initialized", "prefixes", m.config.Prefixes, "seeded", len(seed))
	return nil
}

// Start schedules the summary job when a scheduler service is registered.
// The scheduler is kept even when the schedule is empty so a reload can
// enable the job later.
func (m *TasksModule) Start(context.Context) error {
	var sched scheduler.Service
	if err := m.app.GetService(scheduler.ServiceName, &sched); err != nil {
		if errors.Is(err, taskapi.ErrServiceNotFound) {
			m.logger.Debug("No scheduler registered, task summary disabled")
			return nil
		}
		return fmt.Errorf("failed to get scheduler service: %w", err)
	}

	m.mu.Lock()
	m.sched = sched
	schedule := m.config.SummarySchedule
	m.mu.Unlock()

	if schedule == "" {
		m.logger.Info("Task summary disabled")
		return nil
	}
	return m.scheduleSummary(sched, schedule)
}

func (m *TasksModule) scheduleSummary(sched scheduler.Service, schedule string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := sched.ScheduleRecurring(summaryJobName, schedule, m.summaryJob)
	if err != nil {
		return fmt.Errorf("failed to schedule task summary: %w", err)
	}
	m.sched = sched
	m.summaryJobID = id
	m.logger.Info("Task summary scheduled", "schedule", schedule, "jobID", id)
	return nil
}

// Stop cancels the summary job and closes the statsd client.
func (m *TasksModule) Stop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelSummary()
	return m.statsd.Close()
}

func (m *TasksModule) cancelSummary() {
	if m.sched == nil || m.summaryJobID == "" {
		return
	}
	if err := m.sched.CancelJob(m.summaryJobID); err != nil {
		m.logger.Debug("Failed to cancel task summary job", "jobID", m.summaryJobID, "error", err)
	}
	m.summaryJobID = ""
}

// Reload applies a changed summary schedule.
func (m *TasksModule) Reload(_ context.Context, app taskapi.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", ModuleName, err)
	}
	next := cfg.GetConfig().(*TasksConfig)

	m.mu.Lock()
	prev := m.config.SummarySchedule
	m.config = next
	if m.sched == nil || prev == next.SummarySchedule {
		m.mu.Unlock()
		return nil
	}
	m.cancelSummary()
	sched := m.sched
	m.mu.Unlock()

	if next.SummarySchedule == "" {
		m.logger.Info("Task summary disabled")
		return nil
	}
	return m.scheduleSummary(sched, next.SummarySchedule)
}

func (m *TasksModule) summaryJob(ctx context.Context) error {
	sum := m.store.Summary(ctx)
	m.logger.Info("Task summary", "total", sum.Total, "finished", sum.Finished, "open", sum.Open)
	if m.statsd != nil {
		if err := m.statsd.export(sum); err != nil {
			m.logger.Warn("Failed to export task summary", "error", err)
		}
	}
	m.emitEvent(ctx, EventTypeTasksSummary, map[string]any{
		"total":    sum.Total,
		"finished": sum.Finished,
		"open":     sum.Open,
	})
	return nil
}

// Store returns the task store.
func (m *TasksModule) Store() Store {
	return m.store
}

// ProvidesServices publishes the store.
func (m *TasksModule) ProvidesServices() []taskapi.ServiceProvider {
	return []taskapi.ServiceProvider{
		{
			Name:        StoreServiceName,
			Description: "In-memory task store",
			Instance:    m.store,
		},
	}
}

// RegisterObservers implements the ObservableModule interface.
func (m *TasksModule) RegisterObservers(subject taskapi.Subject) error {
	m.subject = subject
	return nil
}

// EmitEvent implements the ObservableModule interface.
func (m *TasksModule) EmitEvent(ctx context.Context, event cloudevents.Event) error {
	if m.subject == nil {
		return taskapi.ErrNoSubjectForEventEmission
	}
	if err := m.subject.NotifyObservers(ctx, event); err != nil {
		return fmt.Errorf("failed to notify observers: %w", err)
	}
	return nil
}

func (m *TasksModule) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	event := taskapi.NewCloudEvent(eventType, "tasks-module", data, nil)
	if err := m.EmitEvent(context.WithoutCancel(ctx), event); err != nil {
		taskapi.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}
