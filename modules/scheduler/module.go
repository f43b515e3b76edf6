// Package scheduler provides cron based recurring jobs executed by a small
// worker pool.
//
// Other modules look the service up by ServiceName and register jobs,
// usually from their own Start:
//
//	var sched scheduler.Service
//	if err := app.GetService(scheduler.ServiceName, &sched); err == nil {
//	    _, err = sched.ScheduleRecurring("task-summary", "@every 5m", job)
//	}
package scheduler

import (
	"context"
	"fmt"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/lab4/taskapi"
)

// ModuleName is the unique identifier for the scheduler module.
const ModuleName = "scheduler"

// ServiceName is the name of the service provided by this module.
const ServiceName = "scheduler.provider"

// Service is the job registration surface published by the module.
type Service interface {
	ScheduleRecurring(name string, cronExpr string, jobFunc JobFunc) (string, error)
	RunNow(jobID string) error
	CancelJob(jobID string) error
	GetJob(jobID string) (Job, error)
	ListJobs() ([]Job, error)
	GetJobHistory(jobID string) ([]JobExecution, error)
}

// SchedulerModule provides job scheduling and execution.
type SchedulerModule struct {
	name          string
	config        *SchedulerConfig
	logger        taskapi.Logger
	scheduler     *Scheduler
	running       bool
	schedulerLock sync.Mutex
	subject       taskapi.Subject
}

var _ Service = (*SchedulerModule)(nil)

// NewModule creates a new instance of the scheduler module.
func NewModule() *SchedulerModule {
	return &SchedulerModule{
		name: ModuleName,
	}
}

// Name returns the unique identifier for this module.
func (m *SchedulerModule) Name() string {
	return m.name
}

// RegisterConfig registers the module's configuration structure.
func (m *SchedulerModule) RegisterConfig(app taskapi.Application) error {
	app.RegisterConfigSection(m.Name(), taskapi.NewStdConfigProvider(&SchedulerConfig{}))
	return nil
}

// Init initializes the module
func (m *SchedulerModule) Init(app taskapi.Application) error {
	cfg, err := app.GetConfigSection(m.name)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", m.name, err)
	}

	m.config = cfg.GetConfig().(*SchedulerConfig)
	m.logger = app.Logger()

	m.scheduler = NewScheduler(
		NewMemoryJobStore(0),
		WithWorkerCount(m.config.WorkerCount),
		WithQueueSize(m.config.QueueSize),
		WithLogger(m.logger),
		WithEventEmitter(m.emitEvent),
	)

	m.logger.Info("Scheduler module initialized", "enabled", m.config.Enabled, "workers", m.config.WorkerCount)
	return nil
}

// Start performs startup logic for the module
func (m *SchedulerModule) Start(ctx context.Context) error {
	m.schedulerLock.Lock()
	defer m.schedulerLock.Unlock()

	if m.running {
		return nil
	}
	if !m.config.Enabled {
		m.logger.Info("Scheduler disabled, jobs will not run")
		return nil
	}

	if err := m.scheduler.Start(ctx); err != nil {
		return err
	}

	m.running = true
	m.logger.Info("Scheduler started successfully")
	return nil
}

// Stop performs shutdown logic for the module
func (m *SchedulerModule) Stop(ctx context.Context) error {
	m.schedulerLock.Lock()
	defer m.schedulerLock.Unlock()

	if !m.running {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	defer cancel()

	if err := m.scheduler.Stop(shutdownCtx); err != nil {
		return err
	}

	m.running = false
	m.logger.Info("Scheduler stopped")
	return nil
}

// ProvidesServices declares services provided by this module
func (m *SchedulerModule) ProvidesServices() []taskapi.ServiceProvider {
	return []taskapi.ServiceProvider{
		{
			Name:        ServiceName,
			Description: "Job scheduling service",
			Instance:    m,
		},
	}
}

// ScheduleRecurring schedules a recurring job
func (m *SchedulerModule) ScheduleRecurring(name string, cronExpr string, jobFunc JobFunc) (string, error) {
	return m.scheduler.ScheduleRecurring(name, cronExpr, jobFunc)
}

// RunNow queues a job for immediate execution
func (m *SchedulerModule) RunNow(jobID string) error {
	return m.scheduler.RunNow(jobID)
}

// CancelJob cancels a scheduled job
func (m *SchedulerModule) CancelJob(jobID string) error {
	return m.scheduler.CancelJob(jobID)
}

// GetJob returns information about a scheduled job
func (m *SchedulerModule) GetJob(jobID string) (Job, error) {
	return m.scheduler.GetJob(jobID)
}

// ListJobs returns a list of all scheduled jobs
func (m *SchedulerModule) ListJobs() ([]Job, error) {
	return m.scheduler.ListJobs()
}

// GetJobHistory returns the execution history for a job
func (m *SchedulerModule) GetJobHistory(jobID string) ([]JobExecution, error) {
	return m.scheduler.GetJobHistory(jobID)
}

// RegisterObservers implements the ObservableModule interface.
func (m *SchedulerModule) RegisterObservers(subject taskapi.Subject) error {
	m.subject = subject
	return nil
}

// EmitEvent implements the ObservableModule interface.
func (m *SchedulerModule) EmitEvent(ctx context.Context, event cloudevents.Event) error {
	if m.subject == nil {
		return taskapi.ErrNoSubjectForEventEmission
	}
	if err := m.subject.NotifyObservers(ctx, event); err != nil {
		return fmt.Errorf("failed to notify observers: %w", err)
	}
	return nil
}

func (m *SchedulerModule) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	event := taskapi.NewCloudEvent(eventType, "scheduler-service", data, nil)
	if err := m.EmitEvent(ctx, event); err != nil {
		taskapi.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}
