package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/lab4/taskapi"
)

// JobFunc defines a function that can be executed as a job
type JobFunc func(ctx context.Context) error

// JobExecution records details about a single execution of a job
type JobExecution struct {
	JobID     string    `json:"jobId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Job represents a recurring job
type Job struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	JobFunc   JobFunc    `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Status    JobStatus  `json:"status"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
}

// JobStatus represents the status of a job
type JobStatus string

const (
	// JobStatusPending indicates a job is waiting to be executed
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a job is currently executing
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the last run completed successfully
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the last run failed
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates a job has been cancelled
	JobStatusCancelled JobStatus = "cancelled"
)

// EventEmitter receives scheduler lifecycle events.
type EventEmitter func(ctx context.Context, eventType string, data map[string]any)

// Scheduler runs recurring jobs on cron schedules through a worker pool.
type Scheduler struct {
	jobStore       JobStore
	workerCount    int
	queueSize      int
	logger         taskapi.Logger
	emit           EventEmitter
	jobQueue       chan Job
	cronScheduler  *cron.Cron
	cronEntries    map[string]cron.EntryID
	entryMutex     sync.Mutex
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	isStarted      bool
	schedulerMutex sync.Mutex
}

// SchedulerOption defines a function that can configure a scheduler
type SchedulerOption func(*Scheduler)

// WithWorkerCount sets the number of workers
func WithWorkerCount(count int) SchedulerOption {
	return func(s *Scheduler) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the job queue size
func WithQueueSize(size int) SchedulerOption {
	return func(s *Scheduler) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger taskapi.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventEmitter sets the callback receiving job events
func WithEventEmitter(emit EventEmitter) SchedulerOption {
	return func(s *Scheduler) {
		s.emit = emit
	}
}

// NewScheduler creates a new scheduler
func NewScheduler(jobStore JobStore, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		jobStore:    jobStore,
		workerCount: 2,
		queueSize:   16,
		cronEntries: make(map[string]cron.EntryID),
		emit:        func(context.Context, string, map[string]any) {},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.cronScheduler = cron.New()
	return s
}

// Start launches the workers and registers every pending job with cron.
func (s *Scheduler) Start(ctx context.Context) error {
	s.schedulerMutex.Lock()
	defer s.schedulerMutex.Unlock()

	if s.isStarted {
		return nil
	}

	s.logDebug("Starting scheduler", "workers", s.workerCount, "queueSize", s.queueSize)

	// Workers outlive the start context; Stop cancels them.
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.jobQueue = make(chan Job, s.queueSize)

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	jobs, err := s.jobStore.GetJobs()
	if err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}
	for _, job := range jobs {
		if job.Status != JobStatusCancelled {
			s.registerWithCron(job)
		}
	}

	s.cronScheduler.Start()
	s.isStarted = true
	s.emit(ctx, EventTypeSchedulerStarted, map[string]any{"worker_count": s.workerCount, "jobs": len(jobs)})
	return nil
}

// Stop halts cron and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.schedulerMutex.Lock()
	defer s.schedulerMutex.Unlock()

	if !s.isStarted {
		return nil
	}

	s.logDebug("Stopping scheduler")
	cronCtx := s.cronScheduler.Stop()

	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		s.cancel()
		return ErrShutdownTimeout
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ErrShutdownTimeout
	}

	s.isStarted = false
	s.emit(ctx, EventTypeSchedulerStopped, nil)
	return nil
}

// worker processes jobs from the queue
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case job := <-s.jobQueue:
			s.executeJob(job)
		}
	}
}

// executeJob runs a job and records its execution
func (s *Scheduler) executeJob(job Job) {
	job.Status = JobStatusRunning
	job.UpdatedAt = time.Now()
	_ = s.jobStore.UpdateJob(job)

	execution := JobExecution{
		JobID:     job.ID,
		StartTime: time.Now(),
		Status:    string(JobStatusRunning),
	}
	_ = s.jobStore.AddJobExecution(execution)
	s.emit(s.ctx, EventTypeJobStarted, map[string]any{"job_id": job.ID, "job_name": job.Name})

	var err error
	if job.JobFunc != nil {
		err = s.runJobFunc(job)
	}

	now := time.Now()
	execution.EndTime = now
	job.LastRun = &now
	if err != nil {
		execution.Status = string(JobStatusFailed)
		execution.Error = err.Error()
		job.Status = JobStatusFailed
		if s.logger != nil {
			s.logger.Error("Job execution failed", "id", job.ID, "name", job.Name, "error", err)
		}
		s.emit(s.ctx, EventTypeJobFailed, map[string]any{"job_id": job.ID, "job_name": job.Name, "error": err.Error()})
	} else {
		execution.Status = string(JobStatusCompleted)
		job.Status = JobStatusCompleted
		s.logDebug("Job execution completed", "id", job.ID, "name", job.Name)
		s.emit(s.ctx, EventTypeJobCompleted, map[string]any{"job_id": job.ID, "job_name": job.Name})
	}
	_ = s.jobStore.UpdateJobExecution(execution)

	if schedule, parseErr := cron.ParseStandard(job.Schedule); parseErr == nil {
		next := schedule.Next(now)
		job.NextRun = &next
	}

	// A job cancelled while running stays cancelled.
	if current, getErr := s.jobStore.GetJob(job.ID); getErr == nil && current.Status == JobStatusCancelled {
		job.Status = JobStatusCancelled
	}
	job.UpdatedAt = now
	_ = s.jobStore.UpdateJob(job)
}

// runJobFunc converts a panicking job into a failed execution.
func (s *Scheduler) runJobFunc(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.JobFunc(s.ctx)
}

// ScheduleRecurring schedules a recurring job using a cron expression.
// Standard five-field expressions and descriptors such as "@every 5m" are accepted.
func (s *Scheduler) ScheduleRecurring(name string, cronExpr string, jobFunc JobFunc) (string, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return "", fmt.Errorf("%w '%s': %w", ErrInvalidSchedule, cronExpr, err)
	}

	now := time.Now()
	next := schedule.Next(now)
	job := Job{
		ID:        uuid.New().String(),
		Name:      name,
		Schedule:  cronExpr,
		JobFunc:   jobFunc,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    JobStatusPending,
		NextRun:   &next,
	}

	if err := s.jobStore.AddJob(job); err != nil {
		return "", err
	}

	s.schedulerMutex.Lock()
	started := s.isStarted
	s.schedulerMutex.Unlock()
	if started {
		s.registerWithCron(job)
	}

	s.emit(context.Background(), EventTypeJobScheduled, map[string]any{"job_id": job.ID, "job_name": name, "schedule": cronExpr})
	return job.ID, nil
}

// registerWithCron registers a recurring job with the cron scheduler
func (s *Scheduler) registerWithCron(job Job) {
	s.entryMutex.Lock()
	defer s.entryMutex.Unlock()

	if entryID, exists := s.cronEntries[job.ID]; exists {
		s.cronScheduler.Remove(entryID)
		delete(s.cronEntries, job.ID)
	}

	entryID, err := s.cronScheduler.AddFunc(job.Schedule, func() {
		if err := s.enqueue(job.ID); err != nil {
			if s.logger != nil {
				s.logger.Warn("Cron job execution skipped", "id", job.ID, "name", job.Name, "error", err)
			}
		}
	})

	if err == nil {
		s.cronEntries[job.ID] = entryID
	} else if s.logger != nil {
		s.logger.Error("Failed to add job to cron scheduler", "id", job.ID, "error", err)
	}
}

// RunNow queues a job for immediate execution outside its schedule.
func (s *Scheduler) RunNow(jobID string) error {
	return s.enqueue(jobID)
}

func (s *Scheduler) enqueue(jobID string) error {
	s.schedulerMutex.Lock()
	started := s.isStarted
	s.schedulerMutex.Unlock()
	if !started {
		return ErrSchedulerStopped
	}

	job, err := s.jobStore.GetJob(jobID)
	if err != nil {
		return err
	}
	if job.Status == JobStatusCancelled {
		return fmt.Errorf("%w: %s", ErrJobCancelled, jobID)
	}
	if job.Status == JobStatusRunning {
		return nil
	}

	select {
	case s.jobQueue <- job:
		s.logDebug("Queued job", "id", job.ID, "name", job.Name)
		return nil
	default:
		return ErrQueueFull
	}
}

// CancelJob cancels a scheduled job
func (s *Scheduler) CancelJob(jobID string) error {
	job, err := s.jobStore.GetJob(jobID)
	if err != nil {
		return err
	}

	job.Status = JobStatusCancelled
	job.UpdatedAt = time.Now()
	if err := s.jobStore.UpdateJob(job); err != nil {
		return err
	}

	s.entryMutex.Lock()
	if entryID, exists := s.cronEntries[jobID]; exists {
		s.cronScheduler.Remove(entryID)
		delete(s.cronEntries, jobID)
	}
	s.entryMutex.Unlock()

	s.emit(context.Background(), EventTypeJobCancelled, map[string]any{"job_id": jobID, "job_name": job.Name})
	return nil
}

// GetJob returns information about a scheduled job
func (s *Scheduler) GetJob(jobID string) (Job, error) {
	return s.jobStore.GetJob(jobID)
}

// ListJobs returns a list of all scheduled jobs
func (s *Scheduler) ListJobs() ([]Job, error) {
	return s.jobStore.GetJobs()
}

// GetJobHistory returns the execution history for a job
func (s *Scheduler) GetJobHistory(jobID string) ([]JobExecution, error) {
	return s.jobStore.GetJobExecutions(jobID)
}

func (s *Scheduler) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
