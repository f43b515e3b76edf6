package scheduler

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryJobStore implements JobStore using in-memory storage.
// At most historyLimit executions are kept per job.
type MemoryJobStore struct {
	jobs            map[string]Job
	jobsMutex       sync.RWMutex
	executions      map[string][]JobExecution
	executionsMutex sync.RWMutex
	historyLimit    int
}

// NewMemoryJobStore creates a new memory job store
func NewMemoryJobStore(historyLimit int) *MemoryJobStore {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &MemoryJobStore{
		jobs:         make(map[string]Job),
		executions:   make(map[string][]JobExecution),
		historyLimit: historyLimit,
	}
}

// AddJob stores a new job
func (s *MemoryJobStore) AddJob(job Job) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, job.ID)
	}

	s.jobs[job.ID] = job
	return nil
}

// UpdateJob updates an existing job
func (s *MemoryJobStore) UpdateJob(job Job) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if _, exists := s.jobs[job.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, job.ID)
	}

	s.jobs[job.ID] = job
	return nil
}

// GetJob retrieves a job by ID
func (s *MemoryJobStore) GetJob(jobID string) (Job, error) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	return job, nil
}

// GetJobs returns all jobs ordered by creation time
func (s *MemoryJobStore) GetJobs() ([]Job, error) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })

	return jobs, nil
}

// AddJobExecution records a job execution
func (s *MemoryJobStore) AddJobExecution(execution JobExecution) error {
	s.executionsMutex.Lock()
	defer s.executionsMutex.Unlock()

	history := append(s.executions[execution.JobID], execution)
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}
	s.executions[execution.JobID] = history
	return nil
}

// UpdateJobExecution updates the execution with the same job ID and start time
func (s *MemoryJobStore) UpdateJobExecution(execution JobExecution) error {
	s.executionsMutex.Lock()
	defer s.executionsMutex.Unlock()

	executions := s.executions[execution.JobID]
	for i, exec := range executions {
		if exec.StartTime.Equal(execution.StartTime) {
			executions[i] = execution
			return nil
		}
	}

	return fmt.Errorf("%w: start time %v for job ID %s", ErrExecutionNotFound, execution.StartTime, execution.JobID)
}

// GetJobExecutions retrieves execution history for a job
func (s *MemoryJobStore) GetJobExecutions(jobID string) ([]JobExecution, error) {
	s.executionsMutex.RLock()
	defer s.executionsMutex.RUnlock()

	executions := s.executions[jobID]
	result := make([]JobExecution, len(executions))
	copy(result, executions)
	return result, nil
}
