package scheduler

import (
	"errors"
)

var (
	ErrInvalidConfig     = errors.New("invalid scheduler configuration")
	ErrInvalidSchedule   = errors.New("invalid cron expression")
	ErrJobAlreadyExists  = errors.New("job already exists")
	ErrJobNotFound       = errors.New("job not found")
	ErrJobCancelled      = errors.New("job cancelled")
	ErrSchedulerStopped  = errors.New("scheduler not running")
	ErrQueueFull         = errors.New("job queue is full")
	ErrExecutionNotFound = errors.New("execution not found")
	ErrShutdownTimeout   = errors.New("scheduler shutdown timed out")
)
