package tasks

import "errors"

var (
	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskIDExists is returned when creating a task whose id is taken.
	ErrTaskIDExists = errors.New("task id already exists")

	ErrInvalidPrefix      = errors.New("invalid route prefix")
	ErrInvalidMetricsPath = errors.New("invalid metrics path")
	ErrInvalidSchedule    = errors.New("invalid summary schedule")
	ErrSeedFormat         = errors.New("unsupported seed file format")
	ErrSeedLoad           = errors.New("failed to load seed tasks")
)
