package scheduler

import (
	"fmt"
	"time"
)

// SchedulerConfig defines the configuration for the scheduler module
type SchedulerConfig struct {
	// Enabled turns job execution on. Jobs may still be registered when disabled.
	Enabled bool `yaml:"enabled" toml:"enabled" default:"true" desc:"Run scheduled jobs" env:"SCHEDULER_ENABLED"`

	// WorkerCount is the number of goroutines executing jobs.
	WorkerCount int `yaml:"worker_count" toml:"worker_count" default:"2" desc:"Number of job workers" env:"SCHEDULER_WORKER_COUNT"`

	// QueueSize bounds the number of jobs waiting for a worker.
	QueueSize int `yaml:"queue_size" toml:"queue_size" default:"16" desc:"Job queue capacity" env:"SCHEDULER_QUEUE_SIZE"`

	// ShutdownTimeout bounds how long Stop waits for running jobs.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" default:"10s" desc:"Time to wait for running jobs on shutdown" env:"SCHEDULER_SHUTDOWN_TIMEOUT"`
}

// Validate implements the taskapi.ConfigValidator interface.
func (c *SchedulerConfig) Validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size %d", ErrInvalidConfig, c.QueueSize)
	}
	return nil
}
