package tasks

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// TasksConfig configures the task API.
type TasksConfig struct {
	// Prefixes lists the version prefixes the task routes are mounted under.
	Prefixes []string `yaml:"prefixes" toml:"prefixes" default:"[\"/apiv1\",\"/apiv2\"]" desc:"Route prefixes the task API is served under" env:"TASKS_PREFIXES"`

	// SeedFile is a YAML or TOML file with a top-level "tasks" list.
	SeedFile string `yaml:"seed_file" toml:"seed_file" desc:"YAML or TOML file with the initial tasks" env:"TASKS_SEED_FILE"`

	// SeedDefault seeds the laboratory fixture task when no SeedFile is set.
	SeedDefault bool `yaml:"seed_default" toml:"seed_default" default:"true" desc:"Seed the default task when no seed file is set" env:"TASKS_SEED_DEFAULT"`

	// SummarySchedule is a cron expression for the periodic summary job.
	// Empty disables the job.
	SummarySchedule string `yaml:"summary_schedule" toml:"summary_schedule" default:"@every 5m" desc:"Cron schedule of the task summary job (empty disables)" env:"TASKS_SUMMARY_SCHEDULE" dynamic:"true"`

	// MetricsPath is where Prometheus metrics are served. Empty disables it.
	MetricsPath string `yaml:"metrics_path" toml:"metrics_path" default:"/metrics" desc:"Path of the Prometheus metrics endpoint (empty disables)" env:"TASKS_METRICS_PATH"`

	// StatsdAddr receives the summary gauges on every summary run. Empty disables it.
	StatsdAddr string `yaml:"statsd_addr" toml:"statsd_addr" desc:"DogStatsD address for summary gauges, e.g. 127.0.0.1:8125 (empty disables)" env:"TASKS_STATSD_ADDR"`
}

// Validate implements the taskapi.ConfigValidator interface.
func (c *TasksConfig) Validate() error {
	seen := make(map[string]bool, len(c.Prefixes))
	for _, p := range c.Prefixes {
		if !strings.HasPrefix(p, "/") || (len(p) > 1 && strings.HasSuffix(p, "/")) || p == "/" {
			return fmt.Errorf("%w: %q", ErrInvalidPrefix, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate %q", ErrInvalidPrefix, p)
		}
		seen[p] = true
	}

	if c.MetricsPath != "" && (!strings.HasPrefix(c.MetricsPath, "/") || seen[c.MetricsPath] || c.MetricsPath == "/") {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsPath, c.MetricsPath)
	}

	if c.SummarySchedule != "" {
		if _, err := cron.ParseStandard(c.SummarySchedule); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, c.SummarySchedule, err)
		}
	}
	return nil
}
