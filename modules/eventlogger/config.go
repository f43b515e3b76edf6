package eventlogger

import (
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// EventLoggerConfig holds the configuration for the event logger module.
//
// Example YAML configuration:
//
//	eventlogger:
//	  enabled: true
//	  level: INFO
//	  output: file
//	  format: json
//	  file_path: logs/events.jsonl
//	  event_type_filters:
//	    - com.taskapi.task.created
type EventLoggerConfig struct {
	// Enabled registers the module as an observer.
	Enabled bool `yaml:"enabled" toml:"enabled" default:"true" desc:"Enable event logging" env:"EVENTLOGGER_ENABLED"`

	// Level is the minimum level (DEBUG, INFO, WARN, ERROR) an event must have to be written.
	Level string `yaml:"level" toml:"level" default:"INFO" desc:"Minimum log level for events" env:"EVENTLOGGER_LEVEL"`

	// Output selects the target: "logger" (application logger), "console" (stdout) or "file".
	Output string `yaml:"output" toml:"output" default:"logger" desc:"Output target for event logs" env:"EVENTLOGGER_OUTPUT"`

	// Format is "json" or "text" for console and file outputs.
	Format string `yaml:"format" toml:"format" default:"json" desc:"Log format for console and file outputs" env:"EVENTLOGGER_FORMAT"`

	// FilePath is required when Output is "file".
	FilePath string `yaml:"file_path" toml:"file_path" desc:"Path of the event log file" env:"EVENTLOGGER_FILE_PATH"`

	// EventTypeFilters limits logging to event types matching one of the glob
	// patterns. Segments are dot separated: "*" matches one segment, "**" any
	// number. Empty logs every event.
	EventTypeFilters []string `yaml:"event_type_filters" toml:"event_type_filters" default:"[\"com.taskapi.task.*\",\"com.taskapi.tasks.summary\"]" desc:"Event type glob patterns to log (empty = all events)" env:"EVENTLOGGER_EVENT_TYPE_FILTERS"`

	// BufferSize is the capacity of the asynchronous event queue.
	BufferSize int `yaml:"buffer_size" toml:"buffer_size" default:"100" desc:"Buffer size for async event processing" env:"EVENTLOGGER_BUFFER_SIZE"`

	// ShutdownDrainTimeout bounds how long Stop waits for queued events.
	ShutdownDrainTimeout time.Duration `yaml:"shutdown_drain_timeout" toml:"shutdown_drain_timeout" default:"2s" desc:"Maximum time to drain queued events on Stop" env:"EVENTLOGGER_SHUTDOWN_DRAIN_TIMEOUT"`
}

var validLevels = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// Validate implements the taskapi.ConfigValidator interface.
func (c *EventLoggerConfig) Validate() error {
	c.Level = strings.ToUpper(c.Level)
	if _, ok := validLevels[c.Level]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.Level)
	}

	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidFormat, c.Format)
	}

	switch c.Output {
	case "logger", "console":
	case "file":
		if c.FilePath == "" {
			return ErrMissingFilePath
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOutputType, c.Output)
	}

	if c.BufferSize < 1 {
		return fmt.Errorf("%w: buffer_size %d", ErrInvalidBufferSize, c.BufferSize)
	}

	if _, err := compileFilters(c.EventTypeFilters); err != nil {
		return err
	}
	return nil
}

// compileFilters compiles event type glob patterns with "." as the separator.
func compileFilters(patterns []string) ([]glob.Glob, error) {
	filters := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidEventFilter, pattern, err)
		}
		filters = append(filters, g)
	}
	return filters, nil
}

// shouldLogLevel checks if a log level should be included based on minimum level.
func shouldLogLevel(eventLevel, minLevel string) bool {
	eventLevelNum, ok1 := validLevels[eventLevel]
	minLevelNum, ok2 := validLevels[minLevel]
	if !ok1 || !ok2 {
		return true
	}
	return eventLevelNum >= minLevelNum
}
