package eventlogger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lab4/taskapi"
)

// LogEntry is the normalized form of an event handed to output targets.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	ID        string         `json:"id"`
	Data      any            `json:"data,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// OutputTarget defines the interface for event log output targets.
type OutputTarget interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	WriteEvent(entry *LogEntry) error
}

// NewOutputTarget creates the output target selected by config.
func NewOutputTarget(config *EventLoggerConfig, logger taskapi.Logger) (OutputTarget, error) {
	switch config.Output {
	case "logger":
		return &LoggerTarget{logger: logger}, nil
	case "console":
		return &WriterTarget{format: config.Format, writer: os.Stdout}, nil
	case "file":
		return &FileTarget{path: config.FilePath, format: config.Format, logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOutputType, config.Output)
	}
}

// LoggerTarget writes events through the application logger.
type LoggerTarget struct {
	logger taskapi.Logger
}

func (l *LoggerTarget) Start(context.Context) error { return nil }
func (l *LoggerTarget) Stop(context.Context) error  { return nil }

func (l *LoggerTarget) WriteEvent(entry *LogEntry) error {
	args := []any{"eventType", entry.Type, "source", entry.Source, "eventID", entry.ID}
	if entry.Data != nil {
		args = append(args, "data", entry.Data)
	}
	keys := make([]string, 0, len(entry.Metadata))
	for k := range entry.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k, entry.Metadata[k])
	}

	switch entry.Level {
	case "DEBUG":
		l.logger.Debug("Event", args...)
	case "WARN":
		l.logger.Warn("Event", args...)
	case "ERROR":
		l.logger.Error("Event", args...)
	default:
		l.logger.Info("Event", args...)
	}
	return nil
}

// WriterTarget writes one formatted line per event to an io.Writer.
type WriterTarget struct {
	format string
	mu     sync.Mutex
	writer io.Writer
}

func (w *WriterTarget) Start(context.Context) error { return nil }
func (w *WriterTarget) Stop(context.Context) error  { return nil }

func (w *WriterTarget) WriteEvent(entry *LogEntry) error {
	line, err := formatEntry(entry, w.format)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintln(w.writer, line); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// FileTarget appends events to a file, one per line.
type FileTarget struct {
	path   string
	format string
	logger taskapi.Logger
	mu     sync.Mutex
	file   *os.File
}

// Start creates the parent directory and opens the file for appending.
func (f *FileTarget) Start(context.Context) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", filepath.Dir(f.path), err)
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", f.path, err)
	}

	f.mu.Lock()
	f.file = file
	f.mu.Unlock()
	f.logger.Debug("File output target started", "path", f.path)
	return nil
}

// Stop syncs and closes the file.
func (f *FileTarget) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	_ = f.file.Sync()
	err := f.file.Close()
	f.file = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

func (f *FileTarget) WriteEvent(entry *LogEntry) error {
	line, err := formatEntry(entry, f.format)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return ErrFileNotOpen
	}
	if _, err := fmt.Fprintln(f.file, line); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

func formatEntry(entry *LogEntry, format string) (string, error) {
	if format == "text" {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s [%s] %s", entry.Timestamp.Format(time.RFC3339), entry.Level, entry.Type, entry.Source)
		if entry.Data != nil {
			fmt.Fprintf(&b, " %v", entry.Data)
		}
		return b.String(), nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal log entry to JSON: %w", err)
	}
	return string(data), nil
}
