package taskapi

// Logger defines the interface for application logging.
// It uses key/value pairs for structured output and is satisfied by *slog.Logger:
//
//	logger.Info("Task created", "taskID", 2, "module", "tasks")
type Logger interface {
	// Info logs normal lifecycle events such as module startup.
	Info(msg string, args ...any)

	// Error logs failures that do not stop the application.
	Error(msg string, args ...any)

	// Warn logs unusual conditions.
	Warn(msg string, args ...any)

	// Debug logs diagnostic detail, normally disabled.
	Debug(msg string, args ...any)
}
