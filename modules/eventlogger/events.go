package eventlogger

// Event types emitted by the eventlogger module. The module never logs its
// own events.
const (
	EventTypeLoggerStarted = "com.taskapi.eventlogger.started"
	EventTypeOutputError   = "com.taskapi.eventlogger.output.error"
)
