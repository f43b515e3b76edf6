package httpserver

// Event type constants for httpserver module events.
// Following CloudEvents specification reverse domain notation.
const (
	EventTypeServerStarted = "com.taskapi.httpserver.server.started"
	EventTypeServerStopped = "com.taskapi.httpserver.server.stopped"
)
