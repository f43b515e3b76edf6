package chimux

// Event type constants for chimux module events.
// Following CloudEvents specification reverse domain notation.
const (
	EventTypeRouterStarted = "com.taskapi.chimux.router.started"
	EventTypeRouterStopped = "com.taskapi.chimux.router.stopped"

	EventTypeRouteRegistered = "com.taskapi.chimux.route.registered"
	EventTypeRequestFailed   = "com.taskapi.chimux.request.failed"
)
