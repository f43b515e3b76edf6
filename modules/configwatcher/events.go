package configwatcher

// Event types emitted by the configwatcher module.
const (
	EventTypeReloadTriggered = "com.taskapi.configwatcher.reload.triggered"
	EventTypeReloadFailed    = "com.taskapi.configwatcher.reload.failed"
)
