package scheduler

// Event type constants for scheduler module events.
// Following CloudEvents specification reverse domain notation.
const (
	EventTypeJobScheduled = "com.taskapi.scheduler.job.scheduled"
	EventTypeJobStarted   = "com.taskapi.scheduler.job.started"
	EventTypeJobCompleted = "com.taskapi.scheduler.job.completed"
	EventTypeJobFailed    = "com.taskapi.scheduler.job.failed"
	EventTypeJobCancelled = "com.taskapi.scheduler.job.cancelled"

	EventTypeSchedulerStarted = "com.taskapi.scheduler.scheduler.started"
	EventTypeSchedulerStopped = "com.taskapi.scheduler.scheduler.stopped"
)
