package core

// Planner event types written to the event log.
const (
	EventContextAnalyzed   = "context.analyzed"
	EventTasksPrioritized  = "tasks.prioritized"
	EventScheduleOptimized = "schedule.optimized"
	EventScheduleApplied   = "schedule.applied"
	EventScheduleConflict  = "schedule.conflict"
	EventDeadlineSuggested = "deadline.suggested"
)

// EventLogger is the subset of the observability event log that the planner
// needs. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
