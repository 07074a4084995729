package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// Priority represents the user-assigned urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidStatuses lists every TaskStatus in lifecycle order.
var ValidStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// ValidPriorities lists every Priority from lowest to highest.
var ValidPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// statusTransitions holds the allowed lifecycle moves. Completed and
// cancelled are terminal.
var statusTransitions = map[TaskStatus][]TaskStatus{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusPending},
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to TaskStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known TaskStatus.
func IsValidStatus(s TaskStatus) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether p is a known Priority.
func IsValidPriority(p Priority) bool {
	for _, v := range ValidPriorities {
		if v == p {
			return true
		}
	}
	return false
}

// Task is a unit of work owned by the single planner user. Category and tags
// are opaque to the engine.
type Task struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Priority    Priority   `yaml:"priority" json:"priority"`
	Status      TaskStatus `yaml:"status" json:"status"`
	Deadline    *time.Time `yaml:"deadline,omitempty" json:"deadline,omitempty"`
	// EstimatedDuration is in minutes; zero means no estimate.
	EstimatedDuration int      `yaml:"estimated_duration,omitempty" json:"estimated_duration,omitempty"`
	Category          string   `yaml:"category,omitempty" json:"category,omitempty"`
	Tags              []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	AIPriorityScore float64 `yaml:"ai_priority_score" json:"ai_priority_score"`
	ScoreReasoning  string  `yaml:"score_reasoning,omitempty" json:"score_reasoning,omitempty"`

	ScheduledStart *time.Time `yaml:"scheduled_start,omitempty" json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `yaml:"scheduled_end,omitempty" json:"scheduled_end,omitempty"`

	Created time.Time `yaml:"created" json:"created"`
	Updated time.Time `yaml:"updated" json:"updated"`
}

// IsActive reports whether the task still needs work.
func (t Task) IsActive() bool {
	return t.Status == StatusPending || t.Status == StatusInProgress
}

// IsHighPriority reports whether the task is high or urgent.
func (t Task) IsHighPriority() bool {
	return t.Priority == PriorityHigh || t.Priority == PriorityUrgent
}

// DurationMinutes returns the estimate, or def when no estimate is set.
func (t Task) DurationMinutes(def int) int {
	if t.EstimatedDuration > 0 {
		return t.EstimatedDuration
	}
	return def
}
