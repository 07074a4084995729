package models

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

// Overlaps reports whether two half-open intervals share any instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Valid reports whether End is strictly after Start.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// CalendarEvent is an existing commitment that occupies time.
type CalendarEvent struct {
	ID     string    `yaml:"id" json:"id"`
	Title  string    `yaml:"title" json:"title"`
	Start  time.Time `yaml:"start" json:"start"`
	End    time.Time `yaml:"end" json:"end"`
	TaskID string    `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	Source string    `yaml:"source,omitempty" json:"source,omitempty"`
}

// Interval returns the time range covered by the event.
func (e CalendarEvent) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}

// TimeBlockStatus represents the lifecycle of a time block.
type TimeBlockStatus string

const (
	BlockScheduled  TimeBlockStatus = "scheduled"
	BlockInProgress TimeBlockStatus = "in_progress"
	BlockCompleted  TimeBlockStatus = "completed"
	BlockCancelled  TimeBlockStatus = "cancelled"
)

// IsValidBlockStatus reports whether s is a known TimeBlockStatus.
func IsValidBlockStatus(s TimeBlockStatus) bool {
	switch s {
	case BlockScheduled, BlockInProgress, BlockCompleted, BlockCancelled:
		return true
	}
	return false
}

// TimeBlock is a concrete interval assigned to a task. Blocks that are
// scheduled or in progress must never overlap each other.
type TimeBlock struct {
	ID      string          `yaml:"id" json:"id"`
	TaskID  string          `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	Start   time.Time       `yaml:"start" json:"start"`
	End     time.Time       `yaml:"end" json:"end"`
	Status  TimeBlockStatus `yaml:"status" json:"status"`
	Notes   string          `yaml:"notes,omitempty" json:"notes,omitempty"`
	Created time.Time       `yaml:"created" json:"created"`
}

// IsActive reports whether the block occupies calendar time.
func (b TimeBlock) IsActive() bool {
	return b.Status == BlockScheduled || b.Status == BlockInProgress
}

// Interval returns the time range covered by the block.
func (b TimeBlock) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}
