package core

import (
	"context"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
)

// Snapshot is one consistent read of the task store. Every planner
// computation runs over a single Snapshot.
type Snapshot struct {
	Tasks      []models.Task          `json:"tasks"`
	Contexts   []models.ContextEntry  `json:"contexts"`
	Events     []models.CalendarEvent `json:"events"`
	TimeBlocks []models.TimeBlock     `json:"time_blocks"`
}

// SnapshotSource reads the current task store state.
// This interface is defined locally in core to avoid importing storage.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// AnalysisCache persists a context entry's analysis and marks it processed.
type AnalysisCache interface {
	SaveAnalysis(entryID string, analysis *models.ContextAnalysis) error
}

// TimeBlockStore persists accepted assignments. Reserve must reject a block
// overlapping any active block with ErrScheduleConflict, atomically with the
// insert.
type TimeBlockStore interface {
	Reserve(ctx context.Context, block models.TimeBlock) error
	UpdateStatus(ctx context.Context, id string, status models.TimeBlockStatus) error
}

// TaskScheduleWriter records an applied schedule on the task itself.
type TaskScheduleWriter interface {
	SetTaskSchedule(taskID string, start, end time.Time) error
}

// TaskScoreWriter stores computed scores and reasoning on tasks.
type TaskScoreWriter interface {
	SetTaskScore(taskID string, score float64, reasoning string) error
}
