package cli

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/internal/storage"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

// captureStdout captures stdout output during fn execution.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}

// withTempStore points Store at a fresh planner file for the test.
func withTempStore(t *testing.T) storage.PlannerStore {
	t.Helper()
	orig := Store
	t.Cleanup(func() { Store = orig })
	clock := func() time.Time { return time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC) }
	Store = storage.NewPlannerStore(t.TempDir(), "planner.yaml", clock)
	return Store
}

// withConfig installs a UTC planning config for the test.
func withConfig(t *testing.T) {
	t.Helper()
	orig := Config
	t.Cleanup(func() { Config = orig })
	cfg := core.DefaultConfig()
	cfg.Schedule.Timezone = "UTC"
	Config = cfg
}

func withPlanner(t *testing.T, p core.Planner) {
	t.Helper()
	orig := Planner
	t.Cleanup(func() { Planner = orig })
	Planner = p
}

type plannerMock struct {
	analyzeFn    func(req core.AnalyzeRequest) (*models.ContextAnalysis, error)
	entriesFn    func(entries []models.ContextEntry, refresh bool) ([]models.ContextEntry, error)
	prioritizeFn func(req core.PrioritizeRequest) (*core.PrioritizeResult, error)
	optimizeFn   func(ids []string) (*core.ScheduleResult, error)
	workloadFn   func(windowDays int) (*core.WorkloadReport, error)
	applyFn      func(as []core.Assignment) ([]core.ApplyOutcome, error)
	deadlineFn   func(taskID string) (*core.DeadlineSuggestion, error)
	insightsFn   func(windowDays int) (*core.ContextInsights, error)
}

func (m *plannerMock) AnalyzeContext(_ context.Context, req core.AnalyzeRequest) (*models.ContextAnalysis, error) {
	return m.analyzeFn(req)
}

func (m *plannerMock) AnalyzeEntries(_ context.Context, entries []models.ContextEntry, refresh bool) ([]models.ContextEntry, error) {
	return m.entriesFn(entries, refresh)
}

func (m *plannerMock) PrioritizeTasks(_ context.Context, req core.PrioritizeRequest) (*core.PrioritizeResult, error) {
	return m.prioritizeFn(req)
}

func (m *plannerMock) OptimizeSchedule(_ context.Context, ids []string) (*core.ScheduleResult, error) {
	return m.optimizeFn(ids)
}

func (m *plannerMock) WorkloadAnalysis(_ context.Context, windowDays int) (*core.WorkloadReport, error) {
	return m.workloadFn(windowDays)
}

func (m *plannerMock) ApplySchedule(_ context.Context, as []core.Assignment) ([]core.ApplyOutcome, error) {
	return m.applyFn(as)
}

func (m *plannerMock) SuggestDeadline(_ context.Context, taskID string) (*core.DeadlineSuggestion, error) {
	return m.deadlineFn(taskID)
}

func (m *plannerMock) ContextInsights(_ context.Context, windowDays int) (*core.ContextInsights, error) {
	return m.insightsFn(windowDays)
}

func sampleAnalysis() *models.ContextAnalysis {
	return &models.ContextAnalysis{
		Summary:           "Send the Q3 report",
		KeyTopics:         []string{"report", "q3"},
		UrgencyIndicators: []string{"urgent"},
		SentimentScore:    -0.2,
		PotentialTasks:    []models.PotentialTask{{Title: "Send the Q3 report", Urgency: "high", DeadlineHint: "2025-01-10"}},
		TimeReferences:    []string{"2025-01-10"},
		Strategy:          "local",
	}
}

func emptyWorkload(level string) *core.WorkloadReport {
	return &core.WorkloadReport{
		WorkloadLevel:      level,
		ImminentDeadlines:  []string{},
		PostponeCandidates: []core.PostponeCandidate{},
		Recommendations:    []string{},
	}
}
