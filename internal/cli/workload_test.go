package cli

import (
	"strings"
	"testing"

	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

func TestWorkloadCmd(t *testing.T) {
	origWindow := workloadWindow
	defer func() { workloadWindow = origWindow }()
	workloadWindow = 14

	var gotWindow int
	withPlanner(t, &plannerMock{workloadFn: func(windowDays int) (*core.WorkloadReport, error) {
		gotWindow = windowDays
		return &core.WorkloadReport{
			WindowDays:          14,
			TotalActiveTasks:    6,
			TotalEstimatedHours: 90,
			AvailableHours:      80,
			Utilization:         1.1,
			WorkloadLevel:       core.WorkloadOverloaded,
			ImminentDeadlines:   []string{},
			PostponeCandidates: []core.PostponeCandidate{
				{TaskID: "TASK-00004", Title: "Refactor billing", Priority: models.PriorityLow, EstimatedHours: 12},
			},
			Recommendations: []string{"Workload is overloaded: consider postponing or delegating 1 task(s)."},
		}, nil
	}})

	out := captureStdout(t, func() {
		if err := workloadCmd.RunE(workloadCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if gotWindow != 14 {
		t.Errorf("window = %d, want 14", gotWindow)
	}
	for _, want := range []string{"14 day(s)", "overloaded", "90.0h", "110%", "Refactor billing", "consider postponing"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestWorkloadCmd_NilPlanner(t *testing.T) {
	withPlanner(t, nil)
	if err := workloadCmd.RunE(workloadCmd, nil); err == nil {
		t.Fatal("expected error when Planner is nil")
	}
}
