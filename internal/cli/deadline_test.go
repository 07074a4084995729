package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

func resetDeadlineFlags() {
	deadlineApply, deadlineJSON = false, false
}

func sampleSuggestion(id string) *core.DeadlineSuggestion {
	return &core.DeadlineSuggestion{
		TaskID:            id,
		Title:             "Send the Q3 report",
		SuggestedDeadline: time.Date(2025, 1, 10, 23, 59, 0, 0, time.UTC),
		Confidence:        0.8,
		Reasoning:         "Related context CTX-00001 names Fri Jan 10.",
		FactorsConsidered: []string{"context CTX-00001 mentions 2025-01-10"},
		RelatedContexts:   []string{"CTX-00001"},
	}
}

func TestDeadlineCmd(t *testing.T) {
	withConfig(t)
	defer resetDeadlineFlags()

	var gotID string
	withPlanner(t, &plannerMock{deadlineFn: func(taskID string) (*core.DeadlineSuggestion, error) {
		gotID = taskID
		return sampleSuggestion(taskID), nil
	}})

	out := captureStdout(t, func() {
		if err := deadlineCmd.RunE(deadlineCmd, []string{"TASK-00001"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if gotID != "TASK-00001" {
		t.Errorf("task id = %q", gotID)
	}
	for _, want := range []string{"2025-01-10 23:59", "confidence 80%", "names Fri Jan 10", "CTX-00001", "mentions 2025-01-10"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "Deadline saved") {
		t.Error("deadline reported as saved without --apply")
	}
}

func TestDeadlineCmd_Apply(t *testing.T) {
	store := withTempStore(t)
	withConfig(t)
	defer resetDeadlineFlags()
	deadlineApply = true

	added, err := store.AddTask(models.Task{Title: "Send the Q3 report"})
	if err != nil {
		t.Fatal(err)
	}
	withPlanner(t, &plannerMock{deadlineFn: func(taskID string) (*core.DeadlineSuggestion, error) {
		return sampleSuggestion(taskID), nil
	}})

	out := captureStdout(t, func() {
		if err := deadlineCmd.RunE(deadlineCmd, []string{added.ID}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Deadline saved") {
		t.Errorf("output = %q", out)
	}
	got, err := store.GetTask(added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Deadline == nil || !got.Deadline.Equal(time.Date(2025, 1, 10, 23, 59, 0, 0, time.UTC)) {
		t.Errorf("Deadline = %v", got.Deadline)
	}
}

func TestDeadlineCmd_Errors(t *testing.T) {
	defer resetDeadlineFlags()

	withPlanner(t, nil)
	if err := deadlineCmd.RunE(deadlineCmd, []string{"TASK-00001"}); err == nil {
		t.Error("expected error when Planner is nil")
	}

	withPlanner(t, &plannerMock{deadlineFn: func(string) (*core.DeadlineSuggestion, error) {
		return nil, core.ErrTaskNotFound
	}})
	err := deadlineCmd.RunE(deadlineCmd, []string{"TASK-404"})
	if !errors.Is(err, core.ErrTaskNotFound) || !strings.Contains(err.Error(), "suggesting deadline") {
		t.Errorf("err = %v", err)
	}

	orig := Store
	defer func() { Store = orig }()
	Store = nil
	deadlineApply = true
	if err := deadlineCmd.RunE(deadlineCmd, []string{"TASK-00001"}); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("apply without store: err = %v", err)
	}
}
