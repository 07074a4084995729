package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/ai-planner/internal/storage"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

func resetTaskAddFlags() {
	taskAddPriority = "medium"
	taskAddDeadline = ""
	taskAddDuration = 0
	taskAddCategory = ""
	taskAddDescription = ""
	taskAddTags = nil
}

func resetTaskListFlags() {
	taskListStatus, taskListPriority, taskListCategory = "", "", ""
	taskListTags = nil
	taskListAll, taskListJSON = false, false
}

func TestTaskCmds_NilStore(t *testing.T) {
	orig := Store
	defer func() { Store = orig }()
	Store = nil

	tests := []struct {
		name string
		run  func() error
	}{
		{"add", func() error { return taskAddCmd.RunE(taskAddCmd, []string{"x"}) }},
		{"list", func() error { return taskListCmd.RunE(taskListCmd, nil) }},
		{"show", func() error { return taskShowCmd.RunE(taskShowCmd, []string{"TASK-00001"}) }},
		{"status", func() error { return taskStatusCmd.RunE(taskStatusCmd, []string{"TASK-00001", "in_progress"}) }},
		{"remove", func() error { return taskRemoveCmd.RunE(taskRemoveCmd, []string{"TASK-00001"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil || !strings.Contains(err.Error(), "not initialized") {
				t.Errorf("expected not initialized error, got %v", err)
			}
		})
	}
}

func TestTaskAdd_StoresAllFields(t *testing.T) {
	store := withTempStore(t)
	withConfig(t)
	defer resetTaskAddFlags()

	taskAddPriority = "high"
	taskAddDeadline = "2025-01-10 17:00"
	taskAddDuration = 90
	taskAddCategory = "work"
	taskAddTags = []string{"q3", "report"}

	out := captureStdout(t, func() {
		if err := taskAddCmd.RunE(taskAddCmd, []string{"Write", "Q3", "report"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Created task TASK-00001") {
		t.Errorf("output = %q", out)
	}

	task, err := store.GetTask("TASK-00001")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Title != "Write Q3 report" || task.Priority != models.PriorityHigh || task.EstimatedDuration != 90 {
		t.Errorf("task = %+v", task)
	}
	want := time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC)
	if task.Deadline == nil || !task.Deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", task.Deadline, want)
	}
	if task.Category != "work" || len(task.Tags) != 2 {
		t.Errorf("category/tags = %q %v", task.Category, task.Tags)
	}
}

func TestTaskAdd_Rejects(t *testing.T) {
	withTempStore(t)
	withConfig(t)
	defer resetTaskAddFlags()

	tests := []struct {
		name  string
		setup func()
		want  string
	}{
		{"bad deadline", func() { taskAddDeadline = "next week" }, "--deadline"},
		{"bad priority", func() { taskAddPriority = "whenever" }, "adding task"},
		{"negative duration", func() { taskAddDuration = -5 }, "adding task"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetTaskAddFlags()
			tt.setup()
			err := taskAddCmd.RunE(taskAddCmd, []string{"Task"})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestTaskList_ActiveByDefault(t *testing.T) {
	store := withTempStore(t)
	withConfig(t)
	defer resetTaskListFlags()

	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		if _, err := store.AddTask(models.Task{Title: title}); err != nil {
			t.Fatal(err)
		}
	}
	_ = store.UpdateTaskStatus("TASK-00002", models.StatusInProgress)
	_ = store.UpdateTaskStatus("TASK-00002", models.StatusCompleted)

	out := captureStdout(t, func() {
		if err := taskListCmd.RunE(taskListCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Alpha") || !strings.Contains(out, "Gamma") {
		t.Errorf("active tasks missing from %q", out)
	}
	if strings.Contains(out, "Beta") {
		t.Errorf("completed task listed without --all: %q", out)
	}

	taskListAll = true
	out = captureStdout(t, func() { _ = taskListCmd.RunE(taskListCmd, nil) })
	if !strings.Contains(out, "Beta") {
		t.Errorf("--all should include completed task: %q", out)
	}
}

func TestTaskList_Empty(t *testing.T) {
	withTempStore(t)
	defer resetTaskListFlags()

	out := captureStdout(t, func() { _ = taskListCmd.RunE(taskListCmd, nil) })
	if !strings.Contains(out, "No tasks found") {
		t.Errorf("output = %q", out)
	}

	taskListJSON = true
	out = captureStdout(t, func() { _ = taskListCmd.RunE(taskListCmd, nil) })
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("JSON output = %q, want []", out)
	}
}

func TestTaskStatus(t *testing.T) {
	store := withTempStore(t)
	if _, err := store.AddTask(models.Task{Title: "Alpha"}); err != nil {
		t.Fatal(err)
	}

	captureStdout(t, func() {
		if err := taskStatusCmd.RunE(taskStatusCmd, []string{"TASK-00001", "in_progress"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	task, _ := store.GetTask("TASK-00001")
	if task.Status != models.StatusInProgress {
		t.Errorf("status = %s", task.Status)
	}

	err := taskStatusCmd.RunE(taskStatusCmd, []string{"TASK-00001", "pending"})
	if err != nil {
		t.Fatalf("in_progress -> pending should be allowed: %v", err)
	}
	err = taskStatusCmd.RunE(taskStatusCmd, []string{"TASK-00001", "completed"})
	if !errors.Is(err, storage.ErrInvalidTransition) {
		t.Errorf("pending -> completed error = %v, want ErrInvalidTransition", err)
	}
}

func TestTaskShowAndRemove(t *testing.T) {
	store := withTempStore(t)
	withConfig(t)
	if _, err := store.AddTask(models.Task{Title: "Alpha", EstimatedDuration: 75, Tags: []string{"x"}}); err != nil {
		t.Fatal(err)
	}
	_ = store.SetTaskScore("TASK-00001", 64.5, "Medium priority (64.50).")

	out := captureStdout(t, func() {
		if err := taskShowCmd.RunE(taskShowCmd, []string{"TASK-00001"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	for _, want := range []string{"Alpha", "1h15m", "64.50", "Medium priority"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q: %q", want, out)
		}
	}

	captureStdout(t, func() {
		if err := taskRemoveCmd.RunE(taskRemoveCmd, []string{"TASK-00001"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if _, err := store.GetTask("TASK-00001"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTask after remove = %v, want ErrNotFound", err)
	}
	if err := taskShowCmd.RunE(taskShowCmd, []string{"TASK-00001"}); err == nil {
		t.Error("expected error showing removed task")
	}
}
