package core

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/valter-silva-au/ai-planner/pkg/models"
	"pgregory.net/rapid"
)

func deadlineContext(id, content string, date time.Time, topics, urgency []string) models.ContextEntry {
	return models.ContextEntry{
		ID:          id,
		Content:     content,
		SourceType:  models.SourceEmail,
		ContentDate: &date,
		Created:     date,
		Processed:   true,
		Analysis:    &models.ContextAnalysis{KeyTopics: topics, UrgencyIndicators: urgency},
	}
}

func TestSuggestDeadline(t *testing.T) {
	yesterday := scoreNow.AddDate(0, 0, -1)
	report := task("report", models.PriorityHigh)
	report.Title = "Submit quarterly report"
	report.EstimatedDuration = 90

	long := report
	long.EstimatedDuration = 20 * 60

	heavy := &WorkloadReport{WindowDays: 7, AvailableHours: 56, Utilization: 0.95, WorkloadLevel: WorkloadHeavy}

	tests := []struct {
		name       string
		task       models.Task
		contexts   []models.ContextEntry
		workload   *WorkloadReport
		want       time.Time
		confidence float64
		related    []string
		factor     string
	}{
		{
			name: "related context names a date",
			task: report,
			contexts: []models.ContextEntry{
				deadlineContext("ctx-1", "The quarterly report is due January 10.", yesterday, []string{"quarterly", "report"}, nil),
			},
			want:       time.Date(2025, 1, 10, 23, 59, 0, 0, time.UTC),
			confidence: 0.8,
			related:    []string{"ctx-1"},
			factor:     "context ctx-1 mentions 2025-01-10",
		},
		{
			name: "earliest future date wins",
			task: report,
			contexts: []models.ContextEntry{
				deadlineContext("ctx-1", "Report draft by January 20.", yesterday, []string{"report"}, nil),
				deadlineContext("ctx-2", "Final report on 2025-01-08 please.", yesterday, []string{"report"}, nil),
			},
			want:       time.Date(2025, 1, 8, 23, 59, 0, 0, time.UTC),
			confidence: 0.8,
			related:    []string{"ctx-1", "ctx-2"},
		},
		{
			name: "urgent context without a date",
			task: report,
			contexts: []models.ContextEntry{
				deadlineContext("ctx-1", "Please send the report ASAP.", yesterday, []string{"report"}, []string{"asap"}),
			},
			want:       time.Date(2025, 1, 7, 23, 59, 0, 0, time.UTC),
			confidence: 0.7,
			related:    []string{"ctx-1"},
			factor:     "urgency signals in ctx-1",
		},
		{
			name: "past dates are ignored",
			task: report,
			contexts: []models.ContextEntry{
				deadlineContext("ctx-1", "The report was due 2025-01-02.", scoreNow.AddDate(0, 0, -5), []string{"report"}, nil),
			},
			want:       time.Date(2025, 1, 13, 23, 59, 0, 0, time.UTC),
			confidence: 0.5,
			related:    []string{"ctx-1"},
		},
		{
			name: "unrelated context and heavy workload",
			task: report,
			contexts: []models.ContextEntry{
				deadlineContext("ctx-1", "Buy groceries tomorrow.", yesterday, []string{"groceries"}, []string{"tomorrow"}),
			},
			workload:   heavy,
			want:       time.Date(2025, 1, 15, 23, 59, 0, 0, time.UTC),
			confidence: 0.5,
			related:    []string{},
			factor:     "workload heavy (95% of available hours)",
		},
		{
			name: "effort pushes past the context date",
			task: long,
			contexts: []models.ContextEntry{
				deadlineContext("ctx-1", "Finish the quarterly report today.", scoreNow, []string{"quarterly", "report"}, []string{"today"}),
			},
			want:       time.Date(2025, 1, 7, 23, 59, 0, 0, time.UTC),
			confidence: 0.6,
			related:    []string{"ctx-1"},
			factor:     "moved later to leave room for the estimated effort",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestDeadline(deadlineInput{
				Task:            tt.task,
				Contexts:        tt.contexts,
				Workload:        tt.workload,
				DefaultDuration: 60,
				Now:             scoreNow,
			})
			if !got.SuggestedDeadline.Equal(tt.want) {
				t.Errorf("SuggestedDeadline = %v, want %v", got.SuggestedDeadline, tt.want)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.confidence)
			}
			if diff := cmp.Diff(tt.related, got.RelatedContexts); diff != "" {
				t.Errorf("RelatedContexts mismatch (-want +got):\n%s", diff)
			}
			if tt.factor != "" && !containsString(got.FactorsConsidered, tt.factor) {
				t.Errorf("FactorsConsidered = %q, missing %q", got.FactorsConsidered, tt.factor)
			}
			if got.Reasoning == "" {
				t.Error("Reasoning is empty")
			}
		})
	}
}

func TestSuggestDeadline_NotesEarlierCurrentDeadline(t *testing.T) {
	tk := task("report", models.PriorityHigh)
	tk.Deadline = ptime(scoreNow.Add(48 * time.Hour))

	got := suggestDeadline(deadlineInput{Task: tk, DefaultDuration: 60, Now: scoreNow})
	if got.CurrentDeadline == nil || !got.CurrentDeadline.Equal(*tk.Deadline) {
		t.Errorf("CurrentDeadline = %v, want %v", got.CurrentDeadline, tk.Deadline)
	}
	if !strings.Contains(got.Reasoning, "current deadline is earlier") {
		t.Errorf("Reasoning = %q, want a note about the earlier deadline", got.Reasoning)
	}
}

func TestSuggestDeadline_NeverBeforeEffortFits(t *testing.T) {
	phrases := []string{"today", "tomorrow", "next week", "2025-01-03", "January 9", "friday", "asap", "no date here"}
	rapid.Check(t, func(t *rapid.T) {
		now := scoreNow.Add(time.Duration(rapid.IntRange(0, 15*60).Draw(t, "minutes")) * time.Minute)
		tk := task("report", models.PriorityMedium)
		tk.Title = "Write report"
		tk.EstimatedDuration = rapid.SampledFrom([]int{0, 30, 90, 240, 600, 1500}).Draw(t, "duration")

		var contexts []models.ContextEntry
		for i := range rapid.IntRange(0, 4).Draw(t, "contexts") {
			date := now.Add(-time.Duration(rapid.IntRange(0, 10*24).Draw(t, "age")) * time.Hour)
			phrase := rapid.SampledFrom(phrases).Draw(t, "phrase")
			contexts = append(contexts, deadlineContext(
				string(rune('a'+i)), "Send the report "+phrase+".", date, []string{"report"}, nil))
		}

		got := suggestDeadline(deadlineInput{Task: tk, Contexts: contexts, DefaultDuration: 60, Now: now})
		finish := now.Add(time.Duration(tk.DurationMinutes(60)) * time.Minute)
		if got.SuggestedDeadline.Before(finish) {
			t.Fatalf("SuggestedDeadline %v is before the effort could finish (%v)", got.SuggestedDeadline, finish)
		}
		if got.Confidence <= 0 || got.Confidence > 1 {
			t.Fatalf("Confidence = %v, want (0, 1]", got.Confidence)
		}
	})
}
