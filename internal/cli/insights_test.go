package cli

import (
	"strings"
	"testing"

	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

func TestInsightsCmd(t *testing.T) {
	origWindow := insightsWindow
	defer func() { insightsWindow = origWindow }()
	insightsWindow = 14

	var gotWindow int
	withPlanner(t, &plannerMock{insightsFn: func(windowDays int) (*core.ContextInsights, error) {
		gotWindow = windowDays
		return &core.ContextInsights{
			WindowDays:            14,
			TotalEntries:          5,
			PreviousEntries:       2,
			EntriesChange:         3,
			AnalyzedEntries:       5,
			UrgentEntries:         2,
			PotentialTasks:        4,
			AverageSentiment:      -0.12,
			SentimentDistribution: core.SentimentDistribution{Positive: 20, Neutral: 60, Negative: 20},
			SourceDistribution: []core.SourceCount{
				{Source: models.SourceEmail, Count: 3, Percent: 60},
				{Source: models.SourceNote, Count: 2, Percent: 40},
			},
			TopTopics: []core.TopicCount{{Topic: "report", Count: 3}},
			Insights:  []string{"Most context comes from email (60%)."},
		}, nil
	}})

	out := captureStdout(t, func() {
		if err := insightsCmd.RunE(insightsCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if gotWindow != 14 {
		t.Errorf("window = %d, want 14", gotWindow)
	}
	for _, want := range []string{"14 day(s): 5 entries (+3", "-0.12", "email", "60.0%", "report", "Most context comes from email"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestInsightsCmd_Empty(t *testing.T) {
	withPlanner(t, &plannerMock{insightsFn: func(int) (*core.ContextInsights, error) {
		return &core.ContextInsights{WindowDays: 30, Insights: []string{"No context entries in the last 30 days."}}, nil
	}})
	out := captureStdout(t, func() {
		if err := insightsCmd.RunE(insightsCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "No context entries") || strings.Contains(out, "Sources:") {
		t.Errorf("output = %q", out)
	}
}

func TestInsightsCmd_NilPlanner(t *testing.T) {
	withPlanner(t, nil)
	if err := insightsCmd.RunE(insightsCmd, nil); err == nil {
		t.Fatal("expected error when Planner is nil")
	}
}
