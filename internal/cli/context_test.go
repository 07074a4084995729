package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
)

func TestContextAddAndList(t *testing.T) {
	store := withTempStore(t)
	withConfig(t)
	origSource, origDate := contextAddSource, contextAddDate
	defer func() { contextAddSource, contextAddDate = origSource, origDate }()

	contextAddSource = "message"
	contextAddDate = "2025-01-05"
	out := captureStdout(t, func() {
		if err := contextAddCmd.RunE(contextAddCmd, []string{"Budget", "review", "moved", "to", "Thursday"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "CTX-00001") {
		t.Errorf("output = %q", out)
	}

	entries, _ := store.GetContexts()
	if len(entries) != 1 || entries[0].SourceType != models.SourceMessage || entries[0].Processed {
		t.Fatalf("entries = %+v", entries)
	}
	want := time.Date(2025, 1, 5, 23, 59, 0, 0, time.UTC)
	if entries[0].ContentDate == nil || !entries[0].ContentDate.Equal(want) {
		t.Errorf("content date = %v, want %v", entries[0].ContentDate, want)
	}

	_ = store.SaveAnalysis("CTX-00001", &models.ContextAnalysis{Summary: "Budget review moved", Strategy: "local"})
	out = captureStdout(t, func() { _ = contextListCmd.RunE(contextListCmd, nil) })
	if !strings.Contains(out, "Budget review moved") || !strings.Contains(out, "local") {
		t.Errorf("list output = %q", out)
	}
}

func TestContextAdd_RejectsUnknownSource(t *testing.T) {
	withTempStore(t)
	origSource := contextAddSource
	defer func() { contextAddSource = origSource }()
	contextAddSource = "fax"

	if err := contextAddCmd.RunE(contextAddCmd, []string{"hello"}); err == nil {
		t.Fatal("expected error for unknown source type")
	}
}
