package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

func resetAnalyzeFlags() {
	analyzeFile, analyzeSource, analyzeDate = "", "note", ""
	analyzeSave, analyzeJSON = false, false
}

func TestReadContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mail.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		file    string
		stdin   string
		want    string
		wantErr bool
	}{
		{"args joined", []string{"send", "report"}, "", "", "send report", false},
		{"file", nil, path, "", "from file", false},
		{"stdin", nil, "-", "piped text", "piped text", false},
		{"nothing", nil, "", "", "", true},
		{"both", []string{"x"}, path, "", "", true},
		{"missing file", nil, filepath.Join(dir, "nope.txt"), "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readContent(tt.args, tt.file, strings.NewReader(tt.stdin))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeCmd_NilPlanner(t *testing.T) {
	withPlanner(t, nil)
	err := analyzeCmd.RunE(analyzeCmd, []string{"hello"})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}

func TestAnalyzeCmd_PrintsAnalysis(t *testing.T) {
	withConfig(t)
	defer resetAnalyzeFlags()

	var got core.AnalyzeRequest
	withPlanner(t, &plannerMock{analyzeFn: func(req core.AnalyzeRequest) (*models.ContextAnalysis, error) {
		got = req
		return sampleAnalysis(), nil
	}})
	analyzeSource = "email"
	analyzeDate = "2025-01-06T09:00:00Z"

	out := captureStdout(t, func() {
		if err := analyzeCmd.RunE(analyzeCmd, []string{"Send the Q3 report by Friday, urgent"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	if got.SourceType != models.SourceEmail || got.ContentDate == nil ||
		!got.ContentDate.Equal(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("request = %+v", got)
	}
	for _, want := range []string{"Send the Q3 report", "report, q3", "urgent", "[high]", "by 2025-01-10"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestAnalyzeCmd_PropagatesValidation(t *testing.T) {
	defer resetAnalyzeFlags()
	withPlanner(t, &plannerMock{analyzeFn: func(req core.AnalyzeRequest) (*models.ContextAnalysis, error) {
		return nil, req.Validate()
	}})

	err := analyzeCmd.RunE(analyzeCmd, []string{"   "})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestAnalyzeCmd_SaveStoresEntry(t *testing.T) {
	store := withTempStore(t)
	defer resetAnalyzeFlags()

	var refreshed bool
	withPlanner(t, &plannerMock{entriesFn: func(entries []models.ContextEntry, refresh bool) ([]models.ContextEntry, error) {
		refreshed = refresh
		out := append([]models.ContextEntry(nil), entries...)
		out[0].Analysis = sampleAnalysis()
		out[0].Processed = true
		return out, nil
	}})
	analyzeSave = true
	analyzeJSON = true

	out := captureStdout(t, func() {
		if err := analyzeCmd.RunE(analyzeCmd, []string{"Send the Q3 report"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, `"summary": "Send the Q3 report"`) {
		t.Errorf("JSON output = %q", out)
	}
	if refreshed {
		t.Error("saved entry should be analyzed without refresh")
	}

	entries, err := store.GetContexts()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Content != "Send the Q3 report" || entries[0].SourceType != models.SourceNote {
		t.Errorf("stored entries = %+v", entries)
	}
}

func TestAnalyzeCmd_SaveRejectsEmptyBeforeStoring(t *testing.T) {
	store := withTempStore(t)
	defer resetAnalyzeFlags()
	withPlanner(t, &plannerMock{})
	analyzeSave = true

	err := analyzeCmd.RunE(analyzeCmd, []string{" "})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	entries, _ := store.GetContexts()
	if len(entries) != 0 {
		t.Errorf("nothing should be stored, got %d entries", len(entries))
	}
}
