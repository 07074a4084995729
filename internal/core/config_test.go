package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// --- Helper ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// --- LoadConfig tests ---

func TestLoadConfig_Defaults_WhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigurationManager(dir)

	cfg, err := cm.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Analyzer.Strategy != StrategyLocal {
		t.Errorf("Analyzer.Strategy = %q, want %q", cfg.Analyzer.Strategy, StrategyLocal)
	}
	if cfg.Analyzer.Timeout != 5*time.Second {
		t.Errorf("Analyzer.Timeout = %v, want 5s", cfg.Analyzer.Timeout)
	}
	if cfg.Scoring.Weights.DeadlineUrgency != 0.35 || cfg.Scoring.Weights.WorkloadPressure != 0.15 {
		t.Errorf("Scoring.Weights = %+v", cfg.Scoring.Weights)
	}
	if cfg.Schedule.WorkingHoursStart != "09:00" || cfg.Schedule.WorkingHoursEnd != "17:00" {
		t.Errorf("working hours = %s-%s", cfg.Schedule.WorkingHoursStart, cfg.Schedule.WorkingHoursEnd)
	}
	if cfg.Schedule.ProbeStep != 15*time.Minute {
		t.Errorf("ProbeStep = %v, want 15m", cfg.Schedule.ProbeStep)
	}
	if len(cfg.Schedule.ExcludedWeekdays) != 2 {
		t.Errorf("ExcludedWeekdays = %v", cfg.Schedule.ExcludedWeekdays)
	}
	if cfg.Workload.HoursPerDay != 8 {
		t.Errorf("HoursPerDay = %v, want 8", cfg.Workload.HoursPerDay)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadConfig_ReadsPlannerconfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".plannerconfig.yaml", `
analyzer:
  strategy: remote
  provider: openai
  model: gpt-4o-mini
  timeout: 3s
scoring:
  weights:
    deadline_urgency: 0.4
    priority: 0.3
    context_relevance: 0.2
    workload_pressure: 0.1
schedule:
  working_hours_start: "08:30"
  working_hours_end: "16:30"
  excluded_weekdays: [friday, saturday]
  timezone: Europe/Berlin
workload:
  hours_per_day: 6
google_calendar:
  enabled: true
  calendar_id: work@example.com
  access_token_env: GCAL_TOKEN
`)

	cfg, err := NewConfigurationManager(dir).LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analyzer.Strategy != StrategyRemote || cfg.Analyzer.Provider != "openai" {
		t.Errorf("Analyzer = %+v", cfg.Analyzer)
	}
	if cfg.Analyzer.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Analyzer.Timeout)
	}
	if cfg.Scoring.Weights.PriorityWeight != 0.3 {
		t.Errorf("PriorityWeight = %v, want 0.3", cfg.Scoring.Weights.PriorityWeight)
	}
	if cfg.Schedule.WorkingHoursStart != "08:30" || cfg.Schedule.Timezone != "Europe/Berlin" {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	if cfg.Schedule.ExcludedWeekdays[0] != "friday" {
		t.Errorf("ExcludedWeekdays = %v", cfg.Schedule.ExcludedWeekdays)
	}
	if cfg.Workload.HoursPerDay != 6 {
		t.Errorf("HoursPerDay = %v, want 6", cfg.Workload.HoursPerDay)
	}
	// Unset keys keep their defaults.
	if cfg.Scoring.DeadlineHalfLifeDays != 5 {
		t.Errorf("DeadlineHalfLifeDays = %v, want default 5", cfg.Scoring.DeadlineHalfLifeDays)
	}
	if !cfg.Calendar.Enabled || cfg.Calendar.CalendarID != "work@example.com" {
		t.Errorf("Calendar = %+v", cfg.Calendar)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("config should validate: %v", err)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AIP_ANALYZER_STRATEGY", "remote")
	t.Setenv("AIP_WORKLOAD_WINDOW_DAYS", "14")

	cfg, err := NewConfigurationManager(dir).LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analyzer.Strategy != StrategyRemote {
		t.Errorf("Strategy = %q, want remote from env", cfg.Analyzer.Strategy)
	}
	if cfg.Workload.WindowDays != 14 {
		t.Errorf("WindowDays = %d, want 14 from env", cfg.Workload.WindowDays)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".plannerconfig.yaml", "analyzer: [unclosed\n")
	if _, err := NewConfigurationManager(dir).LoadConfig(); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

// --- ValidateConfig tests ---

func TestValidateConfig_CollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analyzer.Strategy = "psychic"
	cfg.Scoring.Weights.PriorityWeight = 0.5
	cfg.Schedule.WorkingHoursStart = "25:00"
	cfg.Schedule.ExcludedWeekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
	cfg.Workload.WindowDays = 0
	cfg.Schedule.Timezone = "Mars/Olympus"

	err := ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"analyzer.strategy",
		"must sum to 1.0",
		"working_hours_start",
		"at least one working day",
		"workload.window_days",
		"schedule.timezone",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err.Error(), want)
		}
	}
}

func TestValidateConfig_RemoteNeedsKnownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analyzer.Strategy = StrategyRemote
	cfg.Analyzer.Provider = "carrier-pigeon"
	if err := ValidateConfig(cfg); err == nil || !strings.Contains(err.Error(), "analyzer.provider") {
		t.Errorf("err = %v, want provider error", err)
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	if err := ValidateConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"17:30", 1050, false},
		{" 08:15 ", 495, false},
		{"9am", 0, true},
		{"24:00", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"Saturday", "sun"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !days[time.Saturday] || !days[time.Sunday] || len(days) != 2 {
		t.Errorf("days = %v", days)
	}
	if _, err := ParseWeekdays([]string{"someday"}); err == nil {
		t.Error("expected error for unknown weekday")
	}
}
