// Package core contains the planning engine for AI Planner: text analysis,
// priority scoring, schedule optimization, workload analysis and the planner
// service that runs them over a task-store snapshot.
package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

// ConfigFileName is the base name of the planner configuration file.
const ConfigFileName = ".plannerconfig"

// ConfigurationManager defines the interface for loading and validating the
// planner configuration.
type ConfigurationManager interface {
	LoadConfig() (*models.PlannerConfig, error)
	ValidateConfig(cfg *models.PlannerConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .plannerconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a PlannerConfig populated with the engine defaults.
func DefaultConfig() *models.PlannerConfig {
	return &models.PlannerConfig{
		Analyzer: models.AnalyzerConfig{
			Strategy:          "local",
			Provider:          "gemini",
			Model:             "",
			APIKeyEnv:         "GEMINI_API_KEY",
			Timeout:           5 * time.Second,
			UrgencyWindowDays: 7,
			BatchConcurrency:  4,
		},
		Scoring: models.ScoringConfig{
			Weights: models.ScoringWeights{
				DeadlineUrgency:  0.35,
				PriorityWeight:   0.25,
				ContextRelevance: 0.25,
				WorkloadPressure: 0.15,
			},
			DeadlineHalfLifeDays: 5,
			ContextRetentionDays: 7,
			MaxContextEntries:    10,
		},
		Schedule: models.ScheduleConfig{
			WorkingHoursStart:      "09:00",
			WorkingHoursEnd:        "17:00",
			ExcludedWeekdays:       []string{"saturday", "sunday"},
			ProbeStep:              15 * time.Minute,
			DefaultDurationMinutes: 60,
			HorizonDays:            60,
			Timezone:               "UTC",
		},
		Workload: models.WorkloadConfig{
			HoursPerDay:       8,
			WindowDays:        7,
			OverdueThreshold:  3,
			ImminentDeadlineH: 48,
		},
		Storage: models.StorageConfig{
			SnapshotFile: "planner.yaml",
			TimeBlockDB:  "timeblocks.db",
			EventLogFile: ".aip_events.jsonl",
		},
		Calendar: models.GoogleCalendarConfig{
			CalendarID:    "primary",
			LookaheadDays: 60,
		},
		Log: models.LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads .plannerconfig from the base path using Viper. Missing
// files and missing keys fall back to DefaultConfig. AIP_* environment
// variables override file values (e.g. AIP_ANALYZER_STRATEGY).
func (cm *viperConfigManager) LoadConfig() (*models.PlannerConfig, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("AIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("analyzer.strategy", cfg.Analyzer.Strategy)
	v.SetDefault("analyzer.provider", cfg.Analyzer.Provider)
	v.SetDefault("analyzer.model", cfg.Analyzer.Model)
	v.SetDefault("analyzer.api_key_env", cfg.Analyzer.APIKeyEnv)
	v.SetDefault("analyzer.timeout", cfg.Analyzer.Timeout)
	v.SetDefault("analyzer.urgency_window_days", cfg.Analyzer.UrgencyWindowDays)
	v.SetDefault("analyzer.batch_concurrency", cfg.Analyzer.BatchConcurrency)
	v.SetDefault("scoring.weights.deadline_urgency", cfg.Scoring.Weights.DeadlineUrgency)
	v.SetDefault("scoring.weights.priority", cfg.Scoring.Weights.PriorityWeight)
	v.SetDefault("scoring.weights.context_relevance", cfg.Scoring.Weights.ContextRelevance)
	v.SetDefault("scoring.weights.workload_pressure", cfg.Scoring.Weights.WorkloadPressure)
	v.SetDefault("scoring.deadline_half_life_days", cfg.Scoring.DeadlineHalfLifeDays)
	v.SetDefault("scoring.context_retention_days", cfg.Scoring.ContextRetentionDays)
	v.SetDefault("scoring.max_context_entries", cfg.Scoring.MaxContextEntries)
	v.SetDefault("schedule.working_hours_start", cfg.Schedule.WorkingHoursStart)
	v.SetDefault("schedule.working_hours_end", cfg.Schedule.WorkingHoursEnd)
	v.SetDefault("schedule.excluded_weekdays", cfg.Schedule.ExcludedWeekdays)
	v.SetDefault("schedule.probe_step", cfg.Schedule.ProbeStep)
	v.SetDefault("schedule.default_duration_minutes", cfg.Schedule.DefaultDurationMinutes)
	v.SetDefault("schedule.horizon_days", cfg.Schedule.HorizonDays)
	v.SetDefault("schedule.timezone", cfg.Schedule.Timezone)
	v.SetDefault("workload.hours_per_day", cfg.Workload.HoursPerDay)
	v.SetDefault("workload.window_days", cfg.Workload.WindowDays)
	v.SetDefault("workload.overdue_threshold", cfg.Workload.OverdueThreshold)
	v.SetDefault("workload.imminent_deadline_hours", cfg.Workload.ImminentDeadlineH)
	v.SetDefault("storage.snapshot_file", cfg.Storage.SnapshotFile)
	v.SetDefault("storage.timeblock_db", cfg.Storage.TimeBlockDB)
	v.SetDefault("storage.event_log_file", cfg.Storage.EventLogFile)
	v.SetDefault("google_calendar.enabled", cfg.Calendar.Enabled)
	v.SetDefault("google_calendar.calendar_id", cfg.Calendar.CalendarID)
	v.SetDefault("google_calendar.lookahead_days", cfg.Calendar.LookaheadDays)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.development", cfg.Log.Development)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
		// No config file found: defaults and environment only.
	}

	cfg.Analyzer.Strategy = v.GetString("analyzer.strategy")
	cfg.Analyzer.Provider = v.GetString("analyzer.provider")
	cfg.Analyzer.Model = v.GetString("analyzer.model")
	cfg.Analyzer.APIKeyEnv = v.GetString("analyzer.api_key_env")
	cfg.Analyzer.Timeout = v.GetDuration("analyzer.timeout")
	cfg.Analyzer.UrgencyWindowDays = v.GetInt("analyzer.urgency_window_days")
	cfg.Analyzer.BatchConcurrency = v.GetInt("analyzer.batch_concurrency")

	cfg.Scoring.Weights.DeadlineUrgency = v.GetFloat64("scoring.weights.deadline_urgency")
	cfg.Scoring.Weights.PriorityWeight = v.GetFloat64("scoring.weights.priority")
	cfg.Scoring.Weights.ContextRelevance = v.GetFloat64("scoring.weights.context_relevance")
	cfg.Scoring.Weights.WorkloadPressure = v.GetFloat64("scoring.weights.workload_pressure")
	cfg.Scoring.DeadlineHalfLifeDays = v.GetFloat64("scoring.deadline_half_life_days")
	cfg.Scoring.ContextRetentionDays = v.GetInt("scoring.context_retention_days")
	cfg.Scoring.MaxContextEntries = v.GetInt("scoring.max_context_entries")

	cfg.Schedule.WorkingHoursStart = v.GetString("schedule.working_hours_start")
	cfg.Schedule.WorkingHoursEnd = v.GetString("schedule.working_hours_end")
	cfg.Schedule.ExcludedWeekdays = v.GetStringSlice("schedule.excluded_weekdays")
	cfg.Schedule.ProbeStep = v.GetDuration("schedule.probe_step")
	cfg.Schedule.DefaultDurationMinutes = v.GetInt("schedule.default_duration_minutes")
	cfg.Schedule.HorizonDays = v.GetInt("schedule.horizon_days")
	cfg.Schedule.Timezone = v.GetString("schedule.timezone")

	cfg.Workload.HoursPerDay = v.GetFloat64("workload.hours_per_day")
	cfg.Workload.WindowDays = v.GetInt("workload.window_days")
	cfg.Workload.OverdueThreshold = v.GetInt("workload.overdue_threshold")
	cfg.Workload.ImminentDeadlineH = v.GetInt("workload.imminent_deadline_hours")

	cfg.Storage.SnapshotFile = v.GetString("storage.snapshot_file")
	cfg.Storage.TimeBlockDB = v.GetString("storage.timeblock_db")
	cfg.Storage.EventLogFile = v.GetString("storage.event_log_file")

	cfg.Calendar.Enabled = v.GetBool("google_calendar.enabled")
	cfg.Calendar.CalendarID = v.GetString("google_calendar.calendar_id")
	cfg.Calendar.CredentialsFile = v.GetString("google_calendar.credentials_file")
	cfg.Calendar.AccessTokenEnv = v.GetString("google_calendar.access_token_env")
	cfg.Calendar.LookaheadDays = v.GetInt("google_calendar.lookahead_days")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Development = v.GetBool("log.development")

	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and reports
// every problem at once.
func (cm *viperConfigManager) ValidateConfig(cfg *models.PlannerConfig) error {
	return ValidateConfig(cfg)
}

// ValidateConfig checks a PlannerConfig for invalid field values.
func ValidateConfig(cfg *models.PlannerConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	switch cfg.Analyzer.Strategy {
	case StrategyLocal, StrategyRemote:
	default:
		errs = append(errs, fmt.Sprintf("analyzer.strategy %q is invalid, must be one of: local, remote", cfg.Analyzer.Strategy))
	}
	if cfg.Analyzer.Strategy == StrategyRemote {
		switch cfg.Analyzer.Provider {
		case "gemini", "openai":
		default:
			errs = append(errs, fmt.Sprintf("analyzer.provider %q is invalid, must be one of: gemini, openai", cfg.Analyzer.Provider))
		}
	}
	if cfg.Analyzer.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("analyzer.timeout must be positive, got %s", cfg.Analyzer.Timeout))
	}
	if cfg.Analyzer.UrgencyWindowDays < 0 {
		errs = append(errs, fmt.Sprintf("analyzer.urgency_window_days must be non-negative, got %d", cfg.Analyzer.UrgencyWindowDays))
	}

	w := cfg.Scoring.Weights
	for name, val := range map[string]float64{
		"deadline_urgency":  w.DeadlineUrgency,
		"priority":          w.PriorityWeight,
		"context_relevance": w.ContextRelevance,
		"workload_pressure": w.WorkloadPressure,
	} {
		if val < 0 {
			errs = append(errs, fmt.Sprintf("scoring.weights.%s must be non-negative, got %g", name, val))
		}
	}
	if math.Abs(w.Sum()-1.0) > 1e-6 {
		errs = append(errs, fmt.Sprintf("scoring.weights must sum to 1.0, got %g", w.Sum()))
	}
	if cfg.Scoring.DeadlineHalfLifeDays <= 0 {
		errs = append(errs, fmt.Sprintf("scoring.deadline_half_life_days must be positive, got %g", cfg.Scoring.DeadlineHalfLifeDays))
	}
	if cfg.Scoring.ContextRetentionDays < 0 {
		errs = append(errs, fmt.Sprintf("scoring.context_retention_days must be non-negative, got %d", cfg.Scoring.ContextRetentionDays))
	}

	startMin, startErr := ParseClock(cfg.Schedule.WorkingHoursStart)
	if startErr != nil {
		errs = append(errs, fmt.Sprintf("schedule.working_hours_start: %v", startErr))
	}
	endMin, endErr := ParseClock(cfg.Schedule.WorkingHoursEnd)
	if endErr != nil {
		errs = append(errs, fmt.Sprintf("schedule.working_hours_end: %v", endErr))
	}
	if startErr == nil && endErr == nil && endMin <= startMin {
		errs = append(errs, "schedule.working_hours_end must be after working_hours_start")
	}
	if days, err := ParseWeekdays(cfg.Schedule.ExcludedWeekdays); err != nil {
		errs = append(errs, fmt.Sprintf("schedule.excluded_weekdays: %v", err))
	} else if len(days) == 7 {
		errs = append(errs, "schedule.excluded_weekdays must leave at least one working day")
	}
	if cfg.Schedule.ProbeStep <= 0 {
		errs = append(errs, fmt.Sprintf("schedule.probe_step must be positive, got %s", cfg.Schedule.ProbeStep))
	}
	if cfg.Schedule.DefaultDurationMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("schedule.default_duration_minutes must be positive, got %d", cfg.Schedule.DefaultDurationMinutes))
	}
	if cfg.Schedule.HorizonDays <= 0 {
		errs = append(errs, fmt.Sprintf("schedule.horizon_days must be positive, got %d", cfg.Schedule.HorizonDays))
	}
	if _, err := time.LoadLocation(cfg.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("schedule.timezone %q is invalid: %v", cfg.Schedule.Timezone, err))
	}

	if cfg.Workload.HoursPerDay <= 0 || cfg.Workload.HoursPerDay > 24 {
		errs = append(errs, fmt.Sprintf("workload.hours_per_day must be in (0, 24], got %g", cfg.Workload.HoursPerDay))
	}
	if cfg.Workload.WindowDays < 1 {
		errs = append(errs, fmt.Sprintf("workload.window_days must be at least 1, got %d", cfg.Workload.WindowDays))
	}

	if cfg.Calendar.Enabled && cfg.Calendar.CredentialsFile == "" && cfg.Calendar.AccessTokenEnv == "" {
		errs = append(errs, "google_calendar requires credentials_file or access_token_env when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("planner config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ParseClock parses a 24h "HH:MM" string into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid HH:MM time", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekdays converts weekday names (full or three-letter) to a set.
func ParseWeekdays(names []string) (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", n)
		}
		days[d] = true
	}
	return days, nil
}
