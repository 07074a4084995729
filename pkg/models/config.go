package models

import "time"

// AnalyzerConfig selects and tunes the text analysis strategy.
type AnalyzerConfig struct {
	// Strategy is "local" or "remote".
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
	// Provider is the remote text service: "gemini" or "openai".
	Provider          string        `yaml:"provider" mapstructure:"provider"`
	Model             string        `yaml:"model,omitempty" mapstructure:"model"`
	APIKeyEnv         string        `yaml:"api_key_env,omitempty" mapstructure:"api_key_env"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UrgencyWindowDays int           `yaml:"urgency_window_days" mapstructure:"urgency_window_days"`
	BatchConcurrency  int           `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
}

// ScoringWeights are the composite score weights. They must sum to 1.0.
type ScoringWeights struct {
	DeadlineUrgency  float64 `yaml:"deadline_urgency" mapstructure:"deadline_urgency"`
	PriorityWeight   float64 `yaml:"priority" mapstructure:"priority"`
	ContextRelevance float64 `yaml:"context_relevance" mapstructure:"context_relevance"`
	WorkloadPressure float64 `yaml:"workload_pressure" mapstructure:"workload_pressure"`
}

// Sum returns the total of all weights.
func (w ScoringWeights) Sum() float64 {
	return w.DeadlineUrgency + w.PriorityWeight + w.ContextRelevance + w.WorkloadPressure
}

// ScoringConfig tunes the priority scorer.
type ScoringConfig struct {
	Weights              ScoringWeights `yaml:"weights" mapstructure:"weights"`
	DeadlineHalfLifeDays float64        `yaml:"deadline_half_life_days" mapstructure:"deadline_half_life_days"`
	ContextRetentionDays int            `yaml:"context_retention_days" mapstructure:"context_retention_days"`
	MaxContextEntries    int            `yaml:"max_context_entries" mapstructure:"max_context_entries"`
}

// ScheduleConfig tunes the schedule optimizer.
type ScheduleConfig struct {
	// WorkingHoursStart and WorkingHoursEnd use 24h "HH:MM".
	WorkingHoursStart      string        `yaml:"working_hours_start" mapstructure:"working_hours_start"`
	WorkingHoursEnd        string        `yaml:"working_hours_end" mapstructure:"working_hours_end"`
	ExcludedWeekdays       []string      `yaml:"excluded_weekdays" mapstructure:"excluded_weekdays"`
	ProbeStep              time.Duration `yaml:"probe_step" mapstructure:"probe_step"`
	DefaultDurationMinutes int           `yaml:"default_duration_minutes" mapstructure:"default_duration_minutes"`
	HorizonDays            int           `yaml:"horizon_days" mapstructure:"horizon_days"`
	Timezone               string        `yaml:"timezone" mapstructure:"timezone"`
}

// WorkloadConfig tunes the workload analyzer.
type WorkloadConfig struct {
	HoursPerDay       float64 `yaml:"hours_per_day" mapstructure:"hours_per_day"`
	WindowDays        int     `yaml:"window_days" mapstructure:"window_days"`
	OverdueThreshold  int     `yaml:"overdue_threshold" mapstructure:"overdue_threshold"`
	ImminentDeadlineH int     `yaml:"imminent_deadline_hours" mapstructure:"imminent_deadline_hours"`
}

// StorageConfig locates the reference task store files.
type StorageConfig struct {
	SnapshotFile string `yaml:"snapshot_file" mapstructure:"snapshot_file"`
	TimeBlockDB  string `yaml:"timeblock_db" mapstructure:"timeblock_db"`
	EventLogFile string `yaml:"event_log_file" mapstructure:"event_log_file"`
}

// GoogleCalendarConfig enables Google Calendar as an extra event source.
type GoogleCalendarConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	CalendarID      string `yaml:"calendar_id,omitempty" mapstructure:"calendar_id"`
	CredentialsFile string `yaml:"credentials_file,omitempty" mapstructure:"credentials_file"`
	AccessTokenEnv  string `yaml:"access_token_env,omitempty" mapstructure:"access_token_env"`
	LookaheadDays   int    `yaml:"lookahead_days" mapstructure:"lookahead_days"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// PlannerConfig holds all settings read from .plannerconfig via Viper.
type PlannerConfig struct {
	Analyzer AnalyzerConfig       `yaml:"analyzer" mapstructure:"analyzer"`
	Scoring  ScoringConfig        `yaml:"scoring" mapstructure:"scoring"`
	Schedule ScheduleConfig       `yaml:"schedule" mapstructure:"schedule"`
	Workload WorkloadConfig       `yaml:"workload" mapstructure:"workload"`
	Storage  StorageConfig        `yaml:"storage" mapstructure:"storage"`
	Calendar GoogleCalendarConfig `yaml:"google_calendar" mapstructure:"google_calendar"`
	Log      LogConfig            `yaml:"log" mapstructure:"log"`
}
