package models

import "time"

// SourceType identifies where a context entry was ingested from.
type SourceType string

const (
	SourceEmail    SourceType = "email"
	SourceMessage  SourceType = "message"
	SourceNote     SourceType = "note"
	SourceCalendar SourceType = "calendar"
	SourceOther    SourceType = "other"
)

// ValidSourceTypes lists every accepted SourceType.
var ValidSourceTypes = []SourceType{SourceEmail, SourceMessage, SourceNote, SourceCalendar, SourceOther}

// IsValidSourceType reports whether s is a known SourceType.
func IsValidSourceType(s SourceType) bool {
	for _, v := range ValidSourceTypes {
		if v == s {
			return true
		}
	}
	return false
}

// Urgency levels attached to potential tasks.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// PotentialTask is an actionable item detected in a context entry.
type PotentialTask struct {
	Title        string `yaml:"title" json:"title"`
	Description  string `yaml:"description" json:"description"`
	Urgency      string `yaml:"urgency" json:"urgency"`
	DeadlineHint string `yaml:"deadline_hint,omitempty" json:"deadline_hint,omitempty"`
}

// ContextAnalysis holds the structured signals extracted from a context entry.
type ContextAnalysis struct {
	Summary           string          `yaml:"summary" json:"summary"`
	KeyTopics         []string        `yaml:"key_topics" json:"key_topics"`
	UrgencyIndicators []string        `yaml:"urgency_indicators" json:"urgency_indicators"`
	SentimentScore    float64         `yaml:"sentiment_score" json:"sentiment_score"`
	PotentialTasks    []PotentialTask `yaml:"potential_tasks" json:"potential_tasks"`
	TimeReferences    []string        `yaml:"time_references,omitempty" json:"time_references,omitempty"`
	// Strategy records which analyzer produced the result ("local" or "remote").
	Strategy   string    `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	AnalyzedAt time.Time `yaml:"analyzed_at,omitempty" json:"analyzed_at,omitempty"`
}

// ContextEntry is a free-text note, email or message ingested for signal
// extraction. Entries are append-only except for the cached Analysis.
type ContextEntry struct {
	ID          string           `yaml:"id" json:"id"`
	Content     string           `yaml:"content" json:"content"`
	SourceType  SourceType       `yaml:"source_type" json:"source_type"`
	ContentDate *time.Time       `yaml:"content_date,omitempty" json:"content_date,omitempty"`
	Created     time.Time        `yaml:"created" json:"created"`
	Processed   bool             `yaml:"processed" json:"processed"`
	Analysis    *ContextAnalysis `yaml:"analysis,omitempty" json:"analysis,omitempty"`
}

// EffectiveDate returns the content date when known, else the creation time.
func (e ContextEntry) EffectiveDate() time.Time {
	if e.ContentDate != nil {
		return *e.ContentDate
	}
	return e.Created
}
