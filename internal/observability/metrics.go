package observability

import (
	"fmt"
	"time"
)

// Metrics holds planner activity derived from the event log.
type Metrics struct {
	ContextsAnalyzed    int            `json:"contexts_analyzed"`
	AnalysesByStrategy  map[string]int `json:"analyses_by_strategy"`
	PotentialTasksFound int            `json:"potential_tasks_found"`
	Prioritizations     int            `json:"prioritizations"`
	WorkloadLevels      map[string]int `json:"workload_levels"`
	SchedulesOptimized  int            `json:"schedules_optimized"`
	Unschedulable       int            `json:"unschedulable"`
	BlocksApplied       int            `json:"blocks_applied"`
	Conflicts           int            `json:"conflicts"`
	EventCount          int            `json:"event_count"`
	OldestEvent         *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent         *time.Time     `json:"newest_event,omitempty"`
}

// ConflictRate is conflicts over apply attempts, or 0 with no attempts.
func (m *Metrics) ConflictRate() float64 {
	attempts := m.BlocksApplied + m.Conflicts
	if attempts == 0 {
		return 0
	}
	return float64(m.Conflicts) / float64(attempts)
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates all events since the given time.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		AnalysesByStrategy: make(map[string]int),
		WorkloadLevels:     make(map[string]int),
	}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case TypeContextAnalyzed:
			m.ContextsAnalyzed++
			if s, ok := event.Data["strategy"].(string); ok {
				m.AnalysesByStrategy[s]++
			}
			m.PotentialTasksFound += intField(event.Data, "potential_tasks")
		case TypeTasksPrioritized:
			m.Prioritizations++
			if lvl, ok := event.Data["workload_level"].(string); ok {
				m.WorkloadLevels[lvl]++
			}
		case TypeScheduleOptimized:
			m.SchedulesOptimized++
			m.Unschedulable += intField(event.Data, "unschedulable")
		case TypeScheduleApplied:
			m.BlocksApplied++
		case TypeScheduleConflict:
			m.Conflicts++
		}
	}

	return m, nil
}

// intField reads a numeric field that went through JSON (float64) or was set
// in memory (int).
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
