package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
)

// Workload levels.
const (
	WorkloadLight      = "light"
	WorkloadModerate   = "moderate"
	WorkloadHeavy      = "heavy"
	WorkloadOverloaded = "overloaded"
)

// PostponeCandidate is a task suggested for delegation or postponement.
type PostponeCandidate struct {
	TaskID         string          `json:"task_id"`
	Title          string          `json:"title"`
	Priority       models.Priority `json:"priority"`
	Score          float64         `json:"ai_priority_score"`
	EstimatedHours float64         `json:"estimated_hours"`
}

// WorkloadReport classifies pending effort against available capacity.
type WorkloadReport struct {
	WindowDays          int                 `json:"window_days"`
	TotalActiveTasks    int                 `json:"total_active_tasks"`
	TotalEstimatedHours float64             `json:"total_estimated_hours"`
	AvailableHours      float64             `json:"available_hours"`
	Utilization         float64             `json:"utilization"`
	HighPriorityCount   int                 `json:"high_priority_count"`
	OverdueCount        int                 `json:"overdue_count"`
	WorkloadLevel       string              `json:"workload_level"`
	ImminentDeadlines   []string            `json:"imminent_deadlines"`
	PostponeCandidates  []PostponeCandidate `json:"postpone_candidates"`
	Recommendations     []string            `json:"recommendations"`
}

// WorkloadAnalyzer aggregates estimated effort over the task snapshot.
type WorkloadAnalyzer interface {
	Analyze(tasks []models.Task, windowDays int, now time.Time) (*WorkloadReport, error)
}

type workloadAnalyzer struct {
	cfg             models.WorkloadConfig
	defaultDuration int
}

// NewWorkloadAnalyzer creates a WorkloadAnalyzer. Tasks without an estimate
// count as defaultDurationMinutes.
func NewWorkloadAnalyzer(cfg models.WorkloadConfig, defaultDurationMinutes int) WorkloadAnalyzer {
	if defaultDurationMinutes <= 0 {
		defaultDurationMinutes = 60
	}
	return &workloadAnalyzer{cfg: cfg, defaultDuration: defaultDurationMinutes}
}

func (w *workloadAnalyzer) Analyze(tasks []models.Task, windowDays int, now time.Time) (*WorkloadReport, error) {
	if windowDays < 1 {
		return nil, invalid("window_days", "must be at least 1, got %d", windowDays)
	}
	for _, t := range tasks {
		if err := ValidateTask(t); err != nil {
			return nil, err
		}
	}

	report := &WorkloadReport{
		WindowDays:         windowDays,
		AvailableHours:     float64(windowDays) * w.cfg.HoursPerDay,
		ImminentDeadlines:  []string{},
		PostponeCandidates: []PostponeCandidate{},
		Recommendations:    []string{},
	}

	imminent := now.Add(time.Duration(w.cfg.ImminentDeadlineH) * time.Hour)
	var active []models.Task
	for _, t := range tasks {
		if !t.IsActive() {
			continue
		}
		active = append(active, t)
		report.TotalEstimatedHours += w.hours(t)
		if t.IsHighPriority() {
			report.HighPriorityCount++
		}
		if t.Deadline != nil {
			switch {
			case t.Deadline.Before(now):
				report.OverdueCount++
			case !t.Deadline.After(imminent):
				report.ImminentDeadlines = append(report.ImminentDeadlines, t.ID)
			}
		}
	}
	report.TotalActiveTasks = len(active)
	report.TotalEstimatedHours = round2(report.TotalEstimatedHours)
	if report.AvailableHours > 0 {
		report.Utilization = round2(report.TotalEstimatedHours / report.AvailableHours)
	}
	report.WorkloadLevel = classifyWorkload(report.TotalEstimatedHours, report.AvailableHours)

	if report.WorkloadLevel == WorkloadOverloaded {
		report.PostponeCandidates = w.postponeCandidates(active, report.TotalEstimatedHours, report.AvailableHours)
	}
	report.Recommendations = w.recommend(report)
	return report, nil
}

func (w *workloadAnalyzer) hours(t models.Task) float64 {
	return float64(t.DurationMinutes(w.defaultDuration)) / 60
}

func classifyWorkload(total, available float64) string {
	switch {
	case total <= 0.5*available:
		return WorkloadLight
	case total <= 0.8*available:
		return WorkloadModerate
	case total <= 1.1*available:
		return WorkloadHeavy
	default:
		return WorkloadOverloaded
	}
}

// postponeCandidates removes the lowest-scored tasks until the remaining
// effort fits the available hours.
func (w *workloadAnalyzer) postponeCandidates(active []models.Task, total, available float64) []PostponeCandidate {
	order := append([]models.Task(nil), active...)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.AIPriorityScore != b.AIPriorityScore {
			return a.AIPriorityScore < b.AIPriorityScore
		}
		if priorityWeights[a.Priority] != priorityWeights[b.Priority] {
			return priorityWeights[a.Priority] < priorityWeights[b.Priority]
		}
		switch {
		case a.Deadline == nil && b.Deadline != nil:
			return true
		case a.Deadline != nil && b.Deadline == nil:
			return false
		case a.Deadline != nil && b.Deadline != nil && !a.Deadline.Equal(*b.Deadline):
			return a.Deadline.After(*b.Deadline)
		}
		return a.ID < b.ID
	})

	out := []PostponeCandidate{}
	for _, t := range order {
		if total <= available {
			break
		}
		h := w.hours(t)
		total -= h
		out = append(out, PostponeCandidate{
			TaskID:         t.ID,
			Title:          t.Title,
			Priority:       t.Priority,
			Score:          t.AIPriorityScore,
			EstimatedHours: round2(h),
		})
	}
	return out
}

func (w *workloadAnalyzer) recommend(r *WorkloadReport) []string {
	recs := []string{}
	if r.OverdueCount > w.cfg.OverdueThreshold {
		recs = append(recs, fmt.Sprintf("You have %d overdue tasks: reschedule low-priority tasks to recover.", r.OverdueCount))
	}
	switch r.WorkloadLevel {
	case WorkloadOverloaded:
		titles := make([]string, 0, len(r.PostponeCandidates))
		for _, c := range r.PostponeCandidates {
			titles = append(titles, c.Title)
		}
		recs = append(recs, fmt.Sprintf("Workload is overloaded (%.1fh planned vs %.1fh available): delegate or postpone %d lowest-priority tasks (%s).",
			r.TotalEstimatedHours, r.AvailableHours, len(r.PostponeCandidates), strings.Join(titles, ", ")))
	case WorkloadHeavy:
		recs = append(recs, "Workload is heavy: protect focus time and avoid taking on new commitments.")
	case WorkloadLight:
		recs = append(recs, "Workload is light: tackle important but non-urgent work.")
	}
	if n := len(r.ImminentDeadlines); n > 0 {
		recs = append(recs, fmt.Sprintf("%d tasks are due within %d hours: prioritize them now.", n, w.cfg.ImminentDeadlineH))
	}
	return recs
}
