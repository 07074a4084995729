package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
)

// Lead times used when no related context names a date.
const (
	defaultDeadlineLeadDays = 7
	heavyWorkloadExtraDays  = 2
	overloadedExtraDays     = 5
)

// DeadlineSuggestion is a proposed deadline for one task.
type DeadlineSuggestion struct {
	TaskID            string     `json:"task_id"`
	Title             string     `json:"title"`
	SuggestedDeadline time.Time  `json:"suggested_deadline"`
	CurrentDeadline   *time.Time `json:"current_deadline,omitempty"`
	Confidence        float64    `json:"confidence"`
	Reasoning         string     `json:"reasoning"`
	FactorsConsidered []string   `json:"factors_considered"`
	RelatedContexts   []string   `json:"related_contexts"`
}

// deadlineInput carries everything suggestDeadline reads.
type deadlineInput struct {
	Task            models.Task
	Contexts        []models.ContextEntry
	Workload        *WorkloadReport
	DefaultDuration int
	Now             time.Time
}

// endOfDay returns 23:59 on d's calendar date in loc.
func endOfDay(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, loc)
}

// suggestDeadline proposes a deadline from the dates and urgency found in
// analysed context related to the task, falling back to an effort- and
// workload-based lead time. The suggestion is never earlier than the end of
// the day on which the task's estimated effort could be finished.
func suggestDeadline(in deadlineInput) DeadlineSuggestion {
	task, now := in.Task, in.Now
	loc := now.Location()
	today := dayOf(now)

	s := DeadlineSuggestion{
		TaskID:            task.ID,
		Title:             task.Title,
		CurrentDeadline:   task.Deadline,
		FactorsConsidered: []string{},
		RelatedContexts:   []string{},
	}

	var (
		earliest   time.Time
		earliestIn string
		urgent     []string
	)
	for _, e := range in.Contexts {
		if e.Analysis == nil || contextRelevance(task, []models.ContextEntry{e}) == 0 {
			continue
		}
		s.RelatedContexts = append(s.RelatedContexts, e.ID)
		if len(e.Analysis.UrgencyIndicators) > 0 {
			urgent = append(urgent, e.ID)
		}
		for _, r := range findTimeRefs(e.Content, e.EffectiveDate()) {
			d := time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, loc)
			if d.Before(today) {
				continue
			}
			if earliest.IsZero() || d.Before(earliest) {
				earliest, earliestIn = d, e.ID
			}
		}
	}

	minutes := task.DurationMinutes(in.DefaultDuration)
	hoursPerDay := 8.0
	if in.Workload != nil && in.Workload.WindowDays > 0 && in.Workload.AvailableHours > 0 {
		hoursPerDay = in.Workload.AvailableHours / float64(in.Workload.WindowDays)
	}
	effortDays := int(math.Ceil(float64(minutes) / 60 / hoursPerDay))
	if effortDays < 1 {
		effortDays = 1
	}
	s.FactorsConsidered = append(s.FactorsConsidered,
		fmt.Sprintf("estimated effort %dm (about %d working day(s))", minutes, effortDays))

	var reason string
	switch {
	case !earliest.IsZero():
		s.SuggestedDeadline = endOfDay(earliest, loc)
		s.Confidence = 0.8
		s.FactorsConsidered = append(s.FactorsConsidered,
			fmt.Sprintf("context %s mentions %s", earliestIn, earliest.Format("2006-01-02")))
		reason = fmt.Sprintf("Related context %s names %s.", earliestIn, earliest.Format("Mon Jan 2"))
	case len(urgent) > 0:
		s.SuggestedDeadline = endOfDay(today.AddDate(0, 0, effortDays), loc)
		s.Confidence = 0.7
		s.FactorsConsidered = append(s.FactorsConsidered,
			fmt.Sprintf("urgency signals in %s", strings.Join(urgent, ", ")))
		reason = "Related context is urgent but names no date, so the deadline leaves just enough time for the work."
	default:
		days := max(defaultDeadlineLeadDays, 2*effortDays)
		level := ""
		if in.Workload != nil {
			level = in.Workload.WorkloadLevel
		}
		switch level {
		case WorkloadHeavy:
			days += heavyWorkloadExtraDays
		case WorkloadOverloaded:
			days += overloadedExtraDays
		}
		s.SuggestedDeadline = endOfDay(today.AddDate(0, 0, days), loc)
		s.Confidence = 0.5
		reason = fmt.Sprintf("No related context names a date, so the deadline allows %d day(s).", days)
	}

	if in.Workload != nil {
		s.FactorsConsidered = append(s.FactorsConsidered, fmt.Sprintf("workload %s (%.0f%% of available hours)",
			in.Workload.WorkloadLevel, in.Workload.Utilization*100))
	}

	earliestFinish := endOfDay(now.Add(time.Duration(minutes)*time.Minute), loc)
	if s.SuggestedDeadline.Before(earliestFinish) {
		s.SuggestedDeadline = earliestFinish
		s.Confidence = math.Min(s.Confidence, 0.6)
		s.FactorsConsidered = append(s.FactorsConsidered, "moved later to leave room for the estimated effort")
		reason += " It was moved later so the estimated effort still fits."
	}

	if task.Deadline != nil {
		s.FactorsConsidered = append(s.FactorsConsidered,
			"current deadline "+task.Deadline.In(loc).Format("2006-01-02 15:04"))
		if task.Deadline.After(now) && task.Deadline.Before(s.SuggestedDeadline) {
			reason += " The current deadline is earlier and still reachable."
		}
	}

	s.Confidence = round2(s.Confidence)
	s.Reasoning = strings.TrimSpace(reason)
	return s
}
