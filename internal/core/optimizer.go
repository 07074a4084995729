package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
)

// Unschedulable reasons.
const (
	ReasonPastDeadline   = "no slot before deadline"
	ReasonExceedsWindow  = "duration exceeds working hours window"
	ReasonHorizon        = "no free slot within scheduling horizon"
	reasonNotSchedulable = "task status %s is not schedulable"
)

// OptimizerConfig is the parsed form of models.ScheduleConfig.
type OptimizerConfig struct {
	DayStart        int // minutes after midnight
	DayEnd          int
	Excluded        map[time.Weekday]bool
	Step            time.Duration
	DefaultDuration int // minutes
	HorizonDays     int
	Location        *time.Location
}

// NewOptimizerConfig parses working hours, weekdays and timezone.
func NewOptimizerConfig(cfg models.ScheduleConfig) (OptimizerConfig, error) {
	start, err := ParseClock(cfg.WorkingHoursStart)
	if err != nil {
		return OptimizerConfig{}, invalid("schedule.working_hours_start", "%v", err)
	}
	end, err := ParseClock(cfg.WorkingHoursEnd)
	if err != nil {
		return OptimizerConfig{}, invalid("schedule.working_hours_end", "%v", err)
	}
	if end <= start {
		return OptimizerConfig{}, invalid("schedule.working_hours_end", "must be after working_hours_start")
	}
	excluded, err := ParseWeekdays(cfg.ExcludedWeekdays)
	if err != nil {
		return OptimizerConfig{}, invalid("schedule.excluded_weekdays", "%v", err)
	}
	if len(excluded) == 7 {
		return OptimizerConfig{}, invalid("schedule.excluded_weekdays", "must leave at least one working day")
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return OptimizerConfig{}, invalid("schedule.timezone", "%v", err)
	}
	oc := OptimizerConfig{
		DayStart:        start,
		DayEnd:          end,
		Excluded:        excluded,
		Step:            cfg.ProbeStep,
		DefaultDuration: cfg.DefaultDurationMinutes,
		HorizonDays:     cfg.HorizonDays,
		Location:        loc,
	}
	if oc.Step <= 0 {
		oc.Step = 15 * time.Minute
	}
	if oc.DefaultDuration <= 0 {
		oc.DefaultDuration = 60
	}
	if oc.HorizonDays <= 0 {
		oc.HorizonDays = 60
	}
	return oc, nil
}

// ScheduleRequest is one optimization run's input snapshot.
type ScheduleRequest struct {
	Tasks      []RankedTask
	Events     []models.CalendarEvent
	TimeBlocks []models.TimeBlock
	Now        time.Time
}

// Assignment is a proposed time block for one task.
type Assignment struct {
	TaskID    string          `json:"task_id"`
	TaskTitle string          `json:"task_title"`
	Priority  models.Priority `json:"priority"`
	Start     time.Time       `json:"suggested_start_time"`
	End       time.Time       `json:"suggested_end_time"`
	Rank      int             `json:"rank"`
	Score     float64         `json:"ai_priority_score"`
	Reasoning string          `json:"reasoning"`
}

// Interval returns the proposed range.
func (a Assignment) Interval() models.Interval {
	return models.Interval{Start: a.Start, End: a.End}
}

// UnschedulableTask reports a task the optimizer could not place.
type UnschedulableTask struct {
	TaskID    string `json:"task_id"`
	TaskTitle string `json:"task_title"`
	Reason    string `json:"reason"`
}

// ScheduleResult lists assignments and unschedulable tasks in rank order.
type ScheduleResult struct {
	Assignments   []Assignment        `json:"schedule"`
	Unschedulable []UnschedulableTask `json:"unschedulable"`
}

// ScheduleOptimizer assigns non-overlapping working-hour slots to ranked
// tasks. It is a single greedy pass: earlier picks are never revisited.
type ScheduleOptimizer interface {
	Optimize(req ScheduleRequest) (*ScheduleResult, error)
}

type greedyOptimizer struct {
	cfg OptimizerConfig
}

// NewScheduleOptimizer creates the greedy ScheduleOptimizer.
func NewScheduleOptimizer(cfg OptimizerConfig) ScheduleOptimizer {
	return &greedyOptimizer{cfg: cfg}
}

func (o *greedyOptimizer) Optimize(req ScheduleRequest) (*ScheduleResult, error) {
	if req.Now.IsZero() {
		return nil, invalid("now", "must be set")
	}
	busy := make([]models.Interval, 0, len(req.Events)+len(req.TimeBlocks))
	for _, e := range req.Events {
		if !e.Interval().Valid() {
			return nil, invalid("events", "event %s ends before it starts", e.ID)
		}
		busy = append(busy, e.Interval())
	}
	for _, b := range req.TimeBlocks {
		if !b.Interval().Valid() {
			return nil, invalid("time_blocks", "block %s ends before it starts", b.ID)
		}
		if b.IsActive() {
			busy = append(busy, b.Interval())
		}
	}
	for _, rt := range req.Tasks {
		if err := ValidateTask(rt.Task); err != nil {
			return nil, err
		}
	}

	tasks := append([]RankedTask(nil), req.Tasks...)
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Rank < tasks[j].Rank })

	now := req.Now.In(o.cfg.Location)
	origin := o.alignUp(now)
	horizon := origin.AddDate(0, 0, o.cfg.HorizonDays)
	window := time.Duration(o.cfg.DayEnd-o.cfg.DayStart) * time.Minute

	result := &ScheduleResult{
		Assignments:   []Assignment{},
		Unschedulable: []UnschedulableTask{},
	}
	cursor := origin

	for _, rt := range tasks {
		t := rt.Task
		if !t.IsActive() {
			result.Unschedulable = append(result.Unschedulable, UnschedulableTask{
				TaskID: t.ID, TaskTitle: t.Title, Reason: fmt.Sprintf(reasonNotSchedulable, t.Status),
			})
			continue
		}
		dur := time.Duration(t.DurationMinutes(o.cfg.DefaultDuration)) * time.Minute
		if dur > window {
			result.Unschedulable = append(result.Unschedulable, UnschedulableTask{
				TaskID: t.ID, TaskTitle: t.Title, Reason: ReasonExceedsWindow,
			})
			continue
		}

		start, reason := o.findSlot(cursor, dur, busy, horizon, t.Deadline)
		if reason != "" {
			result.Unschedulable = append(result.Unschedulable, UnschedulableTask{
				TaskID: t.ID, TaskTitle: t.Title, Reason: reason,
			})
			continue
		}

		end := start.Add(dur)
		busy = append(busy, models.Interval{Start: start, End: end})
		cursor = end
		result.Assignments = append(result.Assignments, Assignment{
			TaskID:    t.ID,
			TaskTitle: t.Title,
			Priority:  t.Priority,
			Start:     start,
			End:       end,
			Rank:      rt.Rank,
			Score:     rt.Score.Score,
			Reasoning: fmt.Sprintf("Rank %d (%.2f): earliest free %d-minute slot. %s",
				rt.Rank, rt.Score.Score, int(dur/time.Minute), rt.Score.Reasoning),
		})
	}

	if err := o.checkAssignments(result.Assignments, req); err != nil {
		return nil, err
	}
	return result, nil
}

// findSlot scans forward from cursor on the probe grid for the first
// interval of length dur inside a single working window that overlaps
// nothing in busy. Jumps over working-window gaps and conflicts land on the
// same grid points a step-by-step scan would reach first.
func (o *greedyOptimizer) findSlot(cursor time.Time, dur time.Duration, busy []models.Interval, horizon time.Time, deadline *time.Time) (time.Time, string) {
	t := o.alignUp(cursor)
	for t.Before(horizon) {
		if deadline != nil && t.Add(dur).After(*deadline) {
			return time.Time{}, ReasonPastDeadline
		}
		if o.cfg.Excluded[t.Weekday()] {
			t = o.nextDay(t)
			continue
		}
		ws, we := o.alignUp(o.windowStart(t)), o.windowEnd(t)
		if t.Before(ws) {
			t = ws
			continue
		}
		if t.Add(dur).After(we) {
			t = o.nextDay(t)
			continue
		}
		cand := models.Interval{Start: t, End: t.Add(dur)}
		if end, hit := latestOverlapEnd(cand, busy); hit {
			t = o.alignUp(end.In(o.cfg.Location))
			continue
		}
		return t, ""
	}
	return time.Time{}, ReasonHorizon
}

func latestOverlapEnd(cand models.Interval, busy []models.Interval) (time.Time, bool) {
	var end time.Time
	hit := false
	for _, b := range busy {
		if cand.Overlaps(b) && (!hit || b.End.After(end)) {
			end, hit = b.End, true
		}
	}
	return end, hit
}

func (o *greedyOptimizer) windowStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, o.cfg.DayStart/60, o.cfg.DayStart%60, 0, 0, o.cfg.Location)
}

// nextDay returns local midnight of the day after t.
func (o *greedyOptimizer) nextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, o.cfg.Location)
}

func (o *greedyOptimizer) windowEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, o.cfg.DayEnd/60, o.cfg.DayEnd%60, 0, 0, o.cfg.Location)
}

// alignUp rounds t up to the probe grid anchored at local midnight.
func (o *greedyOptimizer) alignUp(t time.Time) time.Time {
	t = t.In(o.cfg.Location)
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, o.cfg.Location)
	offset := t.Sub(midnight)
	steps := offset / o.cfg.Step
	if offset%o.cfg.Step != 0 {
		steps++
	}
	return midnight.Add(steps * o.cfg.Step)
}

// checkAssignments verifies the output invariants. A failure here is an
// engine fault, not bad input.
func (o *greedyOptimizer) checkAssignments(as []Assignment, req ScheduleRequest) error {
	for i, a := range as {
		if !a.Interval().Valid() {
			return fmt.Errorf("assignment %s has empty interval", a.TaskID)
		}
		if o.cfg.Excluded[a.Start.Weekday()] || a.Start.Before(o.windowStart(a.Start)) || a.End.After(o.windowEnd(a.Start)) {
			return fmt.Errorf("assignment %s at %s falls outside working hours", a.TaskID, a.Start.Format(time.RFC3339))
		}
		for _, b := range as[:i] {
			if a.Interval().Overlaps(b.Interval()) {
				return fmt.Errorf("assignments %s and %s overlap", b.TaskID, a.TaskID)
			}
		}
		for _, e := range req.Events {
			if a.Interval().Overlaps(e.Interval()) {
				return fmt.Errorf("assignment %s overlaps event %s", a.TaskID, e.ID)
			}
		}
	}
	return nil
}
