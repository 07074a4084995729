package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
)

// priorityWeights maps user priority to the priority_weight factor.
var priorityWeights = map[models.Priority]float64{
	models.PriorityLow:    20,
	models.PriorityMedium: 45,
	models.PriorityHigh:   70,
	models.PriorityUrgent: 90,
}

const (
	maxWorkloadPenalty     = 30.0
	workloadPenaltyPerTask = 5.0
)

// ScoreFactors are the raw (unweighted) components of a priority score.
type ScoreFactors struct {
	DeadlineUrgency  float64 `json:"deadline_urgency"`
	PriorityWeight   float64 `json:"priority_weight"`
	ContextRelevance float64 `json:"context_relevance"`
	WorkloadPressure float64 `json:"workload_pressure"`
}

// PriorityScore is the explainable score for one task.
type PriorityScore struct {
	TaskID    string       `json:"task_id"`
	Score     float64      `json:"ai_priority_score"`
	Label     string       `json:"label"`
	Dominant  string       `json:"dominant_factor"`
	Reasoning string       `json:"reasoning"`
	Factors   ScoreFactors `json:"factors"`
}

// RankedTask pairs a task with its score and 1-based rank.
type RankedTask struct {
	Task  models.Task
	Score PriorityScore
	Rank  int
}

// PriorityScorer combines task metadata and analysed context into a 0-100
// score and a deterministic ranking.
type PriorityScorer interface {
	Score(task models.Task, contexts []models.ContextEntry, siblings []models.Task, now time.Time) (PriorityScore, error)
	Rank(tasks []models.Task, contexts []models.ContextEntry, siblings []models.Task, now time.Time) ([]RankedTask, error)
}

type priorityScorer struct {
	cfg models.ScoringConfig
}

// NewPriorityScorer creates a PriorityScorer. The weights must already have
// passed ValidateConfig.
func NewPriorityScorer(cfg models.ScoringConfig) PriorityScorer {
	return &priorityScorer{cfg: cfg}
}

// ValidateTask rejects tasks the engine cannot reason about.
func ValidateTask(t models.Task) error {
	if strings.TrimSpace(t.ID) == "" {
		return invalid("task.id", "must not be empty")
	}
	if !models.IsValidPriority(t.Priority) {
		return invalid("task.priority", "task %s has unknown priority %q", t.ID, t.Priority)
	}
	if !models.IsValidStatus(t.Status) {
		return invalid("task.status", "task %s has unknown status %q", t.ID, t.Status)
	}
	if t.EstimatedDuration < 0 {
		return invalid("task.estimated_duration", "task %s has negative duration %d", t.ID, t.EstimatedDuration)
	}
	if t.Deadline != nil && t.Deadline.IsZero() {
		return invalid("task.deadline", "task %s has a malformed deadline", t.ID)
	}
	if t.ScheduledStart != nil && t.ScheduledEnd != nil && !t.ScheduledEnd.After(*t.ScheduledStart) {
		return invalid("task.scheduled_end", "task %s ends before it starts", t.ID)
	}
	return nil
}

func (s *priorityScorer) Score(task models.Task, contexts []models.ContextEntry, siblings []models.Task, now time.Time) (PriorityScore, error) {
	if err := ValidateTask(task); err != nil {
		return PriorityScore{}, err
	}
	return s.score(task, s.eligibleContexts(contexts, now), siblings, now), nil
}

func (s *priorityScorer) score(task models.Task, eligible []models.ContextEntry, siblings []models.Task, now time.Time) PriorityScore {
	f := ScoreFactors{
		DeadlineUrgency:  deadlineUrgency(task.Deadline, now, s.cfg.DeadlineHalfLifeDays),
		PriorityWeight:   priorityWeights[task.Priority],
		ContextRelevance: contextRelevance(task, eligible),
		WorkloadPressure: workloadPressure(task.ID, siblings),
	}

	w := s.cfg.Weights
	weighted := w.DeadlineUrgency*f.DeadlineUrgency + w.PriorityWeight*f.PriorityWeight + w.ContextRelevance*f.ContextRelevance
	score := round2(math.Max(0, math.Min(100, weighted-f.WorkloadPressure)))

	ps := PriorityScore{
		TaskID:   task.ID,
		Score:    score,
		Label:    PriorityLabel(score),
		Dominant: dominantFactor(w, f),
		Factors:  f,
	}
	ps.Reasoning = explain(task, ps, now)
	return ps
}

// Rank scores tasks and orders them. Workload pressure is counted over
// siblings, or over tasks themselves when siblings is nil.
func (s *priorityScorer) Rank(tasks []models.Task, contexts []models.ContextEntry, siblings []models.Task, now time.Time) ([]RankedTask, error) {
	if siblings == nil {
		siblings = tasks
	}
	for _, t := range tasks {
		if err := ValidateTask(t); err != nil {
			return nil, err
		}
	}
	eligible := s.eligibleContexts(contexts, now)

	ranked := make([]RankedTask, 0, len(tasks))
	for _, t := range tasks {
		ranked = append(ranked, RankedTask{Task: t, Score: s.score(t, eligible, siblings, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankedBefore(ranked[i], ranked[j])
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

// rankedBefore orders by score, then deadline (any deadline beats none),
// then creation time, then ID.
func rankedBefore(a, b RankedTask) bool {
	if a.Score.Score != b.Score.Score {
		return a.Score.Score > b.Score.Score
	}
	da, db := a.Task.Deadline, b.Task.Deadline
	switch {
	case da != nil && db == nil:
		return true
	case da == nil && db != nil:
		return false
	case da != nil && db != nil && !da.Equal(*db):
		return da.Before(*db)
	}
	if !a.Task.Created.Equal(b.Task.Created) {
		return a.Task.Created.Before(b.Task.Created)
	}
	return a.Task.ID < b.Task.ID
}

// eligibleContexts keeps analysed entries inside the retention window,
// newest first, capped at MaxContextEntries.
func (s *priorityScorer) eligibleContexts(contexts []models.ContextEntry, now time.Time) []models.ContextEntry {
	cutoff := now.AddDate(0, 0, -s.cfg.ContextRetentionDays)
	var out []models.ContextEntry
	for _, c := range contexts {
		if !c.Processed || c.Analysis == nil {
			continue
		}
		d := c.EffectiveDate()
		if d.Before(cutoff) || d.After(now) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].EffectiveDate(), out[j].EffectiveDate()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return out[i].ID < out[j].ID
	})
	if s.cfg.MaxContextEntries > 0 && len(out) > s.cfg.MaxContextEntries {
		out = out[:s.cfg.MaxContextEntries]
	}
	return out
}

func deadlineUrgency(deadline *time.Time, now time.Time, halfLife float64) float64 {
	if deadline == nil {
		return 0
	}
	days := deadline.Sub(now).Hours() / 24
	if days <= 0 {
		return 100
	}
	if halfLife <= 0 {
		halfLife = 5
	}
	return 100 * math.Exp(-days/halfLife)
}

func contextRelevance(task models.Task, entries []models.ContextEntry) float64 {
	taskWords := keywords(task.Title + " " + task.Description)
	if len(taskWords) == 0 || len(entries) == 0 {
		return 0
	}
	best := 0.0
	for _, e := range entries {
		terms := make(map[string]bool)
		for _, s := range e.Analysis.KeyTopics {
			for _, tok := range tokenize(s) {
				terms[tok] = true
			}
		}
		for _, s := range e.Analysis.UrgencyIndicators {
			for _, tok := range tokenize(s) {
				terms[tok] = true
			}
		}
		hits := 0
		for _, w := range taskWords {
			if terms[w] {
				hits++
			}
		}
		best = math.Max(best, float64(hits)/float64(len(taskWords))*100)
	}
	return best
}

// workloadPressure counts other active high/urgent tasks.
func workloadPressure(taskID string, siblings []models.Task) float64 {
	n := 0
	for _, t := range siblings {
		if t.ID != taskID && t.IsActive() && t.IsHighPriority() {
			n++
		}
	}
	return math.Min(maxWorkloadPenalty, workloadPenaltyPerTask*float64(n))
}

// Factor names used in reasoning and in PriorityScore.Dominant.
const (
	FactorDeadline = "deadline_urgency"
	FactorPriority = "priority_weight"
	FactorContext  = "context_relevance"
)

// dominantFactor returns the factor with the highest weighted contribution.
// Ties resolve in the order deadline, priority, context.
func dominantFactor(w models.ScoringWeights, f ScoreFactors) string {
	name, best := FactorDeadline, w.DeadlineUrgency*f.DeadlineUrgency
	if v := w.PriorityWeight * f.PriorityWeight; v > best {
		name, best = FactorPriority, v
	}
	if v := w.ContextRelevance * f.ContextRelevance; v > best {
		name = FactorContext
	}
	return name
}

// PriorityLabel maps a score to its human-readable band.
func PriorityLabel(score float64) string {
	switch {
	case score >= 90:
		return "Critical"
	case score >= 70:
		return "High"
	case score >= 50:
		return "Medium"
	case score >= 20:
		return "Low"
	default:
		return "Very Low"
	}
}

func explain(task models.Task, ps PriorityScore, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s priority (%.2f). ", ps.Label, ps.Score)

	switch ps.Dominant {
	case FactorDeadline:
		if task.Deadline != nil && !task.Deadline.After(now) {
			b.WriteString("Dominant factor: deadline urgency, task is overdue.")
		} else if task.Deadline != nil {
			fmt.Fprintf(&b, "Dominant factor: deadline urgency, due in %.1f days.", task.Deadline.Sub(now).Hours()/24)
		} else {
			b.WriteString("Dominant factor: deadline urgency.")
		}
	case FactorPriority:
		fmt.Fprintf(&b, "Dominant factor: %s user priority.", task.Priority)
	case FactorContext:
		fmt.Fprintf(&b, "Dominant factor: context relevance, %.0f%% keyword overlap with recent notes.", ps.Factors.ContextRelevance)
	}

	if ps.Factors.WorkloadPressure > 0 {
		fmt.Fprintf(&b, " Workload pressure -%.0f from other active high-priority tasks.", ps.Factors.WorkloadPressure)
	}
	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
