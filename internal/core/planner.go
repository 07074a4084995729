package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/ai-planner/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PrioritizeRequest selects tasks for prioritization. An empty TaskIDs
// means every pending or in-progress task.
type PrioritizeRequest struct {
	TaskIDs        []string
	RefreshContext bool
	// Persist writes the new scores back through the TaskScoreWriter.
	Persist bool
}

// PrioritizedTask is one entry of a prioritization result.
type PrioritizedTask struct {
	TaskID           string       `json:"task_id"`
	Title            string       `json:"title"`
	Score            float64      `json:"ai_priority_score"`
	Label            string       `json:"label"`
	Reasoning        string       `json:"reasoning"`
	RecommendedOrder int          `json:"recommended_order"`
	Factors          ScoreFactors `json:"factors"`
}

// PrioritizeResult is the ranked task order plus a workload assessment.
type PrioritizeResult struct {
	PrioritizedTasks   []PrioritizedTask `json:"prioritized_tasks"`
	WorkloadAssessment *WorkloadReport   `json:"workload_assessment"`
}

// Apply outcome statuses.
const (
	ApplyApplied  = "applied"
	ApplyConflict = "conflict"
	ApplyFailed   = "failed"
)

// ApplyOutcome reports what happened to one assignment during apply.
type ApplyOutcome struct {
	TaskID  string    `json:"task_id"`
	BlockID string    `json:"block_id,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Status  string    `json:"status"`
	Error   string    `json:"error,omitempty"`
	err     error
}

// Err returns the underlying error for conflict and failed outcomes.
func (o ApplyOutcome) Err() error {
	return o.err
}

// Planner runs the engine components over task-store snapshots.
type Planner interface {
	AnalyzeContext(ctx context.Context, req AnalyzeRequest) (*models.ContextAnalysis, error)
	AnalyzeEntries(ctx context.Context, entries []models.ContextEntry, refresh bool) ([]models.ContextEntry, error)
	PrioritizeTasks(ctx context.Context, req PrioritizeRequest) (*PrioritizeResult, error)
	OptimizeSchedule(ctx context.Context, taskIDs []string) (*ScheduleResult, error)
	WorkloadAnalysis(ctx context.Context, windowDays int) (*WorkloadReport, error)
	ApplySchedule(ctx context.Context, assignments []Assignment) ([]ApplyOutcome, error)
	SuggestDeadline(ctx context.Context, taskID string) (*DeadlineSuggestion, error)
	ContextInsights(ctx context.Context, windowDays int) (*ContextInsights, error)
}

// PlannerOptions holds the planner's collaborators. Source, Analyzer,
// Scorer, Optimizer and Workload are required; the rest are optional.
type PlannerOptions struct {
	Source    SnapshotSource
	Analyzer  TextAnalyzer
	Scorer    PriorityScorer
	Optimizer ScheduleOptimizer
	Workload  WorkloadAnalyzer

	Cache  AnalysisCache
	Blocks TimeBlockStore
	Tasks  TaskScheduleWriter
	Scores TaskScoreWriter
	Events EventLogger
	Logger *zap.Logger
	Clock  func() time.Time

	BatchConcurrency       int
	ContextRetentionDays   int
	WorkloadWindowDays     int
	DefaultDurationMinutes int
	// Location is the planning timezone for suggested deadlines. Nil keeps
	// the clock's location.
	Location *time.Location
}

type planner struct {
	opts PlannerOptions
	log  *zap.Logger
	now  func() time.Time
}

// NewPlanner creates a Planner from its collaborators.
func NewPlanner(opts PlannerOptions) Planner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	if opts.WorkloadWindowDays <= 0 {
		opts.WorkloadWindowDays = 7
	}
	if opts.DefaultDurationMinutes <= 0 {
		opts.DefaultDurationMinutes = 60
	}
	return &planner{opts: opts, log: opts.Logger, now: opts.Clock}
}

func (p *planner) logEvent(eventType string, data map[string]any) {
	if p.opts.Events == nil {
		return
	}
	if err := p.opts.Events.LogEvent(eventType, data); err != nil {
		p.log.Warn("writing planner event", zap.String("type", eventType), zap.Error(err))
	}
}

func (p *planner) AnalyzeContext(ctx context.Context, req AnalyzeRequest) (*models.ContextAnalysis, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	analysis, err := p.opts.Analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analyzing context: %w", err)
	}
	p.logEvent(EventContextAnalyzed, map[string]any{
		"source_type":     string(req.SourceType),
		"strategy":        analysis.Strategy,
		"potential_tasks": len(analysis.PotentialTasks),
	})
	return analysis, nil
}

// AnalyzeEntries analyses entries lacking a cached analysis (or all of them
// when refresh is set), concurrently, and hands each new analysis to the
// AnalysisCache. Entries are validated before any analysis runs; a single
// invalid entry rejects the whole batch.
func (p *planner) AnalyzeEntries(ctx context.Context, entries []models.ContextEntry, refresh bool) ([]models.ContextEntry, error) {
	out := append([]models.ContextEntry(nil), entries...)

	var pending []int
	for i, e := range out {
		if !refresh && e.Processed && e.Analysis != nil {
			continue
		}
		req := AnalyzeRequest{Content: e.Content, SourceType: e.SourceType, ContentDate: e.ContentDate}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("context entry %s: %w", e.ID, err)
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	results := make([]*models.ContextAnalysis, len(out))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.BatchConcurrency)
	for _, i := range pending {
		e := out[i]
		g.Go(func() error {
			a, err := p.opts.Analyzer.Analyze(gctx, AnalyzeRequest{
				Content:     e.Content,
				SourceType:  e.SourceType,
				ContentDate: e.ContentDate,
			})
			if err != nil {
				return fmt.Errorf("analyzing context entry %s: %w", e.ID, err)
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, i := range pending {
		out[i].Analysis = results[i]
		out[i].Processed = true
		if p.opts.Cache != nil {
			if err := p.opts.Cache.SaveAnalysis(out[i].ID, results[i]); err != nil {
				return nil, fmt.Errorf("caching analysis for %s: %w", out[i].ID, err)
			}
		}
		p.logEvent(EventContextAnalyzed, map[string]any{
			"entry_id":        out[i].ID,
			"strategy":        results[i].Strategy,
			"potential_tasks": len(results[i].PotentialTasks),
		})
	}
	return out, nil
}

// recentContexts returns analysable entries inside the retention window.
func (p *planner) recentContexts(entries []models.ContextEntry, now time.Time) []models.ContextEntry {
	cutoff := now.AddDate(0, 0, -p.opts.ContextRetentionDays)
	var inWindow []models.ContextEntry
	for _, e := range entries {
		d := e.EffectiveDate()
		if d.Before(cutoff) || d.After(now) {
			continue
		}
		inWindow = append(inWindow, e)
	}
	return p.analysable(inWindow)
}

// analysable drops entries that have no cached analysis and fail
// validation. They are skipped with a warning so one bad stored note cannot
// block prioritization.
func (p *planner) analysable(entries []models.ContextEntry) []models.ContextEntry {
	var out []models.ContextEntry
	for _, e := range entries {
		if e.Processed && e.Analysis != nil {
			out = append(out, e)
			continue
		}
		req := AnalyzeRequest{Content: e.Content, SourceType: e.SourceType, ContentDate: e.ContentDate}
		if err := req.Validate(); err != nil {
			p.log.Warn("skipping invalid context entry", zap.String("entry_id", e.ID), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out
}

// selectTasks returns the requested tasks in request order, or every active
// task when ids is empty.
func selectTasks(all []models.Task, ids []string) ([]models.Task, error) {
	if len(ids) == 0 {
		var active []models.Task
		for _, t := range all {
			if t.IsActive() {
				active = append(active, t)
			}
		}
		return active, nil
	}
	byID := make(map[string]models.Task, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	seen := make(map[string]bool, len(ids))
	out := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		seen[id] = true
		out = append(out, t)
	}
	return out, nil
}

func validateTasks(tasks []models.Task) error {
	for _, t := range tasks {
		if err := ValidateTask(t); err != nil {
			return err
		}
	}
	return nil
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func (p *planner) PrioritizeTasks(ctx context.Context, req PrioritizeRequest) (*PrioritizeResult, error) {
	snap, err := p.opts.Source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	now := p.now()

	tasks, err := selectTasks(snap.Tasks, req.TaskIDs)
	if err != nil {
		return nil, err
	}
	// The workload assessment reads every task, so reject bad input before
	// any analysis is cached.
	if err := validateTasks(snap.Tasks); err != nil {
		return nil, err
	}
	contexts, err := p.AnalyzeEntries(ctx, p.recentContexts(snap.Contexts, now), req.RefreshContext)
	if err != nil {
		return nil, err
	}

	var ranked []RankedTask
	err = guard("prioritize", snap, taskIDs(tasks), func() error {
		var rerr error
		ranked, rerr = p.opts.Scorer.Rank(tasks, contexts, snap.Tasks, now)
		return rerr
	})
	if err != nil {
		return nil, err
	}

	result := &PrioritizeResult{PrioritizedTasks: make([]PrioritizedTask, 0, len(ranked))}
	scored := make(map[string]PriorityScore, len(ranked))
	for _, rt := range ranked {
		scored[rt.Task.ID] = rt.Score
		result.PrioritizedTasks = append(result.PrioritizedTasks, PrioritizedTask{
			TaskID:           rt.Task.ID,
			Title:            rt.Task.Title,
			Score:            rt.Score.Score,
			Label:            rt.Score.Label,
			Reasoning:        rt.Score.Reasoning,
			RecommendedOrder: rt.Rank,
			Factors:          rt.Score.Factors,
		})
	}

	all := snap.Tasks
	if req.Persist && p.opts.Scores != nil {
		all = make([]models.Task, len(snap.Tasks))
		copy(all, snap.Tasks)
		for i := range all {
			s, ok := scored[all[i].ID]
			if !ok {
				continue
			}
			if err := p.opts.Scores.SetTaskScore(s.TaskID, s.Score, s.Reasoning); err != nil {
				return nil, fmt.Errorf("saving score for %s: %w", s.TaskID, err)
			}
			all[i].AIPriorityScore = s.Score
			all[i].ScoreReasoning = s.Reasoning
		}
	}

	report, err := p.opts.Workload.Analyze(all, p.opts.WorkloadWindowDays, now)
	if err != nil {
		return nil, err
	}
	result.WorkloadAssessment = report

	p.logEvent(EventTasksPrioritized, map[string]any{
		"task_count":     len(ranked),
		"workload_level": report.WorkloadLevel,
		"persisted":      req.Persist && p.opts.Scores != nil,
	})
	return result, nil
}

func (p *planner) OptimizeSchedule(ctx context.Context, ids []string) (*ScheduleResult, error) {
	snap, err := p.opts.Source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	now := p.now()

	tasks, err := selectTasks(snap.Tasks, ids)
	if err != nil {
		return nil, err
	}

	var result *ScheduleResult
	err = guard("optimize", snap, taskIDs(tasks), func() error {
		ranked, rerr := p.opts.Scorer.Rank(tasks, snap.Contexts, snap.Tasks, now)
		if rerr != nil {
			return rerr
		}
		result, rerr = p.opts.Optimizer.Optimize(ScheduleRequest{
			Tasks:      ranked,
			Events:     snap.Events,
			TimeBlocks: snap.TimeBlocks,
			Now:        now,
		})
		return rerr
	})
	if err != nil {
		return nil, err
	}

	p.logEvent(EventScheduleOptimized, map[string]any{
		"assigned":      len(result.Assignments),
		"unschedulable": len(result.Unschedulable),
	})
	return result, nil
}

func (p *planner) WorkloadAnalysis(ctx context.Context, windowDays int) (*WorkloadReport, error) {
	if windowDays == 0 {
		windowDays = p.opts.WorkloadWindowDays
	}
	if windowDays < 1 {
		return nil, invalid("window_days", "must be at least 1, got %d", windowDays)
	}
	snap, err := p.opts.Source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return p.opts.Workload.Analyze(snap.Tasks, windowDays, p.now())
}

// SuggestDeadline proposes a deadline for an active task from recent
// context and the current workload. Nothing is written to the task.
func (p *planner) SuggestDeadline(ctx context.Context, taskID string) (*DeadlineSuggestion, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, invalid("task_id", "must not be empty")
	}
	snap, err := p.opts.Source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	now := p.now()

	tasks, err := selectTasks(snap.Tasks, []string{taskID})
	if err != nil {
		return nil, err
	}
	if err := validateTasks(snap.Tasks); err != nil {
		return nil, err
	}
	task := tasks[0]
	if !task.IsActive() {
		return nil, invalid("task.status", "task %s has status %s", task.ID, task.Status)
	}
	if p.opts.Location != nil {
		now = now.In(p.opts.Location)
	}

	contexts, err := p.AnalyzeEntries(ctx, p.recentContexts(snap.Contexts, now), false)
	if err != nil {
		return nil, err
	}
	report, err := p.opts.Workload.Analyze(snap.Tasks, p.opts.WorkloadWindowDays, now)
	if err != nil {
		return nil, err
	}

	var suggestion DeadlineSuggestion
	err = guard("suggest_deadline", snap, []string{task.ID}, func() error {
		suggestion = suggestDeadline(deadlineInput{
			Task:            task,
			Contexts:        contexts,
			Workload:        report,
			DefaultDuration: p.opts.DefaultDurationMinutes,
			Now:             now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logEvent(EventDeadlineSuggested, map[string]any{
		"task_id":          task.ID,
		"confidence":       suggestion.Confidence,
		"related_contexts": len(suggestion.RelatedContexts),
	})
	return &suggestion, nil
}

// ContextInsights summarises the context entries of the last windowDays
// days, analysing any that lack a cached analysis. Zero means
// DefaultInsightWindowDays.
func (p *planner) ContextInsights(ctx context.Context, windowDays int) (*ContextInsights, error) {
	if windowDays == 0 {
		windowDays = DefaultInsightWindowDays
	}
	if windowDays < 1 {
		return nil, invalid("window_days", "must be at least 1, got %d", windowDays)
	}
	snap, err := p.opts.Source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	current, previous := partitionByWindow(snap.Contexts, windowDays, p.now())
	analysed, err := p.AnalyzeEntries(ctx, p.analysable(current), false)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.ContextEntry, len(analysed))
	for _, e := range analysed {
		byID[e.ID] = e
	}
	for i, e := range current {
		if a, ok := byID[e.ID]; ok {
			current[i] = a
		}
	}
	return buildContextInsights(current, len(previous), windowDays), nil
}

// ApplySchedule persists assignments one at a time. Each assignment is
// re-validated against a fresh snapshot before the time-block store reserves
// it; a conflict or failure affects only that assignment.
func (p *planner) ApplySchedule(ctx context.Context, assignments []Assignment) ([]ApplyOutcome, error) {
	if p.opts.Blocks == nil {
		return nil, errors.New("no time block store configured")
	}
	outcomes := make([]ApplyOutcome, 0, len(assignments))
	for _, a := range assignments {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		o := p.applyOne(ctx, a)
		if o.Status == ApplyConflict {
			p.logEvent(EventScheduleConflict, map[string]any{"task_id": o.TaskID, "error": o.Error})
		} else if o.Status == ApplyApplied {
			p.logEvent(EventScheduleApplied, map[string]any{"task_id": o.TaskID, "block_id": o.BlockID})
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (p *planner) applyOne(ctx context.Context, a Assignment) ApplyOutcome {
	o := ApplyOutcome{TaskID: a.TaskID, Start: a.Start, End: a.End}
	fail := func(status string, err error) ApplyOutcome {
		o.Status, o.Error, o.err = status, err.Error(), err
		return o
	}

	if !a.Interval().Valid() {
		return fail(ApplyFailed, invalid("assignment", "task %s interval ends before it starts", a.TaskID))
	}

	snap, err := p.opts.Source.Snapshot(ctx)
	if err != nil {
		return fail(ApplyFailed, fmt.Errorf("reading snapshot: %w", err))
	}
	tasks, err := selectTasks(snap.Tasks, []string{a.TaskID})
	if err != nil {
		return fail(ApplyFailed, err)
	}
	if !tasks[0].IsActive() {
		return fail(ApplyFailed, invalid("assignment", "task %s has status %s", a.TaskID, tasks[0].Status))
	}
	for _, e := range snap.Events {
		if a.Interval().Overlaps(e.Interval()) {
			return fail(ApplyConflict, fmt.Errorf("%w: overlaps event %q", ErrScheduleConflict, e.Title))
		}
	}

	block := models.TimeBlock{
		ID:      uuid.NewString(),
		TaskID:  a.TaskID,
		Start:   a.Start,
		End:     a.End,
		Status:  models.BlockScheduled,
		Created: p.now(),
	}
	if err := p.opts.Blocks.Reserve(ctx, block); err != nil {
		if errors.Is(err, ErrScheduleConflict) {
			return fail(ApplyConflict, err)
		}
		return fail(ApplyFailed, err)
	}

	if p.opts.Tasks != nil {
		if err := p.opts.Tasks.SetTaskSchedule(a.TaskID, a.Start, a.End); err != nil {
			if cerr := p.opts.Blocks.UpdateStatus(ctx, block.ID, models.BlockCancelled); cerr != nil {
				p.log.Error("releasing time block after failed task update",
					zap.String("block_id", block.ID), zap.Error(cerr))
			}
			return fail(ApplyFailed, fmt.Errorf("recording schedule on task: %w", err))
		}
	}

	o.BlockID = block.ID
	o.Status = ApplyApplied
	return o
}
