// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the planner as tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/ai-planner/internal/core"
	"github.com/valter-silva-au/ai-planner/internal/observability"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

// Server wraps the planner and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	planner     core.Planner
	metricsCalc observability.MetricsCalculator
	now         func() time.Time
}

// NewServer creates a new MCP server. metricsCalc may be nil when the event
// log is unavailable.
func NewServer(planner core.Planner, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		planner:     planner,
		metricsCalc: metricsCalc,
		now:         time.Now,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "aip", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves MCP over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type analyzeContextInput struct {
	Content     string `json:"content" jsonschema:"the free text to analyze (email, message or note)"`
	SourceType  string `json:"source_type,omitempty" jsonschema:"one of email, message, note, calendar, other. Defaults to note."`
	ContentDate string `json:"content_date,omitempty" jsonschema:"RFC3339 date the content was written, used to resolve relative dates"`
}

type analysisOutput struct {
	Summary           string                 `json:"summary"`
	KeyTopics         []string               `json:"key_topics"`
	UrgencyIndicators []string               `json:"urgency_indicators"`
	SentimentScore    float64                `json:"sentiment_score"`
	PotentialTasks    []models.PotentialTask `json:"potential_tasks"`
	TimeReferences    []string               `json:"time_references"`
	Strategy          string                 `json:"strategy"`
}

type prioritizeInput struct {
	TaskIDs        []string `json:"task_ids,omitempty" jsonschema:"tasks to rank. Empty means all active tasks."`
	RefreshContext bool     `json:"refresh_context,omitempty" jsonschema:"re-analyze recent context entries even if already processed"`
	Persist        bool     `json:"persist,omitempty" jsonschema:"store the computed scores on the tasks"`
}

type scheduleInput struct {
	TaskIDs []string `json:"task_ids,omitempty" jsonschema:"tasks to schedule. Empty means all active tasks."`
}

type assignmentOutput struct {
	TaskID    string  `json:"task_id"`
	TaskTitle string  `json:"task_title"`
	Priority  string  `json:"priority"`
	Start     string  `json:"suggested_start_time"`
	End       string  `json:"suggested_end_time"`
	Rank      int     `json:"rank"`
	Score     float64 `json:"ai_priority_score"`
	Reasoning string  `json:"reasoning"`
}

type scheduleOutput struct {
	Schedule      []assignmentOutput       `json:"schedule"`
	Unschedulable []core.UnschedulableTask `json:"unschedulable"`
}

type applyOutcomeOutput struct {
	TaskID  string `json:"task_id"`
	BlockID string `json:"block_id,omitempty"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

type applyOutput struct {
	Outcomes      []applyOutcomeOutput     `json:"outcomes"`
	Applied       int                      `json:"applied"`
	Conflicts     int                      `json:"conflicts"`
	Unschedulable []core.UnschedulableTask `json:"unschedulable"`
}

type workloadInput struct {
	WindowDays int `json:"window_days,omitempty" jsonschema:"number of days of capacity to compare against. Defaults to the configured window."`
}

type suggestDeadlineInput struct {
	TaskID string `json:"task_id" jsonschema:"the active task to suggest a deadline for"`
}

type deadlineOutput struct {
	TaskID            string   `json:"task_id"`
	Title             string   `json:"title"`
	SuggestedDeadline string   `json:"suggested_deadline"`
	CurrentDeadline   string   `json:"current_deadline,omitempty"`
	Confidence        float64  `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	FactorsConsidered []string `json:"factors_considered"`
	RelatedContexts   []string `json:"related_contexts"`
}

type contextInsightsInput struct {
	WindowDays int `json:"window_days,omitempty" jsonschema:"number of trailing days to summarise. Defaults to 30."`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
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
	OldestEvent         string         `json:"oldest_event,omitempty"`
	NewestEvent         string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "analyze_context",
		Description: "Analyze free text (email, message, note) and return a summary, key topics, urgency indicators, sentiment and potential tasks.",
	}, s.handleAnalyzeContext)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "prioritize_tasks",
		Description: "Score and rank tasks by deadline urgency, priority, recent context and workload. Returns reasoning per task and a workload assessment.",
	}, s.handlePrioritize)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "optimize_schedule",
		Description: "Propose non-overlapping working-hour time slots for tasks in priority order, avoiding calendar events and existing time blocks.",
	}, s.handleOptimize)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "apply_schedule",
		Description: "Optimize a schedule and reserve the proposed slots as time blocks. Slots that became busy are reported as conflicts.",
	}, s.handleApply)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "workload_analysis",
		Description: "Compare estimated effort of active tasks with available working hours and recommend what to postpone.",
	}, s.handleWorkload)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "suggest_deadline",
		Description: "Suggest a deadline for an active task from dates and urgency in related context entries, its estimated effort and the current workload.",
	}, s.handleSuggestDeadline)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "context_insights",
		Description: "Summarise recent context entries: volume change, sources, sentiment, recurring topics and urgency.",
	}, s.handleContextInsights)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get planner activity metrics from the event log: analyses, prioritizations, applied blocks and conflicts.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleAnalyzeContext(ctx context.Context, _ *gomcp.CallToolRequest, input analyzeContextInput) (*gomcp.CallToolResult, analysisOutput, error) {
	req := core.AnalyzeRequest{
		Content:    input.Content,
		SourceType: models.SourceType(input.SourceType),
	}
	if req.SourceType == "" {
		req.SourceType = models.SourceNote
	}
	if input.ContentDate != "" {
		d, err := time.Parse(time.RFC3339, input.ContentDate)
		if err != nil {
			return errorResult(fmt.Sprintf("content_date must be RFC3339: %s", err)), emptyAnalysisOutput(), nil
		}
		req.ContentDate = &d
	}

	analysis, err := s.planner.AnalyzeContext(ctx, req)
	if err != nil {
		return errorResult(fmt.Sprintf("analyzing context: %s", err)), emptyAnalysisOutput(), nil
	}
	return nil, analysisToOutput(analysis), nil
}

func (s *Server) handlePrioritize(ctx context.Context, _ *gomcp.CallToolRequest, input prioritizeInput) (*gomcp.CallToolResult, core.PrioritizeResult, error) {
	result, err := s.planner.PrioritizeTasks(ctx, core.PrioritizeRequest{
		TaskIDs:        input.TaskIDs,
		RefreshContext: input.RefreshContext,
		Persist:        input.Persist,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("prioritizing tasks: %s", describe(err))), core.PrioritizeResult{}, nil
	}
	return nil, *result, nil
}

func (s *Server) handleOptimize(ctx context.Context, _ *gomcp.CallToolRequest, input scheduleInput) (*gomcp.CallToolResult, scheduleOutput, error) {
	result, err := s.planner.OptimizeSchedule(ctx, input.TaskIDs)
	if err != nil {
		return errorResult(fmt.Sprintf("optimizing schedule: %s", describe(err))), scheduleOutput{}, nil
	}
	return nil, scheduleToOutput(result), nil
}

func (s *Server) handleApply(ctx context.Context, _ *gomcp.CallToolRequest, input scheduleInput) (*gomcp.CallToolResult, applyOutput, error) {
	result, err := s.planner.OptimizeSchedule(ctx, input.TaskIDs)
	if err != nil {
		return errorResult(fmt.Sprintf("optimizing schedule: %s", describe(err))), applyOutput{}, nil
	}
	outcomes, err := s.planner.ApplySchedule(ctx, result.Assignments)
	if err != nil {
		return errorResult(fmt.Sprintf("applying schedule: %s", err)), applyOutput{}, nil
	}

	out := applyOutput{
		Outcomes:      make([]applyOutcomeOutput, len(outcomes)),
		Unschedulable: result.Unschedulable,
	}
	for i, o := range outcomes {
		out.Outcomes[i] = applyOutcomeOutput{
			TaskID:  o.TaskID,
			BlockID: o.BlockID,
			Start:   formatTime(o.Start),
			End:     formatTime(o.End),
			Status:  o.Status,
			Error:   o.Error,
		}
		switch o.Status {
		case core.ApplyApplied:
			out.Applied++
		case core.ApplyConflict:
			out.Conflicts++
		}
	}
	return nil, out, nil
}

func (s *Server) handleWorkload(ctx context.Context, _ *gomcp.CallToolRequest, input workloadInput) (*gomcp.CallToolResult, core.WorkloadReport, error) {
	report, err := s.planner.WorkloadAnalysis(ctx, input.WindowDays)
	if err != nil {
		return errorResult(fmt.Sprintf("analyzing workload: %s", err)), core.WorkloadReport{}, nil
	}
	return nil, *report, nil
}

func (s *Server) handleSuggestDeadline(ctx context.Context, _ *gomcp.CallToolRequest, input suggestDeadlineInput) (*gomcp.CallToolResult, deadlineOutput, error) {
	sug, err := s.planner.SuggestDeadline(ctx, input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("suggesting deadline: %s", describe(err))), deadlineOutput{}, nil
	}
	out := deadlineOutput{
		TaskID:            sug.TaskID,
		Title:             sug.Title,
		SuggestedDeadline: formatTime(sug.SuggestedDeadline),
		Confidence:        sug.Confidence,
		Reasoning:         sug.Reasoning,
		FactorsConsidered: sug.FactorsConsidered,
		RelatedContexts:   sug.RelatedContexts,
	}
	if sug.CurrentDeadline != nil {
		out.CurrentDeadline = formatTime(*sug.CurrentDeadline)
	}
	return nil, out, nil
}

func (s *Server) handleContextInsights(ctx context.Context, _ *gomcp.CallToolRequest, input contextInsightsInput) (*gomcp.CallToolResult, core.ContextInsights, error) {
	insights, err := s.planner.ContextInsights(ctx, input.WindowDays)
	if err != nil {
		return errorResult(fmt.Sprintf("summarising context: %s", err)), core.ContextInsights{}, nil
	}
	return nil, *insights, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log disabled)"), emptyMetricsOutput(), nil
	}

	sinceTime, err := observability.ParseSince(input.Since, s.now())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	m, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		ContextsAnalyzed:    m.ContextsAnalyzed,
		AnalysesByStrategy:  m.AnalysesByStrategy,
		PotentialTasksFound: m.PotentialTasksFound,
		Prioritizations:     m.Prioritizations,
		WorkloadLevels:      m.WorkloadLevels,
		SchedulesOptimized:  m.SchedulesOptimized,
		Unschedulable:       m.Unschedulable,
		BlocksApplied:       m.BlocksApplied,
		Conflicts:           m.Conflicts,
		EventCount:          m.EventCount,
	}
	if m.OldestEvent != nil {
		out.OldestEvent = formatTime(*m.OldestEvent)
	}
	if m.NewestEvent != nil {
		out.NewestEvent = formatTime(*m.NewestEvent)
	}
	return nil, out, nil
}

// --- Helpers ---

// describe adds the reproduction hint of an EngineError to its message.
func describe(err error) string {
	var engErr *core.EngineError
	if errors.As(err, &engErr) {
		return fmt.Sprintf("%s (internal engine fault, snapshot %s)", err, engErr.SnapshotHash)
	}
	return err.Error()
}

func analysisToOutput(a *models.ContextAnalysis) analysisOutput {
	out := emptyAnalysisOutput()
	out.Summary = a.Summary
	out.SentimentScore = a.SentimentScore
	out.Strategy = a.Strategy
	out.KeyTopics = append(out.KeyTopics, a.KeyTopics...)
	out.UrgencyIndicators = append(out.UrgencyIndicators, a.UrgencyIndicators...)
	out.PotentialTasks = append(out.PotentialTasks, a.PotentialTasks...)
	out.TimeReferences = append(out.TimeReferences, a.TimeReferences...)
	return out
}

func emptyAnalysisOutput() analysisOutput {
	return analysisOutput{
		KeyTopics:         []string{},
		UrgencyIndicators: []string{},
		PotentialTasks:    []models.PotentialTask{},
		TimeReferences:    []string{},
	}
}

func scheduleToOutput(r *core.ScheduleResult) scheduleOutput {
	out := scheduleOutput{
		Schedule:      make([]assignmentOutput, len(r.Assignments)),
		Unschedulable: r.Unschedulable,
	}
	for i, a := range r.Assignments {
		out.Schedule[i] = assignmentOutput{
			TaskID:    a.TaskID,
			TaskTitle: a.TaskTitle,
			Priority:  string(a.Priority),
			Start:     formatTime(a.Start),
			End:       formatTime(a.End),
			Rank:      a.Rank,
			Score:     a.Score,
			Reasoning: a.Reasoning,
		}
	}
	return out
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		AnalysesByStrategy: make(map[string]int),
		WorkloadLevels:     make(map[string]int),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
