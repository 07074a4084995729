package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/valter-silva-au/ai-planner/pkg/models"
	"go.uber.org/zap"
)

// TextService is a remote text-understanding backend. Generate sends a
// prompt and returns the raw model output.
type TextService interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// analysisSchema constrains the JSON the remote service must return.
const analysisSchema = `{
  "type": "object",
  "required": ["summary", "key_topics", "urgency_indicators", "sentiment_score", "potential_tasks"],
  "properties": {
    "summary": {"type": "string"},
    "key_topics": {"type": "array", "items": {"type": "string"}},
    "urgency_indicators": {"type": "array", "items": {"type": "string"}},
    "sentiment_score": {"type": "number"},
    "time_references": {"type": "array", "items": {"type": "string"}},
    "potential_tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "urgency": {"type": "string"},
          "deadline_hint": {"type": "string"}
        }
      }
    }
  }
}`

var compiledAnalysisSchema = jsonschema.MustCompileString("analysis.json", analysisSchema)

const analysisPrompt = `Analyze the following %s and extract actionable information.
Reference date: %s.

Content:
%s

Respond with a single JSON object and nothing else, using these fields:
{
  "summary": "one sentence summary",
  "key_topics": ["topic"],
  "urgency_indicators": ["urgent words or near dates"],
  "sentiment_score": 0.0,
  "time_references": ["dates or times mentioned"],
  "potential_tasks": [
    {"title": "", "description": "", "urgency": "high|medium|low", "deadline_hint": ""}
  ]
}
sentiment_score must be between -1 and 1.`

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

type remotePayload struct {
	Summary           string   `json:"summary"`
	KeyTopics         []string `json:"key_topics"`
	UrgencyIndicators []string `json:"urgency_indicators"`
	SentimentScore    float64  `json:"sentiment_score"`
	TimeReferences    []string `json:"time_references"`
	PotentialTasks    []struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		Urgency      string `json:"urgency"`
		DeadlineHint string `json:"deadline_hint"`
	} `json:"potential_tasks"`
}

type remoteAnalyzer struct {
	service  TextService
	fallback TextAnalyzer
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewRemoteAnalyzer creates a TextAnalyzer backed by service. Every failure
// of the remote call (error, timeout, malformed or schema-invalid output) is
// logged at warn level and answered with fallback's result.
func NewRemoteAnalyzer(service TextService, fallback TextAnalyzer, timeout time.Duration, clock func() time.Time, logger *zap.Logger) TextAnalyzer {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &remoteAnalyzer{
		service:  service,
		fallback: fallback,
		timeout:  timeout,
		now:      clock,
		logger:   logger,
	}
}

func (a *remoteAnalyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*models.ContextAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return a.fallback.Analyze(ctx, req)
	}

	analysis, err := a.remote(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("remote analysis failed, using local heuristic",
			zap.String("service", a.service.Name()),
			zap.Error(err),
		)
		return a.fallback.Analyze(ctx, req)
	}
	return analysis, nil
}

type generateResult struct {
	text string
	err  error
}

// remote runs the service call under the timeout. The call runs in its own
// goroutine so a service that ignores ctx cannot hold the caller past the
// deadline; the buffered channel lets that goroutine exit on its own.
func (a *remoteAnalyzer) remote(ctx context.Context, req AnalyzeRequest) (*models.ContextAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ref := a.now()
	if req.ContentDate != nil {
		ref = *req.ContentDate
	}
	prompt := fmt.Sprintf(analysisPrompt, req.SourceType, ref.Format("2006-01-02"), req.Content)

	done := make(chan generateResult, 1)
	go func() {
		text, err := a.service.Generate(ctx, prompt)
		done <- generateResult{text: text, err: err}
	}()

	var res generateResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", a.service.Name(), ctx.Err())
	}
	if res.err != nil {
		return nil, fmt.Errorf("%s: %w", a.service.Name(), res.err)
	}
	return a.parse(res.text)
}

// parse extracts, validates and normalises a remote analysis.
func (a *remoteAnalyzer) parse(text string) (*models.ContextAnalysis, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if err := compiledAnalysisSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("response does not match schema: %w", err)
	}

	var p remotePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	out := &models.ContextAnalysis{
		Summary:           truncateRunes(strings.TrimSpace(p.Summary), maxSummaryRunes),
		KeyTopics:         cleanStrings(p.KeyTopics, false),
		UrgencyIndicators: cleanStrings(p.UrgencyIndicators, true),
		TimeReferences:    cleanStrings(p.TimeReferences, true),
		PotentialTasks:    make([]models.PotentialTask, 0, len(p.PotentialTasks)),
		Strategy:          StrategyRemote,
		AnalyzedAt:        a.now(),
	}
	if math.IsNaN(p.SentimentScore) {
		p.SentimentScore = 0
	}
	out.SentimentScore = math.Max(-1, math.Min(1, p.SentimentScore))

	for _, t := range p.PotentialTasks {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			continue
		}
		out.PotentialTasks = append(out.PotentialTasks, models.PotentialTask{
			Title:        truncateRunes(title, maxTaskTitleRunes),
			Description:  strings.TrimSpace(t.Description),
			Urgency:      normalizeUrgency(t.Urgency),
			DeadlineHint: strings.TrimSpace(t.DeadlineHint),
		})
	}
	return out, nil
}

var errNoJSON = errors.New("no JSON object in response")

// extractJSON finds the analysis object in model output: the whole text, a
// fenced code block, or the first brace-balanced object.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "{") && json.Valid([]byte(text)) {
		return text, nil
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil && json.Valid([]byte(m[1])) {
		return m[1], nil
	}

	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if obj, ok := balancedObject(text[start:]); ok && json.Valid([]byte(obj)) {
			return obj, nil
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", errNoJSON
}

// balancedObject returns the prefix of s up to the brace closing s[0],
// skipping braces inside JSON strings.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

func normalizeUrgency(u string) string {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case models.UrgencyHigh, "urgent", "critical":
		return models.UrgencyHigh
	case models.UrgencyLow:
		return models.UrgencyLow
	default:
		return models.UrgencyMedium
	}
}

func cleanStrings(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if lower {
			s = strings.ToLower(s)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return dedupe(out)
}
