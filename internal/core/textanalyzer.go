package core

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/valter-silva-au/ai-planner/pkg/models"
	"go.uber.org/zap"
)

// Analyzer strategy names.
const (
	StrategyLocal  = "local"
	StrategyRemote = "remote"
)

const (
	maxSummaryRunes   = 160
	maxTaskTitleRunes = 80
	maxKeyTopics      = 5
)

// AnalyzeRequest is the input to a TextAnalyzer.
type AnalyzeRequest struct {
	Content     string
	SourceType  models.SourceType
	ContentDate *time.Time
}

// Validate rejects requests that must never reach an analyzer.
func (r AnalyzeRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return invalid("content", "must not be empty")
	}
	if !models.IsValidSourceType(r.SourceType) {
		return invalid("source_type", "%q is not one of email, message, note, calendar, other", r.SourceType)
	}
	if r.ContentDate != nil && r.ContentDate.IsZero() {
		return invalid("content_date", "must be a real timestamp")
	}
	return nil
}

// TextAnalyzer extracts structured signals from a free-text context entry.
// Implementations never fail because of an unreachable backend; the error
// return is reserved for cancellation by the caller.
type TextAnalyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*models.ContextAnalysis, error)
}

// NewTextAnalyzer selects the analysis strategy named in cfg. The remote
// strategy always wraps a local analyzer as its fallback; a nil service
// degrades to the local strategy.
func NewTextAnalyzer(cfg models.AnalyzerConfig, service TextService, clock func() time.Time, logger *zap.Logger) TextAnalyzer {
	local := NewLocalAnalyzer(cfg.UrgencyWindowDays, clock)
	if cfg.Strategy != StrategyRemote || service == nil {
		return local
	}
	return NewRemoteAnalyzer(service, local, cfg.Timeout, clock, logger)
}

// localAnalyzer is the deterministic lexical heuristic strategy.
type localAnalyzer struct {
	urgencyWindowDays int
	now               func() time.Time
}

// NewLocalAnalyzer creates the heuristic TextAnalyzer. Date-like tokens count
// as urgency indicators when they fall within urgencyWindowDays of the
// content date (or of clock() when the entry has no date).
func NewLocalAnalyzer(urgencyWindowDays int, clock func() time.Time) TextAnalyzer {
	if clock == nil {
		clock = time.Now
	}
	return &localAnalyzer{urgencyWindowDays: urgencyWindowDays, now: clock}
}

func (a *localAnalyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*models.ContextAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.analyze(req), nil
}

func (a *localAnalyzer) analyze(req AnalyzeRequest) *models.ContextAnalysis {
	ref := a.now()
	if req.ContentDate != nil {
		ref = *req.ContentDate
	}

	result := &models.ContextAnalysis{
		KeyTopics:         []string{},
		UrgencyIndicators: []string{},
		TimeReferences:    []string{},
		PotentialTasks:    []models.PotentialTask{},
		Strategy:          StrategyLocal,
		AnalyzedAt:        a.now(),
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return result
	}

	tokens := tokenize(content)
	result.SentimentScore = sentiment(tokens)

	refs := findTimeRefs(content, ref)
	for _, r := range refs {
		result.TimeReferences = append(result.TimeReferences, r.Text)
	}
	result.TimeReferences = dedupe(result.TimeReferences)
	result.UrgencyIndicators = a.urgencyIndicators(content, refs, ref)
	result.KeyTopics = topTopics(tokens, maxKeyTopics)

	sentences := splitSentences(content)
	if len(sentences) > 0 {
		result.Summary = truncateRunes(sentences[0], maxSummaryRunes)
	}
	for _, s := range sentences {
		if pt, ok := a.potentialTask(s, ref); ok {
			result.PotentialTasks = append(result.PotentialTasks, pt)
		}
	}
	return result
}

// sentiment is (positive - negative) / total tokens, clamped to [-1, 1].
func sentiment(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var pos, neg int
	for _, t := range tokens {
		switch {
		case positiveWords[t]:
			pos++
		case negativeWords[t]:
			neg++
		}
	}
	score := float64(pos-neg) / float64(len(tokens))
	return math.Max(-1, math.Min(1, score))
}

type positioned struct {
	text string
	pos  int
}

// urgencyIndicators merges keyword matches and near-term dates in text order.
func (a *localAnalyzer) urgencyIndicators(text string, refs []timeRef, ref time.Time) []string {
	var found []positioned
	for _, idx := range urgencyPattern.FindAllStringIndex(text, -1) {
		found = append(found, positioned{text: strings.ToLower(text[idx[0]:idx[1]]), pos: idx[0]})
	}
	for _, r := range refs {
		if withinDays(r.Date, ref, a.urgencyWindowDays) {
			found = append(found, positioned{text: r.Text, pos: r.Start})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f.text)
	}
	return dedupe(out)
}

// potentialTask decides whether a sentence is actionable and builds the
// candidate if so.
func (a *localAnalyzer) potentialTask(sentence string, ref time.Time) (models.PotentialTask, bool) {
	words := tokenize(sentence)
	if len(words) == 0 {
		return models.PotentialTask{}, false
	}
	first := words[0]
	if first == "please" && len(words) > 1 {
		first = words[1]
	}
	if !imperativeVerbs[first] && !obligationPattern.MatchString(sentence) {
		return models.PotentialTask{}, false
	}

	body := strings.TrimRight(sentence, ".!? ")
	title := leadingObligation.ReplaceAllString(body, "")
	title = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(title, "Please "), "please "))
	title = truncateRunes(capitalize(title), maxTaskTitleRunes)

	refs := findTimeRefs(sentence, ref)
	urgency := models.UrgencyMedium
	if len(a.urgencyIndicators(sentence, refs, ref)) > 0 {
		urgency = models.UrgencyHigh
	}
	hint := ""
	if len(refs) > 0 {
		hint = refs[0].Text
	}

	return models.PotentialTask{
		Title:        title,
		Description:  sentence,
		Urgency:      urgency,
		DeadlineHint: hint,
	}, true
}

// topTopics returns up to n keywords ordered by frequency, ties broken by
// first appearance.
func topTopics(tokens []string, n int) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, t := range tokens {
		if utf8.RuneCountInString(t) <= 3 || stopWords[t] || isNumeric(t) {
			continue
		}
		if _, ok := firstSeen[t]; !ok {
			firstSeen[t] = i
		}
		counts[t]++
	}
	topics := make([]string, 0, len(counts))
	for t := range counts {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return firstSeen[topics[i]] < firstSeen[topics[j]]
	})
	if len(topics) > n {
		topics = topics[:n]
	}
	return topics
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// dedupe removes repeated strings, keeping first occurrences in order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
