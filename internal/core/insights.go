package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/ai-planner/pkg/models"
)

// DefaultInsightWindowDays is the context insight window when none is given.
const DefaultInsightWindowDays = 30

// Sentiment thresholds separating positive, neutral and negative entries.
const (
	positiveSentiment = 0.3
	negativeSentiment = -0.3
	maxInsightTopics  = 10
)

// SourceCount is the number of entries from one source type.
type SourceCount struct {
	Source  models.SourceType `json:"source"`
	Count   int               `json:"count"`
	Percent float64           `json:"percent"`
}

// TopicCount is the number of entries naming a key topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// SentimentDistribution holds the percentage of analysed entries per band.
type SentimentDistribution struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// ContextInsights summarises the context entries of a trailing window and
// compares their volume with the window before it.
type ContextInsights struct {
	WindowDays            int                   `json:"window_days"`
	TotalEntries          int                   `json:"total_entries"`
	PreviousEntries       int                   `json:"previous_entries"`
	EntriesChange         int                   `json:"entries_change"`
	AnalyzedEntries       int                   `json:"analyzed_entries"`
	UrgentEntries         int                   `json:"urgent_entries"`
	PotentialTasks        int                   `json:"potential_tasks"`
	SourceDistribution    []SourceCount         `json:"source_distribution"`
	AverageSentiment      float64               `json:"average_sentiment"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
	TopTopics             []TopicCount          `json:"top_topics"`
	Insights              []string              `json:"insights"`
}

// partitionByWindow splits entries into the current window (now-days, now]
// and the previous one (now-2*days, now-days]. Future-dated entries are
// ignored.
func partitionByWindow(entries []models.ContextEntry, days int, now time.Time) (current, previous []models.ContextEntry) {
	start := now.AddDate(0, 0, -days)
	prevStart := now.AddDate(0, 0, -2*days)
	for _, e := range entries {
		d := e.EffectiveDate()
		switch {
		case d.After(now):
		case d.After(start):
			current = append(current, e)
		case d.After(prevStart):
			previous = append(previous, e)
		}
	}
	return current, previous
}

// buildContextInsights aggregates analysed entries. Entries without an
// analysis count towards volume and sources only.
func buildContextInsights(current []models.ContextEntry, previousCount, days int) *ContextInsights {
	ci := &ContextInsights{
		WindowDays:         days,
		TotalEntries:       len(current),
		PreviousEntries:    previousCount,
		EntriesChange:      len(current) - previousCount,
		SourceDistribution: []SourceCount{},
		TopTopics:          []TopicCount{},
		Insights:           []string{},
	}

	sources := make(map[models.SourceType]int)
	topics := make(map[string]int)
	var sentimentSum float64
	var pos, neg int
	for _, e := range current {
		sources[e.SourceType]++
		a := e.Analysis
		if a == nil {
			continue
		}
		ci.AnalyzedEntries++
		ci.PotentialTasks += len(a.PotentialTasks)
		if len(a.UrgencyIndicators) > 0 {
			ci.UrgentEntries++
		}
		sentimentSum += a.SentimentScore
		switch {
		case a.SentimentScore > positiveSentiment:
			pos++
		case a.SentimentScore < negativeSentiment:
			neg++
		}
		seen := make(map[string]bool, len(a.KeyTopics))
		for _, t := range a.KeyTopics {
			if !seen[t] {
				seen[t] = true
				topics[t]++
			}
		}
	}

	for src, n := range sources {
		ci.SourceDistribution = append(ci.SourceDistribution, SourceCount{
			Source:  src,
			Count:   n,
			Percent: round2(100 * float64(n) / float64(len(current))),
		})
	}
	sort.Slice(ci.SourceDistribution, func(i, j int) bool {
		a, b := ci.SourceDistribution[i], ci.SourceDistribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Source < b.Source
	})

	for t, n := range topics {
		ci.TopTopics = append(ci.TopTopics, TopicCount{Topic: t, Count: n})
	}
	sort.Slice(ci.TopTopics, func(i, j int) bool {
		a, b := ci.TopTopics[i], ci.TopTopics[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Topic < b.Topic
	})
	if len(ci.TopTopics) > maxInsightTopics {
		ci.TopTopics = ci.TopTopics[:maxInsightTopics]
	}

	if n := ci.AnalyzedEntries; n > 0 {
		ci.AverageSentiment = round2(sentimentSum / float64(n))
		ci.SentimentDistribution = SentimentDistribution{
			Positive: round2(100 * float64(pos) / float64(n)),
			Negative: round2(100 * float64(neg) / float64(n)),
			Neutral:  round2(100 * float64(n-pos-neg) / float64(n)),
		}
	}

	ci.Insights = contextInsightNotes(ci)
	return ci
}

func contextInsightNotes(ci *ContextInsights) []string {
	notes := []string{}
	if ci.TotalEntries == 0 {
		return append(notes, fmt.Sprintf("No context entries in the last %d days.", ci.WindowDays))
	}
	switch {
	case ci.EntriesChange > 0:
		notes = append(notes, fmt.Sprintf("Context volume is up by %d entries on the previous %d days.", ci.EntriesChange, ci.WindowDays))
	case ci.EntriesChange < 0:
		notes = append(notes, fmt.Sprintf("Context volume is down by %d entries on the previous %d days.", -ci.EntriesChange, ci.WindowDays))
	}
	top := ci.SourceDistribution[0]
	notes = append(notes, fmt.Sprintf("Most context comes from %s (%.0f%%).", top.Source, top.Percent))
	if ci.UrgentEntries > 0 {
		notes = append(notes, fmt.Sprintf("%d of %d analysed entries carry urgency signals.", ci.UrgentEntries, ci.AnalyzedEntries))
	}
	if ci.PotentialTasks > 0 {
		notes = append(notes, fmt.Sprintf("%d potential tasks were detected in recent context.", ci.PotentialTasks))
	}
	switch {
	case ci.AnalyzedEntries > 0 && ci.AverageSentiment < negativeSentiment:
		notes = append(notes, "Recent context skews negative: look for blockers or friction.")
	case ci.AnalyzedEntries > 0 && ci.AverageSentiment > positiveSentiment:
		notes = append(notes, "Recent context skews positive.")
	}
	if len(ci.TopTopics) > 0 && ci.TopTopics[0].Count > 1 {
		notes = append(notes, fmt.Sprintf("%q comes up in %d entries.", ci.TopTopics[0].Topic, ci.TopTopics[0].Count))
	}
	return notes
}
