package core

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// timeRef is a date-like expression found in text.
type timeRef struct {
	Text  string
	Start int
	End   int
	Date  time.Time
}

const monthAlternation = `january|february|march|april|may|june|july|august|september|october|november|december`

type datePattern struct {
	re      *regexp.Regexp
	resolve func(match []string, ref time.Time) (time.Time, bool)
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func monthIndex(name string) time.Month {
	for i, m := range strings.Split(monthAlternation, "|") {
		if m == strings.ToLower(name) {
			return time.Month(i + 1)
		}
	}
	return 0
}

// validDate builds a date and rejects overflow such as February 31.
func validDate(y int, m time.Month, d int, loc *time.Location) (time.Time, bool) {
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if t.Year() != y || t.Month() != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

var datePatterns = []datePattern{
	{
		re: regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		resolve: func(m []string, ref time.Time) (time.Time, bool) {
			y, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			d, _ := strconv.Atoi(m[3])
			return validDate(y, time.Month(mo), d, ref.Location())
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d{1,2})\s+(` + monthAlternation + `)\s+(\d{4})\b`),
		resolve: func(m []string, ref time.Time) (time.Time, bool) {
			d, _ := strconv.Atoi(m[1])
			y, _ := strconv.Atoi(m[3])
			return validDate(y, monthIndex(m[2]), d, ref.Location())
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(` + monthAlternation + `)\s+(\d{1,2})(?:,\s*(\d{4}))?\b`),
		resolve: func(m []string, ref time.Time) (time.Time, bool) {
			d, _ := strconv.Atoi(m[2])
			y := ref.Year()
			if m[3] != "" {
				y, _ = strconv.Atoi(m[3])
			}
			return validDate(y, monthIndex(m[1]), d, ref.Location())
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(today|tonight)\b`),
		resolve: func(_ []string, ref time.Time) (time.Time, bool) {
			return dayOf(ref), true
		},
	},
	{
		re: regexp.MustCompile(`(?i)\btomorrow\b`),
		resolve: func(_ []string, ref time.Time) (time.Time, bool) {
			return dayOf(ref).AddDate(0, 0, 1), true
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bnext week\b`),
		resolve: func(_ []string, ref time.Time) (time.Time, bool) {
			return dayOf(ref).AddDate(0, 0, 7), true
		},
	},
	{
		re: regexp.MustCompile(`(?i)\bthis weekend\b`),
		resolve: func(_ []string, ref time.Time) (time.Time, bool) {
			d := dayOf(ref)
			return d.AddDate(0, 0, (int(time.Saturday)-int(d.Weekday())+7)%7), true
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		resolve: func(m []string, ref time.Time) (time.Time, bool) {
			wd := weekdayNames[strings.ToLower(m[1])]
			d := dayOf(ref)
			return d.AddDate(0, 0, (int(wd)-int(d.Weekday())+7)%7), true
		},
	},
}

// findTimeRefs returns the date-like expressions in text, resolved against
// ref and ordered by position. Overlapping matches keep the earliest one.
func findTimeRefs(text string, ref time.Time) []timeRef {
	var refs []timeRef
	for _, p := range datePatterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(text, -1) {
			groups := make([]string, len(idx)/2)
			for g := range groups {
				if idx[2*g] >= 0 {
					groups[g] = text[idx[2*g]:idx[2*g+1]]
				}
			}
			date, ok := p.resolve(groups, ref)
			if !ok {
				continue
			}
			refs = append(refs, timeRef{
				Text:  strings.ToLower(groups[0]),
				Start: idx[0],
				End:   idx[1],
				Date:  date,
			})
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Start != refs[j].Start {
			return refs[i].Start < refs[j].Start
		}
		return refs[i].End > refs[j].End
	})

	kept := refs[:0]
	lastEnd := -1
	for _, r := range refs {
		if r.Start < lastEnd {
			continue
		}
		kept = append(kept, r)
		lastEnd = r.End
	}
	return kept
}

// withinDays reports whether date falls on or after ref's day and no more
// than window days later.
func withinDays(date, ref time.Time, window int) bool {
	start := dayOf(ref)
	end := start.AddDate(0, 0, window)
	d := dayOf(date.In(ref.Location()))
	return !d.Before(start) && !d.After(end)
}
