package observability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultMetricsWindow is the look-back used when none is given.
const DefaultMetricsWindow = "7d"

// ParseSince turns a look-back such as "7d" or "36h" into the instant that
// far before now. An empty string means DefaultMetricsWindow.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultMetricsWindow
	}
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid look-back %q (use e.g. 7d, 30d, 24h)", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("invalid look-back %q (use e.g. 7d, 30d, 24h)", s)
	}
	switch s[len(s)-1] {
	case 'd':
		return now.AddDate(0, 0, -n), nil
	case 'h':
		return now.Add(-time.Duration(n) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported look-back unit in %q (use d or h)", s)
	}
}
