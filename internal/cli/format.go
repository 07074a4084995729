package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/ai-planner/pkg/models"
)

var (
	labelStyles = map[string]lipgloss.Style{
		"Critical": lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"High":     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		"Medium":   lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		"Low":      lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		"Very Low": lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
	workloadStyles = map[string]lipgloss.Style{
		"light":      lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		"moderate":   lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		"heavy":      lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		"overloaded": lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func styleLabel(label string) string {
	if s, ok := labelStyles[label]; ok {
		return s.Render(label)
	}
	return label
}

func styleWorkload(level string) string {
	if s, ok := workloadStyles[level]; ok {
		return s.Render(level)
	}
	return level
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting as JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// location returns the configured planning timezone, falling back to local.
func location() *time.Location {
	if Config == nil || Config.Schedule.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(Config.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// parseDateFlag accepts RFC3339 or a local date/time in the planning
// timezone. A bare date means the end of that day.
func parseDateFlag(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, location())
		}
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Minute)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use RFC3339, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")", s)
}

func formatWhen(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(location()).Format("2006-01-02 15:04")
}

func formatDuration(minutes int) string {
	if minutes <= 0 {
		return "-"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func printTaskTable(tasks []models.Task) {
	fmt.Printf("  %-12s %-8s %-12s %-17s %-6s %6s  %s\n", "ID", "PRI", "STATUS", "DEADLINE", "EST", "SCORE", "TITLE")
	fmt.Printf("  %-12s %-8s %-12s %-17s %-6s %6s  %s\n", "--", "---", "------", "--------", "---", "-----", "-----")
	for _, t := range tasks {
		fmt.Printf("  %-12s %-8s %-12s %-17s %-6s %6.2f  %s\n",
			t.ID, t.Priority, t.Status, formatWhen(t.Deadline), formatDuration(t.EstimatedDuration),
			t.AIPriorityScore, truncate(t.Title, 50))
	}
}
