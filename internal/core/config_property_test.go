package core

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// =============================================================================
// Generators
// =============================================================================

// genWorkingHours generates a start/end pair with end strictly after start.
func genWorkingHours(t *rapid.T) (string, string) {
	start := rapid.IntRange(0, 22*60).Draw(t, "startMinutes")
	end := rapid.IntRange(start+1, 23*60+59).Draw(t, "endMinutes")
	return clockString(start), clockString(end)
}

func clockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// =============================================================================
// Properties
// =============================================================================

// Any ordered pair of valid working hours combined with defaults validates.
func TestProperty_ValidWorkingHoursAccepted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		cfg.Schedule.WorkingHoursStart, cfg.Schedule.WorkingHoursEnd = genWorkingHours(t)
		if err := ValidateConfig(cfg); err != nil {
			t.Fatalf("ValidateConfig(%s-%s): %v", cfg.Schedule.WorkingHoursStart, cfg.Schedule.WorkingHoursEnd, err)
		}
	})
}

// Swapping a valid pair always fails.
func TestProperty_InvertedWorkingHoursRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		start, end := genWorkingHours(t)
		cfg.Schedule.WorkingHoursStart, cfg.Schedule.WorkingHoursEnd = end, start
		if err := ValidateConfig(cfg); err == nil {
			t.Fatalf("ValidateConfig(%s-%s) accepted inverted hours", end, start)
		}
	})
}

// ParseClock inverts clock formatting.
func TestProperty_ParseClockRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := rapid.IntRange(0, 24*60-1).Draw(t, "minutes")
		got, err := ParseClock(clockString(m))
		if err != nil {
			t.Fatalf("ParseClock(%s): %v", clockString(m), err)
		}
		if got != m {
			t.Fatalf("ParseClock(%s) = %d, want %d", clockString(m), got, m)
		}
	})
}

// Weights that do not sum to 1.0 are always rejected.
func TestProperty_UnbalancedWeightsRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		cfg.Scoring.Weights.ContextRelevance += rapid.Float64Range(0.01, 1).Draw(t, "extra")
		if err := ValidateConfig(cfg); err == nil {
			t.Fatalf("weights summing to %g accepted", cfg.Scoring.Weights.Sum())
		}
	})
}
