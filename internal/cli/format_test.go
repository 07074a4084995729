package cli

import (
	"testing"
	"time"
)

func TestParseDateFlag(t *testing.T) {
	withConfig(t)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025-01-06T09:30:00+02:00", time.Date(2025, 1, 6, 7, 30, 0, 0, time.UTC), false},
		{"2025-01-06T09:30", time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC), false},
		{"2025-01-06 09:30", time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC), false},
		{"2025-01-06", time.Date(2025, 1, 6, 23, 59, 0, 0, time.UTC), false},
		{" 2025-01-06 ", time.Date(2025, 1, 6, 23, 59, 0, 0, time.UTC), false},
		{"tomorrow", time.Time{}, true},
		{"2025-13-01", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDateFlag(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDateFlag_UsesConfiguredZone(t *testing.T) {
	withConfig(t)
	Config.Schedule.Timezone = "Asia/Tokyo"

	got, err := parseDateFlag("2025-01-06 09:00")
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got.UTC(), want)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "-", -3: "-", 45: "45m", 60: "1h", 150: "2h30m", 65: "1h05m"}
	for in, want := range tests {
		if got := formatDuration(in); got != want {
			t.Errorf("formatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a much longer title", 8); got != "a much …" {
		t.Errorf("got %q", got)
	}
}
