package observability

import (
	"strings"
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in      string
		want    time.Time
		wantErr string
	}{
		{"", now.AddDate(0, 0, -7), ""},
		{"  ", now.AddDate(0, 0, -7), ""},
		{"7d", now.AddDate(0, 0, -7), ""},
		{"30d", now.AddDate(0, 0, -30), ""},
		{"24h", now.Add(-24 * time.Hour), ""},
		{"0h", now, ""},
		{"d", time.Time{}, "invalid look-back"},
		{"xd", time.Time{}, "invalid look-back"},
		{"-3d", time.Time{}, "invalid look-back"},
		{"5m", time.Time{}, "unsupported look-back unit"},
		{"3w", time.Time{}, "unsupported look-back unit"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSince(tt.in, now)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseSince(%q) err = %v, want %q", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSince(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseSince(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
