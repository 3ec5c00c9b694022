package livesync

import (
	"math"
	"testing"
	"time"
)

func TestLookbackDays(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastSync time.Time
		want     float64
	}{
		{"first sync", time.Time{}, 0.5},
		{"one minute ago clamps low", now.Add(-time.Minute), 0.1},
		// Some write-ups of this sync give "50h -> 7" as an example, which
		// contradicts the hours/24 formula they also state. The formula wins:
		// 50h is about 2.08 days, well under the 7 day ceiling.
		{"fifty hours ago", now.Add(-50 * time.Hour), 50.0 / 24},
		{"thirty six hours ago", now.Add(-36 * time.Hour), 1.5},
		{"ten days ago clamps high", now.Add(-240 * time.Hour), 7},
		{"clock moved backwards", now.Add(time.Hour), 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LookbackDays(tt.lastSync, now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LookbackDays() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLookbackDays_UpperClamp pins the documented 7-day ceiling for a sync
// gap larger than a week.
func TestLookbackDays_UpperClamp(t *testing.T) {
	now := time.Now()
	if got := LookbackDays(now.Add(-8*24*time.Hour), now); got != 7 {
		t.Errorf("LookbackDays() = %v, want 7", got)
	}
}
