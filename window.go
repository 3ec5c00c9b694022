package livesync

import (
	"math"
	"time"
)

// Lookback bounds, in days.
const (
	firstSyncDays   = 0.5
	minLookbackDays = 0.1
	maxLookbackDays = 7
)

// LookbackDays returns the days window requested for a cycle at now.
//
// Without a previous sync (zero lastSync) the window is half a day. Otherwise
// it is the time since lastSync clamped to [0.1, 7] days.
func LookbackDays(lastSync, now time.Time) float64 {
	if lastSync.IsZero() {
		return firstSyncDays
	}
	days := now.Sub(lastSync).Hours() / 24
	return math.Max(minLookbackDays, math.Min(days, maxLookbackDays))
}
