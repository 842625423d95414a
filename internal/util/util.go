package util

import "time"

// SkipThrottler passes at most one call per duration, and counts the calls it skips in between.
type SkipThrottler struct {
	d       time.Duration
	last    time.Time
	skipped int
}

func NewSkipThrottler(d time.Duration) *SkipThrottler {
	return &SkipThrottler{d: d}
}

// Ok reports whether the call passes, together with the number of calls skipped since the last one that did.
func (tt *SkipThrottler) Ok() (int, bool) {
	return tt.ok(time.Now())
}

func (tt *SkipThrottler) ok(now time.Time) (int, bool) {
	if !tt.last.IsZero() && now.Sub(tt.last) < tt.d {
		tt.skipped++
		return 0, false
	}

	skipped := tt.skipped
	tt.last, tt.skipped = now, 0
	return skipped, true
}
