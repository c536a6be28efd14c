// Package window computes the tuning and replay intervals used by onboarding and preview
package window

import "time"

const (
	// DefaultTuning is the trailing tuning interval used when no bounds are supplied
	DefaultTuning = 28 * 24 * time.Hour
	// DefaultLookback is how far back a replay starts for a detection that has never run
	DefaultLookback = 30 * 24 * time.Hour
)

// Interval is a closed range of epoch milliseconds
type Interval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Duration of the interval, zero when inverted
func (i Interval) Duration() time.Duration {
	if i.End <= i.Start {
		return 0
	}
	return time.Duration(i.End-i.Start) * time.Millisecond
}

// Tuning returns [start,end] as given, or [now-dflt, now] when both bounds are zero
func Tuning(now time.Time, start, end int64, dflt time.Duration) Interval {
	if start == 0 && end == 0 {
		if dflt <= 0 {
			dflt = DefaultTuning
		}
		n := now.UnixMilli()
		return Interval{Start: n - dflt.Milliseconds(), End: n}
	}
	return Interval{Start: start, End: end}
}

// Replay ends at now and starts at lastTimestamp, or at now-lookback when the
// detection has no watermark yet (lastTimestamp < 0)
func Replay(now time.Time, lastTimestamp int64, lookback time.Duration) Interval {
	n := now.UnixMilli()
	if lastTimestamp >= 0 {
		return Interval{Start: lastTimestamp, End: n}
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return Interval{Start: n - lookback.Milliseconds(), End: n}
}
