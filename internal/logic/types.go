// Package logic contains the pure interval accounting for the event counter.
// This package has NO external dependencies (no sockets, files, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Reading is one successful sample of the instrument's event counter.
type Reading struct {
	Time  time.Time
	Value float64
}

// State is the aggregator's accounting state. The Aggregator owns the only
// live copy; State() hands out values.
type State struct {
	// Counter value of the most recent accepted reading
	LastValue float64
	// Counter value when the current window opened. Informational only:
	// window events are summed from per-reading deltas so resets inside a
	// window still add up to the cumulative total.
	IntervalStartValue float64
	// CumulativeEvents when the current window opened
	IntervalStartCumulative float64
	// Wall-clock time when the current window opened
	IntervalStartTime time.Time
	// Events accumulated in the current window so far
	IntervalEvents float64
	// Events accumulated since the seed reading
	CumulativeEvents float64
	// Number of intervals emitted so far
	IntervalIndex int
}

// Cumulative returns the whole-event running total.
func (s State) Cumulative() int64 {
	return countOf(s.CumulativeEvents)
}

// PendingEvents returns the whole events in the current window so far. This
// is what the window would report if it closed now; summed over all windows
// it equals Cumulative.
func (s State) PendingEvents() int64 {
	return countOf(s.CumulativeEvents) - countOf(s.IntervalStartCumulative)
}

// Interval is a finalized window summary. Never mutated after creation.
type Interval struct {
	Index      int
	Start      time.Time
	End        time.Time
	Events     int64
	Rate       float64 // events per second
	Cumulative int64
}

// Duration returns the wall-clock length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Rollover describes an observed counter decrease.
type Rollover struct {
	Time     time.Time
	Previous float64
	Current  float64
}

// Result is what a single reading produced.
type Result struct {
	// Interval is set when the reading closed a window.
	Interval *Interval
	// Rollover is set when the reading was treated as a device-side reset.
	Rollover *Rollover
	// Delta is the event count this reading contributed.
	Delta float64
}
