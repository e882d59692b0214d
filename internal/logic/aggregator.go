package logic

import (
	"math"
	"time"
)

// Aggregator turns successive counter readings into fixed-length intervals.
type Aggregator struct {
	window    time.Duration
	state     State
	finalized bool
}

// NewAggregator creates an aggregator seeded from the first successful reading.
// The seed opens the first window and contributes no events.
func NewAggregator(window time.Duration, seed Reading) *Aggregator {
	return &Aggregator{
		window: window,
		state: State{
			LastValue:          seed.Value,
			IntervalStartValue: seed.Value,
			IntervalStartTime:  seed.Time,
		},
	}
}

// Process accounts for a new reading and closes the current window once at
// least the configured window length has elapsed since it opened.
// Readings after Finalize are ignored.
func (a *Aggregator) Process(r Reading) Result {
	if a.finalized {
		return Result{}
	}

	var res Result
	delta := r.Value - a.state.LastValue
	if delta < 0 {
		// Counter went backwards: assume the device reset and count the new
		// raw value as this sample's contribution.
		res.Rollover = &Rollover{
			Time:     r.Time,
			Previous: a.state.LastValue,
			Current:  r.Value,
		}
		delta = r.Value
	}
	res.Delta = delta

	a.state.CumulativeEvents += delta
	a.state.IntervalEvents += delta
	a.state.LastValue = r.Value

	elapsed := r.Time.Sub(a.state.IntervalStartTime)
	if elapsed < a.window {
		return res
	}

	iv := a.emit(r.Time)
	res.Interval = &iv

	a.state.IntervalStartTime = r.Time
	a.state.IntervalStartValue = r.Value
	a.state.IntervalStartCumulative = a.state.CumulativeEvents
	a.state.IntervalEvents = 0
	return res
}

// Finalize closes the trailing partial window. It returns an interval only
// if the partial window saw at least one whole event, and only on the first
// call.
func (a *Aggregator) Finalize(now time.Time) *Interval {
	if a.finalized {
		return nil
	}
	a.finalized = true

	if a.state.PendingEvents() <= 0 {
		return nil
	}
	iv := a.emit(now)
	a.state.IntervalStartCumulative = a.state.CumulativeEvents
	a.state.IntervalEvents = 0
	return &iv
}

// emit builds the interval for the current window ending at end and advances
// the index. Events are the difference of the rounded running totals, so
// fractional remainders carry into the next window.
func (a *Aggregator) emit(end time.Time) Interval {
	a.state.IntervalIndex++
	events := a.state.PendingEvents()
	return Interval{
		Index:      a.state.IntervalIndex,
		Start:      a.state.IntervalStartTime,
		End:        end,
		Events:     events,
		Rate:       rate(float64(events), end.Sub(a.state.IntervalStartTime)),
		Cumulative: a.state.Cumulative(),
	}
}

// State returns a copy of the current accounting state.
func (a *Aggregator) State() State {
	return a.state
}

// Finalized reports whether Finalize has been called.
func (a *Aggregator) Finalized() bool {
	return a.finalized
}

// Window returns the configured window length.
func (a *Aggregator) Window() time.Duration {
	return a.window
}

func rate(events float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return events / elapsed.Seconds()
}

func countOf(v float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(math.Round(v))
}
