// Package recorder persists finalized intervals to an append-only CSV log.
package recorder

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/sweeney/counter-logger/internal/logic"
)

// Header is the fixed first row of every log file.
var Header = []string{"Interval", "Start Time", "End Time", "Events", "Rate (events/s)", "Cumulative Events"}

// TimeLayout is the local wall-clock format used for the time columns.
const TimeLayout = "2006-01-02 15:04:05"

// RateDecimals is the fixed number of decimals in the rate column.
const RateDecimals = 3

// Recorder appends intervals to durable storage.
type Recorder interface {
	// Append writes one interval. When it returns nil the row is on stable
	// storage. A non-nil error means data may have been lost and the caller
	// should stop.
	Append(iv logic.Interval) error

	// Close releases the underlying file. Safe to call more than once.
	Close() error
}

// FormatRow renders an interval as a CSV record.
func FormatRow(iv logic.Interval) []string {
	return []string{
		strconv.Itoa(iv.Index),
		iv.Start.Local().Format(TimeLayout),
		iv.End.Local().Format(TimeLayout),
		strconv.FormatInt(iv.Events, 10),
		FormatRate(iv.Rate),
		strconv.FormatInt(iv.Cumulative, 10),
	}
}

// FormatRate renders rate with RateDecimals fixed decimals. Rounding is done
// on the shortest decimal form of rate, half up.
func FormatRate(rate float64) string {
	var d apd.Decimal
	if _, err := d.SetFloat64(rate); err != nil {
		return strconv.FormatFloat(rate, 'f', RateDecimals, 64)
	}

	var q apd.Decimal
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfUp
	if _, err := ctx.Quantize(&q, &d, -RateDecimals); err != nil {
		return strconv.FormatFloat(rate, 'f', RateDecimals, 64)
	}
	return q.Text('f')
}

// ParseTime reads a time column back in the local zone.
func ParseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
