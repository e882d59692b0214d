// Package mqtt mirrors finalized intervals and lifecycle events to an MQTT
// broker, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/counter-logger/internal/logic"
	"github.com/sweeney/counter-logger/internal/recorder"
)

// TopicIntervals is the MQTT topic for finalized intervals.
const TopicIntervals = "lab/counter/intervals"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "lab/counter/system"

// Publisher publishes intervals and lifecycle events.
// Failures are reported but must never stop the logger.
type Publisher interface {
	// PublishInterval sends a finalized interval.
	PublishInterval(iv logic.Interval) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a lifecycle event (STARTUP, SHUTDOWN).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the interval message envelope.
type Payload struct {
	Interval IntervalPayload `json:"interval"`
}

// IntervalPayload contains one interval. Rate is the same fixed-precision
// string written to the CSV log.
type IntervalPayload struct {
	RunID      string `json:"run_id"`
	Index      int    `json:"index"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Events     int64  `json:"events"`
	Rate       string `json:"rate"`
	Cumulative int64  `json:"cumulative_events"`
}

// FormatPayload creates the JSON payload for an interval.
func FormatPayload(runID string, iv logic.Interval) ([]byte, error) {
	return json.Marshal(Payload{
		Interval: IntervalPayload{
			RunID:      runID,
			Index:      iv.Index,
			Start:      iv.Start.UTC().Format(time.RFC3339),
			End:        iv.End.UTC().Format(time.RFC3339),
			Events:     iv.Events,
			Rate:       recorder.FormatRate(iv.Rate),
			Cumulative: iv.Cumulative,
		},
	})
}

// SystemPayload is used for simple events (LWT) that don't carry a full
// status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
