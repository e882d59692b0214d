package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/counter-logger/internal/recorder"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	RunID         string        `json:"run_id"`
	Ready         bool          `json:"ready"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	Counter       CounterJSON   `json:"counter"`
	LastInterval  *IntervalJSON `json:"last_interval,omitempty"`
	Samples       SamplesJSON   `json:"samples"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Config        ConfigJSON    `json:"config"`
}

// CounterJSON is the live aggregation state.
type CounterJSON struct {
	LastValue        float64 `json:"last_value"`
	LastSample       string  `json:"last_sample,omitempty"`
	IntervalIndex    int     `json:"interval_index"`
	IntervalStart    string  `json:"interval_start,omitempty"`
	IntervalEvents   int64   `json:"interval_events"`
	CumulativeEvents int64   `json:"cumulative_events"`
}

// IntervalJSON is the most recently finalized interval.
type IntervalJSON struct {
	Index      int    `json:"index"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Events     int64  `json:"events"`
	Rate       string `json:"rate"`
	Cumulative int64  `json:"cumulative_events"`
}

// SamplesJSON reports sampling outcomes.
type SamplesJSON struct {
	OK          int            `json:"ok"`
	Failed      int            `json:"failed"`
	Rollovers   int            `json:"rollovers"`
	LastFailure string         `json:"last_failure,omitempty"`
	ByReason    map[string]int `json:"failures_by_reason,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Instrument     string `json:"instrument"`
	InstrumentInfo string `json:"instrument_info,omitempty"`
	SampleMs       int64  `json:"sample_ms"`
	WindowMs       int64  `json:"window_ms"`
	Output         string `json:"output"`
	HTTPAddr       string `json:"http_addr"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func buildInner(snap Snapshot) StatusInner {
	agg := snap.Aggregation
	inner := StatusInner{
		RunID:         snap.RunID,
		Ready:         snap.Seeded,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     formatTime(snap.StartTime),
		Timestamp:     formatTime(snap.Now),
		Counter: CounterJSON{
			LastValue:        agg.LastValue,
			LastSample:       formatTime(snap.LastSample),
			IntervalIndex:    agg.IntervalIndex,
			IntervalStart:    formatTime(agg.IntervalStartTime),
			IntervalEvents:   agg.PendingEvents(),
			CumulativeEvents: agg.Cumulative(),
		},
		Samples: SamplesJSON{
			OK:          snap.Counters.Samples,
			Failed:      snap.Counters.Failures,
			Rollovers:   snap.Counters.Rollovers,
			LastFailure: string(snap.LastFailure),
		},
		MQTT: MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Instrument:     snap.Config.Instrument,
			InstrumentInfo: snap.Config.InstrumentInfo,
			SampleMs:       snap.Config.SampleMs,
			WindowMs:       snap.Config.WindowMs,
			Output:         snap.Config.Output,
			HTTPAddr:       snap.Config.HTTPAddr,
		},
	}

	if len(snap.Counters.ByReason) > 0 {
		inner.Samples.ByReason = make(map[string]int, len(snap.Counters.ByReason))
		for k, v := range snap.Counters.ByReason {
			inner.Samples.ByReason[string(k)] = v
		}
	}

	if iv := snap.LastInterval; iv != nil {
		inner.LastInterval = &IntervalJSON{
			Index:      iv.Index,
			Start:      formatTime(iv.Start),
			End:        formatTime(iv.End),
			Events:     iv.Events,
			Rate:       recorder.FormatRate(iv.Rate),
			Cumulative: iv.Cumulative,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
