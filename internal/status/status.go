// Package status provides a thread-safe status tracker for the counter-logger
// daemon. It is read by the HTTP handlers and used for MQTT lifecycle payloads.
package status

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/counter-logger/internal/logic"
	"github.com/sweeney/counter-logger/internal/sampler"
)

// Config contains daemon configuration for display.
type Config struct {
	Instrument     string
	SampleMs       int64
	WindowMs       int64
	Output         string
	Broker         string
	HTTPAddr       string
	InstrumentInfo string // *IDN? response
}

// Counters tracks sampling outcomes since startup.
type Counters struct {
	Samples   int
	Failures  int
	Rollovers int
	ByReason  map[sampler.Reason]int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	RunID         string
	Seeded        bool
	Aggregation   logic.State
	LastSample    time.Time
	LastFailure   sampler.Reason
	LastInterval  *logic.Interval
	Counters      Counters
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with a fresh run ID.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			RunID:     uuid.NewString(),
			StartTime: startTime,
			Config:    cfg,
			Counters:  Counters{ByReason: map[sampler.Reason]int{}},
		},
		now: time.Now,
	}
}

// RunID returns the identifier of this logging run.
func (t *Tracker) RunID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.RunID
}

// SetIdentity records the instrument's identification string.
func (t *Tracker) SetIdentity(idn string) {
	t.mu.Lock()
	t.snap.Config.InstrumentInfo = idn
	t.mu.Unlock()
}

// RecordSample stores the aggregation state after a successful sample.
func (t *Tracker) RecordSample(at time.Time, state logic.State, rollover bool) {
	t.mu.Lock()
	t.snap.Seeded = true
	t.snap.Aggregation = state
	t.snap.LastSample = at
	t.snap.LastFailure = ""
	t.snap.Counters.Samples++
	if rollover {
		t.snap.Counters.Rollovers++
	}
	t.mu.Unlock()
}

// RecordFailure counts a skipped sample.
func (t *Tracker) RecordFailure(reason sampler.Reason) {
	t.mu.Lock()
	t.snap.LastFailure = reason
	t.snap.Counters.Failures++
	t.snap.Counters.ByReason[reason]++
	t.mu.Unlock()
}

// RecordInterval stores the most recently finalized interval.
func (t *Tracker) RecordInterval(iv logic.Interval) {
	t.mu.Lock()
	t.snap.LastInterval = &iv
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Counters.ByReason = make(map[sampler.Reason]int, len(t.snap.Counters.ByReason))
	for k, v := range t.snap.Counters.ByReason {
		s.Counters.ByReason[k] = v
	}
	if t.snap.LastInterval != nil {
		iv := *t.snap.LastInterval
		s.LastInterval = &iv
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
