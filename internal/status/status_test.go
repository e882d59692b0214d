package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/counter-logger/internal/logic"
	"github.com/sweeney/counter-logger/internal/sampler"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Instrument: "172.29.9.197:5555", SampleMs: 1000, WindowMs: 60000, Output: "events_log.csv"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.WindowMs != 60000 {
		t.Errorf("Config.WindowMs: got %d, want 60000", snap.Config.WindowMs)
	}
	if snap.Seeded {
		t.Error("expected Seeded=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if _, err := uuid.Parse(snap.RunID); err != nil {
		t.Errorf("RunID should be a UUID, got %q: %v", snap.RunID, err)
	}
	if tr.RunID() != snap.RunID {
		t.Errorf("RunID(): got %q, want %q", tr.RunID(), snap.RunID)
	}
}

func TestRunIDsDiffer(t *testing.T) {
	a := NewTracker(time.Now(), Config{})
	b := NewTracker(time.Now(), Config{})
	if a.RunID() == b.RunID() {
		t.Error("expected distinct run IDs")
	}
}

func TestRecordSample(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)

	tr.RecordFailure(sampler.ReasonTimeout)
	tr.RecordSample(at, logic.State{LastValue: 42, CumulativeEvents: 12, IntervalIndex: 3}, false)
	tr.RecordSample(at, logic.State{LastValue: 5, CumulativeEvents: 17, IntervalIndex: 3}, true)

	snap := tr.Snapshot()
	if !snap.Seeded {
		t.Error("expected Seeded=true")
	}
	if snap.Aggregation.LastValue != 5 || snap.Aggregation.CumulativeEvents != 17 {
		t.Errorf("Aggregation: got %+v", snap.Aggregation)
	}
	if snap.Counters.Samples != 2 {
		t.Errorf("Samples: got %d, want 2", snap.Counters.Samples)
	}
	if snap.Counters.Rollovers != 1 {
		t.Errorf("Rollovers: got %d, want 1", snap.Counters.Rollovers)
	}
	if snap.LastFailure != "" {
		t.Errorf("LastFailure should clear after a good sample, got %q", snap.LastFailure)
	}
	if !snap.LastSample.Equal(at) {
		t.Errorf("LastSample: got %v", snap.LastSample)
	}
}

func TestRecordFailure(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.RecordFailure(sampler.ReasonTimeout)
	tr.RecordFailure(sampler.ReasonTimeout)
	tr.RecordFailure(sampler.ReasonParse)

	snap := tr.Snapshot()
	if snap.Counters.Failures != 3 {
		t.Errorf("Failures: got %d, want 3", snap.Counters.Failures)
	}
	if snap.Counters.ByReason[sampler.ReasonTimeout] != 2 {
		t.Errorf("ByReason[TIMEOUT]: got %d", snap.Counters.ByReason[sampler.ReasonTimeout])
	}
	if snap.LastFailure != sampler.ReasonParse {
		t.Errorf("LastFailure: got %q", snap.LastFailure)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.RecordFailure(sampler.ReasonEmpty)
	tr.RecordInterval(logic.Interval{Index: 1, Events: 10})

	snap := tr.Snapshot()
	snap.Counters.ByReason[sampler.ReasonEmpty] = 99
	snap.LastInterval.Events = 99

	again := tr.Snapshot()
	if again.Counters.ByReason[sampler.ReasonEmpty] != 1 {
		t.Error("mutating a snapshot map leaked into the tracker")
	}
	if again.LastInterval.Events != 10 {
		t.Error("mutating a snapshot interval leaked into the tracker")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetIdentity(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetIdentity("RIGOL TECHNOLOGIES,DHO924")

	if got := tr.Snapshot().Config.InstrumentInfo; got != "RIGOL TECHNOLOGIES,DHO924" {
		t.Errorf("InstrumentInfo: got %q", got)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Now().Add(-5 * time.Second)
	tr := NewTracker(start, Config{})

	up := tr.Snapshot().Uptime()
	if up < 5*time.Second || up > 10*time.Second {
		t.Errorf("Uptime: got %v, expected ~5s", up)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			tr.RecordSample(time.Now(), logic.State{LastValue: float64(n)}, n%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			tr.RecordFailure(sampler.ReasonQuery)
		}()
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap.Counters.Samples != 10 || snap.Counters.Failures != 10 {
		t.Errorf("expected 10 samples and 10 failures, got %d and %d", snap.Counters.Samples, snap.Counters.Failures)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{Instrument: "scope:5555", SampleMs: 1000, WindowMs: 60000, Broker: "tcp://b:1883"})
	tr.now = func() time.Time { return start.Add(90 * time.Second) }

	tr.RecordSample(start.Add(89*time.Second), logic.State{
		LastValue:               120,
		IntervalStartTime:       start.Add(60 * time.Second),
		IntervalStartCumulative: 112,
		IntervalEvents:          8,
		CumulativeEvents:        120,
		IntervalIndex:           1,
	}, false)
	tr.RecordFailure(sampler.ReasonTimeout)
	tr.RecordInterval(logic.Interval{
		Index: 1, Start: start, End: start.Add(60 * time.Second),
		Events: 112, Rate: 112.0 / 60.0, Cumulative: 112,
	})

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := sj.Status

	if !s.Ready {
		t.Error("expected ready=true")
	}
	if s.UptimeSeconds != 90 {
		t.Errorf("uptime: got %d, want 90", s.UptimeSeconds)
	}
	if s.Counter.CumulativeEvents != 120 || s.Counter.IntervalEvents != 8 {
		t.Errorf("counter: got %+v", s.Counter)
	}
	if s.Counter.IntervalStart != "2026-01-01T00:01:00Z" {
		t.Errorf("interval_start: got %q", s.Counter.IntervalStart)
	}
	if s.LastInterval == nil || s.LastInterval.Rate != "1.867" {
		t.Errorf("last_interval: got %+v", s.LastInterval)
	}
	if s.Samples.OK != 1 || s.Samples.Failed != 1 || s.Samples.ByReason["TIMEOUT"] != 1 {
		t.Errorf("samples: got %+v", s.Samples)
	}
	if s.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("mqtt broker: got %q", s.MQTT.Broker)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web JSON should not carry event/reason, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGINT"), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGINT" {
		t.Errorf("event/reason: got %q/%q", sj.Status.Event, sj.Status.Reason)
	}
	if sj.Status.Ready {
		t.Error("expected ready=false before any sample")
	}
	if sj.Status.LastInterval != nil {
		t.Error("expected no last_interval before any interval")
	}
	if sj.Status.Counter.LastSample != "" {
		t.Errorf("expected empty last_sample, got %q", sj.Status.Counter.LastSample)
	}
}
