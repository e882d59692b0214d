package main

import (
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/counter-logger/internal/gpio"
	"github.com/sweeney/counter-logger/internal/logic"
	"github.com/sweeney/counter-logger/internal/mqtt"
	"github.com/sweeney/counter-logger/internal/recorder"
	"github.com/sweeney/counter-logger/internal/sampler"
	"github.com/sweeney/counter-logger/internal/status"
)

// counterSampler is satisfied by *sampler.Sampler.
type counterSampler interface {
	Sample() (float64, error)
}

// supervisor owns the sampling loop. Everything it touches is used from a
// single goroutine; only the tracker is shared with the HTTP server.
type supervisor struct {
	sampler    counterSampler
	agg        *logic.Aggregator
	rec        recorder.Recorder
	pub        mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	led        gpio.Indicator
	tracker    *status.Tracker
	now        func() time.Time
	stopped    bool
}

func newSupervisor(smp counterSampler, seed logic.Reading, window time.Duration, rec recorder.Recorder, pub mqtt.Publisher, tracker *status.Tracker, led gpio.Indicator, now func() time.Time) *supervisor {
	s := &supervisor{
		sampler: smp,
		agg:     logic.NewAggregator(window, seed),
		rec:     rec,
		pub:     pub,
		led:     led,
		tracker: tracker,
		now:     now,
	}
	tracker.RecordSample(seed.Time, s.agg.State(), false)
	return s
}

// run samples on every tick until the first signal, then shuts down once.
// A recorder failure ends the loop with an error.
func (s *supervisor) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case sg := <-sig:
			log.Printf("received %v, shutting down", sg)
			return s.shutdown(signalName(sg))

		case <-tick:
			if err := s.step(); err != nil {
				s.publishSystem("SHUTDOWN", "RECORD_ERROR")
				return err
			}
		}
	}
}

// step takes one sample. Sampling failures skip the tick.
func (s *supervisor) step() error {
	t := s.now()
	v, err := s.sampler.Sample()

	if s.mqttStatus != nil {
		s.tracker.SetMQTTConnected(s.mqttStatus.IsConnected())
	}

	if err != nil {
		log.Printf("skipped sample: %v", err)
		s.tracker.RecordFailure(sampler.ReasonOf(err))
		s.setLED(false)
		return nil
	}
	s.setLED(true)
	return s.accept(logic.Reading{Time: t, Value: v})
}

func (s *supervisor) accept(r logic.Reading) error {
	res := s.agg.Process(r)
	if rv := res.Rollover; rv != nil {
		log.Printf("warning: counter reset (was %v, now %v)", rv.Previous, rv.Current)
	}
	s.tracker.RecordSample(r.Time, s.agg.State(), res.Rollover != nil)

	if res.Interval != nil {
		return s.record(*res.Interval)
	}
	return nil
}

// record persists iv, then mirrors it. Only the CSV write can fail the loop.
func (s *supervisor) record(iv logic.Interval) error {
	if err := s.rec.Append(iv); err != nil {
		return fmt.Errorf("record interval %d: %w", iv.Index, err)
	}
	s.tracker.RecordInterval(iv)

	log.Printf("interval %3d | %s -> %s | events: %6d | rate: %6.2f/s | total: %8d",
		iv.Index,
		iv.Start.Local().Format(recorder.TimeLayout),
		iv.End.Local().Format(recorder.TimeLayout),
		iv.Events, iv.Rate, iv.Cumulative)

	if err := s.pub.PublishInterval(iv); err != nil {
		log.Printf("publish error: %v", err)
	}
	return nil
}

// shutdown takes a last sample, writes the trailing partial interval and
// reports totals. Calls after the first do nothing.
func (s *supervisor) shutdown(reason string) error {
	if s.stopped {
		return nil
	}
	s.stopped = true

	t := s.now()
	var err error
	if v, serr := s.sampler.Sample(); serr != nil {
		log.Printf("final sample skipped: %v", serr)
	} else {
		err = s.accept(logic.Reading{Time: t, Value: v})
	}

	if err == nil {
		if iv := s.agg.Finalize(t); iv != nil {
			if err = s.record(*iv); err == nil {
				log.Printf("saved final partial interval: %d events", iv.Events)
			}
		}
	}
	s.setLED(false)

	st := s.agg.State()
	total := st.Cumulative()
	log.Printf("total intervals logged: %d", st.IntervalIndex)
	log.Printf("total events recorded: %d", total)
	if st.IntervalIndex > 0 {
		log.Printf("average events/interval: %.2f", float64(total)/float64(st.IntervalIndex))
	}

	if err != nil {
		reason = "RECORD_ERROR"
	}
	s.publishSystem("SHUTDOWN", reason)
	return err
}

func (s *supervisor) publishSystem(event, reason string) {
	if s.mqttStatus != nil {
		s.tracker.SetMQTTConnected(s.mqttStatus.IsConnected())
	}
	snap := s.tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  s.now(),
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := s.pub.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	}
}

func (s *supervisor) setLED(on bool) {
	if err := s.led.Set(on); err != nil {
		log.Printf("led: %v", err)
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
