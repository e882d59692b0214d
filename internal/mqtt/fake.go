package mqtt

import (
	"github.com/sweeney/counter-logger/internal/logic"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// RunID is embedded in interval payloads.
	RunID string

	// Intervals contains all intervals that were published.
	Intervals []logic.Interval

	// Payloads contains the JSON payloads for intervals.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishInterval.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishInterval records the interval.
func (f *FakePublisher) PublishInterval(iv logic.Interval) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(f.RunID, iv)
	if err != nil {
		return err
	}
	f.Intervals = append(f.Intervals, iv)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishInterval(logic.Interval) error { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error      { return nil }
func (NopPublisher) Close() error                         { return nil }
func (NopPublisher) IsConnected() bool                    { return false }
