package recorder

import "github.com/sweeney/counter-logger/internal/logic"

// FakeRecorder records appended intervals for test assertions.
type FakeRecorder struct {
	// Intervals contains every interval appended, in order.
	Intervals []logic.Interval

	// AppendError, if set, will be returned by Append.
	AppendError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeRecorder creates a FakeRecorder for testing.
func NewFakeRecorder() *FakeRecorder {
	return &FakeRecorder{}
}

// Append records the interval.
func (f *FakeRecorder) Append(iv logic.Interval) error {
	if f.AppendError != nil {
		return f.AppendError
	}
	f.Intervals = append(f.Intervals, iv)
	return nil
}

// Close marks the recorder as closed.
func (f *FakeRecorder) Close() error {
	f.Closed = true
	return nil
}
