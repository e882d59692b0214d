package gpio

// FakeIndicator records indicator writes for test assertions.
type FakeIndicator struct {
	// On is the current output state.
	On bool

	// Changes records every state actually written, in order.
	Changes []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeIndicator creates a FakeIndicator that starts off.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// Set records a state change. Redundant writes are skipped like the real one.
func (f *FakeIndicator) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	if on == f.On {
		return nil
	}
	f.On = on
	f.Changes = append(f.Changes, on)
	return nil
}

// Close turns the indicator off and marks it closed.
func (f *FakeIndicator) Close() error {
	f.On = false
	f.Closed = true
	return nil
}
