package scpi

import "errors"

// FakeLink is a test double that returns scripted responses.
type FakeLink struct {
	// Responses contains scripted replies for the counter query.
	// Each call to Query consumes the next one.
	Responses []Response

	// Identity is returned for CmdIdentify without consuming a response.
	Identity string

	// Commands records every command sent, in order.
	Commands []string

	// index tracks current position in Responses
	index int

	// Closed tracks if Close was called
	Closed bool

	// CloseCount counts Close calls
	CloseCount int
}

// Response is one scripted reply: either text or an error.
type Response struct {
	Text string
	Err  error
}

// NewFakeLink creates a FakeLink with the given responses.
func NewFakeLink(responses []Response) *FakeLink {
	return &FakeLink{Responses: responses}
}

// Values builds successful responses from raw counter strings.
func Values(texts ...string) []Response {
	out := make([]Response, len(texts))
	for i, s := range texts {
		out[i] = Response{Text: s}
	}
	return out
}

// Query returns the next scripted response.
// If responses are exhausted, returns the last response repeatedly.
func (f *FakeLink) Query(command string) (string, error) {
	f.Commands = append(f.Commands, command)

	if f.Closed {
		return "", ErrNotConnected
	}
	if command == CmdIdentify {
		return f.Identity, nil
	}
	if len(f.Responses) == 0 {
		return "", errors.New("no responses configured")
	}

	r := f.Responses[f.index]
	if f.index < len(f.Responses)-1 {
		f.index++
	}
	return r.Text, r.Err
}

// Close marks the link as closed.
func (f *FakeLink) Close() error {
	f.Closed = true
	f.CloseCount++
	return nil
}

// Reset rewinds the link to the first response.
func (f *FakeLink) Reset() {
	f.index = 0
	f.Closed = false
	f.Commands = nil
}
