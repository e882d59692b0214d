// Package sampler reads the instrument's event counter and classifies each
// attempt as a value or a typed, non-fatal failure.
package sampler

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sweeney/counter-logger/internal/scpi"
)

// Reason classifies a failed sample.
type Reason string

const (
	ReasonTimeout      Reason = "TIMEOUT"
	ReasonParse        Reason = "PARSE_ERROR"
	ReasonEmpty        Reason = "EMPTY_RESPONSE"
	ReasonDevice       Reason = "DEVICE_ERROR"
	ReasonQuery        Reason = "QUERY_ERROR"
	ReasonNotConnected Reason = "NOT_CONNECTED"
)

// Failure is returned for any sample that did not yield a value.
// The caller skips the sample period and tries again on the next tick.
type Failure struct {
	Reason   Reason
	Response string // raw response, if any
	Err      error  // underlying cause, if any
}

func (f *Failure) Error() string {
	switch {
	case f.Err != nil:
		return fmt.Sprintf("sample %s: %v", f.Reason, f.Err)
	case f.Response != "":
		return fmt.Sprintf("sample %s: %q", f.Reason, f.Response)
	}
	return fmt.Sprintf("sample %s", f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Sampler issues counter queries over a link.
type Sampler struct {
	link scpi.Querier
}

// New creates a Sampler using link.
func New(link scpi.Querier) *Sampler {
	return &Sampler{link: link}
}

// Sample queries the counter and parses the first comma-delimited field.
// Any error returned is a *Failure.
func (s *Sampler) Sample() (float64, error) {
	resp, err := s.link.Query(scpi.CmdCounterValue)
	if err != nil {
		return 0, &Failure{Reason: reasonFor(err), Err: err}
	}
	return Parse(resp)
}

// Identify returns the instrument's identification string.
func (s *Sampler) Identify() (string, error) {
	resp, err := s.link.Query(scpi.CmdIdentify)
	if err != nil {
		return "", &Failure{Reason: reasonFor(err), Err: err}
	}
	if resp == "" {
		return "", &Failure{Reason: ReasonEmpty}
	}
	return resp, nil
}

// Parse extracts the counter value from a raw response.
func Parse(resp string) (float64, error) {
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return 0, &Failure{Reason: ReasonEmpty}
	}
	if strings.Contains(strings.ToUpper(resp), "ERROR") {
		return 0, &Failure{Reason: ReasonDevice, Response: resp}
	}

	field, _, _ := strings.Cut(resp, ",")
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, &Failure{Reason: ReasonParse, Response: resp, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Failure{Reason: ReasonParse, Response: resp}
	}
	return v, nil
}

func reasonFor(err error) Reason {
	switch {
	case errors.Is(err, scpi.ErrQueryTimeout):
		return ReasonTimeout
	case errors.Is(err, scpi.ErrNotConnected):
		return ReasonNotConnected
	}
	return ReasonQuery
}

// ReasonOf returns the failure reason carried by err, or "" if err is not a
// sampling failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}
