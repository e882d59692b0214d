// Package scpi provides a single-connection text command link to a lab
// instrument, with an abstraction for testing.
package scpi

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// DefaultPort is the raw-socket SCPI port used by Rigol-class instruments.
const DefaultPort = 5555

// ReadBufferSize bounds a single response read.
const ReadBufferSize = 4096

// DrainWindow is how long a query waits for stale input before sending.
const DrainWindow = 5 * time.Millisecond

// Commands the logger depends on.
const (
	CmdIdentify     = "*IDN?"
	CmdCounterValue = ":MEASure:COUNTer:VALue?"
)

var (
	// ErrConnection is returned when the socket cannot be opened.
	ErrConnection = errors.New("scpi: connection failed")
	// ErrQueryTimeout is returned when the instrument does not answer in time.
	ErrQueryTimeout = errors.New("scpi: query timeout")
	// ErrQuery is returned for any other write/read/decode failure.
	ErrQuery = errors.New("scpi: query failed")
	// ErrNotConnected is returned when querying a closed link.
	ErrNotConnected = errors.New("scpi: not connected")
)

// Querier sends a command and returns the instrument's response.
type Querier interface {
	// Query writes command (newline-terminated) and returns the trimmed
	// response from one bounded read. No retries.
	Query(command string) (string, error)

	// Close releases the connection. Safe to call more than once.
	Close() error
}

// Address joins host with DefaultPort unless host already carries a port.
func Address(host string, port int) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
