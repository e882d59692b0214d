package scpi

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode/utf8"
)

// Link is a TCP connection to an instrument.
type Link struct {
	addr    string
	timeout time.Duration
	conn    net.Conn
	buf     []byte
}

// Dial opens a single TCP connection to addr, failing with ErrConnection if
// the socket cannot be opened within timeout. The same timeout bounds every
// query's write and read.
func Dial(addr string, timeout time.Duration) (*Link, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnection, addr, err)
	}
	return &Link{
		addr:    addr,
		timeout: timeout,
		conn:    conn,
		buf:     make([]byte, ReadBufferSize),
	}, nil
}

// Addr returns the address the link was dialed with.
func (l *Link) Addr() string {
	return l.addr
}

// Query sends command and reads a single response. Input left over from an
// earlier timed-out query is discarded before sending, and if a late reply
// still shares the read with the fresh one, only the last line is returned.
func (l *Link) Query(command string) (string, error) {
	if l.conn == nil {
		return "", ErrNotConnected
	}
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}

	if err := l.drain(); err != nil {
		return "", err
	}

	var deadline time.Time
	if l.timeout > 0 {
		deadline = time.Now().Add(l.timeout)
	}
	if err := l.conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("%w: set deadline: %v", ErrQuery, err)
	}

	if _, err := l.conn.Write([]byte(command)); err != nil {
		return "", classify("write", err)
	}

	n, err := l.conn.Read(l.buf)
	if err != nil {
		return "", classify("read", err)
	}

	raw := l.buf[:n]
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: response is not valid UTF-8", ErrQuery)
	}
	return lastLine(string(raw)), nil
}

// drain discards whatever is already waiting on the socket.
func (l *Link) drain() error {
	for {
		if err := l.conn.SetReadDeadline(time.Now().Add(DrainWindow)); err != nil {
			return fmt.Errorf("%w: set deadline: %v", ErrQuery, err)
		}
		n, err := l.conn.Read(l.buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil
			}
			return classify("drain", err)
		}
		if n == 0 {
			return nil
		}
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}
	return s
}

// Close releases the socket. Subsequent queries fail with ErrNotConnected.
func (l *Link) Close() error {
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", l.addr, err)
	}
	return nil
}

func classify(op string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrQueryTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrQuery, op, err)
}
