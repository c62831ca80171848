// Package mcu talks to a board running the softpwm console over serial.
package mcu

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"softpwm/host/serial"
)

var (
	ErrNotConnected = errors.New("not connected to MCU")
	ErrTimeout      = errors.New("timed out waiting for reply")
	ErrClosed       = errors.New("connection closed")
)

// RemoteError is an "error:" reply from the board
type RemoteError struct {
	Command string
	Reason  string
}

func (e *RemoteError) Error() string {
	return e.Command + ": " + e.Reason
}

// MCU represents a connection to a softpwm board
type MCU struct {
	port  serial.Port
	lines chan string

	mu        sync.Mutex // Serializes Exec
	connected bool
	stale     int   // Replies still owed to commands that timed out
	readErr   error // Set by the reader before lines closes
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{}
}

// Connect opens device and starts reading replies
func (m *MCU) Connect(device string, baud int) error {
	cfg := serial.DefaultConfig(device)
	if baud != 0 {
		cfg.Baud = baud
	}
	// The reader goroutine blocks instead of polling
	cfg.ReadTimeout = 0

	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	m.Attach(port)

	// Give a freshly enumerated board time to start its console
	time.Sleep(100 * time.Millisecond)
	return nil
}

// Attach uses an already open port
func (m *MCU) Attach(port serial.Port) {
	m.port = port
	m.lines = make(chan string, 64)
	m.connected = true
	go m.readLoop(port, m.lines)
}

func (m *MCU) readLoop(port serial.Port, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		lines <- strings.TrimRight(scanner.Text(), "\r")
	}
	// Published to Exec by the close of lines
	m.readErr = scanner.Err()
}

// Exec sends one command line and returns the reply body. An "error:"
// reply is returned as a *RemoteError.
//
// A command that times out still owes a reply; the next Exec discards it
// before sending, within its own timeout.
func (m *MCU) Exec(line string, timeout time.Duration) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil, ErrNotConnected
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for m.stale > 0 {
		for {
			reply, err := m.next(deadline.C)
			if err != nil {
				return nil, err
			}
			if isTerminator(reply) {
				break
			}
		}
		m.stale--
	}

	if _, err := m.port.Write([]byte(line + "\n")); err != nil {
		return nil, fmt.Errorf("send %q: %w", line, err)
	}

	var body []string
	for {
		reply, err := m.next(deadline.C)
		if errors.Is(err, ErrTimeout) {
			m.stale++
		}
		if err != nil {
			return body, err
		}
		if reply == "ok" {
			return body, nil
		}
		if reason, isErr := strings.CutPrefix(reply, "error: "); isErr {
			return body, &RemoteError{Command: line, Reason: reason}
		}
		body = append(body, reply)
	}
}

// next returns the next reply line. Caller holds mu.
func (m *MCU) next(deadline <-chan time.Time) (string, error) {
	select {
	case reply, ok := <-m.lines:
		if !ok {
			m.connected = false
			if m.readErr != nil {
				return "", fmt.Errorf("%w: %v", ErrClosed, m.readErr)
			}
			return "", ErrClosed
		}
		return reply, nil
	case <-deadline:
		return "", ErrTimeout
	}
}

// isTerminator reports whether reply ends a command reply
func isTerminator(reply string) bool {
	return reply == "ok" || strings.HasPrefix(reply, "error: ")
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.port == nil {
		return nil
	}
	m.connected = false
	err := m.port.Close()
	m.port = nil
	return err
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}
