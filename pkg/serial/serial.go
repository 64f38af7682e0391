// Package serial provides serial port enumeration and session transport
package serial

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// BaudRates is the fixed ordered set of selectable baud rates
var BaudRates = []int{9600, 19200, 38400, 57600, 115200, 230400}

// DefaultBaudIndex points at 115200 in BaudRates
const DefaultBaudIndex = 4

// readChunkSize is the size of the buffer handed to each transport read
const readChunkSize = 4096

// readPollInterval bounds how long a transport read may block before the
// reader loop rechecks for shutdown
const readPollInterval = 50 * time.Millisecond

// Config defines the configuration for a serial connection
type Config struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Validate checks if the serial configuration is valid
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	if BaudIndex(c.BaudRate) < 0 {
		return fmt.Errorf("invalid baud rate: %d", c.BaudRate)
	}

	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("data bits must be between 5 and 8, got: %d", c.DataBits)
	}

	if c.StopBits < 1 || c.StopBits > 2 {
		return fmt.Errorf("stop bits must be 1 or 2, got: %d", c.StopBits)
	}

	validParity := []string{"none", "odd", "even", "mark", "space"}
	validParityFound := false
	for _, p := range validParity {
		if c.Parity == p {
			validParityFound = true
			break
		}
	}
	if !validParityFound {
		return fmt.Errorf("invalid parity: %s", c.Parity)
	}

	return nil
}

// DefaultConfig returns a default serial configuration with no port selected
func DefaultConfig() Config {
	return Config{
		BaudRate: BaudRates[DefaultBaudIndex],
		DataBits: 8,
		StopBits: 1,
		Parity:   "none",
	}
}

// BaudIndex returns the index of rate in BaudRates, or -1 if it is not a
// member of the fixed set
func BaudIndex(rate int) int {
	for i, r := range BaudRates {
		if r == rate {
			return i
		}
	}
	return -1
}

// CycleBaud returns the baud index shifted by delta with wrap-around
func CycleBaud(index, delta int) int {
	n := len(BaudRates)
	return ((index+delta)%n + n) % n
}

// PortInfo contains information about an enumerated serial port
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// Description returns the human-readable USB metadata for the port, or an
// empty string when none is available
func (p PortInfo) Description() string {
	if !p.IsUSB {
		return ""
	}
	parts := make([]string, 0, 3)
	if p.Product != "" {
		parts = append(parts, p.Product)
	}
	if p.VID != "" || p.PID != "" {
		parts = append(parts, fmt.Sprintf("%s:%s", p.VID, p.PID))
	}
	if p.SerialNumber != "" {
		parts = append(parts, p.SerialNumber)
	}
	return strings.Join(parts, " ")
}

// Catalog enumerates available serial ports on demand
type Catalog interface {
	Refresh() ([]PortInfo, error)
}

// systemCatalog implements Catalog using go.bug.st/serial's enumerator
type systemCatalog struct{}

// NewCatalog returns a Catalog backed by the operating system's port list
func NewCatalog() Catalog {
	return systemCatalog{}
}

// Refresh re-queries the operating system for available ports
func (systemCatalog) Refresh() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		// Fall back to the plain port list; some platforms lack
		// detailed enumeration support
		names, listErr := serial.GetPortsList()
		if listErr != nil {
			return nil, fmt.Errorf("failed to enumerate ports: %w", err)
		}
		infos := make([]PortInfo, 0, len(names))
		for _, name := range names {
			infos = append(infos, PortInfo{Name: name})
		}
		return infos, nil
	}

	infos := make([]PortInfo, 0, len(details))
	for _, d := range details {
		infos = append(infos, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
		})
	}
	return infos, nil
}

// ListPorts returns the names of available serial ports on the system
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// EventKind discriminates events emitted by a session's reader loop
type EventKind int

const (
	EventData EventKind = iota
	EventError
	EventClosed
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventData:
		return "data"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is delivered on a session's event channel. Data events carry the
// received bytes; error events carry the transport failure that ended the
// reader loop.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}

// Session owns at most one open serial connection. Open, Write and Close
// are called only from the event loop; received bytes are delivered as
// Events on the channel returned by Events and are never applied to shared
// state from the reader goroutine.
type Session interface {
	Open(cfg Config) error
	Write(data []byte) (int, error)
	Close() error
	IsOpen() bool
	Config() Config
	Events() <-chan Event
}

// portSession implements Session using go.bug.st/serial
type portSession struct {
	mu     sync.Mutex
	port   serial.Port
	config Config
	isOpen bool
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewSession creates a new, unopened session
func NewSession() Session {
	return &portSession{}
}

// Open opens the serial port described by cfg and starts the reader loop
func (s *portSession) Open(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isOpen {
		return NewSerialError("open", cfg.Port, fmt.Errorf("session is already open"))
	}

	if err := cfg.Validate(); err != nil {
		return NewSerialError("open", cfg.Port, err)
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: convertStopBits(cfg.StopBits),
		Parity:   convertParity(cfg.Parity),
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return NewSerialError("open", cfg.Port, err)
	}

	// A bounded read timeout keeps the reader loop responsive to Close
	if err := port.SetReadTimeout(readPollInterval); err != nil {
		port.Close()
		return NewSerialError("open", cfg.Port, err)
	}

	s.port = port
	s.config = cfg
	s.isOpen = true
	s.events = make(chan Event, 64)
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.readLoop(port, s.events, s.done)

	return nil
}

// readLoop reads from the transport until an error or shutdown. It only
// ever sends events; session state mutation stays with the event loop.
func (s *portSession) readLoop(port serial.Port, events chan<- Event, done <-chan struct{}) {
	defer s.wg.Done()
	defer close(events)

	// Close holds the session lock while waiting for this goroutine, so
	// the final event send must never block.
	closed := func() {
		select {
		case events <- Event{Kind: EventClosed}:
		default:
		}
	}

	buf := make([]byte, readChunkSize)
	for {
		select {
		case <-done:
			closed()
			return
		default:
		}

		n, err := port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case events <- Event{Kind: EventData, Data: chunk}:
			case <-done:
				closed()
				return
			}
		}
		if err != nil {
			select {
			case <-done:
				// Close tore down the port; not a transport fault
				closed()
			default:
				select {
				case events <- Event{Kind: EventError, Err: err}:
				case <-done:
					closed()
				}
			}
			return
		}
	}
}

// Write writes data to the open connection
func (s *portSession) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return 0, NewSerialError("write", s.config.Port, fmt.Errorf("session is not open"))
	}

	n, err := s.port.Write(data)
	if err != nil {
		return n, NewSerialError("write", s.config.Port, err)
	}
	return n, nil
}

// Close closes the connection and stops the reader loop
func (s *portSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isOpen {
		return nil
	}

	close(s.done)
	err := s.port.Close()
	s.wg.Wait()

	s.port = nil
	s.isOpen = false
	s.events = nil
	s.done = nil

	if err != nil {
		return NewSerialError("close", s.config.Port, err)
	}
	return nil
}

// IsOpen returns true if the session holds an open connection
func (s *portSession) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// Config returns the configuration of the current or last connection
func (s *portSession) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Events returns the channel carrying reader-loop events, or nil when the
// session is closed
func (s *portSession) Events() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// convertStopBits converts the numeric stop bit count to the transport's type
func convertStopBits(stopBits int) serial.StopBits {
	switch stopBits {
	case 2:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

// convertParity converts the parity name to the transport's type
func convertParity(parity string) serial.Parity {
	switch parity {
	case "odd":
		return serial.OddParity
	case "even":
		return serial.EvenParity
	case "mark":
		return serial.MarkParity
	case "space":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

// SerialError represents a transport operation failure
type SerialError struct {
	Operation string
	Port      string
	Cause     error
}

// Error implements the error interface
func (e *SerialError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("serial %s failed on port %s: %v", e.Operation, e.Port, e.Cause)
	}
	return fmt.Sprintf("serial %s failed on port %s", e.Operation, e.Port)
}

// Unwrap returns the underlying cause
func (e *SerialError) Unwrap() error {
	return e.Cause
}

// NewSerialError creates a new serial error
func NewSerialError(operation, port string, cause error) *SerialError {
	return &SerialError{
		Operation: operation,
		Port:      port,
		Cause:     cause,
	}
}
