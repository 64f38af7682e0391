// Package history provides the session log sink and transcript export
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Sink is an append-only byte stream receiving raw received data in
// arrival order
type Sink interface {
	Write(data []byte) error
	Close() error
	Path() string
}

// fileSink implements Sink on a regular file
type fileSink struct {
	file *os.File
	path string
}

// OpenSink opens (or creates) the log file at path for appending
func OpenSink(path string) (Sink, error) {
	if path == "" {
		return nil, fmt.Errorf("log path cannot be empty")
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &fileSink{file: file, path: path}, nil
}

// Write appends raw bytes to the log file
func (s *fileSink) Write(data []byte) error {
	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return nil
}

// Close closes the underlying file
func (s *fileSink) Close() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Path returns the log file path
func (s *fileSink) Path() string {
	return s.path
}

// FileFormat represents transcript export formats
type FileFormat int

const (
	FormatPlainText FileFormat = iota
	FormatTimestamped
	FormatJSON
)

// String returns the string representation of FileFormat
func (f FileFormat) String() string {
	switch f {
	case FormatPlainText:
		return "plain"
	case FormatTimestamped:
		return "timestamped"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat parses a transcript format name
func ParseFormat(name string) (FileFormat, error) {
	switch name {
	case "plain":
		return FormatPlainText, nil
	case "timestamped":
		return FormatTimestamped, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatPlainText, fmt.Errorf("unknown transcript format: %s", name)
	}
}

// Entry is a single transcript record
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Data      []byte    `json:"data"`
}

// SaveTranscript writes the session transcript to filename in the given
// format
func SaveTranscript(filename string, entries []Entry, format FileFormat) error {
	if filename == "" {
		return fmt.Errorf("transcript filename cannot be empty")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create transcript file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("failed to encode transcript: %w", err)
		}
	case FormatTimestamped:
		for _, e := range entries {
			_, err := fmt.Fprintf(file, "[%s] [%s] %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05.000"),
				e.Kind,
				string(e.Data))
			if err != nil {
				return fmt.Errorf("failed to write transcript: %w", err)
			}
		}
	default:
		for _, e := range entries {
			if _, err := fmt.Fprintf(file, "%s\n", string(e.Data)); err != nil {
				return fmt.Errorf("failed to write transcript: %w", err)
			}
		}
	}

	return nil
}
