package history

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSink_AppendsRawBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")

	sink, err := OpenSink(path)
	if err != nil {
		t.Fatalf("OpenSink() error = %v", err)
	}
	if sink.Path() != path {
		t.Errorf("Path() = %q, want %q", sink.Path(), path)
	}

	chunks := [][]byte{
		[]byte("hello "),
		{0x00, 0x01, 0xFF},
		[]byte("world\n"),
	}
	for _, chunk := range chunks {
		if err := sink.Write(chunk); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	want := bytes.Join(chunks, nil)
	if !bytes.Equal(data, want) {
		t.Errorf("log contents = %v, want %v", data, want)
	}
}

func TestSink_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")

	for _, chunk := range []string{"first", "second"} {
		sink, err := OpenSink(path)
		if err != nil {
			t.Fatalf("OpenSink() error = %v", err)
		}
		if err := sink.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		sink.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if string(data) != "firstsecond" {
		t.Errorf("log contents = %q, want %q", data, "firstsecond")
	}
}

func TestOpenSink_EmptyPath(t *testing.T) {
	if _, err := OpenSink(""); err == nil {
		t.Error("OpenSink(\"\") should fail")
	}
}

func TestOpenSink_BadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "session.log")
	if _, err := OpenSink(path); err == nil {
		t.Error("OpenSink() in a missing directory should fail")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    FileFormat
		wantErr bool
	}{
		{name: "plain", want: FormatPlainText},
		{name: "timestamped", want: FormatTimestamped},
		{name: "json", want: FormatJSON},
		{name: "yaml", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFileFormat_RoundTrip(t *testing.T) {
	for _, format := range []FileFormat{FormatPlainText, FormatTimestamped, FormatJSON} {
		got, err := ParseFormat(format.String())
		if err != nil {
			t.Errorf("ParseFormat(%q) error = %v", format.String(), err)
		}
		if got != format {
			t.Errorf("ParseFormat(%q) = %v, want %v", format.String(), got, format)
		}
	}
}

func testEntries() []Entry {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	return []Entry{
		{Timestamp: ts, Kind: "info", Data: []byte("opened COM1 at 115200")},
		{Timestamp: ts.Add(time.Second), Kind: "sent", Data: []byte("hello")},
		{Timestamp: ts.Add(2 * time.Second), Kind: "received", Data: []byte("world")},
	}
}

func TestSaveTranscript_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.txt")

	if err := SaveTranscript(path, testEntries(), FormatPlainText); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	want := "opened COM1 at 115200\nhello\nworld\n"
	if string(data) != want {
		t.Errorf("transcript = %q, want %q", data, want)
	}
}

func TestSaveTranscript_Timestamped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.txt")

	if err := SaveTranscript(path, testEntries(), FormatTimestamped); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("transcript has %d lines, want 3", len(lines))
	}
	want := "[2025-03-14 09:26:53.589] [info] opened COM1 at 115200"
	if lines[0] != want {
		t.Errorf("first line = %q, want %q", lines[0], want)
	}
	if !strings.Contains(lines[1], "[sent] hello") {
		t.Errorf("second line = %q, want a sent entry", lines[1])
	}
}

func TestSaveTranscript_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	entries := testEntries()

	if err := SaveTranscript(path, entries, FormatJSON); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	var decoded []Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("transcript is not valid JSON: %v", err)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("decoded %d entries, want %d", len(decoded), len(entries))
	}
	for i, e := range decoded {
		if e.Kind != entries[i].Kind || !bytes.Equal(e.Data, entries[i].Data) {
			t.Errorf("entry %d = %+v, want %+v", i, e, entries[i])
		}
	}
}

func TestSaveTranscript_EmptyFilename(t *testing.T) {
	if err := SaveTranscript("", testEntries(), FormatPlainText); err == nil {
		t.Error("SaveTranscript(\"\") should fail")
	}
}
