// Package buffer provides the bounded, scrollable output line buffer
package buffer

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags the origin of an output line
type Kind int

const (
	KindReceived Kind = iota
	KindSent
	KindInfo
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindReceived:
		return "received"
	case KindSent:
		return "sent"
	case KindInfo:
		return "info"
	default:
		return "unknown"
	}
}

// RenderMode selects how stored bytes are turned into display rows
type RenderMode int

const (
	ModeText RenderMode = iota
	ModeHex
)

// String returns the string representation of RenderMode
func (m RenderMode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeHex:
		return "hex"
	default:
		return "unknown"
	}
}

// DefaultMaxLines is the default capacity of the output buffer
const DefaultMaxLines = 5000

// HexBytesPerRow is the number of bytes rendered per row in hex mode
const HexBytesPerRow = 16

// SentPrefix marks transmitted lines in text rendering
const SentPrefix = ">>"

// Line is a single output entry. Storage is always the raw bytes; text and
// hex renderings are computed on demand so mode toggles are lossless.
type Line struct {
	Data      []byte
	Kind      Kind
	Timestamp time.Time
}

// NewLine creates a line with the current timestamp, copying data
func NewLine(data []byte, kind Kind) Line {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Line{
		Data:      buf,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// InfoLine creates an informational line from a formatted message
func InfoLine(format string, args ...interface{}) Line {
	return NewLine([]byte(fmt.Sprintf(format, args...)), KindInfo)
}

// OutputBuffer is an append-only, capacity-bounded sequence of lines with
// a scroll cursor and a render mode. It has a single owner and is not safe
// for concurrent use.
type OutputBuffer struct {
	lines    []Line
	start    int
	count    int
	maxLines int
	scroll   int
	mode     RenderMode
}

// New creates an output buffer capped at maxLines
func New(maxLines int) *OutputBuffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &OutputBuffer{
		lines:    make([]Line, maxLines),
		maxLines: maxLines,
	}
}

// Len returns the number of stored lines
func (b *OutputBuffer) Len() int {
	return b.count
}

// MaxLines returns the configured capacity
func (b *OutputBuffer) MaxLines() int {
	return b.maxLines
}

// Line returns the stored line at index i, where 0 is the oldest
func (b *OutputBuffer) Line(i int) Line {
	return b.lines[(b.start+i)%b.maxLines]
}

// Append adds a line, evicting the oldest when the buffer is full. A
// scroll position pinned at the tail stays pinned; otherwise eviction
// clamps the scroll offset.
func (b *OutputBuffer) Append(line Line) {
	if b.count == b.maxLines {
		b.lines[b.start] = line
		b.start = (b.start + 1) % b.maxLines
	} else {
		b.lines[(b.start+b.count)%b.maxLines] = line
		b.count++
	}
	if b.scroll > 0 && b.scroll > b.count-1 {
		b.scroll = b.count - 1
	}
}

// RenderMode returns the current render mode
func (b *OutputBuffer) RenderMode() RenderMode {
	return b.mode
}

// SetRenderMode sets the render mode; stored lines are unaffected
func (b *OutputBuffer) SetRenderMode(mode RenderMode) {
	b.mode = mode
}

// ToggleRenderMode flips between text and hex rendering
func (b *OutputBuffer) ToggleRenderMode() {
	if b.mode == ModeText {
		b.mode = ModeHex
	} else {
		b.mode = ModeText
	}
}

// Scroll returns the scroll offset in lines back from the tail; 0 means
// the view follows new output
func (b *OutputBuffer) Scroll() int {
	return b.scroll
}

// maxScroll is the largest valid offset for a viewport of the given height
func (b *OutputBuffer) maxScroll(viewport int) int {
	if viewport < 0 {
		viewport = 0
	}
	m := b.count - viewport
	if m < 0 {
		m = 0
	}
	return m
}

// ScrollBy moves the scroll cursor by delta lines (positive = older),
// clamped to the valid range for the viewport height
func (b *OutputBuffer) ScrollBy(delta, viewport int) {
	b.scroll += delta
	b.clamp(viewport)
}

// ScrollHome moves the view to the oldest retained line
func (b *OutputBuffer) ScrollHome(viewport int) {
	b.scroll = b.maxScroll(viewport)
}

// ScrollEnd pins the view back to the newest line
func (b *OutputBuffer) ScrollEnd() {
	b.scroll = 0
}

func (b *OutputBuffer) clamp(viewport int) {
	if b.scroll < 0 {
		b.scroll = 0
	}
	if m := b.maxScroll(viewport); b.scroll > m {
		b.scroll = m
	}
}

// VisibleWindow renders the lines currently in view for a viewport of
// height rows, newest at the bottom. Hex rendering can expand one stored
// line into several rows; the window is trimmed to the last rows that fit.
func (b *OutputBuffer) VisibleWindow(height int) []string {
	if height <= 0 || b.count == 0 {
		return nil
	}
	b.clamp(height)

	end := b.count - b.scroll
	start := end - height
	if start < 0 {
		start = 0
	}

	rows := make([]string, 0, height)
	for i := start; i < end; i++ {
		rows = append(rows, RenderLine(b.Line(i), b.mode)...)
	}
	if len(rows) > height {
		rows = rows[len(rows)-height:]
	}
	return rows
}

// RenderLine renders a stored line into one or more display rows
func RenderLine(line Line, mode RenderMode) []string {
	// Informational lines are always shown as text; they carry no
	// device bytes
	if mode == ModeHex && line.Kind != KindInfo {
		return renderHex(line.Data)
	}
	return []string{renderText(line)}
}

// renderText renders one line as text, trimming a trailing line ending
// and prefixing transmitted lines
func renderText(line Line) string {
	text := strings.TrimRight(string(line.Data), "\r\n")
	switch line.Kind {
	case KindSent:
		return SentPrefix + text
	case KindInfo:
		return "[" + text + "]"
	default:
		return text
	}
}

// renderHex renders raw bytes as uppercase two-digit hex pairs, sixteen
// bytes per row, with continuation rows for longer payloads
func renderHex(data []byte) []string {
	if len(data) == 0 {
		return []string{""}
	}
	rows := make([]string, 0, (len(data)+HexBytesPerRow-1)/HexBytesPerRow)
	for off := 0; off < len(data); off += HexBytesPerRow {
		end := off + HexBytesPerRow
		if end > len(data) {
			end = len(data)
		}
		var sb strings.Builder
		for i, bt := range data[off:end] {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%02X", bt)
		}
		rows = append(rows, sb.String())
	}
	return rows
}
