// Package ui renders an immutable frame description onto a tcell screen
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"serial-monitor/pkg/input"
)

// Minimum screen size below which panes collapse to zero-height rects
const (
	minWidth  = 20
	minHeight = 7
)

// statusHeight is the height of the top status strip
const statusHeight = 1

// inputHeight is the height of the bordered input pane
const inputHeight = 3

// portsWidthPercent is the share of the body width given to the ports pane
const portsWidthPercent = 30

// Rect is a screen-space rectangle
type Rect struct {
	X, Y, W, H int
}

// Inner returns the rectangle inside a one-cell border
func (r Rect) Inner() Rect {
	if r.W < 2 || r.H < 2 {
		return Rect{X: r.X, Y: r.Y}
	}
	return Rect{X: r.X + 1, Y: r.Y + 1, W: r.W - 2, H: r.H - 2}
}

// Layout describes where each pane is drawn
type Layout struct {
	Status Rect
	Ports  Rect
	Output Rect
	Input  Rect
}

// ComputeLayout splits a screen of the given size into the status strip,
// the ports/output body and the input pane
func ComputeLayout(width, height int) Layout {
	if width < minWidth || height < minHeight {
		return Layout{}
	}

	bodyY := statusHeight
	bodyH := height - statusHeight - inputHeight
	portsW := width * portsWidthPercent / 100

	return Layout{
		Status: Rect{X: 0, Y: 0, W: width, H: statusHeight},
		Ports:  Rect{X: 0, Y: bodyY, W: portsW, H: bodyH},
		Output: Rect{X: portsW, Y: bodyY, W: width - portsW, H: bodyH},
		Input:  Rect{X: 0, Y: height - inputHeight, W: width, H: inputHeight},
	}
}

// OutputViewport returns the number of output rows visible inside the
// output pane's border
func (l Layout) OutputViewport() int {
	return l.Output.Inner().H
}

// PortItem is one entry of the ports pane
type PortItem struct {
	Name        string
	Description string
}

// Frame is the per-frame immutable description consumed by Draw
type Frame struct {
	Ports        []PortItem
	Selected     int
	Focus        input.Focus
	BaudRate     int
	PortName     string
	Connected    bool
	HexMode      bool
	LogPath      string
	OutputRows   []string
	ScrollOffset int
	InputLine    string
	ShowHelp     bool
}

var (
	styleDefault  = tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset)
	styleTitle    = styleDefault.Foreground(tcell.ColorTeal).Bold(true)
	styleFocused  = styleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleBaud     = styleDefault.Foreground(tcell.ColorYellow)
	stylePort     = styleDefault.Foreground(tcell.ColorGreen)
	styleOpen     = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen)
	styleClosed   = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorRed)
	styleFlag     = styleDefault.Foreground(tcell.ColorFuchsia)
	styleSelected = styleDefault.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite)
	styleDim      = styleDefault.Foreground(tcell.ColorGray)
)

// Draw renders the frame onto the screen. The screen is cleared first;
// the caller is responsible for calling Show.
func Draw(screen tcell.Screen, frame Frame) {
	screen.Clear()
	screen.HideCursor()

	width, height := screen.Size()
	layout := ComputeLayout(width, height)
	if layout.Status.W == 0 {
		drawText(screen, 0, 0, width, "terminal too small", styleDefault)
		return
	}

	drawStatus(screen, layout.Status, frame)
	drawPorts(screen, layout.Ports, frame)
	drawOutput(screen, layout.Output, frame)
	drawInput(screen, layout.Input, frame)

	if frame.ShowHelp {
		drawHelp(screen, width, height)
	}
}

// drawStatus renders the status strip: program name, key hints and the
// baud / port / connection / mode indicators
func drawStatus(screen tcell.Screen, r Rect, frame Frame) {
	x := r.X
	x = drawText(screen, x, r.Y, r.W, " serial-monitor ", styleTitle)
	x = drawText(screen, x, r.Y, r.W-x, " q:quit TAB:focus r:refresh b/B:baud Enter:open/send F1:help ", styleDim)

	x = drawText(screen, x, r.Y, r.W-x, fmt.Sprintf(" [baud:%d] ", frame.BaudRate), styleBaud)
	if frame.PortName != "" {
		x = drawText(screen, x, r.Y, r.W-x, fmt.Sprintf(" %s ", frame.PortName), stylePort)
	}
	if frame.Connected {
		x = drawText(screen, x, r.Y, r.W-x, " OPEN ", styleOpen)
	} else {
		x = drawText(screen, x, r.Y, r.W-x, " CLOSED ", styleClosed)
	}
	if frame.HexMode {
		x = drawText(screen, x, r.Y, r.W-x, " HEX ", styleFlag)
	}
	if frame.LogPath != "" {
		drawText(screen, x, r.Y, r.W-x, fmt.Sprintf(" LOG:%s ", frame.LogPath), styleFlag)
	}
}

// drawPorts renders the port list with the current selection highlighted
func drawPorts(screen tcell.Screen, r Rect, frame Frame) {
	drawBox(screen, r, "Ports", frame.Focus == input.FocusPorts)

	inner := r.Inner()
	for i, port := range frame.Ports {
		if i >= inner.H {
			break
		}
		style := styleDefault
		if i == frame.Selected {
			style = styleSelected
		}
		x := drawText(screen, inner.X, inner.Y+i, inner.W, port.Name, style)
		if port.Description != "" {
			drawText(screen, x+1, inner.Y+i, inner.W-(x-inner.X)-1, port.Description, styleDim)
		}
	}
	if len(frame.Ports) == 0 {
		drawText(screen, inner.X, inner.Y, inner.W, "no ports (r to refresh)", styleDim)
	}
}

// drawOutput renders the visible output rows, newest at the bottom
func drawOutput(screen tcell.Screen, r Rect, frame Frame) {
	title := "Output"
	if frame.ScrollOffset > 0 {
		title = fmt.Sprintf("Output (scrolled %d)", frame.ScrollOffset)
	}
	drawBox(screen, r, title, frame.Focus == input.FocusOutput)

	inner := r.Inner()
	// Bottom-align the rows so the newest line hugs the input pane
	startY := inner.Y + inner.H - len(frame.OutputRows)
	if startY < inner.Y {
		startY = inner.Y
	}
	for i, row := range frame.OutputRows {
		if startY+i >= inner.Y+inner.H {
			break
		}
		drawText(screen, inner.X, startY+i, inner.W, row, styleDefault)
	}
}

// drawInput renders the input line and places the hardware cursor when
// the input pane holds focus
func drawInput(screen tcell.Screen, r Rect, frame Frame) {
	drawBox(screen, r, "Input", frame.Focus == input.FocusInput)

	inner := r.Inner()
	style := styleDefault
	if frame.Focus == input.FocusInput {
		style = styleDefault.Foreground(tcell.ColorYellow)
	}
	drawText(screen, inner.X, inner.Y, inner.W, frame.InputLine, style)

	if frame.Focus == input.FocusInput {
		cursorX := inner.X + len([]rune(frame.InputLine))
		if cursorX >= inner.X+inner.W {
			cursorX = inner.X + inner.W - 1
		}
		screen.ShowCursor(cursorX, inner.Y)
	}
}

// helpLines is the static help popup text
var helpLines = []string{
	"serial-monitor help",
	"",
	"q / Ctrl+C   quit",
	"Tab / S-Tab  cycle focus",
	"r            refresh ports   (Ports)",
	"b / B        cycle baud      (Ports)",
	"Up / Down    select port     (Ports)",
	"Enter        open/close port (Ports)",
	"Enter        send line       (Input)",
	"PgUp / PgDn  scroll output   (Output)",
	"Home / End   oldest / newest (Output)",
	"Ctrl+X       toggle hex mode",
	"Ctrl+L       toggle logging",
	"",
	"press any key to close",
}

// drawHelp overlays the static help popup centered on the screen
func drawHelp(screen tcell.Screen, width, height int) {
	boxW := 0
	for _, line := range helpLines {
		if len(line) > boxW {
			boxW = len(line)
		}
	}
	boxW += 4
	boxH := len(helpLines) + 2
	if boxW > width {
		boxW = width
	}
	if boxH > height {
		boxH = height
	}
	r := Rect{X: (width - boxW) / 2, Y: (height - boxH) / 2, W: boxW, H: boxH}

	// Blank the popup area so the panes underneath do not bleed through
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			screen.SetContent(x, y, ' ', nil, styleDefault)
		}
	}
	drawBox(screen, r, "Help", true)
	inner := r.Inner()
	for i, line := range helpLines {
		if i >= inner.H {
			break
		}
		drawText(screen, inner.X+1, inner.Y+i, inner.W-1, line, styleDefault)
	}
}

// drawBox draws a single-line border with a title; a focused box gets the
// highlighted title style
func drawBox(screen tcell.Screen, r Rect, title string, focused bool) {
	if r.W < 2 || r.H < 2 {
		return
	}

	for x := r.X + 1; x < r.X+r.W-1; x++ {
		screen.SetContent(x, r.Y, tcell.RuneHLine, nil, styleDefault)
		screen.SetContent(x, r.Y+r.H-1, tcell.RuneHLine, nil, styleDefault)
	}
	for y := r.Y + 1; y < r.Y+r.H-1; y++ {
		screen.SetContent(r.X, y, tcell.RuneVLine, nil, styleDefault)
		screen.SetContent(r.X+r.W-1, y, tcell.RuneVLine, nil, styleDefault)
	}
	screen.SetContent(r.X, r.Y, tcell.RuneULCorner, nil, styleDefault)
	screen.SetContent(r.X+r.W-1, r.Y, tcell.RuneURCorner, nil, styleDefault)
	screen.SetContent(r.X, r.Y+r.H-1, tcell.RuneLLCorner, nil, styleDefault)
	screen.SetContent(r.X+r.W-1, r.Y+r.H-1, tcell.RuneLRCorner, nil, styleDefault)

	style := styleDefault
	if focused {
		style = styleFocused
	}
	drawText(screen, r.X+2, r.Y, r.W-4, " "+title+" ", style)
}

// drawText draws a string clipped to maxW cells and returns the x position
// after the last drawn cell
func drawText(screen tcell.Screen, x, y, maxW int, text string, style tcell.Style) int {
	if maxW <= 0 {
		return x
	}
	i := 0
	for _, ch := range text {
		if i >= maxW {
			break
		}
		screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
	return x + i
}
