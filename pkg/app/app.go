// Package app provides the session controller and its event loop
package app

import (
	"fmt"
	"os"
	"time"

	"serial-monitor/pkg/buffer"
	"serial-monitor/pkg/history"
	"serial-monitor/pkg/input"
	"serial-monitor/pkg/serial"
	"serial-monitor/pkg/ui"
)

// Config contains controller configuration
type Config struct {
	Serial           serial.Config
	MaxLines         int
	LogPath          string
	LogEnabled       bool
	StartHex         bool
	ReopenOnBaud     bool
	TickRate         time.Duration
	TranscriptPath   string
	TranscriptFormat history.FileFormat
	DebugPath        string
}

// DefaultConfig returns the default controller configuration
func DefaultConfig() Config {
	return Config{
		Serial:       serial.DefaultConfig(),
		MaxLines:     buffer.DefaultMaxLines,
		LogPath:      "serial-monitor.log",
		ReopenOnBaud: true,
		TickRate:     100 * time.Millisecond,
	}
}

// Controller owns the session state machine. All state mutation happens on
// the event loop goroutine; collaborators only ever feed it events.
type Controller struct {
	cfg     Config
	catalog serial.Catalog
	session serial.Session

	// State: single writer (the loop), read by the renderer per frame
	ports     []serial.PortInfo
	selected  int
	baudIndex int
	focus     input.Focus
	output    *buffer.OutputBuffer
	inputLine []rune
	logSink   history.Sink
	showHelp  bool
	quitting  bool

	// serialEvents is nil while no connection is open; a nil channel
	// never fires in the loop's select
	serialEvents <-chan serial.Event

	// viewport is the output pane height observed at the last draw,
	// used to size page scrolls and clamp the scroll offset
	viewport int

	debugLog *os.File
}

// New creates a controller with the given collaborators
func New(cfg Config, catalog serial.Catalog, session serial.Session) *Controller {
	baudIndex := serial.BaudIndex(cfg.Serial.BaudRate)
	if baudIndex < 0 {
		baudIndex = serial.DefaultBaudIndex
	}

	c := &Controller{
		cfg:       cfg,
		catalog:   catalog,
		session:   session,
		selected:  -1,
		baudIndex: baudIndex,
		focus:     input.FocusPorts,
		output:    buffer.New(cfg.MaxLines),
		viewport:  1,
	}
	if cfg.StartHex {
		c.output.SetRenderMode(buffer.ModeHex)
	}
	if cfg.DebugPath != "" {
		// Best effort; the monitor runs without a debug log
		c.debugLog, _ = os.Create(cfg.DebugPath)
	}
	return c
}

// logDebug writes a timestamped diagnostic line to the debug log file
func (c *Controller) logDebug(format string, args ...interface{}) {
	if c.debugLog == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(c.debugLog, "[%s] %s\n", time.Now().Format("15:04:05.000"), msg)
}

// info appends an informational line to the output buffer
func (c *Controller) info(format string, args ...interface{}) {
	c.output.Append(buffer.InfoLine(format, args...))
}

// BaudRate returns the currently selected baud rate
func (c *Controller) BaudRate() int {
	return serial.BaudRates[c.baudIndex]
}

// selectedPort returns the selected port descriptor, or nil
func (c *Controller) selectedPort() *serial.PortInfo {
	if c.selected < 0 || c.selected >= len(c.ports) {
		return nil
	}
	return &c.ports[c.selected]
}

// apply performs exactly one atomic state transition for cmd
func (c *Controller) apply(cmd input.Command) {
	switch cmd.Kind {
	case input.CmdQuit:
		c.logDebug("quit requested")
		c.quitting = true
	case input.CmdCycleFocus:
		c.focus = c.focus.Cycle(cmd.Delta)
	case input.CmdRefreshPorts:
		c.refreshPorts()
	case input.CmdMoveSelection:
		c.moveSelection(cmd.Delta)
	case input.CmdToggleConnection:
		c.toggleConnection()
	case input.CmdCycleBaud:
		c.cycleBaud(cmd.Delta)
	case input.CmdScroll:
		c.scroll(cmd.Scroll)
	case input.CmdAppendChar:
		c.inputLine = append(c.inputLine, cmd.Ch)
	case input.CmdBackspace:
		if len(c.inputLine) > 0 {
			c.inputLine = c.inputLine[:len(c.inputLine)-1]
		}
	case input.CmdSendLine:
		c.sendLine()
	case input.CmdToggleHex:
		c.output.ToggleRenderMode()
	case input.CmdToggleLog:
		c.toggleLog()
	case input.CmdShowHelp:
		c.showHelp = true
	}
}

// refreshPorts re-queries the catalog. The previous selection survives
// when its port is still enumerated; otherwise it is cleared.
func (c *Controller) refreshPorts() {
	prev := ""
	if p := c.selectedPort(); p != nil {
		prev = p.Name
	}

	ports, err := c.catalog.Refresh()
	if err != nil {
		c.ports = nil
		c.selected = -1
		c.info("port refresh failed: %v", err)
		return
	}

	c.ports = ports
	c.selected = -1
	for i, p := range ports {
		if p.Name == prev {
			c.selected = i
			break
		}
	}
	if c.selected < 0 && prev == "" && len(ports) > 0 {
		c.selected = 0
	}
}

// moveSelection moves the port selection by delta, clamped at both ends
func (c *Controller) moveSelection(delta int) {
	if len(c.ports) == 0 {
		c.selected = -1
		return
	}
	next := c.selected
	if next < 0 {
		next = 0
	} else {
		next += delta
	}
	if next < 0 {
		next = 0
	}
	if next >= len(c.ports) {
		next = len(c.ports) - 1
	}
	c.selected = next
}

// toggleConnection opens the selected port or closes the open connection
func (c *Controller) toggleConnection() {
	if c.session.IsOpen() {
		c.closeConnection("closed")
		return
	}

	port := c.selectedPort()
	if port == nil {
		c.info("no port selected")
		return
	}
	c.openConnection(port.Name)
}

// openConnection opens portName at the current baud rate
func (c *Controller) openConnection(portName string) {
	cfg := c.cfg.Serial
	cfg.Port = portName
	cfg.BaudRate = c.BaudRate()

	if err := c.session.Open(cfg); err != nil {
		c.logDebug("open %s failed: %v", portName, err)
		c.info("%v", err)
		return
	}

	c.serialEvents = c.session.Events()
	c.info("opened %s at %d", portName, cfg.BaudRate)
	c.logDebug("opened %s at %d", portName, cfg.BaudRate)

	if c.cfg.LogEnabled && c.logSink == nil {
		c.openLogSink()
	}
}

// closeConnection closes the connection and the log sink, appending an
// informational line with the given message
func (c *Controller) closeConnection(message string) {
	if err := c.session.Close(); err != nil {
		c.logDebug("close error: %v", err)
	}
	c.serialEvents = nil
	c.closeLogSink()
	c.info("%s", message)
}

// cycleBaud shifts the baud index. With a connection open the port is
// closed and reopened at the new rate, unless auto-reopen is disabled.
func (c *Controller) cycleBaud(delta int) {
	c.baudIndex = serial.CycleBaud(c.baudIndex, delta)

	if !c.session.IsOpen() {
		return
	}
	if !c.cfg.ReopenOnBaud {
		c.info("baud %d applies on next open", c.BaudRate())
		return
	}

	portName := c.session.Config().Port
	if err := c.session.Close(); err != nil {
		c.logDebug("close before reopen failed: %v", err)
	}
	c.serialEvents = nil

	cfg := c.cfg.Serial
	cfg.Port = portName
	cfg.BaudRate = c.BaudRate()
	if err := c.session.Open(cfg); err != nil {
		c.closeLogSink()
		c.info("%v", err)
		return
	}
	c.serialEvents = c.session.Events()
	c.info("reopened %s at %d", portName, cfg.BaudRate)
}

// scroll adjusts the output scroll cursor within bounds
func (c *Controller) scroll(action input.ScrollAction) {
	switch action {
	case input.ScrollPageUp:
		c.output.ScrollBy(c.viewport, c.viewport)
	case input.ScrollPageDown:
		c.output.ScrollBy(-c.viewport, c.viewport)
	case input.ScrollHome:
		c.output.ScrollHome(c.viewport)
	case input.ScrollEnd:
		c.output.ScrollEnd()
	}
}

// sendLine transmits the input line followed by a newline. Without a
// connection nothing is sent and the input line is kept.
func (c *Controller) sendLine() {
	if len(c.inputLine) == 0 {
		return
	}
	if !c.session.IsOpen() {
		c.info("not connected")
		return
	}

	data := append([]byte(string(c.inputLine)), '\n')
	if _, err := c.session.Write(data); err != nil {
		c.connectionError(err)
		return
	}

	c.output.Append(buffer.NewLine(data, buffer.KindSent))
	c.inputLine = c.inputLine[:0]
}

// dataArrived appends a received chunk and mirrors it to the log sink
func (c *Controller) dataArrived(data []byte) {
	c.output.Append(buffer.NewLine(data, buffer.KindReceived))

	if c.logSink != nil {
		if err := c.logSink.Write(data); err != nil {
			c.logSink.Close()
			c.logSink = nil
			c.info("logging disabled: %v", err)
		}
	}
}

// connectionError force-closes the connection after a transport failure
func (c *Controller) connectionError(err error) {
	c.logDebug("connection error: %v", err)
	c.closeConnection(fmt.Sprintf("connection error: %v", err))
}

// handleSerialEvent applies one reader-loop event
func (c *Controller) handleSerialEvent(ev serial.Event) {
	switch ev.Kind {
	case serial.EventData:
		c.dataArrived(ev.Data)
	case serial.EventError:
		if c.session.IsOpen() {
			c.connectionError(ev.Err)
		}
	case serial.EventClosed:
		if c.session.IsOpen() {
			// The reader stopped without an explicit Close
			c.closeConnection("connection closed")
		}
	}
}

// toggleLog opens or closes the session log sink
func (c *Controller) toggleLog() {
	if c.logSink != nil {
		c.closeLogSink()
		c.info("logging stopped")
		return
	}
	c.openLogSink()
}

// openLogSink opens the configured log file; failure disables logging
// with an informational line rather than an error
func (c *Controller) openLogSink() {
	sink, err := history.OpenSink(c.cfg.LogPath)
	if err != nil {
		c.info("logging disabled: %v", err)
		return
	}
	c.logSink = sink
	c.info("logging to %s", sink.Path())
}

// closeLogSink closes the log sink if open
func (c *Controller) closeLogSink() {
	if c.logSink == nil {
		return
	}
	if err := c.logSink.Close(); err != nil {
		c.logDebug("log close error: %v", err)
	}
	c.logSink = nil
}

// frame builds the immutable render description from the current state
func (c *Controller) frame(viewport int) ui.Frame {
	c.viewport = viewport

	items := make([]ui.PortItem, len(c.ports))
	for i, p := range c.ports {
		items[i] = ui.PortItem{Name: p.Name, Description: p.Description()}
	}

	portName := ""
	if p := c.selectedPort(); p != nil {
		portName = p.Name
	}
	logPath := ""
	if c.logSink != nil {
		logPath = c.logSink.Path()
	}

	return ui.Frame{
		Ports:        items,
		Selected:     c.selected,
		Focus:        c.focus,
		BaudRate:     c.BaudRate(),
		PortName:     portName,
		Connected:    c.session.IsOpen(),
		HexMode:      c.output.RenderMode() == buffer.ModeHex,
		LogPath:      logPath,
		OutputRows:   c.output.VisibleWindow(viewport),
		ScrollOffset: c.output.Scroll(),
		InputLine:    string(c.inputLine),
		ShowHelp:     c.showHelp,
	}
}

// transcript converts the retained output lines into history entries
func (c *Controller) transcript() []history.Entry {
	entries := make([]history.Entry, 0, c.output.Len())
	for i := 0; i < c.output.Len(); i++ {
		line := c.output.Line(i)
		entries = append(entries, history.Entry{
			Timestamp: line.Timestamp,
			Kind:      line.Kind.String(),
			Data:      line.Data,
		})
	}
	return entries
}

// shutdown releases the connection, log sink and debug log. It runs on
// every loop-exit path.
func (c *Controller) shutdown() {
	if c.session.IsOpen() {
		if err := c.session.Close(); err != nil {
			c.logDebug("shutdown close error: %v", err)
		}
	}
	c.serialEvents = nil
	c.closeLogSink()

	if c.cfg.TranscriptPath != "" {
		err := history.SaveTranscript(c.cfg.TranscriptPath, c.transcript(), c.cfg.TranscriptFormat)
		if err != nil {
			c.logDebug("transcript save failed: %v", err)
		}
	}

	if c.debugLog != nil {
		c.debugLog.Close()
		c.debugLog = nil
	}
}
