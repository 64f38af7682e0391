package app

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"serial-monitor/pkg/input"
	"serial-monitor/pkg/serial"
	"serial-monitor/pkg/ui"
)

// Run initializes the terminal, enters the event loop and blocks until
// the operator quits. Terminal initialization failure is the only fatal
// error; everything after that surfaces inside the session.
func Run(cfg Config) error {
	c := New(cfg, serial.NewCatalog(), serial.NewSession())

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}

	return c.run(screen)
}

// run drives the event loop on an initialized screen. Raw mode and the
// alternate screen are released on every exit path, panics included.
func (c *Controller) run(screen tcell.Screen) error {
	defer screen.Fini()
	defer c.shutdown()

	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorReset).
		Foreground(tcell.ColorReset))
	screen.Clear()

	c.startup()

	// The pump goroutine only ferries decoded terminal events into the
	// loop; it never touches controller state. Fini makes PollEvent
	// return nil, which ends the pump.
	keyCh := make(chan tcell.Event, 16)
	loopDone := make(chan struct{})
	defer close(loopDone)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case keyCh <- ev:
			case <-loopDone:
				return
			}
		}
	}()

	ticker := time.NewTicker(c.cfg.TickRate)
	defer ticker.Stop()

	// The loop suspends only at this select. Each arm translates one
	// observed event into one atomic state transition; within a source,
	// arrival order is preserved by the channels.
	for !c.quitting {
		c.draw(screen)

		select {
		case ev := <-keyCh:
			c.handleTerminalEvent(screen, ev)
		case sev, ok := <-c.serialEvents:
			if !ok {
				c.serialEvents = nil
				continue
			}
			c.handleSerialEvent(sev)
		case <-ticker.C:
			// Render tick; the draw at the top of the loop refreshes
		}
	}

	return nil
}

// startup performs the initial port enumeration and, when a port was
// preselected on the command line, connects to it
func (c *Controller) startup() {
	c.refreshPorts()

	if c.cfg.Serial.Port == "" {
		return
	}
	for i, p := range c.ports {
		if p.Name == c.cfg.Serial.Port {
			c.selected = i
			break
		}
	}
	c.openConnection(c.cfg.Serial.Port)
}

// handleTerminalEvent processes one decoded terminal event
func (c *Controller) handleTerminalEvent(screen tcell.Screen, ev tcell.Event) {
	switch tev := ev.(type) {
	case *tcell.EventResize:
		screen.Sync()
	case *tcell.EventKey:
		if c.showHelp {
			c.showHelp = false
			return
		}
		c.apply(input.Route(c.focus, tev))
	}
}

// draw renders the current state snapshot
func (c *Controller) draw(screen tcell.Screen) {
	width, height := screen.Size()
	layout := ui.ComputeLayout(width, height)
	ui.Draw(screen, c.frame(layout.OutputViewport()))
	screen.Show()
}
