// Package input maps raw key events to semantic commands per focused pane
package input

import (
	"github.com/gdamore/tcell/v2"
)

// Focus identifies which pane receives keyboard input
type Focus int

const (
	FocusPorts Focus = iota
	FocusOutput
	FocusInput
)

// focusCount is the number of panes in the cycle
const focusCount = 3

// String returns the string representation of Focus
func (f Focus) String() string {
	switch f {
	case FocusPorts:
		return "Ports"
	case FocusOutput:
		return "Output"
	case FocusInput:
		return "Input"
	default:
		return "unknown"
	}
}

// Cycle returns the focus shifted by delta panes with wrap-around
func (f Focus) Cycle(delta int) Focus {
	return Focus(((int(f)+delta)%focusCount + focusCount) % focusCount)
}

// CommandKind discriminates routed commands
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdQuit
	CmdCycleFocus
	CmdRefreshPorts
	CmdToggleConnection
	CmdCycleBaud
	CmdMoveSelection
	CmdScroll
	CmdAppendChar
	CmdBackspace
	CmdSendLine
	CmdToggleHex
	CmdToggleLog
	CmdShowHelp
)

// ScrollAction names the scroll movements available on the output pane
type ScrollAction int

const (
	ScrollPageUp ScrollAction = iota
	ScrollPageDown
	ScrollHome
	ScrollEnd
)

// Command is a routed, self-contained state transition request. Delta
// carries the direction for cycle and selection commands; Scroll and Ch
// carry the payload for scroll and character commands.
type Command struct {
	Kind   CommandKind
	Delta  int
	Scroll ScrollAction
	Ch     rune
}

// Route translates a raw key event into a command for the given focus.
// Keys with no meaning for the focused pane yield CmdNone.
func Route(focus Focus, ev *tcell.EventKey) Command {
	// Focus-independent bindings first: quit, focus cycling and the
	// display mode chords work from every pane.
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return Command{Kind: CmdQuit}
	case tcell.KeyTab:
		return Command{Kind: CmdCycleFocus, Delta: 1}
	case tcell.KeyBacktab:
		return Command{Kind: CmdCycleFocus, Delta: -1}
	case tcell.KeyCtrlX:
		return Command{Kind: CmdToggleHex}
	case tcell.KeyCtrlL:
		return Command{Kind: CmdToggleLog}
	case tcell.KeyF1:
		return Command{Kind: CmdShowHelp}
	}

	if ev.Key() == tcell.KeyRune && ev.Rune() == 'q' && ev.Modifiers() == 0 {
		return Command{Kind: CmdQuit}
	}

	switch focus {
	case FocusPorts:
		return routePorts(ev)
	case FocusOutput:
		return routeOutput(ev)
	case FocusInput:
		return routeInput(ev)
	}
	return Command{Kind: CmdNone}
}

func routePorts(ev *tcell.EventKey) Command {
	switch ev.Key() {
	case tcell.KeyEnter:
		return Command{Kind: CmdToggleConnection}
	case tcell.KeyUp:
		return Command{Kind: CmdMoveSelection, Delta: -1}
	case tcell.KeyDown:
		return Command{Kind: CmdMoveSelection, Delta: 1}
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'r':
			return Command{Kind: CmdRefreshPorts}
		case 'b':
			return Command{Kind: CmdCycleBaud, Delta: 1}
		case 'B':
			return Command{Kind: CmdCycleBaud, Delta: -1}
		}
	}
	return Command{Kind: CmdNone}
}

func routeOutput(ev *tcell.EventKey) Command {
	switch ev.Key() {
	case tcell.KeyPgUp:
		return Command{Kind: CmdScroll, Scroll: ScrollPageUp}
	case tcell.KeyPgDn:
		return Command{Kind: CmdScroll, Scroll: ScrollPageDown}
	case tcell.KeyHome:
		return Command{Kind: CmdScroll, Scroll: ScrollHome}
	case tcell.KeyEnd:
		return Command{Kind: CmdScroll, Scroll: ScrollEnd}
	}
	return Command{Kind: CmdNone}
}

func routeInput(ev *tcell.EventKey) Command {
	switch ev.Key() {
	case tcell.KeyEnter:
		return Command{Kind: CmdSendLine}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return Command{Kind: CmdBackspace}
	case tcell.KeyRune:
		return Command{Kind: CmdAppendChar, Ch: ev.Rune()}
	}
	return Command{Kind: CmdNone}
}
