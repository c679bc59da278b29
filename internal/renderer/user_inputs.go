package renderer

import (
	"github.com/gdamore/tcell/v2"

	"chessping/internal/match"
	"chessping/internal/pong"
	"chessping/internal/session"
)

type UiAction rune

const (
	Unknown    UiAction = iota
	Quit       UiAction = 'Q'
	LeftUp     UiAction = 'W'
	LeftDown   UiAction = 'S'
	RightUp    UiAction = 8593 // ↑
	RightDown  UiAction = 8595 // ↓
	Launch     UiAction = ' '
	Save       UiAction = 'V'
	Load       UiAction = 'L'
	Reset      UiAction = 'R'
	Faster     UiAction = '+'
	FasterAlt  UiAction = '='
	Slower     UiAction = '-'
	LaunchAlt  UiAction = '\r'
	QuitEscape UiAction = 27
)

// HoldTicks is how long a key counts as held after a press. Terminals only
// report presses and auto-repeat, never releases.
const HoldTicks = 6

func ProcessInput(rawInput rune) (action UiAction) {
	inputVal := int(rawInput)
	// Convert to UpperCase
	if inputVal >= 97 && inputVal <= 122 {
		inputVal = inputVal - 32
	}
	return UiAction(inputVal)
}

// keyAction maps a tcell key event to an action.
func keyAction(ev *tcell.EventKey) UiAction {
	switch ev.Key() {
	case tcell.KeyUp:
		return RightUp
	case tcell.KeyDown:
		return RightDown
	case tcell.KeyEnter:
		return LaunchAlt
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return QuitEscape
	case tcell.KeyRune:
		return ProcessInput(ev.Rune())
	}
	return Unknown
}

// inputState turns the event stream into per tick input.
type inputState struct {
	hold       map[UiAction]int
	pointer    pong.Vector
	hasPointer bool
	buttonDown bool

	launch bool
	cmd    session.Commands
}

func newInputState() *inputState {
	return &inputState{hold: map[UiAction]int{}}
}

func (s *inputState) handleKey(ev *tcell.EventKey) {
	switch a := keyAction(ev); a {
	case LeftUp, LeftDown, RightUp, RightDown:
		s.hold[a] = HoldTicks
		// Opposite direction stops immediately.
		switch a {
		case LeftUp:
			delete(s.hold, LeftDown)
		case LeftDown:
			delete(s.hold, LeftUp)
		case RightUp:
			delete(s.hold, RightDown)
		case RightDown:
			delete(s.hold, RightUp)
		}
	case Launch, LaunchAlt:
		s.launch = true
	case Save:
		s.cmd.Save = true
	case Load:
		s.cmd.Load = true
	case Reset:
		s.cmd.Reset = true
	case Faster, FasterAlt:
		s.cmd.Speed++
	case Slower:
		s.cmd.Speed--
	case Quit, QuitEscape:
		s.cmd.Quit = true
	}
}

func (s *inputState) handleMouse(ev *tcell.EventMouse, toScreen func(x, y int) pong.Vector) {
	x, y := ev.Position()
	s.pointer = toScreen(x, y)
	s.hasPointer = true

	down := ev.Buttons()&tcell.Button1 != 0
	if down && !s.buttonDown {
		s.launch = true
	}
	s.buttonDown = down
}

// take returns the input for this tick and ages held keys.
func (s *inputState) take() (match.Input, session.Commands) {
	in := match.Input{
		Left:       match.PaddleInput{Up: s.hold[LeftUp] > 0, Down: s.hold[LeftDown] > 0},
		Right:      match.PaddleInput{Up: s.hold[RightUp] > 0, Down: s.hold[RightDown] > 0},
		Pointer:    s.pointer,
		HasPointer: s.hasPointer,
		Launch:     s.launch,
	}
	cmd := s.cmd

	for a, n := range s.hold {
		if n <= 1 {
			delete(s.hold, a)
		} else {
			s.hold[a] = n - 1
		}
	}
	s.launch = false
	s.cmd = session.Commands{}
	return in, cmd
}
