// Package renderer draws a match in the terminal with tcell and turns key
// and mouse events into per tick input.
package renderer

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"chessping/internal/board"
	"chessping/internal/chess"
	"chessping/internal/match"
	"chessping/internal/pong"
	"chessping/internal/session"
)

var (
	lightSquare = tcell.NewRGBColor(240, 217, 181)
	darkSquare  = tcell.NewRGBColor(181, 136, 99)
	background  = tcell.NewRGBColor(40, 40, 40)
	hudColor    = tcell.NewRGBColor(255, 255, 255)
	statusColor = tcell.NewRGBColor(0, 200, 0)
)

var kindLetters = map[chess.Kind]rune{
	chess.Pawn:   'P',
	chess.Rook:   'R',
	chess.Knight: 'N',
	chess.Bishop: 'B',
	chess.Queen:  'Q',
	chess.King:   'K',
}

const helpLine = "W/S ↑/↓ move  space serve  V save  L load  R reset  +/- speed  Q quit"

// View owns the terminal for the lifetime of a match.
type View struct {
	screen tcell.Screen
	events chan tcell.Event
	quit   chan struct{}
	input  *inputState
	grid   grid
}

// Open takes over the controlling terminal.
func Open() (*View, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	s.EnableMouse()
	s.HideCursor()
	return New(s), nil
}

// New wraps an initialised screen.
func New(s tcell.Screen) *View {
	v := &View{
		screen: s,
		events: make(chan tcell.Event, 64),
		quit:   make(chan struct{}),
		input:  newInputState(),
	}
	s.SetStyle(tcell.StyleDefault.Background(background))
	v.grid = newGrid(s.Size())
	go s.ChannelEvents(v.events, v.quit)
	return v
}

// Close gives the terminal back.
func (v *View) Close() {
	close(v.quit)
	v.screen.Fini()
}

// Collect drains pending terminal events without blocking.
func (v *View) Collect() (match.Input, session.Commands) {
drain:
	for {
		select {
		case ev, ok := <-v.events:
			if !ok {
				break drain
			}
			v.handle(ev)
		default:
			break drain
		}
	}
	return v.input.take()
}

func (v *View) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		v.input.handleKey(ev)
	case *tcell.EventMouse:
		v.input.handleMouse(ev, v.grid.toScreen)
	case *tcell.EventResize:
		v.grid = newGrid(ev.Size())
		v.screen.Sync()
	}
}

// Draw renders one frame.
func (v *View) Draw(m *match.Match, status string) {
	s := v.screen
	s.Clear()

	v.drawBoard(m.Layout)
	v.drawPieces(m, m.Left)
	v.drawPieces(m, m.Right)
	v.drawPaddle(m.LeftPaddle)
	v.drawPaddle(m.RightPaddle)
	v.drawBall(m.Ball)
	v.drawHUD(m, status)

	s.Show()
}

func (v *View) drawBoard(l board.Layout) {
	for row := 0; row < l.Rows; row++ {
		for col := 0; col < l.Cols; col++ {
			color := lightSquare
			if (row+col)%2 == 1 {
				color = darkSquare
			}
			v.fill(l.CellRect(row, col), ' ', tcell.StyleDefault.Background(color))
		}
	}
}

func (v *View) drawPieces(m *match.Match, r *chess.Roster) {
	for _, p := range r.Pieces {
		if !p.Alive() {
			continue
		}
		fg := tcell.ColorWhite
		letter := kindLetters[p.Kind]
		if p.Side == chess.Right {
			fg = tcell.ColorBlack
			letter += 'a' - 'A'
		}
		bg := lightSquare
		if (p.Row+p.Col)%2 == 1 {
			bg = darkSquare
		}
		style := tcell.StyleDefault.Foreground(fg).Background(bg).Bold(true)

		cx, cy := m.Layout.CellCenter(p.Row, p.Col)
		x, y := v.grid.toCell(cx, cy)
		v.screen.SetContent(x, y, letter, nil, style)
		v.screen.SetContent(x+1, y, lifeRune(p.Life), nil, style.Bold(false))
	}
}

func lifeRune(life int) rune {
	if life > 9 {
		return '+'
	}
	return rune('0' + life)
}

func (v *View) drawPaddle(p pong.Paddle) {
	v.fill(p.Rect(), '█', tcell.StyleDefault.Foreground(rgb(p.Tint)).Background(background))
}

func (v *View) drawBall(b pong.Ball) {
	x, y := v.grid.toCell(b.Pos.X, b.Pos.Y)
	_, _, style, _ := v.screen.GetContent(x, y)
	v.screen.SetContent(x, y, '●', nil, style.Foreground(rgb(b.Color)))
}

func (v *View) drawHUD(m *match.Match, status string) {
	style := tcell.StyleDefault.Foreground(hudColor).Background(background)
	serve := ""
	if m.Serve.Attached {
		serve = fmt.Sprintf("  %s serves", m.Serve.Owner.Color())
	}
	hud := fmt.Sprintf("White %d : %d Dark  speed x%.1f%s", m.ScoreLeft, m.ScoreRight, m.SpeedFactor, serve)
	v.text(0, 0, hud, style)

	w, h := v.screen.Size()
	v.text(0, h-2, status, tcell.StyleDefault.Foreground(statusColor).Background(background))
	if len(helpLine) <= w {
		v.text(0, h-1, helpLine, style.Dim(true))
	}
}

func (v *View) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// fill paints every terminal cell that r touches.
func (v *View) fill(r board.Rect, ch rune, style tcell.Style) {
	x0, y0 := v.grid.toCell(r.Left(), r.Top())
	x1, y1 := v.grid.toCell(r.Right()-1, r.Bottom()-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			v.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

func rgb(c pong.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c[0]), int32(c[1]), int32(c[2]))
}

// grid maps the fixed game surface onto the terminal. The top row holds the
// HUD and the bottom two rows the status and help lines.
type grid struct {
	cols, rows int
	sx, sy     float64
}

func newGrid(w, h int) grid {
	rows := max(1, h-3)
	cols := max(1, w)
	return grid{
		cols: cols,
		rows: rows,
		sx:   board.ScreenWidth / float64(cols),
		sy:   board.ScreenHeight / float64(rows),
	}
}

func (g grid) toCell(x, y float64) (int, int) {
	cx := int(math.Floor(x / g.sx))
	cy := int(math.Floor(y / g.sy))
	return max(0, min(g.cols-1, cx)), 1 + max(0, min(g.rows-1, cy))
}

// toScreen is the inverse of toCell, returning the centre of a cell.
func (g grid) toScreen(x, y int) pong.Vector {
	return pong.Vector{
		X: (float64(x) + 0.5) * g.sx,
		Y: (float64(y-1) + 0.5) * g.sy,
	}
}
