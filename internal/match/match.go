// Package match holds the authoritative state of one game and the per-tick
// simulation that advances it.
package match

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"chessping/internal/board"
	"chessping/internal/chess"
	"chessping/internal/pong"
)

// Authority decides whether a match computes physics itself or only applies
// state computed elsewhere.
type Authority int

const (
	// Simulate runs serve, ball integration and collisions. Used for local
	// games and by the host of a network game.
	Simulate Authority = iota
	// Mirror never resolves collisions. It moves its own paddle and waits for
	// authoritative updates.
	Mirror
)

func (a Authority) String() string {
	if a == Mirror {
		return "mirror"
	}
	return "simulate"
}

// Variant selects what happens at the left and right edges of the board.
type Variant int

const (
	// Confined bounces the ball off every board edge.
	Confined Variant = iota
	// Open lets the ball leave left or right, scoring for the other side.
	Open
)

func (v Variant) String() string {
	if v == Open {
		return "open"
	}
	return "confined"
}

// ParseVariant accepts "confined", "open" or an empty string.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", "confined":
		return Confined, nil
	case "open":
		return Open, nil
	}
	return Confined, fmt.Errorf("unknown variant %q", s)
}

const (
	MinSpeedFactor  = 0.5
	MaxSpeedFactor  = 2.0
	SpeedFactorStep = 0.1
)

type Options struct {
	Setup       chess.Setup
	FirstServer chess.Side
	SpeedFactor float64
	Variant     Variant
	Authority   Authority
	// Rand drives the recenter direction. Nil seeds from the clock.
	Rand *rand.Rand
}

type PaddleInput struct {
	Up, Down bool
}

// Input is everything the input collaborator hands over for one tick.
type Input struct {
	Left, Right PaddleInput
	// Pointer is the aiming position in screen pixels.
	Pointer    pong.Vector
	HasPointer bool
	// Launch is set on the tick the launch button or key went down.
	Launch bool
}

type Match struct {
	Layout    board.Layout
	Authority Authority
	Variant   Variant

	Left  *chess.Roster
	Right *chess.Roster

	Ball        pong.Ball
	LeftPaddle  pong.Paddle
	RightPaddle pong.Paddle
	Serve       pong.Serve

	ScoreLeft   int
	ScoreRight  int
	SpeedFactor float64

	// LastHitID is the piece touched on an earlier tick that the ball still
	// overlaps. Zero means none.
	LastHitID int

	Over   bool
	Winner chess.Side

	setup        chess.Setup
	firstServer  chess.Side
	initialSpeed float64
	ids          chess.IDSource
	rng          *rand.Rand
}

// New builds a match ready to serve. The setup must pass validation and is
// normalised afterwards.
func New(opts Options) (*Match, error) {
	if err := opts.Setup.Validate(); err != nil {
		return nil, err
	}
	setup := opts.Setup.Normalize()

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	first := opts.FirstServer
	if first != chess.Right {
		first = chess.Left
	}

	m := &Match{
		Layout:       board.NewLayout(setup.Rows),
		Authority:    opts.Authority,
		Variant:      opts.Variant,
		setup:        setup,
		firstServer:  first,
		initialSpeed: ClampSpeed(opts.SpeedFactor),
		rng:          rng,
	}
	m.Reset()
	return m, nil
}

// Reset throws away all state and rebuilds the match from the initial
// setup, serving from the configured first server.
func (m *Match) Reset() {
	m.ids = chess.IDSource{}
	m.Left = chess.BuildRoster(m.setup, chess.Left, m.Layout.Cols, &m.ids)
	m.Right = chess.BuildRoster(m.setup, chess.Right, m.Layout.Cols, &m.ids)
	m.LeftPaddle, m.RightPaddle = m.newPaddles()

	cx, cy := m.Layout.Center()
	m.Ball = pong.Ball{Pos: pong.Vector{X: cx, Y: cy}, Radius: pong.BallRadius, Color: pong.Neutral}
	m.Serve = pong.NewServe(m.firstServer)
	m.Serve.Pin(&m.Ball, m.paddle(m.firstServer))

	m.ScoreLeft = 0
	m.ScoreRight = 0
	m.SpeedFactor = m.initialSpeed
	m.LastHitID = 0
	m.Over = false
	m.Winner = ""
}

// Paddles sit on the line between the back and front column of each side.
func (m *Match) newPaddles() (pong.Paddle, pong.Paddle) {
	l := m.Layout
	h := min(float64(pong.PaddleHeight), l.Height())
	_, cy := l.Center()
	y := float64(int(cy - h/2))

	leftGap := l.Left + l.CellSize
	rightGap := l.Left + l.CellSize*float64(l.Cols-1)

	left := pong.Paddle{X: float64(int(leftGap - pong.PaddleWidth/2)), Y: y, Width: pong.PaddleWidth, Height: h, Tint: pong.LeftTint}
	right := pong.Paddle{X: float64(int(rightGap - pong.PaddleWidth/2)), Y: y, Width: pong.PaddleWidth, Height: h, Tint: pong.RightTint}
	return left, right
}

func (m *Match) Setup() chess.Setup      { return m.setup }
func (m *Match) FirstServer() chess.Side { return m.firstServer }

func (m *Match) Roster(side chess.Side) *chess.Roster {
	if side == chess.Left {
		return m.Left
	}
	return m.Right
}

func (m *Match) paddle(side chess.Side) *pong.Paddle {
	if side == chess.Left {
		return &m.LeftPaddle
	}
	return &m.RightPaddle
}

// Paddle returns the paddle of side.
func (m *Match) Paddle(side chess.Side) *pong.Paddle {
	return m.paddle(side)
}

// PaddleBounds is the area paddles and the ball move in: the board when
// confined, the whole screen when open.
func (m *Match) PaddleBounds() board.Rect {
	if m.Variant == Confined {
		return m.Layout.Bounds()
	}
	return m.Layout.Screen()
}

// SetPaddleY moves a paddle to an externally reported position, clamped.
func (m *Match) SetPaddleY(side chess.Side, y float64) {
	p := m.paddle(side)
	p.Y = y
	p.ClampTo(m.PaddleBounds())
	if m.Serve.Attached && m.Serve.Owner == side {
		m.Serve.Pin(&m.Ball, p)
	}
}

// ClampSpeed bounds a speed factor to the allowed range. Zero means default.
func ClampSpeed(f float64) float64 {
	if f == 0 {
		return 1
	}
	return max(MinSpeedFactor, min(MaxSpeedFactor, f))
}

// SetSpeedFactor changes the ball speed multiplier and rescales a moving ball.
// It returns the factor actually applied.
func (m *Match) SetSpeedFactor(f float64) float64 {
	m.SpeedFactor = ClampSpeed(f)
	if !m.Serve.Attached {
		m.Ball.SetSpeed(m.SpeedFactor)
	}
	return m.SpeedFactor
}

func (m *Match) score(side chess.Side) {
	if side == chess.Left {
		m.ScoreLeft++
	} else {
		m.ScoreRight++
	}
}

// checkOver ends the match once a side that started with pieces has none left.
func (m *Match) checkOver() (chess.Side, bool) {
	if m.Over {
		return m.Winner, false
	}
	for _, side := range []chess.Side{chess.Left, chess.Right} {
		if m.Roster(side).Len() == 0 && m.startedWithPieces(side) {
			m.Over = true
			m.Winner = side.Opponent()
			return m.Winner, true
		}
	}
	return "", false
}

func (m *Match) startedWithPieces(side chess.Side) bool {
	for _, ks := range m.setup.ForSide(side) {
		if ks.Count > 0 {
			return true
		}
	}
	return false
}
