package match

import (
	"errors"
	"fmt"

	"chessping/internal/chess"
	"chessping/internal/pong"
)

var ErrRowsMismatch = errors.New("snapshot board rows do not match the match layout")

// Snapshot is a complete, self-sufficient copy of match state. It is the
// save file format and the payload of game_state messages.
type Snapshot struct {
	Rows            int          `json:"rows"`
	ScoreLeft       int          `json:"score_left"`
	ScoreRight      int          `json:"score_right"`
	Serving         bool         `json:"serving"`
	ServerSide      string       `json:"server_side"`
	ServeAim        [2]float64   `json:"serve_aim"`
	Ball            BallState    `json:"ball"`
	LeftPaddleY     float64      `json:"left_paddle_y"`
	RightPaddleY    float64      `json:"right_paddle_y"`
	BallSpeedFactor float64      `json:"ball_speed_factor"`
	PiecesLeft      []PieceState `json:"pieces_left"`
	PiecesRight     []PieceState `json:"pieces_right"`
}

type BallState struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Color [3]int  `json:"color"`
}

type PieceState struct {
	ID      int    `json:"id,omitempty"`
	Kind    string `json:"kind"`
	Color   string `json:"color"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Life    int    `json:"life"`
	MaxLife int    `json:"max_life"`
}

func ColorToInts(c pong.RGB) [3]int {
	return [3]int{int(c[0]), int(c[1]), int(c[2])}
}

// ColorFromInts clamps each channel into a byte.
func ColorFromInts(c [3]int) pong.RGB {
	var out pong.RGB
	for i, v := range c {
		out[i] = uint8(max(0, min(255, v)))
	}
	return out
}

func (m *Match) Serialize() Snapshot {
	s := Snapshot{
		Rows:            m.Layout.Rows,
		ScoreLeft:       m.ScoreLeft,
		ScoreRight:      m.ScoreRight,
		Serving:         m.Serve.Attached,
		ServerSide:      string(m.Serve.Owner),
		ServeAim:        [2]float64{m.Serve.Aim.X, m.Serve.Aim.Y},
		LeftPaddleY:     m.LeftPaddle.Y,
		RightPaddleY:    m.RightPaddle.Y,
		BallSpeedFactor: m.SpeedFactor,
		Ball:            m.BallState(),
		PiecesLeft:      serializeRoster(m.Left),
		PiecesRight:     serializeRoster(m.Right),
	}
	return s
}

func serializeRoster(r *chess.Roster) []PieceState {
	out := make([]PieceState, 0, r.Len())
	for _, p := range r.Pieces {
		if !p.Alive() {
			continue
		}
		out = append(out, PieceState{
			ID:      p.ID,
			Kind:    string(p.Kind),
			Color:   p.Side.Color(),
			Row:     p.Row,
			Col:     p.Col,
			Life:    p.Life,
			MaxLife: p.MaxLife,
		})
	}
	return out
}

// Deserialize replaces the match state with s. Pieces are rebuilt from their
// grid coordinates. On error the match is left untouched.
func (m *Match) Deserialize(s Snapshot) error {
	if s.Rows != 0 && s.Rows != m.Layout.Rows {
		return fmt.Errorf("snapshot has %d rows, match has %d: %w", s.Rows, m.Layout.Rows, ErrRowsMismatch)
	}

	owner := chess.Left
	if s.ServerSide != "" {
		side, err := chess.ParseSide(s.ServerSide)
		if err != nil {
			return fmt.Errorf("snapshot server side: %w", err)
		}
		owner = side
	}

	ids := chess.IDSource{}
	for _, list := range [][]PieceState{s.PiecesLeft, s.PiecesRight} {
		for _, ps := range list {
			ids.Observe(ps.ID)
		}
	}

	seen := map[int]bool{}
	left, err := m.deserializeRoster(chess.Left, s.PiecesLeft, &ids, seen)
	if err != nil {
		return err
	}
	right, err := m.deserializeRoster(chess.Right, s.PiecesRight, &ids, seen)
	if err != nil {
		return err
	}

	m.ids = ids
	m.Left = left
	m.Right = right
	m.ScoreLeft = max(s.ScoreLeft, 0)
	m.ScoreRight = max(s.ScoreRight, 0)
	m.SpeedFactor = ClampSpeed(s.BallSpeedFactor)

	m.LeftPaddle, m.RightPaddle = m.newPaddles()
	m.SetPaddleY(chess.Left, s.LeftPaddleY)
	m.SetPaddleY(chess.Right, s.RightPaddleY)

	m.Ball = pong.Ball{
		Pos:    pong.Vector{X: s.Ball.X, Y: s.Ball.Y},
		Vel:    pong.Vector{X: s.Ball.VX, Y: s.Ball.VY},
		Radius: pong.BallRadius,
		Color:  ColorFromInts(s.Ball.Color),
	}

	m.Serve = pong.Serve{Attached: s.Serving, Owner: owner, Aim: pong.DefaultAim(owner)}
	if aim, ok := (pong.Vector{X: s.ServeAim[0], Y: s.ServeAim[1]}).Normalize(); ok {
		m.Serve.Aim = aim
	}
	m.Serve.Pin(&m.Ball, m.paddle(owner))

	m.LastHitID = 0
	m.Over = false
	m.Winner = ""
	m.checkOver()
	return nil
}

func (m *Match) deserializeRoster(side chess.Side, list []PieceState, ids *chess.IDSource, seen map[int]bool) (*chess.Roster, error) {
	r := chess.NewRoster(side)
	for i, ps := range list {
		kind, err := chess.ParseKind(ps.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s piece %d: %w", side, i, err)
		}
		if !m.Layout.Contains(ps.Row, ps.Col) {
			return nil, fmt.Errorf("%s piece %d: square (%d, %d) is off the board", side, i, ps.Row, ps.Col)
		}

		p := &chess.Piece{
			ID:      ps.ID,
			Kind:    kind,
			Side:    side,
			Row:     ps.Row,
			Col:     ps.Col,
			MaxLife: max(ps.MaxLife, 1),
		}
		p.SetLife(ps.Life)
		if !p.Alive() {
			continue
		}
		if p.ID <= 0 || seen[p.ID] {
			p.ID = ids.Next()
		}
		seen[p.ID] = true
		r.Add(p)
	}
	return r, nil
}
