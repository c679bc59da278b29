package match

import (
	"chessping/internal/chess"
	"chessping/internal/pong"
)

// The Apply methods fold authoritative updates from a host into a mirrored
// match. They never run collision logic.

// ApplyBall replaces the ball state. A moving ball ends any pending serve.
func (m *Match) ApplyBall(b BallState) {
	m.Ball.Pos = pong.Vector{X: b.X, Y: b.Y}
	m.Ball.Vel = pong.Vector{X: b.VX, Y: b.VY}
	m.Ball.Color = ColorFromInts(b.Color)
	if m.Serve.Attached && !m.Ball.Vel.IsZero() {
		m.Serve.Attached = false
	}
}

// BallState is the wire form of the current ball.
func (m *Match) BallState() BallState {
	return BallState{
		X:     m.Ball.Pos.X,
		Y:     m.Ball.Pos.Y,
		VX:    m.Ball.Vel.X,
		VY:    m.Ball.Vel.Y,
		Color: ColorToInts(m.Ball.Color),
	}
}

// locate finds a piece by stable id when given, falling back to the roster
// index. It returns -1 when neither resolves.
func (m *Match) locate(side chess.Side, index, id int) int {
	r := m.Roster(side)
	if id != 0 {
		if i := r.IndexOf(id); i >= 0 {
			return i
		}
	}
	if index < 0 || index >= r.Len() {
		return -1
	}
	return index
}

// ApplyPieceHit sets the life of the addressed piece. Unknown pieces are
// ignored and reported as false.
func (m *Match) ApplyPieceHit(side chess.Side, index, id, life int) bool {
	i := m.locate(side, index, id)
	if i < 0 {
		return false
	}
	m.Roster(side).At(i).SetLife(life)
	return true
}

// ApplyPieceDestroyed removes the addressed piece.
func (m *Match) ApplyPieceDestroyed(side chess.Side, index, id int) bool {
	i := m.locate(side, index, id)
	if i < 0 {
		return false
	}
	removed := m.Roster(side).RemoveAt(i)
	if removed != nil && removed.ID == m.LastHitID {
		m.LastHitID = 0
	}
	return true
}

func (m *Match) ApplyScore(left, right int) {
	m.ScoreLeft = max(0, left)
	m.ScoreRight = max(0, right)
}

func (m *Match) ApplyGameEnd(winner chess.Side) {
	m.Over = true
	m.Winner = winner
}
