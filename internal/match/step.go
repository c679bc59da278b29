package match

import (
	"math"

	"chessping/internal/chess"
)

type EventKind int

const (
	// EventPieceHit: a piece lost one life. Index is its roster position
	// before any removal on the same tick.
	EventPieceHit EventKind = iota
	// EventPieceDestroyed: the piece reached zero life and left its roster.
	EventPieceDestroyed
	// EventScore: Side scored a point.
	EventScore
	// EventRecenter: the ball was put back in the middle after a boundary score.
	EventRecenter
	// EventLaunch: the serve was launched.
	EventLaunch
	// EventServeRequest: a mirror wants to launch the serve along Angle.
	EventServeRequest
	// EventGameOver: Side won.
	EventGameOver
)

var eventNames = map[EventKind]string{
	EventPieceHit:       "piece_hit",
	EventPieceDestroyed: "piece_destroyed",
	EventScore:          "score",
	EventRecenter:       "recenter",
	EventLaunch:         "launch",
	EventServeRequest:   "serve_request",
	EventGameOver:       "game_over",
}

func (k EventKind) String() string {
	return eventNames[k]
}

type Event struct {
	Kind    EventKind
	Side    chess.Side
	PieceID int
	Index   int
	Life    int
	Angle   float64
}

// Step advances the match by one tick and reports what changed.
func (m *Match) Step(in Input) []Event {
	bounds := m.PaddleBounds()
	m.LeftPaddle.Move(in.Left.Up, in.Left.Down, bounds)
	m.RightPaddle.Move(in.Right.Up, in.Right.Down, bounds)

	if m.Authority == Mirror {
		return m.stepMirror(in)
	}
	if m.Over {
		return nil
	}

	var events []Event
	if m.Serve.Attached {
		if in.HasPointer {
			m.Serve.Track(&m.Ball, in.Pointer)
		}
		if in.Launch {
			events = append(events, m.launch()...)
		}
		if m.Serve.Attached {
			m.Serve.Pin(&m.Ball, m.paddle(m.Serve.Owner))
			return events
		}
	}

	m.Ball.Advance()
	m.Ball.Reflect(m.PaddleBounds(), m.Variant == Confined)
	return append(events, m.resolveCollisions()...)
}

// stepMirror keeps the attached ball on its paddle and turns a launch press
// into a request for the host. Everything else arrives over the network.
func (m *Match) stepMirror(in Input) []Event {
	if !m.Serve.Attached {
		return nil
	}
	m.Serve.Pin(&m.Ball, m.paddle(m.Serve.Owner))
	if in.HasPointer {
		m.Serve.Track(&m.Ball, in.Pointer)
	}
	if in.Launch {
		return []Event{{Kind: EventServeRequest, Side: m.Serve.Owner, Angle: m.Serve.AimAngle()}}
	}
	return nil
}

func (m *Match) launch() []Event {
	if !m.Serve.Launch(&m.Ball, m.SpeedFactor) {
		return nil
	}
	m.LastHitID = 0
	return []Event{{Kind: EventLaunch, Side: m.Serve.Owner, Angle: m.Serve.AimAngle()}}
}

// Launch fires the serve along the current aim. Only meaningful with
// Simulate authority.
func (m *Match) Launch() []Event {
	if m.Authority != Simulate || m.Over {
		return nil
	}
	return m.launch()
}

// LaunchAngle fires the serve along angle, in radians. Used when the serving
// player is on the other end of the connection.
func (m *Match) LaunchAngle(angle float64) []Event {
	if m.Authority != Simulate || m.Over || !m.Serve.Attached {
		return nil
	}
	m.Serve.SetAngle(angle)
	return m.launch()
}

// resolveCollisions runs paddle, piece and boundary checks for the current
// ball position.
func (m *Match) resolveCollisions() []Event {
	ball := m.Ball.Rect()

	if hb := m.LeftPaddle.HitBox(m.Ball.Radius); !hb.Empty() && ball.Overlaps(hb) {
		m.Ball.Vel.X = math.Abs(m.Ball.Vel.X)
		m.Ball.Color = m.LeftPaddle.Tint
	}
	if hb := m.RightPaddle.HitBox(m.Ball.Radius); !hb.Empty() && ball.Overlaps(hb) {
		m.Ball.Vel.X = -math.Abs(m.Ball.Vel.X)
		m.Ball.Color = m.RightPaddle.Tint
	}

	m.releaseLastHit()

	events := m.hitPiece(chess.Left)
	if events == nil {
		events = m.hitPiece(chess.Right)
	}

	if m.Variant == Open {
		events = append(events, m.boundaryScore()...)
	}
	return events
}

// releaseLastHit forgets the sticky piece once the ball has left it or it is
// gone.
func (m *Match) releaseLastHit() {
	if m.LastHitID == 0 {
		return
	}
	ball := m.Ball.Rect()
	for _, side := range []chess.Side{chess.Left, chess.Right} {
		if p := m.Roster(side).ByID(m.LastHitID); p != nil {
			if p.Alive() && ball.Overlaps(m.Layout.PieceRect(p.Row, p.Col)) {
				return
			}
			break
		}
	}
	m.LastHitID = 0
}

// hitPiece damages at most one piece of side: the first alive piece in roster
// order that the ball overlaps and that is not the sticky piece. It returns nil
// when nothing was hit.
func (m *Match) hitPiece(side chess.Side) []Event {
	roster := m.Roster(side)
	ball := m.Ball.Rect()

	for _, p := range roster.Snapshot() {
		if !p.Alive() || p.ID == m.LastHitID {
			continue
		}
		if !ball.Overlaps(m.Layout.PieceRect(p.Row, p.Col)) {
			continue
		}

		idx := roster.IndexOf(p.ID)
		life := p.ApplyDamage(1)
		m.LastHitID = p.ID
		if side == chess.Left {
			m.Ball.Vel.X = math.Abs(m.Ball.Vel.X)
		} else {
			m.Ball.Vel.X = -math.Abs(m.Ball.Vel.X)
		}

		events := []Event{{Kind: EventPieceHit, Side: side, PieceID: p.ID, Index: idx, Life: life}}
		if p.Alive() {
			return events
		}

		roster.RemoveAt(idx)
		scorer := side.Opponent()
		m.score(scorer)
		events = append(events,
			Event{Kind: EventPieceDestroyed, Side: side, PieceID: p.ID, Index: idx},
			Event{Kind: EventScore, Side: scorer},
		)
		if winner, over := m.checkOver(); over {
			events = append(events, Event{Kind: EventGameOver, Side: winner})
		}
		return events
	}
	return nil
}

// boundaryScore scores a ball that has fully left the screen sideways.
func (m *Match) boundaryScore() []Event {
	bounds := m.Layout.Screen()
	var scorer chess.Side
	switch {
	case m.Ball.OutLeft(bounds):
		scorer = chess.Right
	case m.Ball.OutRight(bounds):
		scorer = chess.Left
	default:
		return nil
	}

	m.score(scorer)
	cx, cy := m.Layout.Center()
	m.Ball.Recenter(cx, cy, m.SpeedFactor, m.rng)
	m.LastHitID = 0
	return []Event{{Kind: EventScore, Side: scorer}, {Kind: EventRecenter}}
}
