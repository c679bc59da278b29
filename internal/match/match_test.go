package match

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"golang.org/x/exp/rand"

	"chessping/internal/chess"
	"chessping/internal/pong"
)

func newTestMatch(t *testing.T, variant Variant) *Match {
	t.Helper()
	m, err := New(Options{
		Setup:       chess.DefaultSetup(2),
		FirstServer: chess.Left,
		SpeedFactor: 1,
		Variant:     variant,
		Rand:        rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("new match: %v", err)
	}
	return m
}

// launchAt detaches the ball and places it at the centre of (row, col).
func launchAt(m *Match, row, col int, vel pong.Vector) {
	m.Serve.Attached = false
	x, y := m.Layout.CellCenter(row, col)
	m.Ball.Pos = pong.Vector{X: x, Y: y}
	m.Ball.Vel = vel
}

func piece(id int, side chess.Side, row, col, life int) *chess.Piece {
	return &chess.Piece{ID: id, Kind: chess.Pawn, Side: side, Row: row, Col: col, Life: life, MaxLife: life}
}

func TestNewMatchStartsAttachedToFirstServer(t *testing.T) {
	m := newTestMatch(t, Confined)

	if !m.Serve.Attached || m.Serve.Owner != chess.Left {
		t.Fatalf("serve = %+v, want attached to left", m.Serve)
	}
	if !m.Ball.Vel.IsZero() {
		t.Fatalf("attached ball velocity = %+v, want zero", m.Ball.Vel)
	}
	if m.Left.Len() != 4 || m.Right.Len() != 4 {
		t.Fatalf("roster sizes = %d/%d, want 4/4", m.Left.Len(), m.Right.Len())
	}

	seen := map[int]bool{}
	for _, r := range []*chess.Roster{m.Left, m.Right} {
		for _, p := range r.Pieces {
			if seen[p.ID] {
				t.Fatalf("duplicate piece id %d", p.ID)
			}
			seen[p.ID] = true
		}
	}
}

func TestNewRejectsNegativeCount(t *testing.T) {
	setup := chess.DefaultSetup(2)
	setup.White["rook"] = chess.KindSetup{Count: -1, Life: 2}

	_, err := New(Options{Setup: setup})
	if !errors.Is(err, chess.ErrNegativeCount) {
		t.Fatalf("err = %v, want ErrNegativeCount", err)
	}
}

func TestSimpleDestruction(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Left.Pieces = []*chess.Piece{piece(1, chess.Left, 0, 0, 1)}
	m.Right.Pieces = []*chess.Piece{piece(2, chess.Right, 1, 7, 1)}
	launchAt(m, 0, 0, pong.Vector{X: -5})

	events := m.Step(Input{})

	if m.Left.Len() != 0 {
		t.Fatalf("left roster has %d pieces, want 0", m.Left.Len())
	}
	if m.ScoreRight != 1 || m.ScoreLeft != 0 {
		t.Fatalf("score = %d-%d, want 0-1", m.ScoreLeft, m.ScoreRight)
	}
	if m.Ball.Vel.X <= 0 {
		t.Fatalf("vx = %f, want pushed away from left", m.Ball.Vel.X)
	}

	var kinds []EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	want := []EventKind{EventPieceHit, EventPieceDestroyed, EventScore, EventGameOver}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	if !m.Over || m.Winner != chess.Right {
		t.Fatalf("over=%v winner=%q, want right to win", m.Over, m.Winner)
	}
}

func TestAtMostOneHitPerTick(t *testing.T) {
	m := newTestMatch(t, Confined)
	// Stack everything on one square so the ball overlaps all of it.
	m.Left.Pieces = []*chess.Piece{piece(1, chess.Left, 0, 2, 3), piece(2, chess.Left, 0, 2, 3)}
	m.Right.Pieces = []*chess.Piece{piece(3, chess.Right, 0, 2, 3)}
	launchAt(m, 0, 2, pong.Vector{})

	events := m.Step(Input{})

	if len(events) != 1 || events[0].Kind != EventPieceHit || events[0].PieceID != 1 {
		t.Fatalf("events = %+v, want one hit on piece 1", events)
	}
	lives := []int{m.Left.Pieces[0].Life, m.Left.Pieces[1].Life, m.Right.Pieces[0].Life}
	if !reflect.DeepEqual(lives, []int{2, 3, 3}) {
		t.Fatalf("lives = %v, want [2 3 3]", lives)
	}

	// Next tick skips the sticky piece and takes the next one in order.
	m.Step(Input{})
	lives = []int{m.Left.Pieces[0].Life, m.Left.Pieces[1].Life, m.Right.Pieces[0].Life}
	if !reflect.DeepEqual(lives, []int{2, 2, 3}) {
		t.Fatalf("lives after second tick = %v, want [2 2 3]", lives)
	}
}

func TestLeftSideResolvedBeforeRight(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Left.Pieces = []*chess.Piece{piece(1, chess.Left, 0, 3, 2)}
	m.Right.Pieces = []*chess.Piece{piece(2, chess.Right, 0, 3, 2)}
	launchAt(m, 0, 3, pong.Vector{X: -1})

	m.Step(Input{})

	if m.Left.Pieces[0].Life != 1 || m.Right.Pieces[0].Life != 2 {
		t.Fatalf("lives left=%d right=%d, want 1 and 2", m.Left.Pieces[0].Life, m.Right.Pieces[0].Life)
	}
	if m.Ball.Vel.X != 1 {
		t.Fatalf("vx = %f, want 1", m.Ball.Vel.X)
	}
}

func TestStickyHitSuppression(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Left.Pieces = []*chess.Piece{piece(1, chess.Left, 1, 2, 4)}
	m.Right.Pieces = nil
	launchAt(m, 1, 2, pong.Vector{})

	for i := 0; i < 10; i++ {
		m.Step(Input{})
	}
	if got := m.Left.Pieces[0].Life; got != 3 {
		t.Fatalf("life after 10 overlapping ticks = %d, want 3", got)
	}
	if m.LastHitID != 1 {
		t.Fatalf("last hit = %d, want 1", m.LastHitID)
	}

	// Leaving the piece clears the sticky reference.
	m.Ball.Pos = pong.Vector{X: m.Layout.Left + 4*m.Layout.CellSize, Y: m.Ball.Pos.Y}
	m.Step(Input{})
	if m.LastHitID != 0 {
		t.Fatalf("last hit after leaving = %d, want 0", m.LastHitID)
	}

	launchAt(m, 1, 2, pong.Vector{})
	m.Step(Input{})
	if got := m.Left.Pieces[0].Life; got != 2 {
		t.Fatalf("life after re-entering = %d, want 2", got)
	}
}

func TestBoundaryReflection(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Serve.Attached = false
	bottom := m.Layout.Bounds().Bottom()
	m.Ball.Pos = pong.Vector{X: m.Layout.Left + 4*m.Layout.CellSize, Y: bottom - m.Ball.Radius - 1}
	m.Ball.Vel = pong.Vector{X: 0, Y: 4}

	m.Step(Input{})

	if m.Ball.Vel.Y != -4 {
		t.Fatalf("vy = %f, want -4", m.Ball.Vel.Y)
	}
	if m.Ball.Rect().Bottom() > bottom {
		t.Fatalf("ball bottom %f is past board bottom %f", m.Ball.Rect().Bottom(), bottom)
	}
}

func TestConfinedReflectsSides(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Serve.Attached = false
	right := m.Layout.Bounds().Right()
	m.Ball.Pos = pong.Vector{X: right - m.Ball.Radius - 1, Y: m.Layout.Top + m.Layout.CellSize}
	m.Ball.Vel = pong.Vector{X: 5}
	m.Right.Pieces = nil

	m.Step(Input{})

	if m.Ball.Vel.X != -5 {
		t.Fatalf("vx = %f, want -5", m.Ball.Vel.X)
	}
}

func TestOpenBoardScoresAndRecenters(t *testing.T) {
	m := newTestMatch(t, Open)
	m.Serve.Attached = false
	m.Ball.Pos = pong.Vector{X: -m.Ball.Radius + 2, Y: m.Layout.Top + 1.5*m.Layout.CellSize}
	m.Ball.Vel = pong.Vector{X: -5}

	events := m.Step(Input{})

	if m.ScoreRight != 1 {
		t.Fatalf("score right = %d, want 1", m.ScoreRight)
	}
	cx, cy := m.Layout.Center()
	if m.Ball.Pos.X != cx || m.Ball.Pos.Y != cy {
		t.Fatalf("ball at %+v, want centre (%f, %f)", m.Ball.Pos, cx, cy)
	}
	if math.Abs(m.Ball.Vel.X) != pong.BallSpeedX || math.Abs(m.Ball.Vel.Y) != pong.BallSpeedY {
		t.Fatalf("recentered velocity = %+v", m.Ball.Vel)
	}
	if len(events) != 2 || events[0].Kind != EventScore || events[1].Kind != EventRecenter {
		t.Fatalf("events = %+v", events)
	}
}

func TestOpenBoardLetsBallPastBoardEdge(t *testing.T) {
	m := newTestMatch(t, Open)
	m.Left.Pieces = nil
	m.Serve.Attached = false
	m.Ball.Pos = pong.Vector{X: m.Layout.Left - m.Ball.Radius - 1, Y: m.Layout.Top + 1.5*m.Layout.CellSize}
	m.Ball.Vel = pong.Vector{X: -5}

	events := m.Step(Input{})

	if m.ScoreLeft != 0 || m.ScoreRight != 0 || len(events) != 0 {
		t.Fatalf("scores %d/%d events %+v, want nothing before the screen edge", m.ScoreLeft, m.ScoreRight, events)
	}
	if m.Ball.Vel.X != -5 {
		t.Fatalf("vx = %f, want -5", m.Ball.Vel.X)
	}
}

func TestOpenBoardBouncesOffScreenTop(t *testing.T) {
	m := newTestMatch(t, Open)
	m.Serve.Attached = false
	m.Ball.Pos = pong.Vector{X: m.Layout.Left - 40, Y: m.Ball.Radius + 1}
	m.Ball.Vel = pong.Vector{X: -1, Y: -4}

	m.Step(Input{})

	if m.Ball.Vel.Y != 4 || m.Ball.Pos.Y != m.Ball.Radius {
		t.Fatalf("ball %+v after top edge, want bounce at y=%f", m.Ball, m.Ball.Radius)
	}
}

func TestPaddleReturnsBallAndTints(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Left.Pieces = nil
	m.Serve.Attached = false
	p := m.LeftPaddle
	m.Ball.Pos = pong.Vector{X: p.X + p.Width/2 + 3, Y: p.CenterY()}
	m.Ball.Vel = pong.Vector{X: -3, Y: 1}

	m.Step(Input{})

	if m.Ball.Vel.X != 3 {
		t.Fatalf("vx = %f, want 3", m.Ball.Vel.X)
	}
	if m.Ball.Color != pong.LeftTint {
		t.Fatalf("color = %v, want %v", m.Ball.Color, pong.LeftTint)
	}
}

func TestPaddleTipGrazeIsIgnored(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Right.Pieces = nil
	m.Serve.Attached = false
	p := m.RightPaddle
	// Overlaps the paddle box only within the top radius band.
	m.Ball.Pos = pong.Vector{X: p.X + p.Width/2, Y: p.Y - m.Ball.Radius + 5}
	m.Ball.Vel = pong.Vector{X: 3}

	m.Step(Input{})

	if m.Ball.Vel.X != 3 {
		t.Fatalf("vx = %f, want graze to keep 3", m.Ball.Vel.X)
	}
	if m.Ball.Color != pong.Neutral {
		t.Fatalf("color = %v, want neutral", m.Ball.Color)
	}
}

func TestServeLaunch(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Serve.Aim = pong.Vector{X: 1}

	events := m.Step(Input{Launch: true})

	if m.Serve.Attached {
		t.Fatalf("serve still attached after launch")
	}
	if len(events) == 0 || events[0].Kind != EventLaunch {
		t.Fatalf("events = %+v, want launch first", events)
	}
	// One tick of travel has happened after the launch.
	if m.Ball.Vel != (pong.Vector{X: 6.4}) {
		t.Fatalf("velocity = %+v, want (6.4, 0)", m.Ball.Vel)
	}
}

func TestAttachedBallFollowsPaddleAndAim(t *testing.T) {
	m := newTestMatch(t, Confined)
	before := m.Ball.Pos

	m.Step(Input{Left: PaddleInput{Down: true}, Pointer: pong.Vector{X: before.X, Y: before.Y + 50}, HasPointer: true})

	if m.Ball.Pos.Y != before.Y+pong.PaddleSpeed {
		t.Fatalf("ball y = %f, want %f", m.Ball.Pos.Y, before.Y+pong.PaddleSpeed)
	}
	if !m.Ball.Vel.IsZero() {
		t.Fatalf("attached ball moving: %+v", m.Ball.Vel)
	}
	if m.Serve.Aim.Len() < 0.999 || m.Serve.Aim.Len() > 1.001 {
		t.Fatalf("aim %+v is not a unit vector", m.Serve.Aim)
	}

	// Pointer on the ball keeps the previous aim.
	aim := m.Serve.Aim
	m.Step(Input{Pointer: m.Ball.Pos, HasPointer: true})
	if m.Serve.Aim != aim {
		t.Fatalf("aim changed to %+v on degenerate pointer", m.Serve.Aim)
	}
}

func TestMirrorNeverSimulates(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Authority = Mirror

	events := m.Step(Input{Launch: true})
	if len(events) != 1 || events[0].Kind != EventServeRequest {
		t.Fatalf("events = %+v, want a serve request", events)
	}
	if !m.Serve.Attached {
		t.Fatalf("mirror launched the serve itself")
	}

	m.Serve.Attached = false
	m.Left.Pieces = []*chess.Piece{piece(1, chess.Left, 0, 0, 1)}
	launchAt(m, 0, 0, pong.Vector{X: -5})
	pos := m.Ball.Pos
	m.Step(Input{})
	if m.Ball.Pos != pos || m.Left.Pieces[0].Life != 1 {
		t.Fatalf("mirror moved the ball or resolved a hit")
	}
}

func TestLifeMonotonicity(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Serve.Aim = pong.Vector{X: 1, Y: 0.3}
	m.Step(Input{Launch: true})

	prev := map[int]int{}
	for tick := 0; tick < 5000 && !m.Over; tick++ {
		m.Step(Input{})
		for _, r := range []*chess.Roster{m.Left, m.Right} {
			for _, p := range r.Pieces {
				if p.Life < 0 || p.Life > p.MaxLife {
					t.Fatalf("tick %d: piece %d life %d outside [0, %d]", tick, p.ID, p.Life, p.MaxLife)
				}
				if last, ok := prev[p.ID]; ok && p.Life > last {
					t.Fatalf("tick %d: piece %d life went up %d -> %d", tick, p.ID, last, p.Life)
				}
				prev[p.ID] = p.Life
			}
		}
	}
}

func TestScorePairsWithDestruction(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Serve.Aim = pong.Vector{X: -1, Y: 0.4}
	m.Step(Input{Launch: true})

	for tick := 0; tick < 5000 && !m.Over; tick++ {
		left, right := m.Left.Len(), m.Right.Len()
		sl, sr := m.ScoreLeft, m.ScoreRight
		for _, e := range m.Step(Input{}) {
			if e.Kind != EventPieceDestroyed {
				continue
			}
			if e.Side == chess.Left && (m.Left.Len() != left-1 || m.ScoreRight != sr+1 || m.ScoreLeft != sl) {
				t.Fatalf("tick %d: left destruction not paired with one right point", tick)
			}
			if e.Side == chess.Right && (m.Right.Len() != right-1 || m.ScoreLeft != sl+1 || m.ScoreRight != sr) {
				t.Fatalf("tick %d: right destruction not paired with one left point", tick)
			}
		}
	}
}

func TestSpeedFactorClampsAndRescales(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Serve.Attached = false
	m.Ball.Vel = pong.Vector{X: 3, Y: 4}

	if got := m.SetSpeedFactor(5); got != MaxSpeedFactor {
		t.Fatalf("factor = %f, want %f", got, MaxSpeedFactor)
	}
	if got := m.Ball.Vel.Len(); math.Abs(got-pong.BaseSpeed*MaxSpeedFactor) > 1e-9 {
		t.Fatalf("speed = %f, want %f", got, pong.BaseSpeed*MaxSpeedFactor)
	}
	if got := m.SetSpeedFactor(0.1); got != MinSpeedFactor {
		t.Fatalf("factor = %f, want %f", got, MinSpeedFactor)
	}
}

func TestResetRebuildsFromSetup(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Left.RemoveAt(0)
	m.ScoreRight = 3
	m.Serve.Attached = false

	m.Reset()

	if m.Left.Len() != 4 || m.ScoreRight != 0 || !m.Serve.Attached || m.Serve.Owner != chess.Left {
		t.Fatalf("reset left %d pieces, score %d, serve %+v", m.Left.Len(), m.ScoreRight, m.Serve)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	m := newTestMatch(t, Confined)
	m.Left.Pieces[1].ApplyDamage(1)
	m.Right.RemoveAt(2)
	m.ScoreLeft = 1
	m.ScoreRight = 2
	m.SetSpeedFactor(1.3)
	m.SetPaddleY(chess.Right, 300)
	m.Serve.Attached = false
	m.Ball = pong.Ball{Pos: pong.Vector{X: 400, Y: 280}, Vel: pong.Vector{X: -3.5, Y: 2.25}, Radius: pong.BallRadius, Color: pong.RightTint}

	s := m.Serialize()

	other := newTestMatch(t, Confined)
	if err := other.Deserialize(s); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got := other.Serialize(); !reflect.DeepEqual(got, s) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
	for i, p := range m.Right.Pieces {
		if *other.Right.Pieces[i] != *p {
			t.Fatalf("right piece %d = %+v, want %+v", i, *other.Right.Pieces[i], *p)
		}
	}
}

func TestDeserializeRejectsOtherBoard(t *testing.T) {
	m := newTestMatch(t, Confined)
	s := m.Serialize()
	s.Rows = 4
	s.ScoreLeft = 9

	err := m.Deserialize(s)
	if !errors.Is(err, ErrRowsMismatch) {
		t.Fatalf("err = %v, want ErrRowsMismatch", err)
	}
	if m.ScoreLeft != 0 {
		t.Fatalf("state changed on failed load")
	}
}

func TestDeserializeClampsAndReassignsIDs(t *testing.T) {
	m := newTestMatch(t, Confined)
	s := m.Serialize()
	s.PiecesLeft = []PieceState{
		{ID: 5, Kind: "rook", Color: "white", Row: 0, Col: 0, Life: 9, MaxLife: 2},
		{ID: 5, Kind: "pawn", Color: "white", Row: 1, Col: 0, Life: 1, MaxLife: 1},
		{Kind: "pawn", Color: "white", Row: 0, Col: 1, Life: 0, MaxLife: 1},
	}

	if err := m.Deserialize(s); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if m.Left.Len() != 2 {
		t.Fatalf("left has %d pieces, want the dead one dropped", m.Left.Len())
	}
	if m.Left.Pieces[0].Life != 2 {
		t.Fatalf("life = %d, want clamped to 2", m.Left.Pieces[0].Life)
	}
	if m.Left.Pieces[0].ID == m.Left.Pieces[1].ID {
		t.Fatalf("duplicate id %d kept", m.Left.Pieces[0].ID)
	}
}
