package pong

import (
	"math"

	"chessping/internal/chess"
)

// serveGap is the distance in pixels between the paddle face and the ball
// while the ball waits on the paddle.
const serveGap = 2

// Serve is the pre-launch phase. While Attached the ball follows the owning
// paddle and Aim tracks the pointer. Launch is one way; only a match reset
// attaches the ball again.
type Serve struct {
	Attached bool
	Owner    chess.Side
	Aim      Vector
}

// NewServe attaches the ball to owner, aiming straight at the opponent.
func NewServe(owner chess.Side) Serve {
	return Serve{
		Attached: true,
		Owner:    owner,
		Aim:      DefaultAim(owner),
	}
}

func DefaultAim(owner chess.Side) Vector {
	if owner == chess.Left {
		return Vector{X: 1}
	}
	return Vector{X: -1}
}

// Pin places the ball in front of the owner's paddle and stops it.
func (s *Serve) Pin(b *Ball, p *Paddle) {
	if !s.Attached {
		return
	}
	x := p.X + p.Width + b.Radius + serveGap
	if s.Owner == chess.Right {
		x = p.X - b.Radius - serveGap
	}
	b.Pos = Vector{X: x, Y: p.CenterY()}
	b.Vel = Vector{}
}

// Track points the aim from the ball towards pointer. A pointer sitting on the
// ball centre keeps the previous aim.
func (s *Serve) Track(b *Ball, pointer Vector) {
	if !s.Attached {
		return
	}
	if dir, ok := pointer.Sub(b.Pos).Normalize(); ok {
		s.Aim = dir
	}
}

// Launch sends the ball along the aim. It returns false when the ball was not
// attached.
func (s *Serve) Launch(b *Ball, speedFactor float64) bool {
	if !s.Attached {
		return false
	}
	aim, ok := s.Aim.Normalize()
	if !ok {
		aim = DefaultAim(s.Owner)
	}
	s.Aim = aim
	b.Vel = aim.Scale(BaseSpeed * speedFactor)
	s.Attached = false
	return true
}

// AimAngle is the aim direction in radians.
func (s *Serve) AimAngle() float64 {
	return math.Atan2(s.Aim.Y, s.Aim.X)
}

// SetAngle points the aim along angle, in radians.
func (s *Serve) SetAngle(angle float64) {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return
	}
	s.Aim = Vector{X: math.Cos(angle), Y: math.Sin(angle)}
}
