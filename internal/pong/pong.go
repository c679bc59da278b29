package pong

import (
	"math"

	"golang.org/x/exp/rand"

	"chessping/internal/board"
)

const (
	BallRadius   = 10
	BallSpeedX   = 5
	BallSpeedY   = 4
	PaddleWidth  = 20
	PaddleHeight = 100
	PaddleSpeed  = 6

	// BaseSpeed is the launch speed of a serve at a speed factor of 1.
	BaseSpeed = 6.4
)

// Advance moves the ball one tick along its velocity.
func (b *Ball) Advance() {
	b.Pos = b.Pos.Add(b.Vel)
}

// Reflect bounces the ball off the edges of bounds. Top and bottom always
// reflect; left and right only when confined is set. The velocity component is
// forced away from the crossed edge so a ball can not get stuck outside.
func (b *Ball) Reflect(bounds board.Rect, confined bool) {
	r := b.Rect()

	if r.Top() <= bounds.Top() {
		b.Pos.Y = bounds.Top() + b.Radius
		b.Vel.Y = math.Abs(b.Vel.Y)
	} else if r.Bottom() >= bounds.Bottom() {
		b.Pos.Y = bounds.Bottom() - b.Radius
		b.Vel.Y = -math.Abs(b.Vel.Y)
	}

	if !confined {
		return
	}
	if r.Left() <= bounds.Left() {
		b.Pos.X = bounds.Left() + b.Radius
		b.Vel.X = math.Abs(b.Vel.X)
	} else if r.Right() >= bounds.Right() {
		b.Pos.X = bounds.Right() - b.Radius
		b.Vel.X = -math.Abs(b.Vel.X)
	}
}

// OutLeft reports whether the ball has fully left through the left edge.
func (b *Ball) OutLeft(bounds board.Rect) bool {
	return b.Rect().Right() < bounds.Left()
}

func (b *Ball) OutRight(bounds board.Rect) bool {
	return b.Rect().Left() > bounds.Right()
}

// Recenter puts the ball back in the middle with a random diagonal velocity.
func (b *Ball) Recenter(x, y, speedFactor float64, rng *rand.Rand) {
	b.Pos = Vector{X: x, Y: y}
	b.Vel = Vector{
		X: float64(rng.Intn(2)*2-1) * BallSpeedX * speedFactor,
		Y: float64(rng.Intn(2)*2-1) * BallSpeedY * speedFactor,
	}
	b.Color = Neutral
}

// SetSpeed rescales a moving ball so its speed matches factor. A resting ball
// is left alone.
func (b *Ball) SetSpeed(factor float64) {
	dir, ok := b.Vel.Normalize()
	if !ok {
		return
	}
	b.Vel = dir.Scale(BaseSpeed * factor)
}

// Move applies one tick of held direction keys and clamps the paddle inside
// the vertical extent of bounds.
func (p *Paddle) Move(up, down bool, bounds board.Rect) {
	if up {
		p.Y -= PaddleSpeed
	}
	if down {
		p.Y += PaddleSpeed
	}
	p.ClampTo(bounds)
}

func (p *Paddle) ClampTo(bounds board.Rect) {
	if p.Y < bounds.Top() {
		p.Y = bounds.Top()
	}
	if p.Y+p.Height > bounds.Bottom() {
		p.Y = bounds.Bottom() - p.Height
	}
}

// HitBox is the paddle box shrunk vertically by the ball radius on both
// edges, so a graze on the paddle tip does not count as a return.
func (p *Paddle) HitBox(radius float64) board.Rect {
	return p.Rect().Inset(0, radius)
}
