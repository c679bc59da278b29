package pong

import (
	"math"

	"chessping/internal/board"
)

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Add(o Vector) Vector    { return Vector{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector    { return Vector{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vector) Scale(f float64) Vector { return Vector{X: v.X * f, Y: v.Y * f} }
func (v Vector) Len() float64           { return math.Hypot(v.X, v.Y) }
func (v Vector) IsZero() bool           { return v.X == 0 && v.Y == 0 }

// Normalize returns the unit vector along v. ok is false when v has no usable
// length, in which case the zero vector is returned.
func (v Vector) Normalize() (Vector, bool) {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vector{}, false
	}
	return Vector{X: v.X / l, Y: v.Y / l}, true
}

type RGB [3]uint8

var (
	Neutral   = RGB{0, 0, 0}
	LeftTint  = RGB{255, 0, 0}
	RightTint = RGB{0, 0, 255}
)

type Ball struct {
	Pos    Vector
	Vel    Vector
	Radius float64
	Color  RGB
}

func (b *Ball) Rect() board.Rect {
	return board.Rect{
		X: b.Pos.X - b.Radius,
		Y: b.Pos.Y - b.Radius,
		W: 2 * b.Radius,
		H: 2 * b.Radius,
	}
}

// Paddle only ever moves vertically. X and the size are fixed at creation.
type Paddle struct {
	X, Y          float64
	Width, Height float64
	Tint          RGB
}

func (p *Paddle) Rect() board.Rect {
	return board.Rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height}
}

func (p *Paddle) CenterY() float64 {
	return p.Y + p.Height/2
}
