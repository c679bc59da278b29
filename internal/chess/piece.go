package chess

import "fmt"

type Kind string

const (
	Pawn   Kind = "pawn"
	Rook   Kind = "rook"
	Knight Kind = "knight"
	Bishop Kind = "bishop"
	Queen  Kind = "queen"
	King   Kind = "king"
)

// Kinds lists every piece kind in display order.
var Kinds = []Kind{Pawn, Rook, Knight, Bishop, Queen, King}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown piece kind %q", s)
}

// DefaultLife is the starting life of each kind when the setup does not say.
var DefaultLife = map[Kind]int{
	Pawn:   1,
	Rook:   2,
	Knight: 2,
	Bishop: 2,
	Queen:  3,
	King:   4,
}

// Side is one of the two players. Left plays white and is always resolved first.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

func ParseSide(s string) (Side, error) {
	switch s {
	case string(Left), "white":
		return Left, nil
	case string(Right), "dark":
		return Right, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

func (s Side) Opponent() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Color is the piece set colour used by snapshots and setup files.
func (s Side) Color() string {
	if s == Left {
		return "white"
	}
	return "dark"
}

type Piece struct {
	ID      int
	Kind    Kind
	Side    Side
	Row     int
	Col     int
	Life    int
	MaxLife int
}

func (p *Piece) Alive() bool {
	return p.Life > 0
}

// ApplyDamage removes n life points. Life never goes below zero and a
// non-positive n does nothing. It returns the resulting life.
func (p *Piece) ApplyDamage(n int) int {
	if n <= 0 {
		return p.Life
	}
	p.Life -= n
	if p.Life < 0 {
		p.Life = 0
	}
	return p.Life
}

// SetLife overwrites life, clamped into [0, MaxLife]. Used when applying
// authoritative state from the network or a snapshot.
func (p *Piece) SetLife(life int) {
	if life < 0 {
		life = 0
	}
	if life > p.MaxLife {
		life = p.MaxLife
	}
	p.Life = life
}
