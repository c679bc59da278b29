package chess

import (
	"errors"
	"fmt"
)

var (
	ErrTooManyPieces = errors.New("more pieces than squares")
	ErrNegativeCount = errors.New("negative piece count")
)

// KindSetup is how many pieces of one kind a side starts with and their life.
type KindSetup struct {
	Count int `json:"count" toml:"count"`
	Life  int `json:"life" toml:"life"`
}

// Setup is the pre-match configuration handed over by the setup screen or a
// setup file. Keys of White and Dark are piece kinds.
type Setup struct {
	Rows  int                  `json:"rows" toml:"rows"`
	White map[string]KindSetup `json:"white" toml:"white"`
	Dark  map[string]KindSetup `json:"dark" toml:"dark"`
}

var standardCounts = map[Kind]int{
	Pawn:   8,
	Rook:   2,
	Knight: 2,
	Bishop: 2,
	Queen:  1,
	King:   1,
}

// Pieces beyond the square limit are dropped in this order, last first.
var keepPriority = []Kind{Rook, Queen, King, Bishop, Knight, Pawn}

// Placement order on the board: heavy pieces first, pawns last.
var placementOrder = []Kind{Rook, Knight, Bishop, Queen, King, Pawn}

// DefaultSetup is the standard chess set truncated to fit two columns of the
// given row count.
func DefaultSetup(rows int) Setup {
	s := Setup{
		Rows:  rows,
		White: map[string]KindSetup{},
		Dark:  map[string]KindSetup{},
	}

	remaining := 2 * rows
	counts := map[Kind]int{}
	for _, k := range keepPriority {
		take := min(standardCounts[k], max(remaining, 0))
		counts[k] = take
		remaining -= take
	}

	for _, k := range Kinds {
		ks := KindSetup{Count: counts[k], Life: DefaultLife[k]}
		s.White[string(k)] = ks
		s.Dark[string(k)] = ks
	}
	return s
}

func (s Setup) ForSide(side Side) map[string]KindSetup {
	if side == Left {
		return s.White
	}
	return s.Dark
}

// Validate rejects unknown kinds, negative counts and sides that do not fit
// in their two columns.
func (s Setup) Validate() error {
	if s.Rows < 1 {
		return fmt.Errorf("invalid row count %d", s.Rows)
	}
	for _, side := range []Side{Left, Right} {
		total := 0
		for name, ks := range s.ForSide(side) {
			if _, err := ParseKind(name); err != nil {
				return fmt.Errorf("%s setup: %w", side.Color(), err)
			}
			if ks.Count < 0 {
				return fmt.Errorf("%s setup: %d %s: %w", side.Color(), ks.Count, name, ErrNegativeCount)
			}
			total += ks.Count
		}
		if total > 2*s.Rows {
			return fmt.Errorf("%s setup has %d pieces for %d squares: %w", side.Color(), total, 2*s.Rows, ErrTooManyPieces)
		}
	}
	return nil
}

// Normalize clamps every life to at least 1 and missing kinds to zero pieces.
func (s Setup) Normalize() Setup {
	out := Setup{Rows: s.Rows, White: map[string]KindSetup{}, Dark: map[string]KindSetup{}}
	for _, side := range []Side{Left, Right} {
		src := s.ForSide(side)
		dst := out.ForSide(side)
		for _, k := range Kinds {
			ks, ok := src[string(k)]
			if !ok {
				ks = KindSetup{Life: DefaultLife[k]}
			}
			if ks.Count < 0 {
				ks.Count = 0
			}
			if ks.Life < 1 {
				ks.Life = 1
			}
			dst[string(k)] = ks
		}
	}
	return out
}

// Columns returns the back and front column of a side on a board with cols
// columns. Left fills from the left edge, right from the right edge.
func Columns(side Side, cols int) (back, front int) {
	if side == Left {
		return 0, 1
	}
	return cols - 1, cols - 2
}

// IDSource hands out monotonically increasing piece ids.
type IDSource struct {
	last int
}

func (s *IDSource) Next() int {
	s.last++
	return s.last
}

// Observe makes sure later ids do not collide with id.
func (s *IDSource) Observe(id int) {
	if id > s.last {
		s.last = id
	}
}

// BuildRoster places a side's pieces: back column top to bottom, then the
// front column. The setup must already be validated.
func BuildRoster(s Setup, side Side, cols int, ids *IDSource) *Roster {
	r := NewRoster(side)
	back, front := Columns(side, cols)

	slot := 0
	cfg := s.ForSide(side)
	for _, k := range placementOrder {
		ks := cfg[string(k)]
		life := max(ks.Life, 1)
		for i := 0; i < ks.Count; i++ {
			if slot >= 2*s.Rows {
				return r
			}
			col := back
			row := slot
			if slot >= s.Rows {
				col = front
				row = slot - s.Rows
			}
			r.Add(&Piece{
				ID:      ids.Next(),
				Kind:    k,
				Side:    side,
				Row:     row,
				Col:     col,
				Life:    life,
				MaxLife: life,
			})
			slot++
		}
	}
	return r
}
