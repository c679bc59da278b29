package chess

// Roster is the ordered set of pieces still standing for one side. Positional
// indices shift whenever a piece is removed, ids never do.
type Roster struct {
	Side   Side
	Pieces []*Piece
}

func NewRoster(side Side) *Roster {
	return &Roster{Side: side}
}

func (r *Roster) Len() int {
	return len(r.Pieces)
}

func (r *Roster) Add(p *Piece) {
	r.Pieces = append(r.Pieces, p)
}

// At returns the piece at index i, or nil when i is out of range.
func (r *Roster) At(i int) *Piece {
	if i < 0 || i >= len(r.Pieces) {
		return nil
	}
	return r.Pieces[i]
}

// IndexOf returns the current position of the piece with the given id, or -1.
func (r *Roster) IndexOf(id int) int {
	for i, p := range r.Pieces {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Roster) ByID(id int) *Piece {
	return r.At(r.IndexOf(id))
}

// RemoveAt drops the piece at index i keeping the order of the rest.
func (r *Roster) RemoveAt(i int) *Piece {
	p := r.At(i)
	if p == nil {
		return nil
	}
	r.Pieces = append(r.Pieces[:i], r.Pieces[i+1:]...)
	return p
}

// Snapshot returns a copy of the piece slice so callers can iterate while the
// roster itself is mutated.
func (r *Roster) Snapshot() []*Piece {
	out := make([]*Piece, len(r.Pieces))
	copy(out, r.Pieces)
	return out
}

// Alive counts pieces with life left.
func (r *Roster) Alive() int {
	n := 0
	for _, p := range r.Pieces {
		if p.Alive() {
			n++
		}
	}
	return n
}
