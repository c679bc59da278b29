package board

const (
	ScreenWidth  = 900
	ScreenHeight = 600
	Cols         = 8
	MaxRows      = 8

	maxCellSize = 80
	boardMargin = 20
	pieceScale  = 0.6
)

// Rect is an axis aligned box in screen pixels.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.H }

func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Overlaps reports whether the two boxes share interior area. Boxes that only
// touch along an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Inset shrinks the box by dx on the left and right and dy on the top and bottom.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Layout maps grid coordinates to screen pixels for one match. It is a value:
// build it once from the row count and pass it to whoever needs geometry.
type Layout struct {
	Rows     int
	Cols     int
	CellSize float64
	Left     float64
	Top      float64
}

func NewLayout(rows int) Layout {
	if rows < 1 {
		rows = 1
	}
	if rows > MaxRows {
		rows = MaxRows
	}

	cell := float64((ScreenHeight - 2*boardMargin) / rows)
	if cell > maxCellSize {
		cell = maxCellSize
	}

	w := cell * Cols
	h := cell * float64(rows)
	return Layout{
		Rows:     rows,
		Cols:     Cols,
		CellSize: cell,
		Left:     float64(int((ScreenWidth - w) / 2)),
		Top:      float64(int((ScreenHeight - h) / 2)),
	}
}

func (l Layout) Width() float64  { return l.CellSize * float64(l.Cols) }
func (l Layout) Height() float64 { return l.CellSize * float64(l.Rows) }

// Bounds is the board rectangle.
func (l Layout) Bounds() Rect {
	return Rect{X: l.Left, Y: l.Top, W: l.Width(), H: l.Height()}
}

// Screen is the full playfield rectangle.
func (l Layout) Screen() Rect {
	return Rect{W: ScreenWidth, H: ScreenHeight}
}

func (l Layout) CellRect(row, col int) Rect {
	return Rect{
		X: l.Left + float64(col)*l.CellSize,
		Y: l.Top + float64(row)*l.CellSize,
		W: l.CellSize,
		H: l.CellSize,
	}
}

func (l Layout) CellCenter(row, col int) (float64, float64) {
	return l.CellRect(row, col).Center()
}

// PieceRect is the hit box of a piece standing on (row, col).
func (l Layout) PieceRect(row, col int) Rect {
	size := l.CellSize * pieceScale
	cx, cy := l.CellCenter(row, col)
	return Rect{X: cx - size/2, Y: cy - size/2, W: size, H: size}
}

// Contains reports whether (row, col) is on the board.
func (l Layout) Contains(row, col int) bool {
	return row >= 0 && row < l.Rows && col >= 0 && col < l.Cols
}

// Center is the centre of the board.
func (l Layout) Center() (float64, float64) {
	return l.Bounds().Center()
}
