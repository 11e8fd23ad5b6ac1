package domain

// Route is one winning line: a row, a column or a diagonal.
type Route [Size]Coord

// Contains reports whether c lies on the route.
func (r Route) Contains(c Coord) bool {
	for _, rc := range r {
		if rc == c {
			return true
		}
	}
	return false
}

// Cells returns the cell values along the route, in route order.
func (r Route) Cells(b *Board) [Size]Cell {
	var out [Size]Cell
	for i, c := range r {
		out[i] = b.At(c)
	}
	return out
}

// Owner returns the actor holding every cell of the route, if any.
func (r Route) Owner(b *Board) (Cell, bool) {
	cells := r.Cells(b)
	for _, actor := range [...]Cell{Player, Computer} {
		owned := true
		for _, c := range cells {
			if c != actor {
				owned = false
				break
			}
		}
		if owned {
			return actor, true
		}
	}
	return Empty, false
}

// RouteTable holds every route in a fixed order. The order decides
// which route is reported when several qualify.
type RouteTable []Route

// NewRouteTable builds the 2*Size+2 routes: for each index the column
// then the row, followed by the main and the anti diagonal.
func NewRouteTable() RouteTable {
	t := make(RouteTable, 0, 2*Size+2)
	var diag, anti Route
	for m := 0; m < Size; m++ {
		var vertical, horizontal Route
		for n := 0; n < Size; n++ {
			vertical[n] = Coord{Col: m, Row: n}
			horizontal[n] = Coord{Col: n, Row: m}
		}
		diag[m] = Coord{Col: m, Row: m}
		anti[m] = Coord{Col: Size - 1 - m, Row: m}
		t = append(t, vertical, horizontal)
	}
	return append(t, diag, anti)
}

// Routes is the shared read-only table.
var Routes = NewRouteTable()

// Progress scores every route as count(self) - count(other), in table order.
func (t RouteTable) Progress(b *Board, self, other Cell) []int {
	out := make([]int, len(t))
	for i, r := range t {
		for _, c := range r {
			switch b.At(c) {
			case self:
				out[i]++
			case other:
				out[i]--
			}
		}
	}
	return out
}

// Winner scans routes in table order and returns the first owned one.
func (t RouteTable) Winner(b *Board) (Cell, Route, bool) {
	for _, r := range t {
		if actor, ok := r.Owner(b); ok {
			return actor, r, true
		}
	}
	return Empty, Route{}, false
}
