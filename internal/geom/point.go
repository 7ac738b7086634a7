package geom

// Point is a fixed collidable point, treated as a circle of radius zero.
type Point struct {
	pos Vec2
	e   float64
}

func NewPoint(p Vec2, e float64) Point {
	return Point{pos: p, e: e}
}

func (p Point) Pos() Vec2           { return p.pos }
func (p Point) Kind() Kind          { return KindPoint }
func (p Point) Elasticity() float64 { return p.e }
func (p Point) Bounds() AABB        { return AABB{} }

// PointID is a handle into an Arena.
type PointID int

// Arena owns every endpoint Point of a layout. Closed segments allocate
// their own pair, open segments reference handles allocated elsewhere.
// Everything is released together by Reset.
type Arena struct {
	points []Point
}

func NewArena() *Arena {
	return &Arena{}
}

// Add stores p and returns its handle.
func (a *Arena) Add(p Point) PointID {
	a.points = append(a.points, p)
	return PointID(len(a.points) - 1)
}

// Point returns the point behind id. It panics on a handle from another arena.
func (a *Arena) Point(id PointID) Point {
	return a.points[id]
}

func (a *Arena) Len() int {
	return len(a.points)
}

func (a *Arena) Reset() {
	a.points = a.points[:0]
}
