package geom

// Segment is a Line restricted to the stretch between two arena points.
type Segment struct {
	Line
	arena    *Arena
	p0, p1   PointID
	open     bool
	oneWay   bool
	canCross Vec2
}

// NewClosedSegment allocates both endpoints in the arena. The endpoints are
// collidable and share the segment's elasticity.
func NewClosedSegment(a *Arena, p0, p1 Vec2, e float64) *Segment {
	return &Segment{
		Line:  NewLineBetween(p0, p1, e),
		arena: a,
		p0:    a.Add(NewPoint(p0, e)),
		p1:    a.Add(NewPoint(p1, e)),
	}
}

// NewOpenSegment joins two points owned by someone else. Its endpoints are
// not collided with as part of the segment.
func NewOpenSegment(a *Arena, p0, p1 PointID, e float64) *Segment {
	return &Segment{
		Line:  NewLineBetween(a.Point(p0).Pos(), a.Point(p1).Pos(), e),
		arena: a,
		p0:    p0,
		p1:    p1,
		open:  true,
	}
}

// NewOneWaySegment is an open segment that can be passed through by anything
// moving along canCross.
func NewOneWaySegment(a *Arena, p0, p1 PointID, canCross Vec2, e float64) *Segment {
	s := NewOpenSegment(a, p0, p1, e)
	s.oneWay = true
	s.canCross = canCross
	return s
}

func (s *Segment) Kind() Kind { return KindSegment }

func (s *Segment) Bounds() AABB {
	a, b := s.Endpoints()
	pa, pb := a.Pos(), b.Pos()
	return AABB{
		Left:   min(pa.X, pb.X),
		Right:  max(pa.X, pb.X),
		Bottom: min(pa.Y, pb.Y),
		Top:    max(pa.Y, pb.Y),
	}
}

func (s *Segment) Endpoints() (Point, Point) {
	return s.arena.Point(s.p0), s.arena.Point(s.p1)
}

func (s *Segment) Open() bool { return s.open }

func (s *Segment) OneWay() bool { return s.oneWay }

// CanCross is the crossable direction of a one-way segment.
func (s *Segment) CanCross() Vec2 { return s.canCross }

// Passes reports whether a one-way segment lets velocity v through.
func (s *Segment) Passes(v Vec2) bool {
	return s.oneWay && v.Dot(s.canCross) > 0
}

// Contains reports whether p is on the line strictly between the endpoints.
func (s *Segment) Contains(p Vec2) bool {
	a, b := s.Endpoints()
	pa, pb := a.Pos(), b.Pos()
	return s.Line.Contains(p) &&
		!p.IsEqualTo(pa) && !p.IsEqualTo(pb) &&
		pa.Minus(p).Dot(pb.Minus(p)) < 0
}

// IntersectCircle reports whether the segment touches c.
func (s *Segment) IntersectCircle(c *Circle) bool {
	a, b := s.Endpoints()
	if c.Contains(a.Pos()) || c.Contains(b.Pos()) {
		return true
	}
	q := s.ClosestPoint(c.Pos())
	return c.Contains(q) && s.Contains(q)
}
