package geom

import "math"

// Tolerance is the distance within which a point is considered on a line.
const Tolerance = 1e-3

// Line is the infinite line y = m*x + c. A vertical line has m = +Inf and
// is located by its x-intercept b instead.
type Line struct {
	m   float64 // gradient
	inv float64 // inverse gradient, 1/m
	c   float64 // y-intercept, meaningful only when m is finite
	b   float64 // x-intercept, meaningful only when m is infinite
	e   float64
}

// NewLine builds the line through p with gradient m.
func NewLine(p Vec2, m, e float64) Line {
	if math.IsInf(m, 0) {
		m = math.Inf(1)
	}
	return Line{
		m:   m,
		inv: 1 / m,
		c:   p.Y - m*p.X,
		b:   p.X,
		e:   e,
	}
}

// NewLineThrough builds the line through p running along dir.
func NewLineThrough(p, dir Vec2, e float64) Line {
	return NewLine(p, dir.Y/dir.X, e)
}

// NewLineBetween builds the line through p0 and p1.
func NewLineBetween(p0, p1 Vec2, e float64) Line {
	return NewLineThrough(p0, p1.Minus(p0), e)
}

func (l Line) Kind() Kind          { return KindLine }
func (l Line) Elasticity() float64 { return l.e }

func (l Line) Bounds() AABB {
	inf := math.Inf(1)
	return AABB{Left: -inf, Right: inf, Bottom: -inf, Top: inf}
}

func (l Line) Gradient() float64 { return l.m }

func (l Line) Vertical() bool { return math.IsInf(l.m, 0) }

// YIntercept is only meaningful for non-vertical lines.
func (l Line) YIntercept() float64 { return l.c }

// XIntercept is only meaningful for vertical lines.
func (l Line) XIntercept() float64 { return l.b }

// Intersect returns the crossing point of l and o. Lines with equal
// gradients never intersect, coincident ones included.
func (l Line) Intersect(o Line) (Vec2, bool) {
	if l.m == o.m {
		return Vec2{}, false
	}

	lv, ov := l.Vertical(), o.Vertical()
	switch {
	case !lv && !ov:
		x := (o.c - l.c) / (l.m - o.m)
		return Vec2{X: x, Y: l.m*x + l.c}, true
	case lv && !ov:
		return Vec2{X: l.b, Y: o.m*l.b + o.c}, true
	case !lv && ov:
		return Vec2{X: o.b, Y: l.m*o.b + l.c}, true
	}
	return Vec2{}, false
}

// Contains reports whether p lies on l within Tolerance.
func (l Line) Contains(p Vec2) bool {
	if !l.Vertical() {
		return math.Abs(p.Y-l.m*p.X-l.c) < Tolerance
	}
	return math.Abs(p.X-l.b) < Tolerance
}

// ClosestPoint returns the foot of the perpendicular from p onto l.
func (l Line) ClosestPoint(p Vec2) Vec2 {
	var perp Line
	if l.inv == 0 || math.IsInf(l.inv, 0) {
		perp = NewLine(p, l.inv, 0)
	} else {
		perp = NewLine(p, -l.inv, 0)
	}
	q, _ := l.Intersect(perp)
	return q
}

// Normal returns the unit normal of l pointing into the half-plane that
// dir points into. It fails when dir runs along the line.
func (l Line) Normal(dir Vec2) (Vec2, bool) {
	var p0 Vec2
	if !l.Vertical() {
		p0 = Vec2{X: 0, Y: l.c}
	} else {
		p0 = Vec2{X: l.b, Y: 0}
	}

	p1 := p0.Plus(dir.Times(100))
	if l.Contains(p1) {
		return Vec2{}, false
	}
	return p1.Minus(l.ClosestPoint(p1)).Normalize(), true
}
