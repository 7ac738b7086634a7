// Package collide resolves continuous collisions between a moving circle
// and the static scenery or another moving circle. Every Collide method
// either reports no contact and leaves all state untouched, or rolls the
// circle back to its time of impact, responds, and re-advances it for the
// time that remained in the step.
package collide

import (
	"math"

	"github.com/playmatatu/tablephysics/internal/geom"
)

// MaxSpeed caps the speed of every moving circle after a response.
const MaxSpeed = 12.0

// Contact describes one resolved collision.
type Contact struct {
	Point  geom.Vec2 // point of impact
	Center geom.Vec2 // centre of the moving circle at the time of impact
}

// MovingCircle is a ball with velocity and a mass of pi*r^3.
type MovingCircle struct {
	pos, vel geom.Vec2
	r, rsq   float64
	mass     float64
	scale    float64
	e        float64
}

func NewMovingCircle(pos, vel geom.Vec2, r, e, scale float64) *MovingCircle {
	return &MovingCircle{
		pos:   pos,
		vel:   vel,
		r:     r,
		rsq:   r * r,
		mass:  math.Pi * r * r * r,
		scale: scale,
		e:     e,
	}
}

func (c *MovingCircle) Kind() geom.Kind     { return geom.KindMovingCircle }
func (c *MovingCircle) Elasticity() float64 { return c.e }
func (c *MovingCircle) Pos() geom.Vec2      { return c.pos }
func (c *MovingCircle) Vel() geom.Vec2      { return c.vel }
func (c *MovingCircle) Radius() float64     { return c.r }
func (c *MovingCircle) Mass() float64       { return c.mass }
func (c *MovingCircle) Scale() float64      { return c.scale }

func (c *MovingCircle) Bounds() geom.AABB {
	return geom.AABB{Left: -c.r, Right: c.r, Bottom: -c.r, Top: c.r}
}

func (c *MovingCircle) SetPos(p geom.Vec2) { c.pos = p }
func (c *MovingCircle) SetVel(v geom.Vec2) { c.vel = v }

// Advance moves the circle along its velocity for t time units.
func (c *MovingCircle) Advance(t float64) {
	c.pos = c.pos.Plus(c.vel.Times(t))
}

// LimitSpeed scales the velocity down to MaxSpeed if it is faster.
func (c *MovingCircle) LimitSpeed() {
	c.vel = LimitSpeed(c.vel, MaxSpeed)
}

// LimitSpeed returns v clamped to a magnitude of at most max.
func LimitSpeed(v geom.Vec2, max float64) geom.Vec2 {
	if v.MagnitudeSquared() <= max*max {
		return v
	}
	return v.Normalize().Times(max)
}

// reflect bounces the velocity off a surface with unit normal n.
func (c *MovingCircle) reflect(n geom.Vec2, e float64) {
	c.vel = c.vel.Minus(n.Times((1 + e) * c.vel.Dot(n)))
}

// Collide dispatches on the variant of s.
func (c *MovingCircle) Collide(s geom.Shape) (Contact, bool) {
	switch o := s.(type) {
	case geom.Point:
		return c.CollidePoint(o)
	case geom.Line:
		return c.CollideLine(o)
	case *geom.Segment:
		return c.CollideSegment(o)
	case *geom.Circle:
		return c.CollideCircle(o)
	case *MovingCircle:
		return c.CollideMoving(o)
	}
	return Contact{}, false
}

// CollidePoint treats p as a circle of radius zero.
func (c *MovingCircle) CollidePoint(p geom.Point) (Contact, bool) {
	return c.CollideCircle(geom.NewCircle(p.Pos(), 0, p.Elasticity()))
}

// CollideLine resolves contact with an infinite line.
func (c *MovingCircle) CollideLine(l geom.Line) (Contact, bool) {
	p0 := c.pos
	p1 := l.ClosestPoint(p0)
	if p1.Minus(p0).MagnitudeSquared() >= c.rsq {
		return Contact{}, false
	}
	if p1.Minus(p0).Dot(c.vel) <= 0 {
		return Contact{}, false
	}

	n, ok := l.Normal(c.vel.Invert())
	if !ok {
		return Contact{}, false
	}

	// Centre at impact: on the parallel line one radius off the surface,
	// along the line of travel.
	p2 := p1.Plus(n.Times(c.r))
	offset := geom.NewLine(p2, l.Gradient(), 0)
	travel := geom.NewLineThrough(p0, c.vel, 0)
	p3, ok := offset.Intersect(travel)
	if !ok {
		return Contact{}, false
	}

	t := p3.Minus(p0).Magnitude() / c.vel.Magnitude()
	c.pos = p3
	c.reflect(n, c.e*l.Elasticity())
	c.LimitSpeed()
	c.Advance(t)

	return Contact{Point: p3.Minus(n.Times(c.r)), Center: p3}, true
}

// CollideSegment resolves contact with a segment. Closed segments own
// collidable endpoints, which are tried first. A one-way segment is
// ignored by anything moving along its crossable direction.
func (c *MovingCircle) CollideSegment(s *geom.Segment) (Contact, bool) {
	if s.Passes(c.vel) {
		return Contact{}, false
	}

	if !s.Open() {
		a, b := s.Endpoints()
		if hit, ok := c.CollidePoint(a); ok {
			return hit, true
		}
		if hit, ok := c.CollidePoint(b); ok {
			return hit, true
		}
	}

	if !s.Contains(s.ClosestPoint(c.pos)) {
		return Contact{}, false
	}

	trial := *c
	hit, ok := trial.CollideLine(s.Line)
	if !ok || !s.Contains(hit.Point) {
		return Contact{}, false
	}
	c.pos, c.vel = trial.pos, trial.vel
	return hit, true
}

// DistToTOI returns how far the circle must back up along vhat to just
// touch a circle of radius r at pos.
func (c *MovingCircle) DistToTOI(pos geom.Vec2, r float64, vhat geom.Vec2) (float64, bool) {
	rel := pos.Minus(c.pos)
	rr := (c.r + r) * (c.r + r)
	if rel.MagnitudeSquared() > rr {
		return 0, false
	}
	if rel.Dot(vhat) <= 0 {
		return 0, false
	}

	// Intersect the line through rel along vhat with the circle of radius
	// r1+r2 about the origin.
	l := geom.NewLineThrough(rel, vhat, 0)
	var q0, q1 geom.Vec2
	if !l.Vertical() {
		m, b := l.Gradient(), l.YIntercept()
		rad := b*b*m*m - (m*m+1)*(b*b-rr)
		if rad <= 0 {
			return 0, false
		}
		root := math.Sqrt(rad)
		x0 := (-b*m + root) / (m*m + 1)
		x1 := (-b*m - root) / (m*m + 1)
		q0 = geom.Vec2{X: x0, Y: m*x0 + b}
		q1 = geom.Vec2{X: x1, Y: m*x1 + b}
	} else {
		b := l.XIntercept()
		rad := rr - b*b
		if rad <= 0 {
			return 0, false
		}
		root := math.Sqrt(rad)
		q0 = geom.Vec2{X: b, Y: root}
		q1 = geom.Vec2{X: b, Y: -root}
	}

	if q0.Minus(rel).Dot(vhat) > 0 {
		return q0.Minus(rel).Magnitude(), true
	}
	return q1.Minus(rel).Magnitude(), true
}

// CollideCircle resolves contact with a static circle.
func (c *MovingCircle) CollideCircle(o *geom.Circle) (Contact, bool) {
	if c.vel.IsZero() {
		return Contact{}, false
	}
	speed := c.vel.Magnitude()
	vhat := c.vel.Times(1 / speed)

	d, ok := c.DistToTOI(o.Pos(), o.Radius(), vhat)
	if !ok {
		return Contact{}, false
	}

	t := d / speed
	p2 := c.pos.Minus(vhat.Times(d))
	n := p2.Minus(o.Pos()).Normalize()

	c.reflect(n, c.e*o.Elasticity())
	c.LimitSpeed()
	c.pos = p2.Plus(c.vel.Times(t))

	return Contact{Point: p2.Minus(n.Times(c.r)), Center: p2}, true
}

// CollideMoving resolves contact with another moving circle, exchanging
// momentum along the contact normal by mass. Both circles are updated.
func (c *MovingCircle) CollideMoving(o *MovingCircle) (Contact, bool) {
	v0, v1 := o.vel, c.vel
	rel := v1.Minus(v0)
	if rel.IsZero() {
		return Contact{}, false
	}
	speed := rel.Magnitude()
	vhat := rel.Times(1 / speed)

	// Work in o's frame, where o is at rest.
	d, ok := c.DistToTOI(o.pos, o.r, vhat)
	if !ok {
		return Contact{}, false
	}

	p0, p1 := o.pos, c.pos
	p2 := p1.Minus(vhat.Times(d))
	t := d / speed
	n := p2.Minus(p0).Normalize()

	u0 := n.Times(v0.Dot(n))
	u1 := n.Times(v1.Dot(n))
	m0, m1 := o.mass, c.mass
	e := c.e * o.e

	o.vel = v0.Minus(u0).Plus(u1.Times(2 * m1).Plus(u0.Times(m0 - m1)).Times(e / (m0 + m1)))
	c.vel = v1.Minus(u1).Plus(u0.Times(2 * m0).Plus(u1.Times(m1 - m0)).Times(e / (m0 + m1)))
	o.LimitSpeed()
	c.LimitSpeed()

	poi := p2.Minus(n.Times(c.r))

	// Back to world coordinates at the time of impact.
	back := v0.Times(t)
	p0 = p0.Minus(back)
	p2 = p2.Minus(back)
	poi = poi.Minus(back)

	c.pos = p2.Plus(c.vel.Times(t))
	o.pos = p0.Plus(o.vel.Times(t))

	return Contact{Point: poi, Center: p2}, true
}
