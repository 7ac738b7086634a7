// Package pool simulates the two-ball pool end game: sink the 8-ball
// without scratching.
package pool

import (
	"math"

	"github.com/playmatatu/tablephysics/internal/geom"
	"github.com/playmatatu/tablephysics/internal/sound"
)

// Table dimensions in world units.
const (
	TableWidth  = 870.0
	TableHeight = 405.0
)

const (
	FrameTime         = 1000.0 / 60.0
	DefaultIterations = 2
	MaxIterations     = 16
	DefaultBallSize   = 26.0

	// RailRestitution scales the velocity component reflected by a rail.
	RailRestitution = 0.55
	// PocketScale is the pocket width in ball diameters.
	PocketScale = 1.5
	// contactSlack pads the backsolve contact distance.
	contactSlack = 1.0
)

// Table holds the balls and resolves their collisions.
type Table struct {
	size       geom.Vec2
	balls      []*Ball
	iterations int
	sink       sound.Sink
}

// NewTable returns an empty table of the given size. A nil sink discards
// sound events.
func NewTable(width, height float64, iterations int, sink sound.Sink) *Table {
	if sink == nil {
		sink = sound.Discard
	}
	t := &Table{size: geom.NewVec2(width, height), sink: sink}
	t.SetIterations(iterations)
	return t
}

func (t *Table) SetIterations(n int) {
	if n < 1 {
		n = 1
	}
	if n > MaxIterations {
		n = MaxIterations
	}
	t.iterations = n
}

func (t *Table) Iterations() int { return t.iterations }

func (t *Table) Size() geom.Vec2 { return t.size }

func (t *Table) Balls() []*Ball { return t.balls }

// AddBall puts a stationary ball of diameter size on the table.
func (t *Table) AddBall(kind BallKind, pos geom.Vec2, size float64) *Ball {
	b := &Ball{Kind: kind, Pos: pos, Size: size}
	t.balls = append(t.balls, b)
	return b
}

func (t *Table) Clear() {
	t.balls = nil
}

// AllStopped reports whether no ball is moving.
func (t *Table) AllStopped() bool {
	for _, b := range t.balls {
		if !b.Stopped() {
			return false
		}
	}
	return true
}

// Move rolls every ball for dt milliseconds and resolves collisions.
func (t *Table) Move(dt float64) {
	for _, b := range t.balls {
		b.Move(dt)
	}
	t.Collision()
}

// Collision repeats pocket detection for every ball, then ball-ball and
// rail response, so that a ball pocketed this pass takes no further part.
func (t *Table) Collision() {
	for i := 0; i < t.iterations; i++ {
		for _, b := range t.balls {
			t.PocketCollision(b)
		}
		for j := range t.balls {
			t.ballCollisions(j)
			t.RailCollision(t.balls[j])
		}
	}
}

// backsolve rolls two overlapping balls back to the moment their centres
// were r apart and exchanges the velocity component along the line of
// centres. It returns the time rolled back and the exchanged speed.
func backsolve(b1Pos, b1Vel, b2Pos, b2Vel *geom.Vec2, r float64) (tdelta, s float64, ok bool) {
	v := b2Vel.Minus(*b1Vel)
	speed := v.Magnitude()
	if speed == 0 {
		return 0, 0, false
	}
	vhat := v.Times(1 / speed)

	c := b1Pos.Minus(*b2Pos)
	cv := c.Dot(vhat)
	delta := cv*cv - c.MagnitudeSquared() + r*r
	if delta < 0 {
		return 0, 0, false
	}
	d := -cv + math.Sqrt(delta)
	tdelta = d / speed

	*b1Pos = b1Pos.Minus(b1Vel.Times(tdelta))
	*b2Pos = b2Pos.Minus(b2Vel.Times(tdelta))

	n := b1Pos.Minus(*b2Pos).Normalize()
	s = v.Dot(n)
	diff := n.Times(s)
	*b1Vel = b1Vel.Plus(diff)
	*b2Vel = b2Vel.Minus(diff)
	return tdelta, s, true
}

// BallCollision resolves two overlapping balls and re-advances them for
// the time since impact.
func BallCollision(b1Pos, b1Vel, b2Pos, b2Vel *geom.Vec2, r float64) (float64, bool) {
	tdelta, s, ok := backsolve(b1Pos, b1Vel, b2Pos, b2Vel, r)
	if !ok {
		return 0, false
	}
	*b1Pos = b1Pos.Plus(b1Vel.Times(tdelta))
	*b2Pos = b2Pos.Plus(b2Vel.Times(tdelta))
	return s, true
}

func (t *Table) collideBalls(b1, b2 *Ball) bool {
	r := (b1.Size+b2.Size)/2 + contactSlack
	s, ok := BallCollision(&b1.Pos, &b1.Vel, &b2.Pos, &b2.Vel, r)
	if ok {
		t.sink.Play(sound.Event{Sound: sound.BallClick, Pos: b1.Pos, Speed: math.Abs(s)})
	}
	return ok
}

// ballCollisions tests ball i against every later ball still on the table.
func (t *Table) ballCollisions(i int) {
	b1 := t.balls[i]
	if b1.InPocket {
		return
	}
	for _, b2 := range t.balls[i+1:] {
		if b2.InPocket {
			continue
		}
		d := (b1.Size + b2.Size) / 2
		if b1.Pos.Minus(b2.Pos).MagnitudeSquared() < d*d {
			t.collideBalls(b1, b2)
		}
	}
}

// railCollision reflects coordinate s about the rail at r when hit says
// the ball is past it.
func railCollision(s, v *float64, r float64, hit func(s, r float64) bool) bool {
	if !hit(*s, r) {
		return false
	}
	*s += 2 * (r - *s)
	*v *= -RailRestitution
	return true
}

func less(a, b float64) bool    { return a < b }
func greater(a, b float64) bool { return a > b }

// RailCollision bounces b off at most one rail.
func (t *Table) RailCollision(b *Ball) bool {
	if b.InPocket {
		return false
	}
	radius := b.Radius()
	top := t.size.Y - radius
	bottom := radius
	left := radius
	right := t.size.X - radius

	speed := b.Vel.Magnitude()
	hit := railCollision(&b.Pos.X, &b.Vel.X, left, less) ||
		railCollision(&b.Pos.X, &b.Vel.X, right, greater) ||
		railCollision(&b.Pos.Y, &b.Vel.Y, top, greater) ||
		railCollision(&b.Pos.Y, &b.Vel.Y, bottom, less)

	if hit {
		t.sink.Play(sound.Event{Sound: sound.Thump, Pos: geom.NewVec2(b.Pos.X, t.size.Y/2), Speed: speed})
	}
	return hit
}

// PocketCollision drops b into a pocket if it has reached one: a corner,
// or a side pocket approached more vertically than horizontally.
func (t *Table) PocketCollision(b *Ball) bool {
	if b.InPocket {
		return false
	}
	hpw := PocketScale * b.Size / 2
	x, y := b.Pos.X, b.Pos.Y

	b.InPocket = (y < hpw || y > t.size.Y-hpw) &&
		(x < hpw || x > t.size.X-hpw ||
			(math.Abs(x-t.size.X/2) < hpw && math.Abs(b.Vel.Y) > math.Abs(b.Vel.X)))

	if !b.InPocket {
		return false
	}
	t.sink.Play(sound.Event{Sound: sound.Pocket, Pos: geom.NewVec2(x, t.size.Y/2), Speed: b.Vel.Magnitude()})
	b.Vel = geom.Vec2{}
	return true
}
