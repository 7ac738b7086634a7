// Package pinball drives a table of balls bouncing off static scenery.
package pinball

import (
	"github.com/playmatatu/tablephysics/internal/geom"
	"github.com/playmatatu/tablephysics/internal/ring"
	"github.com/playmatatu/tablephysics/internal/sound"
)

// FrameTime is the simulated length of one frame in milliseconds.
const FrameTime = 1000.0 / 60.0

const (
	DefaultMotionIterations    = 4
	DefaultCollisionIterations = 4
	MaxMotionIterations        = 16
	MaxCollisionIterations     = 64
)

// Launch parameters for new balls.
var (
	LaunchPos = geom.NewVec2(955, 60)
	LaunchVel = geom.NewVec2(0, 20)
)

const LaunchElasticity = 0.9

// Options tune a World.
type Options struct {
	MotionIterations    int
	CollisionIterations int
	ReticleLife         int64   // ms
	BallRadius          float64 // before scaling
	BallScale           float64
	RecordImpacts       bool
}

// DefaultOptions matches the demo table.
func DefaultOptions() Options {
	return Options{
		MotionIterations:    DefaultMotionIterations,
		CollisionIterations: DefaultCollisionIterations,
		ReticleLife:         DefaultReticleLife,
		BallRadius:          32,
		BallScale:           0.75,
	}
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Body is what a renderer needs to draw one ball.
type Body struct {
	ID     int       `json:"id"`
	Pos    geom.Vec2 `json:"pos"`
	Vel    geom.Vec2 `json:"vel"`
	Angle  float64   `json:"angle"`
	Scale  float64   `json:"scale"`
	Radius float64   `json:"radius"`
	Colour string    `json:"colour"`
}

// World owns the balls, the scenery and the per-frame bookkeeping. It is
// not safe for concurrent use.
type World struct {
	opts Options
	sink sound.Sink

	size      geom.Vec2
	playfield geom.AABB

	points *geom.Arena
	shapes []geom.Shape
	balls  []*Ball

	reticles     *ring.Ring[Reticle]
	dots         []Reticle
	reticleAngle float64

	launched int
	nextID   int

	aabbTests      int
	collisionTests int
	collisions     int
	lostBalls      int
}

// NewWorld creates an empty world. A nil sink discards sound events.
func NewWorld(opts Options, sink sound.Sink) *World {
	if sink == nil {
		sink = sound.Discard
	}
	w := &World{
		sink:     sink,
		points:   geom.NewArena(),
		reticles: ring.New[Reticle](ReticleCapacity),
	}
	w.SetOptions(opts)
	return w
}

// SetOptions applies opts, clamping the iteration counts.
func (w *World) SetOptions(opts Options) {
	opts.MotionIterations = clamp(opts.MotionIterations, 1, MaxMotionIterations)
	opts.CollisionIterations = clamp(opts.CollisionIterations, 1, MaxCollisionIterations)
	if opts.ReticleLife <= 0 {
		opts.ReticleLife = DefaultReticleLife
	}
	if opts.BallScale <= 0 {
		opts.BallScale = 1
	}
	w.opts = opts
}

func (w *World) Options() Options { return w.opts }

// SetWorldSize records the table size and makes the whole table the playfield.
func (w *World) SetWorldSize(width, height float64) {
	w.size = geom.NewVec2(width, height)
	w.playfield = geom.NewAABB(0, width, 0, height)
}

func (w *World) WorldSize() geom.Vec2 { return w.size }

// SetPlayfield sets the box outside which balls count as lost.
func (w *World) SetPlayfield(box geom.AABB) { w.playfield = box }

func (w *World) Playfield() geom.AABB { return w.playfield }

// Points is the arena that owns the layout's endpoints.
func (w *World) Points() *geom.Arena { return w.points }

// AddShape adds a piece of static scenery.
func (w *World) AddShape(s geom.Shape) { w.shapes = append(w.shapes, s) }

func (w *World) Shapes() []geom.Shape { return w.shapes }

// AddBall places a ball of the given radius (before scaling) on the table.
func (w *World) AddBall(colour Colour, pos, vel geom.Vec2, r, e, scale float64) *Ball {
	b := newBall(w.nextID, colour, pos, vel, r, e, scale)
	w.nextID++
	w.balls = append(w.balls, b)
	return b
}

// Launch fires a new ball up the launch lane. Colours cycle per launch.
func (w *World) Launch() *Ball {
	colour := Colour(w.launched % int(numColours))
	w.launched++
	b := w.AddBall(colour, LaunchPos, LaunchVel, w.opts.BallRadius, LaunchElasticity, w.opts.BallScale)
	w.sink.Play(sound.Event{Sound: sound.Launch, Pos: b.Pos(), Speed: b.Vel().Magnitude()})
	return b
}

func (w *World) Balls() []*Ball { return w.balls }

// Ball returns the ball with the given id.
func (w *World) Ball(id int) (*Ball, bool) {
	for _, b := range w.balls {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// Crumbs returns the trail of ball id, oldest first.
func (w *World) Crumbs(id int) ([]geom.Vec2, bool) {
	b, ok := w.Ball(id)
	if !ok {
		return nil, false
	}
	return b.Crumbs(), true
}

// Size is the number of balls in play.
func (w *World) Size() int { return len(w.balls) }

// Clear removes the balls and every impact marker. Scenery stays.
func (w *World) Clear() {
	w.balls = nil
	w.reticles.Reset()
	w.dots = nil
	w.lostBalls = 0
}

// Reset empties the world including scenery and its points.
func (w *World) Reset() {
	w.Clear()
	w.shapes = nil
	w.points.Reset()
}

// ClearDots forgets the recorded impact dots.
func (w *World) ClearDots() { w.dots = nil }

func (w *World) Dots() []Reticle {
	out := make([]Reticle, len(w.dots))
	copy(out, w.dots)
	return out
}

// Reticles returns the reticles still showing at now, oldest first.
func (w *World) Reticles(now int64) []Reticle {
	var out []Reticle
	for _, r := range w.reticles.Slice() {
		if r.Live(now, w.opts.ReticleLife) {
			out = append(out, r)
		}
	}
	return out
}

// ReticleCount is the number of reticles held, expired ones included until
// the next Move.
func (w *World) ReticleCount() int { return w.reticles.Len() }

// ReticleAngle is the current spin of every reticle sprite.
func (w *World) ReticleAngle() float64 { return w.reticleAngle }

// Bodies returns a drawable view of every ball.
func (w *World) Bodies() []Body {
	out := make([]Body, 0, len(w.balls))
	for _, b := range w.balls {
		out = append(out, Body{
			ID:     b.ID,
			Pos:    b.Pos(),
			Vel:    b.Vel(),
			Angle:  b.Angle(),
			Scale:  b.Scale(),
			Radius: b.Radius(),
			Colour: b.Colour.String(),
		})
	}
	return out
}

// CollisionCount returns the collisions since the last call.
func (w *World) CollisionCount() int {
	n := w.collisions
	w.collisions = 0
	return n
}

// CollisionTestCount returns the narrow-phase tests since the last call.
func (w *World) CollisionTestCount() int {
	n := w.collisionTests
	w.collisionTests = 0
	return n
}

// AABBTestCount returns the AABB rejections tried since the last call.
func (w *World) AABBTestCount() int {
	n := w.aabbTests
	w.aabbTests = 0
	return n
}

// LostBallCount is the number of balls outside the playfield as of the
// last broad phase. Reading it does not reset it.
func (w *World) LostBallCount() int { return w.lostBalls }

// Move advances the world by one frame. now is the frame time in
// milliseconds and stamps any reticles created.
func (w *World) Move(now int64) {
	dt := FrameTime / float64(w.opts.MotionIterations)

	for i := 0; i < w.opts.MotionIterations; i++ {
		for _, b := range w.balls {
			b.Move(dt)
		}
		for j := 0; j < w.opts.CollisionIterations; j++ {
			w.BroadPhase(now)
		}
		for _, b := range w.balls {
			b.LimitSpeed()
		}
	}

	for _, b := range w.balls {
		b.dropCrumb()
	}
	w.expireReticles(now)
	w.reticleAngle += FrameTime / 300
}

func (w *World) expireReticles(now int64) {
	for {
		r, ok := w.reticles.Front()
		if !ok || r.Live(now, w.opts.ReticleLife) {
			return
		}
		w.reticles.PopFront()
	}
}

// BroadPhase runs one collision pass: every ball against every piece of
// scenery, then every pair of balls.
func (w *World) BroadPhase(now int64) {
	for _, b := range w.balls {
		for _, s := range w.shapes {
			hit, ok := b.Collide(s)
			if !ok {
				continue
			}
			w.sink.Play(sound.Event{Sound: soundFor(s.Kind()), Pos: hit.Point, Speed: b.Vel().Magnitude()})
			if w.opts.RecordImpacts {
				w.dots = append(w.dots, Reticle{Kind: dotFor(b.Colour), Pos: hit.Point})
			}
			w.markImpact(reticleFor(b.Colour), now, hit.Point)
		}
	}

	w.lostBalls = 0
	for _, b := range w.balls {
		if !b.Bounds().IntersectAt(w.playfield, b.Pos()) {
			w.lostBalls++
		}
	}

	for i := 0; i < len(w.balls); i++ {
		for j := i + 1; j < len(w.balls); j++ {
			w.NarrowPhase(w.balls[i], w.balls[j], now)
		}
	}
}

// NarrowPhase tests one pair of balls, AABB first.
func (w *World) NarrowPhase(a, b *Ball, now int64) {
	w.aabbTests++
	if !a.Bounds().Intersect(b.Bounds(), a.Pos(), b.Pos()) {
		return
	}

	w.collisionTests++
	hit, ok := a.CollideMoving(b.MovingCircle)
	if !ok {
		return
	}

	w.collisions++
	w.sink.Play(sound.Event{Sound: sound.Fire, Pos: hit.Point, Speed: a.Vel().Minus(b.Vel()).Magnitude()})
	w.markImpact(ReticleBigRed, now, hit.Point)
}

func (w *World) markImpact(kind ReticleKind, now int64, p geom.Vec2) {
	w.reticles.Push(Reticle{Kind: kind, Born: now, Pos: p})
}

func soundFor(k geom.Kind) sound.Sound {
	switch k {
	case geom.KindLine:
		return sound.Bump
	case geom.KindSegment:
		return sound.Boop
	case geom.KindPoint:
		return sound.Beep
	}
	return sound.Blaster
}
