package pinball

import (
	"github.com/playmatatu/tablephysics/internal/collide"
	"github.com/playmatatu/tablephysics/internal/geom"
	"github.com/playmatatu/tablephysics/internal/ring"
)

// CrumbCount is how many past positions each ball remembers.
const CrumbCount = 128

// Drag is the fraction of velocity kept per move.
const Drag = 0.9999

// Colour picks the ball sprite and the reticle it leaves behind.
type Colour int

const (
	Grey Colour = iota
	Red
	Orange
	Yellow
	Green
	Cyan
	Blue
	Purple
	White
	numColours
)

var colourNames = [...]string{"grey", "red", "orange", "yellow", "green", "cyan", "blue", "purple", "white"}

func (c Colour) String() string {
	if c < 0 || c >= numColours {
		return "unknown"
	}
	return colourNames[c]
}

// Ball is a moving circle with a trail of breadcrumbs.
type Ball struct {
	ID     int
	Colour Colour
	*collide.MovingCircle
	crumbs *ring.Ring[geom.Vec2]
}

func newBall(id int, colour Colour, pos, vel geom.Vec2, r, e, scale float64) *Ball {
	return &Ball{
		ID:           id,
		Colour:       colour,
		MovingCircle: collide.NewMovingCircle(pos, vel, r*scale, e, scale),
		crumbs:       ring.New[geom.Vec2](CrumbCount),
	}
}

// Move integrates the ball over dt milliseconds.
func (b *Ball) Move(dt float64) {
	b.Advance(dt / 20)
	b.SetVel(b.Vel().Times(Drag))
}

// Angle is the heading used to orient the sprite.
func (b *Ball) Angle() float64 {
	return b.Vel().Angle()
}

func (b *Ball) dropCrumb() {
	b.crumbs.Overwrite(b.Pos())
}

// Crumbs returns past positions, oldest first.
func (b *Ball) Crumbs() []geom.Vec2 {
	return b.crumbs.Slice()
}
