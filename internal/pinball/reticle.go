package pinball

import "github.com/playmatatu/tablephysics/internal/geom"

// ReticleCapacity bounds the number of live reticles.
const ReticleCapacity = 256

// DefaultReticleLife is how long a reticle stays up, in milliseconds.
const DefaultReticleLife = 2000

// ReticleKind is the sprite a reticle is drawn with.
type ReticleKind int

const (
	ReticleGrey ReticleKind = iota
	ReticleRed
	ReticleOrange
	ReticleYellow
	ReticleGreen
	ReticleCyan
	ReticleBlue
	ReticlePurple
	ReticleWhite // impact dots only
	ReticleBigRed
	ReticleUnknown
)

// reticleFor picks the reticle a ball leaves on the scenery. Only grey
// through purple have one of their own.
func reticleFor(c Colour) ReticleKind {
	if c < Grey || c > Purple {
		return ReticleUnknown
	}
	return ReticleKind(c)
}

// dotFor picks the impact dot sprite, which exists for every colour.
func dotFor(c Colour) ReticleKind {
	return ReticleKind(c)
}

// Reticle marks a point of impact for a while.
type Reticle struct {
	Kind ReticleKind `json:"kind"`
	Born int64       `json:"born"`
	Pos  geom.Vec2   `json:"pos"`
}

// Live reports whether r is still showing at now.
func (r Reticle) Live(now, life int64) bool {
	return now-r.Born < life
}
