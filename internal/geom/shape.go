package geom

// Kind tags a shape variant for collision dispatch.
type Kind int

const (
	KindPoint Kind = iota
	KindLine
	KindSegment
	KindCircle
	KindMovingCircle
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindSegment:
		return "segment"
	case KindCircle:
		return "circle"
	case KindMovingCircle:
		return "moving_circle"
	}
	return "unknown"
}

// Shape is the capability every collidable variant exposes.
type Shape interface {
	Kind() Kind
	Elasticity() float64
	Bounds() AABB
}
