package geom

// Circle is a static round obstacle.
type Circle struct {
	pos    Vec2
	r, rsq float64
	e      float64
}

func NewCircle(p Vec2, r, e float64) *Circle {
	return &Circle{pos: p, r: r, rsq: r * r, e: e}
}

func (c *Circle) Kind() Kind          { return KindCircle }
func (c *Circle) Elasticity() float64 { return c.e }
func (c *Circle) Pos() Vec2           { return c.pos }
func (c *Circle) Radius() float64     { return c.r }

func (c *Circle) Bounds() AABB {
	return AABB{Left: -c.r, Right: c.r, Bottom: -c.r, Top: c.r}
}

// Contains reports whether p is strictly inside c.
func (c *Circle) Contains(p Vec2) bool {
	return c.pos.Minus(p).MagnitudeSquared() < c.rsq
}
