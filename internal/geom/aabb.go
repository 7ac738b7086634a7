package geom

// AABB is an axis-aligned box in shape-local coordinates.
type AABB struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Top    float64 `json:"top"`
}

func NewAABB(left, right, bottom, top float64) AABB {
	return AABB{Left: left, Right: right, Bottom: bottom, Top: top}
}

// Intersect reports whether a translated by u overlaps o translated by v.
// Touching edges count as overlap.
func (a AABB) Intersect(o AABB, u, v Vec2) bool {
	return a.Left+u.X <= o.Right+v.X &&
		a.Right+u.X >= o.Left+v.X &&
		a.Top+u.Y >= o.Bottom+v.Y &&
		a.Bottom+u.Y <= o.Top+v.Y
}

// IntersectAt tests a translated by u against o in place.
func (a AABB) IntersectAt(o AABB, u Vec2) bool {
	return a.Intersect(o, u, Vec2{})
}
