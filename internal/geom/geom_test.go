package geom

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func approxVec(a, b Vec2) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y)
}

func TestLineIntersectCases(t *testing.T) {
	horizontal := NewLine(NewVec2(0, 2), 0, 1)
	diagonal := NewLine(NewVec2(0, 0), 1, 1)
	vertical := NewLineThrough(NewVec2(3, 0), NewVec2(0, 1), 1)
	otherVertical := NewLineThrough(NewVec2(5, 0), NewVec2(0, -1), 1)

	tests := []struct {
		name string
		a, b Line
		want Vec2
		ok   bool
	}{
		{"both sloped", horizontal, diagonal, NewVec2(2, 2), true},
		{"first vertical", vertical, diagonal, NewVec2(3, 3), true},
		{"second vertical", horizontal, vertical, NewVec2(3, 2), true},
		{"parallel sloped", diagonal, NewLine(NewVec2(0, 5), 1, 1), Vec2{}, false},
		{"parallel vertical", vertical, otherVertical, Vec2{}, false},
		{"coincident", diagonal, NewLine(NewVec2(4, 4), 1, 1), Vec2{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.a.Intersect(tc.b)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && !approxVec(got, tc.want) {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLineClosestPoint(t *testing.T) {
	tests := []struct {
		name string
		line Line
		p    Vec2
		want Vec2
	}{
		{"horizontal", NewLine(NewVec2(0, 0), 0, 1), NewVec2(4, 7), NewVec2(4, 0)},
		{"vertical", NewLineThrough(NewVec2(2, 0), NewVec2(0, 1), 1), NewVec2(-5, 3), NewVec2(2, 3)},
		{"diagonal", NewLine(NewVec2(0, 0), 1, 1), NewVec2(0, 2), NewVec2(1, 1)},
		{"negative zero gradient", NewLineThrough(NewVec2(0, 1), NewVec2(-1, 0), 1), NewVec2(3, 9), NewVec2(3, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.line.ClosestPoint(tc.p); !approxVec(got, tc.want) {
				t.Errorf("ClosestPoint(%+v) = %+v, want %+v", tc.p, got, tc.want)
			}
		})
	}
}

func TestLineContainsTolerance(t *testing.T) {
	l := NewLine(NewVec2(0, 0), 0.5, 1)
	if !l.Contains(NewVec2(4, 2.0005)) {
		t.Errorf("point within tolerance not on line")
	}
	if l.Contains(NewVec2(4, 2.01)) {
		t.Errorf("point outside tolerance reported on line")
	}

	v := NewLineThrough(NewVec2(1, 0), NewVec2(0, 1), 1)
	if !v.Contains(NewVec2(1, 1000)) {
		t.Errorf("vertical line should contain (1,1000)")
	}
}

func TestLineNormal(t *testing.T) {
	l := NewLine(NewVec2(0, 0), 0, 1)

	n, ok := l.Normal(NewVec2(0.3, 1))
	if !ok || !approxVec(n, NewVec2(0, 1)) {
		t.Errorf("upward normal = %+v ok=%v", n, ok)
	}
	n, ok = l.Normal(NewVec2(0, -2))
	if !ok || !approxVec(n, NewVec2(0, -1)) {
		t.Errorf("downward normal = %+v ok=%v", n, ok)
	}
	if _, ok := l.Normal(NewVec2(1, 0)); ok {
		t.Errorf("direction along the line should have no normal")
	}

	v := NewLineThrough(NewVec2(3, 0), NewVec2(0, 1), 1)
	n, ok = v.Normal(NewVec2(-1, 0.5))
	if !ok || !approxVec(n, NewVec2(-1, 0)) {
		t.Errorf("vertical normal = %+v ok=%v", n, ok)
	}
}

func TestSegmentContains(t *testing.T) {
	a := NewArena()
	s := NewClosedSegment(a, NewVec2(0, 0), NewVec2(10, 0), 1)

	if a.Len() != 2 {
		t.Fatalf("closed segment should own 2 points, arena has %d", a.Len())
	}
	if !s.Contains(NewVec2(5, 0)) {
		t.Errorf("midpoint not contained")
	}
	if s.Contains(NewVec2(0, 0)) || s.Contains(NewVec2(10, 0)) {
		t.Errorf("endpoints must not be contained")
	}
	if s.Contains(NewVec2(11, 0)) {
		t.Errorf("point past the end contained")
	}
	if s.Contains(NewVec2(5, 1)) {
		t.Errorf("point off the line contained")
	}
}

func TestOpenSegmentSharesPoints(t *testing.T) {
	a := NewArena()
	p0 := a.Add(NewPoint(NewVec2(0, 0), 1))
	p1 := a.Add(NewPoint(NewVec2(0, 10), 1))
	p2 := a.Add(NewPoint(NewVec2(10, 10), 1))

	s0 := NewOpenSegment(a, p0, p1, 1)
	s1 := NewOneWaySegment(a, p1, p2, NewVec2(0, 1), 1)

	if a.Len() != 3 {
		t.Errorf("open segments must not allocate points, arena has %d", a.Len())
	}
	_, end := s0.Endpoints()
	start, _ := s1.Endpoints()
	if !end.Pos().IsEqualTo(start.Pos()) {
		t.Errorf("segments should share the corner point")
	}
	if !s0.Open() || s0.OneWay() {
		t.Errorf("s0 flags wrong: open=%v oneWay=%v", s0.Open(), s0.OneWay())
	}
	if !s1.Passes(NewVec2(0, 3)) {
		t.Errorf("one-way segment should pass upward motion")
	}
	if s1.Passes(NewVec2(0, -3)) {
		t.Errorf("one-way segment should block downward motion")
	}
	if s0.Passes(NewVec2(1, 0)) {
		t.Errorf("plain open segment passes nothing")
	}
}

func TestSegmentIntersectCircle(t *testing.T) {
	a := NewArena()
	s := NewClosedSegment(a, NewVec2(0, 0), NewVec2(10, 0), 1)

	if !s.IntersectCircle(NewCircle(NewVec2(5, 1), 2, 1)) {
		t.Errorf("circle over the middle should intersect")
	}
	if !s.IntersectCircle(NewCircle(NewVec2(-1, 0), 2, 1)) {
		t.Errorf("circle over an endpoint should intersect")
	}
	if s.IntersectCircle(NewCircle(NewVec2(20, 0), 2, 1)) {
		t.Errorf("circle past the end should not intersect")
	}
}

func TestAABBTranslationInvariance(t *testing.T) {
	a := NewAABB(-5, 5, -5, 5)
	b := NewAABB(2, 8, 2, 8)
	offsets := []Vec2{{}, NewVec2(100, -40), NewVec2(-3.5, 7.25)}

	for _, u := range offsets {
		if a.Intersect(b, u, u) != a.Intersect(b, Vec2{}, Vec2{}) {
			t.Errorf("offset %+v changed the relative test", u)
		}
	}

	if !a.Intersect(a, NewVec2(0, 0), NewVec2(10, 0)) {
		t.Errorf("touching boxes should intersect")
	}
	if a.Intersect(a, NewVec2(0, 0), NewVec2(10.01, 0)) {
		t.Errorf("separated boxes should not intersect")
	}
}

func TestCircleContainsIsStrict(t *testing.T) {
	c := NewCircle(NewVec2(0, 0), 2, 1)
	if c.Contains(NewVec2(2, 0)) {
		t.Errorf("boundary point should not be inside")
	}
	if !c.Contains(NewVec2(1.9, 0)) {
		t.Errorf("interior point should be inside")
	}
}
