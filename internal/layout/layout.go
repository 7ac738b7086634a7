// Package layout describes pinball tables as TOML and builds them into a
// pinball.World.
package layout

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/playmatatu/tablephysics/internal/geom"
	"github.com/playmatatu/tablephysics/internal/pinball"
)

var (
	ErrUnknownShape = errors.New("unknown segment kind")
	ErrBadPoint     = errors.New("segment refers to a missing point")
	ErrBadSize      = errors.New("table size must be positive")
	ErrDegenerate   = errors.New("shape has no extent")
)

// Segment kinds accepted in a layout file.
const (
	KindClosed = "closed"
	KindOpen   = "open"
	KindOneWay = "oneway"
)

//go:embed default.toml
var defaultTable string

// Layout is a table description. Coordinates are pairs of [x, y].
type Layout struct {
	Width    float64       `toml:"width" json:"width"`
	Height   float64       `toml:"height" json:"height"`
	Margin   float64       `toml:"margin" json:"margin"`
	Points   []PointSpec   `toml:"point" json:"points,omitempty"`
	Lines    []LineSpec    `toml:"line" json:"lines,omitempty"`
	Segments []SegmentSpec `toml:"segment" json:"segments,omitempty"`
	Circles  []CircleSpec  `toml:"circle" json:"circles,omitempty"`
}

// PointSpec is a shared endpoint. It is only scenery of its own when
// Collide is set.
type PointSpec struct {
	At         [2]float64 `toml:"at" json:"at"`
	Elasticity *float64   `toml:"elasticity" json:"elasticity,omitempty"`
	Collide    bool       `toml:"collide" json:"collide,omitempty"`
}

// LineSpec is an infinite line through a point along a direction.
type LineSpec struct {
	Through    [2]float64 `toml:"through" json:"through"`
	Dir        [2]float64 `toml:"dir" json:"dir"`
	Elasticity *float64   `toml:"elasticity" json:"elasticity,omitempty"`
}

// SegmentSpec is a closed segment between From and To, or an open or
// one-way segment between two declared points.
type SegmentSpec struct {
	Kind       string     `toml:"kind" json:"kind,omitempty"`
	From       [2]float64 `toml:"from" json:"from"`
	To         [2]float64 `toml:"to" json:"to"`
	Points     [2]int     `toml:"points" json:"points"`
	Cross      [2]float64 `toml:"cross" json:"cross"`
	Elasticity *float64   `toml:"elasticity" json:"elasticity,omitempty"`
}

type CircleSpec struct {
	Center     [2]float64 `toml:"center" json:"center"`
	Radius     float64    `toml:"radius" json:"radius"`
	Elasticity *float64   `toml:"elasticity" json:"elasticity,omitempty"`
}

func vec(p [2]float64) geom.Vec2 { return geom.NewVec2(p[0], p[1]) }

// elasticity defaults to a perfect bounce when unset.
func elasticity(e *float64) float64 {
	if e == nil {
		return 1
	}
	return *e
}

// Default returns the stock pinball table.
func Default() *Layout {
	l, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("layout: default table: %v", err))
	}
	return l
}

// Parse decodes a layout from TOML text.
func Parse(data string) (*Layout, error) {
	var l Layout
	if _, err := toml.Decode(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Load reads a layout file.
func Load(path string) (*Layout, error) {
	var l Layout
	if _, err := toml.DecodeFile(path, &l); err != nil {
		return nil, fmt.Errorf("load layout %s: %w", path, err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return &l, nil
}

// Validate checks sizes, segment kinds and point references, and rejects
// lines without a direction and circles without a radius.
func (l *Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return ErrBadSize
	}
	for i, ln := range l.Lines {
		if vec(ln.Dir).IsZero() {
			return fmt.Errorf("line %d: %w: zero direction", i, ErrDegenerate)
		}
	}
	for i, c := range l.Circles {
		if c.Radius <= 0 {
			return fmt.Errorf("circle %d: %w: radius %v", i, ErrDegenerate, c.Radius)
		}
	}
	for i, s := range l.Segments {
		switch s.Kind {
		case "", KindClosed:
		case KindOpen, KindOneWay:
			for _, p := range s.Points {
				if p < 0 || p >= len(l.Points) {
					return fmt.Errorf("segment %d: %w: %d", i, ErrBadPoint, p)
				}
			}
		default:
			return fmt.Errorf("segment %d: %w: %q", i, ErrUnknownShape, s.Kind)
		}
	}
	return nil
}

// ShapeCount is the number of shapes Build adds to a world.
func (l *Layout) ShapeCount() int {
	n := len(l.Lines) + len(l.Segments) + len(l.Circles)
	for _, p := range l.Points {
		if p.Collide {
			n++
		}
	}
	return n
}

// Build resets w and fills it with the layout's scenery. The playfield is
// the table inset by the margin.
func (l *Layout) Build(w *pinball.World) error {
	if err := l.Validate(); err != nil {
		return err
	}
	w.Reset()
	w.SetWorldSize(l.Width, l.Height)
	w.SetPlayfield(geom.NewAABB(l.Margin, l.Width-l.Margin, l.Margin, l.Height-l.Margin))

	arena := w.Points()
	ids := make([]geom.PointID, len(l.Points))
	for i, p := range l.Points {
		pt := geom.NewPoint(vec(p.At), elasticity(p.Elasticity))
		ids[i] = arena.Add(pt)
		if p.Collide {
			w.AddShape(pt)
		}
	}

	for _, ln := range l.Lines {
		w.AddShape(geom.NewLineThrough(vec(ln.Through), vec(ln.Dir), elasticity(ln.Elasticity)))
	}

	for _, s := range l.Segments {
		e := elasticity(s.Elasticity)
		switch s.Kind {
		case "", KindClosed:
			w.AddShape(geom.NewClosedSegment(arena, vec(s.From), vec(s.To), e))
		case KindOpen:
			w.AddShape(geom.NewOpenSegment(arena, ids[s.Points[0]], ids[s.Points[1]], e))
		case KindOneWay:
			w.AddShape(geom.NewOneWaySegment(arena, ids[s.Points[0]], ids[s.Points[1]], vec(s.Cross), e))
		}
	}

	for _, c := range l.Circles {
		w.AddShape(geom.NewCircle(vec(c.Center), c.Radius, elasticity(c.Elasticity)))
	}
	return nil
}
