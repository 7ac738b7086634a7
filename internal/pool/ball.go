package pool

import (
	"encoding/json"
	"fmt"

	"github.com/playmatatu/tablephysics/internal/geom"
)

const (
	// Friction is the fraction of velocity lost per millisecond.
	Friction = 1.0 / 1500.0
	// MinSpeedSq is the squared speed below which a ball stops dead.
	MinSpeedSq = 0.5
)

type BallKind int

const (
	CueBall BallKind = iota
	EightBall
)

func (k BallKind) String() string {
	if k == CueBall {
		return "cue"
	}
	return "eight"
}

func (k BallKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *BallKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "cue":
		*k = CueBall
	case "eight":
		*k = EightBall
	default:
		return fmt.Errorf("pool: unknown ball kind %q", name)
	}
	return nil
}

// Ball is a pool ball. Size is its diameter.
type Ball struct {
	Kind     BallKind  `json:"kind"`
	Pos      geom.Vec2 `json:"pos"`
	Vel      geom.Vec2 `json:"vel"`
	Size     float64   `json:"size"`
	InPocket bool      `json:"in_pocket"`
}

func (b *Ball) Radius() float64 {
	return b.Size / 2
}

// Move rolls the ball for dt milliseconds with friction. Pocketed balls
// stay put.
func (b *Ball) Move(dt float64) {
	if b.InPocket {
		return
	}
	b.Pos = b.Pos.Plus(b.Vel.Times(dt / 20))
	b.Vel = b.Vel.Times(1 - dt*Friction)
	if b.Vel.MagnitudeSquared() < MinSpeedSq {
		b.Vel = geom.Vec2{}
	}
}

// DeliverImpulse sets the velocity to magnitude along angle radians.
func (b *Ball) DeliverImpulse(angle, magnitude float64) {
	b.Vel = geom.FromAngle(angle).Times(magnitude)
}

func (b *Ball) Stopped() bool {
	return b.Vel.IsZero()
}
