package pool

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/playmatatu/tablephysics/internal/geom"
	"github.com/playmatatu/tablephysics/internal/sound"
)

const (
	ShotPower    = 30.0
	CueMoveDelta = 5.0
	AimFine      = 0.005
	AimCoarse    = 0.1
	RestartDelay = 3000 // ms
)

// Starting spots, in world units.
var (
	EightSpot = geom.NewVec2(654, TableHeight/2)
	CueSpot   = geom.NewVec2(217, TableHeight/2)
)

var (
	ErrBallsMoving = errors.New("balls are still moving")
	ErrNotAiming   = errors.New("not setting up a shot")
	ErrCuePlaced   = errors.New("cue ball can only be moved before the first shot")
)

type State int

const (
	StateInitial State = iota
	StateSettingUpShot
	StateBallsMoving
	StateWon
	StateLost
)

var stateNames = [...]string{"initial", "setting_up_shot", "balls_moving", "won", "lost"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range stateNames {
		if n == name {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("pool: unknown state %q", name)
}

// Preview shows where the cue ball will touch the 8-ball and which way the
// 8-ball will leave.
type Preview struct {
	Ghost      geom.Vec2 `json:"ghost"`
	EightAngle float64   `json:"eight_angle"`
}

// Game runs the end game on one table.
type Game struct {
	table    *Table
	cue      *Ball
	eight    *Ball
	ballSize float64
	sink     sound.Sink

	state    State
	cueAngle float64
	showAim  bool
	endedAt  int64
	shots    int
}

// NewGame sets up a fresh rack.
func NewGame(iterations int, ballSize float64, sink sound.Sink) *Game {
	if sink == nil {
		sink = sound.Discard
	}
	if ballSize <= 0 {
		ballSize = DefaultBallSize
	}
	g := &Game{
		table:    NewTable(TableWidth, TableHeight, iterations, sink),
		ballSize: ballSize,
		sink:     sink,
	}
	g.Begin()
	return g
}

// Begin clears the table and spots both balls.
func (g *Game) Begin() {
	g.state = StateInitial
	g.shots = 0
	g.table.Clear()
	g.eight = g.table.AddBall(EightBall, EightSpot, g.ballSize)
	g.cue = g.table.AddBall(CueBall, CueSpot, g.ballSize)
	g.ResetAim()
}

func (g *Game) Table() *Table     { return g.table }
func (g *Game) State() State      { return g.state }
func (g *Game) CueAngle() float64 { return g.cueAngle }
func (g *Game) Shots() int        { return g.shots }
func (g *Game) CueBall() *Ball    { return g.cue }
func (g *Game) EightBall() *Ball  { return g.eight }

// ResetAim points the cue from the cue ball at the 8-ball.
func (g *Game) ResetAim() {
	g.showAim = true
	g.cueAngle = g.eight.Pos.Minus(g.cue.Pos).Angle()
}

func (g *Game) aiming() bool {
	return g.state == StateInitial || g.state == StateSettingUpShot
}

// AdjustAim turns the cue by delta radians.
func (g *Game) AdjustAim(delta float64) error {
	if !g.aiming() {
		return ErrNotAiming
	}
	g.cueAngle += delta
	return nil
}

// AdjustCueBall slides the cue ball along the baseline, keeping it on the
// table, and re-aims at the 8-ball.
func (g *Game) AdjustCueBall(d float64) error {
	if g.state != StateInitial {
		return ErrCuePlaced
	}
	r := g.cue.Radius()
	g.cue.Pos.Y = math.Max(math.Min(g.cue.Pos.Y+d, g.table.size.Y-r), r)
	g.ResetAim()
	return nil
}

// Shoot strikes the cue ball. After a win or loss it starts a new game.
func (g *Game) Shoot() error {
	switch g.state {
	case StateWon, StateLost:
		g.Begin()
		return nil
	case StateBallsMoving:
		return ErrBallsMoving
	}

	g.showAim = false
	g.cue.DeliverImpulse(g.cueAngle, ShotPower)
	g.sink.Play(sound.Event{Sound: sound.Cue, Pos: g.cue.Pos, Speed: ShotPower})
	g.state = StateBallsMoving
	g.shots++
	return nil
}

// BallDown reports whether either ball is pocketed.
func (g *Game) BallDown() bool {
	return g.cue.InPocket || g.eight.InPocket
}

func (g *Game) CueBallDown() bool {
	return g.cue.InPocket
}

// Step advances one frame at time now (ms) and updates the game state.
func (g *Game) Step(now int64) {
	g.table.Move(FrameTime)

	switch g.state {
	case StateBallsMoving:
		if !g.table.AllStopped() {
			return
		}
		switch {
		case g.CueBallDown():
			g.state = StateLost
			g.endedAt = now
			g.sink.Play(sound.Event{Sound: sound.Lose})
		case g.BallDown():
			g.state = StateWon
			g.endedAt = now
			g.sink.Play(sound.Event{Sound: sound.Win})
		default:
			g.state = StateSettingUpShot
			g.ResetAim()
		}

	case StateWon, StateLost:
		if now-g.endedAt >= RestartDelay {
			g.Begin()
		}
	}
}

// AimPreview predicts the first contact of a shot at the current angle. It
// fails when the aim line misses the 8-ball or no shot is being set up.
func (g *Game) AimPreview() (Preview, bool) {
	if !g.showAim || g.cue.InPocket || g.eight.InPocket {
		return Preview{}, false
	}

	dir := geom.FromAngle(g.cueAngle)
	if g.eight.Pos.Minus(g.cue.Pos).Dot(dir) <= 0 {
		return Preview{}, false
	}

	cuePos, cueVel := g.cue.Pos, dir.Times(ShotPower)
	eightPos, eightVel := g.eight.Pos, geom.Vec2{}
	r := (g.cue.Size + g.eight.Size) / 2
	if _, _, ok := backsolve(&cuePos, &cueVel, &eightPos, &eightVel, r); !ok {
		return Preview{}, false
	}
	return Preview{Ghost: cuePos, EightAngle: eightVel.Angle()}, true
}
