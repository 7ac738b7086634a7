package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/playmatatu/tablephysics/internal/geom"
	"github.com/playmatatu/tablephysics/internal/models"
	"github.com/playmatatu/tablephysics/internal/pinball"
	"github.com/playmatatu/tablephysics/internal/pool"
	"github.com/playmatatu/tablephysics/internal/sound"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrWrongKind     = errors.New("operation not supported by this table")
)

// Table is one running simulation. All access to the world or game goes
// through the table lock.
type Table struct {
	ID        string
	Kind      string
	CreatedAt time.Time

	mu         sync.Mutex
	world      *pinball.World
	game       *pool.Game
	rec        *sound.Recorder
	clock      int64 // ms of the last step
	frames     int64
	lastActive time.Time
	lastState  pool.State
	shotAngle  float64
	stats      Stats

	cancel context.CancelFunc
	done   chan struct{}
}

// Stats is the last counter sample of a pinball table.
type Stats struct {
	Balls          int       `json:"balls"`
	LostBalls      int       `json:"lost_balls"`
	Collisions     int       `json:"collisions"`
	CollisionTests int       `json:"collision_tests"`
	AABBTests      int       `json:"aabb_tests"`
	SampledAt      time.Time `json:"sampled_at"`
}

// PinballFrame is what a renderer needs to draw a pinball table.
type PinballFrame struct {
	Bodies       []pinball.Body    `json:"bodies"`
	Reticles     []pinball.Reticle `json:"reticles"`
	ReticleAngle float64           `json:"reticle_angle"`
	Dots         []pinball.Reticle `json:"dots,omitempty"`
	LostBalls    int               `json:"lost_balls"`
}

// PoolFrame is what a renderer needs to draw the pool table.
type PoolFrame struct {
	State    pool.State    `json:"state"`
	Balls    []pool.Ball   `json:"balls"`
	CueAngle float64       `json:"cue_angle"`
	Shots    int           `json:"shots"`
	Preview  *pool.Preview `json:"preview,omitempty"`
}

// Frame is a snapshot of a table at one instant.
type Frame struct {
	TableID string        `json:"table_id"`
	Kind    string        `json:"kind"`
	Seq     int64         `json:"seq"`
	Time    int64         `json:"t"`
	Pinball *PinballFrame `json:"pinball,omitempty"`
	Pool    *PoolFrame    `json:"pool,omitempty"`
}

// ShotOutcome is reported once the balls settle after a pool shot.
type ShotOutcome struct {
	Shot      int       `json:"shot"`
	Angle     float64   `json:"angle"`
	Outcome   string    `json:"outcome"`
	CueBall   pool.Ball `json:"cue_ball"`
	EightBall pool.Ball `json:"eight_ball"`
}

func newTable(id, kind string, now time.Time) *Table {
	return &Table{
		ID:         id,
		Kind:       kind,
		CreatedAt:  now,
		rec:        &sound.Recorder{},
		lastActive: now,
	}
}

func (t *Table) touch() {
	t.lastActive = time.Now()
}

// LastActive is when a client last drove the table.
func (t *Table) LastActive() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActive
}

func (t *Table) pinballOnly() error {
	if t.world == nil {
		return ErrWrongKind
	}
	return nil
}

func (t *Table) poolOnly() error {
	if t.game == nil {
		return ErrWrongKind
	}
	return nil
}

// Launch fires a new pinball and returns its id.
func (t *Table) Launch() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.pinballOnly(); err != nil {
		return 0, err
	}
	t.touch()
	return t.world.Launch().ID, nil
}

// ClearBalls removes every pinball and impact marker.
func (t *Table) ClearBalls() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.pinballOnly(); err != nil {
		return err
	}
	t.touch()
	t.world.Clear()
	return nil
}

func (t *Table) ClearDots() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.pinballOnly(); err != nil {
		return err
	}
	t.touch()
	t.world.ClearDots()
	return nil
}

// Shoot strikes the cue ball at the current aim.
func (t *Table) Shoot() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.poolOnly(); err != nil {
		return err
	}
	t.touch()
	angle := t.game.CueAngle()
	if err := t.game.Shoot(); err != nil {
		return err
	}
	t.shotAngle = angle
	return nil
}

// Aim turns the cue by delta radians.
func (t *Table) Aim(delta float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.poolOnly(); err != nil {
		return err
	}
	t.touch()
	return t.game.AdjustAim(delta)
}

// MoveCue slides the cue ball before the first shot.
func (t *Table) MoveCue(delta float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.poolOnly(); err != nil {
		return err
	}
	t.touch()
	return t.game.AdjustCueBall(delta)
}

// Preview predicts the cue ball's contact with the 8-ball.
func (t *Table) Preview() (pool.Preview, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.poolOnly(); err != nil {
		return pool.Preview{}, false, err
	}
	p, ok := t.game.AimPreview()
	return p, ok, nil
}

// Stats returns the last counter sample.
func (t *Table) Stats() (Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.pinballOnly(); err != nil {
		return Stats{}, err
	}
	return t.stats, nil
}

// Snapshot describes the table as of its last step.
func (t *Table) Snapshot() Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame()
}

func (t *Table) frame() Frame {
	f := Frame{TableID: t.ID, Kind: t.Kind, Seq: t.frames, Time: t.clock}
	switch {
	case t.world != nil:
		f.Pinball = &PinballFrame{
			Bodies:       t.world.Bodies(),
			Reticles:     t.world.Reticles(t.clock),
			ReticleAngle: t.world.ReticleAngle(),
			Dots:         t.world.Dots(),
			LostBalls:    t.world.LostBallCount(),
		}
	case t.game != nil:
		pf := &PoolFrame{
			State:    t.game.State(),
			CueAngle: t.game.CueAngle(),
			Shots:    t.game.Shots(),
		}
		for _, b := range t.game.Table().Balls() {
			pf.Balls = append(pf.Balls, *b)
		}
		if p, ok := t.game.AimPreview(); ok {
			pf.Preview = &p
		}
		f.Pool = pf
	}
	return f
}

// step advances the table to now (ms since it started). It returns the
// frame, the sounds made and, for pool, the outcome of a shot that just
// settled.
func (t *Table) step(now int64) (Frame, []sound.Event, *ShotOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clock = now
	t.frames++
	var settled *ShotOutcome
	switch {
	case t.world != nil:
		t.world.Move(now)
	case t.game != nil:
		t.game.Step(now)
		cur := t.game.State()
		if t.lastState == pool.StateBallsMoving && cur != pool.StateBallsMoving {
			settled = &ShotOutcome{
				Shot:      t.game.Shots(),
				Angle:     t.shotAngle,
				Outcome:   cur.String(),
				CueBall:   *t.game.CueBall(),
				EightBall: *t.game.EightBall(),
			}
		}
		t.lastState = cur
	}
	return t.frame(), t.rec.Drain(), settled
}

// sample reads and resets the pinball counters.
func (t *Table) sample(now time.Time) (models.PinballStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.world == nil {
		return models.PinballStats{}, false
	}
	t.stats = Stats{
		Balls:          t.world.Size(),
		LostBalls:      t.world.LostBallCount(),
		Collisions:     t.world.CollisionCount(),
		CollisionTests: t.world.CollisionTestCount(),
		AABBTests:      t.world.AABBTestCount(),
		SampledAt:      now,
	}
	return models.PinballStats{
		TableID:        t.ID,
		Balls:          t.stats.Balls,
		LostBalls:      t.stats.LostBalls,
		Collisions:     t.stats.Collisions,
		CollisionTests: t.stats.CollisionTests,
		AABBTests:      t.stats.AABBTests,
	}, true
}

// reconfigure applies new iteration counts to a live table. Ball sizes are
// left alone so balls already in play keep their shape.
func (t *Table) reconfigure(opts pinball.Options, poolIterations int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.world != nil:
		cur := t.world.Options()
		cur.MotionIterations = opts.MotionIterations
		cur.CollisionIterations = opts.CollisionIterations
		cur.ReticleLife = opts.ReticleLife
		cur.RecordImpacts = opts.RecordImpacts
		t.world.SetOptions(cur)
	case t.game != nil:
		t.game.Table().SetIterations(poolIterations)
	}
}

// Crumbs returns the recent positions of one pinball.
func (t *Table) Crumbs(ballID int) ([]geom.Vec2, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.pinballOnly(); err != nil {
		return nil, false, err
	}
	c, ok := t.world.Crumbs(ballID)
	return c, ok, nil
}
