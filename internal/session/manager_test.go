package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/events"
	"github.com/playmatatu/tablephysics/internal/models"
	"github.com/playmatatu/tablephysics/internal/pool"
	"github.com/playmatatu/tablephysics/internal/store"
)

type fakeHub struct {
	mu     sync.Mutex
	msgs   map[string][]Message
	closed []string
}

func (h *fakeHub) BroadcastToTable(id string, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.msgs == nil {
		h.msgs = make(map[string][]Message)
	}
	h.msgs[id] = append(h.msgs[id], msg.(Message))
}

func (h *fakeHub) CloseTable(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = append(h.closed, id)
}

func (h *fakeHub) count(id, typ string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.msgs[id] {
		if m.Type == typ {
			n++
		}
	}
	return n
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]string
	shots    []store.ShotRecord
	stats    []models.PinballStats
}

func (s *fakeStore) RecordSession(_ context.Context, id, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = make(map[string]string)
	}
	s.sessions[id] = models.StatusOpen
	return nil
}

func (s *fakeStore) TouchSession(context.Context, string) error { return nil }

func (s *fakeStore) CloseSession(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = status
	return nil
}

func (s *fakeStore) RecordPoolShot(_ context.Context, _ string, shot store.ShotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shots = append(s.shots, shot)
	return nil
}

func (s *fakeStore) RecordPinballStats(_ context.Context, st models.PinballStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = append(s.stats, st)
	return nil
}

type fakeEvents struct {
	mu        sync.Mutex
	published []events.Event
	snapshots int
}

func (e *fakeEvents) Publish(_ context.Context, ev events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.published = append(e.published, ev)
	return nil
}

func (e *fakeEvents) SaveSnapshot(context.Context, string, any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshots++
	return nil
}

func (e *fakeEvents) DeleteSnapshot(context.Context, string) error { return nil }

func (e *fakeEvents) count(typ string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.published {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func testConfig() *config.Config {
	return &config.Config{
		MotionIterations:    4,
		CollisionIterations: 4,
		PoolIterations:      2,
		BallScale:           0.75,
		BallRadius:          32,
		PoolBallSize:        26,
		ReticleLifeMS:       2000,
		TableIdleMinutes:    15,
	}
}

func setupManager(t *testing.T) (*Manager, *fakeHub, *fakeStore, *fakeEvents) {
	t.Helper()
	hub, st, ev := &fakeHub{}, &fakeStore{}, &fakeEvents{}
	m := NewManager(context.Background(), testConfig(), Deps{Store: st, Events: ev, Hub: hub})
	return m, hub, st, ev
}

func TestPinballTable(t *testing.T) {
	m, hub, st, ev := setupManager(t)

	tbl, err := m.CreatePinball()
	if err != nil {
		t.Fatalf("CreatePinball: %v", err)
	}
	if st.sessions[tbl.ID] != models.StatusOpen {
		t.Errorf("session not recorded")
	}
	if ev.count(events.TypeTableCreated) != 1 {
		t.Errorf("table_created events = %d", ev.count(events.TypeTableCreated))
	}

	if _, err := tbl.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := tbl.Shoot(); !errors.Is(err, ErrWrongKind) {
		t.Errorf("Shoot on pinball err = %v", err)
	}

	frame := m.step(tbl, 16)
	if frame.Pinball == nil || len(frame.Pinball.Bodies) != 1 {
		t.Fatalf("frame = %+v", frame)
	}
	if frame.Seq != 1 {
		t.Errorf("seq = %d", frame.Seq)
	}
	if hub.count(tbl.ID, MsgFrame) != 1 || hub.count(tbl.ID, MsgSound) != 1 {
		t.Errorf("frames=%d sounds=%d", hub.count(tbl.ID, MsgFrame), hub.count(tbl.ID, MsgSound))
	}
	if ev.count(events.TypeSound) != 1 {
		t.Errorf("sound events = %d", ev.count(events.TypeSound))
	}
}

func TestPinballStatsSample(t *testing.T) {
	m, hub, st, _ := setupManager(t)
	tbl, _ := m.CreatePinball()
	tbl.Launch()
	tbl.Launch()
	for i := int64(1); i <= 10; i++ {
		m.step(tbl, i*16)
	}

	m.sampleStats(tbl, time.Now())

	stats, err := tbl.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Balls != 2 || stats.AABBTests == 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(st.stats) != 1 || st.stats[0].TableID != tbl.ID {
		t.Errorf("stored stats = %+v", st.stats)
	}
	if hub.count(tbl.ID, MsgStats) != 1 {
		t.Errorf("stats messages = %d", hub.count(tbl.ID, MsgStats))
	}

	m.sampleStats(tbl, time.Now())
	again, _ := tbl.Stats()
	if again.AABBTests != 0 {
		t.Errorf("counters not reset between samples: %+v", again)
	}
}

func TestPoolShotIsRecorded(t *testing.T) {
	m, hub, st, ev := setupManager(t)
	tbl, err := m.CreatePool()
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if _, err := tbl.Launch(); !errors.Is(err, ErrWrongKind) {
		t.Errorf("Launch on pool err = %v", err)
	}
	if _, ok, err := tbl.Preview(); err != nil || !ok {
		t.Errorf("Preview ok=%v err=%v", ok, err)
	}
	if err := tbl.Shoot(); err != nil {
		t.Fatalf("Shoot: %v", err)
	}

	for i := int64(1); i < 20000; i++ {
		f := m.step(tbl, i*16)
		if f.Pool.State != pool.StateBallsMoving {
			break
		}
	}

	if len(st.shots) != 1 {
		t.Fatalf("shots recorded = %d", len(st.shots))
	}
	if st.shots[0].Outcome != pool.StateSettingUpShot.String() {
		t.Errorf("outcome = %s", st.shots[0].Outcome)
	}
	if hub.count(tbl.ID, MsgShot) != 1 || ev.count(events.TypeShotSettled) != 1 {
		t.Errorf("shot messages=%d events=%d", hub.count(tbl.ID, MsgShot), ev.count(events.TypeShotSettled))
	}
	if ev.snapshots == 0 {
		t.Errorf("no snapshot saved")
	}
}

func TestRemoveTable(t *testing.T) {
	m, hub, st, _ := setupManager(t)
	tbl, _ := m.CreatePool()

	if err := m.Remove(tbl.ID, models.StatusRemoved); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := m.Get(tbl.ID); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("Get after Remove err = %v", err)
	}
	if err := m.Remove(tbl.ID, models.StatusRemoved); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("second Remove err = %v", err)
	}
	if st.sessions[tbl.ID] != models.StatusRemoved {
		t.Errorf("session status = %s", st.sessions[tbl.ID])
	}
	if len(hub.closed) != 1 || hub.count(tbl.ID, MsgClosed) != 1 {
		t.Errorf("hub not told: closed=%v", hub.closed)
	}
}

func TestReapIdle(t *testing.T) {
	m, _, st, _ := setupManager(t)
	stale, _ := m.CreatePinball()
	fresh, _ := m.CreatePool()

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	reaped := m.ReapIdle(time.Now())
	if len(reaped) != 1 || reaped[0] != stale.ID {
		t.Fatalf("reaped = %v", reaped)
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Errorf("fresh table reaped")
	}
	if st.sessions[stale.ID] != models.StatusIdle {
		t.Errorf("status = %s", st.sessions[stale.ID])
	}
}

func TestFrameLoop(t *testing.T) {
	hub := &fakeHub{}
	cfg := testConfig()
	cfg.FrameRate = 200
	m := NewManager(context.Background(), cfg, Deps{Hub: hub})

	tbl, err := m.CreatePinball()
	if err != nil {
		t.Fatalf("CreatePinball: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.count(tbl.ID, MsgFrame) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.count(tbl.ID, MsgFrame) == 0 {
		t.Fatalf("frame loop produced no frames")
	}

	m.Shutdown()
	if m.Count() != 0 {
		t.Errorf("tables left after Shutdown: %d", m.Count())
	}
}

func TestNilDepsAreSafe(t *testing.T) {
	m := NewManager(context.Background(), testConfig(), Deps{})
	tbl, err := m.CreatePool()
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	m.step(tbl, 16)
	if err := m.Remove(tbl.ID, models.StatusClosed); err != nil {
		t.Errorf("Remove: %v", err)
	}
}

func TestSampleStatsOnDemand(t *testing.T) {
	m, hub, st, _ := setupManager(t)
	pin, _ := m.CreatePinball()
	pl, _ := m.CreatePool()

	pin.Launch()
	got, err := m.SampleStats(pin.ID)
	if err != nil {
		t.Fatalf("SampleStats: %v", err)
	}
	if got.Balls != 1 {
		t.Errorf("balls = %d, want 1", got.Balls)
	}
	if hub.count(pin.ID, MsgStats) != 1 || len(st.stats) != 1 {
		t.Errorf("sample not broadcast and recorded")
	}

	if _, err := m.SampleStats(pl.ID); !errors.Is(err, ErrWrongKind) {
		t.Errorf("pool sample err = %v", err)
	}
	if _, err := m.SampleStats("TBL_NOPE"); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("missing table err = %v", err)
	}
}

func TestReconfigureLiveTables(t *testing.T) {
	m, _, _, _ := setupManager(t)
	pin, _ := m.CreatePinball()
	pl, _ := m.CreatePool()

	n := m.Reconfigure(func(cfg *config.Config) {
		cfg.MotionIterations = 8
		cfg.CollisionIterations = 2
		cfg.PoolIterations = 5
	})
	if n != 2 {
		t.Errorf("updated %d tables, want 2", n)
	}

	opts := pin.world.Options()
	if opts.MotionIterations != 8 || opts.CollisionIterations != 2 {
		t.Errorf("pinball iterations = %d/%d", opts.MotionIterations, opts.CollisionIterations)
	}
	if opts.BallRadius != 32 || opts.BallScale != 0.75 {
		t.Errorf("ball size changed: %+v", opts)
	}
	if it := pl.game.Table().Iterations(); it != 5 {
		t.Errorf("pool iterations = %d, want 5", it)
	}

	next, _ := m.CreatePinball()
	if it := next.world.Options().MotionIterations; it != 8 {
		t.Errorf("new table motion iterations = %d, want 8", it)
	}
}

func TestCrumbsFollowFrames(t *testing.T) {
	m, _, _, _ := setupManager(t)
	pin, _ := m.CreatePinball()
	id, _ := pin.Launch()

	for i := 1; i <= 3; i++ {
		m.step(pin, int64(i)*16)
	}
	crumbs, ok, err := pin.Crumbs(id)
	if err != nil || !ok {
		t.Fatalf("Crumbs: ok=%v err=%v", ok, err)
	}
	if len(crumbs) != 3 {
		t.Errorf("crumbs = %d, want 3", len(crumbs))
	}

	if _, ok, _ := pin.Crumbs(id + 100); ok {
		t.Errorf("unknown ball should have no crumbs")
	}
	pl, _ := m.CreatePool()
	if _, _, err := pl.Crumbs(0); !errors.Is(err, ErrWrongKind) {
		t.Errorf("pool crumbs err = %v", err)
	}
}
