// Package session runs simulated tables: one frame loop per table, fan-out
// of frames and sounds, persistence hooks and an idle reaper.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/events"
	"github.com/playmatatu/tablephysics/internal/layout"
	"github.com/playmatatu/tablephysics/internal/models"
	"github.com/playmatatu/tablephysics/internal/pinball"
	"github.com/playmatatu/tablephysics/internal/pool"
	"github.com/playmatatu/tablephysics/internal/store"
)

// Recorder persists session history.
type Recorder interface {
	RecordSession(ctx context.Context, tableID, kind string) error
	TouchSession(ctx context.Context, tableID string) error
	CloseSession(ctx context.Context, tableID, status string) error
	RecordPoolShot(ctx context.Context, tableID string, shot store.ShotRecord) error
	RecordPinballStats(ctx context.Context, st models.PinballStats) error
}

// Publisher shares events and snapshots with other instances.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
	SaveSnapshot(ctx context.Context, tableID string, state any) error
	DeleteSnapshot(ctx context.Context, tableID string) error
}

// Broadcaster delivers messages to the clients watching a table.
type Broadcaster interface {
	BroadcastToTable(tableID string, msg any)
	CloseTable(tableID string)
}

// Message is the envelope for everything pushed to clients.
type Message struct {
	Type    string `json:"type"`
	TableID string `json:"table_id,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Outbound message types.
const (
	MsgFrame  = "frame"
	MsgSound  = "sound"
	MsgShot   = "shot"
	MsgStats  = "stats"
	MsgClosed = "closed"
	MsgState  = "state"
	MsgError  = "error"
)

// snapshotEvery is how many frames pass between Redis snapshots.
const snapshotEvery = 60

// Deps are the manager's collaborators. Any of them may be nil.
type Deps struct {
	Store  Recorder
	Events Publisher
	Hub    Broadcaster
	Layout *layout.Layout
}

type nopRecorder struct{}

func (nopRecorder) RecordSession(context.Context, string, string) error            { return nil }
func (nopRecorder) TouchSession(context.Context, string) error                     { return nil }
func (nopRecorder) CloseSession(context.Context, string, string) error             { return nil }
func (nopRecorder) RecordPoolShot(context.Context, string, store.ShotRecord) error { return nil }
func (nopRecorder) RecordPinballStats(context.Context, models.PinballStats) error  { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Event) error     { return nil }
func (nopPublisher) SaveSnapshot(context.Context, string, any) error { return nil }
func (nopPublisher) DeleteSnapshot(context.Context, string) error    { return nil }

type nopHub struct{}

func (nopHub) BroadcastToTable(string, any) {}
func (nopHub) CloseTable(string)            {}

// Manager owns every table on this instance.
type Manager struct {
	ctx    context.Context
	cfg    *config.Config
	store  Recorder
	events Publisher
	hub    Broadcaster
	layout *layout.Layout

	cfgMu sync.RWMutex // guards the tunables in cfg

	mu     sync.RWMutex
	tables map[string]*Table
}

// NewManager builds a manager whose frame loops live until ctx is done.
func NewManager(ctx context.Context, cfg *config.Config, deps Deps) *Manager {
	m := &Manager{
		ctx:    ctx,
		cfg:    cfg,
		store:  deps.Store,
		events: deps.Events,
		hub:    deps.Hub,
		layout: deps.Layout,
		tables: make(map[string]*Table),
	}
	if m.store == nil {
		m.store = nopRecorder{}
	}
	if m.events == nil {
		m.events = nopPublisher{}
	}
	if m.hub == nil {
		m.hub = nopHub{}
	}
	if m.layout == nil {
		m.layout = layout.Default()
	}
	return m
}

// SetHub attaches the broadcaster once it exists.
func (m *Manager) SetHub(h Broadcaster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h == nil {
		h = nopHub{}
	}
	m.hub = h
}

func (m *Manager) broadcaster() Broadcaster {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hub
}

// generateID generates a random alphanumeric ID
func generateID(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}
	return string(result)
}

func newTableID() string {
	return "TBL_" + generateID(10)
}

func (m *Manager) pinballOptions() pinball.Options {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	opts := pinball.DefaultOptions()
	opts.MotionIterations = m.cfg.MotionIterations
	opts.CollisionIterations = m.cfg.CollisionIterations
	opts.ReticleLife = int64(m.cfg.ReticleLifeMS)
	opts.RecordImpacts = m.cfg.ShowImpacts
	if m.cfg.BallRadius > 0 {
		opts.BallRadius = m.cfg.BallRadius
	}
	if m.cfg.BallScale > 0 {
		opts.BallScale = m.cfg.BallScale
	}
	return opts
}

// CreatePinball builds a pinball table from the configured layout and
// starts its frame loop.
func (m *Manager) CreatePinball() (*Table, error) {
	t := newTable(newTableID(), models.KindPinball, time.Now())
	t.world = pinball.NewWorld(m.pinballOptions(), t.rec)
	if err := m.layout.Build(t.world); err != nil {
		return nil, fmt.Errorf("build layout: %w", err)
	}
	return m.add(t)
}

// CreatePool racks a new end game and starts its frame loop.
func (m *Manager) CreatePool() (*Table, error) {
	t := newTable(newTableID(), models.KindPool, time.Now())
	m.cfgMu.RLock()
	iterations, size := m.cfg.PoolIterations, m.cfg.PoolBallSize
	m.cfgMu.RUnlock()
	t.game = pool.NewGame(iterations, size, t.rec)
	t.lastState = t.game.State()
	return m.add(t)
}

func (m *Manager) add(t *Table) (*Table, error) {
	if err := m.store.RecordSession(m.ctx, t.ID, t.Kind); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.tables[t.ID] = t
	m.mu.Unlock()

	m.publish(events.TypeTableCreated, t.ID, map[string]string{"kind": t.Kind})
	log.Printf("[SESSION] Created %s table %s", t.Kind, t.ID)

	if m.cfg.FrameRate > 0 {
		ctx, cancel := context.WithCancel(m.ctx)
		t.cancel = cancel
		t.done = make(chan struct{})
		go m.run(ctx, t)
	}
	return t, nil
}

// Get returns a live table.
func (m *Manager) Get(id string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	return t, nil
}

// Summary is a short description of a live table.
type Summary struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// List describes every live table, oldest first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(tables))
	for _, t := range tables {
		out = append(out, Summary{ID: t.ID, Kind: t.Kind, CreatedAt: t.CreatedAt, LastActive: t.LastActive()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}

// Remove stops a table, tells its watchers and closes its session with
// status.
func (m *Manager) Remove(id, status string) error {
	m.mu.Lock()
	t, ok := m.tables[id]
	if ok {
		delete(m.tables, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrTableNotFound
	}

	if t.cancel != nil {
		t.cancel()
		<-t.done
	}

	hub := m.broadcaster()
	hub.BroadcastToTable(id, Message{Type: MsgClosed, TableID: id, Data: map[string]string{"status": status}})
	hub.CloseTable(id)

	ctx := context.WithoutCancel(m.ctx)
	if err := m.store.CloseSession(ctx, id, status); err != nil {
		log.Printf("[SESSION] Failed to close session %s: %v", id, err)
	}
	if err := m.events.DeleteSnapshot(ctx, id); err != nil {
		log.Printf("[SESSION] Failed to delete snapshot %s: %v", id, err)
	}
	m.publish(events.TypeTableClosed, id, map[string]string{"status": status})
	log.Printf("[SESSION] Removed table %s (%s)", id, status)
	return nil
}

// Shutdown removes every table.
func (m *Manager) Shutdown() {
	for _, s := range m.List() {
		m.Remove(s.ID, models.StatusClosed)
	}
}

func (m *Manager) publish(typ, tableID string, data any) {
	ev, err := events.NewEvent(typ, tableID, data)
	if err != nil {
		log.Printf("[EVENTS] %v", err)
		return
	}
	if err := m.events.Publish(context.WithoutCancel(m.ctx), ev); err != nil {
		log.Printf("[EVENTS] Publish failed: %v", err)
	}
}

// run drives one table at the configured frame rate until ctx is done.
func (m *Manager) run(ctx context.Context, t *Table) {
	defer close(t.done)

	interval := time.Second / time.Duration(m.cfg.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var sampleC <-chan time.Time
	if t.Kind == models.KindPinball && m.cfg.StatsSampleSeconds > 0 {
		sampler := time.NewTicker(time.Duration(m.cfg.StatsSampleSeconds) * time.Second)
		defer sampler.Stop()
		sampleC = sampler.C
	}

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.step(t, now.Sub(start).Milliseconds())
		case now := <-sampleC:
			m.sampleStats(t, now)
		}
	}
}

// step advances t and pushes the results out.
func (m *Manager) step(t *Table, now int64) Frame {
	frame, sounds, settled := t.step(now)
	hub := m.broadcaster()
	hub.BroadcastToTable(t.ID, Message{Type: MsgFrame, TableID: t.ID, Data: frame})

	if len(sounds) > 0 {
		hub.BroadcastToTable(t.ID, Message{Type: MsgSound, TableID: t.ID, Data: sounds})
		m.publish(events.TypeSound, t.ID, sounds)
	}

	if settled != nil {
		hub.BroadcastToTable(t.ID, Message{Type: MsgShot, TableID: t.ID, Data: settled})
		m.publish(events.TypeShotSettled, t.ID, settled)
		shot := store.ShotRecord{Angle: settled.Angle, Outcome: settled.Outcome, Detail: settled}
		if err := m.store.RecordPoolShot(m.ctx, t.ID, shot); err != nil {
			log.Printf("[SESSION] Failed to record shot for %s: %v", t.ID, err)
		}
		if err := m.store.TouchSession(m.ctx, t.ID); err != nil {
			log.Printf("[SESSION] Failed to touch session %s: %v", t.ID, err)
		}
	}

	if frame.Seq%snapshotEvery == 0 || settled != nil {
		if err := m.events.SaveSnapshot(m.ctx, t.ID, frame); err != nil {
			log.Printf("[SESSION] Failed to save snapshot for %s: %v", t.ID, err)
		}
	}
	return frame
}

func (m *Manager) sampleStats(t *Table, now time.Time) {
	st, ok := t.sample(now)
	if !ok {
		return
	}
	m.broadcaster().BroadcastToTable(t.ID, Message{Type: MsgStats, TableID: t.ID, Data: st})
	m.publish(events.TypeStats, t.ID, st)
	if err := m.store.RecordPinballStats(m.ctx, st); err != nil {
		log.Printf("[SESSION] Failed to record stats for %s: %v", t.ID, err)
	}
}

// SampleStats takes a counter sample of a pinball table now, resetting its
// counters, and returns it.
func (m *Manager) SampleStats(id string) (Stats, error) {
	t, err := m.Get(id)
	if err != nil {
		return Stats{}, err
	}
	if t.Kind != models.KindPinball {
		return Stats{}, ErrWrongKind
	}
	m.sampleStats(t, time.Now())
	return t.Stats()
}

// Reconfigure lets apply change the physics settings, then pushes them to
// every live table. It returns the number of tables updated.
func (m *Manager) Reconfigure(apply func(cfg *config.Config)) int {
	m.cfgMu.Lock()
	if apply != nil {
		apply(m.cfg)
	}
	poolIterations := m.cfg.PoolIterations
	m.cfgMu.Unlock()
	opts := m.pinballOptions()

	m.mu.RLock()
	tables := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		tables = append(tables, t)
	}
	m.mu.RUnlock()

	for _, t := range tables {
		t.reconfigure(opts, poolIterations)
	}
	return len(tables)
}

func (m *Manager) idleLimit() time.Duration {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return time.Duration(m.cfg.TableIdleMinutes) * time.Minute
}
