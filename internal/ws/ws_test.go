package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/playmatatu/tablephysics/internal/auth"
	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/events"
	"github.com/playmatatu/tablephysics/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		MotionIterations:    4,
		CollisionIterations: 4,
		PoolIterations:      2,
		BallScale:           0.75,
		BallRadius:          32,
		PoolBallSize:        26,
		ReticleLifeMS:       2000,
	}
}

type fakeSnapshots map[string]json.RawMessage

func (f fakeSnapshots) LoadSnapshot(_ context.Context, tableID string) (json.RawMessage, error) {
	raw, ok := f[tableID]
	if !ok {
		return nil, events.ErrNoSnapshot
	}
	return raw, nil
}

func setupServer(t *testing.T) (*httptest.Server, *Hub, *session.Manager, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := testConfig()
	hub := NewHub()
	go hub.Run(ctx)
	mgr := session.NewManager(ctx, cfg, session.Deps{Hub: hub})

	r := gin.New()
	snaps := fakeSnapshots{"TBL_REMOTE": json.RawMessage(`{"table_id":"TBL_REMOTE","kind":"pool","seq":120}`)}
	r.GET("/tables/:id/ws", HandleWebSocket(hub, mgr, snaps, cfg))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, mgr, cfg
}

func dial(t *testing.T, srv *httptest.Server, tableID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tables/" + tableID + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type inbound struct {
	Type    string          `json:"type"`
	TableID string          `json:"table_id"`
	Data    json.RawMessage `json:"data"`
}

// readType reads until a message of type typ arrives.
func readType(t *testing.T, conn *websocket.Conn, typ string) inbound {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func TestPoolCommandsOverWebSocket(t *testing.T) {
	srv, _, mgr, cfg := setupServer(t)
	tbl, err := mgr.CreatePool()
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	token, _ := auth.IssueTableToken(cfg.JWTSecret, tbl.ID, tbl.Kind, time.Minute)
	conn := dial(t, srv, tbl.ID, token)

	first := readType(t, conn, session.MsgState)
	if first.TableID != tbl.ID {
		t.Errorf("table id = %s", first.TableID)
	}

	conn.WriteJSON(map[string]any{"type": "aim", "data": map[string]float64{"delta": 0.1}})
	msg := readType(t, conn, session.MsgState)
	var frame session.Frame
	if err := json.Unmarshal(msg.Data, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Pool == nil || frame.Pool.CueAngle < 0.099 {
		t.Errorf("aim not applied: %+v", frame.Pool)
	}

	conn.WriteJSON(map[string]string{"type": "launch"})
	readType(t, conn, session.MsgError)

	conn.WriteJSON(map[string]string{"type": "nonsense"})
	readType(t, conn, session.MsgError)
}

func TestFramesReachWatchers(t *testing.T) {
	srv, hub, mgr, cfg := setupServer(t)
	tbl, _ := mgr.CreatePinball()
	token, _ := auth.IssueTableToken(cfg.JWTSecret, tbl.ID, tbl.Kind, time.Minute)
	conn := dial(t, srv, tbl.ID, token)
	readType(t, conn, session.MsgState)

	deadline := time.Now().Add(time.Second)
	for hub.RoomSize(tbl.ID) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	hub.BroadcastToTable(tbl.ID, session.Message{Type: session.MsgFrame, TableID: tbl.ID, Data: tbl.Snapshot()})
	readType(t, conn, session.MsgFrame)

	ev, _ := events.NewEvent(events.TypeStats, tbl.ID, map[string]int{"balls": 0})
	hub.RelayEvent(ev)
	readType(t, conn, events.TypeStats)

	if err := mgr.Remove(tbl.ID, "removed"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	readType(t, conn, session.MsgClosed)
	if hub.RoomSize(tbl.ID) != 0 {
		t.Errorf("room not emptied")
	}
}

func TestWatchRemoteTable(t *testing.T) {
	srv, hub, _, cfg := setupServer(t)
	token, _ := auth.IssueTableToken(cfg.JWTSecret, "TBL_REMOTE", "pool", time.Minute)
	conn := dial(t, srv, "TBL_REMOTE", token)

	state := readType(t, conn, session.MsgState)
	var frame session.Frame
	if err := json.Unmarshal(state.Data, &frame); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if frame.Seq != 120 {
		t.Errorf("seq = %d, want the stored snapshot", frame.Seq)
	}

	conn.WriteJSON(map[string]string{"type": "shoot"})
	readType(t, conn, session.MsgError)

	deadline := time.Now().Add(time.Second)
	for hub.RoomSize("TBL_REMOTE") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	ev, _ := events.NewEvent(events.TypeSound, "TBL_REMOTE", []map[string]string{{"sound": "cue"}})
	hub.RelayEvent(ev)
	readType(t, conn, events.TypeSound)

	closed, _ := events.NewEvent(events.TypeTableClosed, "TBL_REMOTE", map[string]string{"status": "idle"})
	hub.RelayEvent(closed)
	readType(t, conn, session.MsgClosed)
	if hub.RoomSize("TBL_REMOTE") != 0 {
		t.Errorf("remote watchers not dropped")
	}
}

func TestHandshakeRejections(t *testing.T) {
	srv, _, mgr, cfg := setupServer(t)
	tbl, _ := mgr.CreatePool()
	other, _ := auth.IssueTableToken(cfg.JWTSecret, "TBL_OTHER", "pool", time.Minute)
	stale, _ := auth.IssueTableToken(cfg.JWTSecret, "TBL_GONE", "pool", time.Minute)

	tests := []struct {
		name    string
		tableID string
		token   string
		want    int
	}{
		{"missing token", tbl.ID, "", http.StatusBadRequest},
		{"bad token", tbl.ID, "garbage", http.StatusUnauthorized},
		{"other table", tbl.ID, other, http.StatusForbidden},
		{"unknown table", "TBL_GONE", stale, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/tables/" + tt.tableID + "/ws?token=" + tt.token)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
