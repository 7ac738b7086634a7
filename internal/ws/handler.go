package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/playmatatu/tablephysics/internal/auth"
	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is checked by middleware.WebSocketCORSCheck
	},
}

// Client is one WebSocket watching a table.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	tableID string
	send    chan []byte
	remote  bool // table runs on another instance; watch only
	closed  bool // guarded by hub.mu
}

// close must be called with hub.mu held.
func (c *Client) close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WSMessage is an inbound command.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DeltaData carries an aim or cue adjustment.
type DeltaData struct {
	Delta float64 `json:"delta"`
}

// SnapshotLoader reads the stored snapshot of a table on any instance.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, tableID string) (json.RawMessage, error)
}

// HandleWebSocket upgrades a request for /tables/:id/ws?token=... once the
// table token checks out. A table hosted by another instance can still be
// watched: the client gets its last snapshot and the events relayed from
// Redis, but cannot drive it.
func HandleWebSocket(hub *Hub, mgr *session.Manager, snaps SnapshotLoader, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID := c.Param("id")
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}

		claims, err := auth.ParseTableToken(cfg.JWTSecret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.TableID != tableID {
			c.JSON(http.StatusForbidden, gin.H{"error": "token is for another table"})
			return
		}

		var initial any
		remote := false
		if table, err := mgr.Get(tableID); err == nil {
			initial = table.Snapshot()
		} else {
			var raw json.RawMessage
			if snaps != nil {
				raw, err = snaps.LoadSnapshot(c.Request.Context(), tableID)
			}
			if snaps == nil || err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
				return
			}
			initial, remote = raw, true
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			hub:     hub,
			conn:    conn,
			tableID: tableID,
			send:    make(chan []byte, sendBuffer),
			remote:  remote,
		}
		if !hub.join(client) {
			conn.Close()
			return
		}

		client.reply(session.MsgState, initial)

		go client.writePump()
		go client.readPump(mgr)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for table %s: %v", c.tableID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for table %s: %v", c.tableID, err)
				return
			}
		}
	}
}

// readPump reads commands until the connection drops.
func (c *Client) readPump(mgr *session.Manager) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Unexpected close for table %s: %v", c.tableID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handleMessage(mgr, msg)
	}
}

// handleMessage applies one command to the client's table.
func (c *Client) handleMessage(mgr *session.Manager, msg WSMessage) {
	if c.remote {
		c.sendError("table is hosted on another instance")
		return
	}
	table, err := mgr.Get(c.tableID)
	if err != nil {
		c.sendError("table not found")
		return
	}

	switch msg.Type {
	case "launch":
		id, err := table.Launch()
		if c.check(err) {
			c.reply("launched", gin.H{"ball_id": id})
		}

	case "clear":
		if c.check(table.ClearBalls()) {
			c.reply(session.MsgState, table.Snapshot())
		}

	case "clear_dots":
		c.check(table.ClearDots())

	case "shoot":
		c.check(table.Shoot())

	case "aim", "move_cue":
		var data DeltaData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid delta")
			return
		}
		if msg.Type == "aim" {
			err = table.Aim(data.Delta)
		} else {
			err = table.MoveCue(data.Delta)
		}
		if c.check(err) {
			c.reply(session.MsgState, table.Snapshot())
		}

	case "preview":
		p, ok, err := table.Preview()
		if c.check(err) {
			c.reply("preview", gin.H{"available": ok, "preview": p})
		}

	case "get_state":
		c.reply(session.MsgState, table.Snapshot())

	default:
		c.sendError("unknown message type")
	}
}

// check reports err to the client and returns whether it was nil.
func (c *Client) check(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, session.ErrWrongKind) {
		c.sendError("command not supported by this table")
		return false
	}
	c.sendError(err.Error())
	return false
}

func (c *Client) reply(typ string, data any) {
	b, err := json.Marshal(session.Message{Type: typ, TableID: c.tableID, Data: data})
	if err != nil {
		log.Printf("[WS] Error marshaling reply: %v", err)
		return
	}
	c.trySend(b)
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	b, _ := json.Marshal(session.Message{Type: session.MsgError, TableID: c.tableID, Data: gin.H{"message": message}})
	c.trySend(b)
}

// trySend queues b unless the buffer is full or the client is closed.
func (c *Client) trySend(b []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}
