// Package ws streams table frames to browsers and takes commands back.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/playmatatu/tablephysics/internal/events"
	"github.com/playmatatu/tablephysics/internal/session"
)

// Hub maintains the watchers of every table.
type Hub struct {
	rooms      map[string]map[*Client]bool // tableID -> clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub. Call Run before registering clients.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// join hands c to Run. It fails once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.tableID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.tableID] = room
			}
			room[client] = true
			size := len(room)
			h.mu.Unlock()
			log.Printf("[WS] Client joined table %s (room_size=%d)", client.tableID, size)

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.tableID]; ok && room[client] {
				delete(room, client)
				if len(room) == 0 {
					delete(h.rooms, client.tableID)
				}
				client.close()
				log.Printf("[WS] Client left table %s", client.tableID)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			c.close()
		}
		delete(h.rooms, id)
	}
}

// BroadcastToTable sends msg to every client watching tableID. Slow
// clients miss messages rather than stall the frame loop.
func (h *Hub) BroadcastToTable(tableID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	h.broadcastRaw(tableID, data)
}

func (h *Hub) broadcastRaw(tableID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[tableID] {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] Send buffer full for table %s, dropping message", tableID)
		}
	}
}

// CloseTable disconnects every watcher of tableID.
func (h *Hub) CloseTable(tableID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[tableID] {
		c.close()
	}
	delete(h.rooms, tableID)
}

// RoomSize is the number of clients watching tableID.
func (h *Hub) RoomSize(tableID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tableID])
}

// RelayEvent forwards an event published by another instance to local
// watchers of the same table. A closed table drops its watchers.
func (h *Hub) RelayEvent(ev events.Event) {
	if h.RoomSize(ev.TableID) == 0 {
		return
	}
	if ev.Type == events.TypeTableClosed {
		h.BroadcastToTable(ev.TableID, session.Message{Type: session.MsgClosed, TableID: ev.TableID, Data: ev.Data})
		h.CloseTable(ev.TableID)
		return
	}
	h.BroadcastToTable(ev.TableID, ev)
}
