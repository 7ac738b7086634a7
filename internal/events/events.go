// Package events fans table events out over Redis pub/sub and keeps the
// latest table snapshot in Redis.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel carries every table event.
const Channel = "table_events"

// Event types.
const (
	TypeSound        = "sound"
	TypeStats        = "stats"
	TypeShotSettled  = "shot_settled"
	TypeTableCreated = "table_created"
	TypeTableClosed  = "table_closed"
)

var ErrNoSnapshot = errors.New("no snapshot stored")

// Event is one published message. Origin names the instance that produced
// it so that instance can skip its own echo.
type Event struct {
	Type    string          `json:"type"`
	TableID string          `json:"table_id"`
	Origin  string          `json:"origin,omitempty"`
	At      time.Time       `json:"at"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals data into an Event.
func NewEvent(typ, tableID string, data any) (Event, error) {
	ev := Event{Type: typ, TableID: tableID, At: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return ev, fmt.Errorf("marshal %s event: %w", typ, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

// SnapshotKey is where a table's latest state lives.
func SnapshotKey(tableID string) string {
	return "table:" + tableID + ":state"
}

// Publisher writes events and snapshots. With no Redis client it does
// nothing.
type Publisher struct {
	rdb    *redis.Client
	origin string
	ttl    time.Duration
}

func NewPublisher(rdb *redis.Client, origin string, snapshotTTL time.Duration) *Publisher {
	if snapshotTTL <= 0 {
		snapshotTTL = time.Hour
	}
	return &Publisher{rdb: rdb, origin: origin, ttl: snapshotTTL}
}

func (p *Publisher) Origin() string { return p.origin }

// Publish sends ev on the table channel.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	ev.Origin = p.origin
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, Channel, b).Err(); err != nil {
		return fmt.Errorf("publish %s for %s: %w", ev.Type, ev.TableID, err)
	}
	return nil
}

// SaveSnapshot stores state as JSON under the table's snapshot key.
func (p *Publisher) SaveSnapshot(ctx context.Context, tableID string, state any) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return p.rdb.SetEx(ctx, SnapshotKey(tableID), data, p.ttl).Err()
}

// LoadSnapshot returns the stored snapshot JSON.
func (p *Publisher) LoadSnapshot(ctx context.Context, tableID string) (json.RawMessage, error) {
	if p == nil || p.rdb == nil {
		return nil, ErrNoSnapshot
	}
	data, err := p.rdb.Get(ctx, SnapshotKey(tableID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteSnapshot forgets a table's snapshot.
func (p *Publisher) DeleteSnapshot(ctx context.Context, tableID string) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Del(ctx, SnapshotKey(tableID)).Err()
}

// Subscribe relays events from other instances to handle until ctx is
// done. Events this instance published are skipped.
func Subscribe(ctx context.Context, rdb *redis.Client, origin string, handle func(Event)) {
	if rdb == nil {
		log.Println("[EVENTS] Redis client not set; subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, Channel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[EVENTS] %s subscriber started", Channel)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[EVENTS] %s subscriber stopping", Channel)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ev, err := Decode([]byte(msg.Payload))
				if err != nil {
					log.Printf("[EVENTS] invalid event payload: %v", err)
					continue
				}
				if ev.Origin == origin {
					continue
				}
				handle(ev)
			}
		}
	}()
}

// Decode parses a published payload.
func Decode(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, err
	}
	if ev.Type == "" || ev.TableID == "" {
		return ev, fmt.Errorf("event missing type or table id")
	}
	return ev, nil
}
