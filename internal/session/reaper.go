package session

import (
	"context"
	"log"
	"time"

	"github.com/playmatatu/tablephysics/internal/models"
)

// ReapIdle removes tables nobody has driven for the configured idle time
// and returns their ids.
func (m *Manager) ReapIdle(now time.Time) []string {
	limit := m.idleLimit()
	if limit <= 0 {
		return nil
	}

	var reaped []string
	for _, s := range m.List() {
		if now.Sub(s.LastActive) < limit {
			continue
		}
		if err := m.Remove(s.ID, models.StatusIdle); err != nil {
			continue
		}
		reaped = append(reaped, s.ID)
	}
	return reaped
}

// StartReaper polls for idle tables until ctx is done.
func (m *Manager) StartReaper(ctx context.Context) {
	if m.cfg.IdlePollSeconds <= 0 {
		log.Println("[IDLE] Poll interval not set; reaper not started")
		return
	}

	log.Println("[IDLE] Table reaper started")
	go func() {
		ticker := time.NewTicker(time.Duration(m.cfg.IdlePollSeconds) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Table reaper stopping")
				return
			case now := <-ticker.C:
				if ids := m.ReapIdle(now); len(ids) > 0 {
					log.Printf("[IDLE] Reaped %d idle tables: %v", len(ids), ids)
				}
			}
		}
	}()
}
