// Package store persists table sessions, pool shots and pinball counter
// samples in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/playmatatu/tablephysics/internal/models"
)

var ErrSessionNotFound = errors.New("table session not found")

// Store wraps the database handle. A nil *Store or one without a DB
// accepts every write and does nothing.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) enabled() bool {
	return s != nil && s.db != nil
}

// RecordSession inserts a new open session.
func (s *Store) RecordSession(ctx context.Context, tableID, kind string) error {
	if !s.enabled() {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO table_sessions (table_id, kind, status, created_at, last_active)
		VALUES ($1, $2, $3, NOW(), NOW())
	`, tableID, kind, models.StatusOpen)
	if err != nil {
		return fmt.Errorf("record session %s: %w", tableID, err)
	}
	return nil
}

// TouchSession bumps a session's last activity time.
func (s *Store) TouchSession(ctx context.Context, tableID string) error {
	if !s.enabled() {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `UPDATE table_sessions SET last_active=NOW() WHERE table_id=$1`, tableID)
	return err
}

// CloseSession marks a session finished with the given status.
func (s *Store) CloseSession(ctx context.Context, tableID, status string) error {
	if !s.enabled() {
		return nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE table_sessions SET status=$1, closed_at=NOW() WHERE table_id=$2 AND closed_at IS NULL
	`, status, tableID)
	if err != nil {
		return fmt.Errorf("close session %s: %w", tableID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetSession loads one session by table id.
func (s *Store) GetSession(ctx context.Context, tableID string) (*models.TableSession, error) {
	if !s.enabled() {
		return nil, ErrSessionNotFound
	}
	var ts models.TableSession
	err := s.db.GetContext(ctx, &ts, `
		SELECT id, table_id, kind, status, created_at, last_active, closed_at
		FROM table_sessions WHERE table_id=$1
	`, tableID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// ListSessions returns the most recent sessions, open ones first.
func (s *Store) ListSessions(ctx context.Context, limit, offset int) ([]models.TableSession, error) {
	if !s.enabled() {
		return nil, nil
	}
	var out []models.TableSession
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, table_id, kind, status, created_at, last_active, closed_at
		FROM table_sessions
		ORDER BY (closed_at IS NULL) DESC, created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return out, err
}

// ShotRecord is what a table reports after a pool shot settles.
type ShotRecord struct {
	Angle   float64
	Outcome string
	Detail  any
}

// RecordPoolShot appends a shot to the table's history with the detail
// stored as JSONB.
func (s *Store) RecordPoolShot(ctx context.Context, tableID string, shot ShotRecord) error {
	if !s.enabled() {
		return nil
	}

	detail, err := json.Marshal(shot.Detail)
	if err != nil {
		log.Printf("[DB] Failed to marshal shot detail for table %s: %v", tableID, err)
		detail = []byte("{}")
	}

	var maxShot int
	if err := s.db.GetContext(ctx, &maxShot, `SELECT COALESCE(MAX(shot_number), 0) FROM pool_shots WHERE table_id = $1`, tableID); err != nil {
		return fmt.Errorf("max shot number for %s: %w", tableID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pool_shots (table_id, shot_number, angle, outcome, detail, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, NOW())
	`, tableID, maxShot+1, shot.Angle, shot.Outcome, string(detail))
	if err != nil {
		return fmt.Errorf("record pool shot for %s: %w", tableID, err)
	}
	return nil
}

// PoolShots lists a table's shots in order.
func (s *Store) PoolShots(ctx context.Context, tableID string) ([]models.PoolShot, error) {
	if !s.enabled() {
		return nil, nil
	}
	var out []models.PoolShot
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, table_id, shot_number, angle, outcome, detail, created_at
		FROM pool_shots WHERE table_id=$1 ORDER BY shot_number
	`, tableID)
	return out, err
}

// RecordPinballStats stores one counter sample.
func (s *Store) RecordPinballStats(ctx context.Context, st models.PinballStats) error {
	if !s.enabled() {
		return nil
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO pinball_stats (table_id, balls, lost_balls, collisions, collision_tests, aabb_tests, sampled_at)
		VALUES (:table_id, :balls, :lost_balls, :collisions, :collision_tests, :aabb_tests, NOW())
	`, st)
	if err != nil {
		return fmt.Errorf("record pinball stats for %s: %w", st.TableID, err)
	}
	return nil
}

// PinballStats returns the latest samples for a table, newest first.
func (s *Store) PinballStats(ctx context.Context, tableID string, limit int) ([]models.PinballStats, error) {
	if !s.enabled() {
		return nil, nil
	}
	var out []models.PinballStats
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, table_id, balls, lost_balls, collisions, collision_tests, aabb_tests, sampled_at
		FROM pinball_stats WHERE table_id=$1 ORDER BY sampled_at DESC LIMIT $2
	`, tableID, limit)
	return out, err
}
