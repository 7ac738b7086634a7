package models

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Table kinds.
const (
	KindPinball = "pinball"
	KindPool    = "pool"
)

// Session statuses.
const (
	StatusOpen    = "open"
	StatusIdle    = "idle"
	StatusClosed  = "closed"
	StatusRemoved = "removed"
)

// TableSession is one simulated table from creation to removal.
type TableSession struct {
	ID         int64        `db:"id" json:"id"`
	TableID    string       `db:"table_id" json:"table_id"`
	Kind       string       `db:"kind" json:"kind"`
	Status     string       `db:"status" json:"status"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	LastActive time.Time    `db:"last_active" json:"last_active"`
	ClosedAt   sql.NullTime `db:"closed_at" json:"closed_at,omitempty"`
}

// PoolShot records one cue strike and how the rack ended up.
type PoolShot struct {
	ID         int64          `db:"id" json:"id"`
	TableID    string         `db:"table_id" json:"table_id"`
	ShotNumber int            `db:"shot_number" json:"shot_number"`
	Angle      float64        `db:"angle" json:"angle"`
	Outcome    string         `db:"outcome" json:"outcome"`
	Detail     types.JSONText `db:"detail" json:"detail"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// PinballStats is a sample of a pinball world's counters.
type PinballStats struct {
	ID             int64     `db:"id" json:"id"`
	TableID        string    `db:"table_id" json:"table_id"`
	Balls          int       `db:"balls" json:"balls"`
	LostBalls      int       `db:"lost_balls" json:"lost_balls"`
	Collisions     int       `db:"collisions" json:"collisions"`
	CollisionTests int       `db:"collision_tests" json:"collision_tests"`
	AABBTests      int       `db:"aabb_tests" json:"aabb_tests"`
	SampledAt      time.Time `db:"sampled_at" json:"sampled_at"`
}

// RuntimeConfig is an admin-editable override of a config value.
type RuntimeConfig struct {
	Key         string         `db:"key" json:"key"`
	Value       string         `db:"value" json:"value"`
	ValueType   string         `db:"value_type" json:"value_type"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	UpdatedBy   sql.NullString `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one admin request.
type AdminAudit struct {
	ID        int64          `db:"id" json:"id"`
	IP        string         `db:"ip" json:"ip"`
	Route     string         `db:"route" json:"route"`
	Action    string         `db:"action" json:"action"`
	Details   types.JSONText `db:"details" json:"details"`
	Success   bool           `db:"success" json:"success"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
