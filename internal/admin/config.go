package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/models"
)

var ErrUnknownKey = errors.New("config key not found")

// GetAllRuntimeConfig returns all runtime config entries.
func GetAllRuntimeConfig(ctx context.Context, db *sqlx.DB) ([]models.RuntimeConfig, error) {
	var configs []models.RuntimeConfig
	err := db.SelectContext(ctx, &configs, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// GetRuntimeConfigValue returns a single runtime config entry.
func GetRuntimeConfigValue(ctx context.Context, db *sqlx.DB, key string) (*models.RuntimeConfig, error) {
	var cfg models.RuntimeConfig
	err := db.GetContext(ctx, &cfg, `SELECT key, value, value_type, description, updated_by, updated_at FROM runtime_config WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateValue checks value parses as valueType.
func ValidateValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// UpdateRuntimeConfigValue validates value against the stored type and
// saves it.
func UpdateRuntimeConfigValue(ctx context.Context, db *sqlx.DB, key, value, updatedBy string) error {
	existing, err := GetRuntimeConfigValue(ctx, db, key)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := ValidateValue(existing.ValueType, value); err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3
	`, value, updatedBy, key)
	return err
}

// ApplyRuntimeConfig copies recognised overrides onto cfg and returns how
// many were applied. Values that don't parse are skipped.
func ApplyRuntimeConfig(cfg *config.Config, entries []models.RuntimeConfig) int {
	applied := 0
	setInt := func(dst *int, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
			applied++
		}
	}

	for _, c := range entries {
		switch c.Key {
		case "motion_iterations":
			setInt(&cfg.MotionIterations, c.Value)
		case "collision_iterations":
			setInt(&cfg.CollisionIterations, c.Value)
		case "pool_iterations":
			setInt(&cfg.PoolIterations, c.Value)
		case "reticle_life_ms":
			setInt(&cfg.ReticleLifeMS, c.Value)
		case "table_idle_minutes":
			setInt(&cfg.TableIdleMinutes, c.Value)
		case "show_impacts":
			if b, err := strconv.ParseBool(c.Value); err == nil {
				cfg.ShowImpacts = b
				applied++
			}
		case "ball_scale":
			if f, err := strconv.ParseFloat(c.Value, 64); err == nil {
				cfg.BallScale = f
				applied++
			}
		}
	}
	return applied
}

// ApplyRuntimeConfigToConfig loads overrides from the database onto cfg.
func ApplyRuntimeConfigToConfig(ctx context.Context, db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(ctx, db)
	if err != nil {
		return err
	}
	n := ApplyRuntimeConfig(cfg, configs)
	log.Printf("[CONFIG] Applied %d runtime config overrides from database", n)
	return nil
}
