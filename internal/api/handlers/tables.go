package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/tablephysics/internal/auth"
	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/events"
	"github.com/playmatatu/tablephysics/internal/session"
)

func createTable(mgr *session.Manager, cfg *config.Config, create func() (*session.Table, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := create()
		if err != nil {
			log.Printf("[API] Failed to create table: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create table"})
			return
		}

		ttl := time.Duration(cfg.TableTokenTTLMinutes) * time.Minute
		token, err := auth.IssueTableToken(cfg.JWTSecret, t.ID, t.Kind, ttl)
		if err != nil {
			log.Printf("[API] Failed to sign token for %s: %v", t.ID, err)
			mgr.Remove(t.ID, "failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Header("X-Table-ID", t.ID)
		c.JSON(http.StatusCreated, gin.H{
			"table_id": t.ID,
			"kind":     t.Kind,
			"token":    token,
			"ws_url":   "/api/v1/tables/" + t.ID + "/ws?token=" + token,
		})
	}
}

// CreatePinball starts a pinball table and returns its control token.
func CreatePinball(mgr *session.Manager, cfg *config.Config) gin.HandlerFunc {
	return createTable(mgr, cfg, mgr.CreatePinball)
}

// CreatePool racks a pool end game and returns its control token.
func CreatePool(mgr *session.Manager, cfg *config.Config) gin.HandlerFunc {
	return createTable(mgr, cfg, mgr.CreatePool)
}

// SnapshotLoader reads a snapshot saved by any instance.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, tableID string) (json.RawMessage, error)
}

// GetTable returns the table's current frame. Tables running on another
// instance are served from their last stored snapshot.
func GetTable(mgr *session.Manager, snaps SnapshotLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if t, err := mgr.Get(id); err == nil {
			c.JSON(http.StatusOK, gin.H{"frame": t.Snapshot(), "remote": false})
			return
		}

		if snaps != nil {
			raw, err := snaps.LoadSnapshot(c.Request.Context(), id)
			if err == nil {
				c.JSON(http.StatusOK, gin.H{"frame": raw, "remote": true})
				return
			}
			if !errors.Is(err, events.ErrNoSnapshot) {
				log.Printf("[API] Snapshot lookup for %s failed: %v", id, err)
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
	}
}
