package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/tablephysics/internal/models"
	"github.com/playmatatu/tablephysics/internal/session"
)

// Shoot strikes the cue ball at the current aim.
func Shoot(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := lookupTable(c, mgr)
		if !ok {
			return
		}
		if err := t.Shoot(); err != nil {
			tableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"frame": t.Snapshot()})
	}
}

func adjust(mgr *session.Manager, apply func(t *session.Table, delta float64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := lookupTable(c, mgr)
		if !ok {
			return
		}
		var req deltaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delta is required"})
			return
		}
		if err := apply(t, *req.Delta); err != nil {
			tableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"frame": t.Snapshot()})
	}
}

// Aim turns the cue by delta radians.
func Aim(mgr *session.Manager) gin.HandlerFunc {
	return adjust(mgr, (*session.Table).Aim)
}

// MoveCue slides the cue ball before the break.
func MoveCue(mgr *session.Manager) gin.HandlerFunc {
	return adjust(mgr, (*session.Table).MoveCue)
}

// Preview returns the predicted contact for the current aim.
func Preview(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := lookupTable(c, mgr)
		if !ok {
			return
		}
		p, available, err := t.Preview()
		if err != nil {
			tableError(c, err)
			return
		}
		if !available {
			c.JSON(http.StatusOK, gin.H{"available": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"available": true, "preview": p})
	}
}

// ShotHistory reads a table's recorded shots.
type ShotHistory interface {
	PoolShots(ctx context.Context, tableID string) ([]models.PoolShot, error)
}

// ListShots returns the shots recorded for a pool table.
func ListShots(shots ShotHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := shots.PoolShots(c.Request.Context(), c.Param("id"))
		if err != nil {
			log.Printf("[API] Failed to list shots: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list shots"})
			return
		}
		if list == nil {
			list = []models.PoolShot{}
		}
		c.JSON(http.StatusOK, gin.H{"shots": list})
	}
}
