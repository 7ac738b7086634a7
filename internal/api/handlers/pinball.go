package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/tablephysics/internal/session"
)

// LaunchBall fires a ball up the launch lane.
func LaunchBall(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := lookupTable(c, mgr)
		if !ok {
			return
		}
		id, err := t.Launch()
		if err != nil {
			tableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ball_id": id})
	}
}

// ClearBalls empties the table of balls and markers.
func ClearBalls(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := lookupTable(c, mgr)
		if !ok {
			return
		}
		if err := t.ClearBalls(); err != nil {
			tableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func ClearDots(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := lookupTable(c, mgr)
		if !ok {
			return
		}
		if err := t.ClearDots(); err != nil {
			tableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GetStats takes a fresh counter sample. Each call resets the collision
// counters, so consecutive calls report per-interval figures.
func GetStats(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := mgr.SampleStats(c.Param("id"))
		if err != nil {
			tableError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// GetCrumbs returns a ball's trail.
func GetCrumbs(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := lookupTable(c, mgr)
		if !ok {
			return
		}
		ballID, err := strconv.Atoi(c.Param("ball"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ball id"})
			return
		}
		crumbs, found, err := t.Crumbs(ballID)
		if err != nil {
			tableError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "ball not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ball_id": ballID, "crumbs": crumbs})
	}
}
