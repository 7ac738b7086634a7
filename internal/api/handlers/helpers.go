package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/tablephysics/internal/pool"
	"github.com/playmatatu/tablephysics/internal/session"
)

// deltaRequest is the body of aim and cue adjustments.
type deltaRequest struct {
	Delta *float64 `json:"delta" binding:"required"`
}

// lookupTable fetches the :id table or writes a 404.
func lookupTable(c *gin.Context, mgr *session.Manager) (*session.Table, bool) {
	t, err := mgr.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return nil, false
	}
	return t, true
}

// tableError maps a table operation error onto a response.
func tableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrTableNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrWrongKind),
		errors.Is(err, pool.ErrBallsMoving),
		errors.Is(err, pool.ErrNotAiming),
		errors.Is(err, pool.ErrCuePlaced):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("[API] Table operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
