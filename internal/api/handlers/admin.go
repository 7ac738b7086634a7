package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/playmatatu/tablephysics/internal/admin"
	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/models"
	"github.com/playmatatu/tablephysics/internal/session"
)

func requireDB(c *gin.Context, db *sqlx.DB) bool {
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
		return false
	}
	return true
}

// GetAdminRuntimeConfig returns all runtime config entries
func GetAdminRuntimeConfig(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireDB(c, db) {
			return
		}
		configs, err := admin.GetAllRuntimeConfig(c.Request.Context(), db)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch runtime config: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch config"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"configs": configs})
	}
}

// UpdateAdminRuntimeConfig updates a single runtime config value and
// applies it to new and live tables.
func UpdateAdminRuntimeConfig(db *sqlx.DB, mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireDB(c, db) {
			return
		}
		ctx := c.Request.Context()
		key := c.Param("key")
		route := c.FullPath()

		var req struct {
			Value string `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
			return
		}
		details := map[string]interface{}{"key": key, "value": req.Value}

		if err := admin.UpdateRuntimeConfigValue(ctx, db, key, req.Value, c.ClientIP()); err != nil {
			log.Printf("[ADMIN] Failed to update config %s: %v", key, err)
			admin.LogAdminAction(ctx, db, c.ClientIP(), route, "update_config", details, false)
			status := http.StatusBadRequest
			if errors.Is(err, admin.ErrUnknownKey) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		entries, err := admin.GetAllRuntimeConfig(ctx, db)
		if err != nil {
			log.Printf("[ADMIN] Warning: failed to reload runtime config: %v", err)
		} else {
			n := mgr.Reconfigure(func(cfg *config.Config) { admin.ApplyRuntimeConfig(cfg, entries) })
			log.Printf("[ADMIN] Config %s=%s applied to %d live tables", key, req.Value, n)
		}

		admin.LogAdminAction(ctx, db, c.ClientIP(), route, "update_config", details, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// ListTables lists the tables live on this instance.
func ListTables(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tables": mgr.List()})
	}
}

// RemoveTable stops a table on operator request.
func RemoveTable(mgr *session.Manager, db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		err := mgr.Remove(id, models.StatusRemoved)
		admin.LogAdminAction(c.Request.Context(), db, c.ClientIP(), c.FullPath(), "remove_table", map[string]interface{}{"table_id": id}, err == nil)
		if err != nil {
			tableError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GetAdminAuditLogs pages through the audit trail.
func GetAdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireDB(c, db) {
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 500 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		logs, err := admin.GetAdminAuditLogs(c.Request.Context(), db, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "limit": limit, "offset": offset})
	}
}

// SessionHistory reads past and present table sessions.
type SessionHistory interface {
	ListSessions(ctx context.Context, limit, offset int) ([]models.TableSession, error)
}

// ListSessions returns recorded table sessions, open ones first.
func ListSessions(sessions SessionHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 500 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}
		list, err := sessions.ListSessions(c.Request.Context(), limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to list sessions: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
			return
		}
		if list == nil {
			list = []models.TableSession{}
		}
		c.JSON(http.StatusOK, gin.H{"sessions": list})
	}
}
