package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/tablephysics/internal/admin"
	"github.com/playmatatu/tablephysics/internal/auth"
	"github.com/playmatatu/tablephysics/internal/config"
)

// Context keys set by the middleware.
const (
	CtxTableID = "table_id"
	CtxAdmin   = "admin"
)

// TableAuth requires a bearer table token for the table named in the :id
// path parameter.
func TableAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := auth.ParseTableToken(cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if id := c.Param("id"); id != "" && id != claims.TableID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is for another table"})
			return
		}

		c.Set(CtxTableID, claims.TableID)
		c.Next()
	}
}

// AdminKey requires the X-Admin-Key header to match ADMIN_KEY_HASH.
func AdminKey(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin key required"})
			return
		}
		if !admin.VerifyAdminKey(cfg.AdminKeyHash, key) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid admin key"})
			return
		}
		c.Set(CtxAdmin, c.ClientIP())
		c.Next()
	}
}
