package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/playmatatu/tablephysics/internal/api/handlers"
	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/events"
	"github.com/playmatatu/tablephysics/internal/middleware"
	"github.com/playmatatu/tablephysics/internal/session"
	"github.com/playmatatu/tablephysics/internal/store"
	"github.com/playmatatu/tablephysics/internal/ws"
)

// Deps is everything the routes need. DB may be nil.
type Deps struct {
	DB      *sqlx.DB
	Store   *store.Store
	Events  *events.Publisher
	Manager *session.Manager
	Hub     *ws.Hub
	Config  *config.Config
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	cfg := d.Config
	mgr := d.Manager

	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck(mgr))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(mgr))

		v1.POST("/pinball", handlers.CreatePinball(mgr, cfg))
		v1.POST("/pool", handlers.CreatePool(mgr, cfg))

		tables := v1.Group("/tables/:id")
		{
			tables.GET("", handlers.GetTable(mgr, d.Events))
			tables.GET("/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleWebSocket(d.Hub, mgr, d.Events, cfg))
			tables.GET("/shots", handlers.ListShots(d.Store))
		}

		pinball := v1.Group("/pinball/:id", middleware.TableAuth(cfg))
		{
			pinball.POST("/launch", handlers.LaunchBall(mgr))
			pinball.POST("/clear", handlers.ClearBalls(mgr))
			pinball.POST("/clear-dots", handlers.ClearDots(mgr))
			pinball.GET("/stats", handlers.GetStats(mgr))
			pinball.GET("/balls/:ball/crumbs", handlers.GetCrumbs(mgr))
		}

		pool := v1.Group("/pool/:id")
		{
			pool.GET("/preview", handlers.Preview(mgr))

			shots := pool.Group("", middleware.TableAuth(cfg))
			{
				shots.POST("/shoot", handlers.Shoot(mgr))
				shots.POST("/aim", handlers.Aim(mgr))
				shots.POST("/cue", handlers.MoveCue(mgr))
			}
		}

		adminGroup := v1.Group("/admin", middleware.AdminKey(cfg))
		{
			adminGroup.GET("/config", handlers.GetAdminRuntimeConfig(d.DB))
			adminGroup.PUT("/config/:key", handlers.UpdateAdminRuntimeConfig(d.DB, mgr))
			adminGroup.GET("/tables", handlers.ListTables(mgr))
			adminGroup.DELETE("/tables/:id", handlers.RemoveTable(mgr, d.DB))
			adminGroup.GET("/sessions", handlers.ListSessions(d.Store))
			adminGroup.GET("/audit", handlers.GetAdminAuditLogs(d.DB))
		}
	}
}
