package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/playmatatu/tablephysics/internal/admin"
	"github.com/playmatatu/tablephysics/internal/api"
	"github.com/playmatatu/tablephysics/internal/config"
	"github.com/playmatatu/tablephysics/internal/database"
	"github.com/playmatatu/tablephysics/internal/events"
	"github.com/playmatatu/tablephysics/internal/layout"
	"github.com/playmatatu/tablephysics/internal/migrations"
	"github.com/playmatatu/tablephysics/internal/redis"
	"github.com/playmatatu/tablephysics/internal/session"
	"github.com/playmatatu/tablephysics/internal/store"
	"github.com/playmatatu/tablephysics/internal/ws"
)

func main() {
	// Initialize configuration (loads .env if present)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database is optional: without it tables still run, nothing is persisted.
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		conn, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Unavailable, running without persistence: %v", err)
		} else {
			db = conn
			defer db.Close()

			if cfg.MigrateOnStart {
				log.Println("[MIGRATE] Running DB migrations on startup...")
				if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
					log.Fatalf("Failed to run migrations: %v", err)
				}
			}

			if err := admin.ApplyRuntimeConfigToConfig(ctx, db, cfg); err != nil {
				log.Printf("[CONFIG] Runtime overrides not applied: %v", err)
			}
		}
	}

	// Redis is optional too: it carries cross-instance events and snapshots.
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("[REDIS] Unavailable, running single-instance: %v", err)
		} else {
			rdb = client
			defer rdb.Close()
		}
	}

	tableLayout := layout.Default()
	if cfg.LayoutFile != "" {
		l, err := layout.Load(cfg.LayoutFile)
		if err != nil {
			log.Fatalf("Failed to load layout: %v", err)
		}
		tableLayout = l
		log.Printf("[SESSION] Using pinball layout %s (%d shapes)", cfg.LayoutFile, l.ShapeCount())
	}

	hostname, _ := os.Hostname()
	origin := fmt.Sprintf("node-%s-%d", hostname, os.Getpid())
	publisher := events.NewPublisher(rdb, origin, time.Duration(cfg.SnapshotTTLMinutes)*time.Minute)
	st := store.New(db)

	mgr := session.NewManager(ctx, cfg, session.Deps{
		Store:  st,
		Events: publisher,
		Layout: tableLayout,
	})

	hub := ws.NewHub()
	go hub.Run(ctx)
	mgr.SetHub(hub)

	if rdb != nil {
		events.Subscribe(ctx, rdb, origin, hub.RelayEvent)
	}
	mgr.StartReaper(ctx)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	api.SetupRoutes(router, api.Deps{
		DB:      db,
		Store:   st,
		Events:  publisher,
		Manager: mgr,
		Hub:     hub,
		Config:  cfg,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting table physics server on port %s (origin %s)", cfg.Port, origin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	mgr.Shutdown()
}
