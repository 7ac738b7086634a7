package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Security
	JWTSecret            string
	TableTokenTTLMinutes int
	AdminKeyHash         string

	// Physics
	FrameRate           int
	MotionIterations    int
	CollisionIterations int
	PoolIterations      int
	BallScale           float64
	BallRadius          float64
	PoolBallSize        float64
	ReticleLifeMS       int
	ShowImpacts         bool
	LayoutFile          string

	// Sessions
	SnapshotTTLMinutes int
	TableIdleMinutes   int
	IdlePollSeconds    int
	StatsSampleSeconds int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/tablephysics?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Security
		JWTSecret:            getEnv("JWT_SECRET", "change-me-in-production"),
		TableTokenTTLMinutes: getEnvInt("TABLE_TOKEN_TTL_MINUTES", 120),
		AdminKeyHash:         getEnv("ADMIN_KEY_HASH", ""),

		// Physics
		FrameRate:           getEnvInt("FRAME_RATE", 60),
		MotionIterations:    getEnvInt("MOTION_ITERATIONS", 4),
		CollisionIterations: getEnvInt("COLLISION_ITERATIONS", 4),
		PoolIterations:      getEnvInt("POOL_ITERATIONS", 2),
		BallScale:           getEnvFloat("BALL_SCALE", 0.75),
		BallRadius:          getEnvFloat("BALL_RADIUS", 32),
		PoolBallSize:        getEnvFloat("POOL_BALL_SIZE", 26),
		ReticleLifeMS:       getEnvInt("RETICLE_LIFE_MS", 2000),
		ShowImpacts:         getEnvBool("SHOW_IMPACTS", false),
		LayoutFile:          getEnv("LAYOUT_FILE", ""),

		// Sessions
		SnapshotTTLMinutes: getEnvInt("SNAPSHOT_TTL_MINUTES", 60),
		TableIdleMinutes:   getEnvInt("TABLE_IDLE_MINUTES", 15),
		IdlePollSeconds:    getEnvInt("IDLE_POLL_SECONDS", 30),
		StatsSampleSeconds: getEnvInt("STATS_SAMPLE_SECONDS", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
