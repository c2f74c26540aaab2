package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/logging"
	"github.com/playmatatu/billiards/internal/physics"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL        string
	MigrateOnStart     bool
	MigrationsDir      string
	LeaderboardEnabled bool

	// Redis
	RedisURL        string
	StateTTLMinutes int

	// Server
	Port            string
	FrontendURL     string
	ShutdownTimeout time.Duration

	// Websocket
	WSMessagesPerSecond float64
	WSBurst             int
	WSStreamTicks       bool

	// Idle areas
	IdleSweepInterval time.Duration
	IdleAreaTimeout   time.Duration

	// Simulation
	SimMode          string
	SimTickSeconds   float64
	SimMaxTicks      int
	SimHistoryStride int

	// Physics overrides
	SlidingFriction     float64
	RollingFriction     float64
	BallBallRestitution float64
	CueTipFriction      float64

	// Logging
	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Security
	JWTSecret        string
	SeatTokenMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	defaults := physics.DefaultParams()
	sim := game.DefaultSimConfig()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:        getEnv("DATABASE_URL", "postgres://localhost:5432/billiards?sslmode=disable"),
		MigrateOnStart:     getEnvBool("MIGRATE_ON_START", false),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "migrations"),
		LeaderboardEnabled: getEnvBool("LEADERBOARD_ENABLED", true),

		// Redis
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StateTTLMinutes: getEnvInt("STATE_TTL_MINUTES", 24*60),

		// Server
		Port:            getEnv("APP_PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		// Websocket
		WSMessagesPerSecond: getEnvFloat("WS_MESSAGES_PER_SECOND", 20),
		WSBurst:             getEnvInt("WS_BURST", 40),
		WSStreamTicks:       getEnvBool("WS_STREAM_TICKS", false),

		// Idle areas
		IdleSweepInterval: getEnvDuration("IDLE_SWEEP_INTERVAL", time.Minute),
		IdleAreaTimeout:   getEnvDuration("IDLE_AREA_TIMEOUT", 30*time.Minute),

		// Simulation
		SimMode:          getEnv("SIM_MODE", sim.Mode),
		SimTickSeconds:   getEnvFloat("SIM_TICK_SECONDS", sim.TickSeconds),
		SimMaxTicks:      getEnvInt("SIM_MAX_TICKS", sim.MaxTicks),
		SimHistoryStride: getEnvInt("SIM_HISTORY_STRIDE", sim.HistoryStride),

		// Physics overrides
		SlidingFriction:     getEnvFloat("SLIDING_FRICTION", defaults.SlidingFriction),
		RollingFriction:     getEnvFloat("ROLLING_FRICTION", defaults.RollingFriction),
		BallBallRestitution: getEnvFloat("BALL_BALL_RESTITUTION", defaults.BallBallRestitution),
		CueTipFriction:      getEnvFloat("CUE_TIP_FRICTION", defaults.CueTipFriction),

		// Logging
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),

		// Security
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		SeatTokenMinutes: getEnvInt("SEAT_TOKEN_MINUTES", 12*60),
	}
}

// PhysicsParams is the regulation parameter set with the configured overrides applied.
func (c *Config) PhysicsParams() physics.Params {
	p := physics.DefaultParams()
	p.SlidingFriction = c.SlidingFriction
	p.RollingFriction = c.RollingFriction
	p.BallBallRestitution = c.BallBallRestitution
	p.CueTipFriction = c.CueTipFriction
	return p
}

func (c *Config) SimConfig() game.SimConfig {
	return game.SimConfig{
		Mode:          c.SimMode,
		TickSeconds:   c.SimTickSeconds,
		MaxTicks:      c.SimMaxTicks,
		HistoryStride: c.SimHistoryStride,
	}
}

func (c *Config) Logging() logging.Config {
	return logging.Config{
		Service:    "billiards",
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
		Compress:   true,
	}
}

func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.StateTTLMinutes) * time.Minute
}

func (c *Config) SeatTokenTTL() time.Duration {
	return time.Duration(c.SeatTokenMinutes) * time.Minute
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

// getEnvDuration accepts Go duration strings such as "90s" or "5m".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
