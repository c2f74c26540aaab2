package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/physics"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, game.DefaultSimConfig(), cfg.SimConfig())
	assert.Equal(t, physics.DefaultParams(), cfg.PhysicsParams())
	assert.Equal(t, 24*time.Hour, cfg.StateTTL())
	assert.True(t, cfg.LeaderboardEnabled)
	assert.Equal(t, "billiards", cfg.Logging().Service)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SIM_MODE", physics.ModeEvent)
	t.Setenv("SIM_TICK_SECONDS", "0.005")
	t.Setenv("SIM_MAX_TICKS", "100")
	t.Setenv("SLIDING_FRICTION", "0.25")
	t.Setenv("LEADERBOARD_ENABLED", "false")
	t.Setenv("IDLE_AREA_TIMEOUT", "90s")
	t.Setenv("STATE_TTL_MINUTES", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	sim := cfg.SimConfig()
	assert.Equal(t, physics.ModeEvent, sim.Mode)
	assert.Equal(t, 0.005, sim.TickSeconds)
	assert.Equal(t, 100, sim.MaxTicks)
	assert.Equal(t, 0.25, cfg.PhysicsParams().SlidingFriction)
	assert.False(t, cfg.LeaderboardEnabled)
	assert.Equal(t, 90*time.Second, cfg.IdleAreaTimeout)
	assert.Equal(t, 5*time.Minute, cfg.StateTTL())
	assert.Equal(t, "debug", cfg.Logging().Level)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SIM_MAX_TICKS", "lots")
	t.Setenv("SLIDING_FRICTION", "grippy")
	t.Setenv("MIGRATE_ON_START", "maybe")
	t.Setenv("SHUTDOWN_TIMEOUT", "10")

	cfg := Load()

	assert.Equal(t, game.DefaultSimConfig().MaxTicks, cfg.SimMaxTicks)
	assert.Equal(t, physics.DefaultParams().SlidingFriction, cfg.SlidingFriction)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}
