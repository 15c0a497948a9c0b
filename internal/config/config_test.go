package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marcusv/decksched/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "decksched.db", cfg.DBPath)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "distribute", cfg.NewSpread)
	assert.Equal(t, 1200, cfg.CollapseSeconds)
	assert.Equal(t, 50, cfg.QueueLimit)
	assert.True(t, cfg.BurySiblings)
	assert.Equal(t, 1, cfg.WorkerCount)
	assert.Equal(t, 16, cfg.WorkerQueueSize)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DB_PATH", "/tmp/cards.db")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("NEW_SPREAD", "last")
	t.Setenv("COLLAPSE_SECONDS", "600")
	t.Setenv("QUEUE_LIMIT", "25")
	t.Setenv("BURY_SIBLINGS", "false")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/tmp/cards.db", cfg.DBPath)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "last", cfg.NewSpread)
	assert.Equal(t, 600, cfg.CollapseSeconds)
	assert.Equal(t, 25, cfg.QueueLimit)
	assert.False(t, cfg.BurySiblings)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("COLLAPSE_SECONDS", "soon")
	t.Setenv("BURY_SIBLINGS", "kinda")

	cfg := config.Load()

	assert.Equal(t, 1200, cfg.CollapseSeconds)
	assert.True(t, cfg.BurySiblings)
}
