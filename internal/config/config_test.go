package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "campus")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DBPass)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 25, cfg.DBMaxIdleConns)
	assert.Equal(t, 30, cfg.DBConnLifetime)
	assert.Equal(t, 30, cfg.AvailabilityTTL)
	assert.False(t, cfg.ConsumerDisabled)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("DB_MAX_IDLE_CONNS", "10")
	t.Setenv("DB_CONN_LIFETIME_MIN", "60")
	t.Setenv("AVAILABILITY_CACHE_TTL_SEC", "5")
	t.Setenv("EVENT_CONSUMER_DISABLED", "true")

	cfg := Load()
	assert.Equal(t, "secret", cfg.DBPass)
	assert.Equal(t, 50, cfg.DBMaxOpenConns)
	assert.Equal(t, 10, cfg.DBMaxIdleConns)
	assert.Equal(t, 60, cfg.DBConnLifetime)
	assert.Equal(t, 5, cfg.AvailabilityTTL)
	assert.True(t, cfg.ConsumerDisabled)
}
