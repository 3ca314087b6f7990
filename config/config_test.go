package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league_test?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.True(t, cfg.UsingInsecureJWTSecret())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/league_test?sslmode=disable")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET_KEY", "real-secret")
	t.Setenv("JWT_TOKEN_TTL", "24h")
	t.Setenv("RESET_TOKEN_TTL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.ResetTokenTTL)
	assert.False(t, cfg.UsingInsecureJWTSecret())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/league_test")
		t.Setenv("SERVER_PORT", "70000")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("non-numeric port", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/league_test")
		t.Setenv("SERVER_PORT", "eighty")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("negative ttl", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/league_test")
		t.Setenv("JWT_TOKEN_TTL", "-1h")
		_, err := Load()
		assert.Error(t, err)
	})
}
