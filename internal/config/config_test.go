package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Port)
	assert.NotEmpty(t, cfg.RedisURL)
	assert.NotEmpty(t, cfg.CalendarBaseURL)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("REDIS_URL", "redis://example:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "redis://example:6379", cfg.RedisURL)
}
