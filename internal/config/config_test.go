package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("does-not-exist.yaml")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Host)
	assert.Equal(t, "memory", cfg.Session.Storage)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "America/New_York", cfg.Session.DefaultTimezone)
	assert.Equal(t, "primary", cfg.Google.CalendarId)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Contains(t, cfg.Cors.AllowedOrigins, "http://localhost:3000")
	assert.Equal(t, "http://localhost:8080/oauth/callback", cfg.Google.RedirectUrl,
		"redirect derives from host when not set explicitly")
}

func TestLoad_RedirectFollowsHost(t *testing.T) {
	t.Setenv("VOXCAL_HOST", "https://voxcal.example.com/")

	cfg, err := Load("does-not-exist.yaml")
	require.NoError(t, err)

	assert.Equal(t, "https://voxcal.example.com/oauth/callback", cfg.Google.RedirectUrl)
}

func TestLoad_ExplicitRedirectWins(t *testing.T) {
	t.Setenv("VOXCAL_GOOGLE_REDIRECTURL", "https://other.example.com/cb")

	cfg, err := Load("does-not-exist.yaml")
	require.NoError(t, err)

	assert.Equal(t, "https://other.example.com/cb", cfg.Google.RedirectUrl)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("VOXCAL_SESSION_DEFAULTTIMEZONE", "Europe/Warsaw")
	t.Setenv("VOXCAL_SESSION_STORAGE", "postgres")
	t.Setenv("VOXCAL_GEMINI_APIKEY", "test-key")

	cfg, err := Load("does-not-exist.yaml")
	require.NoError(t, err)

	assert.Equal(t, "Europe/Warsaw", cfg.Session.DefaultTimezone)
	assert.Equal(t, "postgres", cfg.Session.Storage)
	assert.Equal(t, "test-key", cfg.Gemini.ApiKey)
	// Untouched keys keep their defaults.
	assert.Equal(t, "http://localhost:8080", cfg.Host)
}
