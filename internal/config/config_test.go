package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSRF = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CSRF_SECRET", testCSRF)
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.HasDatabase())
	assert.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Security.HandoffTTL)
	assert.Equal(t, 800*time.Millisecond, cfg.Runs.AgentStep)
	assert.Equal(t, time.Second, cfg.Runs.AgentFinalDelay)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CSRF_SECRET", testCSRF)
	t.Setenv("APP_ENV", "production")
	t.Setenv("BACKEND_URL", "https://orchestrator.internal:9000")
	t.Setenv("BACKEND_TIMEOUT", "15s")
	t.Setenv("DATABASE_URL", "postgres://localhost/crisis")
	t.Setenv("HANDOFF_SECRET", "handoff")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Security.SecureCookies)
	assert.True(t, cfg.HasDatabase())
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing csrf", map[string]string{"CSRF_SECRET": ""}, "CSRF_SECRET is required"},
		{"short csrf", map[string]string{"CSRF_SECRET": "short"}, "at least 32 characters"},
		{"db without handoff secret", map[string]string{"DATABASE_URL": "postgres://x", "HANDOFF_SECRET": ""}, "HANDOFF_SECRET is required"},
		{"bad backend url", map[string]string{"BACKEND_URL": "localhost:8000"}, "BACKEND_URL"},
		{"bad duration", map[string]string{"BACKEND_TIMEOUT": "soon"}, "invalid BACKEND_TIMEOUT"},
		{"negative duration", map[string]string{"AGENT_STEP": "-1s"}, "AGENT_STEP must be positive"},
		{"bad env", map[string]string{"APP_ENV": "qa"}, "APP_ENV must be one of"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CSRF_SECRET", testCSRF)
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
