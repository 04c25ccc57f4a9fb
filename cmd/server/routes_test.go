package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rahul4469/crisis-analyzer/internal/analysis"
	"github.com/rahul4469/crisis-analyzer/internal/config"
	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/rahul4469/crisis-analyzer/internal/scenario"
	"github.com/rahul4469/crisis-analyzer/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Environment: "development", BaseURL: "http://localhost:8080"},
		Security: config.SecurityConfig{
			CSRFSecret:        strings.Repeat("k", 32),
			HandoffCookieName: "crisis_handoff",
			HandoffTTL:        time.Minute,
		},
		Runs: config.RunsConfig{TTL: time.Minute, AgentStep: time.Millisecond, AgentFinalDelay: time.Millisecond},
	}
}

func testDeps(t *testing.T) deps {
	t.Helper()
	registry := analysis.NewRegistry(time.Minute, nil)
	t.Cleanup(registry.Close)
	return deps{
		store:    models.NewMemoryHandoffStore(time.Minute),
		recorder: models.NopRecorder{},
		geocoder: services.NewStaticGeocoder(),
		backend:  services.NewBackendClient("http://127.0.0.1:1", time.Second, nil),
		catalog:  scenario.MustLoad(),
		registry: registry,
	}
}

func TestRoutes(t *testing.T) {
	h := routes(testConfig(), testDeps(t), zap.NewNop())

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/scenario/real-emergency", http.StatusOK},
		{http.MethodGet, "/history", http.StatusOK},
		{http.MethodGet, "/api/history", http.StatusOK},
		{http.MethodGet, "/analyze", http.StatusSeeOther},
		{http.MethodGet, "/api/runs/unknown", http.StatusNotFound},
		{http.MethodGet, "/missing", http.StatusNotFound},
		// form and API posts need a CSRF token
		{http.MethodPost, "/", http.StatusForbidden},
		{http.MethodPost, "/scenario/real-emergency/start", http.StatusForbidden},
		{http.MethodPost, "/api/overlay", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRoutes_HomeCarriesCSRFToken(t *testing.T) {
	h := routes(testConfig(), testDeps(t), zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="gorilla.csrf.Token"`)
	assert.NotContains(t, rec.Body.String(), `<meta name="csrf-token" content="">`)
}

func TestTrustedOrigins(t *testing.T) {
	assert.Equal(t, []string{"crisis.example.com"}, trustedOrigins("https://crisis.example.com"))
	assert.Nil(t, trustedOrigins("::"))
}
