package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Server config
	Server ServerConfig

	// database config, optional
	Database DatabaseConfig

	// CSRF and handoff cookie config
	Security SecurityConfig

	// analysis backend
	Backend BackendConfig

	// geocoding
	Maps MapsConfig

	// live and scenario runs
	Runs RunsConfig

	Log LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	BaseURL     string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL means
// handoffs and history stay in memory.
type DatabaseConfig struct {
	URL string
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	CSRFSecret        string
	HandoffCookieName string
	HandoffSecret     string
	HandoffTTL        time.Duration
	SecureCookies     bool // true in production
}

type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

type MapsConfig struct {
	APIKey string
}

type RunsConfig struct {
	TTL             time.Duration
	AgentStep       time.Duration
	AgentFinalDelay time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// HasDatabase reports whether a Postgres database is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []error
	duration := func(key string, def time.Duration) time.Duration {
		d, err := getDurationOrDefault(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	cfg.Server = ServerConfig{
		Port:        getEnvOrDefault("SERVER_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		BaseURL:     getEnvOrDefault("BASE_URL", "http://localhost:8080"),
	}

	cfg.Database = DatabaseConfig{
		URL: os.Getenv("DATABASE_URL"),
	}

	cfg.Security = SecurityConfig{
		CSRFSecret:        os.Getenv("CSRF_SECRET"),
		HandoffCookieName: getEnvOrDefault("HANDOFF_COOKIE_NAME", "crisis_handoff"),
		HandoffSecret:     os.Getenv("HANDOFF_SECRET"),
		HandoffTTL:        duration("HANDOFF_TTL", 10*time.Minute),
		SecureCookies:     cfg.Server.Environment == "production",
	}

	cfg.Backend = BackendConfig{
		URL:     getEnvOrDefault("BACKEND_URL", "http://localhost:8000"),
		Timeout: duration("BACKEND_TIMEOUT", 60*time.Second),
	}

	cfg.Maps = MapsConfig{
		APIKey: os.Getenv("MAPS_API_KEY"),
	}

	cfg.Runs = RunsConfig{
		TTL:             duration("RUN_TTL", 30*time.Minute),
		AgentStep:       duration("AGENT_STEP", 800*time.Millisecond),
		AgentFinalDelay: duration("AGENT_FINAL_DELAY", time.Second),
	}

	cfg.Log = LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present and valid.
func (c *Config) validate() error {
	var errs []error

	// CSRF secret must be set and sufficiently long
	if c.Security.CSRFSecret == "" {
		errs = append(errs, errors.New("CSRF_SECRET is required"))
	} else if len(c.Security.CSRFSecret) < 32 {
		errs = append(errs, errors.New("CSRF_SECRET must be at least 32 characters"))
	}

	// handoffs are encrypted at rest when they go to Postgres
	if c.HasDatabase() && c.Security.HandoffSecret == "" {
		errs = append(errs, errors.New("HANDOFF_SECRET is required when DATABASE_URL is set"))
	}

	if u, err := url.Parse(c.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("BACKEND_URL must be an http(s) URL (got: %s)", c.Backend.URL))
	}

	positive := map[string]time.Duration{
		"HANDOFF_TTL":       c.Security.HandoffTTL,
		"BACKEND_TIMEOUT":   c.Backend.Timeout,
		"RUN_TTL":           c.Runs.TTL,
		"AGENT_STEP":        c.Runs.AgentStep,
		"AGENT_FINAL_DELAY": c.Runs.AgentFinalDelay,
	}
	for _, key := range []string{"HANDOFF_TTL", "BACKEND_TIMEOUT", "RUN_TTL", "AGENT_STEP", "AGENT_FINAL_DELAY"} {
		if positive[key] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL is invalid: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console (got: %s)", c.Log.Format))
	}

	// Validate environment is a known value
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.Server.Environment] {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of: development, staging, production (got: %s)", c.Server.Environment))
	}

	// Combine all errors
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}

	return nil
}

// getEnvOrDefault returns the .env value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// MustLoad is like Load but panics on error.
// Used in main() where its required to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
