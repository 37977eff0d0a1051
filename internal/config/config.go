// Package config loads webforge configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"webforge/internal/logging"
)

// Config holds all runtime configuration for the server.
type Config struct {
	// Server
	Port        string
	Environment string

	// Persistence
	DatabaseURL string // postgres DSN; empty selects the embedded sqlite store
	SQLitePath  string
	RedisURL    string

	// Auth
	JWTSecret      string
	AccessTokenTTL time.Duration

	// AI providers
	OpenAIKey string
	ClaudeKey string

	// Generated sites
	WorkspaceDir string // root directory for generated project slugs
	PreviewBase  string // public base URL for preview links

	// Self-healing build loop
	MaxBuildAttempts int
	PassRateTarget   float64 // minimum pass rate to accept a build outright
	PassRateFloor    float64 // pass rate accepted as partial success on the last attempt
}

// Load reads .env (when present) and assembles the configuration.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logging.S().Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		Port:             envOr("PORT", "8080"),
		Environment:      envOr("ENVIRONMENT", "development"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       envOr("SQLITE_PATH", "webforge.db"),
		RedisURL:         os.Getenv("REDIS_URL"),
		JWTSecret:        envOr("JWT_SECRET", "dev-secret-change-me"),
		AccessTokenTTL:   envDurationOr("ACCESS_TOKEN_TTL", 24*time.Hour),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		ClaudeKey:        os.Getenv("ANTHROPIC_API_KEY"),
		WorkspaceDir:     envOr("WORKSPACE_DIR", "./generated"),
		PreviewBase:      envOr("PREVIEW_BASE_URL", "http://localhost:8080"),
		MaxBuildAttempts: envIntOr("MAX_BUILD_ATTEMPTS", 3),
		PassRateTarget:   envFloatOr("PASS_RATE_TARGET", 80),
		PassRateFloor:    envFloatOr("PASS_RATE_FLOOR", 50),
	}

	// Placeholder keys from sample .env files behave like missing keys.
	if cfg.OpenAIKey == "sk-your-openai-key-here" {
		cfg.OpenAIKey = ""
	}
	if cfg.ClaudeKey == "sk-ant-REDACTED" {
		cfg.ClaudeKey = ""
	}

	return cfg
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
