// Package config loads service configuration from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only accepted outside production.
const DefaultJWTSecret = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	Addr            string        `env:"CONTRACTDESK_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"contractdesk"`
	JWTTTL          time.Duration `env:"JWT_TTL" envDefault:"1h"`

	Database  Database
	RateLimit RateLimit
}

// Database selects the persistence backend. An empty URL runs with in-memory stores.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`
}

// RateLimit configures the per-principal request limiter.
type RateLimit struct {
	Enabled  bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Requests int64         `env:"RATE_LIMIT_REQUESTS" envDefault:"300"`
	Period   time.Duration `env:"RATE_LIMIT_PERIOD" envDefault:"1m"`
	Storage  string        `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL string        `env:"RATE_LIMIT_REDIS_URL"`
}

// Validate checks the rate limit configuration.
func (r RateLimit) Validate() error {
	if r.Requests <= 0 {
		return fmt.Errorf("rate limit requests must be positive, got %d", r.Requests)
	}
	if r.Period <= 0 {
		return fmt.Errorf("rate limit period must be positive, got %s", r.Period)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return errors.New("rate limit redis url is required when storage is 'redis'")
	}
	return nil
}

// IsProduction reports whether the service runs with production guards.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// Validate rejects configurations that are unsafe to run.
func (s Server) Validate() error {
	if s.IsProduction() && s.JWTSigningKey == DefaultJWTSecret {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}
	if len(s.JWTSigningKey) < 16 {
		return errors.New("JWT_SIGNING_KEY must be at least 16 bytes")
	}
	if s.RateLimit.Enabled {
		if err := s.RateLimit.Validate(); err != nil {
			return fmt.Errorf("rate limit configuration error: %w", err)
		}
	}
	return nil
}

// Load reads existing .env files, then parses the environment into Server.
func Load(envFiles ...string) (Server, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return Server{}, fmt.Errorf("load env files: %w", err)
		}
	}

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}
