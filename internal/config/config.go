// Package config loads process configuration from environment variables.
//
// Configuration is read exactly once at startup and treated as immutable for
// the lifetime of the process — in particular the token signing secret and
// the OAuth client credentials are never re-read or rotated mid-request.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Identity model selection. Exactly one gate variant is active per
// deployment; the model is not selectable per request.
const (
	ModeOpen    = "open"    // no identity, globally scoped tasks
	ModeBearer  = "bearer"  // stateless signed token in the Authorization header
	ModeSession = "session" // server-side session keyed by an opaque cookie
)

// Config holds all process configuration.
type Config struct {
	Port   int    `env:"PORT"    envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/taskboard.db"`

	// AuthMode selects the active identity model: open, bearer or session.
	AuthMode string `env:"AUTH_MODE" envDefault:"open"`

	// TokenSecret signs bearer credentials (HS256). Required in bearer mode.
	TokenSecret string        `env:"TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"168h"` // 7 days

	// SessionTTL is the fixed session lifetime. Required-mode fields below.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// GitHub OAuth app credentials. Required in bearer and session modes.
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`

	// FrontendOrigin is the trusted frontend the callback redirects to,
	// with the token in the query string (bearer) or the session cookie set.
	FrontendOrigin string `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:3000"`

	// CookieSecure is derived from FrontendOrigin unless set explicitly.
	CookieSecure bool `env:"COOKIE_SECURE"`
}

// Load parses the environment into a Config and validates that every
// variable the selected identity model needs is present.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	switch cfg.AuthMode {
	case ModeOpen, ModeBearer, ModeSession:
	default:
		return nil, fmt.Errorf("config: AUTH_MODE must be open, bearer or session, got %q", cfg.AuthMode)
	}

	var missing []string
	if cfg.AuthMode == ModeBearer && cfg.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}
	if cfg.AuthMode == ModeBearer || cfg.AuthMode == ModeSession {
		if cfg.GitHubClientID == "" {
			missing = append(missing, "GITHUB_CLIENT_ID")
		}
		if cfg.GitHubClientSecret == "" {
			missing = append(missing, "GITHUB_CLIENT_SECRET")
		}
		if cfg.GitHubCallbackURL == "" {
			missing = append(missing, "GITHUB_CALLBACK_URL")
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config: required environment variables are not set: %s", strings.Join(missing, ", "))
	}

	if !cfg.CookieSecure {
		cfg.CookieSecure = strings.HasPrefix(cfg.FrontendOrigin, "https://")
	}

	return &cfg, nil
}
