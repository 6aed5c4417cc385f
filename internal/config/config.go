package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the session server.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Edit coalescing window per (room, participant)
	DebounceInterval time.Duration `env:"DEBOUNCE_INTERVAL" envDefault:"500ms"`

	// Wall-clock ceiling for one evaluation run
	EvalTimeout time.Duration `env:"EVAL_TIMEOUT" envDefault:"3s"`

	// Local evaluator binary; ignored when SandboxURL is set
	NodePath string `env:"NODE_PATH" envDefault:"node"`

	// Remote sandbox service; empty selects the local subprocess runner
	SandboxURL string `env:"SANDBOX_URL"`

	RoomSweepInterval time.Duration `env:"ROOM_SWEEP_INTERVAL" envDefault:"5m"`
	RoomStaleTTL      time.Duration `env:"ROOM_STALE_TTL" envDefault:"1h"`
}

// Load parses environment variables into Config.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing env config: %w", err)
	}

	if cfg.DebounceInterval <= 0 {
		return cfg, fmt.Errorf("DEBOUNCE_INTERVAL must be positive, got %s", cfg.DebounceInterval)
	}
	if cfg.EvalTimeout <= 0 {
		return cfg, fmt.Errorf("EVAL_TIMEOUT must be positive, got %s", cfg.EvalTimeout)
	}
	if cfg.SandboxURL == "" && strings.TrimSpace(cfg.NodePath) == "" {
		return cfg, fmt.Errorf("NODE_PATH is required when SANDBOX_URL is not set")
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return "0.0.0.0:" + c.Port
}
