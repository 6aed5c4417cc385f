package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DEBOUNCE_INTERVAL", "")
	t.Setenv("EVAL_TIMEOUT", "")
	t.Setenv("NODE_PATH", "")
	t.Setenv("SANDBOX_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "")
	}
	if cfg.DebounceInterval != 500*time.Millisecond {
		t.Errorf("DebounceInterval = %s, want 500ms", cfg.DebounceInterval)
	}
	if cfg.EvalTimeout != 3*time.Second {
		t.Errorf("EvalTimeout = %s, want 3s", cfg.EvalTimeout)
	}
	if cfg.NodePath != "node" {
		t.Errorf("NodePath = %q, want %q", cfg.NodePath, "node")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "3001")
	t.Setenv("DATABASE_URL", "postgres://localhost/codementor")
	t.Setenv("DEBOUNCE_INTERVAL", "250ms")
	t.Setenv("EVAL_TIMEOUT", "1s")
	t.Setenv("SANDBOX_URL", "http://sandbox:8194")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "3001" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3001")
	}
	if cfg.DatabaseURL != "postgres://localhost/codementor" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.DebounceInterval != 250*time.Millisecond {
		t.Errorf("DebounceInterval = %s, want 250ms", cfg.DebounceInterval)
	}
	if cfg.EvalTimeout != 1*time.Second {
		t.Errorf("EvalTimeout = %s, want 1s", cfg.EvalTimeout)
	}
	if cfg.SandboxURL != "http://sandbox:8194" {
		t.Errorf("SandboxURL = %q", cfg.SandboxURL)
	}
}

func TestLoad_InvalidDebounce(t *testing.T) {
	t.Setenv("DEBOUNCE_INTERVAL", "-1s")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject a negative debounce interval")
	}
}

func TestLoad_MissingRunner(t *testing.T) {
	t.Setenv("SANDBOX_URL", "")
	t.Setenv("NODE_PATH", " ")

	if _, err := Load(); err == nil {
		t.Error("Load() should require NODE_PATH when SANDBOX_URL is unset")
	}
}

func TestAddr(t *testing.T) {
	cfg := Config{Port: "9000"}
	if got := cfg.Addr(); got != "0.0.0.0:9000" {
		t.Errorf("Addr() = %q, want %q", got, "0.0.0.0:9000")
	}
}
