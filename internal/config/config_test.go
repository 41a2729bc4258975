package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "DATA_DIR", "PC_ID", "RNG_SEED", "TICK_INTERVAL", "SQLITE_PATH", "GAME_RETENTION"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval = %v, want 50ms", cfg.TickInterval)
	}
	if cfg.RedisEnabled() {
		t.Error("Redis should be disabled without REDIS_URL")
	}
	if cfg.SQLitePath != "" || cfg.Retention != 24*time.Hour {
		t.Errorf("SQLitePath = %q, Retention = %v", cfg.SQLitePath, cfg.Retention)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	for _, key := range []string{"PORT", "SQLITE_PATH"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("LOG_LEVEL", "error")

	dir := t.TempDir()
	content := "PORT=7070\nSQLITE_PATH=games.db\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7070" || cfg.SQLitePath != "games.db" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelError {
		t.Errorf("LogLevel = %v, environment should win over .env", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("REDIS_URL", "localhost:6379")
	t.Setenv("RNG_SEED", "42")
	t.Setenv("TICK_INTERVAL", "10ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" || cfg.RNGSeed != 42 || cfg.TickInterval != 10*time.Millisecond {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
	if !cfg.RedisEnabled() {
		t.Error("Redis should be enabled")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("RNG_SEED", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("expected error for bad RNG_SEED")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}
