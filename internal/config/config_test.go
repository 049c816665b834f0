package config

import (
	"testing"
	"time"
)

// ============================================================
// Config Tests
// ============================================================

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Errorf("expected default memory backend, got %s", cfg.Store.Backend)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("expected default read timeout 15s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.AuditEnabled() {
		t.Error("audit must be disabled without DB_HOST")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Error("default logging config wrong")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("READ_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port override failed: %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != StoreBackendRedis || cfg.Store.Addr != "redis:6379" {
		t.Error("store override failed")
	}
	if !cfg.AuditEnabled() {
		t.Error("audit must be enabled with DB_HOST")
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Error("duration override failed")
	}
	if cfg.Server.RateLimit != 50 {
		t.Error("rate limit override failed")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"SERVER_PORT": "70000"}},
		{"bad backend", map[string]string{"STORE_BACKEND": "cassandra"}},
		{"bad db port", map[string]string{"DB_HOST": "pg", "DB_PORT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "pg", Port: 5432, Name: "bondmarket",
		User: "svc", Password: "secret", SSLMode: "disable",
	}
	dsn := d.DSN()
	want := "host=pg port=5432 user=svc password=secret dbname=bondmarket sslmode=disable"
	if dsn != want {
		t.Errorf("DSN = %q, want %q", dsn, want)
	}

	safe := d.DSNWithoutPassword()
	if safe == dsn {
		t.Error("DSNWithoutPassword must omit the password")
	}
}
