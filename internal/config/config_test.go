package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  port: "8080"
  env: production
  allowedOrigins: ["http://localhost:3000"]
session:
  cookieName: kambaz.sid
  ttl: 2h
redis:
  addr: localhost:6379
quiz:
  ttl: 5m
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("POSTGRES_URL", "postgres://quiz@db/quizdb")
	t.Setenv("PORT", "9090")
	t.Setenv("FRONTEND_URL", "https://kambaz.vercel.app")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected PORT override, got %q", cfg.Server.Port)
	}
	if cfg.Postgres.URL != "postgres://quiz@db/quizdb" {
		t.Fatalf("expected postgres override, got %q", cfg.Postgres.URL)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("expected frontend origin appended, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Development() {
		t.Fatalf("production env must not be development")
	}
	if cfg.Session.CookieName != "kambaz.sid" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected session/log config %+v %+v", cfg.Session, cfg.Log)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDuration(t *testing.T) {
	if d := TTLDuration("", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback, got %v", d)
	}
	if d := TTLDuration("garbage", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", d)
	}
	if d := TTLDuration("90s", time.Minute); d != 90*time.Second {
		t.Fatalf("expected 90s, got %v", d)
	}
}
