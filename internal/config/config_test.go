package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 6000
database:
  driver: postgres
  dbname: chat
websocket:
  ping_interval: 5s
redis:
  enabled: true
  ttl: 1m
cors:
  allowed_origins: "https://a.example, https://b.example"
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })
	t.Setenv("PORT", "7000")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want env override 7000", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DBName != "chat" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.JWT.Secret != "from-dotenv" {
		t.Errorf("jwt secret = %q", cfg.JWT.Secret)
	}
	if cfg.WebSocket.PingInterval != 5*time.Second || cfg.WebSocket.PongWait != 60*time.Second {
		t.Errorf("websocket = %+v", cfg.WebSocket)
	}
	if !cfg.Redis.Enabled || cfg.Redis.TTL != time.Minute {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if got := strings.Join(cfg.CORS.Origins(), "|"); got != "https://a.example|https://b.example" {
		t.Errorf("origins = %q", got)
	}

	// defaults
	if cfg.Upload.MaxSize != 10<<20 || cfg.Upload.Driver != "local" {
		t.Errorf("upload = %+v", cfg.Upload)
	}
	if cfg.JWT.AccessDuration != 24*time.Hour {
		t.Errorf("access duration = %v", cfg.JWT.AccessDuration)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Limit != 100 || cfg.RateLimit.Window != time.Second {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
}
