package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "DATABASE_PATH", "CONTENT_DIR", "RENDER_CACHE_TTL", "REDIS_ADDR", "SUPER_ROOT_USER_NAME", "SUPER_ROOT_PASSWORD"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "gmatprep.db" {
		t.Fatalf("expected default database path, got %q", cfg.DatabasePath)
	}
	if cfg.ContentDir != "content" {
		t.Fatalf("expected default content dir, got %q", cfg.ContentDir)
	}
	if cfg.RenderCacheTTL != time.Hour {
		t.Fatalf("expected 1h cache ttl, got %s", cfg.RenderCacheTTL)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected empty redis addr, got %q", cfg.RedisAddr)
	}
	if cfg.SeedsSuperRoot() {
		t.Fatal("super root should not be seeded without credentials")
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("CONTENT_WATCH", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RENDER_CACHE_TTL", "90s")
	t.Setenv("SITE_BASE_URL", " https://prep.example.com/ ")
	t.Setenv("SUPER_ROOT_USER_NAME", " admin ")
	t.Setenv("SUPER_ROOT_PASSWORD", "secret")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if !cfg.ContentWatch {
		t.Fatal("expected content watch enabled")
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("expected redis db 3, got %d", cfg.RedisDB)
	}
	if cfg.RenderCacheTTL != 90*time.Second {
		t.Fatalf("expected 90s ttl, got %s", cfg.RenderCacheTTL)
	}
	if cfg.SiteBaseURL != "https://prep.example.com" {
		t.Fatalf("expected trimmed base url, got %q", cfg.SiteBaseURL)
	}
	if cfg.SuperRootUserName != "admin" || !cfg.SeedsSuperRoot() {
		t.Fatalf("expected trimmed super root user, got %q", cfg.SuperRootUserName)
	}
}

func TestParseRejectsMalformedValues(t *testing.T) {
	t.Setenv("RENDER_CACHE_TTL", "forever")

	if _, err := Parse(); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CONTENT_DIR=from-dotenv\nDATABASE_PATH=dotenv.db\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("DATABASE_PATH", "explicit.db")
	t.Setenv("CONTENT_DIR", "")
	os.Unsetenv("CONTENT_DIR")

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv returned error: %v", err)
	}
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.ContentDir != "from-dotenv" {
		t.Fatalf("expected content dir from .env, got %q", cfg.ContentDir)
	}
	if cfg.DatabasePath != "explicit.db" {
		t.Fatalf("expected environment to win over .env, got %q", cfg.DatabasePath)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}
