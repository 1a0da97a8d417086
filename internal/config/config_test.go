package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "MAX_UPLOAD_MB", "SESSION_TTL", "ALLOW_ORIGINS", "BLOB_BACKEND"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("port: want=8080 got=%s", cfg.Port)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("driver: want=postgres got=%s", cfg.DBDriver)
	}
	if cfg.MaxUploadBytes() != 4*1024*1024 {
		t.Fatalf("max upload: want=%d got=%d", 4*1024*1024, cfg.MaxUploadBytes())
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("session ttl: want=24h got=%s", cfg.SessionTTL)
	}
	if len(cfg.AllowOrigins) != 1 || cfg.AllowOrigins[0] != "*" {
		t.Fatalf("origins: got=%v", cfg.AllowOrigins)
	}
	if cfg.BlobBackend != "local" {
		t.Fatalf("blob backend: want=local got=%s", cfg.BlobBackend)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("MAX_UPLOAD_MB", "8")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ALLOW_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("driver: want=sqlite got=%s", cfg.DBDriver)
	}
	if cfg.MaxUploadBytes() != 8*1024*1024 {
		t.Fatalf("max upload: got=%d", cfg.MaxUploadBytes())
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Fatalf("session ttl: got=%s", cfg.SessionTTL)
	}
	if !cfg.CookieSecure {
		t.Fatal("expected secure cookies")
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "http://b.test" {
		t.Fatalf("origins: got=%v", cfg.AllowOrigins)
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("redis db should fall back to default, got=%d", cfg.RedisDB)
	}
}
