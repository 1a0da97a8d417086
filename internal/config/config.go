package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port         string
	LogMode      string
	AllowOrigins []string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BlobBackend string
	UploadDir   string
	S3Bucket    string
	S3Prefix    string
	S3Endpoint  string
	GCSBucket   string
	GCSPrefix   string

	MaxUploadMB int64
}

// MaxUploadBytes is the request body ceiling applied to every route.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoi(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func atob(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "8080"),
		LogMode:       getenv("LOG_MODE", "dev"),
		AllowOrigins:  splitList(getenv("ALLOW_ORIGINS", "*")),
		DBDriver:      strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DBHost:        getenv("DB_HOST", "localhost"),
		DBPort:        getenv("DB_PORT", "5432"),
		DBUser:        getenv("DB_USER", "postgres"),
		DBPassword:    getenv("DB_PASSWORD", ""),
		DBName:        getenv("DB_NAME", "address_book"),
		DBSSLMode:     getenv("DB_SSLMODE", "disable"),
		SQLitePath:    getenv("SQLITE_PATH", "instance/address_book.db"),
		SessionSecret: getenv("SESSION_SECRET", ""),
		SessionTTL:    duration("SESSION_TTL", 24*time.Hour),
		CookieSecure:  atob("COOKIE_SECURE", false),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		BlobBackend:   strings.ToLower(getenv("BLOB_BACKEND", "local")),
		UploadDir:     getenv("UPLOAD_DIR", "static/uploads"),
		S3Bucket:      getenv("S3_BUCKET", ""),
		S3Prefix:      getenv("S3_PREFIX", "avatars/"),
		S3Endpoint:    getenv("S3_ENDPOINT", ""),
		GCSBucket:     getenv("GCS_BUCKET", ""),
		GCSPrefix:     getenv("GCS_PREFIX", "avatars/"),
		MaxUploadMB:   int64(atoi("MAX_UPLOAD_MB", 4)),
	}
}
