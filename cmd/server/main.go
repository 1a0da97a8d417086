package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"addressbook/internal/blobstore"
	"addressbook/internal/config"
	"addressbook/internal/contacts"
	"addressbook/internal/database"
	httpserver "addressbook/internal/http"
	"addressbook/internal/identity"
	"addressbook/internal/logger"
	"addressbook/internal/session"
	"addressbook/internal/transcoder"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("database connect failed", "driver", cfg.DBDriver, "error", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("database migrate failed", "error", err)
	}

	ctx := context.Background()
	blobs, err := blobstore.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("blob store init failed", "backend", cfg.BlobBackend, "error", err)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		if cfg.LogMode == "prod" {
			log.Fatal("SESSION_SECRET is required in prod")
		}
		secret = randomSecret()
		log.Warn("SESSION_SECRET not set, using a random one; sessions end on restart")
	}
	sessions, err := session.NewManager(secret, cfg.SessionTTL, revoker(ctx, cfg, log))
	if err != nil {
		log.Fatal("session manager init failed", "error", err)
	}

	users := identity.NewStore(db, log)
	contactRepo := contacts.NewRepository(db, log)
	r, err := httpserver.NewServer(httpserver.Deps{
		Config:     cfg,
		Log:        log,
		Users:      users,
		Avatars:    identity.NewAvatarService(users, blobs, log),
		Contacts:   contactRepo,
		Transcoder: transcoder.New(db, contactRepo, log),
		Sessions:   sessions,
	})
	if err != nil {
		log.Fatal("http server init failed", "error", err)
	}

	log.Info("listening", "port", cfg.Port, "db", cfg.DBDriver, "blobs", cfg.BlobBackend)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}

// revoker uses Redis when configured so logouts survive restarts and
// are shared across instances.
func revoker(ctx context.Context, cfg *config.Config, log *logger.Logger) session.Revoker {
	if cfg.RedisAddr == "" {
		return session.NewMemoryRevoker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, falling back to in-memory revocation", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return session.NewMemoryRevoker()
	}
	return session.NewRedisRevoker(client)
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
