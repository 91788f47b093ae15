package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/olehvas/contacts-api/internal/auth"
	"github.com/olehvas/contacts-api/internal/cache"
	"github.com/olehvas/contacts-api/internal/config"
	"github.com/olehvas/contacts-api/internal/database"
	"github.com/olehvas/contacts-api/internal/handler"
	"github.com/olehvas/contacts-api/internal/mail"
	"github.com/olehvas/contacts-api/internal/middleware"
	"github.com/olehvas/contacts-api/internal/repository"
	"github.com/olehvas/contacts-api/internal/router"
	"github.com/olehvas/contacts-api/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	// Redis backs the identity cache and the rate limiter; both degrade
	// gracefully when the client is nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: identity cache and rate limiting disabled")
	}

	avatars, err := storage.NewAvatarStore(context.Background(), storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		log.Fatalf("avatar store: %v", err)
	}

	sender := &mail.Sender{
		Host:    cfg.MailHost,
		Port:    cfg.MailPort,
		User:    cfg.MailUser,
		Pass:    cfg.MailPass,
		From:    cfg.MailFrom,
		BaseURL: cfg.BaseURL,
	}
	go mail.StartConfirmationConsumer(sender)

	sessions := auth.NewSessionManager(
		repository.NewUserRepo(db),
		cache.NewIdentityCache(rdb),
		auth.NewCodec(cfg.JWTSecret),
		&mail.Notifier{Sender: sender},
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
		time.Duration(cfg.EmailTTLDays)*24*time.Hour,
		cfg.BcryptCost,
	)

	authn := middleware.RequireUser(sessions)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(sessions))
	router.RegisterContacts(e, handler.NewContactHandler(repository.NewContactRepo(db)), authn, limiter)
	router.RegisterUsers(e, handler.NewUserHandler(sessions, avatars), authn, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
