package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/ait-forum/forum-api/docs"
	"github.com/ait-forum/forum-api/internal/api"
	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/password"
	"github.com/ait-forum/forum-api/internal/core/service"
	"github.com/ait-forum/forum-api/internal/infrastructure/config"
	mongodb "github.com/ait-forum/forum-api/internal/infrastructure/db/mongo"
	redisdb "github.com/ait-forum/forum-api/internal/infrastructure/db/redis"
	"github.com/ait-forum/forum-api/internal/infrastructure/queue"
	"github.com/ait-forum/forum-api/pkg/logger"
)

// @title        Forum API
// @version      1.0
// @description  Account management and forum service.
//
// @securityDefinitions.basic  BasicAuth
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Service: "forum-api",
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	// --- Repositories ---
	accountRepo := mongodb.NewAccountRepository(db)
	postRepo := mongodb.NewPostRepository(db)
	tagRepo := mongodb.NewTagRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	if err := postRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// --- Audit pipeline ---
	auditService := service.NewAuditService(auditRepo, log)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditService, log)
	dispatcher.Start(ctx)

	// --- Core services ---
	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	limiter := redisdb.NewLoginLimiter(rdb, cfg.Auth.MaxLoginAttempts, cfg.Auth.LockoutWindow)

	var defaultRole domain.Role
	if cfg.Auth.DefaultRole != "" {
		role, ok := domain.ParseRole(cfg.Auth.DefaultRole)
		if !ok {
			log.Fatal().Str("role", cfg.Auth.DefaultRole).Msg("unknown default role")
		}
		defaultRole = role
	}

	accountService := service.NewAccountService(accountRepo, hasher, limiter, dispatcher,
		service.AccountServiceConfig{
			JWTSecret:   cfg.JWTSecret,
			TokenTTL:    cfg.Auth.TokenTTL,
			DefaultRole: defaultRole,
		}, log)
	postService := service.NewPostService(postRepo, tagRepo, log)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Accounts:    accountService,
		Posts:       postService,
		AccountRepo: accountRepo,
		Hasher:      hasher,
		JWTSecret:   cfg.JWTSecret,
		Mongo:       db,
		Redis:       rdb,
		Log:         log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
