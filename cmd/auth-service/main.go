package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/api"
	"github.com/madeeasy/coursehub/internal/api/middleware"
	"github.com/madeeasy/coursehub/internal/cache"
	"github.com/madeeasy/coursehub/internal/core/service"
	"github.com/madeeasy/coursehub/internal/infrastructure/client"
	mongodb "github.com/madeeasy/coursehub/internal/infrastructure/db/mongo"
	redisdb "github.com/madeeasy/coursehub/internal/infrastructure/db/redis"
	"github.com/madeeasy/coursehub/internal/pkg/config"
	"github.com/madeeasy/coursehub/internal/resilience"
	"github.com/madeeasy/coursehub/internal/token"
	"github.com/madeeasy/coursehub/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	ctx := context.Background()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	codec := token.NewCodec(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	users := mongodb.NewUserRepository(db, "auth_users")
	tokens := mongodb.NewTokenRepository(db)
	lifecycle := service.NewTokenLifecycle(tokens, codec, log)

	kv := redisdb.NewKV(rdb, "auth")
	vcache := cache.NewValidation(kv, cfg.Cache.ValidationTTL, log)

	policy := resilience.Policy{
		MaxAttempts: cfg.Resilience.RetryMaxAttempts,
		BaseDelay:   cfg.Resilience.RetryBaseDelay,
	}
	breaker := resilience.BreakerConfig{
		FailureRatio: cfg.Resilience.BreakerFailureRatio,
		MinRequests:  cfg.Resilience.BreakerMinRequests,
		OpenTimeout:  cfg.Resilience.BreakerOpenTimeout,
	}

	profiles := client.NewUserClient(cfg.Services.UserURL, cfg.Services.Timeout, log)
	remote := resilience.NewCaller[struct{}]("user-service", policy, breaker, log)

	svc := service.NewAuthService(users, lifecycle, codec, vcache, profiles, remote, log)

	authz := middleware.NewAuthorizer([]middleware.PathRule{
		{Method: "POST", Path: "/auth-service/sign-up"},
		{Method: "POST", Path: "/auth-service/sign-in"},
		{Method: "POST", Path: "/auth-service/log-out"},
		{Method: "POST", Path: "/auth-service/refresh-token/:token"},
		{Method: "POST", Path: "/auth-service/validate-access-token/:token"},
		{Method: "PATCH", Path: "/auth-service/partial-update/:email", Roles: []string{"ADMIN", "USER"}},
	})

	e := api.NewAuthRouter(svc, codec, authz, db, rdb, log)
	serve(e, cfg.Port, log)
}

func serve(e *echo.Echo, port string, log zerolog.Logger) {
	go func() {
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
