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
	"github.com/madeeasy/coursehub/internal/core/domain"
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
	instances := mongodb.NewInstanceRepository(db)
	kv := redisdb.NewKV(rdb, "instance")

	policy := resilience.Policy{
		MaxAttempts: cfg.Resilience.RetryMaxAttempts,
		BaseDelay:   cfg.Resilience.RetryBaseDelay,
	}
	breaker := resilience.BreakerConfig{
		FailureRatio: cfg.Resilience.BreakerFailureRatio,
		MinRequests:  cfg.Resilience.BreakerMinRequests,
		OpenTimeout:  cfg.Resilience.BreakerOpenTimeout,
	}

	courseClient := client.NewCourseClient(cfg.Services.CourseURL, cfg.Services.Timeout, log)
	lookupCaller := resilience.NewCaller[*domain.Course]("course-service", policy, breaker, log)

	authClient := client.NewAuthClient(cfg.Services.AuthURL, cfg.Services.Timeout, log)
	validator := client.NewGuardedValidator(authClient,
		resilience.NewCaller[bool]("auth-service-validation", policy, breaker, log))

	svc := service.NewInstanceService(instances, courseClient, lookupCaller, kv, log)

	authz := middleware.NewAuthorizer([]middleware.PathRule{
		{Method: "POST", Path: "/api/instances", Roles: []string{"ADMIN"}},
		{Method: "GET", Path: "/api/instances", Roles: []string{"ADMIN", "USER"}},
		{Method: "GET", Path: "/api/instances/:year/:semester", Roles: []string{"ADMIN", "USER"}},
		{Method: "GET", Path: "/api/instances/:year/:semester/:id", Roles: []string{"ADMIN", "USER"}},
		{Method: "DELETE", Path: "/api/instances/courseId/:courseId", Roles: []string{"ADMIN"}},
	})

	e := api.NewInstanceRouter(svc, codec, validator, authz, db, rdb, log)
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
