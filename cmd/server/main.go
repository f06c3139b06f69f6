// @title                       Task Management API
// @version                     1.0
// @description                 Multi-tenant task tracking with JWT authentication and role-based access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/api"
	"github.com/Bakhromov-02/task-management/internal/api/handler"
	"github.com/Bakhromov-02/task-management/internal/api/middleware"
	"github.com/Bakhromov-02/task-management/internal/core/auth"
	"github.com/Bakhromov-02/task-management/internal/core/service"
	"github.com/Bakhromov-02/task-management/internal/infrastructure/audit"
	"github.com/Bakhromov-02/task-management/internal/infrastructure/config"
	mongodb "github.com/Bakhromov-02/task-management/internal/infrastructure/db/mongo"
	redisdb "github.com/Bakhromov-02/task-management/internal/infrastructure/db/redis"
	"github.com/Bakhromov-02/task-management/internal/infrastructure/security"
	"github.com/Bakhromov-02/task-management/pkg/logger"
)

const serviceName = "task-management-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// The configured logger may not exist yet when config loading fails.
		l := zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()
		l.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.JWTExpire,
		RefreshTTL: cfg.Auth.JWTRefreshExpire,
		Issuer:     cfg.Auth.JWTIssuer,
		Audience:   cfg.Auth.JWTAudience,
	})
	if err != nil {
		return err
	}
	hasher, err := security.NewBcryptHasher(cfg.Auth.BcryptRounds)
	if err != nil {
		return err
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		ClientName: serviceName,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	users := mongodb.NewUserRepository(db)

	// Audit writes outlive request contexts; they stop on Shutdown.
	dispatcher := audit.NewDispatcher(cfg.Audit.Workers, cfg.Audit.QueueSize, mongodb.NewAuditRepository(db), logger.Component("audit"))
	dispatcher.Start(context.Background())

	access := auth.NewAccessController(dispatcher, logger.Component("access"))

	deps := api.Dependencies{
		Resolver:  auth.NewResolver(tokens, users),
		Access:    access,
		Auth:      service.NewAuthService(users, hasher, tokens, access, logger.Component("auth")),
		Tasks:     service.NewTaskService(mongodb.NewTaskRepository(db), logger.Component("tasks")),
		Analytics: service.NewAnalyticsService(mongodb.NewAnalyticsRepository(db)),
		HealthChecks: []handler.HealthCheck{
			{Name: "mongodb", Check: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }},
			{Name: "redis", Check: redisdb.Ping(rdb, 0)},
		},
		Logger: log,
	}
	if cfg.RateLimit.Enabled {
		deps.RateLimiter = redisdb.NewRateLimiter(rdb)
		deps.GeneralLimit = middleware.RateLimitConfig{Scope: "general", Limit: cfg.RateLimit.General, Window: cfg.RateLimit.Window}
		deps.AuthLimit = middleware.RateLimitConfig{Scope: "auth", Limit: cfg.RateLimit.Auth, Window: cfg.RateLimit.Window}
	}

	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	return shutdown(log, e.Shutdown, dispatcher.Shutdown, cfg.ShutdownTimeout)
}

// shutdown stops the HTTP server first so no new denials are enqueued, then
// drains the audit queue.
func shutdown(log zerolog.Logger, server, auditQueue func(context.Context) error, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := server(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := auditQueue(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		log.Info().Msg("shutdown complete")
	}
	return errors.Join(errs...)
}
