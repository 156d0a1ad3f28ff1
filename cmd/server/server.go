package main

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/users-api/api/handler"
	"github.com/fastygo/users-api/internal/bootstrap"
	"github.com/fastygo/users-api/internal/config"
	"github.com/fastygo/users-api/internal/infrastructure/external"
	"github.com/fastygo/users-api/internal/infrastructure/mailer"
	"github.com/fastygo/users-api/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/users-api/internal/infrastructure/redis"
	"github.com/fastygo/users-api/internal/lifecycle"
	"github.com/fastygo/users-api/internal/middleware"
	"github.com/fastygo/users-api/internal/router"
	"github.com/fastygo/users-api/pkg/httpcontext"
	redisRepo "github.com/fastygo/users-api/repository/redis"
	"github.com/fastygo/users-api/usecase/enrich"
	healthUC "github.com/fastygo/users-api/usecase/health"
	userUC "github.com/fastygo/users-api/usecase/user"
)

// newServer wires every component and registers resource cleanup with manager.
// The returned server is not started.
func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, manager *lifecycle.Manager) (*fasthttp.Server, error) {
	users, closeStore, err := bootstrap.OpenUserStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	manager.Register("store", lifecycle.ShutdownFunc(closeStore))

	externalClient := external.NewClient(cfg.External)
	notifier := mailer.New(cfg.SMTP, logger)
	if !cfg.SMTP.Enabled() {
		logger.Warn("smtp credentials missing, status notifications disabled")
	}

	healthUseCase := healthUC.New(
		monitor.NewDatabase(users, 3*time.Second, logger),
		externalClient,
		cfg.App.Version,
		logger,
	)

	routerOpts := router.Options{
		Logger: logger,
		Global: []router.Middleware{
			middleware.RequestLog(logger),
			middleware.CORS(),
		},
	}

	if cfg.Redis.Enabled() {
		redisClient, err := redisInfra.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		manager.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
		store := redisRepo.NewIdempotencyRepository(redisClient, cfg.Redis.IdempotencyTTL.Value())
		routerOpts.Idempotency = middleware.Idempotency(store, logger)
		healthUseCase.WithChecker("redis", monitor.NewRedis(redisClient, 2*time.Second, logger))
	} else {
		logger.Info("redis not configured, idempotent replay disabled")
	}

	userUseCase := userUC.New(users, logger)
	enricher := enrich.New(users, externalClient, notifier, logger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout.Value(), users)

	handlers := router.Handlers{
		User:   apiHandler.NewUserHandler(userUseCase, enricher, ctxAdapter, logger),
		Health: apiHandler.NewHealthHandler(healthUseCase, cfg.App.Name, cfg.App.Version, ctxAdapter, logger),
	}

	return &fasthttp.Server{
		Handler:      router.New(handlers, routerOpts),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Value(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Value(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Value(),
		Name:         cfg.App.Name,
	}, nil
}
