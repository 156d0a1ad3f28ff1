package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/internal/bootstrap"
	"github.com/fastygo/users-api/internal/config"
	"github.com/fastygo/users-api/pkg/logger"
	"github.com/fastygo/users-api/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.App.Name + "-seed",
		Version:  cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	ctx := context.Background()
	users, closeStore, err := openWithRetry(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Error("store unavailable", zap.Error(err))
		os.Exit(1)
	}
	defer closeStore(ctx)

	created, err := seedUser(ctx, users, domain.UserInput{
		Name:   cfg.Seed.Name,
		Email:  cfg.Seed.Email,
		Active: true,
	})
	if err != nil {
		zapLogger.Error("seed failed", zap.Error(err))
		os.Exit(1)
	}
	if created == nil {
		zapLogger.Info("seed user already present", zap.String("email", cfg.Seed.Email))
		return
	}
	zapLogger.Info("seed user created", zap.Int64("id", created.ID), zap.String("email", created.Email))
}

// openWithRetry waits for the store to accept connections.
func openWithRetry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.UserRepository, bootstrap.CloseFunc, error) {
	attempts := cfg.Seed.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		users, closeStore, err := bootstrap.OpenUserStore(ctx, cfg, logger)
		if err == nil {
			if err = users.Ping(ctx); err == nil {
				return users, closeStore, nil
			}
			_ = closeStore(ctx)
		}
		lastErr = err
		logger.Warn("store not ready",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Error(err))
		if i < attempts {
			time.Sleep(cfg.Seed.Delay.Value())
		}
	}
	return nil, nil, lastErr
}

// seedUser creates input unless its email is taken. It returns nil when nothing was created.
func seedUser(ctx context.Context, users repository.UserRepository, input domain.UserInput) (*domain.User, error) {
	if _, err := users.GetByEmail(ctx, input.Email); err == nil {
		return nil, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	created, err := users.Create(ctx, input)
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, nil
	}
	return created, err
}
