package monitor

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/users-api/domain"
)

// Pinger is satisfied by repository.UserRepository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database checks the record store with a trivial query.
type Database struct {
	store   Pinger
	timeout time.Duration
	logger  *zap.Logger
}

func NewDatabase(store Pinger, timeout time.Duration, logger *zap.Logger) *Database {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Database{store: store, timeout: timeout, logger: logger}
}

func (d *Database) Check(ctx context.Context) domain.ComponentHealth {
	if d.store == nil {
		return domain.ComponentHealth{Status: domain.HealthUnhealthy, Message: "database not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.store.Ping(ctx); err != nil {
		d.logger.Error("database health check failed", zap.Error(err))
		return domain.ComponentHealth{Status: domain.HealthUnhealthy, Message: "database connection failed"}
	}
	return domain.ComponentHealth{Status: domain.HealthHealthy, Message: "database connection ok"}
}

// Redis checks the idempotency cache.
type Redis struct {
	client  *redislib.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewRedis(client *redislib.Client, timeout time.Duration, logger *zap.Logger) *Redis {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, timeout: timeout, logger: logger}
}

func (r *Redis) Check(ctx context.Context) domain.ComponentHealth {
	if r.client == nil {
		return domain.ComponentHealth{Status: domain.HealthUnhealthy, Message: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		r.logger.Warn("redis health check failed", zap.Error(err))
		return domain.ComponentHealth{Status: domain.HealthUnhealthy, Message: "redis connection failed"}
	}
	return domain.ComponentHealth{Status: domain.HealthHealthy, Message: "redis connection ok"}
}
