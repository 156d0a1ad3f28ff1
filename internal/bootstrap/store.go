package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/users-api/internal/config"
	"github.com/fastygo/users-api/internal/infrastructure/boltdb"
	pgInfra "github.com/fastygo/users-api/internal/infrastructure/postgres"
	"github.com/fastygo/users-api/repository"
	boltRepo "github.com/fastygo/users-api/repository/bolt"
	pgRepo "github.com/fastygo/users-api/repository/postgres"
)

// CloseFunc releases a store opened by OpenUserStore.
type CloseFunc func(ctx context.Context) error

// OpenUserStore opens the backend selected by STORE_DRIVER.
func OpenUserStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.UserRepository, CloseFunc, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverBolt:
		store, err := boltdb.Open(cfg.Bolt.Path, boltRepo.Buckets...)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		logger.Info("bolt store opened", zap.String("path", cfg.Bolt.Path))
		return boltRepo.NewUserRepository(store.DB()), func(context.Context) error {
			return store.Close()
		}, nil

	case config.StoreDriverPostgres:
		if err := pgInfra.RunMigrations(cfg.Database, logger); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pgRepo.NewUserRepository(pool), func(context.Context) error {
			pgInfra.Close(pool, logger)
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
