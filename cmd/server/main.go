package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/fastygo/users-api/internal/config"
	"github.com/fastygo/users-api/internal/lifecycle"
	"github.com/fastygo/users-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.App.Name,
		Version:  cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout.Value(), zapLogger)

	server, err := newServer(appCtx, cfg, zapLogger, manager)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		zapLogger.Fatal("initialization failed", zap.String("store", cfg.Store.Driver), zap.Error(err))
	}

	manager.Go("http_server", func() error {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.Store.Driver))
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	if err := manager.Wait(appCtx); err != nil {
		zapLogger.Error("shutdown finished with errors", zap.Error(err))
	}
}
