package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/internal/config"
	"github.com/fastygo/users-api/repository"
)

func TestSeedUserIsIdempotent(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{Driver: config.StoreDriverBolt},
		Bolt:  config.BoltConfig{Path: filepath.Join(t.TempDir(), "seed.db")},
		Seed:  config.SeedConfig{Attempts: 1},
	}
	ctx := context.Background()

	users, closeStore, err := openWithRetry(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeStore(ctx)

	input := domain.UserInput{Name: "Usuario de Prueba", Email: "admin@test.com", Active: true}

	created, err := seedUser(ctx, users, input)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "admin@test.com", created.Email)

	again, err := seedUser(ctx, users, input)
	require.NoError(t, err)
	assert.Nil(t, again)

	list, err := users.List(ctx, repository.UserFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOpenWithRetryGivesUp(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	cfg := &config.Config{
		Store: config.StoreConfig{Driver: config.StoreDriverBolt},
		Bolt:  config.BoltConfig{Path: filepath.Join(blocker, "seed.db")},
		Seed:  config.SeedConfig{Attempts: 2, Delay: config.Duration(time.Millisecond)},
	}

	_, _, err := openWithRetry(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
