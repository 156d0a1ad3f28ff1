package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/internal/config"
)

func TestOpenUserStoreBolt(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{Driver: config.StoreDriverBolt},
		Bolt:  config.BoltConfig{Path: filepath.Join(t.TempDir(), "users.db")},
	}

	repo, closeFn, err := OpenUserStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repo.Ping(context.Background()))

	created, err := repo.Create(context.Background(), domain.UserInput{Name: "Ana", Email: "ana@example.com", Active: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	require.NoError(t, closeFn(context.Background()))
}

func TestOpenUserStoreUnknownDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "mongo"}}

	_, _, err := OpenUserStore(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
