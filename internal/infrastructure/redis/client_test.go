package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/users-api/internal/config"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()}, nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{URL: "not-a-url"}, nil)
	assert.Error(t, err)
}
