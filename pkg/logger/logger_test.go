package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "chatty", Encoding: "console", Service: "users-api"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithRequestID(ctx, base).Info("handled")
	WithRequestID(context.Background(), base).Info("anonymous")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
	assert.Equal(t, "req-42", RequestID(ctx))
}

func TestWithRequestIDNilLogger(t *testing.T) {
	assert.NotNil(t, WithRequestID(context.Background(), nil))
}
