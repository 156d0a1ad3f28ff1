package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "users-api", cfg.App.Name)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.External.Timeout.Value())
	assert.Equal(t, 10*time.Second, cfg.External.HealthTimeout.Value())
	assert.Equal(t, 60*time.Second, cfg.Context.RequestTimeout.Value())
	assert.Equal(t, "0.0.0.0:8000", cfg.Address())
	assert.False(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "BOLT")
	t.Setenv("EXTERNAL_API_BASE_URL", "http://remote.local/")
	t.Setenv("EXTERNAL_API_TIMEOUT", "5")
	t.Setenv("SMTP_TIMEOUT", "1m30s")
	t.Setenv("SMTP_USERNAME", "notifier@example.com")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverBolt, cfg.Store.Driver)
	assert.Equal(t, "http://remote.local", cfg.External.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.External.Timeout.Value())
	assert.Equal(t, 90*time.Second, cfg.SMTP.Timeout.Value())
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, "notifier@example.com", cfg.SMTP.From, "sender falls back to the relay username")
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestDurationDecode(t *testing.T) {
	var d Duration
	require.NoError(t, d.Decode("45"))
	assert.Equal(t, 45*time.Second, d.Value())

	require.NoError(t, d.Decode("250ms"))
	assert.Equal(t, 250*time.Millisecond, d.Value())

	assert.Error(t, d.Decode("soon"))
}
