package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("STOCK_LOCK_TTL_SECONDS", "45")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 45, cfg.StockLockTTLSeconds)
	assert.Equal(t, 5, cfg.StockLockWaitSeconds)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, "development", cfg.Env)
}
