package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 5*time.Minute, cfg.ViewCacheTTL)
	require.Equal(t, StockRestoreSkip, cfg.StockRestorePolicy)
	require.Equal(t, 3, cfg.ReturnRetryAttempts)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigStockPolicy(t *testing.T) {
	t.Setenv("STOCK_RESTORE_POLICY", "upsert")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, StockRestoreUpsert, cfg.StockRestorePolicy)

	t.Setenv("STOCK_RESTORE_POLICY", "discard")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigClampsRetries(t *testing.T) {
	t.Setenv("RETURN_RETRY_ATTEMPTS", "0")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 1, cfg.ReturnRetryAttempts)
}

func TestIsProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
}
