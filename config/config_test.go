package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-seasonal/pkg/chain"
	"dex-seasonal/pkg/client"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 0.5, cfg.Slippage)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, chain.DefaultRouter, cfg.EVM.Router)
	assert.Equal(t, DefaultSolanaRPC, cfg.Solana.RPCURL)
	assert.Equal(t, "confirmed", cfg.Solana.Commitment)
	assert.Equal(t, client.DefaultJupiterURL, cfg.Jupiter.BaseURL)
	assert.Empty(t, cfg.EVM.PrivateKey)
	assert.Same(t, cfg, Get())
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DEX_SEASONAL_EVM_PRIVATE_KEY", "0xabc")
	t.Setenv("DEX_SEASONAL_EVM_GAS_LIMIT", "250000")
	t.Setenv("DEX_SEASONAL_SLIPPAGE", "1.5")
	t.Setenv("DEX_SEASONAL_DEBOUNCE", "250ms")
	t.Setenv("DEX_SEASONAL_SOLANA_RPC_URL", "http://localhost:8899")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", cfg.EVM.PrivateKey)
	assert.EqualValues(t, 250000, cfg.EVM.GasLimit)
	assert.Equal(t, 1.5, cfg.Slippage)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "http://localhost:8899", cfg.Solana.RPCURL)
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "dex.yaml")
	yaml := "log_level: debug\nsolana:\n  commitment: finalized\n  health_poll: 0s\njupiter:\n  timeout: 3s\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "finalized", cfg.Solana.Commitment)
	assert.Zero(t, cfg.Solana.HealthPoll)
	assert.Equal(t, 3*time.Second, cfg.Jupiter.Timeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("DEX_SEASONAL_SLIPPAGE", "150")
	_, err = Load("")
	assert.Error(t, err)
}
