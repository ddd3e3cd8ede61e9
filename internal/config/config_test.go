package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "fortress.db", cfg.Database.Path)
	assert.Equal(t, 10.0, cfg.Business.ReferralReward)
	assert.Equal(t, 120.0, cfg.Business.VipMinimumBalance)
	assert.False(t, cfg.Business.AutoSettle)
	assert.Equal(t, time.Second, cfg.Business.SettlementInterval)
	assert.Equal(t, "USDT", cfg.Business.DefaultAsset)
	assert.Equal(t, "BTC-USDT", cfg.Pricing.Pair)
	assert.Equal(t, 65000.0, cfg.Pricing.InitialPrice)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
business:
  referral_reward: 25
  auto_settle: true
  settlement_interval: 10s
pricing:
  pair: ETH-USDT
  initial_price: 3200
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 25.0, cfg.Business.ReferralReward)
	assert.True(t, cfg.Business.AutoSettle)
	assert.Equal(t, 10*time.Second, cfg.Business.SettlementInterval)
	assert.Equal(t, "ETH-USDT", cfg.Pricing.Pair)
	assert.Equal(t, 3200.0, cfg.Pricing.InitialPrice)
	// Unset keys keep their defaults.
	assert.Equal(t, "fortress.db", cfg.Database.Path)
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
