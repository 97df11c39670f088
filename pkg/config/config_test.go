package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("ETH_RPC_URL", "http://localhost:8545")
	t.Setenv("CHAIN_ID", "42161")
	t.Setenv("SIGNER_PRIVATE_KEY", "0x01")
	t.Setenv("OVL_COLLATERAL_ADDRESS", "0x1000000000000000000000000000000000000001")
	t.Setenv("OVL_TOKEN_ADDRESS", "0x2000000000000000000000000000000000000002")
}

func validConfig() *Config {
	return &Config{
		HTTPPort:           "8080",
		EthRPCURL:          "http://localhost:8545",
		ChainID:            1,
		RPCTimeout:         30 * time.Second,
		SignerMode:         "local",
		SignerPrivateKey:   "0x01",
		CollateralAddress:  "0x1000000000000000000000000000000000000001",
		TokenAddress:       "0x2000000000000000000000000000000000000002",
		GasMarginBps:       2000,
		DefaultSlippageBps: 50,
		DefaultDeadline:    20 * time.Minute,
		TrackerMode:        "console",
		TrackerBufferSize:  256,
		RecordCacheSize:    100,
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, uint64(42161), cfg.ChainID)
	assert.Equal(t, "local", cfg.SignerMode)
	assert.Equal(t, int64(2000), cfg.GasMarginBps)
	assert.Equal(t, int64(50), cfg.DefaultSlippageBps)
	assert.Equal(t, 20*time.Minute, cfg.DefaultDeadline)
	assert.Equal(t, 30*time.Second, cfg.RPCTimeout)
	assert.Equal(t, "console", cfg.TrackerMode)
	assert.Equal(t, 256, cfg.TrackerBufferSize)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GAS_MARGIN_BPS", "1500")
	t.Setenv("DEFAULT_DEADLINE", "5m")
	t.Setenv("TRACKER_MODE", "memory")
	t.Setenv("OVL_MARKETS", "ETH/USD=0x3000000000000000000000000000000000000003")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, int64(1500), cfg.GasMarginBps)
	assert.Equal(t, 5*time.Minute, cfg.DefaultDeadline)
	assert.Equal(t, "memory", cfg.TrackerMode)
	assert.Equal(t, "ETH/USD=0x3000000000000000000000000000000000000003", cfg.Markets)
}

func TestLoadFromEnv_InvalidNumberFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GAS_MARGIN_BPS", "lots")
	t.Setenv("RPC_TIMEOUT", "soon")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, int64(2000), cfg.GasMarginBps)
	assert.Equal(t, 30*time.Second, cfg.RPCTimeout)
}

func TestLoadFromEnv_MissingRPC(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ETH_RPC_URL", "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ETH_RPC_URL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty_port", func(c *Config) { c.HTTPPort = "" }, "HTTP_PORT"},
		{"zero_chain", func(c *Config) { c.ChainID = 0 }, "CHAIN_ID"},
		{"bad_signer_mode", func(c *Config) { c.SignerMode = "ledger" }, "SIGNER_MODE"},
		{"local_without_key", func(c *Config) { c.SignerPrivateKey = "" }, "SIGNER_PRIVATE_KEY"},
		{"rpc_without_address", func(c *Config) { c.SignerMode = "rpc" }, "SIGNER_ADDRESS"},
		{"rpc_with_address", func(c *Config) {
			c.SignerMode = "rpc"
			c.SignerAddress = "0x4000000000000000000000000000000000000004"
		}, ""},
		{"bad_collateral", func(c *Config) { c.CollateralAddress = "nope" }, "OVL_COLLATERAL_ADDRESS"},
		{"bad_token", func(c *Config) { c.TokenAddress = "" }, "OVL_TOKEN_ADDRESS"},
		{"negative_margin", func(c *Config) { c.GasMarginBps = -1 }, "GAS_MARGIN_BPS"},
		{"slippage_too_high", func(c *Config) { c.DefaultSlippageBps = 10001 }, "DEFAULT_SLIPPAGE_BPS"},
		{"zero_deadline", func(c *Config) { c.DefaultDeadline = 0 }, "DEFAULT_DEADLINE"},
		{"zero_timeout", func(c *Config) { c.RPCTimeout = 0 }, "RPC_TIMEOUT"},
		{"bad_tracker_mode", func(c *Config) { c.TrackerMode = "kafka" }, "TRACKER_MODE"},
		{"zero_buffer", func(c *Config) { c.TrackerBufferSize = 0 }, "TRACKER_BUFFER_SIZE"},
		{"memory_without_cache", func(c *Config) {
			c.TrackerMode = "memory"
			c.RecordCacheSize = 0
		}, "RECORD_CACHE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetUint64OrDefault(t *testing.T) {
	t.Setenv("TEST_UINT", "18446744073709551615")
	assert.Equal(t, uint64(18446744073709551615), getUint64OrDefault("TEST_UINT", 1))

	t.Setenv("TEST_UINT", "-1")
	assert.Equal(t, uint64(1), getUint64OrDefault("TEST_UINT", 1))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = NewLogger("")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger("chatty")
	assert.Error(t, err)
}
