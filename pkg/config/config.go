package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Node
	EthRPCURL  string
	ChainID    uint64
	RPCTimeout time.Duration

	// Signer
	SignerMode       string // "local" or "rpc"
	SignerPrivateKey string
	SignerAddress    string

	// Overlay deployment
	CollateralAddress string
	TokenAddress      string
	Markets           string // "ETH/USD=0x...,BTC/USD=0x..."

	// Build defaults
	GasMarginBps       int64
	DefaultSlippageBps int64
	DefaultDeadline    time.Duration

	// Wallet monitor
	BalancePollInterval time.Duration

	// Tracker
	TrackerMode       string // "console", "postgres" or "memory"
	TrackerBufferSize int
	RecordCacheSize   int64
	RecordTTL         time.Duration
	PostgresHost      string
	PostgresPort      string
	PostgresUser      string
	PostgresPass      string
	PostgresDB        string
	PostgresSSL       string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Node defaults
		EthRPCURL:  os.Getenv("ETH_RPC_URL"),
		ChainID:    getUint64OrDefault("CHAIN_ID", 0),
		RPCTimeout: getDurationOrDefault("RPC_TIMEOUT", 30*time.Second),

		// Signer defaults
		SignerMode:       getEnvOrDefault("SIGNER_MODE", "local"),
		SignerPrivateKey: os.Getenv("SIGNER_PRIVATE_KEY"),
		SignerAddress:    os.Getenv("SIGNER_ADDRESS"),

		// Deployment
		CollateralAddress: os.Getenv("OVL_COLLATERAL_ADDRESS"),
		TokenAddress:      os.Getenv("OVL_TOKEN_ADDRESS"),
		Markets:           os.Getenv("OVL_MARKETS"),

		// Build defaults
		GasMarginBps:       getInt64OrDefault("GAS_MARGIN_BPS", 2000), // +20%
		DefaultSlippageBps: getInt64OrDefault("DEFAULT_SLIPPAGE_BPS", 50),
		DefaultDeadline:    getDurationOrDefault("DEFAULT_DEADLINE", 20*time.Minute),

		BalancePollInterval: getDurationOrDefault("BALANCE_POLL_INTERVAL", time.Minute),

		// Tracker defaults
		TrackerMode:       getEnvOrDefault("TRACKER_MODE", "console"),
		TrackerBufferSize: getIntOrDefault("TRACKER_BUFFER_SIZE", 256),
		RecordCacheSize:   getInt64OrDefault("RECORD_CACHE_SIZE", 10000),
		RecordTTL:         getDurationOrDefault("RECORD_TTL", 24*time.Hour),
		PostgresHost:      getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser:      getEnvOrDefault("POSTGRES_USER", "overlay"),
		PostgresPass:      os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:        getEnvOrDefault("POSTGRES_DB", "overlay_build"),
		PostgresSSL:       getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.EthRPCURL == "" {
		return fmt.Errorf("ETH_RPC_URL cannot be empty")
	}

	if c.ChainID == 0 {
		return fmt.Errorf("CHAIN_ID must be a positive integer")
	}

	switch c.SignerMode {
	case "local":
		if c.SignerPrivateKey == "" {
			return fmt.Errorf("SIGNER_PRIVATE_KEY is required when SIGNER_MODE is 'local'")
		}
	case "rpc":
		if !common.IsHexAddress(c.SignerAddress) {
			return fmt.Errorf("SIGNER_ADDRESS must be a hex address when SIGNER_MODE is 'rpc', got %q", c.SignerAddress)
		}
	default:
		return fmt.Errorf("SIGNER_MODE must be 'local' or 'rpc', got %q", c.SignerMode)
	}

	if !common.IsHexAddress(c.CollateralAddress) {
		return fmt.Errorf("OVL_COLLATERAL_ADDRESS must be a hex address, got %q", c.CollateralAddress)
	}

	if !common.IsHexAddress(c.TokenAddress) {
		return fmt.Errorf("OVL_TOKEN_ADDRESS must be a hex address, got %q", c.TokenAddress)
	}

	if c.GasMarginBps < 0 {
		return fmt.Errorf("GAS_MARGIN_BPS cannot be negative, got %d", c.GasMarginBps)
	}

	if c.DefaultSlippageBps < 0 || c.DefaultSlippageBps > 10000 {
		return fmt.Errorf("DEFAULT_SLIPPAGE_BPS must be between 0 and 10000, got %d", c.DefaultSlippageBps)
	}

	if c.DefaultDeadline <= 0 {
		return fmt.Errorf("DEFAULT_DEADLINE must be positive, got %s", c.DefaultDeadline)
	}

	if c.RPCTimeout <= 0 {
		return fmt.Errorf("RPC_TIMEOUT must be positive, got %s", c.RPCTimeout)
	}

	if c.TrackerMode != "console" && c.TrackerMode != "postgres" && c.TrackerMode != "memory" {
		return fmt.Errorf("TRACKER_MODE must be 'console', 'postgres' or 'memory', got %q", c.TrackerMode)
	}

	if c.TrackerBufferSize <= 0 {
		return fmt.Errorf("TRACKER_BUFFER_SIZE must be positive, got %d", c.TrackerBufferSize)
	}

	if c.TrackerMode == "memory" && c.RecordCacheSize <= 0 {
		return fmt.Errorf("RECORD_CACHE_SIZE must be positive, got %d", c.RecordCacheSize)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getUint64OrDefault(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	uintVal, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return uintVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
