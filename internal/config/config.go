package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Default mainnet addresses. The native asset uses the conventional
// 0xEeee... sentinel since it has no contract of its own.
const (
	defaultNativeAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
	defaultWrappedNative = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	defaultWstETHAddress = "0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0"
	defaultStETHAddress  = "0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84"
	defaultWstETHRate    = "1.12"
	defaultSlippageRate  = "0.005"
)

type Config struct {
	// Routing oracle service
	SORBaseURL           string
	SORAPIKey            string
	SORRequestsPerSecond float64
	HTTPTimeout          time.Duration

	// Recompute pipeline
	ThrottleWindow            time.Duration
	PoolRefreshInterval       time.Duration
	RefetchPools              bool
	HandleAmountsOnFetchPools bool

	// Trade history sinks (optional)
	RedisAddr          string
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// HTTP API
	APIAddr string
	APIKey  string
	DevMode bool

	// Token topology
	NativeAddress        common.Address
	WrappedNativeAddress common.Address
	WstETHAddress        common.Address
	StETHAddress         common.Address
	WstETHRate           decimal.Decimal

	// Trading defaults
	SlippageRate decimal.Decimal
}

func Load() *Config {
	return &Config{
		SORBaseURL:           getEnv("SOR_BASE_URL", "http://localhost:8080"),
		SORAPIKey:            getEnv("SOR_API_KEY", ""),
		SORRequestsPerSecond: getFloatEnv("SOR_REQUESTS_PER_SECOND", 0),
		HTTPTimeout:          getDurationEnv("HTTP_TIMEOUT", 12*time.Second),

		ThrottleWindow:            getDurationEnv("THROTTLE_WINDOW", 300*time.Millisecond),
		PoolRefreshInterval:       getDurationEnv("POOL_REFRESH_INTERVAL", 30*time.Second),
		RefetchPools:              getBoolEnv("REFETCH_POOLS", true),
		HandleAmountsOnFetchPools: getBoolEnv("HANDLE_AMOUNTS_ON_FETCH_POOLS", true),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "trading"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		NativeAddress:        getAddressEnv("NATIVE_ADDRESS", defaultNativeAddress),
		WrappedNativeAddress: getAddressEnv("WRAPPED_NATIVE_ADDRESS", defaultWrappedNative),
		WstETHAddress:        getAddressEnv("WSTETH_ADDRESS", defaultWstETHAddress),
		StETHAddress:         getAddressEnv("STETH_ADDRESS", defaultStETHAddress),
		WstETHRate:           getDecimalEnv("WSTETH_RATE", defaultWstETHRate),

		SlippageRate: getDecimalEnv("SLIPPAGE_RATE", defaultSlippageRate),
	}
}

func (c *Config) Validate() error {
	if c.SORBaseURL == "" {
		return fmt.Errorf("SOR_BASE_URL is required")
	}
	if c.SlippageRate.Sign() < 0 {
		return fmt.Errorf("SLIPPAGE_RATE must not be negative")
	}
	if c.ThrottleWindow <= 0 {
		return fmt.Errorf("THROTTLE_WINDOW must be positive")
	}
	if c.PoolRefreshInterval <= 0 {
		return fmt.Errorf("POOL_REFRESH_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getAddressEnv(key, defaultVal string) common.Address {
	if val := os.Getenv(key); val != "" && common.IsHexAddress(val) {
		return common.HexToAddress(val)
	}
	return common.HexToAddress(defaultVal)
}

func getDecimalEnv(key, defaultVal string) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(defaultVal)
}
