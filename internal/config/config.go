package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	CORS       CORSConfig
	MarketData MarketDataConfig
	Sync       SyncConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// MarketDataConfig holds the external price provider settings. The provider
// token is stored fernet-encrypted in the environment and decrypted at load;
// an empty token is valid since the chart endpoint is public.
type MarketDataConfig struct {
	BaseURL string
	Token   string
	// MinRequestInterval throttles consecutive provider calls.
	MinRequestInterval time.Duration
}

// SyncConfig holds the scheduled price sync settings.
type SyncConfig struct {
	// Schedule is a cron expression with seconds, e.g. "0 30 19 * * 1-5"
	// (19:30 on weekdays, after market close).
	Schedule string
	// Timezone for the cron schedule.
	Timezone string
	// Symbols synced by the scheduled job.
	Symbols []string
	// SymbolDelay is the pause between symbols, throttling against provider
	// rate limits.
	SymbolDelay time.Duration
	// LookbackDays is how far back each scheduled run looks for gaps.
	LookbackDays int
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/dividend_tracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		MarketData: MarketDataConfig{
			BaseURL:            getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
			MinRequestInterval: getDuration("MARKET_DATA_MIN_INTERVAL", 1500*time.Millisecond),
		},
		Sync: SyncConfig{
			Schedule:     getEnv("SYNC_SCHEDULE", "0 30 19 * * 1-5"),
			Timezone:     getEnv("SYNC_TIMEZONE", "Asia/Bangkok"),
			Symbols:      splitList(getEnv("SYNC_SYMBOLS", "")),
			SymbolDelay:  getDuration("SYNC_SYMBOL_DELAY", 1500*time.Millisecond),
			LookbackDays: getInt("SYNC_LOOKBACK_DAYS", 5),
		},
	}

	token, err := decryptToken(
		os.Getenv("MARKET_DATA_TOKEN_ENCRYPTED"),
		os.Getenv("FERNET_KEY"),
	)
	if err != nil {
		return nil, err
	}
	config.MarketData.Token = token

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// decryptToken decrypts a fernet-encrypted provider token. Both values empty
// means no token is configured.
func decryptToken(encrypted, key string) (string, error) {
	if encrypted == "" {
		return "", nil
	}
	if key == "" {
		return "", fmt.Errorf("MARKET_DATA_TOKEN_ENCRYPTED is set but FERNET_KEY is missing")
	}
	keys, err := fernet.DecodeKeys(key)
	if err != nil {
		return "", fmt.Errorf("failed to decode FERNET_KEY: %w", err)
	}
	token := fernet.VerifyAndDecrypt([]byte(encrypted), 0, keys)
	if token == nil {
		return "", fmt.Errorf("failed to decrypt market data token")
	}
	return string(token), nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
