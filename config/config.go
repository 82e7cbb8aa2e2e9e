package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	HTTPHost string
	HTTPPort int

	// Journal (durability extension); empty path disables journaling.
	JournalDBPath string

	// Logging
	LogLevel string
	LogJSON  bool

	// Binance API (fetchprices tool only; ticker prices are public, so keys
	// are optional)
	APIKey     string
	SecretKey  string
	IsTestnet  bool
	Symbols    []string // symbols the fetchprices tool pulls
	APIBaseURL string   // ledger server base URL the fetchprices tool pushes to
}

// Addr renders the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// HTTP server
	cfg.HTTPHost = getEnv("HTTP_HOST", "0.0.0.0")
	var err error
	cfg.HTTPPort, err = getEnvAsIntRequired("HTTP_PORT", 8080)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HTTP_PORT: %v", err))
	} else if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		errs = append(errs, "HTTP_PORT must be between 1 and 65535")
	}

	// Journal
	cfg.JournalDBPath = getEnv("JOURNAL_DB_PATH", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogJSON = getEnvAsBool("LOG_JSON", false)

	// Binance / fetchprices tool
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)
	cfg.Symbols = splitSymbols(getEnv("SYMBOLS", ""))
	cfg.APIBaseURL = getEnv("API_BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.HTTPPort))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func splitSymbols(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			symbols = append(symbols, p)
		}
	}
	return symbols
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
