package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL            string
	VaultAddress           string
	SafeAPIURL             string
	CoinGeckoURL           string
	CoinGeckoAPIKey        string
	SafeRetryMax           int
	SafeRetryBaseDelay     time.Duration
	CoinGeckoDelay         time.Duration
	CoinGeckoRetryMax      int
	CoinGeckoRetryDelay    time.Duration
	SnapshotWorkerInterval time.Duration
	ReportWorkerInterval   time.Duration
	HTTPPort               string
	AdminAPIKey            string
	SheetsSpreadsheetID    string
	GoogleCredentialsJSON  string
	ReportXLSXPath         string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:            envOrDefaultWarn("DATABASE_URL", ""),
		VaultAddress:           envOrDefaultWarn("VAULT_ADDRESS", ""),
		SafeAPIURL:             envOrDefault("SAFE_API_URL", "https://safe-transaction-mainnet.safe.global/api"),
		CoinGeckoURL:           envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:        envOrDefault("COINGECKO_API_KEY", ""),
		SafeRetryMax:           envOrDefaultInt("SAFE_RETRY_MAX", 3),
		SafeRetryBaseDelay:     envOrDefaultDuration("SAFE_RETRY_BASE_DELAY", 1*time.Second),
		CoinGeckoDelay:         envOrDefaultDuration("COINGECKO_DELAY", 2*time.Second),
		CoinGeckoRetryMax:      envOrDefaultInt("COINGECKO_RETRY_MAX", 3),
		CoinGeckoRetryDelay:    envOrDefaultDuration("COINGECKO_RETRY_DELAY", 1*time.Second),
		SnapshotWorkerInterval: envOrDefaultDuration("SNAPSHOT_WORKER_INTERVAL", 1*time.Hour),
		ReportWorkerInterval:   envOrDefaultDuration("REPORT_WORKER_INTERVAL", 24*time.Hour),
		HTTPPort:               envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:            envOrDefault("ADMIN_API_KEY", ""),
		SheetsSpreadsheetID:    envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON:  envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		ReportXLSXPath:         envOrDefault("REPORT_XLSX_PATH", "vault_report.xlsx"),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
