package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{
		"DATABASE_URL", "VAULT_ADDRESS", "SAFE_API_URL", "COINGECKO_URL",
		"COINGECKO_API_KEY", "HTTP_PORT", "SAFE_RETRY_MAX",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.VaultAddress != "" {
		t.Errorf("VaultAddress = %q, want empty", cfg.VaultAddress)
	}
	if cfg.SafeAPIURL != "https://safe-transaction-mainnet.safe.global/api" {
		t.Errorf("SafeAPIURL = %q, want default", cfg.SafeAPIURL)
	}
	if cfg.CoinGeckoURL != "https://api.coingecko.com/api/v3" {
		t.Errorf("CoinGeckoURL = %q, want default", cfg.CoinGeckoURL)
	}
	if cfg.SafeRetryMax != 3 {
		t.Errorf("SafeRetryMax = %d, want 3", cfg.SafeRetryMax)
	}
	if cfg.SafeRetryBaseDelay != 1*time.Second {
		t.Errorf("SafeRetryBaseDelay = %v, want 1s", cfg.SafeRetryBaseDelay)
	}
	if cfg.CoinGeckoDelay != 2*time.Second {
		t.Errorf("CoinGeckoDelay = %v, want 2s", cfg.CoinGeckoDelay)
	}
	if cfg.SnapshotWorkerInterval != 1*time.Hour {
		t.Errorf("SnapshotWorkerInterval = %v, want 1h", cfg.SnapshotWorkerInterval)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.ReportXLSXPath != "vault_report.xlsx" {
		t.Errorf("ReportXLSXPath = %q, want default", cfg.ReportXLSXPath)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("VAULT_ADDRESS", "0x1111111111111111111111111111111111111111")
	t.Setenv("SAFE_API_URL", "https://safe.example.com/api")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SAFE_RETRY_MAX", "10")
	t.Setenv("SAFE_RETRY_BASE_DELAY", "5s")
	t.Setenv("SNAPSHOT_WORKER_INTERVAL", "30m")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://localhost/testdb" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.VaultAddress != "0x1111111111111111111111111111111111111111" {
		t.Errorf("VaultAddress = %q, want override", cfg.VaultAddress)
	}
	if cfg.SafeAPIURL != "https://safe.example.com/api" {
		t.Errorf("SafeAPIURL = %q, want override", cfg.SafeAPIURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.SafeRetryMax != 10 {
		t.Errorf("SafeRetryMax = %d, want 10", cfg.SafeRetryMax)
	}
	if cfg.SafeRetryBaseDelay != 5*time.Second {
		t.Errorf("SafeRetryBaseDelay = %v, want 5s", cfg.SafeRetryBaseDelay)
	}
	if cfg.SnapshotWorkerInterval != 30*time.Minute {
		t.Errorf("SnapshotWorkerInterval = %v, want 30m", cfg.SnapshotWorkerInterval)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SAFE_RETRY_MAX", "not-a-number")
	t.Setenv("COINGECKO_DELAY", "soon")

	cfg := Load()

	if cfg.SafeRetryMax != 3 {
		t.Errorf("SafeRetryMax = %d, want default 3", cfg.SafeRetryMax)
	}
	if cfg.CoinGeckoDelay != 2*time.Second {
		t.Errorf("CoinGeckoDelay = %v, want default 2s", cfg.CoinGeckoDelay)
	}
}
