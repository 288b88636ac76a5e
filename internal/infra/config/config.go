package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for both processes (bot and dashboard).
type AppConfig struct {
	TelegramToken string
	AdminSecret   string
	DataFile      string
	DatabaseURL   string // optional; selects the Postgres store when set
	LogLevel      string
	Environment   string

	CronSpecDigest string // optional; empty disables the digest job
	DigestClass    string // optional class scope for the digest

	BroadcastTimeout time.Duration // per-recipient send timeout

	AdminHTTPAddr string // dashboard listen address
	AdminCacheTTL time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables; a missing
	// .env file is fine.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.AdminSecret = os.Getenv("ADMIN_SECRET")
	if cfg.AdminSecret == "" {
		return nil, fmt.Errorf("ADMIN_SECRET is not set")
	}

	cfg.DataFile = os.Getenv("DATA_FILE")
	if cfg.DataFile == "" {
		cfg.DataFile = "data.json"
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecDigest = os.Getenv("CRON_SPEC_DIGEST")
	cfg.DigestClass = os.Getenv("DIGEST_CLASS")

	timeoutSeconds := 15
	if v := os.Getenv("BROADCAST_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid BROADCAST_TIMEOUT_SECONDS: %q", v)
		}
		timeoutSeconds = n
	}
	cfg.BroadcastTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.AdminHTTPAddr = os.Getenv("ADMIN_HTTP_ADDR")
	if cfg.AdminHTTPAddr == "" {
		cfg.AdminHTTPAddr = "127.0.0.1:8090"
	}

	cacheTTLSeconds := 2
	if v := os.Getenv("ADMIN_CACHE_TTL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid ADMIN_CACHE_TTL_SECONDS: %q", v)
		}
		cacheTTLSeconds = n
	}
	cfg.AdminCacheTTL = time.Duration(cacheTTLSeconds) * time.Second

	return cfg, nil
}
