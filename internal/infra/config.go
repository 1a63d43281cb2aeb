package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                string
	Port                  string
	DatabaseURL           string
	JWTSecret             string
	NetworkName           string
	ChainGatewayURL       string
	ChainGatewayAPIKey    string
	ChainWebhookSecret    string
	ChainExplorerURL      string
	RequiredConfirmations int
	DelegationBatchSize   int
	WhitelistPath         string
	WorkerSchedule        string
	CORSAllowedOrigins    []string
	HTTPReadTimeout       time.Duration
	HTTPWriteTimeout      time.Duration
	HTTPIdleTimeout       time.Duration
	RateLimitPerMin       int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		NetworkName:           getEnv("NETWORK_NAME", "Rinkeby"),
		ChainGatewayURL:       getEnv("CHAIN_GATEWAY_URL", "http://localhost:8545"),
		ChainGatewayAPIKey:    os.Getenv("CHAIN_GATEWAY_API_KEY"),
		ChainWebhookSecret:    os.Getenv("CHAIN_WEBHOOK_SECRET"),
		ChainExplorerURL:      getEnv("CHAIN_EXPLORER_URL", "https://rinkeby.etherscan.io/tx/"),
		RequiredConfirmations: getEnvInt("REQUIRED_CONFIRMATIONS", 6),
		DelegationBatchSize:   getEnvInt("DELEGATION_BATCH_SIZE", 100),
		WhitelistPath:         getEnv("WHITELIST_PATH", "config/whitelist.json"),
		WorkerSchedule:        getEnv("WORKER_SCHEDULE", "@every 15s"),
		CORSAllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3010")),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.RequiredConfirmations < 0 {
		return nil, fmt.Errorf("REQUIRED_CONFIRMATIONS must not be negative")
	}

	if cfg.DelegationBatchSize <= 0 {
		cfg.DelegationBatchSize = 100
	}

	if _, err := url.ParseRequestURI(cfg.ChainGatewayURL); err != nil {
		return nil, fmt.Errorf("CHAIN_GATEWAY_URL is invalid: %w", err)
	}

	return cfg, nil
}

// ExplorerTxURL links a transaction hash to the block explorer.
func (c *Config) ExplorerTxURL(txHash string) string {
	if c == nil || c.ChainExplorerURL == "" || txHash == "" {
		return ""
	}
	return c.ChainExplorerURL + txHash
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
