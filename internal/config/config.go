package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Alchemy   AlchemyConfig   `yaml:"alchemy"`
	CoinGecko CoinGeckoConfig `yaml:"coinGecko"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Prices    PriceConfig     `yaml:"prices"`
	Retry     RetryConfig     `yaml:"retry"`
	Batcher   BatcherConfig   `yaml:"batcher"`
	Webhooks  WebhookConfig   `yaml:"webhooks"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// AlchemyConfig holds the indexing API configuration. The API key is read
// from the ALCHEMY_API_KEY environment variable, never from the YAML file.
type AlchemyConfig struct {
	APIKey               string  `yaml:"-"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RateLimit            float64 `yaml:"rateLimit"`
	BurstLimit           int     `yaml:"burstLimit"`
	MaxConcurrentFetches int     `yaml:"maxConcurrentFetches"`
}

// CoinGeckoConfig holds the price API configuration.
type CoinGeckoConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// WalletConfig holds wallet-connect and signing configuration. Both secrets
// come from the environment (WALLETCONNECT_PROJECT_ID, WALLET_PRIVATE_KEY).
type WalletConfig struct {
	WalletConnectProjectID string `yaml:"-"`
	PrivateKey             string `yaml:"-"`
	ReceiptTimeoutSeconds  int    `yaml:"receiptTimeoutSeconds"`
	ReceiptPollMillis      int64  `yaml:"receiptPollMillis"`
}

// PriceConfig holds the price cache configuration.
type PriceConfig struct {
	CacheTTLMinutes        int `yaml:"cacheTTLMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// RetryConfig holds the bounded-retry configuration for upstream calls.
type RetryConfig struct {
	MaxRetries    int   `yaml:"maxRetries"`
	BaseDelayMs   int64 `yaml:"baseDelayMs"`
	MaxDelayMs    int64 `yaml:"maxDelayMs"`
	BackoffFactor int   `yaml:"backoffFactor"`
}

// BatcherConfig holds transaction batcher configuration.
type BatcherConfig struct {
	MaxTransactionsPerBatch int `yaml:"maxTransactionsPerBatch"`
}

// WebhookConfig holds webhook delivery configuration.
type WebhookConfig struct {
	DeliveryTimeoutMillis int64 `yaml:"deliveryTimeoutMillis"`
	MaxLogs               int   `yaml:"maxLogs"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from a YAML file, applies defaults and merges
// environment secrets. A missing WalletConnect project id or Alchemy API key
// is a fatal configuration error.
func Load(path string) (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("No .env file loaded: %v", err)
	}

	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	cfg.applyDefaults()

	cfg.Alchemy.APIKey = os.Getenv("ALCHEMY_API_KEY")
	cfg.Wallet.WalletConnectProjectID = os.Getenv("WALLETCONNECT_PROJECT_ID")
	cfg.Wallet.PrivateKey = os.Getenv("WALLET_PRIVATE_KEY")

	if cfg.Wallet.WalletConnectProjectID == "" {
		return nil, fmt.Errorf("WALLETCONNECT_PROJECT_ID is not set")
	}
	if cfg.Alchemy.APIKey == "" {
		return nil, fmt.Errorf("ALCHEMY_API_KEY is not set")
	}
	if cfg.Wallet.PrivateKey == "" {
		logrus.Warn("WALLET_PRIVATE_KEY not set; batch execution will be unavailable")
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Alchemy.RequestTimeoutMillis == 0 {
		c.Alchemy.RequestTimeoutMillis = 10000
		logrus.Infof("Alchemy.RequestTimeoutMillis not set, defaulting to %d ms", c.Alchemy.RequestTimeoutMillis)
	}
	if c.Alchemy.RateLimit == 0 {
		c.Alchemy.RateLimit = 20
	}
	if c.Alchemy.BurstLimit == 0 {
		c.Alchemy.BurstLimit = 5
	}
	if c.Alchemy.MaxConcurrentFetches == 0 {
		c.Alchemy.MaxConcurrentFetches = 8
	}
	if c.CoinGecko.BaseURL == "" {
		c.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("CoinGecko.BaseURL not set, defaulting to %s", c.CoinGecko.BaseURL)
	}
	if c.CoinGecko.RequestTimeoutMillis == 0 {
		c.CoinGecko.RequestTimeoutMillis = 10000
	}
	if c.Prices.CacheTTLMinutes == 0 {
		c.Prices.CacheTTLMinutes = 5
		logrus.Infof("Prices.CacheTTLMinutes not set, defaulting to %d minutes", c.Prices.CacheTTLMinutes)
	}
	if c.Prices.CleanupIntervalMinutes == 0 {
		c.Prices.CleanupIntervalMinutes = 10
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.BaseDelayMs == 0 {
		c.Retry.BaseDelayMs = 1000
	}
	if c.Retry.MaxDelayMs == 0 {
		c.Retry.MaxDelayMs = 30000
	}
	if c.Retry.BackoffFactor == 0 {
		c.Retry.BackoffFactor = 2
	}
	if c.Wallet.ReceiptTimeoutSeconds == 0 {
		c.Wallet.ReceiptTimeoutSeconds = 120
	}
	if c.Wallet.ReceiptPollMillis == 0 {
		c.Wallet.ReceiptPollMillis = 2000
	}
	if c.Batcher.MaxTransactionsPerBatch == 0 {
		c.Batcher.MaxTransactionsPerBatch = 20
	}
	if c.Webhooks.DeliveryTimeoutMillis == 0 {
		c.Webhooks.DeliveryTimeoutMillis = 10000
	}
	if c.Webhooks.MaxLogs == 0 {
		c.Webhooks.MaxLogs = 100
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
