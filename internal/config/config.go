package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"currency-rates-service/pkg/logger"
)

type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Server  ServerConfig
	Sources SourcesConfig
	Rates   RatesConfig
}

type ServerConfig struct {
	Port         int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
}

type SourcesConfig struct {
	// Enabled selects which provider clients are constructed at startup.
	Enabled []string `envconfig:"SOURCES_ENABLED" default:"exchangerate,coingecko"`

	RequestTimeout time.Duration `envconfig:"SOURCE_REQUEST_TIMEOUT" default:"10s"`
	MaxRetries     int           `envconfig:"SOURCE_MAX_RETRIES" default:"3"`

	ExchangeRateURL string `envconfig:"EXCHANGERATE_API_URL" default:"https://v6.exchangerate-api.com/v6"`
	ExchangeRateKey string `envconfig:"EXCHANGERATE_API_KEY"`
	CoinGeckoURL    string `envconfig:"COINGECKO_API_URL" default:"https://api.coingecko.com/api/v3/simple/price"`

	FiatCurrencies []string `envconfig:"FIAT_CURRENCIES" default:"USD,EUR,GBP,JPY,CAD,AUD,CHF,CNY"`

	// CryptoAssets maps internal currency codes to provider asset IDs.
	CryptoAssets map[string]string `envconfig:"CRYPTO_ASSETS" default:"BTC:bitcoin,ETH:ethereum,SOL:solana,ADA:cardano,DOT:polkadot,DOGE:dogecoin"`
}

type RatesConfig struct {
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"30m"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"30m"`
	BridgeCurrency  string        `envconfig:"BRIDGE_CURRENCY" default:"USD"`
	JournalPath     string        `envconfig:"JOURNAL_PATH" default:"data/exchange_rates.json"`
	SnapshotPath    string        `envconfig:"SNAPSHOT_PATH" default:"data/rates.json"`
}

func maskAPIKey(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(log *logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using system environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	log.Info("Configuration loaded",
		"sources", cfg.Sources.Enabled,
		"refresh_interval", cfg.Rates.RefreshInterval,
		"cache_ttl", cfg.Rates.CacheTTL,
		"bridge_currency", cfg.Rates.BridgeCurrency,
		"exchangerate_api_key", maskAPIKey(cfg.Sources.ExchangeRateKey),
	)

	return &cfg, nil
}
