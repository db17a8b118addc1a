package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App       `json:"app"       toml:"app"`
		HTTP      `json:"http"      toml:"http"`
		Helius    `json:"helius"    toml:"helius"`
		CoinGecko `json:"coingecko" toml:"coingecko"`
		Monitor   `json:"monitor"   toml:"monitor"`
	}

	App struct {
		Name        string `json:"name"        toml:"name"        env:"APP_NAME"    env-default:"wallet-monitor"`
		Environment string `json:"environment" toml:"environment" env:"ENV_NAME"    env-default:"dev"`
		Debug       bool   `json:"debug"       toml:"debug"       env:"DEBUG"       env-default:"false"`
	}

	HTTP struct {
		Port string `json:"port" toml:"port" env:"HTTP_PORT" env-default:"5000"`
	}

	Helius struct {
		APIKey string `json:"api_key" toml:"api_key" env:"HELIUS_API_KEY"`
		APIURL string `json:"api_url" toml:"api_url" env:"HELIUS_API_URL" env-default:"https://api.helius.xyz"`
	}

	CoinGecko struct {
		PriceAPIURL string `json:"api_url" toml:"api_url" env:"COINGECKO_API_URL" env-default:"https://api.coingecko.com"`
	}

	Monitor struct {
		PollIntervalSeconds int `json:"poll_interval_seconds" toml:"poll_interval_seconds" env:"POLL_INTERVAL_SECONDS" env-default:"60"`
		HistoryPageSize     int `json:"history_page_size"     toml:"history_page_size"     env:"HISTORY_PAGE_SIZE"     env-default:"5"`
		MaxHistoryRequests  int `json:"max_history_requests"  toml:"max_history_requests"  env:"MAX_HISTORY_REQUESTS"  env-default:"5"`
	}
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	_, b, _, _ := runtime.Caller(0)
	basePath := filepath.Dir(b)

	// Config files are optional; environment variables alone are enough.
	configTomlPath := filepath.Join(basePath, "config.toml")
	if err := cleanenv.ReadConfig(configTomlPath, cfg); err != nil {
		configJsonPath := filepath.Join(basePath, "config.json")
		_ = cleanenv.ReadConfig(configJsonPath, cfg)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("env read error: %w", err)
	}

	return cfg, nil
}
