package config

import (
	"fmt"
	"time"

	"golang-kis-trader/pkg/config"
	"golang-kis-trader/pkg/kis"
)

// Strategy holds strategy scheduler configuration.
type Strategy struct {
	Enabled           bool   `mapstructure:"enabled"`
	PollingInterval   string `mapstructure:"polling_interval"`
	DefaultMarketCode string `mapstructure:"default_market_code"`
	// SampleWindow is how many intraday price observations are kept per symbol for VWAP.
	SampleWindow int `mapstructure:"sample_window"`
}

// Telegram holds notification settings.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// News holds the RSS feeds merged into the news endpoint. %s is replaced by the symbol.
type News struct {
	FeedURLs []string `mapstructure:"feed_urls"`
	Timeout  string   `mapstructure:"timeout"`
}

// FeedTimeout parses Timeout. An empty value returns zero so the feed reader uses its default.
func (n News) FeedTimeout() (time.Duration, error) {
	if n.Timeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(n.Timeout)
	if err != nil {
		return 0, fmt.Errorf("news timeout: %w", err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("news timeout must not be negative: %s", n.Timeout)
	}
	return timeout, nil
}

// Config holds the full configuration for the trading service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	KIS      kis.Config      `mapstructure:"kis"`
	Strategy Strategy        `mapstructure:"strategy"`
	Telegram Telegram        `mapstructure:"telegram"`
	News     News            `mapstructure:"news"`
}

// Load loads the trading service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
