// Package config provides configuration management for the scanner.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	cerrors "candle-scanner/internal/errors"
	"candle-scanner/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Market        MarketConfig       `mapstructure:"market"`
	Scan          ScanConfig         `mapstructure:"scan"`
	Feed          FeedConfig         `mapstructure:"feed"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// MarketConfig holds the instrument and timeframe selection.
type MarketConfig struct {
	Symbol     string   `mapstructure:"symbol"`
	Timeframes []string `mapstructure:"timeframes"`
	// BarLimit caps the finalized history held per timeframe.
	BarLimit int `mapstructure:"bar_limit"`
}

// ScanConfig holds scan behavior.
type ScanConfig struct {
	// Schedule is a cron expression for periodic scans; scans also fire
	// on every bar finalization regardless of the schedule.
	Schedule string `mapstructure:"schedule"`
	// ConfirmVolume requires engulfing bars to out-trade the engulfed bar.
	ConfirmVolume bool `mapstructure:"confirm_volume"`
}

// FeedConfig holds the market-data endpoints.
type FeedConfig struct {
	RestURL      string `mapstructure:"rest_url"`
	WebsocketURL string `mapstructure:"websocket_url"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/candle-scanner"
	}
	return filepath.Join(home, ".config", "candle-scanner")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Missing file is fine; defaults plus env overrides apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("market.symbol", "BTCUSDT")
	v.SetDefault("market.timeframes", []string{"15m", "1h", "4h"})
	v.SetDefault("market.bar_limit", 500)
	v.SetDefault("scan.schedule", "@every 5m")
	v.SetDefault("scan.confirm_volume", false)
	v.SetDefault("feed.rest_url", "https://api.binance.com")
	v.SetDefault("feed.websocket_url", "wss://stream.binance.com:9443/ws")
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.webhook.enabled", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCANNER_SYMBOL"); v != "" {
		cfg.Market.Symbol = v
	}
	if v := os.Getenv("SCANNER_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
		cfg.Notifications.Webhook.Enabled = true
	}
	if v := os.Getenv("SCANNER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Market.Symbol == "" {
		return cerrors.Wrap(cerrors.ErrConfigInvalid, "market.symbol must be set")
	}
	if len(c.Market.Timeframes) == 0 {
		return cerrors.Wrap(cerrors.ErrConfigInvalid, "market.timeframes must name at least one timeframe")
	}
	for _, tf := range c.Market.Timeframes {
		if !models.Timeframe(tf).Known() {
			return cerrors.Wrapf(cerrors.ErrUnknownTimeframe, "market.timeframes entry %q", tf)
		}
	}
	if c.Market.BarLimit < 0 {
		return cerrors.Wrap(cerrors.ErrConfigInvalid, "market.bar_limit must be non-negative")
	}
	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return cerrors.Wrap(cerrors.ErrConfigInvalid, "notifications.webhook.url must be set when the webhook is enabled")
	}
	return nil
}

// Timeframes returns the configured timeframes sorted by rank.
func (c *Config) Timeframes() []models.Timeframe {
	tfs := make([]models.Timeframe, 0, len(c.Market.Timeframes))
	for _, tf := range c.Market.Timeframes {
		tfs = append(tfs, models.Timeframe(tf))
	}
	models.SortTimeframes(tfs)
	return tfs
}
