// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Video sources the bot can poll.
const (
	SourceAPI = "api"
	SourceRSS = "rss"
)

// Config holds all application configuration for the notification bot.
type Config struct {
	// BotToken authenticates the chat bot
	BotToken string `json:"bot_token"`
	// APIKey authenticates YouTube Data API calls (unused with the rss source)
	APIKey string `json:"api_key"`

	// StorePath is where the bot keeps its persistent state
	StorePath string `json:"store_path"`
	// Source selects the upload source: "api" or "rss"
	Source string `json:"source"`

	// RecencyFactor scales the check interval into the freshness window
	RecencyFactor int `json:"recency_factor"`
	// CallTimeout bounds each outbound platform call
	CallTimeout time.Duration `json:"call_timeout"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		StorePath:     "ytnotify.json",
		Source:        SourceAPI,
		RecencyFactor: 2,
		CallTimeout:   30 * time.Second,
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.loadFromEnv()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from ytnotify.conf.json in the current
// directory or the home config directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytnotify.conf.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytnotify", "ytnotify.conf.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.BotToken = v
	}
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("YTNOTIFY_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("YTNOTIFY_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("YTNOTIFY_RECENCY_FACTOR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RecencyFactor = n
		}
	}
	if v := os.Getenv("YTNOTIFY_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CallTimeout = d
		}
	}
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("bot_token is required (set TELEGRAM_BOT_TOKEN)")
	}
	if c.Source != SourceAPI && c.Source != SourceRSS {
		return fmt.Errorf("source must be %q or %q", SourceAPI, SourceRSS)
	}
	if c.Source == SourceAPI && c.APIKey == "" {
		return fmt.Errorf("api_key is required with the api source (set YOUTUBE_API_KEY)")
	}
	if c.StorePath == "" {
		return fmt.Errorf("store_path must not be empty")
	}
	if c.RecencyFactor < 1 {
		return fmt.Errorf("recency_factor must be at least 1")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive")
	}
	return nil
}
