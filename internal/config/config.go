package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/viper"
)

// Instance is one configured connection to an upstream Sonarr or Radarr server.
type Instance struct {
	Kind    string `mapstructure:"kind"` // "sonarr" or "radarr"
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Enabled bool   `mapstructure:"enabled"`
	Order   int    `mapstructure:"order"`
}

// Mail holds outbound SMTP settings.
type Mail struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Secure   string `mapstructure:"secure"` // "", "starttls" or "ssl"
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Ntfy holds push-topic relay settings.
type Ntfy struct {
	ServerURL    string `mapstructure:"server_url"`
	DefaultTopic string `mapstructure:"default_topic"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Token        string `mapstructure:"token"` // bearer token, alternative to user/password
}

// Apprise holds site-wide relay notification target URLs.
type Apprise struct {
	DefaultURLs []string `mapstructure:"default_urls"`
}

// Config holds all application configuration. It is loaded once per
// invocation and passed by value into components; nothing mutates it
// after Load returns.
type Config struct {
	Instances []Instance `mapstructure:"instances"`
	Mail      Mail       `mapstructure:"mail"`
	Ntfy      Ntfy       `mapstructure:"ntfy"`
	Apprise   Apprise    `mapstructure:"apprise"`

	// Notification behavior
	LookaheadDays int `mapstructure:"lookahead_days"` // days ahead to consider for notifications, 1 = only today

	// Upstream call tuning
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
	CatalogTTL      time.Duration `mapstructure:"catalog_ttl"` // full listing / calendar pulls
	ProbeTTL        time.Duration `mapstructure:"probe_ttl"`   // per-item file and quality checks
	FeedTTL         time.Duration `mapstructure:"feed_ttl"`    // YouTube feeds and page metadata

	// Server
	ServerPort string `mapstructure:"server_port"`

	// Paths
	DatabaseFile string `mapstructure:"database_file"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// Load loads configuration from config.yaml in CONFIG_DIR (or
// ~/.config/subscribarr), with environment variable overrides.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SUBSCRIBARR")
	v.AutomaticEnv()

	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "subscribarr")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return Config{}, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetDefault("lookahead_days", 1)
	v.SetDefault("upstream_timeout", "10s")
	v.SetDefault("catalog_ttl", "5m")
	v.SetDefault("probe_ttl", "30s")
	v.SetDefault("feed_ttl", "10m")
	v.SetDefault("server_port", "8080")
	v.SetDefault("database_file", filepath.Join(configDir, "subscribarr.db"))
	v.SetDefault("log_level", "info")

	// Config file is optional; env vars and defaults may be enough.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	for i, inst := range c.Instances {
		if inst.Kind != "sonarr" && inst.Kind != "radarr" {
			return fmt.Errorf("instances[%d]: unknown kind %q", i, inst.Kind)
		}
		if inst.Enabled && (inst.BaseURL == "" || inst.APIKey == "") {
			return fmt.Errorf("instances[%d] (%s): base_url and api_key are required", i, inst.Name)
		}
	}
	if c.LookaheadDays < 0 {
		return fmt.Errorf("lookahead_days must not be negative")
	}
	return nil
}

// EnabledInstances returns the enabled instances of the given kind in
// priority order.
func (c Config) EnabledInstances(kind string) []Instance {
	var out []Instance
	for _, inst := range c.Instances {
		if inst.Enabled && inst.Kind == kind {
			out = append(out, inst)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
