// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Clock     ClockConfig     `mapstructure:"clock"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Strava    StravaConfig    `mapstructure:"strava"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Retention RetentionConfig `mapstructure:"retention"`
	Creds     CredsConfig     `mapstructure:"creds"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
}

// ServerConfig controls the HTTP trigger server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ClockConfig allows freezing the service clock for rehearsal runs.
type ClockConfig struct {
	SpoofTime   bool   `mapstructure:"spoof_time"`
	SpoofedTime string `mapstructure:"spoofed_time"`
}

// ScraperConfig configures the page-fetch proxy and its retry behavior.
type ScraperConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffSeconds int    `mapstructure:"backoff_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// StorageConfig selects and configures the blob storage backend.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalDir  string `mapstructure:"local_dir"`
}

// ScheduleConfig holds the gate allow-list and the serve-loop interval.
type ScheduleConfig struct {
	AdditionalDates []string `mapstructure:"additional_dates"`
	IntervalMinutes int      `mapstructure:"interval_minutes"`
}

// StravaConfig configures the Strava API client and the activity matching
// window.
type StravaConfig struct {
	BaseURL            string  `mapstructure:"base_url"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds"`
	HourLowerBound     int     `mapstructure:"hour_lower_bound"`
	HourUpperBound     int     `mapstructure:"hour_upper_bound"`
	LowerDistanceLimit float64 `mapstructure:"lower_distance_limit"`
	UpperDistanceLimit float64 `mapstructure:"upper_distance_limit"`
}

// LedgerConfig configures the completion ledger blob.
type LedgerConfig struct {
	Object     string `mapstructure:"object"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// RetentionConfig controls the cached-page sweep.
type RetentionConfig struct {
	Days int `mapstructure:"days"`
}

// CredsConfig locates the encrypted account file.
type CredsConfig struct {
	Object        string `mapstructure:"object"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

// PubSubConfig holds metadata for completion-event notifications. Both
// fields empty disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PARKRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("clock.spoof_time", false)
	v.SetDefault("scraper.base_url", "https://api.scraperapi.com/")
	v.SetDefault("scraper.timeout_seconds", 70)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.backoff_seconds", 5)
	v.SetDefault("scraper.user_agent", "parkrun-sync/1.0")
	v.SetDefault("storage.backend", "gcs")
	v.SetDefault("schedule.interval_minutes", 15)
	v.SetDefault("strava.base_url", "https://www.strava.com")
	v.SetDefault("strava.timeout_seconds", 15)
	v.SetDefault("strava.hour_lower_bound", 8)
	v.SetDefault("strava.hour_upper_bound", 12)
	v.SetDefault("strava.lower_distance_limit", 4500)
	v.SetDefault("strava.upper_distance_limit", 6500)
	v.SetDefault("ledger.object", "logs.csv")
	v.SetDefault("ledger.max_entries", 2000)
	v.SetDefault("retention.days", 7)
	v.SetDefault("creds.object", "users.json.enc")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper.max_retries must be >= 0")
	}
	switch c.Storage.Backend {
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set for the local backend")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.backend must be one of gcs, local, memory")
	}
	if c.Strava.HourLowerBound < 0 || c.Strava.HourUpperBound > 23 ||
		c.Strava.HourLowerBound >= c.Strava.HourUpperBound {
		return fmt.Errorf("strava hour bounds must satisfy 0 <= lower < upper <= 23")
	}
	if c.Strava.LowerDistanceLimit >= c.Strava.UpperDistanceLimit {
		return fmt.Errorf("strava distance limits must satisfy lower < upper")
	}
	if c.Ledger.MaxEntries <= 0 {
		return fmt.Errorf("ledger.max_entries must be > 0")
	}
	if c.Retention.Days <= 0 {
		return fmt.Errorf("retention.days must be > 0")
	}
	if c.Clock.SpoofTime && c.Clock.SpoofedTime == "" {
		return fmt.Errorf("clock.spoofed_time must be set when clock.spoof_time is enabled")
	}
	return nil
}

// ExtraDates converts the allow-list into a set keyed by YYYY-MM-DD.
func (c Config) ExtraDates() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Schedule.AdditionalDates))
	for _, d := range c.Schedule.AdditionalDates {
		out[strings.TrimSpace(d)] = struct{}{}
	}
	return out
}
