// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/cityhall/internal/content"
	"github.com/JakeFAU/cityhall/internal/staticdata"
	"github.com/JakeFAU/cityhall/internal/syncer"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	API     APIConfig         `mapstructure:"api"`
	Sync    SyncConfig        `mapstructure:"sync"`
	Sources map[string]string `mapstructure:"sources"`
	Content ContentConfig     `mapstructure:"content"`
	Events  EventsConfig      `mapstructure:"events"`
	Twitter TwitterConfig     `mapstructure:"twitter"`
	RSS     RSSConfig         `mapstructure:"rss"`
	Logging LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// APIConfig points at the CMS content API.
type APIConfig struct {
	URL               string  `mapstructure:"url"`
	Source            string  `mapstructure:"source"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	UserAgent         string  `mapstructure:"user_agent"`
}

// SyncConfig governs the periodic full sync.
type SyncConfig struct {
	IntervalMinutes int      `mapstructure:"interval_minutes"`
	OptionalFeeds   []string `mapstructure:"optional_feeds"`
}

// ContentConfig controls how CMS dates are read.
type ContentConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// EventsConfig tunes the event listing filter.
type EventsConfig struct {
	DefaultWindow time.Duration `mapstructure:"default_window"`
}

// TwitterConfig configures latest-tweet lookups.
type TwitterConfig struct {
	BearerToken    string `mapstructure:"bearer_token"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RSSConfig configures the news feed reader.
type RSSConfig struct {
	URL            string `mapstructure:"url"`
	Count          int    `mapstructure:"count"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindAliases(v); err != nil {
		return Config{}, err
	}

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
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("api.url", "")
	v.SetDefault("api.source", string(content.SourceProduction))
	v.SetDefault("api.timeout_seconds", 10)
	v.SetDefault("api.max_retries", 2)
	v.SetDefault("api.requests_per_second", 0)
	v.SetDefault("api.burst", 8)
	v.SetDefault("api.user_agent", "cityhall/1.0")
	v.SetDefault("sync.interval_minutes", 5)
	v.SetDefault("sync.optional_feeds", []string{syncer.FeedRedirects, syncer.FeedKiosk})
	for _, feed := range staticdata.Feeds() {
		v.SetDefault("sources."+feed, syncer.SourceStatic)
	}
	v.SetDefault("content.timezone", "Local")
	v.SetDefault("events.default_window", "120m")
	v.SetDefault("twitter.bearer_token", "")
	v.SetDefault("twitter.base_url", "https://api.twitter.com")
	v.SetDefault("twitter.timeout_seconds", 5)
	v.SetDefault("rss.url", "")
	v.SetDefault("rss.count", 8)
	v.SetDefault("rss.timeout_seconds", 10)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// bindAliases keeps the legacy environment names working. The prefixed
// name derived from the key is checked first.
func bindAliases(v *viper.Viper) error {
	aliases := map[string][]string{
		"api.source":            {"CC_CONTENT_SOURCE"},
		"sync.interval_minutes": {"CC_API_SYNC_INTERVAL"},
		"rss.url":               {"CC_RSS"},
		"server.port":           {"CC_PORT", "PORT"},
	}
	for key, names := range aliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.API.URL) == "" {
		return fmt.Errorf("api.url is required")
	}
	if u, err := url.Parse(c.API.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.url must be an absolute URL, got %q", c.API.URL)
	}
	switch content.SourceMode(c.API.Source) {
	case content.SourceProduction, content.SourceStaging:
	default:
		return fmt.Errorf("api.source must be %q or %q, got %q",
			content.SourceProduction, content.SourceStaging, c.API.Source)
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0")
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must be >= 0")
	}
	if c.Sync.IntervalMinutes < 0 {
		return fmt.Errorf("sync.interval_minutes must be >= 0")
	}
	for _, feed := range c.Sync.OptionalFeeds {
		if feed != syncer.FeedRedirects && feed != syncer.FeedKiosk {
			return fmt.Errorf("sync.optional_feeds: unknown feed %q", feed)
		}
	}
	if err := syncer.ValidateSources(c.Sources); err != nil {
		return fmt.Errorf("sources: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Events.DefaultWindow <= 0 {
		return fmt.Errorf("events.default_window must be > 0")
	}
	if c.Twitter.TimeoutSeconds <= 0 {
		return fmt.Errorf("twitter.timeout_seconds must be > 0")
	}
	if c.RSS.Count <= 0 {
		return fmt.Errorf("rss.count must be > 0")
	}
	if c.RSS.TimeoutSeconds <= 0 {
		return fmt.Errorf("rss.timeout_seconds must be > 0")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// SourceMode returns the page-serving policy.
func (c Config) SourceMode() content.SourceMode {
	return content.SourceMode(c.API.Source)
}

// Location resolves content.timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Content.Timezone)
	if err != nil {
		return nil, fmt.Errorf("content.timezone: %w", err)
	}
	return loc, nil
}

// FetchTimeout is the per-request budget for CMS calls.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// SyncInterval is the refresh period; zero disables periodic syncs.
func (c Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalMinutes) * time.Minute
}

// RequestTimeout bounds each HTTP API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}
