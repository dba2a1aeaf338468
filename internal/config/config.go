// Package config loads and validates SitePulse configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Publisher backends.
const (
	PublisherNone   = "none"
	PublisherMemory = "memory"
	PublisherPubSub = "pubsub"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Store     StoreConfig     `mapstructure:"store"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// AuditConfig governs URL admission and page retrieval.
type AuditConfig struct {
	UserAgent            string        `mapstructure:"user_agent"`
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxHTMLBytes         int           `mapstructure:"max_html_bytes"`
	BlockedDomains       []string      `mapstructure:"blocked_domains"`
	AllowPrivateNetworks bool          `mapstructure:"allow_private_networks"`
}

// StoreConfig sizes the short-lived report cache.
type StoreConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Capacity        int           `mapstructure:"capacity"`
	RefillPerSecond float64       `mapstructure:"refill_per_second"`
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
}

// PublisherConfig selects where audit-completed events go.
type PublisherConfig struct {
	Backend   string `mapstructure:"backend"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// TelemetryConfig toggles tracing.
type TelemetryConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment. With an empty path it looks for
// sitepulse.yaml in the working directory, /etc/sitepulse and $HOME/.sitepulse;
// a missing file there is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SITEPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sitepulse")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sitepulse/")
		v.AddConfigPath("$HOME/.sitepulse")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Publisher.Backend = strings.ToLower(strings.TrimSpace(cfg.Publisher.Backend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("audit.user_agent", "SitePulseBot/0.1 (+https://sitepulse.app)")
	v.SetDefault("audit.timeout", 6*time.Second)
	v.SetDefault("audit.max_html_bytes", 2_000_000)
	v.SetDefault("audit.blocked_domains", []string{})
	v.SetDefault("audit.allow_private_networks", false)
	v.SetDefault("store.ttl", 10*time.Minute)
	v.SetDefault("store.capacity", 400)
	v.SetDefault("ratelimit.capacity", 8)
	v.SetDefault("ratelimit.refill_per_second", 0.5)
	v.SetDefault("ratelimit.idle_ttl", 10*time.Minute)
	v.SetDefault("publisher.backend", PublisherNone)
	v.SetDefault("publisher.project_id", "")
	v.SetDefault("publisher.topic", "")
	v.SetDefault("telemetry.service_name", "sitepulse")
	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Audit.Timeout <= 0 {
		return fmt.Errorf("audit.timeout must be > 0")
	}
	if c.Audit.Timeout >= c.Server.RequestTimeout {
		return fmt.Errorf("audit.timeout must be shorter than server.request_timeout")
	}
	if c.Audit.MaxHTMLBytes <= 0 {
		return fmt.Errorf("audit.max_html_bytes must be > 0")
	}
	if c.Store.TTL <= 0 {
		return fmt.Errorf("store.ttl must be > 0")
	}
	if c.Store.Capacity <= 0 {
		return fmt.Errorf("store.capacity must be > 0")
	}
	if c.RateLimit.Capacity <= 0 {
		return fmt.Errorf("ratelimit.capacity must be > 0")
	}
	if c.RateLimit.RefillPerSecond <= 0 {
		return fmt.Errorf("ratelimit.refill_per_second must be > 0")
	}
	switch c.Publisher.Backend {
	case PublisherNone, PublisherMemory:
	case PublisherPubSub:
		if c.Publisher.ProjectID == "" || c.Publisher.Topic == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic must be set for the pubsub backend")
		}
	default:
		return fmt.Errorf("publisher.backend must be one of none, memory, pubsub")
	}
	return nil
}
