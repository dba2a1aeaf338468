package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  request_timeout: 20s
auth:
  enabled: true
  api_key: secret
audit:
  user_agent: test-agent
  timeout: 3s
  max_html_bytes: 1000
  blocked_domains: ["*.internal.example", "bad.example"]
store:
  ttl: 1m
  capacity: 10
ratelimit:
  capacity: 2
  refill_per_second: 1.5
publisher:
  backend: PubSub
  project_id: proj
  topic: audits
logging:
  development: false
  level: warn
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.RequestTimeout != 20*time.Second {
		t.Fatalf("expected server overrides, got %+v", cfg.Server)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.Audit.UserAgent != "test-agent" || cfg.Audit.Timeout != 3*time.Second || cfg.Audit.MaxHTMLBytes != 1000 {
		t.Fatalf("expected audit overrides to apply: %+v", cfg.Audit)
	}
	if len(cfg.Audit.BlockedDomains) != 2 || cfg.Audit.BlockedDomains[0] != "*.internal.example" {
		t.Fatalf("expected blocked domains to load: %v", cfg.Audit.BlockedDomains)
	}
	if cfg.Store.TTL != time.Minute || cfg.Store.Capacity != 10 {
		t.Fatalf("expected store overrides: %+v", cfg.Store)
	}
	if cfg.RateLimit.Capacity != 2 || cfg.RateLimit.RefillPerSecond != 1.5 {
		t.Fatalf("expected ratelimit overrides: %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.IdleTTL != 10*time.Minute {
		t.Fatalf("expected default idle ttl, got %v", cfg.RateLimit.IdleTTL)
	}
	if cfg.Publisher.Backend != PublisherPubSub {
		t.Fatalf("expected backend to be normalized, got %q", cfg.Publisher.Backend)
	}
	if cfg.Logging.Development || cfg.Logging.Level != "warn" {
		t.Fatalf("expected logging overrides: %+v", cfg.Logging)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Audit.Timeout != 6*time.Second || cfg.Audit.MaxHTMLBytes != 2_000_000 {
		t.Fatalf("unexpected audit defaults: %+v", cfg.Audit)
	}
	if !strings.HasPrefix(cfg.Audit.UserAgent, "SitePulseBot/") {
		t.Fatalf("unexpected user agent %q", cfg.Audit.UserAgent)
	}
	if cfg.Store.TTL != 10*time.Minute || cfg.Store.Capacity != 400 {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.RateLimit.Capacity != 8 || cfg.RateLimit.RefillPerSecond != 0.5 {
		t.Fatalf("unexpected ratelimit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Publisher.Backend != PublisherNone {
		t.Fatalf("expected publisher backend none, got %q", cfg.Publisher.Backend)
	}
	if cfg.Telemetry.ServiceName != "sitepulse" || cfg.Telemetry.TracingEnabled {
		t.Fatalf("unexpected telemetry defaults: %+v", cfg.Telemetry)
	}
	if !cfg.Logging.Development {
		t.Fatal("expected development logging by default")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SITEPULSE_SERVER_PORT", "7070")
	t.Setenv("SITEPULSE_AUDIT_ALLOW_PRIVATE_NETWORKS", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if !cfg.Audit.AllowPrivateNetworks {
		t.Fatal("expected allow_private_networks from env")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080, RequestTimeout: 30 * time.Second},
			Audit:     AuditConfig{Timeout: 6 * time.Second, MaxHTMLBytes: 100},
			Store:     StoreConfig{TTL: time.Minute, Capacity: 1},
			RateLimit: RateLimitConfig{Capacity: 1, RefillPerSecond: 1},
			Publisher: PublisherConfig{Backend: PublisherNone},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "auth key", mutate: func(c *Config) { c.Auth.Enabled = true }, wantErr: "auth.api_key"},
		{name: "audit timeout", mutate: func(c *Config) { c.Audit.Timeout = 0 }, wantErr: "audit.timeout"},
		{name: "audit timeout exceeds request", mutate: func(c *Config) { c.Audit.Timeout = time.Minute }, wantErr: "shorter than"},
		{name: "max bytes", mutate: func(c *Config) { c.Audit.MaxHTMLBytes = 0 }, wantErr: "audit.max_html_bytes"},
		{name: "store capacity", mutate: func(c *Config) { c.Store.Capacity = 0 }, wantErr: "store.capacity"},
		{name: "refill", mutate: func(c *Config) { c.RateLimit.RefillPerSecond = 0 }, wantErr: "ratelimit.refill_per_second"},
		{name: "pubsub needs project", mutate: func(c *Config) { c.Publisher.Backend = PublisherPubSub }, wantErr: "publisher.project_id"},
		{name: "unknown backend", mutate: func(c *Config) { c.Publisher.Backend = "kafka" }, wantErr: "publisher.backend"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
