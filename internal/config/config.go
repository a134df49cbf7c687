package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvAPIURL       = "HATEWATCH_API_URL"
	EnvPublicAPIURL = "HATEWATCH_PUBLIC_API_URL"
	EnvLogLevel     = "LOG_LEVEL"
)

type Server struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	// ProxyTimeout replaces WriteTimeout for /api/* so export downloads are not cut short.
	ProxyTimeout  time.Duration `yaml:"proxy_timeout"`
}

type API struct {
	BaseURL   string        `yaml:"base_url"`   // upstream HateWatch API, e.g. http://api:8000
	PublicURL string        `yaml:"public_url"` // browser-facing base for export links; empty = relative
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type Refresh struct {
	Interval     time.Duration `yaml:"interval"`
	TimelineDays int           `yaml:"timeline_days"`
	SeenTTL      time.Duration `yaml:"seen_ttl"` // how long an alert id counts as already seen
	SeenMaxKeys  int           `yaml:"seen_max_keys"`
}

type Log struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

type Config struct {
	Server  Server  `yaml:"server"`
	API     API     `yaml:"api"`
	Refresh Refresh `yaml:"refresh"`
	Log     Log     `yaml:"log"`
}

// Load reads the YAML file at path, applies environment overrides and fills
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse yaml: %w", err)
			}
		}
	}
	c.applyEnv()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPublicAPIURL)); v != "" {
		c.API.PublicURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ProxyTimeout == 0 {
		c.Server.ProxyTimeout = 5 * time.Minute
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	c.API.PublicURL = strings.TrimRight(c.API.PublicURL, "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = "hatewatch-dashboard"
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 60 * time.Second
	}
	if c.Refresh.TimelineDays == 0 {
		c.Refresh.TimelineDays = 7
	}
	if c.Refresh.SeenTTL == 0 {
		c.Refresh.SeenTTL = 24 * time.Hour
	}
	if c.Refresh.SeenMaxKeys == 0 {
		c.Refresh.SeenMaxKeys = 10000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate rejects values the dashboard cannot run with.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh.interval too short: %s", c.Refresh.Interval)
	}
	if c.Refresh.TimelineDays < 1 {
		return fmt.Errorf("refresh.timeline_days must be positive, got %d", c.Refresh.TimelineDays)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
