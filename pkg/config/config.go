package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

type Config struct {
	// Token is the YNAB personal access token. It is only read from the
	// environment, never from the config file.
	Token string `yaml:"-"`

	Transport       string          `yaml:"transport"`
	Port            int             `yaml:"port"`
	LogLevel        string          `yaml:"log_level"`
	APIURL          string          `yaml:"api_url"`
	HTTPTimeout     time.Duration   `yaml:"http_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	MetricsExporter string          `yaml:"metrics_exporter"`
}

func defaults() *Config {
	return &Config{
		Transport:   TransportStdio,
		Port:        8080,
		LogLevel:    "info",
		APIURL:      "https://api.ynab.com/v1",
		HTTPTimeout: 30 * time.Second,
		RateLimit: RateLimitConfig{
			MaxRequests: 200,
			Window:      time.Hour,
		},
		MetricsExporter: "otlp",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by YNAB_MCP_CONFIG, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("YNAB_MCP_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	var errs []error
	cfg.Token = os.Getenv("YNAB_TOKEN")
	if cfg.Token == "" {
		errs = append(errs, fmt.Errorf("YNAB_TOKEN environment variable is required"))
	}

	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		cfg.Transport = strings.ToLower(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		} else {
			errs = append(errs, fmt.Errorf("PORT: %w", err))
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("YNAB_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("YNAB_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTPTimeout = d
		} else {
			errs = append(errs, fmt.Errorf("YNAB_HTTP_TIMEOUT: %w", err))
		}
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.MaxRequests = n
		} else {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX: %w", err))
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimit.Window = d
		} else {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err))
		}
	}
	if v := os.Getenv("METRICS_EXPORTER"); v != "" {
		cfg.MetricsExporter = strings.ToLower(v)
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() []error {
	var errs []error
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport))
	}
	if c.Port < 1 || c.Port > 65534 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65534, got %d", c.Port))
	}
	if u, err := url.ParseRequestURI(c.APIURL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url %q is not an absolute URL", c.APIURL))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_requests must be positive, got %d", c.RateLimit.MaxRequests))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window))
	}
	switch c.MetricsExporter {
	case "otlp", "prometheus", "none":
	default:
		errs = append(errs, fmt.Errorf("metrics_exporter must be otlp, prometheus or none, got %q", c.MetricsExporter))
	}
	return errs
}

// HealthAddr is the listen address of the health and metrics server.
func (c *Config) HealthAddr() string {
	return fmt.Sprintf(":%d", c.Port+1)
}

func (c *Config) MCPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
