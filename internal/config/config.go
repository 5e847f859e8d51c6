// Package config loads the widget server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/platapay/widget"
	"gopkg.in/yaml.v3"
)

// Config holds the widget server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Embed   EmbedConfig   `yaml:"embed"`
	Logging LoggingConfig `yaml:"logging"`

	// EnvCheck lists environment variable names reported by the env check
	// endpoint. Only presence is reported, never values.
	EnvCheck []string `yaml:"env_check"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// PublicOrigin is the origin the server is reachable at by host pages,
	// such as https://platapay.ph. Loader scripts and the map frame are
	// served from it.
	PublicOrigin string `yaml:"public_origin"`

	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// EmbedConfig configures the embeddable widgets.
type EmbedConfig struct {
	// FormOrigin is the origin the registration form frame is served from.
	// Defaults to the public origin.
	FormOrigin string `yaml:"form_origin"`

	// FrameAncestors lists the origins allowed to embed the frames. Empty
	// allows any origin.
	FrameAncestors []string `yaml:"frame_ancestors"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			PublicOrigin:    "http://localhost:8080",
			ShutdownTimeout: "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML configuration at path over the defaults and applies
// environment overrides. An empty path loads only the defaults and
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PLATAPAY_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PLATAPAY_PUBLIC_ORIGIN"); v != "" {
		c.Server.PublicOrigin = v
	}
	if v := os.Getenv("PLATAPAY_FORM_ORIGIN"); v != "" {
		c.Embed.FormOrigin = v
	}
	if v := os.Getenv("PLATAPAY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PLATAPAY_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks the configuration, reporting every problem found.
func (c *Config) Validate() error {
	var errs error

	if c.Server.Addr == "" {
		errs = multierror.Append(errs, errors.New("server.addr is required"))
	}
	if _, err := widget.OriginOf(c.Server.PublicOrigin); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("server.public_origin: %v", err))
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("server.shutdown_timeout: %v", err))
	}
	if c.Embed.FormOrigin != "" {
		if _, err := widget.OriginOf(c.Embed.FormOrigin); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("embed.form_origin: %v", err))
		}
	}
	for _, ancestor := range c.Embed.FrameAncestors {
		if strings.ContainsAny(ancestor, " ;,") {
			errs = multierror.Append(errs, fmt.Errorf("embed.frame_ancestors: invalid source %q", ancestor))
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = multierror.Append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = multierror.Append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	return errs
}

// PublicOrigin returns the normalised public origin. Only valid after
// Validate succeeds.
func (c *Config) PublicOrigin() string {
	origin, _ := widget.OriginOf(c.Server.PublicOrigin)
	return origin
}

// FormOrigin returns the normalised origin of the form frame, defaulting to
// the public origin.
func (c *Config) FormOrigin() string {
	if c.Embed.FormOrigin == "" {
		return c.PublicOrigin()
	}
	origin, _ := widget.OriginOf(c.Embed.FormOrigin)
	return origin
}

// EmbedOrigin returns the origin the frame of the given variant is served
// from.
func (c *Config) EmbedOrigin(v widget.Variant) string {
	if v.SameOrigin {
		return c.PublicOrigin()
	}
	return c.FormOrigin()
}

// ShutdownTimeout returns the graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
