// Package config loads and validates application configuration.
// Precedence: defaults, then YAML file, then STATUSBAR_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STATUSBAR_"

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Log           LogConfig           `koanf:"log"`
	Refresh       RefreshConfig       `koanf:"refresh"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Hooks         HooksConfig         `koanf:"hooks"`
	Sources       SourcesConfig       `koanf:"sources"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port" validate:"required"`
	MetricsPort       string        `koanf:"metrics_port" validate:"required,nefield=Port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// RefreshConfig controls the aggregation engine.
type RefreshConfig struct {
	Interval       time.Duration `koanf:"interval" validate:"min=10s"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"min=1s"`
	SourceTimeout  time.Duration `koanf:"source_timeout" validate:"min=1s,gtefield=RequestTimeout"`
	MaxConcurrent  int           `koanf:"max_concurrent" validate:"min=1"`
	HostRateLimit  float64       `koanf:"host_rate_limit" validate:"gt=0"`
	// AllowPrivateHosts disables the SSRF guard so fetches may reach
	// loopback and RFC 1918 addresses. Intended for tests.
	AllowPrivateHosts bool `koanf:"allow_private_hosts"`
}

// NotificationsConfig controls desktop notifications.
type NotificationsConfig struct {
	Enabled bool `koanf:"enabled"`
	// Command overrides the notification binary (default: notify-send on
	// Linux, osascript on macOS). The title and body are appended as
	// arguments.
	Command string `koanf:"command"`
}

// HooksConfig controls hook script execution.
type HooksConfig struct {
	Enabled bool          `koanf:"enabled"`
	Dir     string        `koanf:"dir"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s,max=5m"`
}

// SourcesConfig points at the line-delimited source list.
type SourcesConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              "8090",
			MetricsPort:       "9094",
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 2 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Refresh: RefreshConfig{
			Interval:       5 * time.Minute,
			RequestTimeout: 15 * time.Second,
			SourceTimeout:  30 * time.Second,
			MaxConcurrent:  8,
			HostRateLimit:  4,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
		},
		Hooks: HooksConfig{
			Enabled: true,
			Dir:     home + "/.config/statusbar/hooks",
			Timeout: 10 * time.Second,
		},
		Sources: SourcesConfig{
			Path: home + "/.config/statusbar/sources.txt",
		},
	}
}

// Load reads configuration from the optional YAML file at path and the
// environment, applies it over the defaults, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := Defaults()
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// STATUSBAR_SERVER__READ_TIMEOUT -> server.read_timeout
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.ReplaceAll(key, "__", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
