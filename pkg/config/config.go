// Package config loads client settings from defaults, an optional YAML file and
// GOFETCH_* environment variables, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jzx17/gofetch/pkg/retry"
)

// EnvPrefix is the prefix of environment variables read by Load
const EnvPrefix = "GOFETCH_"

// Config holds the client settings
type Config struct {
	// Retries is the number of attempts allowed after the first one
	Retries int `koanf:"retries" yaml:"retries" validate:"gte=0"`

	// Interval is the wait between attempts
	Interval time.Duration `koanf:"interval" yaml:"interval" validate:"gt=0"`

	// RetryNotFound also retries 404 responses
	RetryNotFound bool `koanf:"retry_not_found" yaml:"retry_not_found"`

	// NoProxy disables proxy resolution
	NoProxy bool `koanf:"no_proxy" yaml:"no_proxy"`

	// Timeout bounds a single attempt
	Timeout time.Duration `koanf:"timeout" yaml:"timeout" validate:"gt=0"`

	// Concurrency is the pool ceiling used by batch callers
	Concurrency int `koanf:"concurrency" yaml:"concurrency" validate:"gte=1"`

	// UserAgent is sent unless a request sets its own
	UserAgent string `koanf:"user_agent" yaml:"user_agent"`

	// RateLimit is the allowed attempts per second, 0 means unlimited
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit" validate:"gte=0"`

	// RateBurst is the limiter bucket size
	RateBurst int `koanf:"rate_burst" yaml:"rate_burst" validate:"gte=0"`

	Log LogConfig `koanf:"log" yaml:"log"`
}

// LogConfig holds logging preferences
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `koanf:"pretty" yaml:"pretty"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Retries:     5,
		Interval:    50 * time.Millisecond,
		Timeout:     30 * time.Second,
		Concurrency: 4,
		UserAgent:   "gofetch",
		RateBurst:   1,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// RetryConfig returns the retry budget described by the config
func (c *Config) RetryConfig() retry.Config {
	return retry.Config{
		Retries:  c.Retries,
		Interval: c.Interval,
	}
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration file at path, skipped when path is empty or missing
// 3. Default values (lowest priority)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(envprovider.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks field constraints
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func loadDefaults(k *koanf.Koanf) error {
	d := Default()
	defaults := map[string]any{
		"retries":         d.Retries,
		"interval":        d.Interval.String(),
		"retry_not_found": d.RetryNotFound,
		"no_proxy":        d.NoProxy,
		"timeout":         d.Timeout.String(),
		"concurrency":     d.Concurrency,
		"user_agent":      d.UserAgent,
		"rate_limit":      d.RateLimit,
		"rate_burst":      d.RateBurst,
		"log.level":       d.Log.Level,
		"log.pretty":      d.Log.Pretty,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// envKey maps GOFETCH_RETRY_NOT_FOUND to retry_not_found and GOFETCH_LOG_LEVEL to log.level
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "log_"); ok {
		return "log." + rest
	}
	return key
}
