package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigFile is the YAML file Load looks for in the working
// directory.
const DefaultConfigFile = "tlq.yaml"

// envPrefix namespaces the environment variables read by the loader,
// e.g. TLQ_HOST, TLQ_MAX_RETRIES.
const envPrefix = "TLQ_"

// Load builds a configuration from layered sources with priority:
// 1. Environment variables (highest)
// 2. The tlq.yaml file in the working directory, when present
// 3. Built-in defaults (lowest)
func Load() (Config, error) {
	return LoadFile(DefaultConfigFile)
}

// LoadFile is Load with an explicit YAML file path. A missing file is
// not an error; the remaining layers still apply.
func LoadFile(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(envprovider.Provider(envPrefix, ".", func(s string) string {
		// TLQ_MAX_RETRIES -> max_retries
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"host":        DefaultHost,
		"port":        DefaultPort,
		"timeout":     DefaultTimeout.String(),
		"max_retries": DefaultMaxRetries,
		"retry_delay": DefaultRetryDelay.String(),
	}
}

// Validate checks a loaded configuration. The fluent builder skips
// validation on purpose: programmatic values are the caller's contract,
// while file and environment input is not trusted.
func Validate(cfg *Config) error {
	if cfg.Host == "" {
		return fmt.Errorf("host is required")
	}

	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	if cfg.RetryDelay < 0 {
		return fmt.Errorf("retry delay must not be negative")
	}

	return nil
}
