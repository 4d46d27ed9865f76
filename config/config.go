// Package config holds the immutable client settings bundle and the ways
// to produce one: a fluent builder with fixed defaults, and layered
// loading from YAML files and environment variables.
package config

import (
	"net"
	"strconv"
	"time"
)

// Default values used by the builder and the loader.
const (
	DefaultHost       = "localhost"
	DefaultPort       = 1337
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 100 * time.Millisecond
)

// Config is the immutable settings bundle for a TLQ client. Build a new
// one to change any field.
type Config struct {
	// Host is the hostname or IP address of the TLQ server.
	Host string `koanf:"host"`
	// Port is the TCP port of the TLQ server.
	Port uint16 `koanf:"port"`
	// Timeout bounds the connect step of each request attempt.
	Timeout time.Duration `koanf:"timeout"`
	// MaxRetries is the number of re-attempts after the first failure.
	MaxRetries uint `koanf:"max_retries"`
	// RetryDelay is the backoff base delay between attempts.
	RetryDelay time.Duration `koanf:"retry_delay"`
}

// Default returns a fully usable configuration with all defaults applied.
func Default() Config {
	return Config{
		Host:       DefaultHost,
		Port:       DefaultPort,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// Addr renders the host:port dial target.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Builder provides a fluent interface for assembling a Config. The zero
// of every knob is the documented default, so an empty builder yields a
// usable configuration.
type Builder struct {
	config Config
}

// NewBuilder creates a builder preloaded with defaults.
func NewBuilder() *Builder {
	return &Builder{config: Default()}
}

// WithHost sets the server hostname
func (b *Builder) WithHost(host string) *Builder {
	b.config.Host = host
	return b
}

// WithPort sets the server port
func (b *Builder) WithPort(port uint16) *Builder {
	b.config.Port = port
	return b
}

// WithTimeout sets the per-request connect timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithTimeoutMillis sets the per-request connect timeout in milliseconds
func (b *Builder) WithTimeoutMillis(ms int64) *Builder {
	b.config.Timeout = time.Duration(ms) * time.Millisecond
	return b
}

// WithMaxRetries sets the retry budget
func (b *Builder) WithMaxRetries(retries uint) *Builder {
	b.config.MaxRetries = retries
	return b
}

// WithRetryDelay sets the backoff base delay
func (b *Builder) WithRetryDelay(delay time.Duration) *Builder {
	b.config.RetryDelay = delay
	return b
}

// WithRetryDelayMillis sets the backoff base delay in milliseconds
func (b *Builder) WithRetryDelayMillis(ms int64) *Builder {
	b.config.RetryDelay = time.Duration(ms) * time.Millisecond
	return b
}

// Build returns the assembled configuration by value; further builder
// mutations do not affect it.
func (b *Builder) Build() Config {
	return b.config
}
