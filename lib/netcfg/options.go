package netcfg

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option is a functional option for configuring a Config.
type Option func(*Config)

// WithHost sets the bind address shared by both transports.
func WithHost(host string) Option {
	return func(c *Config) { c.Host = host }
}

// WithPort sets the bind port shared by both transports.
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// WithKeepAliveIdle sets the stream transport's keep-alive probe idle time.
func WithKeepAliveIdle(d time.Duration) Option {
	return func(c *Config) { c.Timeouts.KeepAliveIdle = d }
}

// WithConnectTimeout bounds outbound stream Connect attempts.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeouts.Connect = d }
}

// WithMaxFrameLength bounds a single stream frame body.
func WithMaxFrameLength(n int) Option {
	return func(c *Config) { c.Limits.MaxFrameLength = n }
}

// WithDatagramEgressCapacity sets the datagram transport's egress buffer size.
func WithDatagramEgressCapacity(n int) Option {
	return func(c *Config) { c.Limits.DatagramEgressCapacity = n }
}

// WithPeerCacheSize bounds the stream transport's resolved-peer-address cache.
func WithPeerCacheSize(n int) Option {
	return func(c *Config) { c.Limits.PeerCacheSize = n }
}

// WithLogger supplies a custom logger instance.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithDebug enables debug-level logging when no custom logger is supplied.
func WithDebug(enabled bool) Option {
	return func(c *Config) { c.Debug = enabled }
}

// New builds a Config from DefaultConfig with the given options applied
// and validated.
func New(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
