// Package netcfg holds the endpoint's bootstrap configuration: the
// addresses to bind, keep-alive and channel-capacity tuning, and the
// logger the coordinator and its transports should use. It mirrors the
// teacher's embedding.Config / bridge.Config split, collapsed into a
// single layered Config plus functional options.
package netcfg

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Default bootstrap values.
const (
	// DefaultHost is the wildcard bind address.
	DefaultHost = "0.0.0.0"

	// DefaultPort is used when the host does not request a specific port.
	// 0 means "let the OS pick an ephemeral port."
	DefaultPort = 0

	// DefaultKeepAliveIdle is the probe idle time enabled on stream
	// sessions per the session lifecycle's keep-alive contract.
	DefaultKeepAliveIdle = 3 * time.Second

	// DefaultConnectTimeout bounds an outbound stream Connect attempt.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultMaxFrameLength bounds a single stream frame body, independent
	// of the wire format's 4-byte (2^32-1) length-prefix ceiling — this is
	// an operational guard against a peer claiming an implausible length.
	DefaultMaxFrameLength = 16 * 1024 * 1024

	// DefaultDatagramEgressCapacity is the buffered channel size for the
	// datagram transport's egress path (see Open Questions in DESIGN.md:
	// the spec leaves the egress channel's boundedness as an
	// implementation choice; this endpoint chooses bounded).
	DefaultDatagramEgressCapacity = 1024

	// DefaultPeerCacheSize bounds the stream transport's resolved-address
	// LRU (see DESIGN.md's golang-lru wiring).
	DefaultPeerCacheSize = 256
)

// Timeouts groups the endpoint's time-bounded operations.
type Timeouts struct {
	// Connect bounds an outbound stream connection attempt.
	Connect time.Duration

	// KeepAliveIdle is the TCP keep-alive probe idle time set on accepted
	// and dialed stream sockets.
	KeepAliveIdle time.Duration
}

// Limits groups the endpoint's size and capacity bounds.
type Limits struct {
	// MaxFrameLength is the largest stream frame body this endpoint will
	// decode before giving up and closing the session.
	MaxFrameLength int

	// DatagramEgressCapacity is the buffer size of the datagram
	// transport's outbound channel.
	DatagramEgressCapacity int

	// PeerCacheSize bounds the stream transport's resolved-peer-address cache.
	PeerCacheSize int
}

// Config is the complete bootstrap configuration for a network endpoint.
type Config struct {
	// Host is the address both transports bind to.
	Host string

	// Port is the port both transports bind to; 0 lets the OS choose.
	Port int

	Timeouts Timeouts
	Limits   Limits

	// Logger is the structured logger the coordinator and its transports
	// log through. If nil, Validate supplies one.
	Logger *logrus.Logger

	// Debug enables debug-level logging.
	Debug bool
}

// DefaultConfig returns a Config with sensible defaults. All fields can be
// overridden via functional Options.
func DefaultConfig() *Config {
	return &Config{
		Host: DefaultHost,
		Port: DefaultPort,
		Timeouts: Timeouts{
			Connect:       DefaultConnectTimeout,
			KeepAliveIdle: DefaultKeepAliveIdle,
		},
		Limits: Limits{
			MaxFrameLength:         DefaultMaxFrameLength,
			DatagramEgressCapacity: DefaultDatagramEgressCapacity,
			PeerCacheSize:          DefaultPeerCacheSize,
		},
		Debug: false,
	}
}

// Validate checks that the configuration is usable, filling in a default
// logger if none was supplied.
func (c *Config) Validate() error {
	if c.Host == "" {
		return ErrMissingHost
	}
	if c.Port < 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Timeouts.KeepAliveIdle < 0 {
		return ErrInvalidTimeout
	}
	if c.Limits.MaxFrameLength <= 0 {
		return ErrInvalidLimit
	}
	if c.Limits.DatagramEgressCapacity <= 0 {
		return ErrInvalidLimit
	}
	if c.Logger == nil {
		c.Logger = newDefaultLogger(c.Debug)
	}
	return nil
}

func newDefaultLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
