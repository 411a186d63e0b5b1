package host

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-netmux/netmux/lib/netcfg"
)

// options is the Endpoint's internal option-application target: process
// bootstrap config plus the event-delivery mode, mirrored from the
// teacher's embedding.Option/Config split.
type options struct {
	cfg      *netcfg.Config
	callback EventCallback
}

// Option configures an Endpoint at construction time.
type Option func(*options)

// WithKeepAliveIdle overrides the stream session keep-alive probe idle time.
func WithKeepAliveIdle(d time.Duration) Option {
	return func(o *options) { o.cfg.Timeouts.KeepAliveIdle = d }
}

// WithConnectTimeout overrides the outbound stream Connect deadline.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.Timeouts.Connect = d }
}

// WithMaxFrameLength overrides the stream decoder's frame-size guard.
func WithMaxFrameLength(n int) Option {
	return func(o *options) { o.cfg.Limits.MaxFrameLength = n }
}

// WithDatagramEgressCapacity overrides the datagram transport's bounded
// egress channel size.
func WithDatagramEgressCapacity(n int) Option {
	return func(o *options) { o.cfg.Limits.DatagramEgressCapacity = n }
}

// WithLogger sets the logger the coordinator and its transports use.
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) { o.cfg.Logger = log }
}

// WithDebug enables debug-level logging on the default logger.
func WithDebug(enabled bool) Option {
	return func(o *options) { o.cfg.Debug = enabled }
}

// WithEventCallback switches the Endpoint to callback delivery: every
// event is delivered to fn on the network thread instead of being queued
// for Poll. Mutually exclusive with Poll on the same instance — per the
// host bridge threading contract, fn must not block.
func WithEventCallback(fn EventCallback) Option {
	return func(o *options) { o.callback = fn }
}
