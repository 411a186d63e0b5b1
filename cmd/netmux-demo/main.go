// Command netmux-demo is a minimal embedding host for the network
// endpoint: it opens the endpoint on a host:port, optionally connects
// out to a second host:port, and logs every event until told to stop.
// Grounded on cmd/sam-bridge/main.go's flag/environment layering, logrus
// setup, and signal-driven shutdown.
//
// Usage:
//
//	netmux-demo host:port [host:port]
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/go-netmux/netmux/lib/host"
	"github.com/go-netmux/netmux/lib/netcfg"
	"github.com/go-netmux/netmux/lib/wire"
)

func main() {
	os.Exit(run())
}

func run() int {
	loader := netcfg.NewLoader()
	if err := loader.Flags().Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	args := loader.Flags().Args()
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(os.Stderr, "usage: netmux-demo host:port [host:port]")
		return 1
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logrus.New()
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	bindHost, bindPort, err := splitHostPort(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ep, err := host.New(
		host.WithLogger(log),
		host.WithKeepAliveIdle(cfg.Timeouts.KeepAliveIdle),
		host.WithConnectTimeout(cfg.Timeouts.Connect),
		host.WithMaxFrameLength(cfg.Limits.MaxFrameLength),
		host.WithDatagramEgressCapacity(cfg.Limits.DatagramEgressCapacity),
		host.WithDebug(cfg.Debug),
	)
	if err != nil {
		log.WithError(err).Error("failed to construct endpoint")
		return 1
	}

	if err := ep.Open(bindHost, bindPort); err != nil {
		log.WithError(err).Error("failed to open endpoint")
		return 1
	}

	if len(args) == 2 {
		peerHost, peerPort, err := splitHostPort(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := ep.Connect(wire.Stream, peerHost, uint16(peerPort)); err != nil {
			log.WithError(err).Error("failed to initiate outbound connection")
			return 1
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		_ = ep.Stop()
	}()

	logEvents(log, ep)
	return 0
}

// logEvents drains the endpoint's event queue and logs each one until
// the endpoint reports Exiting.
func logEvents(log *logrus.Logger, ep *host.Endpoint) {
	for {
		ev, ok := ep.Poll(1000)
		if !ok {
			continue
		}
		fields := logrus.Fields{
			"tag":       ev.Tag,
			"transport": ev.TransportKind,
			"host":      ev.Host,
			"port":      ev.Port,
		}
		switch ev.Tag {
		case host.TagExiting:
			log.WithFields(fields).Info("endpoint exiting")
			return
		case host.TagMessage:
			fields["protocol_id"] = ev.ProtocolID
			fields["length"] = len(ev.Payload)
			log.WithFields(fields).Info("message received")
		case host.TagLog:
			log.WithField("text", ev.Text).Info("endpoint log")
		default:
			log.WithFields(fields).Info("event")
		}
	}
}

func splitHostPort(hostport string) (string, int, error) {
	h, p, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", 0, fmt.Errorf("invalid host:port %q: %w", hostport, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in %q", hostport)
	}
	return h, port, nil
}
