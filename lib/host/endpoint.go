// Package host is the embedding surface: it wraps a coordinator.Coordinator
// behind the host command/event API, offering either poll-with-timeout or
// callback event delivery (never both on the same instance). Grounded on
// lib/embedding's functional-options Config/Option pattern and
// cmd/sam-bridge/main.go's context-scoped Start/signal-driven Stop
// lifecycle, generalized from "bridge a SAM control socket" to "bridge
// the network endpoint's command/event queue."
package host

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-netmux/netmux/lib/coordinator"
	"github.com/go-netmux/netmux/lib/errtax"
	"github.com/go-netmux/netmux/lib/netcfg"
	"github.com/go-netmux/netmux/lib/wire"
)

// EventCallback receives one host-visible event at a time, invoked on
// the network thread. Per the host bridge threading contract it must be
// non-blocking.
type EventCallback func(Event)

// Endpoint is the embeddable handle a host program drives with Open,
// Connect, Send, Disconnect, and Stop, and observes via Poll or a
// callback.
type Endpoint struct {
	coord *coordinator.Coordinator
	log   *logrus.Logger

	callback EventCallback
	stopPump chan struct{}
}

// New constructs an Endpoint. It does not bind any sockets until Open is
// called.
func New(opts ...Option) (*Endpoint, error) {
	o := &options{cfg: netcfg.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Endpoint{
		coord: coordinator.New(o.cfg),
		log:   o.cfg.Logger,
	}

	if o.callback != nil {
		e.callback = o.callback
		e.stopPump = make(chan struct{})
		go e.pump()
	}

	return e, nil
}

// Open binds both transports on (host, port).
func (e *Endpoint) Open(host string, port int) error {
	return e.coord.Submit(coordinator.Command{Kind: coordinator.Open, Host: host, Port: port})
}

// Connect initiates an outbound stream connection. kind must be
// wire.Stream; wire.Datagram is rejected with Unsupported.
func (e *Endpoint) Connect(kind wire.TransportKind, peerHost string, peerPort uint16) error {
	peer, err := resolvePeer(peerHost, peerPort)
	if err != nil {
		return err
	}
	return e.coord.Submit(coordinator.Command{Kind: coordinator.Connect, TransportKind: kind, Peer: peer})
}

// Disconnect stops the stream session for (kind, host, port). kind=Datagram
// is rejected with Unsupported.
func (e *Endpoint) Disconnect(kind wire.TransportKind, peerHost string, peerPort uint16) error {
	peer, err := resolvePeer(peerHost, peerPort)
	if err != nil {
		return err
	}
	return e.coord.Submit(coordinator.Command{Kind: coordinator.Disconnect, TransportKind: kind, Peer: peer})
}

// Send wraps payload in an Encapsulated envelope tagged protocolID and
// forwards it to (kind, host, port).
func (e *Endpoint) Send(kind wire.TransportKind, peerHost string, peerPort uint16, protocolID uint16, payload []byte) error {
	peer, err := resolvePeer(peerHost, peerPort)
	if err != nil {
		return err
	}
	return e.coord.Submit(coordinator.Command{
		Kind:          coordinator.Send,
		TransportKind: kind,
		Peer:          peer,
		ProtocolID:    protocolID,
		Payload:       payload,
	})
}

// Stop initiates shutdown of both transports.
func (e *Endpoint) Stop() error {
	err := e.coord.Submit(coordinator.Command{Kind: coordinator.Stop})
	if e.stopPump != nil {
		close(e.stopPump)
	}
	return err
}

// Running reports whether the endpoint has completed Open and has not
// yet gone terminal.
func (e *Endpoint) Running() bool {
	return e.coord.Running()
}

// Poll returns the next event, blocking up to timeoutMS. timeoutMS <= 0
// blocks indefinitely. Returns ok=false if no event arrived before the
// deadline. Poll must not be called on an Endpoint configured with
// WithEventCallback.
func (e *Endpoint) Poll(timeoutMS int64) (Event, bool) {
	if timeoutMS <= 0 {
		ev := <-e.coord.Events()
		return translate(ev), true
	}
	select {
	case ev := <-e.coord.Events():
		return translate(ev), true
	case <-time.After(time.Duration(timeoutMS) * time.Millisecond):
		return Event{}, false
	}
}

// pump drains the coordinator's event queue and invokes the registered
// callback for each event, until Stop closes stopPump. A panic from the
// callback is caught and logged rather than allowed to crash the network
// thread: per spec.md §7, a crash of the host callback must not crash the
// endpoint, and the event it panicked on is still considered delivered.
func (e *Endpoint) pump() {
	for {
		select {
		case ev := <-e.coord.Events():
			e.deliver(translate(ev))
		case <-e.stopPump:
			return
		}
	}
}

// deliver invokes the callback for a single event behind its own recover
// scope, so a panic on one event can't prevent pump's loop from picking up
// the next one.
func (e *Endpoint) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			err := errtax.New(errtax.HostCallback, "event callback panicked", "panic", r)
			e.log.WithFields(logrus.Fields{"severity": errtax.SeverityOf(errtax.HostCallback).String(), "error": err}).
				Error("recovered panic in host event callback")
		}
	}()
	e.callback(ev)
}

func resolvePeer(host string, port uint16) (wire.PeerAddress, error) {
	ipAddr, err := net.ResolveIPAddr("ip", host)
	if err != nil {
		return wire.PeerAddress{}, errtax.Wrap(errtax.BindFailure, err, "failed to resolve peer host", "host", host)
	}
	return wire.PeerAddress{IP: ipAddr.IP, Port: port}, nil
}
