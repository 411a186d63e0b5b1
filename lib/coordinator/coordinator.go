// Package coordinator implements the network endpoint's single authority
// over state: it owns at most one stream-transport handle, at most one
// datagram-transport handle, the session table, and the host-visible
// event queue. Grounded on lib/embedding's dependency-bundle and
// Start/Stop/Wait lifecycle, generalized from "bundle of SAM handler
// dependencies" to "the one actor owning both transport handles, the
// session table, and the event queue." The teacher's string-keyed
// handler.Router is deliberately not reused here: the host API is a
// fixed four-command enum, not an open-ended text protocol, so a typed
// switch on Command is the better fit.
package coordinator

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/go-netmux/netmux/lib/errtax"
	"github.com/go-netmux/netmux/lib/ievent"
	"github.com/go-netmux/netmux/lib/netcfg"
	"github.com/go-netmux/netmux/lib/session"
	"github.com/go-netmux/netmux/lib/transport/datagram"
	"github.com/go-netmux/netmux/lib/transport/stream"
	"github.com/go-netmux/netmux/lib/wire"
)

// runState tracks the coordinator's own lifecycle, distinct from the
// per-transport and per-session states.
type runState int32

const (
	notOpen runState = iota
	running
	stopping
	terminal
)

// Coordinator is the endpoint's single actor. Its command and internal
// mailboxes are only ever drained by its own run goroutine; the session
// table and transport handles are touched from nowhere else.
type Coordinator struct {
	cfg *netcfg.Config
	log *logrus.Logger

	streamTransport   *stream.Listener
	datagramTransport *datagram.Transport
	table             *session.Table

	commands chan Command
	internal chan ievent.Event
	out      chan Event

	state atomic.Int32
	done  chan struct{}
}

// New constructs a Coordinator and starts its run loop. The coordinator
// accepts commands immediately; Open must be the first one, per the
// host contract.
func New(cfg *netcfg.Config) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		log:      cfg.Logger,
		table:    session.NewTable(),
		commands: make(chan Command, 16),
		internal: make(chan ievent.Event, 256),
		out:      make(chan Event, 256),
		done:     make(chan struct{}),
	}
	c.state.Store(int32(notOpen))
	go c.run()
	return c
}

// Submit sends cmd to the coordinator and blocks for its acceptance
// result. Returns the command's own Result channel reply.
func (c *Coordinator) Submit(cmd Command) error {
	if cmd.Result == nil {
		cmd.Result = make(chan error, 1)
	}
	c.commands <- cmd
	return <-cmd.Result
}

// Events returns the host-visible event queue. Single-consumer: only one
// goroutine should ever receive from it.
func (c *Coordinator) Events() <-chan Event {
	return c.out
}

// Running reports whether the coordinator has completed Open and has not
// yet gone terminal.
func (c *Coordinator) Running() bool {
	s := runState(c.state.Load())
	return s == running || s == stopping
}

// Done is closed once the coordinator reaches Terminal and has emitted Exiting.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

func (c *Coordinator) run() {
	for {
		select {
		case cmd := <-c.commands:
			cmd.Result <- c.handleCommand(cmd)
		case ev := <-c.internal:
			c.handleInternalEvent(ev)
		}
	}
}

func (c *Coordinator) handleCommand(cmd Command) error {
	switch cmd.Kind {
	case Open:
		return c.handleOpen(cmd)
	case Connect:
		return c.handleConnect(cmd)
	case Disconnect:
		return c.handleDisconnect(cmd)
	case Send:
		return c.handleSend(cmd)
	case Stop:
		return c.handleStop()
	default:
		return errtax.New(errtax.Unsupported, "unknown command kind")
	}
}

func (c *Coordinator) handleOpen(cmd Command) error {
	if runState(c.state.Load()) != notOpen {
		return nil // idempotent: already open
	}

	c.cfg.Host = cmd.Host
	c.cfg.Port = cmd.Port

	st, err := stream.Listen(c.cfg, c.internal, c.log)
	if err != nil {
		return err
	}
	dg, err := datagram.Listen(c.cfg, c.internal, c.log)
	if err != nil {
		st.Stop()
		return err
	}

	c.streamTransport = st
	c.datagramTransport = dg
	c.state.Store(int32(running))
	return nil
}

func (c *Coordinator) handleConnect(cmd Command) error {
	if cmd.TransportKind != wire.Stream {
		return errtax.New(errtax.Unsupported, "connect is only valid for the stream transport")
	}
	if c.streamTransport == nil {
		return errtax.New(errtax.NotRunning, "stream transport is not open")
	}
	go func() {
		if _, err := stream.Connect(context.Background(), cmd.Peer, c.cfg, c.internal, c.log); err != nil {
			c.log.WithFields(logrus.Fields{"peer": cmd.Peer.String(), "error": err}).
				Error("outbound stream connect failed")
			// No Connected was ever emitted for this peer, so there is no
			// session to report a Disconnected for; the host instead
			// learns of the failure via a Log event.
			c.out <- Event{Kind: Log, Level: int(errtax.SeverityOf(errtax.BindFailure)), Text: err.Error()}
		}
	}()
	return nil
}

func (c *Coordinator) handleDisconnect(cmd Command) error {
	if cmd.TransportKind == wire.Datagram {
		return errtax.New(errtax.Unsupported, "disconnect is not meaningful for the datagram transport")
	}
	key := wire.SessionKey{Kind: cmd.TransportKind, Peer: cmd.Peer}
	h, ok := c.table.Get(key)
	if !ok {
		return errtax.New(errtax.NotConnected, "no session for peer", "peer", cmd.Peer.String())
	}
	h.Stream.Stop()
	return nil
}

func (c *Coordinator) handleSend(cmd Command) error {
	env := wire.Encapsulated(cmd.ProtocolID, cmd.Payload)

	if cmd.TransportKind == wire.Datagram {
		if c.datagramTransport == nil {
			return errtax.New(errtax.NotRunning, "datagram transport is not open")
		}
		return c.datagramTransport.Sender().SendTo(cmd.Peer, env)
	}

	key := wire.SessionKey{Kind: cmd.TransportKind, Peer: cmd.Peer}
	h, ok := c.table.Get(key)
	if !ok {
		return errtax.New(errtax.NotConnected, "no session for peer", "peer", cmd.Peer.String())
	}
	h.Stream.Write(env)
	return nil
}

func (c *Coordinator) handleStop() error {
	switch runState(c.state.Load()) {
	case terminal, stopping:
		return nil // idempotent: already stopping or stopped
	case notOpen:
		c.state.Store(int32(terminal))
		c.out <- Event{Kind: Exiting}
		close(c.done)
		return nil
	}
	c.state.Store(int32(stopping))
	if c.streamTransport != nil {
		go c.streamTransport.Stop()
	}
	if c.datagramTransport != nil {
		go c.datagramTransport.Stop()
	}
	return nil
}

func (c *Coordinator) handleInternalEvent(ev ievent.Event) {
	switch ev.Kind {
	case ievent.Listening:
		c.out <- Event{Kind: Started, TransportKind: ev.TransportKind, Addr: ev.Addr}

	case ievent.Connected:
		// Only stream sessions ever emit this: the datagram transport is
		// fire-and-forget and stateless, per spec's datagram scenario —
		// no Connected/Disconnected pair exists for a UDP peer.
		key := wire.SessionKey{Kind: ev.TransportKind, Peer: ev.Addr}
		h, _ := ev.Handle.(session.Handle)
		c.table.Add(key, h)
		c.out <- Event{Kind: Connected, TransportKind: ev.TransportKind, Addr: ev.Addr, Initiator: ev.Initiator}

	case ievent.Received:
		if ev.Envelope.IsEncapsulated() {
			c.out <- Event{
				Kind:          Message,
				TransportKind: ev.TransportKind,
				Addr:          ev.Addr,
				ProtocolID:    ev.Envelope.ProtocolID,
				Payload:       ev.Envelope.Payload,
			}
			return
		}
		c.terminatePeer(ev.TransportKind, ev.Addr)

	case ievent.Disconnected:
		key := wire.SessionKey{Kind: ev.TransportKind, Peer: ev.Addr}
		c.table.Remove(key)
		c.out <- Event{Kind: Disconnected, TransportKind: ev.TransportKind, Addr: ev.Addr}

	case ievent.Stopped:
		switch ev.TransportKind {
		case wire.Stream:
			c.streamTransport = nil
		case wire.Datagram:
			c.datagramTransport = nil
		}
		c.out <- Event{Kind: Stopped, TransportKind: ev.TransportKind, Addr: ev.Addr}

		if c.streamTransport == nil && c.datagramTransport == nil && runState(c.state.Load()) == stopping {
			c.state.Store(int32(terminal))
			c.out <- Event{Kind: Exiting}
			close(c.done)
		}
	}
}

// terminatePeer implements the coordinator's policy for an in-band
// Disconnect envelope: stop the matching stream session. A datagram
// peer never has a table entry (it has no session of its own), so this
// is a no-op for that kind — the "tolerate and ignore" policy spec.md
// names for a Disconnect envelope with nothing to terminate.
func (c *Coordinator) terminatePeer(kind wire.TransportKind, peer wire.PeerAddress) {
	key := wire.SessionKey{Kind: kind, Peer: peer}
	h, ok := c.table.Get(key)
	if !ok {
		return
	}
	if kind == wire.Stream {
		h.Stream.Stop()
	}
}
