// Package datagram implements the connectionless transport: one bound
// UDP socket split into an ingress loop (parse-and-deliver) and an
// egress loop (serialize-and-send). Datagram traffic is fire-and-forget
// and stateless: no Connected/Disconnected pair is ever emitted for a
// peer address, only Listening, Stopped, and Received. Directly grounded
// on the retrieval pack's go-sam-bridge UDPListener (net.ListenPacket, a
// context-scoped receiveLoop, sync.WaitGroup shutdown,
// silent-drop-on-parse-failure) for its loop shape, and on
// original_source/net/src/transport/udp.rs's UdpTransport for the set of
// events it is allowed to emit — it never constructs a session-lifecycle
// event for a UDP peer, only Listening/Stopped/Received.
package datagram

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/go-netmux/netmux/lib/errtax"
	"github.com/go-netmux/netmux/lib/ievent"
	"github.com/go-netmux/netmux/lib/netcfg"
	"github.com/go-netmux/netmux/lib/wire"
)

// maxDatagramSize bounds a single read and, via EncodeDatagram, a single
// write — no I2P-scale datagram will ever exceed this per the teacher's
// own MaxDatagramSize constant.
const maxDatagramSize = 65536

type egressMsg struct {
	peer wire.PeerAddress
	env  wire.Envelope
}

// Transport owns the datagram socket.
type Transport struct {
	conn net.PacketConn

	events chan<- ievent.Event
	log    *logrus.Logger

	egress chan egressMsg

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// Listen binds the datagram socket and starts the ingress and egress
// loops. Emits Listening once bound.
func Listen(cfg *netcfg.Config, events chan<- ievent.Event, log *logrus.Logger) (*Transport, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, errtax.Wrap(errtax.BindFailure, err, "failed to bind datagram socket", "addr", addr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		conn:   conn,
		events: events,
		log:    log,
		egress: make(chan egressMsg, cfg.Limits.DatagramEgressCapacity),
		ctx:    ctx,
		cancel: cancel,
	}

	boundAddr := wire.PeerAddressFromUDP(conn.LocalAddr().(*net.UDPAddr))
	t.events <- ievent.Event{Kind: ievent.Listening, TransportKind: wire.Datagram, Addr: boundAddr}

	t.wg.Add(2)
	go t.ingressLoop()
	go t.egressLoop()

	return t, nil
}

// Addr returns the bound local address.
func (t *Transport) Addr() wire.PeerAddress {
	return wire.PeerAddressFromUDP(t.conn.LocalAddr().(*net.UDPAddr))
}

// Sender returns this transport's shared DatagramSender, the coordinator's
// direct egress path for Send commands against the datagram transport.
func (t *Transport) Sender() *Sender {
	return &Sender{t: t}
}

func (t *Transport) ingressLoop() {
	defer t.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := t.conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-t.ctx.Done():
				return
			default:
				t.log.WithError(err).Warn("datagram read failed, transport stopping")
				go t.Stop()
				return
			}
		}

		udpAddr, ok := addr.(*net.UDPAddr)
		if !ok {
			continue
		}
		peer := wire.PeerAddressFromUDP(udpAddr)

		env, derr := wire.DecodeDatagram(buf[:n])
		if derr != nil {
			t.log.WithFields(logrus.Fields{"peer": peer.String(), "error": derr}).
				Info("dropping malformed datagram")
			continue
		}

		t.events <- ievent.Event{
			Kind:          ievent.Received,
			TransportKind: wire.Datagram,
			Addr:          peer,
			Envelope:      env,
		}
	}
}

func (t *Transport) egressLoop() {
	defer t.wg.Done()

	for {
		select {
		case m := <-t.egress:
			body, err := wire.EncodeDatagram(m.env, maxDatagramSize)
			if err != nil {
				t.log.WithFields(logrus.Fields{"peer": m.peer.String(), "error": err}).
					Info("dropping datagram that failed to encode")
				continue
			}
			udpAddr := &net.UDPAddr{IP: m.peer.IP, Port: int(m.peer.Port)}
			if _, err := t.conn.WriteTo(body, udpAddr); err != nil {
				t.log.WithFields(logrus.Fields{"peer": m.peer.String(), "error": err}).
					Warn("datagram write failed")
			}
		case <-t.ctx.Done():
			return
		}
	}
}

// Stop closes the socket, waits for both loops to exit, and emits
// Stopped exactly once. Safe to call multiple times.
func (t *Transport) Stop() {
	t.closeOnce.Do(func() {
		t.cancel()
		_ = t.conn.Close()
		t.wg.Wait()
		t.events <- ievent.Event{Kind: ievent.Stopped, TransportKind: wire.Datagram, Addr: t.Addr()}
	})
}

// Sender is the transport's shared egress handle, per spec's "datagram:
// the transport's shared sender indexed by peer address." The
// coordinator routes every datagram Send command to it directly; no
// per-peer session object or table entry exists for this transport.
type Sender struct {
	t *Transport
}

// SendTo pushes (peer, Envelope) onto the transport's bounded egress
// channel. Returns Overflowed if the channel is full rather than
// blocking — spec.md §4.4 names this as the implementer's choice for a
// bounded channel.
func (s *Sender) SendTo(peer wire.PeerAddress, env wire.Envelope) error {
	select {
	case s.t.egress <- egressMsg{peer: peer, env: env}:
		return nil
	default:
		return errtax.New(errtax.Overflowed, "datagram egress channel full", "peer", peer.String())
	}
}
