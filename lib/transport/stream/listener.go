// Package stream implements the reliable, ordered, connection-oriented
// transport: a TCP listener accepting inbound sessions plus a Connect
// path for outbound ones. It generalizes the teacher's UDP listener
// lifecycle (other_examples' go-sam-bridge lib/datagram/udp.go
// UDPListener: context-cancellation plus a WaitGroup-tracked receive
// goroutine) to a connection-oriented accept loop, one session actor per
// accepted or dialed socket.
package stream

import (
	"context"
	"fmt"
	"net"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/go-netmux/netmux/lib/errtax"
	"github.com/go-netmux/netmux/lib/ievent"
	"github.com/go-netmux/netmux/lib/netcfg"
	"github.com/go-netmux/netmux/lib/session"
	"github.com/go-netmux/netmux/lib/wire"
)

// Listener owns the stream transport's bound socket and the accept loop
// feeding new sessions to the coordinator's mailbox.
type Listener struct {
	ln  net.Listener
	cfg *netcfg.Config

	events chan<- ievent.Event
	log    *logrus.Logger

	// peerCache resolves a dialed host:port string to its last-seen
	// TCPAddr, avoiding a repeat DNS lookup on reconnect-heavy workloads.
	peerCache *lru.Cache[string, *net.TCPAddr]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// Listen binds the stream transport's socket and starts the accept loop.
// It emits a Listening event once bound; Stopped is emitted when Stop
// completes (or the accept loop exits on its own due to a socket error).
func Listen(cfg *netcfg.Config, events chan<- ievent.Event, log *logrus.Logger) (*Listener, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errtax.Wrap(errtax.BindFailure, err, "failed to bind stream listener", "addr", addr)
	}

	cache, err := lru.New[string, *net.TCPAddr](cfg.Limits.PeerCacheSize)
	if err != nil {
		return nil, errtax.Wrap(errtax.BindFailure, err, "failed to allocate peer address cache")
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		ln:        ln,
		cfg:       cfg,
		events:    events,
		log:       log,
		peerCache: cache,
		ctx:       ctx,
		cancel:    cancel,
	}

	boundAddr := wire.PeerAddressFromTCP(ln.Addr().(*net.TCPAddr))
	l.events <- ievent.Event{Kind: ievent.Listening, TransportKind: wire.Stream, Addr: boundAddr}

	l.wg.Add(1)
	go l.acceptLoop()

	return l, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() wire.PeerAddress {
	return wire.PeerAddressFromTCP(l.ln.Addr().(*net.TCPAddr))
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.ctx.Done():
				return
			default:
				l.log.WithError(err).Warn("stream accept failed, listener stopping")
				go l.Stop()
				return
			}
		}

		peer := wire.PeerAddressFromTCP(conn.RemoteAddr().(*net.TCPAddr))
		key := wire.SessionKey{Kind: wire.Stream, Peer: peer}
		session.New(key, false, conn, l.cfg, l.events, l.log)
	}
}

// Connect dials an outbound stream session to peer and returns its
// session handle once the TCP handshake completes. The constructed
// session emits its own Connected event; Connect's return value lets the
// coordinator register the handle under the same key synchronously.
func Connect(ctx context.Context, peer wire.PeerAddress, cfg *netcfg.Config, events chan<- ievent.Event, log *logrus.Logger) (*session.StreamSession, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeouts.Connect)
	defer cancel()

	addr := peer.String()
	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, errtax.Wrap(errtax.BindFailure, err, "stream connect failed", "peer", addr)
	}

	key := wire.SessionKey{Kind: wire.Stream, Peer: peer}
	return session.New(key, true, conn, cfg, events, log), nil
}

// Stop closes the listening socket, waits for the accept loop to exit,
// and emits Stopped exactly once. Safe to call multiple times.
func (l *Listener) Stop() {
	l.closeOnce.Do(func() {
		l.cancel()
		_ = l.ln.Close()
		l.wg.Wait()
		l.events <- ievent.Event{Kind: ievent.Stopped, TransportKind: wire.Stream, Addr: l.Addr()}
	})
}

// ResolvePeer looks up (or resolves and caches) the TCPAddr for a
// host:port string, per the peer-address cache named in the endpoint's
// domain stack.
func (l *Listener) ResolvePeer(hostport string) (*net.TCPAddr, error) {
	if addr, ok := l.peerCache.Get(hostport); ok {
		return addr, nil
	}
	addr, err := net.ResolveTCPAddr("tcp", hostport)
	if err != nil {
		return nil, errtax.Wrap(errtax.BindFailure, err, "failed to resolve peer address", "addr", hostport)
	}
	l.peerCache.Add(hostport, addr)
	return addr, nil
}
