package session

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/go-netmux/netmux/lib/errtax"
	"github.com/go-netmux/netmux/lib/ievent"
	"github.com/go-netmux/netmux/lib/netcfg"
	"github.com/go-netmux/netmux/lib/wire"
	"github.com/sirupsen/logrus"
)

// State is a StreamSession's lifecycle stage. Transitions are
// irreversible: Starting -> Running -> Stopping -> Terminal.
type State int32

const (
	Starting State = iota
	Running
	Stopping
	Terminal
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// StreamSession is the per-connection actor owning one bidirectional
// framed stream. It mirrors the teacher's BaseSession lifecycle
// (Creating/Ready/Closing/Closed in lib/session/base.go) narrowed to the
// four states this spec names, and replaces the teacher's embedded-
// mutex-guarded-fields pattern with a single atomic state word plus a
// dedicated writer goroutine — the concurrency model requires no
// intra-actor concurrency, so field access never needs its own lock.
type StreamSession struct {
	key       wire.SessionKey
	initiator bool
	conn      net.Conn

	maxFrameLength int

	events chan<- ievent.Event
	log    *logrus.Logger

	writeCh  chan wire.Envelope
	stopCh   chan struct{}
	stopOnce sync.Once
	doneWg   sync.WaitGroup

	state atomic.Int32
}

// StreamSession's own Write/Stop surface satisfies the session.Writer
// interface the table stores.
var _ Writer = (*StreamSession)(nil)

// New constructs a StreamSession for an already-accepted or already-
// dialed socket and starts its actor goroutines. It emits Connected on
// the events channel before returning.
func New(key wire.SessionKey, initiator bool, conn net.Conn, cfg *netcfg.Config, events chan<- ievent.Event, log *logrus.Logger) *StreamSession {
	s := &StreamSession{
		key:            key,
		initiator:      initiator,
		conn:           conn,
		maxFrameLength: cfg.Limits.MaxFrameLength,
		events:         events,
		log:            log,
		writeCh:        make(chan wire.Envelope, 64),
		stopCh:         make(chan struct{}),
	}
	s.state.Store(int32(Starting))

	if err := enableKeepAlive(conn, cfg.Timeouts.KeepAliveIdle); err != nil {
		log.WithFields(logrus.Fields{"session": key.String(), "error": err}).
			Debug("keep-alive not supported on this socket, continuing without it")
	}

	s.state.Store(int32(Running))
	s.events <- ievent.Event{
		Kind:          ievent.Connected,
		TransportKind: key.Kind,
		Addr:          key.Peer,
		Initiator:     initiator,
		Handle:        StreamHandle(s),
	}

	s.doneWg.Add(2)
	go s.readLoop()
	go s.writeLoop()

	return s
}

// State returns the session's current lifecycle stage.
func (s *StreamSession) State() State {
	return State(s.state.Load())
}

// Write enqueues an Envelope for transmission. Fire-and-forget: if the
// session is already stopping or terminal, the write is logged and
// dropped rather than blocking or panicking on a closed channel.
func (s *StreamSession) Write(e wire.Envelope) {
	if s.State() >= Stopping {
		s.log.WithField("session", s.key.String()).Debug("write dropped: session is stopping")
		return
	}
	select {
	case s.writeCh <- e:
	case <-s.stopCh:
		s.log.WithField("session", s.key.String()).Debug("write dropped: session stopped while enqueuing")
	}
}

// Stop moves the session to Stopping, stops the writer, and closes the
// socket, which ends the read loop; the read loop then moves the session
// to Terminal and emits Disconnected. Safe to call multiple times and
// from any goroutine; only the first call has effect.
func (s *StreamSession) Stop() {
	s.stopOnce.Do(func() {
		s.state.Store(int32(Stopping))
		close(s.stopCh)
		_ = s.conn.Close()
	})
}

// readLoop decodes frames from the socket and emits Received events in
// exactly the order they were decoded, until EOF, a decode error, or
// Stop closes the socket out from under it.
func (s *StreamSession) readLoop() {
	defer s.doneWg.Done()

	decoder := wire.NewStreamDecoder()
	buf := make([]byte, 32*1024)

	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			decoder.Feed(buf[:n])
			for {
				if decoder.Buffered() > 4+s.maxFrameLength {
					s.fail(errtax.New(errtax.DecodeMalformed, "buffered frame exceeds configured maximum",
						"session", s.key.String(), "buffered", decoder.Buffered()))
					return
				}
				env, ok, derr := decoder.Decode()
				if derr != nil {
					s.fail(errtax.Wrap(errtax.DecodeMalformed, derr, "stream decode failed", "session", s.key.String()))
					return
				}
				if !ok {
					break
				}
				s.events <- ievent.Event{
					Kind:          ievent.Received,
					TransportKind: s.key.Kind,
					Addr:          s.key.Peer,
					Envelope:      env,
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || s.State() >= Stopping {
				s.fail(nil)
				return
			}
			s.fail(errtax.Wrap(errtax.SendFailure, err, "stream read failed", "session", s.key.String()))
			return
		}
	}
}

// writeLoop drains writeCh and writes frames to the socket in submission
// order until Stop closes stopCh.
func (s *StreamSession) writeLoop() {
	defer s.doneWg.Done()

	for {
		select {
		case e := <-s.writeCh:
			frame, err := wire.EncodeFrame(e)
			if err != nil {
				s.log.WithFields(logrus.Fields{"session": s.key.String(), "error": err}).
					Info("dropping envelope that failed to encode")
				continue
			}
			if _, err := s.conn.Write(frame); err != nil {
				s.log.WithFields(logrus.Fields{"session": s.key.String(), "error": err}).
					Warn("stream write failed")
				s.Stop()
				return
			}
		case <-s.stopCh:
			return
		}
	}
}

// fail transitions the session to Stopping (if not already) and ensures
// the socket is closed; the caller's goroutine exit, combined with the
// other loop observing stopCh/EOF, drives the eventual Terminal
// transition and single Disconnected emission.
func (s *StreamSession) fail(err error) {
	s.Stop()
	if err != nil {
		s.log.WithFields(logrus.Fields{"session": s.key.String(), "error": err}).Info("session stopping")
	}
	s.finalizeOnce()
}

// finalizeOnce emits exactly one Disconnected event per session key.
// Only readLoop calls this (via fail), and Stop has already moved the
// state to Stopping by the time it runs, so the CAS below succeeds
// exactly once per session.
func (s *StreamSession) finalizeOnce() {
	if !s.state.CompareAndSwap(int32(Stopping), int32(Terminal)) {
		return
	}
	s.events <- ievent.Event{
		Kind:          ievent.Disconnected,
		TransportKind: s.key.Kind,
		Addr:          s.key.Peer,
	}
}
