package session

import (
	"net"
	"testing"
	"time"

	"github.com/go-netmux/netmux/lib/ievent"
	"github.com/go-netmux/netmux/lib/netcfg"
	"github.com/go-netmux/netmux/lib/wire"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel) // keep test output quiet
	return log
}

func newTestSession(t *testing.T, conn net.Conn) (*StreamSession, chan ievent.Event) {
	t.Helper()
	events := make(chan ievent.Event, 16)
	cfg := netcfg.DefaultConfig()
	k := wire.SessionKey{Kind: wire.Stream, Peer: wire.PeerAddress{IP: net.ParseIP("127.0.0.1"), Port: 4000}}
	s := New(k, true, conn, cfg, events, testLogger())
	return s, events
}

func mustEvent(t *testing.T, events chan ievent.Event) ievent.Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ievent.Event{}
	}
}

func TestNewEmitsConnected(t *testing.T) {
	client, peer := net.Pipe()
	defer peer.Close()

	s, events := newTestSession(t, client)
	defer s.Stop()

	e := mustEvent(t, events)
	if e.Kind != ievent.Connected {
		t.Fatalf("first event kind = %v, want Connected", e.Kind)
	}
	if !e.Initiator {
		t.Error("Connected event Initiator = false, want true")
	}
}

func TestWritePropagatesFrame(t *testing.T) {
	client, peer := net.Pipe()
	defer peer.Close()

	s, events := newTestSession(t, client)
	defer s.Stop()
	mustEvent(t, events) // Connected

	env := wire.Encapsulated(7, []byte{0xDE, 0xAD})
	s.Write(env)

	buf := make([]byte, 64)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := peer.Read(buf)
	if err != nil {
		t.Fatalf("peer Read() error = %v", err)
	}

	decoder := wire.NewStreamDecoder()
	decoder.Feed(buf[:n])
	got, ok, derr := decoder.Decode()
	if derr != nil || !ok {
		t.Fatalf("Decode() = %+v, %v, %v", got, ok, derr)
	}
	if got.ProtocolID != 7 {
		t.Errorf("ProtocolID = %d, want 7", got.ProtocolID)
	}
}

func TestReceivedEventOnIncomingFrame(t *testing.T) {
	client, peer := net.Pipe()
	defer peer.Close()

	s, events := newTestSession(t, client)
	defer s.Stop()
	mustEvent(t, events) // Connected

	frame, err := wire.EncodeFrame(wire.Encapsulated(9, []byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	go func() {
		peer.Write(frame)
	}()

	e := mustEvent(t, events)
	if e.Kind != ievent.Received {
		t.Fatalf("event kind = %v, want Received", e.Kind)
	}
	if e.Envelope.ProtocolID != 9 {
		t.Errorf("Envelope.ProtocolID = %d, want 9", e.Envelope.ProtocolID)
	}
}

func TestStopEmitsExactlyOneDisconnected(t *testing.T) {
	client, peer := net.Pipe()
	defer peer.Close()

	s, events := newTestSession(t, client)
	mustEvent(t, events) // Connected

	s.Stop()
	s.Stop() // second call must be a no-op

	e := mustEvent(t, events)
	if e.Kind != ievent.Disconnected {
		t.Fatalf("event kind = %v, want Disconnected", e.Kind)
	}

	select {
	case extra := <-events:
		t.Fatalf("unexpected extra event after Disconnected: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWriteAfterStopIsDropped(t *testing.T) {
	client, peer := net.Pipe()
	defer peer.Close()

	s, events := newTestSession(t, client)
	mustEvent(t, events) // Connected
	s.Stop()
	mustEvent(t, events) // Disconnected

	// Must not panic or block.
	s.Write(wire.Encapsulated(1, []byte{0x01}))
}
