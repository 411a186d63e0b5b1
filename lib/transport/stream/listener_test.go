package stream

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-netmux/netmux/lib/ievent"
	"github.com/go-netmux/netmux/lib/netcfg"
	"github.com/go-netmux/netmux/lib/wire"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
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

func TestListenEmitsListening(t *testing.T) {
	events := make(chan ievent.Event, 16)
	cfg := netcfg.DefaultConfig()
	cfg.Host = "127.0.0.1"

	l, err := Listen(cfg, events, testLogger())
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Stop()

	e := mustEvent(t, events)
	if e.Kind != ievent.Listening {
		t.Fatalf("event kind = %v, want Listening", e.Kind)
	}
	if e.TransportKind != wire.Stream {
		t.Errorf("TransportKind = %v, want Stream", e.TransportKind)
	}
}

func TestConnectAndAcceptEmitConnected(t *testing.T) {
	events := make(chan ievent.Event, 16)
	cfg := netcfg.DefaultConfig()
	cfg.Host = "127.0.0.1"

	l, err := Listen(cfg, events, testLogger())
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Stop()
	mustEvent(t, events) // Listening

	clientEvents := make(chan ievent.Event, 16)
	clientSess, err := Connect(context.Background(), l.Addr(), cfg, clientEvents, testLogger())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer clientSess.Stop()

	clientConnected := mustEvent(t, clientEvents)
	if clientConnected.Kind != ievent.Connected || !clientConnected.Initiator {
		t.Fatalf("client event = %+v, want initiator Connected", clientConnected)
	}

	serverConnected := mustEvent(t, events)
	if serverConnected.Kind != ievent.Connected || serverConnected.Initiator {
		t.Fatalf("server event = %+v, want non-initiator Connected", serverConnected)
	}
}

func TestStopEmitsStopped(t *testing.T) {
	events := make(chan ievent.Event, 16)
	cfg := netcfg.DefaultConfig()
	cfg.Host = "127.0.0.1"

	l, err := Listen(cfg, events, testLogger())
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	mustEvent(t, events) // Listening

	l.Stop()
	l.Stop() // idempotent

	e := mustEvent(t, events)
	if e.Kind != ievent.Stopped {
		t.Fatalf("event kind = %v, want Stopped", e.Kind)
	}
}

func TestResolvePeerCaches(t *testing.T) {
	events := make(chan ievent.Event, 16)
	cfg := netcfg.DefaultConfig()
	cfg.Host = "127.0.0.1"

	l, err := Listen(cfg, events, testLogger())
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Stop()
	mustEvent(t, events)

	addr1, err := l.ResolvePeer("127.0.0.1:9999")
	if err != nil {
		t.Fatalf("ResolvePeer() error = %v", err)
	}
	addr2, err := l.ResolvePeer("127.0.0.1:9999")
	if err != nil {
		t.Fatalf("ResolvePeer() second call error = %v", err)
	}
	if addr1.String() != addr2.String() {
		t.Errorf("cached ResolvePeer() = %v, want %v", addr2, addr1)
	}
}
