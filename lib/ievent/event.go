// Package ievent defines the internal event messages transports and
// sessions send up to the network coordinator. These are distinct from
// the host-visible Event tuple in lib/host: ievent carries live handles
// (e.g. a freshly constructed session) that never cross the host
// boundary.
package ievent

import "github.com/go-netmux/netmux/lib/wire"

// Kind discriminates the internal event variants.
type Kind int

const (
	// Listening: a transport finished binding its socket.
	Listening Kind = iota
	// Stopped: a transport released its socket and exited.
	Stopped
	// Connected: a stream session became live. The datagram transport
	// never emits it.
	Connected
	// Received: a session decoded (or a datagram transport parsed) an envelope.
	Received
	// Disconnected: a session terminated.
	Disconnected
)

// Event is the single message type actors (transports, sessions) send
// upward to the coordinator's mailbox.
type Event struct {
	Kind Kind

	TransportKind wire.TransportKind

	// Addr is the bound address for Listening/Stopped, or the peer
	// address for Connected/Received/Disconnected.
	Addr wire.PeerAddress

	// Initiator is set on Connected: true if the local side dialed out.
	Initiator bool

	// Envelope is set on Received.
	Envelope wire.Envelope

	// Handle is set on Connected: the session.Handle the coordinator
	// should insert into its session table, keyed by (TransportKind, Addr).
	Handle any

	// Err carries a transport- or session-level failure for logging; may be nil.
	Err error
}
