// Package session implements the per-connection stream session actor
// and the coordinator-owned session table. Session handles generalize
// the teacher's Session interface hierarchy (lib/session/session.go and
// lib/session/base.go in go-sam-bridge): where the teacher dispatches on
// SessionStyle across STREAM/DATAGRAM/RAW/PRIMARY session objects, this
// package carries a single tagged Handle over the two transport kinds
// the spec defines, since connect/disconnect are only ever meaningful
// for one of them.
package session

import "github.com/go-netmux/netmux/lib/wire"

// Writer is the egress path a stream session exposes to the coordinator:
// enqueue an Envelope for transmission, fire-and-forget.
type Writer interface {
	Write(e wire.Envelope)
	Stop()
}

// DatagramSender is the egress path the datagram transport exposes: send
// one Envelope to one peer.
type DatagramSender interface {
	SendTo(peer wire.PeerAddress, e wire.Envelope) error
}

// Handle is the tagged session-table entry: a stream session actor, or
// the datagram transport's shared sender for a given peer. Operations
// meaningful for only one kind (Stop on a datagram peer) are rejected by
// the coordinator rather than modeled here — see lib/coordinator.
type Handle struct {
	Kind wire.TransportKind

	// Stream is non-nil iff Kind == wire.Stream.
	Stream Writer

	// Datagram is non-nil iff Kind == wire.Datagram.
	Datagram DatagramSender
}

// StreamHandle builds a Handle for a stream session.
func StreamHandle(w Writer) Handle {
	return Handle{Kind: wire.Stream, Stream: w}
}

// DatagramHandle builds a Handle for a datagram pseudo-session.
func DatagramHandle(s DatagramSender) Handle {
	return Handle{Kind: wire.Datagram, Datagram: s}
}
