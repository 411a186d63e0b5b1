// Package wire defines the application-level message envelope and the
// binary framing used to carry it over the stream and datagram
// transports, per the endpoint's wire format contract.
package wire

import (
	"fmt"
	"net"
)

// TransportKind is the small enumeration of transports the endpoint
// multiplexes. Its numeric tag matches the well-known IP protocol-number
// convention (TCP=6, UDP=17) and is the value surfaced on the
// host-visible command/event API.
type TransportKind uint16

const (
	// Unsupported marks a transport kind the endpoint does not handle.
	Unsupported TransportKind = 0
	// Stream is the reliable, ordered, connection-oriented transport.
	Stream TransportKind = 6
	// Datagram is the connectionless transport.
	Datagram TransportKind = 17
)

// String returns the transport's canonical name.
func (k TransportKind) String() string {
	switch k {
	case Stream:
		return "stream"
	case Datagram:
		return "datagram"
	default:
		return "unsupported"
	}
}

// PeerAddress is a version-agnostic IP address plus port.
type PeerAddress struct {
	IP   net.IP
	Port uint16
}

// String renders the peer address as "host:port".
func (a PeerAddress) String() string {
	return net.JoinHostPort(a.IP.String(), fmt.Sprintf("%d", a.Port))
}

// Equal reports whether two peer addresses refer to the same host and port.
func (a PeerAddress) Equal(other PeerAddress) bool {
	return a.IP.Equal(other.IP) && a.Port == other.Port
}

// PeerAddressFromTCP converts a *net.TCPAddr into a PeerAddress.
func PeerAddressFromTCP(addr *net.TCPAddr) PeerAddress {
	return PeerAddress{IP: addr.IP, Port: uint16(addr.Port)}
}

// PeerAddressFromUDP converts a *net.UDPAddr into a PeerAddress.
func PeerAddressFromUDP(addr *net.UDPAddr) PeerAddress {
	return PeerAddress{IP: addr.IP, Port: uint16(addr.Port)}
}

// SessionKey uniquely identifies a session: the transport it lives on,
// plus the remote peer address. Two keys are equal iff both components
// are equal.
type SessionKey struct {
	Kind TransportKind
	Peer PeerAddress
}

// String renders the key for logging.
func (k SessionKey) String() string {
	return fmt.Sprintf("%s/%s", k.Kind, k.Peer)
}

// EnvelopeTag is the wire discriminant for the Envelope sum type.
type EnvelopeTag uint32

const (
	// TagEncapsulated marks an opaque, protocol-tagged application payload.
	TagEncapsulated EnvelopeTag = 0
	// TagDisconnect marks an in-band termination hint. Defined for wire
	// compatibility; the core never produces one, but decoders must
	// accept and callers must tolerate it.
	TagDisconnect EnvelopeTag = 1
)

// Envelope is the application-level message unit exchanged over either
// transport. Exactly one of the two cases is populated; Tag says which.
type Envelope struct {
	Tag        EnvelopeTag
	ProtocolID uint16
	Payload    []byte
}

// Encapsulated builds an Envelope carrying an opaque, protocol-tagged payload.
func Encapsulated(protocolID uint16, payload []byte) Envelope {
	return Envelope{Tag: TagEncapsulated, ProtocolID: protocolID, Payload: payload}
}

// DisconnectEnvelope builds the in-band disconnect hint envelope.
func DisconnectEnvelope() Envelope {
	return Envelope{Tag: TagDisconnect}
}

// IsEncapsulated reports whether the envelope carries an application payload.
func (e Envelope) IsEncapsulated() bool {
	return e.Tag == TagEncapsulated
}
