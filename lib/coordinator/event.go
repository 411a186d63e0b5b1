package coordinator

import "github.com/go-netmux/netmux/lib/wire"

// EventKind discriminates the host-visible event tuple. Its values are
// internal; lib/host translates each one to the numeric tag the host sees.
type EventKind int

const (
	// Exiting: the coordinator has released both transports and is terminal.
	Exiting EventKind = iota
	// Started: a transport finished binding.
	Started
	// Stopped: a transport released its socket.
	Stopped
	// Connected: a stream session became live.
	Connected
	// Disconnected: a stream session terminated.
	Disconnected
	// Message: a session decoded an Encapsulated envelope.
	Message
	// Log: a diagnostic line, carrying the taxonomy severity that produced it.
	Log
)

// Event is the uniform host-visible tuple the coordinator publishes onto
// its single-producer/single-consumer output queue.
type Event struct {
	Kind EventKind

	TransportKind wire.TransportKind
	Addr          wire.PeerAddress

	// Initiator is set on Connected.
	Initiator bool

	// ProtocolID and Payload are set on Message.
	ProtocolID uint16
	Payload    []byte

	// Level and Text are set on Log.
	Level int
	Text  string
}
