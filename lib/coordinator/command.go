package coordinator

import "github.com/go-netmux/netmux/lib/wire"

// CommandKind discriminates the four host commands plus the bootstrap
// Open the host issues before any of them are meaningful.
type CommandKind int

const (
	// Open binds both transports to Host/Port.
	Open CommandKind = iota
	// Connect initiates an outbound stream connection.
	Connect
	// Disconnect stops a stream session, or is rejected for datagram.
	Disconnect
	// Send forwards an Encapsulated envelope to a peer.
	Send
	// Stop tears down both transports and the coordinator itself.
	Stop
)

// Command is one host-issued instruction. Result, if non-nil, receives
// exactly one error (nil on success) once the command has been accepted
// or rejected — acceptance of Connect does not imply the dial succeeded,
// only that the request was valid and forwarded.
type Command struct {
	Kind CommandKind

	TransportKind wire.TransportKind
	Peer          wire.PeerAddress

	// Host and Port are set on Open; Open binds both transports there.
	Host string
	Port int

	// ProtocolID and Payload are set on Send.
	ProtocolID uint16
	Payload    []byte

	Result chan error
}
