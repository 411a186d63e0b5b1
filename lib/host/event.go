package host

import "github.com/go-netmux/netmux/lib/coordinator"

// Tag is the host-visible event tuple's numeric discriminant, per
// spec.md §6's wire-visible event tags.
type Tag int

const (
	TagExiting      Tag = 0
	TagStarted      Tag = 1
	TagStopped      Tag = 2
	TagConnected    Tag = 100
	TagDisconnected Tag = 101
	TagMessage      Tag = 102
	TagLog          Tag = 200
)

// Event is the uniform tuple delivered to the host, either through Poll
// or an EventCallback.
type Event struct {
	Tag Tag

	// TransportKind carries the wire TransportKind's numeric tag (6, 17,
	// or 0); set on every variant but Exiting and Log.
	TransportKind uint16
	Host          string
	Port          uint16

	// Initiator is set on Connected.
	Initiator bool

	// ProtocolID and Payload are set on Message.
	ProtocolID uint16
	Payload    []byte

	// Level and Text are set on Log (level: 0=Debug,1=Info,2=Warning,3=Error).
	Level int
	Text  string
}

func translate(ev coordinator.Event) Event {
	host := Event{
		TransportKind: uint16(ev.TransportKind),
		Host:          ev.Addr.IP.String(),
		Port:          ev.Addr.Port,
		Initiator:     ev.Initiator,
		ProtocolID:    ev.ProtocolID,
		Payload:       ev.Payload,
		Level:         ev.Level,
		Text:          ev.Text,
	}
	switch ev.Kind {
	case coordinator.Exiting:
		host.Tag = TagExiting
	case coordinator.Started:
		host.Tag = TagStarted
	case coordinator.Stopped:
		host.Tag = TagStopped
	case coordinator.Connected:
		host.Tag = TagConnected
	case coordinator.Disconnected:
		host.Tag = TagDisconnected
	case coordinator.Message:
		host.Tag = TagMessage
	case coordinator.Log:
		host.Tag = TagLog
	}
	return host
}
