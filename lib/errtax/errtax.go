// Package errtax defines the endpoint's error taxonomy: a small, closed
// set of error kinds with stable codes and log severities, built on
// samber/oops so every error carries structured context (transport kind,
// peer address, session key) back to the host's Log event.
package errtax

import "github.com/samber/oops"

// Kind is one of the nine error kinds the endpoint can surface, either
// synchronously to the host (as a Command failure) or asynchronously
// (logged on the network thread, resolved via a lifecycle event).
type Kind string

const (
	// BindFailure: a transport's listening socket could not be bound.
	BindFailure Kind = "bind_failure"
	// Unsupported: the operation is not valid for the transport kind.
	Unsupported Kind = "unsupported"
	// NotConnected: no session matches the requested key.
	NotConnected Kind = "not_connected"
	// NotRunning: the endpoint has not been opened.
	NotRunning Kind = "not_running"
	// EncodeTooLarge: serialization exceeded the 4-byte length cap.
	EncodeTooLarge Kind = "encode_too_large"
	// DecodeMalformed: a frame or datagram failed to parse.
	DecodeMalformed Kind = "decode_malformed"
	// SendFailure: the egress channel was closed or the socket write failed.
	SendFailure Kind = "send_failure"
	// HostCallback: the host-supplied event consumer panicked.
	HostCallback Kind = "host_callback"
	// Overflowed: the datagram transport's bounded egress channel was full.
	Overflowed Kind = "overflowed"
)

// Severity mirrors the Log event levels in the host-visible Event tuple.
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// severities maps each Kind to the severity it is logged at per the
// error handling design's propagation policy.
var severities = map[Kind]Severity{
	BindFailure:     Error,
	Unsupported:     Warning,
	NotConnected:    Warning,
	NotRunning:      Warning,
	EncodeTooLarge:  Info,
	DecodeMalformed: Info,
	SendFailure:     Warning,
	HostCallback:    Error,
	Overflowed:      Warning,
}

// SeverityOf returns the log severity for a given kind.
func SeverityOf(k Kind) Severity {
	if sev, ok := severities[k]; ok {
		return sev
	}
	return Error
}

// New builds an error of the given kind with structured context fields.
// Fields should be passed as alternating key/value pairs, e.g.
//
//	errtax.New(errtax.NotConnected, "lookup failed",
//	    "kind", wire.Stream, "peer", peer.String())
func New(k Kind, msg string, kv ...any) error {
	return oops.
		Code(string(k)).
		With("severity", SeverityOf(k).String()).
		With(kv...).
		Errorf("%s", msg)
}

// Wrap attaches taxonomy context to an underlying error (e.g. a socket
// I/O error or a parse failure) without discarding it — Unwrap still
// reaches the original cause.
func Wrap(k Kind, err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return oops.
		Code(string(k)).
		With("severity", SeverityOf(k).String()).
		With(kv...).
		Wrapf(err, "%s", msg)
}

// Is reports whether err (or any error it wraps) carries the given kind.
func Is(err error, k Kind) bool {
	oerr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oerr.Code() == string(k)
}

// KindOf extracts the taxonomy kind from err, if any.
func KindOf(err error) (Kind, bool) {
	oerr, ok := oops.AsOops(err)
	if !ok {
		return "", false
	}
	code := oerr.Code()
	if code == "" {
		return "", false
	}
	return Kind(code), true
}
