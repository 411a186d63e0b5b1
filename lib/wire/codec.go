package wire

import (
	"encoding/binary"

	"github.com/go-netmux/netmux/lib/errtax"
)

// maxFrameLen is the largest value representable in the 4-byte
// big-endian length prefix: 2^32 - 1.
const maxFrameLen = 1<<32 - 1

// Encode serializes an Envelope into the deterministic binary format
// shared by both transports: a 4-byte big-endian variant tag, then the
// fields of that variant in declaration order. The stream transport
// additionally length-prefixes this output (see EncodeFrame); the
// datagram transport sends it as-is (see EncodeDatagram).
func Encode(e Envelope) ([]byte, error) {
	switch e.Tag {
	case TagDisconnect:
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(TagDisconnect))
		return buf, nil

	case TagEncapsulated:
		if uint64(len(e.Payload)) > maxFrameLen {
			return nil, errtax.New(errtax.EncodeTooLarge,
				"encapsulated payload exceeds maximum length",
				"length", len(e.Payload))
		}
		buf := make([]byte, 4+2+8+len(e.Payload))
		binary.BigEndian.PutUint32(buf[0:4], uint32(TagEncapsulated))
		binary.BigEndian.PutUint16(buf[4:6], e.ProtocolID)
		binary.BigEndian.PutUint64(buf[6:14], uint64(len(e.Payload)))
		copy(buf[14:], e.Payload)
		return buf, nil

	default:
		return nil, errtax.New(errtax.EncodeTooLarge, "unknown envelope tag", "tag", e.Tag)
	}
}

// EncodeFrame serializes an Envelope for the stream transport: a 4-byte
// big-endian length prefix followed by the serialized envelope.
func EncodeFrame(e Envelope) ([]byte, error) {
	body, err := Encode(e)
	if err != nil {
		return nil, err
	}
	if uint64(len(body)) > maxFrameLen {
		return nil, errtax.New(errtax.EncodeTooLarge, "frame exceeds maximum length", "length", len(body))
	}
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(body)))
	copy(frame[4:], body)
	return frame, nil
}

// EncodeDatagram serializes an Envelope for the datagram transport: no
// length prefix, since the underlying transport already delimits
// messages. Fails with EncodeTooLarge if the result would exceed mtu
// when mtu > 0 (0 means "let the transport reject it").
func EncodeDatagram(e Envelope, mtu int) ([]byte, error) {
	body, err := Encode(e)
	if err != nil {
		return nil, err
	}
	if mtu > 0 && len(body) > mtu {
		return nil, errtax.New(errtax.EncodeTooLarge, "datagram exceeds path MTU",
			"length", len(body), "mtu", mtu)
	}
	return body, nil
}

// decode parses a serialized Envelope body (no length prefix).
func decode(body []byte) (Envelope, error) {
	if len(body) < 4 {
		return Envelope{}, errtax.New(errtax.DecodeMalformed, "envelope shorter than tag field", "length", len(body))
	}
	tag := EnvelopeTag(binary.BigEndian.Uint32(body[0:4]))
	switch tag {
	case TagDisconnect:
		return DisconnectEnvelope(), nil

	case TagEncapsulated:
		rest := body[4:]
		if len(rest) < 2+8 {
			return Envelope{}, errtax.New(errtax.DecodeMalformed, "encapsulated header truncated", "length", len(body))
		}
		protocolID := binary.BigEndian.Uint16(rest[0:2])
		n := binary.BigEndian.Uint64(rest[2:10])
		payload := rest[10:]
		if uint64(len(payload)) != n {
			return Envelope{}, errtax.New(errtax.DecodeMalformed, "encapsulated length mismatch",
				"declared", n, "actual", len(payload))
		}
		return Encapsulated(protocolID, payload), nil

	default:
		return Envelope{}, errtax.New(errtax.DecodeMalformed, "unknown envelope tag", "tag", uint32(tag))
	}
}

// DecodeDatagram parses exactly one candidate Envelope from a single
// datagram payload. Per the datagram decode contract, callers should log
// and drop on error rather than disconnect anything — a datagram carries
// no session to terminate.
func DecodeDatagram(payload []byte) (Envelope, error) {
	return decode(payload)
}

// StreamDecoder incrementally reassembles length-prefixed frames from a
// byte stream. It is restartable: the 4-byte length prefix is not
// consumed from the internal buffer until the complete frame (prefix +
// body) is available, so feeding bytes one at a time or all at once
// yields the same sequence of decoded envelopes.
type StreamDecoder struct {
	buf []byte
}

// NewStreamDecoder returns an empty decoder.
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{}
}

// Feed appends freshly read socket bytes to the decoder's buffer.
func (d *StreamDecoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Decode attempts to extract one complete frame from the buffered bytes.
// ok is false (with a nil error) when more bytes are needed. err is
// non-nil only for a malformed frame, in which case the caller must stop
// the session — Decode does not attempt to resynchronize the stream.
func (d *StreamDecoder) Decode() (env Envelope, ok bool, err error) {
	if len(d.buf) < 4 {
		return Envelope{}, false, nil
	}
	length := binary.BigEndian.Uint32(d.buf[0:4])
	total := 4 + int(length)
	if len(d.buf) < total {
		return Envelope{}, false, nil
	}

	body := d.buf[4:total]
	e, derr := decode(body)
	if derr != nil {
		return Envelope{}, false, derr
	}

	remaining := make([]byte, len(d.buf)-total)
	copy(remaining, d.buf[total:])
	d.buf = remaining

	return e, true, nil
}

// Buffered returns the number of unconsumed bytes currently held.
func (d *StreamDecoder) Buffered() int {
	return len(d.buf)
}
