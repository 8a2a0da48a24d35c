package ipc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/event"
	"github.com/c360/servicebus/types"
)

// Payload codec for the request-direction events that cross the process
// boundary. The frame layer carries (cookies, class magic, payload); this
// file defines the payload layout the router uses to rebuild typed events
// for local delivery. Which decoder runs is selected by the frame's class
// magic, so identity survives the wire without Go type information.
//
// Request payload, all integers big-endian:
//
//	stub address    4 length-prefixed strings (service, role, thread, instance)
//	proxy address   4 length-prefixed strings
//	uint32          request id
//	uint32          sequence number
//	bytes           opaque call arguments (rest of payload)
//
// Notify payload: the two addresses, then attribute id and a subscribe flag.

const maxAddressField = math.MaxUint16

// appendString appends a uint16 length prefix and the string bytes.
func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

func appendStubAddress(buf []byte, a types.StubAddress) []byte {
	buf = appendString(buf, a.Service)
	buf = appendString(buf, a.Role)
	buf = appendString(buf, a.Thread)
	return appendString(buf, a.Instance)
}

func appendProxyAddress(buf []byte, a types.ProxyAddress) []byte {
	buf = appendString(buf, a.Service)
	buf = appendString(buf, a.Role)
	buf = appendString(buf, a.Thread)
	return appendString(buf, a.Instance)
}

func checkAddressFields(fields ...string) error {
	for _, f := range fields {
		if len(f) > maxAddressField {
			return errors.WrapInvalid(errors.ErrInvalidData, "codec", "encode", "address field size check")
		}
	}
	return nil
}

// payloadReader consumes a payload buffer front to back, latching the first
// failure so callers check the error once at the end.
type payloadReader struct {
	buf []byte
	off int
	err error
}

func (r *payloadReader) uint16() uint16 {
	if r.err != nil {
		return 0
	}
	if r.off+2 > len(r.buf) {
		r.err = errors.ErrParsingFailed
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *payloadReader) uint32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.buf) {
		r.err = errors.ErrParsingFailed
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *payloadReader) string() string {
	n := int(r.uint16())
	if r.err != nil {
		return ""
	}
	if r.off+n > len(r.buf) {
		r.err = errors.ErrParsingFailed
		return ""
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	return s
}

func (r *payloadReader) bool() bool {
	if r.err != nil {
		return false
	}
	if r.off+1 > len(r.buf) {
		r.err = errors.ErrParsingFailed
		return false
	}
	v := r.buf[r.off]
	r.off++
	return v != 0
}

// rest returns whatever follows the fixed fields, nil when empty.
func (r *payloadReader) rest() []byte {
	if r.err != nil || r.off >= len(r.buf) {
		return nil
	}
	out := make([]byte, len(r.buf)-r.off)
	copy(out, r.buf[r.off:])
	return out
}

func (r *payloadReader) stubAddress() types.StubAddress {
	return types.StubAddress{
		Service:  r.string(),
		Role:     r.string(),
		Thread:   r.string(),
		Instance: r.string(),
	}
}

func (r *payloadReader) proxyAddress() types.ProxyAddress {
	return types.ProxyAddress{
		Service:  r.string(),
		Role:     r.string(),
		Thread:   r.string(),
		Instance: r.string(),
	}
}

// EncodeRequestFrame serializes a service request into a complete wire
// frame addressed from source to target.
func EncodeRequestFrame(e *event.ServiceRequestEvent, source, target types.Cookie) (*Frame, error) {
	if err := checkAddressFields(
		e.Target.Service, e.Target.Role, e.Target.Thread, e.Target.Instance,
		e.Source.Service, e.Source.Role, e.Source.Thread, e.Source.Instance,
	); err != nil {
		return nil, err
	}

	payload := appendStubAddress(nil, e.Target)
	payload = appendProxyAddress(payload, e.Source)
	payload = binary.BigEndian.AppendUint32(payload, e.RequestID)
	payload = binary.BigEndian.AppendUint32(payload, e.SeqNr)
	payload = append(payload, e.Data...)

	return &Frame{
		TargetCookie: target,
		SourceCookie: source,
		ClassMagic:   event.ClassRemoteRequestEvent.ID().Magic(),
		Payload:      payload,
	}, nil
}

// EncodeNotifyFrame serializes an attribute subscribe/unsubscribe request
// into a complete wire frame.
func EncodeNotifyFrame(e *event.NotifyRequestEvent, source, target types.Cookie) (*Frame, error) {
	if err := checkAddressFields(
		e.Target.Service, e.Target.Role, e.Target.Thread, e.Target.Instance,
		e.Source.Service, e.Source.Role, e.Source.Thread, e.Source.Instance,
	); err != nil {
		return nil, err
	}

	payload := appendStubAddress(nil, e.Target)
	payload = appendProxyAddress(payload, e.Source)
	payload = binary.BigEndian.AppendUint32(payload, e.AttrID)
	subscribe := byte(0)
	if e.Subscribe {
		subscribe = 1
	}
	payload = append(payload, subscribe)

	return &Frame{
		TargetCookie: target,
		SourceCookie: source,
		ClassMagic:   event.ClassRemoteNotifyRequestEvent.ID().Magic(),
		Payload:      payload,
	}, nil
}

// DecodeEvent rebuilds the typed event a frame carries, selected by the
// frame's class magic. The routing cookies travel into the event so a
// response can be addressed back over the same connection.
func DecodeEvent(f *Frame) (event.Event, error) {
	switch f.ClassMagic {
	case event.ClassRemoteRequestEvent.ID().Magic():
		return decodeRemoteRequest(f)
	case event.ClassRemoteNotifyRequestEvent.ID().Magic():
		return decodeRemoteNotifyRequest(f)
	default:
		msg := fmt.Errorf("%w: magic %#x", errors.ErrUnknownClass, f.ClassMagic)
		return nil, errors.WrapInvalid(msg, "codec", "DecodeEvent", "class magic lookup")
	}
}

func decodeRemoteRequest(f *Frame) (*event.RemoteRequestEvent, error) {
	r := &payloadReader{buf: f.Payload}
	target := r.stubAddress()
	source := r.proxyAddress()
	requestID := r.uint32()
	seqNr := r.uint32()
	data := r.rest()
	if r.err != nil {
		return nil, errors.WrapInvalid(r.err, "codec", "decodeRemoteRequest", "payload parse")
	}
	return event.NewRemoteRequestEvent(
		target, source, requestID, seqNr, data, f.SourceCookie, f.TargetCookie), nil
}

func decodeRemoteNotifyRequest(f *Frame) (*event.RemoteNotifyRequestEvent, error) {
	r := &payloadReader{buf: f.Payload}
	target := r.stubAddress()
	source := r.proxyAddress()
	attrID := r.uint32()
	subscribe := r.bool()
	if r.err != nil {
		return nil, errors.WrapInvalid(r.err, "codec", "decodeRemoteNotifyRequest", "payload parse")
	}
	return event.NewRemoteNotifyRequestEvent(
		target, source, attrID, subscribe, f.SourceCookie, f.TargetCookie), nil
}
