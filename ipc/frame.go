// Package ipc implements the process boundary of the framework: the wire
// frame codec, the accepting TCP socket multiplexer with cookie assignment,
// and the message router service built on top of them.
package ipc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/types"
)

// MaxFramePayload bounds the payload of a single wire frame. Oversized
// frames are refused on both encode and decode.
const MaxFramePayload = 16 * 1024 * 1024

// frameHeaderSize is the fixed part of an encoded frame after the length
// prefix: target cookie, source cookie, class magic.
const frameHeaderSize = 8 + 8 + 4

// Frame is the unit of exchange between routed peers. It carries exactly
// what the receiving side needs to reconstruct an event: the routing
// cookies, the event's class magic, and the opaque serialized payload.
type Frame struct {
	TargetCookie types.Cookie
	SourceCookie types.Cookie
	ClassMagic   uint32
	Payload      []byte
}

// Encoded layout, all integers big-endian:
//
//	uint32  length of the rest (header + payload)
//	uint64  target cookie
//	uint64  source cookie
//	uint32  class magic
//	bytes   payload

// Encode appends the wire form of f to buf and returns the result.
func (f *Frame) Encode(buf []byte) ([]byte, error) {
	if len(f.Payload) > MaxFramePayload {
		msg := fmt.Errorf("%w: %d bytes", errors.ErrFrameTooLarge, len(f.Payload))
		return nil, errors.WrapInvalid(msg, "Frame", "Encode", "payload size check")
	}

	total := frameHeaderSize + len(f.Payload)
	buf = binary.BigEndian.AppendUint32(buf, uint32(total))
	buf = binary.BigEndian.AppendUint64(buf, uint64(f.TargetCookie))
	buf = binary.BigEndian.AppendUint64(buf, uint64(f.SourceCookie))
	buf = binary.BigEndian.AppendUint32(buf, f.ClassMagic)
	buf = append(buf, f.Payload...)
	return buf, nil
}

// WriteFrame encodes f and writes it to w.
func WriteFrame(w io.Writer, f *Frame) error {
	buf, err := f.Encode(make([]byte, 0, 4+frameHeaderSize+len(f.Payload)))
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return errors.WrapTransient(err, "Frame", "WriteFrame", "socket write")
	}
	return nil
}

// ReadFrame reads one frame from r. A short or oversized stream yields an
// error; the caller treats any error as loss of the connection.
func ReadFrame(r io.Reader) (*Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	total := binary.BigEndian.Uint32(lenBuf[:])
	if total < frameHeaderSize {
		msg := fmt.Errorf("%w: frame length %d below header size", errors.ErrInvalidData, total)
		return nil, errors.WrapInvalid(msg, "Frame", "ReadFrame", "length validation")
	}
	if total > frameHeaderSize+MaxFramePayload {
		msg := fmt.Errorf("%w: frame length %d", errors.ErrFrameTooLarge, total)
		return nil, errors.WrapInvalid(msg, "Frame", "ReadFrame", "length validation")
	}

	body := make([]byte, total)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	f := &Frame{
		TargetCookie: types.Cookie(binary.BigEndian.Uint64(body[0:8])),
		SourceCookie: types.Cookie(binary.BigEndian.Uint64(body[8:16])),
		ClassMagic:   binary.BigEndian.Uint32(body[16:20]),
	}
	if total > frameHeaderSize {
		f.Payload = body[frameHeaderSize:]
	}
	return f, nil
}
