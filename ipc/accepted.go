package ipc

import (
	"bufio"
	"net"
	"sync"

	"github.com/c360/servicebus/errors"
)

// Handle identifies one accepted socket within a multiplexer. Handles are
// assigned monotonically at accept time and never reused. InvalidHandle is
// returned on failure paths.
type Handle int64

// InvalidHandle is the zero, never-assigned handle.
const InvalidHandle Handle = 0

// AcceptedSocket is one client connection owned by the server multiplexer.
// Reads go through a buffered reader so the readability monitor can peek
// without consuming stream bytes.
type AcceptedSocket struct {
	handle Handle
	conn   *net.TCPConn
	reader *bufio.Reader

	acceptOnce sync.Once
	accepted   bool

	// resume re-arms the readability monitor after the owner consumed the
	// signaled data; quit stops the monitor.
	resume chan struct{}
	quit   chan struct{}

	closeOnce sync.Once
}

func newAcceptedSocket(handle Handle, conn *net.TCPConn) *AcceptedSocket {
	return &AcceptedSocket{
		handle: handle,
		conn:   conn,
		reader: bufio.NewReader(conn),
		resume: make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
}

// Handle returns the socket's multiplexer handle.
func (s *AcceptedSocket) Handle() Handle { return s.handle }

// RemoteAddr returns the peer address.
func (s *AcceptedSocket) RemoteAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.RemoteAddr()
}

// IsValid reports whether the socket is usable.
func (s *AcceptedSocket) IsValid() bool { return s != nil && s.conn != nil }

// IsAccepted reports whether AcceptConnection has run for this socket.
func (s *AcceptedSocket) IsAccepted() bool { return s.accepted }

// RecvFrame reads one wire frame from the connection and re-arms the
// readability monitor. Any error means the connection is unusable and the
// caller must evict the client.
func (s *AcceptedSocket) RecvFrame() (*Frame, error) {
	f, err := ReadFrame(s.reader)
	if err != nil {
		return nil, errors.WrapTransient(errors.ErrConnectionLost, "AcceptedSocket", "RecvFrame", "frame read")
	}
	s.rearm()
	return f, nil
}

// SendFrame writes one wire frame to the connection.
func (s *AcceptedSocket) SendFrame(f *Frame) error {
	if err := WriteFrame(s.conn, f); err != nil {
		return errors.WrapTransient(errors.ErrConnectionLost, "AcceptedSocket", "SendFrame", "frame write")
	}
	return nil
}

// DisableSend half-closes the connection for writing; the peer sees EOF but
// may keep sending.
func (s *AcceptedSocket) DisableSend() bool {
	return s.conn.CloseWrite() == nil
}

// DisableReceive half-closes the connection for reading.
func (s *AcceptedSocket) DisableReceive() bool {
	return s.conn.CloseRead() == nil
}

// close shuts the socket down and stops its monitor. Safe to call more than
// once.
func (s *AcceptedSocket) close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		_ = s.conn.Close()
	})
}

// rearm lets the monitor goroutine wait for the next readable byte.
func (s *AcceptedSocket) rearm() {
	select {
	case s.resume <- struct{}{}:
	default:
	}
}

// monitor blocks until the connection has readable data (or closed), then
// reports the handle on events and waits to be re-armed by the next read.
// One signal per RecvFrame keeps WaitForConnectionEvent's one-handle-per-call
// contract.
func (s *AcceptedSocket) monitor(events chan<- connEvent) {
	for {
		_, err := s.reader.Peek(1)
		select {
		case events <- connEvent{handle: s.handle}:
		case <-s.quit:
			return
		}
		if err != nil {
			// Closed or broken; the owner's read will observe the error
			// and evict. Nothing more to watch.
			return
		}
		select {
		case <-s.resume:
		case <-s.quit:
			return
		}
	}
}
