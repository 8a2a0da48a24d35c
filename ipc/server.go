package ipc

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/metric"
	"github.com/c360/servicebus/synch"
	"github.com/c360/servicebus/types"
)

// connEvent is one occurrence on the multiplex set: a new accept (newPeer
// set) or readability/closure of an accepted socket.
type connEvent struct {
	handle  Handle
	newPeer net.Addr
}

// ServerConnection owns a listening TCP socket and the clients accepted
// from it. Every accepted client gets a unique, never-reused cookie; the
// cookie↔handle maps stay mutual inverses under one internal lock. The
// blocking WaitForConnectionEvent is intended to run in a dedicated
// goroutine; the lock is never held across it.
type ServerConnection struct {
	logger  *slog.Logger
	metrics *metric.Metrics

	addr     *net.TCPAddr
	listener *net.TCPListener

	lock           synch.Object // guards everything below
	cookieGen      types.Cookie
	handleGen      Handle
	acceptedConns  map[Handle]*AcceptedSocket
	cookieToHandle map[types.Cookie]Handle
	handleToCookie map[Handle]types.Cookie
	masterList     []Handle

	events  chan connEvent
	closed  chan struct{}
	closeOnce sync.Once
	wg      sync.WaitGroup
}

// NewServerConnection creates a multiplexer with no socket. Call
// SetAddress or CreateSocket with an address before listening.
func NewServerConnection(logger *slog.Logger) *ServerConnection {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerConnection{
		logger:         logger,
		lock:           synch.NewResourceLock(),
		cookieGen:      types.CookieFirstValid - 1,
		acceptedConns:  make(map[Handle]*AcceptedSocket),
		cookieToHandle: make(map[types.Cookie]Handle),
		handleToCookie: make(map[Handle]types.Cookie),
		events:         make(chan connEvent, types.MasterListSize),
		closed:         make(chan struct{}),
	}
}

// SetMetrics attaches framework core metrics to the multiplexer.
func (sc *ServerConnection) SetMetrics(m *metric.Metrics) {
	sc.metrics = m
}

// SetAddress resolves and stores the listen address for the no-argument
// CreateSocket form.
func (sc *ServerConnection) SetAddress(host string, port uint16) bool {
	addr, err := net.ResolveTCPAddr("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		sc.logger.Error("address resolution failed", "host", host, "port", port, "error", err)
		return false
	}
	synch.With(sc.lock, func() { sc.addr = addr })
	return true
}

// Address returns the resolved listen address, or nil.
func (sc *ServerConnection) Address() *net.TCPAddr {
	var addr *net.TCPAddr
	synch.With(sc.lock, func() { addr = sc.addr })
	return addr
}

// CreateSocket resolves host:port and prepares the listening socket
// address. Returns true on success.
func (sc *ServerConnection) CreateSocket(host string, port uint16) bool {
	return sc.SetAddress(host, port)
}

// CreateSocketDefault prepares the socket from a previously set address.
func (sc *ServerConnection) CreateSocketDefault() bool {
	return sc.Address() != nil
}

// ListenAddr returns the bound address of the live listener, or nil. With
// port 0 this is where the kernel actually placed the socket.
func (sc *ServerConnection) ListenAddr() net.Addr {
	var addr net.Addr
	synch.With(sc.lock, func() {
		if sc.listener != nil {
			addr = sc.listener.Addr()
		}
	})
	return addr
}

// IsValid reports whether the listening socket exists.
func (sc *ServerConnection) IsValid() bool {
	var ok bool
	synch.With(sc.lock, func() { ok = sc.listener != nil })
	return ok
}

// ServerListen binds the socket and places it in listening state, then
// starts the accept loop. The backlog parameter is advisory: Go's listener
// uses the kernel default, and the real accept bound is MasterListSize.
func (sc *ServerConnection) ServerListen(_ int) bool {
	addr := sc.Address()
	if addr == nil {
		sc.logger.Error("listen without address")
		return false
	}

	listener, err := listenReuse(addr)
	if err != nil {
		sc.logger.Error("listen failed", "addr", addr.String(), "error", err)
		return false
	}

	synch.With(sc.lock, func() { sc.listener = listener })

	sc.wg.Add(1)
	go sc.acceptLoop(listener)
	sc.logger.Info("router listening", "addr", listener.Addr().String())
	return true
}

// listenReuse opens a TCP listener with SO_REUSEADDR so a restarted router
// can rebind while old connections drain in TIME_WAIT.
func listenReuse(addr *net.TCPAddr) (*net.TCPListener, error) {
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, err
	}

	raw, err := listener.SyscallConn()
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	var optErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if ctrlErr != nil {
		_ = listener.Close()
		return nil, ctrlErr
	}
	if optErr != nil {
		_ = listener.Close()
		return nil, optErr
	}
	return listener, nil
}

// acceptLoop accepts clients until the listener closes. Accepts beyond
// MasterListSize are refused and the client socket closed.
func (sc *ServerConnection) acceptLoop(listener *net.TCPListener) {
	defer sc.wg.Done()

	for {
		conn, err := listener.AcceptTCP()
		if err != nil {
			// Listener closed.
			return
		}

		sock, ok := sc.registerAccept(conn)
		if !ok {
			sc.logger.Warn("accept refused, master list full", "peer", conn.RemoteAddr().String())
			if sc.metrics != nil {
				sc.metrics.AcceptsRefused.Inc()
			}
			_ = conn.Close()
			continue
		}

		select {
		case sc.events <- connEvent{handle: sock.handle, newPeer: conn.RemoteAddr()}:
		case <-sc.closed:
			return
		}
	}
}

// registerAccept assigns the next handle and cookie to conn and installs it
// in all maps. Fails when the master list is at capacity.
func (sc *ServerConnection) registerAccept(conn *net.TCPConn) (*AcceptedSocket, bool) {
	var sock *AcceptedSocket
	synch.With(sc.lock, func() {
		if len(sc.masterList) >= types.MasterListSize {
			return
		}
		sc.handleGen++
		sc.cookieGen++
		handle := sc.handleGen
		cookie := sc.cookieGen

		sock = newAcceptedSocket(handle, conn)
		sc.acceptedConns[handle] = sock
		sc.cookieToHandle[cookie] = handle
		sc.handleToCookie[handle] = cookie
		sc.masterList = append(sc.masterList, handle)
	})
	if sock == nil {
		return nil, false
	}
	cookie := sc.GetCookie(sock.handle)
	sc.logger.Debug("client accepted",
		"peer", conn.RemoteAddr().String(), "handle", int64(sock.handle), "cookie", uint64(cookie))
	return sock, true
}

// WaitForConnectionEvent blocks until any socket in the multiplex set
// signals: a new client was accepted (newPeer is non-nil), or an accepted
// socket became readable or closed (newPeer is nil; the caller must read
// from the handle to observe data or the closure). Exactly one handle is
// returned per call. Returns ErrShuttingDown after CloseSocket.
func (sc *ServerConnection) WaitForConnectionEvent() (Handle, net.Addr, error) {
	select {
	case ev := <-sc.events:
		return ev.handle, ev.newPeer, nil
	case <-sc.closed:
		return InvalidHandle, nil, errors.WrapTransient(
			errors.ErrShuttingDown, "ServerConnection", "WaitForConnectionEvent", "multiplexer wait")
	}
}

// AcceptConnection completes acceptance of a client: an idempotent state
// transition that starts the socket's readability monitor.
func (sc *ServerConnection) AcceptConnection(sock *AcceptedSocket) bool {
	if sock == nil || !sock.IsValid() {
		return false
	}
	sock.acceptOnce.Do(func() {
		sock.accepted = true
		sc.wg.Add(1)
		go func() {
			defer sc.wg.Done()
			sock.monitor(sc.events)
		}()
	})
	return true
}

// GetCookie returns the cookie of an accepted socket, or CookieUnknown.
func (sc *ServerConnection) GetCookie(handle Handle) types.Cookie {
	cookie := types.CookieUnknown
	synch.With(sc.lock, func() {
		if c, ok := sc.handleToCookie[handle]; ok {
			cookie = c
		}
	})
	return cookie
}

// GetClientByCookie returns the accepted socket assigned the cookie, or nil.
func (sc *ServerConnection) GetClientByCookie(cookie types.Cookie) *AcceptedSocket {
	var sock *AcceptedSocket
	synch.With(sc.lock, func() {
		if handle, ok := sc.cookieToHandle[cookie]; ok {
			sock = sc.acceptedConns[handle]
		}
	})
	return sock
}

// GetClientByHandle returns the accepted socket for handle, or nil.
func (sc *ServerConnection) GetClientByHandle(handle Handle) *AcceptedSocket {
	var sock *AcceptedSocket
	synch.With(sc.lock, func() { sock = sc.acceptedConns[handle] })
	return sock
}

// IsConnectionAccepted reports whether handle belongs to a live accepted
// socket.
func (sc *ServerConnection) IsConnectionAccepted(handle Handle) bool {
	return sc.GetClientByHandle(handle) != nil
}

// ClientCount returns the number of live accepted sockets.
func (sc *ServerConnection) ClientCount() int {
	var n int
	synch.With(sc.lock, func() { n = len(sc.acceptedConns) })
	return n
}

// CloseConnection evicts one client: removes it from every map and the
// master list and closes its socket. Safe to call for already-closed
// clients.
func (sc *ServerConnection) CloseConnection(sock *AcceptedSocket) {
	if sock == nil {
		return
	}
	sc.evict(sock.handle)
}

// CloseConnectionByCookie evicts the client assigned the cookie. A second
// call with the same cookie is a no-op.
func (sc *ServerConnection) CloseConnectionByCookie(cookie types.Cookie) {
	var handle Handle
	synch.With(sc.lock, func() { handle = sc.cookieToHandle[cookie] })
	if handle == InvalidHandle {
		return
	}
	sc.evict(handle)
}

// evict removes handle from all maps under the lock, then closes the socket
// outside it.
func (sc *ServerConnection) evict(handle Handle) {
	var sock *AcceptedSocket
	synch.With(sc.lock, func() {
		sock = sc.acceptedConns[handle]
		if sock == nil {
			return
		}
		delete(sc.acceptedConns, handle)
		if cookie, ok := sc.handleToCookie[handle]; ok {
			delete(sc.cookieToHandle, cookie)
		}
		delete(sc.handleToCookie, handle)
		for i, h := range sc.masterList {
			if h == handle {
				sc.masterList = append(sc.masterList[:i], sc.masterList[i+1:]...)
				break
			}
		}
	})
	if sock != nil {
		sock.close()
		sc.logger.Debug("client evicted", "handle", int64(handle))
	}
}

// CloseSocket closes the listener and every accepted socket and clears all
// maps. Blocked WaitForConnectionEvent calls return ErrShuttingDown.
func (sc *ServerConnection) CloseSocket() {
	sc.closeOnce.Do(func() { close(sc.closed) })

	var listener *net.TCPListener
	var socks []*AcceptedSocket
	synch.With(sc.lock, func() {
		listener = sc.listener
		sc.listener = nil
		for _, s := range sc.acceptedConns {
			socks = append(socks, s)
		}
		sc.acceptedConns = make(map[Handle]*AcceptedSocket)
		sc.cookieToHandle = make(map[types.Cookie]Handle)
		sc.handleToCookie = make(map[Handle]types.Cookie)
		sc.masterList = nil
	})

	if listener != nil {
		_ = listener.Close()
	}
	for _, s := range socks {
		s.close()
	}
	sc.wg.Wait()
}

// DisableSend puts a client in read-only mode; no further send is possible.
func (sc *ServerConnection) DisableSend(sock *AcceptedSocket) bool {
	return sock != nil && sock.IsValid() && sock.DisableSend()
}

// DisableReceive puts a client in write-only mode; no further receive is
// possible.
func (sc *ServerConnection) DisableReceive(sock *AcceptedSocket) bool {
	return sock != nil && sock.IsValid() && sock.DisableReceive()
}
