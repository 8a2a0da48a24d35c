// Package stub implements the service-side dispatch core: the listener
// registry tracking pending requests and attribute subscriptions, the
// request/response state machine with busy rejection and unblocked sessions,
// and the process-wide stub registry.
//
// A stub is confined to its component's dispatcher goroutine: every
// ProcessEvent callback and every Send method runs there, so the listener
// list and session map need no locking.
package stub

import (
	"log/slog"

	"github.com/c360/servicebus/classid"
	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/event"
	"github.com/c360/servicebus/types"
)

// Handler is the concrete service logic a stub dispatches into. The stub
// base handles correlation, busy rejection, and subscription bookkeeping;
// the handler implements the actual operations.
type Handler interface {
	// ProcessRequest executes the service method bound to the event's
	// request ID. For requests with a paired response the handler (or code
	// it defers to) eventually calls SendResponse, UnblockCurrentRequest,
	// or CancelCurrentRequest on the stub.
	ProcessRequest(e *event.ServiceRequestEvent)

	// AttributeValue returns the current serialized value of an attribute
	// and whether the value is valid. Invalid attributes yield updates with
	// ResultDataInvalid and no payload.
	AttributeValue(attrID uint32) ([]byte, bool)
}

// Sender delivers outbound events toward their target proxy. Posting is
// non-blocking; the component wires the stub to its routing environment.
// An event.Dispatcher satisfies Sender for purely local delivery.
type Sender interface {
	Post(e event.Event) error
}

// Option configures a stub at construction.
type Option func(*Stub)

// WithLogger sets the stub's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stub) { s.logger = logger }
}

// WithRegistry registers the stub in reg instead of the process-wide
// registry. Tests use this for isolation.
func WithRegistry(reg *Registry) Option {
	return func(s *Stub) { s.registry = reg }
}

// WithMetrics attaches dispatch counters to the stub.
func WithMetrics(m *Metrics) Option {
	return func(s *Stub) { s.metrics = m }
}

// Stub is the serving side of one service endpoint. It owns its listener
// list and session map exclusively.
type Stub struct {
	addr    types.StubAddress
	iface   *types.InterfaceData
	handler Handler
	sender  Sender

	registry *Registry
	logger   *slog.Logger
	metrics  *Metrics

	listeners ListenerList
	current   *Listener
	sessions  map[uint32]Listener
	sessionID uint32
	status    types.ConnectionStatus
}

// New constructs a stub for the interface described by iface, served under
// role on the named dispatcher thread, and registers it in the stub
// registry. Fails with ErrDuplicateStub when an equal address is already
// registered.
func New(role, thread string, iface *types.InterfaceData, handler Handler, sender Sender, opts ...Option) (*Stub, error) {
	if iface == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Stub", "New", "interface data validation")
	}
	if err := iface.Validate(); err != nil {
		return nil, errors.Wrap(err, "Stub", "New", "interface data validation")
	}
	if handler == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Stub", "New", "handler validation")
	}
	if sender == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Stub", "New", "sender validation")
	}

	s := &Stub{
		addr:     types.NewStubAddress(iface.Name, role, thread),
		iface:    iface,
		handler:  handler,
		sender:   sender,
		registry: defaultRegistry,
		logger:   slog.Default(),
		sessions: make(map[uint32]Listener),
		status:   types.StatusUnknown,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.registry.Register(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Address returns the stub's address.
func (s *Stub) Address() types.StubAddress { return s.addr }

// Interface returns the served interface descriptor.
func (s *Stub) Interface() *types.InterfaceData { return s.iface }

// ConnectionStatus returns the last registration status the stub saw.
func (s *Stub) ConnectionStatus() types.ConnectionStatus { return s.status }

// PendingCount returns the number of listener entries, requests and
// subscriptions combined.
func (s *Stub) PendingCount() int { return s.listeners.Len() }

// Startup registers the stub's event consumer with its component's
// dispatcher. Invoked by the component when it starts.
func (s *Stub) Startup(d event.Dispatcher) error {
	if err := d.RegisterConsumer(event.ClassServiceRequestEvent, s); err != nil {
		return err
	}
	if err := d.RegisterConsumer(event.ClassNotifyRequestEvent, s); err != nil {
		d.UnregisterConsumer(event.ClassServiceRequestEvent, s)
		return err
	}
	if err := d.RegisterConsumer(event.ClassStubEvent, s); err != nil {
		d.UnregisterConsumer(event.ClassServiceRequestEvent, s)
		d.UnregisterConsumer(event.ClassNotifyRequestEvent, s)
		return err
	}
	s.logger.Debug("stub started", "stub", s.addr.Key())
	return nil
}

// Shutdown cancels all pending work, unregisters the event consumer, and
// removes the stub from the registry. Invoked by the component when it
// stops.
func (s *Stub) Shutdown(d event.Dispatcher) {
	s.CancelAllRequests()
	s.listeners.Clear()
	clear(s.sessions)

	if d != nil {
		d.UnregisterConsumer(event.ClassServiceRequestEvent, s)
		d.UnregisterConsumer(event.ClassNotifyRequestEvent, s)
		d.UnregisterConsumer(event.ClassStubEvent, s)
	}
	s.registry.Unregister(s.addr)
	s.logger.Debug("stub shut down", "stub", s.addr.Key())
}

// ProcessEvent implements event.Consumer. It routes by the event's runtime
// class and drops events addressed to other stubs.
func (s *Stub) ProcessEvent(e event.Event) {
	if req, ok := classid.Cast[*event.ServiceRequestEvent](e, event.ClassServiceRequestEvent.ID()); ok {
		if req.Target.Key() == s.addr.Key() {
			s.processRequestEvent(req)
		}
		return
	}
	if remote, ok := classid.Cast[*event.RemoteRequestEvent](e, event.ClassRemoteRequestEvent.ID()); ok {
		if remote.Target.Key() == s.addr.Key() {
			s.processRequestEvent(&remote.ServiceRequestEvent)
		}
		return
	}
	if notify, ok := classid.Cast[*event.NotifyRequestEvent](e, event.ClassNotifyRequestEvent.ID()); ok {
		if notify.Target.Key() == s.addr.Key() {
			s.processAttributeEvent(notify)
		}
		return
	}
	if remote, ok := classid.Cast[*event.RemoteNotifyRequestEvent](e, event.ClassRemoteNotifyRequestEvent.ID()); ok {
		if remote.Target.Key() == s.addr.Key() {
			s.processAttributeEvent(&remote.NotifyRequestEvent)
		}
		return
	}
	if reg, ok := classid.Cast[*event.StubRegisteredEvent](e, event.ClassStubRegisteredEvent.ID()); ok {
		if reg.Stub.Key() == s.addr.Key() {
			s.processStubRegistered(reg)
		}
		return
	}
	if conn, ok := classid.Cast[*event.ClientConnectEvent](e, event.ClassClientConnectEvent.ID()); ok {
		if conn.Stub.Key() == s.addr.Key() {
			s.ClientConnected(conn.Client, conn.Status.IsConnected())
		}
		return
	}

	s.logger.Warn("unexpected event class",
		"stub", s.addr.Key(), "event_class", e.RuntimeClass().ID().Name())
}

// processRequestEvent runs the request lifecycle: busy check, listener
// insertion, and invocation of the service logic.
func (s *Stub) processRequestEvent(e *event.ServiceRequestEvent) {
	trial := Listener{MessageID: e.RequestID, SequenceNr: e.SeqNr, Proxy: e.Source}

	if !s.canExecuteRequest(trial, s.iface.ResponseForRequest(e.RequestID)) {
		if s.metrics != nil {
			s.metrics.BusyRejections.Inc()
		}
		return
	}

	if s.metrics != nil {
		s.metrics.RequestsProcessed.Inc()
	}
	s.handler.ProcessRequest(e)
}

// canExecuteRequest decides whether a request may run. Requests with no
// paired response execute immediately without tracking. A request whose
// response is still pending and not unblocked is refused with a busy
// response; otherwise the listener is inserted at the tail and becomes the
// current listener.
func (s *Stub) canExecuteRequest(trial Listener, respID uint32) bool {
	if respID == types.InvalidMessageID {
		// Fire-and-forget: nothing to track.
		s.current = nil
		return true
	}

	if s.listeners.Busy(trial.MessageID) {
		s.sendBusyResponse(trial, respID)
		return false
	}

	inserted := s.listeners.InsertRequestPending(trial.MessageID, trial.SequenceNr, trial.Proxy)
	s.current = &inserted
	return true
}

// sendBusyResponse refuses a request whose response is still pending.
func (s *Stub) sendBusyResponse(l Listener, respID uint32) {
	s.logger.Debug("busy rejection",
		"stub", s.addr.Key(), "request_id", l.MessageID, "proxy", l.Proxy.String())
	s.emit(event.NewServiceResponseEvent(l.Proxy, respID, l.SequenceNr, types.ResultSourceBusy, nil))
}

// SendResponse completes the request paired with respID. While a request is
// being serviced (or was reinstalled by PrepareResponse) the response goes
// to the current listener alone. Outside a request context it fans out to
// every pending listener of the paired request. Delivered listeners are
// removed and the current listener is cleared.
func (s *Stub) SendResponse(respID uint32, data []byte) {
	reqID := s.iface.RequestForResponse(respID)
	if reqID == types.InvalidMessageID {
		s.logger.Warn("response id has no paired request", "stub", s.addr.Key(), "response_id", respID)
		return
	}

	if s.current != nil && s.current.MessageID == reqID {
		l := *s.current
		s.emit(event.NewServiceResponseEvent(l.Proxy, respID, l.SequenceNr, types.ResultOK, data))
		s.listeners.Remove(l)
		s.current = nil
		if s.metrics != nil {
			s.metrics.ResponsesSent.Inc()
		}
		return
	}

	for _, l := range s.listeners.FindAll(reqID) {
		if l.IsNotification() {
			continue
		}
		s.emit(event.NewServiceResponseEvent(l.Proxy, respID, l.SequenceNr, types.ResultOK, data))
		s.listeners.Remove(l)
		if s.metrics != nil {
			s.metrics.ResponsesSent.Inc()
		}
	}
	s.current = nil
}

// CancelCurrentRequest cancels the request being serviced: the current
// listener receives ResultRequestCanceled and is removed.
func (s *Stub) CancelCurrentRequest() {
	if s.current == nil {
		return
	}
	l := *s.current
	respID := s.iface.ResponseForRequest(l.MessageID)
	s.emit(event.NewServiceResponseEvent(l.Proxy, respID, l.SequenceNr, types.ResultRequestCanceled, nil))
	s.listeners.Remove(l)
	s.current = nil
}

// SendNotification emits the current value of attrID to every subscribed
// proxy, in subscription order.
func (s *Stub) SendNotification(attrID uint32) {
	value, valid := s.handler.AttributeValue(attrID)
	result := types.ResultDataOK
	if !valid {
		result = types.ResultDataInvalid
		value = nil
	}

	for _, l := range s.listeners.FindAll(attrID) {
		if !l.IsNotification() {
			continue
		}
		s.emit(event.NewServiceResponseEvent(l.Proxy, attrID, types.SequenceNotify, result, value))
		if s.metrics != nil {
			s.metrics.NotificationsSent.Inc()
		}
	}
}

// InvalidateAttribute sends one update with ResultDataInvalid and no payload
// to every subscriber of attrID.
func (s *Stub) InvalidateAttribute(attrID uint32) {
	for _, l := range s.listeners.FindAll(attrID) {
		if !l.IsNotification() {
			continue
		}
		s.emit(event.NewServiceResponseEvent(l.Proxy, attrID, types.SequenceNotify, types.ResultDataInvalid, nil))
	}
}

// processAttributeEvent handles a subscribe/unsubscribe request. A new
// subscriber immediately receives one update carrying the current value.
func (s *Stub) processAttributeEvent(e *event.NotifyRequestEvent) {
	if !e.Subscribe {
		s.listeners.RemoveNotification(e.AttrID, e.Source)
		return
	}

	if !s.listeners.InsertNotification(e.AttrID, e.Source) {
		// Duplicate subscription: state unchanged, no update emitted.
		return
	}

	value, valid := s.handler.AttributeValue(e.AttrID)
	result := types.ResultDataOK
	if !valid {
		result = types.ResultDataInvalid
		value = nil
	}
	s.emit(event.NewServiceResponseEvent(e.Source, e.AttrID, types.SequenceNotify, result, value))
}

// ErrorAllRequests emits a terminal event for every tracked entry — pending
// requests and saved sessions receive ResultRequestError, subscriptions
// receive ResultDataInvalid — then clears the listener list and the session
// map.
func (s *Stub) ErrorAllRequests() {
	s.failAll(types.ResultRequestError)
	s.listeners.Clear()
	clear(s.sessions)
	s.current = nil
}

// CancelAllRequests cancels every pending request and saved session with
// ResultRequestCanceled. Attribute subscriptions survive.
func (s *Stub) CancelAllRequests() {
	s.failAll(types.ResultRequestCanceled)

	for _, l := range s.listeners.All() {
		if !l.IsNotification() {
			s.listeners.Remove(l)
		}
	}
	clear(s.sessions)
	s.current = nil
}

// failAll emits terminal events for pending requests and sessions with the
// given result, and for notification entries with ResultDataInvalid when the
// result is an error (not a cancellation).
func (s *Stub) failAll(result types.ResultCode) {
	for _, l := range s.listeners.All() {
		if l.IsNotification() {
			if result == types.ResultRequestError {
				s.emit(event.NewServiceResponseEvent(
					l.Proxy, l.MessageID, types.SequenceNotify, types.ResultDataInvalid, nil))
			}
			continue
		}
		respID := s.iface.ResponseForRequest(l.MessageID)
		s.emit(event.NewServiceResponseEvent(l.Proxy, respID, l.SequenceNr, result, nil))
	}

	for _, l := range s.sessions {
		respID := s.iface.ResponseForRequest(l.MessageID)
		s.emit(event.NewServiceResponseEvent(l.Proxy, respID, l.SequenceNr, result, nil))
	}
}

// ClientConnected reacts to a proxy client's connection change. On
// disconnect every listener of that proxy is dropped without emitting
// events, and sessions saved for it are purged.
func (s *Stub) ClientConnected(client types.ProxyAddress, isConnected bool) {
	if isConnected {
		s.logger.Debug("client connected", "stub", s.addr.Key(), "client", client.String())
		return
	}

	removed := s.listeners.RemoveAllForProxy(client)
	for sid, l := range s.sessions {
		if l.Proxy == client {
			delete(s.sessions, sid)
		}
	}
	if s.current != nil && s.current.Proxy == client {
		s.current = nil
	}
	s.logger.Debug("client disconnected",
		"stub", s.addr.Key(), "client", client.String(), "dropped_listeners", len(removed))
}

// processStubRegistered updates the connection status. A transition to
// disconnected errors out all tracked work.
func (s *Stub) processStubRegistered(e *event.StubRegisteredEvent) {
	s.status = e.Status
	s.logger.Debug("registration status changed", "stub", s.addr.Key(), "status", e.Status.String())

	if e.Status == types.StatusDisconnected {
		s.ErrorAllRequests()
	}
}

// emit posts an outbound event, logging delivery failures. Emitting never
// blocks the dispatcher goroutine.
func (s *Stub) emit(e event.Event) {
	if err := s.sender.Post(e); err != nil {
		s.logger.Error("event delivery failed", "stub", s.addr.Key(), "error", err)
	}
}
