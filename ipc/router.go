package ipc

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/event"
	"github.com/c360/servicebus/metric"
	"github.com/c360/servicebus/pkg/retry"
	"github.com/c360/servicebus/pkg/worker"
	"github.com/c360/servicebus/types"
)

// RouterConfig configures the message router service.
type RouterConfig struct {
	Host      string `json:"host"`
	Port      uint16 `json:"port"`
	Workers   int    `json:"workers"`    // frame forwarding workers; 1 preserves ordering
	QueueSize int    `json:"queue_size"` // pending frame bound
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Host:      "0.0.0.0",
		Port:      8181,
		Workers:   1,
		QueueSize: 1024,
	}
}

// routeWork is one inbound frame awaiting forwarding.
type routeWork struct {
	frame  *Frame
	source types.Cookie
}

// RouterOption configures a Router at construction.
type RouterOption func(*Router)

// WithRouterLogger sets the router's logger.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = logger }
}

// WithRouterMetrics attaches the framework core metrics to the router and
// its multiplexer.
func WithRouterMetrics(registry *metric.MetricsRegistry) RouterOption {
	return func(r *Router) { r.metrics = registry.CoreMetrics() }
}

// WithDisconnectFunc sets the callback invoked with the cookie of every
// client that disconnects or is evicted. The dispatcher layer uses it to
// emit client-disconnect events to stubs.
func WithDisconnectFunc(fn func(types.Cookie)) RouterOption {
	return func(r *Router) { r.onDisconnect = fn }
}

// WithLocalDispatcher makes the router host stubs of its own process:
// frames addressed to CookieLocal are deserialized into remote events and
// posted to d instead of being forwarded.
func WithLocalDispatcher(d event.Dispatcher) RouterOption {
	return func(r *Router) { r.localDispatch = d }
}

// Router is the routing service: it accepts clients on the server
// multiplexer and reads wire frames in a dedicated service goroutine. The
// worker pool then either forwards each frame to the client its target
// cookie names, or — for frames addressed to the local process — decodes
// the payload into a typed remote event and posts it to the configured
// dispatcher.
type Router struct {
	cfg    RouterConfig
	server *ServerConnection
	pool   *worker.Pool[routeWork]

	logger        *slog.Logger
	metrics       *metric.Metrics
	onDisconnect  func(types.Cookie)
	localDispatch event.Dispatcher

	started bool
	done    chan struct{}
}

// NewRouter creates a router from config.
func NewRouter(cfg RouterConfig, opts ...RouterOption) *Router {
	r := &Router{
		cfg:    cfg,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.server = NewServerConnection(r.logger)
	if r.metrics != nil {
		r.server.SetMetrics(r.metrics)
	}
	r.pool = worker.NewPool(cfg.Workers, cfg.QueueSize, r.processRoute)
	return r
}

// Server exposes the underlying multiplexer, mainly for tests and
// administrative surfaces.
func (r *Router) Server() *ServerConnection { return r.server }

// Start binds the listening socket and launches the service loop. Binding
// retries briefly so a restarted router can reclaim its port.
func (r *Router) Start(ctx context.Context) error {
	if r.started {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Router", "Start", "already started check")
	}

	if !r.server.CreateSocket(r.cfg.Host, r.cfg.Port) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Router", "Start", "socket address resolution")
	}

	err := retry.Do(ctx, errors.ConnectBackoff(), func() error {
		if !r.server.ServerListen(types.MaxListenQueue) {
			return errors.MarkForRetry(errors.ErrNoConnection)
		}
		return nil
	})
	if err != nil {
		return errors.WrapTransient(err, "Router", "Start", "server listen")
	}

	if err := r.pool.Start(ctx); err != nil {
		r.server.CloseSocket()
		return errors.Wrap(err, "Router", "Start", "worker pool start")
	}

	r.started = true
	go r.serviceLoop()
	r.logger.Info("message router started", "host", r.cfg.Host, "port", r.cfg.Port)
	return nil
}

// Stop closes the multiplexer and drains the forwarding pool.
func (r *Router) Stop(timeout time.Duration) error {
	if !r.started {
		return nil
	}
	r.server.CloseSocket()

	select {
	case <-r.done:
	case <-time.After(timeout):
		return errors.WrapTransient(errors.ErrConnectionTimeout, "Router", "Stop", "service loop drain")
	}

	return r.pool.Stop(timeout)
}

// serviceLoop runs the blocking connection wait. Each iteration handles
// exactly one multiplexer event: a new accept, readable data, or a closure.
func (r *Router) serviceLoop() {
	defer close(r.done)

	for {
		handle, newPeer, err := r.server.WaitForConnectionEvent()
		if err != nil {
			// Multiplexer closed.
			return
		}

		sock := r.server.GetClientByHandle(handle)
		if sock == nil {
			// Already evicted between signal and lookup.
			continue
		}

		if newPeer != nil {
			r.server.AcceptConnection(sock)
			if r.metrics != nil {
				r.metrics.ConnectionsAccepted.Inc()
				r.metrics.ConnectionsActive.Set(float64(r.server.ClientCount()))
			}
			r.logger.Info("client connection accepted",
				"peer", newPeer.String(), "cookie", uint64(r.server.GetCookie(handle)))
			continue
		}

		frame, err := sock.RecvFrame()
		if err != nil {
			r.evictClient(sock)
			continue
		}

		source := r.server.GetCookie(handle)
		if err := r.pool.Submit(routeWork{frame: frame, source: source}); err != nil {
			r.logger.Warn("frame dropped", "source", uint64(source), "error", err)
		}
	}
}

// processRoute handles one inbound frame on the worker pool: local frames
// are decoded and dispatched, everything else is forwarded to the client
// its target cookie names.
func (r *Router) processRoute(_ context.Context, w routeWork) error {
	switch w.frame.TargetCookie {
	case types.CookieRouter:
		// Addressed to the router itself; nothing at this layer consumes
		// router-directed frames yet.
		r.logger.Debug("router-addressed frame ignored", "source", uint64(w.source))
		return nil
	case types.CookieLocal:
		return r.deliverLocal(w)
	}

	target := r.server.GetClientByCookie(w.frame.TargetCookie)
	if target == nil {
		r.logger.Warn("frame for unknown cookie dropped",
			"target", uint64(w.frame.TargetCookie), "source", uint64(w.source))
		return errors.WrapTransient(errors.ErrCookieUnknown, "Router", "processRoute", "target lookup")
	}

	if err := target.SendFrame(w.frame); err != nil {
		r.evictClient(target)
		return err
	}

	if r.metrics != nil {
		r.metrics.FramesRouted.Inc()
	}
	return nil
}

// deliverLocal deserializes a frame addressed to this process into its
// typed remote event and posts it to the local dispatcher. The decode runs
// here, on the worker pool, so a malformed payload never stalls the
// service loop.
func (r *Router) deliverLocal(w routeWork) error {
	if r.localDispatch == nil {
		r.logger.Warn("local frame dropped, no dispatcher configured", "source", uint64(w.source))
		return errors.WrapTransient(errors.ErrNotDispatching, "Router", "deliverLocal", "dispatcher check")
	}

	e, err := DecodeEvent(w.frame)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("router", "decode")
		}
		r.logger.Warn("undecodable local frame dropped",
			"source", uint64(w.source), "class_magic", w.frame.ClassMagic, "error", err)
		return err
	}

	if err := r.localDispatch.Post(e); err != nil {
		return errors.Wrap(err, "Router", "deliverLocal", "event dispatch")
	}
	if r.metrics != nil {
		r.metrics.FramesRouted.Inc()
	}
	return nil
}

// evictClient removes a failed client from the multiplexer and notifies the
// dispatcher layer of the disconnect.
func (r *Router) evictClient(sock *AcceptedSocket) {
	cookie := r.server.GetCookie(sock.Handle())
	r.server.CloseConnection(sock)

	if r.metrics != nil {
		r.metrics.ConnectionsEvicted.Inc()
		r.metrics.ConnectionsActive.Set(float64(r.server.ClientCount()))
	}
	r.logger.Info("client disconnected", "cookie", uint64(cookie))

	if r.onDisconnect != nil && cookie != types.CookieUnknown {
		r.onDisconnect(cookie)
	}
}
