// Package servicebus provides an asynchronous event-driven service
// framework. Components export service interfaces; every endpoint has two
// sides: a Stub (the implementation, living inside a component) and a Proxy
// (the client-side handle held by other components). Stubs and proxies
// exchange requests, responses, and attribute-update notifications
// asynchronously — across goroutines in one process, or across processes
// through a TCP message router.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│          Component                  │  One dispatcher goroutine,
//	│   (owns dispatcher + stubs)         │  FIFO event delivery
//	└─────────────────────────────────────┘
//	           ↓ dispatches
//	┌─────────────────────────────────────┐
//	│            Stubs                    │  Listener list, sessions,
//	│  (request/response state machine)   │  busy rejection, subscriptions
//	└─────────────────────────────────────┘
//	           ↓ remote peers via
//	┌─────────────────────────────────────┐
//	│        Message Router (ipc)         │  TCP accept, cookie maps,
//	│   (frame routing by target cookie)  │  frame forwarding
//	└─────────────────────────────────────┘
//
// # Request lifecycle
//
// An inbound request event reaches a stub on its component's dispatcher
// goroutine. If the request has no paired response it executes immediately.
// Otherwise the stub checks whether an earlier call for the same request ID
// is still pending: if so, the new caller receives a busy response and the
// service logic is never invoked; if not, the call is tracked in the
// listener list and dispatched into the service. The service completes with
// SendResponse, cancels with CancelCurrentRequest, or detaches the reply
// with UnblockCurrentRequest to answer later through a session.
//
// Attribute subscriptions share the listener list, distinguished by a
// sentinel sequence number. A new subscriber immediately receives the
// current value; SendNotification fans updates out in subscription order;
// InvalidateAttribute pushes a data-invalid update to every subscriber.
//
// # Remote peers
//
// The ipc package owns the process boundary: a server multiplexer accepts
// TCP clients, assigns each a monotonically increasing cookie, and keeps
// cookie↔socket maps consistent under one lock. Wire frames carry
// (target cookie, source cookie, class magic, payload); the router forwards
// each frame to the client its target cookie names and evicts clients whose
// sockets fail. Runtime class identity (classid package) lets the receiving
// side rebuild typed events from the class magic without language RTTI.
//
// # Framework packages
//
// Core:
//   - classid: runtime class identity (name + 32-bit magic, is-a, downcast)
//   - types: addresses, interface descriptors, result codes, constants
//   - event: event hierarchy and dispatcher contracts
//   - dispatch: per-component FIFO event dispatcher
//   - stub: listener registry, session map, dispatch state machine
//   - ipc: wire frames, server multiplexer, message router
//   - component: component lifecycle gluing dispatcher and stubs
//
// Infrastructure:
//   - errors: classified errors and wrap conventions
//   - metric: Prometheus metrics registry
//   - synch: timed synchronization primitive abstraction
//   - pkg/retry: exponential backoff
//   - pkg/worker: instrumented worker pools
//
// # Binary
//
// cmd/sbrouter runs the standalone message router:
//
//	# Run on the default port
//	./bin/sbrouter
//
//	# Custom port with debug logging
//	./bin/sbrouter --port=9181 --log-level=debug --log-format=text
package servicebus
