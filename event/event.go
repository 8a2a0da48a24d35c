// Package event defines the polymorphic event hierarchy exchanged between
// proxies and stubs, and the dispatcher contract that delivers them.
//
// Events are identified by runtime class (classid package) rather than Go
// type identity, so the same routing works for events created locally and
// events reconstructed from wire frames. Consumers register for a class and
// receive every event whose class chain contains it.
package event

import "github.com/c360/servicebus/classid"

// Class hierarchy of the events known at this layer. Derived event classes
// chain to their parent so consumers registered for a base class receive
// derived instances too.
var (
	// ClassEvent is the root of the event hierarchy.
	ClassEvent = classid.MustRegister(classid.NewClass("Event", nil))

	// ClassServiceRequestEvent identifies request calls addressed to a stub.
	ClassServiceRequestEvent = classid.MustRegister(classid.NewClass("ServiceRequestEvent", ClassEvent))

	// ClassNotifyRequestEvent identifies attribute subscribe/unsubscribe
	// requests addressed to a stub.
	ClassNotifyRequestEvent = classid.MustRegister(classid.NewClass("NotifyRequestEvent", ClassEvent))

	// ClassServiceResponseEvent identifies responses and attribute updates
	// addressed to a proxy.
	ClassServiceResponseEvent = classid.MustRegister(classid.NewClass("ServiceResponseEvent", ClassEvent))

	// ClassStubEvent is the base of connection-lifecycle events addressed
	// to a stub.
	ClassStubEvent = classid.MustRegister(classid.NewClass("StubEvent", ClassEvent))

	// ClassStubRegisteredEvent identifies registration-status changes.
	ClassStubRegisteredEvent = classid.MustRegister(classid.NewClass("StubRegisteredEvent", ClassStubEvent))

	// ClassClientConnectEvent identifies proxy connect/disconnect notices.
	ClassClientConnectEvent = classid.MustRegister(classid.NewClass("ClientConnectEvent", ClassStubEvent))

	// ClassRemoteRequestEvent identifies request events deserialized from
	// wire frames by the router layer.
	ClassRemoteRequestEvent = classid.MustRegister(classid.NewClass("RemoteRequestEvent", ClassServiceRequestEvent))

	// ClassRemoteNotifyRequestEvent identifies notify-request events
	// deserialized from wire frames.
	ClassRemoteNotifyRequestEvent = classid.MustRegister(
		classid.NewClass("RemoteNotifyRequestEvent", ClassNotifyRequestEvent))
)

// Event is the common contract of everything the dispatcher delivers.
type Event interface {
	classid.Object
}

// Base provides the RuntimeClass plumbing for concrete events. Embed it and
// set the class at construction.
type Base struct {
	class *classid.Class
}

// NewBase creates the embedded base for a concrete event class.
func NewBase(class *classid.Class) Base {
	return Base{class: class}
}

// RuntimeClass returns the event's declared class.
func (b Base) RuntimeClass() *classid.Class {
	if b.class == nil {
		return ClassEvent
	}
	return b.class
}

// Consumer processes events delivered by a dispatcher. ProcessEvent runs on the
// dispatcher's goroutine; implementations must not block it indefinitely.
type Consumer interface {
	ProcessEvent(e Event)
}

// Dispatcher delivers events to registered consumers in FIFO order per
// target. Post is non-blocking: it enqueues and returns.
type Dispatcher interface {
	// RegisterConsumer subscribes c to events whose class chain contains
	// class. Registering the same pair twice is an error.
	RegisterConsumer(class *classid.Class, c Consumer) error

	// UnregisterConsumer removes a subscription. Unknown pairs are ignored.
	UnregisterConsumer(class *classid.Class, c Consumer)

	// Post enqueues e for delivery. Events posted from one goroutine are
	// delivered in the order posted.
	Post(e Event) error
}
