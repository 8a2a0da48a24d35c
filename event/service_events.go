package event

import (
	"github.com/c360/servicebus/types"
)

// ServiceRequestEvent is a request call addressed to a stub. The payload is
// opaque to this layer; the concrete service decodes it.
type ServiceRequestEvent struct {
	Base
	Target    types.StubAddress
	Source    types.ProxyAddress
	RequestID uint32
	SeqNr     uint32
	Data      []byte
}

// NewServiceRequestEvent creates a local request event.
func NewServiceRequestEvent(
	target types.StubAddress, source types.ProxyAddress,
	requestID, seqNr uint32, data []byte,
) *ServiceRequestEvent {
	return &ServiceRequestEvent{
		Base:      NewBase(ClassServiceRequestEvent),
		Target:    target,
		Source:    source,
		RequestID: requestID,
		SeqNr:     seqNr,
		Data:      data,
	}
}

// NotifyRequestEvent asks a stub to add or remove an attribute-update
// subscription for the source proxy.
type NotifyRequestEvent struct {
	Base
	Target    types.StubAddress
	Source    types.ProxyAddress
	AttrID    uint32
	Subscribe bool
}

// NewNotifyRequestEvent creates a local notify-request event.
func NewNotifyRequestEvent(
	target types.StubAddress, source types.ProxyAddress,
	attrID uint32, subscribe bool,
) *NotifyRequestEvent {
	return &NotifyRequestEvent{
		Base:      NewBase(ClassNotifyRequestEvent),
		Target:    target,
		Source:    source,
		AttrID:    attrID,
		Subscribe: subscribe,
	}
}

// ServiceResponseEvent carries a response or an attribute update to a proxy.
// MessageID is the response ID for request replies and the attribute ID for
// update notifications; SeqNr correlates replies with the originating call
// and is SequenceNotify for subscription updates.
type ServiceResponseEvent struct {
	Base
	Target    types.ProxyAddress
	MessageID uint32
	SeqNr     uint32
	Result    types.ResultCode
	Data      []byte
}

// NewServiceResponseEvent creates a response event.
func NewServiceResponseEvent(
	target types.ProxyAddress, messageID, seqNr uint32,
	result types.ResultCode, data []byte,
) *ServiceResponseEvent {
	return &ServiceResponseEvent{
		Base:      NewBase(ClassServiceResponseEvent),
		Target:    target,
		MessageID: messageID,
		SeqNr:     seqNr,
		Result:    result,
		Data:      data,
	}
}

// RemoteRequestEvent is a request reconstructed from a wire frame. It keeps
// the routing cookies so the response can travel back over the same
// connection.
type RemoteRequestEvent struct {
	ServiceRequestEvent
	SourceCookie types.Cookie
	TargetCookie types.Cookie
}

// NewRemoteRequestEvent creates a request event deserialized from the wire.
func NewRemoteRequestEvent(
	target types.StubAddress, source types.ProxyAddress,
	requestID, seqNr uint32, data []byte,
	sourceCookie, targetCookie types.Cookie,
) *RemoteRequestEvent {
	e := &RemoteRequestEvent{
		ServiceRequestEvent: ServiceRequestEvent{
			Base:      NewBase(ClassRemoteRequestEvent),
			Target:    target,
			Source:    source,
			RequestID: requestID,
			SeqNr:     seqNr,
			Data:      data,
		},
		SourceCookie: sourceCookie,
		TargetCookie: targetCookie,
	}
	return e
}

// RemoteNotifyRequestEvent is a notify request reconstructed from a wire
// frame.
type RemoteNotifyRequestEvent struct {
	NotifyRequestEvent
	SourceCookie types.Cookie
	TargetCookie types.Cookie
}

// NewRemoteNotifyRequestEvent creates a notify-request event deserialized
// from the wire.
func NewRemoteNotifyRequestEvent(
	target types.StubAddress, source types.ProxyAddress,
	attrID uint32, subscribe bool,
	sourceCookie, targetCookie types.Cookie,
) *RemoteNotifyRequestEvent {
	return &RemoteNotifyRequestEvent{
		NotifyRequestEvent: NotifyRequestEvent{
			Base:      NewBase(ClassRemoteNotifyRequestEvent),
			Target:    target,
			Source:    source,
			AttrID:    attrID,
			Subscribe: subscribe,
		},
		SourceCookie: sourceCookie,
		TargetCookie: targetCookie,
	}
}
