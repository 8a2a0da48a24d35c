package event

import (
	"github.com/c360/servicebus/types"
)

// StubRegisteredEvent notifies a stub of a change in its registration
// status with the routing environment.
type StubRegisteredEvent struct {
	Base
	Stub   types.StubAddress
	Status types.ConnectionStatus
}

// NewStubRegisteredEvent creates a registration-status event.
func NewStubRegisteredEvent(stub types.StubAddress, status types.ConnectionStatus) *StubRegisteredEvent {
	return &StubRegisteredEvent{
		Base:   NewBase(ClassStubRegisteredEvent),
		Stub:   stub,
		Status: status,
	}
}

// ClientConnectEvent notifies a stub that a proxy client connected or
// disconnected. On disconnect the stub purges the client's listeners and
// sessions.
type ClientConnectEvent struct {
	Base
	Stub   types.StubAddress
	Client types.ProxyAddress
	Status types.ConnectionStatus
}

// NewClientConnectEvent creates a client connect/disconnect event.
func NewClientConnectEvent(
	stub types.StubAddress, client types.ProxyAddress, status types.ConnectionStatus,
) *ClientConnectEvent {
	return &ClientConnectEvent{
		Base:   NewBase(ClassClientConnectEvent),
		Stub:   stub,
		Client: client,
		Status: status,
	}
}
