package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/servicebus/classid"
	"github.com/c360/servicebus/types"
)

func TestEventClassHierarchy(t *testing.T) {
	tests := []struct {
		name   string
		class  *classid.Class
		parent *classid.Class
	}{
		{"service request", ClassServiceRequestEvent, ClassEvent},
		{"notify request", ClassNotifyRequestEvent, ClassEvent},
		{"service response", ClassServiceResponseEvent, ClassEvent},
		{"stub registered", ClassStubRegisteredEvent, ClassStubEvent},
		{"client connect", ClassClientConnectEvent, ClassStubEvent},
		{"remote request", ClassRemoteRequestEvent, ClassServiceRequestEvent},
		{"remote notify", ClassRemoteNotifyRequestEvent, ClassNotifyRequestEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.parent, tt.class.Parent())
			assert.True(t, tt.class.Is(ClassEvent.ID()), "every event class chains to the root")
		})
	}
}

func TestEventClassesRegisteredForWireLookup(t *testing.T) {
	for _, class := range []*classid.Class{
		ClassEvent, ClassServiceRequestEvent, ClassNotifyRequestEvent,
		ClassServiceResponseEvent, ClassStubEvent, ClassStubRegisteredEvent,
		ClassClientConnectEvent, ClassRemoteRequestEvent, ClassRemoteNotifyRequestEvent,
	} {
		got, ok := classid.LookupMagic(class.ID().Magic())
		require.True(t, ok, "class %s must be resolvable from its wire magic", class.ID())
		assert.Same(t, class, got)
	}
}

func TestConcreteEventsCarryTheirClass(t *testing.T) {
	stub := types.NewStubAddress("Lighting", "living-room", "main")
	proxy := types.NewProxyAddress("Lighting", "client", "other")

	req := NewServiceRequestEvent(stub, proxy, 10, 7, []byte("args"))
	assert.Same(t, ClassServiceRequestEvent, req.RuntimeClass())

	notify := NewNotifyRequestEvent(stub, proxy, 42, true)
	assert.Same(t, ClassNotifyRequestEvent, notify.RuntimeClass())

	resp := NewServiceResponseEvent(proxy, 11, 7, types.ResultOK, nil)
	assert.Same(t, ClassServiceResponseEvent, resp.RuntimeClass())

	reg := NewStubRegisteredEvent(stub, types.StatusConnected)
	assert.Same(t, ClassStubRegisteredEvent, reg.RuntimeClass())

	conn := NewClientConnectEvent(stub, proxy, types.StatusDisconnected)
	assert.Same(t, ClassClientConnectEvent, conn.RuntimeClass())
}

func TestRemoteEventsSatisfyBaseCasts(t *testing.T) {
	stub := types.NewStubAddress("Lighting", "living-room", "main")
	proxy := types.NewProxyAddress("Lighting", "client", "remote")

	remote := NewRemoteRequestEvent(stub, proxy, 10, 7, nil, types.CookieFirstValid, types.CookieLocal)
	assert.True(t, classid.Is(remote, ClassServiceRequestEvent.ID()),
		"remote requests are service requests")

	cast, ok := classid.Cast[*RemoteRequestEvent](remote, ClassRemoteRequestEvent.ID())
	require.True(t, ok)
	assert.Equal(t, types.CookieFirstValid, cast.SourceCookie)

	remoteNotify := NewRemoteNotifyRequestEvent(stub, proxy, 42, true, types.CookieFirstValid, types.CookieLocal)
	assert.True(t, classid.Is(remoteNotify, ClassNotifyRequestEvent.ID()))
}

func TestBase_ZeroValueFallsBackToRoot(t *testing.T) {
	var b Base
	assert.Same(t, ClassEvent, b.RuntimeClass())
}
