package ipc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/servicebus/classid"
	"github.com/c360/servicebus/event"
	"github.com/c360/servicebus/types"
)

func TestEncodeDecodeRequestFrame(t *testing.T) {
	target := types.NewStubAddress("Lighting", "living-room", "main")
	source := types.NewProxyAddress("Lighting", "client", "remote")
	req := event.NewServiceRequestEvent(target, source, 10, 7, []byte("call args"))

	frame, err := EncodeRequestFrame(req, types.CookieFirstValid, types.CookieLocal)
	require.NoError(t, err)
	assert.Equal(t, event.ClassRemoteRequestEvent.ID().Magic(), frame.ClassMagic)
	assert.Equal(t, types.CookieLocal, frame.TargetCookie)
	assert.Equal(t, types.CookieFirstValid, frame.SourceCookie)

	decoded, err := DecodeEvent(frame)
	require.NoError(t, err)

	remote, ok := classid.Cast[*event.RemoteRequestEvent](decoded, event.ClassRemoteRequestEvent.ID())
	require.True(t, ok, "decoded event is a remote request by class")
	assert.Equal(t, target, remote.Target)
	assert.Equal(t, source, remote.Source)
	assert.Equal(t, uint32(10), remote.RequestID)
	assert.Equal(t, uint32(7), remote.SeqNr)
	assert.Equal(t, []byte("call args"), remote.Data)
	assert.Equal(t, types.CookieFirstValid, remote.SourceCookie, "source cookie preserved for the reply path")
	assert.Equal(t, types.CookieLocal, remote.TargetCookie)

	// A remote request still satisfies the base request class, so stubs
	// registered for service requests receive it unchanged.
	assert.True(t, classid.Is(decoded, event.ClassServiceRequestEvent.ID()))
}

func TestEncodeDecodeRequestFrame_EmptyArgs(t *testing.T) {
	target := types.NewStubAddress("Lighting", "living-room", "main")
	source := types.NewProxyAddress("Lighting", "client", "remote")
	req := event.NewServiceRequestEvent(target, source, 30, 1, nil)

	frame, err := EncodeRequestFrame(req, types.CookieFirstValid, types.CookieLocal)
	require.NoError(t, err)

	decoded, err := DecodeEvent(frame)
	require.NoError(t, err)
	remote := decoded.(*event.RemoteRequestEvent)
	assert.Nil(t, remote.Data)
}

func TestEncodeDecodeNotifyFrame(t *testing.T) {
	target := types.NewStubAddress("Lighting", "living-room", "main")
	source := types.NewProxyAddress("Lighting", "client", "remote")

	for _, subscribe := range []bool{true, false} {
		notify := event.NewNotifyRequestEvent(target, source, 42, subscribe)

		frame, err := EncodeNotifyFrame(notify, types.CookieFirstValid, types.CookieLocal)
		require.NoError(t, err)
		assert.Equal(t, event.ClassRemoteNotifyRequestEvent.ID().Magic(), frame.ClassMagic)

		decoded, err := DecodeEvent(frame)
		require.NoError(t, err)

		remote, ok := classid.Cast[*event.RemoteNotifyRequestEvent](decoded, event.ClassRemoteNotifyRequestEvent.ID())
		require.True(t, ok)
		assert.Equal(t, target, remote.Target)
		assert.Equal(t, source, remote.Source)
		assert.Equal(t, uint32(42), remote.AttrID)
		assert.Equal(t, subscribe, remote.Subscribe)
	}
}

func TestDecodeEvent_UnknownMagic(t *testing.T) {
	frame := &Frame{ClassMagic: classid.Magic("NoSuchEvent"), Payload: []byte("junk")}
	_, err := DecodeEvent(frame)
	require.Error(t, err)
}

func TestDecodeEvent_TruncatedPayload(t *testing.T) {
	target := types.NewStubAddress("Lighting", "living-room", "main")
	source := types.NewProxyAddress("Lighting", "client", "remote")
	req := event.NewServiceRequestEvent(target, source, 10, 7, nil)

	frame, err := EncodeRequestFrame(req, types.CookieFirstValid, types.CookieLocal)
	require.NoError(t, err)

	// Cut the payload inside the address fields.
	frame.Payload = frame.Payload[:8]
	_, err = DecodeEvent(frame)
	require.Error(t, err)

	// Notify decoding hits the same guard.
	frame.ClassMagic = event.ClassRemoteNotifyRequestEvent.ID().Magic()
	_, err = DecodeEvent(frame)
	require.Error(t, err)
}
