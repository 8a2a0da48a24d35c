package ipc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/servicebus/classid"
	"github.com/c360/servicebus/types"
)

func TestFrame_WriteRead(t *testing.T) {
	f := &Frame{
		TargetCookie: types.Cookie(7),
		SourceCookie: types.CookieFirstValid,
		ClassMagic:   classid.Magic("RemoteRequestEvent"),
		Payload:      []byte("serialized request"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, f))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)

	assert.Equal(t, f.TargetCookie, got.TargetCookie)
	assert.Equal(t, f.SourceCookie, got.SourceCookie)
	assert.Equal(t, f.ClassMagic, got.ClassMagic)
	assert.Equal(t, f.Payload, got.Payload)
}

func TestFrame_EmptyPayload(t *testing.T) {
	f := &Frame{TargetCookie: 1, SourceCookie: 2, ClassMagic: 3}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, f))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Empty(t, got.Payload)
}

func TestFrame_MultipleOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		f := &Frame{TargetCookie: types.Cookie(i + 1), Payload: []byte{byte(i)}}
		require.NoError(t, WriteFrame(&buf, f))
	}

	for i := 0; i < 3; i++ {
		got, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, types.Cookie(i+1), got.TargetCookie)
		assert.Equal(t, []byte{byte(i)}, got.Payload)
	}
}

func TestFrame_EncodeRejectsOversizedPayload(t *testing.T) {
	f := &Frame{Payload: make([]byte, MaxFramePayload+1)}
	_, err := f.Encode(nil)
	assert.Error(t, err)
}

func TestReadFrame_RejectsBadLengths(t *testing.T) {
	t.Run("below header size", func(t *testing.T) {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.BigEndian, uint32(4))
		buf.Write(make([]byte, 4))
		_, err := ReadFrame(&buf)
		assert.Error(t, err)
	})

	t.Run("above limit", func(t *testing.T) {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.BigEndian, uint32(frameHeaderSize+MaxFramePayload+1))
		_, err := ReadFrame(&buf)
		assert.Error(t, err)
	})
}

func TestReadFrame_TruncatedStream(t *testing.T) {
	f := &Frame{TargetCookie: 1, Payload: []byte("payload")}
	encoded, err := f.Encode(nil)
	require.NoError(t, err)

	_, err = ReadFrame(bytes.NewReader(encoded[:len(encoded)-3]))
	assert.Error(t, err)
}
