package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyAddress_InstanceTagsDiffer(t *testing.T) {
	a := NewProxyAddress("Lighting", "living-room", "main")
	b := NewProxyAddress("Lighting", "living-room", "main")

	assert.True(t, a.IsValid())
	assert.NotEqual(t, a, b, "each proxy gets a unique instance tag")
}

func TestProxyAddress_Invalid(t *testing.T) {
	assert.False(t, InvalidProxyAddress.IsValid())
	assert.Equal(t, "<invalid-proxy>", InvalidProxyAddress.String())
}

func TestProxyAddress_UsableAsMapKey(t *testing.T) {
	a := NewProxyAddress("Lighting", "living-room", "main")
	m := map[ProxyAddress]int{a: 1}
	assert.Equal(t, 1, m[a])
}

func TestStubAddress_KeyIgnoresInstance(t *testing.T) {
	a := NewStubAddress("Lighting", "living-room", "main")
	b := NewStubAddress("Lighting", "living-room", "main")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a.Key(), b.Key(), "registry key compares service identity plus thread")

	c := NewStubAddress("Lighting", "living-room", "other-thread")
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestCookie_Validity(t *testing.T) {
	assert.False(t, CookieUnknown.IsValid())
	assert.True(t, CookieLocal.IsValid())
	assert.True(t, CookieFirstValid.IsValid())
}

func TestResultCode_Strings(t *testing.T) {
	assert.Equal(t, "MESSAGE_SOURCE_BUSY", ResultSourceBusy.String())
	assert.Equal(t, "REQUEST_CANCELED", ResultRequestCanceled.String())
	assert.Equal(t, "DATA_INVALID", ResultDataInvalid.String())
	assert.Equal(t, "INVALID", ResultInvalid.String())
}

func TestResultCode_IsSuccess(t *testing.T) {
	assert.True(t, ResultOK.IsSuccess())
	assert.True(t, ResultDataOK.IsSuccess())
	assert.False(t, ResultSourceBusy.IsSuccess())
	assert.False(t, ResultRequestError.IsSuccess())
}

func TestVersion_Compatible(t *testing.T) {
	v := Version{Major: 2, Minor: 3, Patch: 0}
	assert.True(t, v.Compatible(Version{Major: 2, Minor: 1}))
	assert.True(t, v.Compatible(Version{Major: 2, Minor: 3}))
	assert.False(t, v.Compatible(Version{Major: 2, Minor: 4}))
	assert.False(t, v.Compatible(Version{Major: 1, Minor: 0}))
	assert.Equal(t, "2.3.0", v.String())
}

func testInterface() *InterfaceData {
	return &InterfaceData{
		Name:         "Lighting",
		Version:      Version{Major: 1},
		RequestIDs:   []uint32{10, 20, 30},
		ResponseIDs:  []uint32{11, 21, InvalidMessageID},
		AttributeIDs: []uint32{42},
	}
}

func TestInterfaceData_Validate(t *testing.T) {
	require.NoError(t, testInterface().Validate())
}

func TestInterfaceData_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InterfaceData)
	}{
		{"empty name", func(d *InterfaceData) { d.Name = "" }},
		{"pairing length mismatch", func(d *InterfaceData) { d.ResponseIDs = d.ResponseIDs[:1] }},
		{"reserved request id", func(d *InterfaceData) { d.RequestIDs[0] = InvalidMessageID }},
		{"request and response collide", func(d *InterfaceData) { d.ResponseIDs[0] = 20 }},
		{"attribute collides with request", func(d *InterfaceData) { d.AttributeIDs[0] = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testInterface()
			tt.mutate(d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestInterfaceData_Pairings(t *testing.T) {
	d := testInterface()

	assert.Equal(t, uint32(11), d.ResponseForRequest(10))
	assert.Equal(t, InvalidMessageID, d.ResponseForRequest(30), "fire-and-forget request")
	assert.Equal(t, InvalidMessageID, d.ResponseForRequest(99), "unknown request")

	assert.Equal(t, uint32(10), d.RequestForResponse(11))
	assert.Equal(t, InvalidMessageID, d.RequestForResponse(InvalidMessageID))
	assert.Equal(t, InvalidMessageID, d.RequestForResponse(99))
}

func TestInterfaceData_Counts(t *testing.T) {
	d := testInterface()
	assert.Equal(t, 3, d.NumRequests())
	assert.Equal(t, 2, d.NumResponses(), "fire-and-forget pairing does not count")
	assert.Equal(t, 1, d.NumAttributes())
	assert.True(t, d.HasRequest(20))
	assert.False(t, d.HasRequest(21))
	assert.True(t, d.HasResponse(21))
	assert.False(t, d.HasResponse(InvalidMessageID))
	assert.True(t, d.HasAttribute(42))
}
