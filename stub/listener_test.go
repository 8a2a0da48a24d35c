package stub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/servicebus/types"
)

func proxyAddr(role string) types.ProxyAddress {
	return types.NewProxyAddress("Lighting", role, "main")
}

func TestListener_Matches(t *testing.T) {
	p := proxyAddr("p")
	q := proxyAddr("q")

	base := Listener{MessageID: 10, SequenceNr: 7, Proxy: p}

	tests := []struct {
		name  string
		other Listener
		want  bool
	}{
		{"identical", Listener{MessageID: 10, SequenceNr: 7, Proxy: p}, true},
		{"different message id", Listener{MessageID: 11, SequenceNr: 7, Proxy: p}, false},
		{"different sequence", Listener{MessageID: 10, SequenceNr: 8, Proxy: p}, false},
		{"different proxy", Listener{MessageID: 10, SequenceNr: 7, Proxy: q}, false},
		{"wildcard other side", Listener{MessageID: 10, SequenceNr: types.SequenceAny, Proxy: q}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Matches(tt.other))
		})
	}

	t.Run("wildcard this side", func(t *testing.T) {
		wild := Listener{MessageID: 10, SequenceNr: types.SequenceAny, Proxy: q}
		assert.True(t, wild.Matches(base))
	})
}

func TestListenerList_PendingRequests(t *testing.T) {
	var ll ListenerList
	p := proxyAddr("p")
	q := proxyAddr("q")

	ll.InsertRequestPending(10, 7, p)
	ll.InsertRequestPending(10, 4, q)

	assert.Equal(t, 2, ll.Len(), "same message id with distinct (seq, proxy) are distinct calls")
	assert.True(t, ll.Busy(10))
	assert.False(t, ll.Busy(20))

	found := ll.FindAll(10)
	require.Len(t, found, 2)
	assert.Equal(t, uint32(7), found[0].SequenceNr, "insertion order preserved")
	assert.Equal(t, uint32(4), found[1].SequenceNr)
}

func TestListenerList_NotificationIdempotence(t *testing.T) {
	var ll ListenerList
	p := proxyAddr("p")

	assert.True(t, ll.InsertNotification(42, p))
	assert.False(t, ll.InsertNotification(42, p), "duplicate subscription leaves state unchanged")
	assert.Equal(t, 1, ll.Len())
	assert.True(t, ll.ContainsNotification(42, p))

	ll.RemoveNotification(42, p)
	assert.False(t, ll.ContainsNotification(42, p))
	assert.Equal(t, 0, ll.Len())

	// Removing again is a no-op.
	ll.RemoveNotification(42, p)
	assert.Equal(t, 0, ll.Len())
}

func TestListenerList_NotificationPerProxy(t *testing.T) {
	var ll ListenerList
	p := proxyAddr("p")
	q := proxyAddr("q")

	assert.True(t, ll.InsertNotification(42, p))
	assert.True(t, ll.InsertNotification(42, q), "same attribute, distinct proxies")
	assert.Equal(t, 2, ll.Len())

	ll.RemoveNotification(42, p)
	assert.False(t, ll.ContainsNotification(42, p))
	assert.True(t, ll.ContainsNotification(42, q))
}

func TestListenerList_BusyIgnoresNotifications(t *testing.T) {
	var ll ListenerList
	p := proxyAddr("p")

	ll.InsertNotification(42, p)
	assert.False(t, ll.Busy(42), "subscription entries are not pending requests")

	ll.InsertRequestPending(42, 5, p)
	assert.True(t, ll.Busy(42))
}

func TestListenerList_RemoveAllForProxy(t *testing.T) {
	var ll ListenerList
	p := proxyAddr("p")
	q := proxyAddr("q")

	ll.InsertRequestPending(10, 7, p)
	ll.InsertRequestPending(20, 3, q)
	ll.InsertNotification(42, p)

	removed := ll.RemoveAllForProxy(p)
	assert.ElementsMatch(t, []uint32{10, 42}, removed)

	require.Equal(t, 1, ll.Len())
	rest := ll.All()
	assert.Equal(t, uint32(20), rest[0].MessageID)
	assert.Equal(t, q, rest[0].Proxy)
}

func TestListenerList_RemoveWithWildcard(t *testing.T) {
	var ll ListenerList
	p := proxyAddr("p")

	ll.InsertRequestPending(10, 7, p)
	ll.InsertRequestPending(10, 8, p)

	ok := ll.Remove(Listener{MessageID: 10, SequenceNr: types.SequenceAny})
	assert.True(t, ok)
	assert.Equal(t, 1, ll.Len(), "wildcard removes only the first match")

	ok = ll.Remove(Listener{MessageID: 99, SequenceNr: types.SequenceAny})
	assert.False(t, ok)
}

func TestListenerList_Clear(t *testing.T) {
	var ll ListenerList
	ll.InsertRequestPending(10, 7, proxyAddr("p"))
	ll.InsertNotification(42, proxyAddr("q"))

	ll.Clear()
	assert.Equal(t, 0, ll.Len())
	assert.Empty(t, ll.FindAll(10))
}
