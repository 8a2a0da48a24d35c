package stub

import (
	"github.com/c360/servicebus/types"
)

// Listener records one pending request or one active attribute subscription:
// the message ID, the call sequence number, and the proxy to answer.
// Subscription entries carry types.SequenceNotify as their sequence number.
type Listener struct {
	MessageID  uint32
	SequenceNr uint32
	Proxy      types.ProxyAddress
}

// Matches implements listener equality: message IDs must match, and either
// side's sequence number is the SequenceAny wildcard, or both sequence
// numbers and both proxy addresses match.
func (l Listener) Matches(other Listener) bool {
	if l.MessageID != other.MessageID {
		return false
	}
	if l.SequenceNr == types.SequenceAny || other.SequenceNr == types.SequenceAny {
		return true
	}
	return l.SequenceNr == other.SequenceNr && l.Proxy == other.Proxy
}

// IsNotification reports whether the entry is an attribute subscription.
func (l Listener) IsNotification() bool {
	return l.SequenceNr == types.SequenceNotify
}

// ListenerList is the ordered registry of pending requests and attribute
// subscriptions of one stub. Insertion order defines notification delivery
// order. The list is confined to the stub's dispatcher goroutine and needs
// no locking.
type ListenerList struct {
	items []Listener
}

// Len returns the number of entries.
func (ll *ListenerList) Len() int { return len(ll.items) }

// All returns a snapshot of the entries in insertion order.
func (ll *ListenerList) All() []Listener {
	out := make([]Listener, len(ll.items))
	copy(out, ll.items)
	return out
}

// InsertRequestPending appends a pending-request entry at the tail. Several
// entries may share a message ID with distinct (sequence, proxy) pairs;
// these are distinct in-flight calls.
func (ll *ListenerList) InsertRequestPending(msgID, seqNr uint32, proxy types.ProxyAddress) Listener {
	l := Listener{MessageID: msgID, SequenceNr: seqNr, Proxy: proxy}
	ll.items = append(ll.items, l)
	return l
}

// InsertNotification adds a subscription entry iff no entry with exactly
// (msgID, SequenceNotify, proxy) exists. Returns true on insertion, false
// for a duplicate. The existence check is exact; the SequenceAny wildcard
// is deliberately not honored on this path.
func (ll *ListenerList) InsertNotification(msgID uint32, proxy types.ProxyAddress) bool {
	if ll.ContainsNotification(msgID, proxy) {
		return false
	}
	ll.items = append(ll.items, Listener{
		MessageID:  msgID,
		SequenceNr: types.SequenceNotify,
		Proxy:      proxy,
	})
	return true
}

// ContainsNotification reports whether a subscription entry for exactly
// (msgID, proxy) exists.
func (ll *ListenerList) ContainsNotification(msgID uint32, proxy types.ProxyAddress) bool {
	for _, l := range ll.items {
		if l.MessageID == msgID && l.SequenceNr == types.SequenceNotify && l.Proxy == proxy {
			return true
		}
	}
	return false
}

// RemoveNotification removes the subscription entry for (msgID, proxy), if
// present.
func (ll *ListenerList) RemoveNotification(msgID uint32, proxy types.ProxyAddress) {
	for i, l := range ll.items {
		if l.MessageID == msgID && l.SequenceNr == types.SequenceNotify && l.Proxy == proxy {
			ll.items = append(ll.items[:i], ll.items[i+1:]...)
			return
		}
	}
}

// FindAll returns, in insertion order, every entry whose message ID equals
// msgID. Used to fan out attribute updates and responses.
func (ll *ListenerList) FindAll(msgID uint32) []Listener {
	var out []Listener
	for _, l := range ll.items {
		if l.MessageID == msgID {
			out = append(out, l)
		}
	}
	return out
}

// Remove deletes the first entry matching target (listener equality, so the
// SequenceAny wildcard is honored). Returns true if an entry was removed.
func (ll *ListenerList) Remove(target Listener) bool {
	for i, l := range ll.items {
		if l.Matches(target) {
			ll.items = append(ll.items[:i], ll.items[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAllForProxy purges every entry whose proxy equals proxy and returns
// the message IDs of the removed entries. Used when a client disconnects.
func (ll *ListenerList) RemoveAllForProxy(proxy types.ProxyAddress) []uint32 {
	var removed []uint32
	kept := ll.items[:0]
	for _, l := range ll.items {
		if l.Proxy == proxy {
			removed = append(removed, l.MessageID)
			continue
		}
		kept = append(kept, l)
	}
	ll.items = kept
	return removed
}

// Busy reports whether any pending-request entry exists for requestID, i.e.
// an entry with that message ID whose sequence number is not SequenceNotify.
func (ll *ListenerList) Busy(requestID uint32) bool {
	for _, l := range ll.items {
		if l.MessageID == requestID && l.SequenceNr != types.SequenceNotify {
			return true
		}
	}
	return false
}

// Clear removes every entry.
func (ll *ListenerList) Clear() {
	ll.items = nil
}
