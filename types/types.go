// Package types defines the shared data model of the framework: endpoint
// addresses, service interface descriptors, result codes, and the reserved
// sentinel constants used by the dispatch core and the connection
// multiplexer.
package types

// Reserved message and sequence constants.
const (
	// InvalidMessageID means "no message". Request, response, and attribute
	// IDs share one namespace per interface and must not use this value.
	InvalidMessageID uint32 = 0

	// SequenceNotify marks a listener entry as an attribute-update
	// subscription rather than a pending request. Out-of-band: real call
	// sequence numbers count upward from zero and never reach it.
	SequenceNotify uint32 = 0xFFFFFFFE

	// SequenceAny is the wildcard sequence number accepted by listener
	// lookup and removal.
	SequenceAny uint32 = 0xFFFFFFFF

	// InvalidSessionID is the reserved invalid session value; it is never
	// issued for an unblocked request.
	InvalidSessionID uint32 = 0xFFFFFFFF
)

// Cookie identifies a client accepted by the connection multiplexer.
// Cookies are assigned monotonically and never reused within a multiplexer's
// lifetime.
type Cookie uint64

// Reserved cookie values. The multiplexer assigns cookies starting at
// CookieFirstValid.
const (
	// CookieUnknown means the peer has not been assigned a cookie yet.
	CookieUnknown Cookie = 0
	// CookieLocal addresses the local process.
	CookieLocal Cookie = 1
	// CookieRouter addresses the message router itself.
	CookieRouter Cookie = 2
	// CookieFirstValid is the first cookie assigned to an accepted client.
	CookieFirstValid Cookie = 3
)

// IsValid reports whether the cookie identifies an accepted client or a
// reserved endpoint, i.e. is not CookieUnknown.
func (c Cookie) IsValid() bool { return c != CookieUnknown }

// MasterListSize soft-bounds the number of sockets one multiplexer watches.
// Accepts beyond the bound are refused with a queue-full result.
const MasterListSize = 64

// MaxListenQueue is the default backlog passed to listen.
const MaxListenQueue = 32
