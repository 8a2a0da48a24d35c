package stub

import (
	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/types"
)

// UnblockCurrentRequest moves the current listener out of the listener list
// into the session map and returns a fresh session ID. The request is then
// no longer busy: a new call with the same request ID is accepted while the
// saved one waits. Returns types.InvalidSessionID when no request is being
// serviced or the ID space is exhausted.
//
// Session IDs are unique within the stub's lifetime; the counter never
// wraps into reuse.
func (s *Stub) UnblockCurrentRequest() uint32 {
	if s.current == nil {
		return types.InvalidSessionID
	}

	sid := s.nextSessionID()
	if sid == types.InvalidSessionID {
		return types.InvalidSessionID
	}

	l := *s.current
	s.sessions[sid] = l
	s.listeners.Remove(l)
	s.current = nil
	return sid
}

// PrepareResponse reinstalls the listener saved under sessionID as the
// current listener, so the next SendResponse is delivered to the original
// caller. The session entry is consumed: a session ID is valid for exactly
// one PrepareResponse call.
func (s *Stub) PrepareResponse(sessionID uint32) error {
	l, ok := s.sessions[sessionID]
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidSession, "Stub", "PrepareResponse", "session lookup")
	}
	delete(s.sessions, sessionID)

	inserted := s.listeners.InsertRequestPending(l.MessageID, l.SequenceNr, l.Proxy)
	s.current = &inserted
	return nil
}

// SessionCount returns the number of saved sessions.
func (s *Stub) SessionCount() int { return len(s.sessions) }

// nextSessionID allocates the next session ID from the per-stub monotonic
// counter. InvalidSessionID is never issued; exhausting the 32-bit space
// within one stub's lifetime is a configuration error and yields
// InvalidSessionID.
func (s *Stub) nextSessionID() uint32 {
	if s.sessionID == types.InvalidSessionID-1 {
		s.logger.Error("session id space exhausted", "stub", s.addr.Key())
		return types.InvalidSessionID
	}
	s.sessionID++
	return s.sessionID
}
