package stub

import (
	"fmt"

	"github.com/c360/servicebus/errors"
	"github.com/c360/servicebus/synch"
	"github.com/c360/servicebus/types"
)

// Registry is the process-wide table of live stubs keyed by address. Entries
// are non-owning: a stub registers at construction and unregisters at
// shutdown. The lock is held only for lookup, insert, and remove — never
// while calling stub methods.
type Registry struct {
	lock  synch.Object
	stubs map[string]*Stub
}

// NewRegistry creates an empty stub registry.
func NewRegistry() *Registry {
	return &Registry{
		lock:  synch.NewResourceLock(),
		stubs: make(map[string]*Stub),
	}
}

// Register adds s under its address key. Fails with ErrDuplicateStub if an
// equal address (service identity plus thread) is already present.
func (r *Registry) Register(s *Stub) error {
	if s == nil || !s.Address().IsValid() {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "stub validation")
	}

	key := s.Address().Key()

	r.lock.Lock(synch.WaitInfinite)
	defer r.lock.Unlock()

	if _, exists := r.stubs[key]; exists {
		msg := fmt.Errorf("%w: %s", errors.ErrDuplicateStub, key)
		return errors.WrapInvalid(msg, "Registry", "Register", "duplicate stub check")
	}
	r.stubs[key] = s
	return nil
}

// Unregister removes the entry for addr, if present.
func (r *Registry) Unregister(addr types.StubAddress) {
	r.lock.Lock(synch.WaitInfinite)
	defer r.lock.Unlock()
	delete(r.stubs, addr.Key())
}

// Find returns the stub registered under an address equal to addr, or nil.
// The returned reference is non-owning.
func (r *Registry) Find(addr types.StubAddress) *Stub {
	r.lock.Lock(synch.WaitInfinite)
	defer r.lock.Unlock()
	return r.stubs[addr.Key()]
}

// Len returns the number of registered stubs.
func (r *Registry) Len() int {
	r.lock.Lock(synch.WaitInfinite)
	defer r.lock.Unlock()
	return len(r.stubs)
}

// defaultRegistry is the process-wide registry stubs use unless constructed
// with WithRegistry.
var defaultRegistry = NewRegistry()

// FindByAddress looks up a stub in the process-wide registry.
func FindByAddress(addr types.StubAddress) *Stub {
	return defaultRegistry.Find(addr)
}
