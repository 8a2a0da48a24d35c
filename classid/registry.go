package classid

import (
	"fmt"
	"sync"

	"github.com/c360/servicebus/errors"
)

// Registry maps class names and magics to declared classes. It provides
// thread-safe registration and lookup, and detects accidental magic
// collisions between distinct names at registration time — a configuration
// error that would otherwise corrupt identity checks across a connection.
type Registry struct {
	byName  map[string]*Class
	byMagic map[uint32]*Class
	mu      sync.RWMutex
}

// NewRegistry creates a new empty class registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]*Class),
		byMagic: make(map[uint32]*Class),
	}
}

// Register adds a class to the registry. Registering the same class twice is
// a no-op. Registering a different name that hashes to an already-registered
// magic fails with ErrClassCollision.
func (r *Registry) Register(c *Class) error {
	if c == nil || !c.id.IsValid() {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register", "class validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byMagic[c.id.magic]; ok {
		if existing.id.name == c.id.name {
			return nil
		}
		msg := fmt.Errorf("%w: %q and %q both hash to %#x",
			errors.ErrClassCollision, existing.id.name, c.id.name, c.id.magic)
		return errors.WrapFatal(msg, "Registry", "Register", "magic collision check")
	}

	r.byName[c.id.name] = c
	r.byMagic[c.id.magic] = c
	return nil
}

// MustRegister registers a class and panics on failure. Intended for
// package-level class declarations where a collision is a programming error.
func (r *Registry) MustRegister(c *Class) *Class {
	if err := r.Register(c); err != nil {
		panic(err)
	}
	return c
}

// LookupName returns the class registered under name.
func (r *Registry) LookupName(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// LookupMagic returns the class whose identity token is magic. Used on frame
// receipt to map a wire magic back to a local class.
func (r *Registry) LookupMagic(magic uint32) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byMagic[magic]
	return c, ok
}

// Names returns the names of all registered classes.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// Default registry for framework-wide class declarations. Event classes
// register here at package init.
var defaultRegistry = NewRegistry()

// Register adds a class to the default registry.
func Register(c *Class) error {
	return defaultRegistry.Register(c)
}

// MustRegister adds a class to the default registry, panicking on collision.
func MustRegister(c *Class) *Class {
	return defaultRegistry.MustRegister(c)
}

// LookupName finds a class by name in the default registry.
func LookupName(name string) (*Class, bool) {
	return defaultRegistry.LookupName(name)
}

// LookupMagic finds a class by magic in the default registry.
func LookupMagic(magic uint32) (*Class, bool) {
	return defaultRegistry.LookupMagic(magic)
}
