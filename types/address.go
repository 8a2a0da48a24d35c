package types

import (
	"fmt"

	"github.com/google/uuid"
)

// ProxyAddress uniquely identifies one proxy endpoint: the service interface
// it consumes, the role of the serving component, the dispatcher thread that
// owns the proxy, and a per-instance tag. ProxyAddress is comparable and
// usable as a map key.
type ProxyAddress struct {
	Service  string // service interface name
	Role     string // role name of the target component
	Thread   string // owning dispatcher thread
	Instance string // unique instance tag
}

// InvalidProxyAddress is the designated invalid proxy address.
var InvalidProxyAddress = ProxyAddress{}

// NewProxyAddress creates a proxy address with a fresh instance tag.
func NewProxyAddress(service, role, thread string) ProxyAddress {
	return ProxyAddress{
		Service:  service,
		Role:     role,
		Thread:   thread,
		Instance: uuid.NewString(),
	}
}

// IsValid reports whether the address identifies a real proxy.
func (a ProxyAddress) IsValid() bool {
	return a.Service != "" && a.Role != ""
}

// String formats the address for logging.
func (a ProxyAddress) String() string {
	if !a.IsValid() {
		return "<invalid-proxy>"
	}
	return fmt.Sprintf("%s/%s@%s#%s", a.Service, a.Role, a.Thread, a.Instance)
}

// StubAddress identifies the serving side of an endpoint. It carries the
// owning dispatcher thread; registry lookups compare service identity plus
// thread, so the same interface may be served under different roles or on
// different threads.
type StubAddress struct {
	Service  string // service interface name
	Role     string // role name of the owning component
	Thread   string // owning dispatcher thread
	Instance string // unique instance tag
}

// InvalidStubAddress is the designated invalid stub address.
var InvalidStubAddress = StubAddress{}

// NewStubAddress creates a stub address with a fresh instance tag.
func NewStubAddress(service, role, thread string) StubAddress {
	return StubAddress{
		Service:  service,
		Role:     role,
		Thread:   thread,
		Instance: uuid.NewString(),
	}
}

// IsValid reports whether the address identifies a real stub.
func (a StubAddress) IsValid() bool {
	return a.Service != "" && a.Role != ""
}

// Key returns the registry lookup key: service identity plus owning thread.
// The instance tag deliberately does not participate so that re-created
// stubs collide with live ones.
func (a StubAddress) Key() string {
	return fmt.Sprintf("%s/%s@%s", a.Service, a.Role, a.Thread)
}

// String formats the address for logging.
func (a StubAddress) String() string {
	if !a.IsValid() {
		return "<invalid-stub>"
	}
	return fmt.Sprintf("%s/%s@%s#%s", a.Service, a.Role, a.Thread, a.Instance)
}
