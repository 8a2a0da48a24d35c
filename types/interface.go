package types

import (
	"fmt"

	"github.com/c360/servicebus/errors"
)

// Version is a service interface version.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// String returns the dotted version form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible reports whether a peer speaking other can talk to this version:
// same major, peer minor not newer.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major && other.Minor <= v.Minor
}

// InterfaceData is the immutable descriptor of a service interface, read at
// stub construction. Request, response, and attribute IDs share one integer
// namespace and must be disjoint within an interface.
//
// ResponseIDs is parallel to RequestIDs: ResponseIDs[i] is the response
// paired with RequestIDs[i], or InvalidMessageID for a fire-and-forget
// request. Unsolicited responses are not part of the model.
type InterfaceData struct {
	Name         string
	Version      Version
	RequestIDs   []uint32
	ResponseIDs  []uint32
	AttributeIDs []uint32
}

// NumRequests returns the number of requests the interface defines.
func (d *InterfaceData) NumRequests() int { return len(d.RequestIDs) }

// NumResponses returns the number of paired responses.
func (d *InterfaceData) NumResponses() int {
	n := 0
	for _, id := range d.ResponseIDs {
		if id != InvalidMessageID {
			n++
		}
	}
	return n
}

// NumAttributes returns the number of attributes the interface defines.
func (d *InterfaceData) NumAttributes() int { return len(d.AttributeIDs) }

// HasRequest reports whether id is a request of this interface.
func (d *InterfaceData) HasRequest(id uint32) bool {
	for _, reqID := range d.RequestIDs {
		if reqID == id {
			return true
		}
	}
	return false
}

// HasAttribute reports whether id is an attribute of this interface.
func (d *InterfaceData) HasAttribute(id uint32) bool {
	for _, attrID := range d.AttributeIDs {
		if attrID == id {
			return true
		}
	}
	return false
}

// HasResponse reports whether id is a paired response of this interface.
func (d *InterfaceData) HasResponse(id uint32) bool {
	for _, respID := range d.ResponseIDs {
		if respID != InvalidMessageID && respID == id {
			return true
		}
	}
	return false
}

// ResponseForRequest returns the response paired with reqID, or
// InvalidMessageID when the request is fire-and-forget or unknown.
func (d *InterfaceData) ResponseForRequest(reqID uint32) uint32 {
	for i, id := range d.RequestIDs {
		if id == reqID && i < len(d.ResponseIDs) {
			return d.ResponseIDs[i]
		}
	}
	return InvalidMessageID
}

// RequestForResponse returns the request paired with respID, or
// InvalidMessageID when respID is not a response of this interface.
func (d *InterfaceData) RequestForResponse(respID uint32) uint32 {
	if respID == InvalidMessageID {
		return InvalidMessageID
	}
	for i, id := range d.ResponseIDs {
		if id == respID && i < len(d.RequestIDs) {
			return d.RequestIDs[i]
		}
	}
	return InvalidMessageID
}

// Validate checks the descriptor invariants: a name, parallel request and
// response arrays, no use of InvalidMessageID as a real ID, and disjoint
// request/response/attribute namespaces.
func (d *InterfaceData) Validate() error {
	if d.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "InterfaceData", "Validate", "interface name validation")
	}
	if len(d.ResponseIDs) != len(d.RequestIDs) {
		msg := fmt.Errorf("%w: %d requests but %d response pairings",
			errors.ErrInvalidConfig, len(d.RequestIDs), len(d.ResponseIDs))
		return errors.WrapInvalid(msg, "InterfaceData", "Validate", "response pairing validation")
	}

	seen := make(map[uint32]string, len(d.RequestIDs)+len(d.ResponseIDs)+len(d.AttributeIDs))
	check := func(kind string, ids []uint32, allowInvalid bool) error {
		for _, id := range ids {
			if id == InvalidMessageID {
				if allowInvalid {
					continue
				}
				msg := fmt.Errorf("%w: %s uses reserved message id", errors.ErrInvalidConfig, kind)
				return errors.WrapInvalid(msg, "InterfaceData", "Validate", "reserved id check")
			}
			if prev, dup := seen[id]; dup {
				msg := fmt.Errorf("%w: id %d used by both %s and %s", errors.ErrInvalidConfig, id, prev, kind)
				return errors.WrapInvalid(msg, "InterfaceData", "Validate", "disjoint namespace check")
			}
			seen[id] = kind
		}
		return nil
	}

	if err := check("request", d.RequestIDs, false); err != nil {
		return err
	}
	if err := check("response", d.ResponseIDs, true); err != nil {
		return err
	}
	return check("attribute", d.AttributeIDs, false)
}
