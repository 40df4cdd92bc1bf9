// Package ids defines the opaque identifier types shared across the kernel.
package ids

import (
	"github.com/google/uuid"
)

// PluginID is an opaque 128-bit identifier assigned to a plugin at load time.
type PluginID uuid.UUID

// NewPluginID assigns a fresh, globally unique plugin identifier.
func NewPluginID() PluginID {
	return PluginID(uuid.New())
}

// NilPluginID is the zero value, never assigned to a real plugin.
var NilPluginID PluginID

func (id PluginID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero value.
func (id PluginID) IsNil() bool {
	return id == NilPluginID
}

// ParsePluginID parses a canonical UUID string into a PluginID.
func ParsePluginID(s string) (PluginID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilPluginID, err
	}
	return PluginID(u), nil
}

// CapabilityID is an opaque 128-bit identifier for a single granted capability
// instance, stable across the capability's lifetime so it can be revoked by
// handle without re-matching its contents.
type CapabilityID uuid.UUID

// NewCapabilityID creates a fresh, globally unique capability identifier.
func NewCapabilityID() CapabilityID {
	return CapabilityID(uuid.New())
}

// NilCapabilityID is the zero value, never assigned to a real grant.
var NilCapabilityID CapabilityID

func (id CapabilityID) String() string {
	return uuid.UUID(id).String()
}

// ParseCapabilityID parses a canonical UUID string into a CapabilityID.
func ParseCapabilityID(s string) (CapabilityID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilCapabilityID, err
	}
	return CapabilityID(u), nil
}

// Topic names a publish/subscribe channel on the message bus.
type Topic string
