// Package property implements the lazily-resolved, multi-source property
// model backing every classification object. Properties are identified by
// single-byte IDs so that per-object membership ("enabled properties") is
// a cheap bitset probe.
package property

import (
	"fmt"
	"reflect"
)

// ID is a property identifier. The namespace is bounded to one byte
// (0-255) per classification object type.
type ID uint8

// Property is one named, typed value resolved for a classification object.
type Property struct {
	Name  string
	ID    ID
	Value interface{}
}

// String returns the rendered string form of the property value.
func (p Property) String() string {
	if s, ok := p.Value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", p.Value)
}

// Set is a 256-bit membership set over property IDs.
type Set struct {
	bits [4]uint64
}

// NewSet builds a set from the given IDs.
func NewSet(ids ...ID) Set {
	var s Set
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts an ID into the set.
func (s *Set) Add(id ID) {
	s.bits[id>>6] |= 1 << (id & 63)
}

// Contains reports membership.
func (s Set) Contains(id ID) bool {
	return s.bits[id>>6]&(1<<(id&63)) != 0
}

// Union returns the union of s and other.
func (s Set) Union(other Set) Set {
	var out Set
	for i := range s.bits {
		out.bits[i] = s.bits[i] | other.bits[i]
	}
	return out
}

// Len returns the number of IDs in the set.
func (s Set) Len() int {
	n := 0
	for id := 0; id < 256; id++ {
		if s.Contains(ID(id)) {
			n++
		}
	}
	return n
}

// IDs returns the members in ascending order.
func (s Set) IDs() []ID {
	out := make([]ID, 0, s.Len())
	for id := 0; id < 256; id++ {
		if s.Contains(ID(id)) {
			out = append(out, ID(id))
		}
	}
	return out
}

// Adapter computes property values from one concrete data-source type.
//
// Availability is deliberately strict: GetProperty succeeds only when the
// ID is in the supported set AND the runtime type of the source is exactly
// the declared source type. This is a per-property fast probe; structural
// (assignability) compatibility is checked once per package at validation
// time, not here.
type Adapter interface {
	// ObjectType names the classification object type this adapter
	// produces properties for.
	ObjectType() string

	// SourceType is the exact data-source type consumed.
	SourceType() reflect.Type

	// SupportedProperties returns the fixed set of IDs this adapter serves.
	SupportedProperties() Set

	// Names maps supported IDs to property names.
	Names() map[ID]string

	// GetProperty resolves one property from the given source instance.
	GetProperty(id ID, source interface{}) (Property, bool)
}

// Base carries the declarative half of an Adapter. Concrete adapters embed
// it and implement GetProperty, using Claims as the availability guard.
type Base struct {
	objectType string
	sourceType reflect.Type
	supported  Set
	names      map[ID]string
}

// NewBase constructs the shared adapter state.
func NewBase(objectType string, sourceType reflect.Type, names map[ID]string) Base {
	var supported Set
	for id := range names {
		supported.Add(id)
	}
	return Base{
		objectType: objectType,
		sourceType: sourceType,
		supported:  supported,
		names:      names,
	}
}

// ObjectType implements Adapter.
func (b Base) ObjectType() string { return b.objectType }

// SourceType implements Adapter.
func (b Base) SourceType() reflect.Type { return b.sourceType }

// SupportedProperties implements Adapter.
func (b Base) SupportedProperties() Set { return b.supported }

// Names implements Adapter.
func (b Base) Names() map[ID]string { return b.names }

// Claims reports whether this adapter can serve the ID from the source.
// The type comparison is identity, not assignability.
func (b Base) Claims(id ID, source interface{}) bool {
	return b.supported.Contains(id) && reflect.TypeOf(source) == b.sourceType
}

// Name returns the registered name for an ID.
func (b Base) Name(id ID) string { return b.names[id] }
