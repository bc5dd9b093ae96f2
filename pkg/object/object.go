// Package object defines the classification object — one analyzable unit
// of localizable content — and the adapter protocol that creates objects
// from validated data-source packages.
package object

import (
	"github.com/loclint/loclint/pkg/property"
)

// Object is one unit under analysis. It owns its property provider and a
// fixed ordering key, and is never mutated by rules.
type Object struct {
	key        string
	objectType string
	provider   *property.Provider
	enabled    property.Set
}

// New creates an object over a populated provider. The enabled-property
// set is fixed at construction from the provider chain.
func New(objectType, key string, provider *property.Provider) *Object {
	provider.Compact()
	return &Object{
		key:        key,
		objectType: objectType,
		provider:   provider,
		enabled:    provider.Enabled(),
	}
}

// Key returns the unique ordering key.
func (o *Object) Key() string { return o.key }

// Type returns the object's variant tag. Rules declare the variant they
// accept and the engine dispatches on this tag.
func (o *Object) Type() string { return o.objectType }

// GetProperty resolves a property through the owned provider chain.
func (o *Object) GetProperty(id property.ID) (property.Property, bool) {
	return o.provider.GetProperty(id)
}

// Enabled returns the set of property IDs enabled for this object.
func (o *Object) Enabled() property.Set { return o.enabled }

// NameToID returns the property-name lookup for this object. Output sinks
// use it to match configured property names against IDs.
func (o *Object) NameToID() map[string]property.ID {
	return o.provider.NameToID()
}
