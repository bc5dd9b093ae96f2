package property

// pair binds one adapter to one data-source instance.
type pair struct {
	adapter Adapter
	source  interface{}
}

// Provider is an append-only, order-significant chain of (adapter, source)
// pairs owned by exactly one classification object. Lookup scans in
// insertion order and returns the first adapter that produces the
// property; later adapters for the same ID are shadowed. Registration
// order is the fallback priority.
//
// Resolution is pure with respect to the object, but an adapter may
// recompute (or re-read) on every call; the provider does not cache.
type Provider struct {
	pairs []pair
}

// NewProvider creates an empty provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Add appends an (adapter, source) pair to the chain.
func (p *Provider) Add(adapter Adapter, source interface{}) {
	p.pairs = append(p.pairs, pair{adapter: adapter, source: source})
}

// GetProperty resolves a property by scanning the chain in registration
// order. Returns found=false when no adapter claims the ID for its bound
// source.
func (p *Provider) GetProperty(id ID) (Property, bool) {
	for _, pr := range p.pairs {
		if prop, ok := pr.adapter.GetProperty(id, pr.source); ok {
			return prop, true
		}
	}
	return Property{}, false
}

// Enabled returns the union of supported IDs across the chain.
func (p *Provider) Enabled() Set {
	var s Set
	for _, pr := range p.pairs {
		s = s.Union(pr.adapter.SupportedProperties())
	}
	return s
}

// NameToID returns the property-name lookup across the chain. Earlier
// registrations win on name collisions, matching resolution order.
func (p *Provider) NameToID() map[string]ID {
	out := make(map[string]ID)
	for _, pr := range p.pairs {
		for id, name := range pr.adapter.Names() {
			if _, exists := out[name]; !exists {
				out[name] = id
			}
		}
	}
	return out
}

// Len returns the number of registered pairs.
func (p *Provider) Len() int { return len(p.pairs) }

// Compact trims unused capacity after population.
func (p *Provider) Compact() {
	if cap(p.pairs) > len(p.pairs) {
		trimmed := make([]pair, len(p.pairs))
		copy(trimmed, p.pairs)
		p.pairs = trimmed
	}
}
