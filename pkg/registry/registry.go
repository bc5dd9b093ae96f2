// Package registry provides a central registry for data-source factories,
// classification object adapters, property adapters, and output sinks.
// This enables runtime selection without if/else chains in main code.
package registry

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/loclint/loclint/pkg/datasource"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/property"
)

// SinkFactory creates a new output sink instance.
type SinkFactory func(cfg output.SinkConfig) (output.Sink, error)

// AdapterFactory creates an object adapter bound to a factory resolver.
type AdapterFactory func(factories object.Factories) object.Adapter

// Registry holds all registered components.
type Registry struct {
	mu sync.RWMutex

	factories     map[string]datasource.Factory
	adapters      []object.Adapter
	propAdapters  map[string][]property.Adapter
	sinks         map[string]SinkFactory
	extensionType map[string]string
}

// Global default registry
var defaultRegistry = NewRegistry()

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories:     make(map[string]datasource.Factory),
		propAdapters:  make(map[string][]property.Adapter),
		sinks:         make(map[string]SinkFactory),
		extensionType: make(map[string]string),
	}
}

// RegisterFactory adds a data-source factory, optionally mapping file
// extensions to its type name. The extension map is how the engine
// decides whether a file can produce classification objects at all.
func (r *Registry) RegisterFactory(f datasource.Factory, extensions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[f.TypeName()] = f
	for _, ext := range extensions {
		r.extensionType[normalizeExt(ext)] = f.TypeName()
	}
}

// Factory implements object.Factories.
func (r *Registry) Factory(typeName string) (datasource.Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typeName]
	return f, ok
}

// TypeForFile returns the data-source type name for a file path, based
// on its extension.
func (r *Registry) TypeForFile(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.extensionType[normalizeExt(filepath.Ext(path))]
	return t, ok
}

// RegisterAdapter adds an object adapter. Selection order is
// registration order: the engine picks the first adapter that supports a
// package.
func (r *Registry) RegisterAdapter(factory AdapterFactory) {
	// Instantiate before locking: factories may consult the registry.
	a := factory(r)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, a)
}

// AdapterFor selects the first registered adapter that supports the
// package.
func (r *Registry) AdapterFor(pkg *datasource.Package) (object.Adapter, bool) {
	r.mu.RLock()
	adapters := append([]object.Adapter(nil), r.adapters...)
	r.mu.RUnlock()

	for _, a := range adapters {
		if a.PackageIsSupported(pkg) {
			return a, true
		}
	}
	return nil, false
}

// RegisterPropertyAdapter adds a property adapter for its object type.
func (r *Registry) RegisterPropertyAdapter(a property.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.propAdapters[a.ObjectType()] = append(r.propAdapters[a.ObjectType()], a)
}

// PropertyAdapters returns the adapters registered for an object type,
// in registration order.
func (r *Registry) PropertyAdapters(objectType string) []property.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]property.Adapter(nil), r.propAdapters[objectType]...)
}

// RegisterSink adds a sink factory under a name.
func (r *Registry) RegisterSink(name string, factory SinkFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[name] = factory
}

// GetSink creates a sink by name.
func (r *Registry) GetSink(name string, cfg output.SinkConfig) (output.Sink, error) {
	r.mu.RLock()
	factory, ok := r.sinks[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown sink: %s", name)
	}
	return factory(cfg)
}

// SinkNames lists the registered sink names.
func (r *Registry) SinkNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		names = append(names, name)
	}
	return names
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// --- Default registry helpers ---

// Default returns the process-wide registry populated by init
// registration.
func Default() *Registry { return defaultRegistry }

// RegisterFactory registers on the default registry.
func RegisterFactory(f datasource.Factory, extensions ...string) {
	defaultRegistry.RegisterFactory(f, extensions...)
}

// RegisterAdapter registers on the default registry.
func RegisterAdapter(factory AdapterFactory) {
	defaultRegistry.RegisterAdapter(factory)
}

// RegisterPropertyAdapter registers on the default registry.
func RegisterPropertyAdapter(a property.Adapter) {
	defaultRegistry.RegisterPropertyAdapter(a)
}

// RegisterSink registers on the default registry.
func RegisterSink(name string, factory SinkFactory) {
	defaultRegistry.RegisterSink(name, factory)
}
