// Package datasource describes the inputs feeding a batch of
// classification objects: one primary source plus any number of
// secondaries, each opened lazily and at most once.
package datasource

import (
	"reflect"
	"sync"

	"github.com/loclint/loclint/pkg/errors"
)

// Factory creates a concrete data-source instance for a location. It is
// implemented by the parser layer; a missing backing file surfaces as an
// error with code CodeSourceNotFound.
type Factory interface {
	// TypeName names the data-source type this factory produces.
	TypeName() string

	// CreateInstance opens the source at the given location.
	CreateInstance(location interface{}) (interface{}, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc struct {
	Name string
	Fn   func(location interface{}) (interface{}, error)
}

// TypeName implements Factory.
func (f FactoryFunc) TypeName() string { return f.Name }

// CreateInstance implements Factory.
func (f FactoryFunc) CreateInstance(location interface{}) (interface{}, error) {
	return f.Fn(location)
}

// Info describes one input: a type name, an opaque location (string,
// key/value map, ...), a primary flag, and a lazily created source
// instance.
type Info struct {
	typeName string
	location interface{}
	primary  bool

	mu       sync.Mutex
	instance interface{}
	openErr  error
	opened   bool
}

// NewInfo creates a descriptor. The source instance is not created until
// Open is called.
func NewInfo(typeName string, location interface{}, primary bool) *Info {
	return &Info{typeName: typeName, location: location, primary: primary}
}

// TypeName returns the declared data-source type name.
func (i *Info) TypeName() string { return i.typeName }

// Location returns the opaque location value.
func (i *Info) Location() interface{} { return i.location }

// Primary reports whether this is the package's primary source.
func (i *Info) Primary() bool { return i.primary }

// Equal reports descriptor equality: type name and location.
func (i *Info) Equal(other *Info) bool {
	if other == nil {
		return false
	}
	return i.typeName == other.typeName && reflect.DeepEqual(i.location, other.location)
}

// Open returns the source instance, creating it on first call. Creation
// happens exactly once even under concurrent callers: everyone takes the
// per-descriptor lock, re-checks the cache, and only the first caller
// performs the (possibly I/O-bound) creation; the rest block until it
// completes and observe the cached result. A failed creation is cached
// and not retried until Dispose resets the descriptor.
func (i *Info) Open(factory Factory) (interface{}, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.opened {
		return i.instance, i.openErr
	}

	inst, err := factory.CreateInstance(i.location)
	if err != nil {
		i.openErr = errors.SourceInit(err, i.typeName, i.location)
		i.opened = true
		return nil, i.openErr
	}
	i.instance = inst
	i.opened = true
	return inst, nil
}

// Instance returns the cached source instance. Accessing it before Open
// has succeeded is an error.
func (i *Info) Instance() (interface{}, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.opened {
		return nil, errors.New(errors.CodeSourceNotOpened, "data source accessed before initialization").
			WithContext("type", i.typeName).
			WithContext("location", i.location)
	}
	return i.instance, i.openErr
}

// Dispose releases the cached instance. Sources implementing io.Closer
// are closed; the cache is nulled so a later Open re-creates.
func (i *Info) Dispose() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.opened {
		return nil
	}

	var err error
	if c, ok := i.instance.(interface{ Close() error }); ok {
		err = c.Close()
	}
	i.instance = nil
	i.openErr = nil
	i.opened = false
	return err
}

// Package groups one primary Info with an ordered list of secondary Info
// values, plus the classification object type the package is declared to
// produce.
type Package struct {
	ObjectType  string
	Primary     *Info
	Secondaries []*Info
}

// NewPackage builds a package descriptor.
func NewPackage(objectType string, primary *Info, secondaries ...*Info) *Package {
	return &Package{ObjectType: objectType, Primary: primary, Secondaries: secondaries}
}

// Dispose releases every source in the package, returning the first
// failure.
func (p *Package) Dispose() error {
	var first error
	if err := p.Primary.Dispose(); err != nil {
		first = err
	}
	for _, s := range p.Secondaries {
		if err := s.Dispose(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
