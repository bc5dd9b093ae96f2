package object

import (
	"context"
	"reflect"

	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/datasource"
	"github.com/loclint/loclint/pkg/errors"
)

// Factories resolves data-source factories by type name. The registry
// implements it.
type Factories interface {
	Factory(typeName string) (datasource.Factory, bool)
}

// Adapter binds a classification object type to a primary data-source
// type and an ordered list of secondary data-source types, and realizes
// objects from packages it supports.
type Adapter interface {
	// ObjectType names the object type this adapter produces.
	ObjectType() string

	// PackageIsSupported reports whether a package structurally fits this
	// adapter. Mismatches are logged, never propagated; this is the
	// selection predicate callers must consult before InitializeObjects.
	PackageIsSupported(pkg *datasource.Package) bool

	// ValidateTypes performs the underlying structural check, raising a
	// coded error on any mismatch.
	ValidateTypes(pkg *datasource.Package) error

	// InitializeObjects realizes the primary data source and constructs
	// one object per primary-source unit, each wired to a property
	// provider spanning the package's sources. Callers must have checked
	// PackageIsSupported first; the adapter does not re-validate.
	InitializeObjects(ctx context.Context, pkg *datasource.Package) ([]*Object, error)
}

// Base implements the validation half of Adapter. Concrete adapters embed
// it and implement InitializeObjects for their primary source type.
//
// Note the asymmetry with property.Adapter: package validation uses
// assignability (subtype-compatible), while per-property availability
// uses exact type identity. Both checks are intentional and distinct.
type Base struct {
	objectType     string
	primaryType    reflect.Type
	secondaryTypes []reflect.Type
	factories      Factories
	log            *zap.Logger
}

// NewBase constructs adapter validation state.
func NewBase(objectType string, primaryType reflect.Type, secondaryTypes []reflect.Type, factories Factories, log *zap.Logger) Base {
	if log == nil {
		log = zap.NewNop()
	}
	return Base{
		objectType:     objectType,
		primaryType:    primaryType,
		secondaryTypes: secondaryTypes,
		factories:      factories,
		log:            log,
	}
}

// ObjectType implements Adapter.
func (b Base) ObjectType() string { return b.objectType }

// PrimarySourceType returns the declared primary source type.
func (b Base) PrimarySourceType() reflect.Type { return b.primaryType }

// SecondarySourceTypes returns the declared secondary types in order.
func (b Base) SecondarySourceTypes() []reflect.Type { return b.secondaryTypes }

// Logger returns the adapter logger.
func (b Base) Logger() *zap.Logger { return b.log }

// PackageIsSupported converts any ValidateTypes failure into false. The
// structural diagnostic is logged at warning level for diagnosability.
func (b Base) PackageIsSupported(pkg *datasource.Package) bool {
	if err := b.ValidateTypes(pkg); err != nil {
		b.log.Warn("package not supported by adapter",
			zap.String("adapter", b.objectType),
			zap.String("package_object_type", pkg.ObjectType),
			zap.Error(err))
		return false
	}
	return true
}

// ValidateTypes checks that the package's declared object type equals
// this adapter's, that the runtime type of the primary source is
// assignable to the declared primary type, and that secondary sources
// match in count and pairwise assignability, in declared order. Checking
// runtime types opens the sources, triggering their lazy initialization.
func (b Base) ValidateTypes(pkg *datasource.Package) error {
	if pkg.ObjectType != b.objectType {
		return errors.TypeMismatch("object type mismatch", b.objectType, pkg.ObjectType)
	}

	primaryType, err := b.runtimeType(pkg.Primary)
	if err != nil {
		return err
	}
	if !primaryType.AssignableTo(b.primaryType) {
		return errors.TypeMismatch("primary source type not assignable",
			b.primaryType.String(), primaryType.String())
	}

	if len(pkg.Secondaries) != len(b.secondaryTypes) {
		return errors.TypeMismatch("secondary source count mismatch",
			len(b.secondaryTypes), len(pkg.Secondaries))
	}
	for idx, info := range pkg.Secondaries {
		secType, err := b.runtimeType(info)
		if err != nil {
			return err
		}
		if !secType.AssignableTo(b.secondaryTypes[idx]) {
			return errors.TypeMismatch("secondary source type not assignable",
				b.secondaryTypes[idx].String(), secType.String()).
				WithContext("index", idx)
		}
	}
	return nil
}

// OpenSource resolves the factory for a descriptor and opens it.
func (b Base) OpenSource(info *datasource.Info) (interface{}, error) {
	factory, ok := b.factories.Factory(info.TypeName())
	if !ok {
		return nil, errors.New(errors.CodeSourceNotFound, "no factory for data-source type").
			WithContext("type", info.TypeName())
	}
	return info.Open(factory)
}

func (b Base) runtimeType(info *datasource.Info) (reflect.Type, error) {
	inst, err := b.OpenSource(info)
	if err != nil {
		return nil, err
	}
	return reflect.TypeOf(inst), nil
}
