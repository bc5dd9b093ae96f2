package resfile

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/datasource"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/property"
)

// Adapter realizes resource classification objects from a package whose
// primary source is a resource table. The optional glossary variant also
// requires one glossary secondary; keeping the two as separate adapters
// lets package validation pick whichever fits the package shape.
type Adapter struct {
	object.Base
	props []property.Adapter
}

// NewAdapter creates the plain resource adapter (no secondaries).
func NewAdapter(factories object.Factories, props []property.Adapter, log *zap.Logger) *Adapter {
	return &Adapter{
		Base:  object.NewBase(ObjectType, reflect.TypeOf(&Table{}), nil, factories, log),
		props: props,
	}
}

// NewGlossaryAwareAdapter creates the variant requiring one glossary
// secondary source.
func NewGlossaryAwareAdapter(factories object.Factories, props []property.Adapter, log *zap.Logger) *Adapter {
	secondaries := []reflect.Type{reflect.TypeOf(&Glossary{})}
	return &Adapter{
		Base:  object.NewBase(ObjectType, reflect.TypeOf(&Table{}), secondaries, factories, log),
		props: props,
	}
}

// InitializeObjects realizes the primary table and constructs one object
// per unit, each owning a provider wired across the unit record, the
// table, and any secondary sources. Callers must have verified
// PackageIsSupported; no re-validation happens here.
func (a *Adapter) InitializeObjects(ctx context.Context, pkg *datasource.Package) ([]*object.Object, error) {
	inst, err := a.OpenSource(pkg.Primary)
	if err != nil {
		return nil, err
	}
	table := inst.(*Table)

	shared := []interface{}{table}
	for _, info := range pkg.Secondaries {
		sec, err := a.OpenSource(info)
		if err != nil {
			return nil, err
		}
		shared = append(shared, sec)
	}

	objects := make([]*object.Object, 0, len(table.Units))
	for _, unit := range table.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		provider := property.NewProvider()
		candidates := append([]interface{}{unit}, shared...)
		for _, pa := range a.props {
			for _, candidate := range candidates {
				if reflect.TypeOf(candidate) == pa.SourceType() {
					provider.Add(pa, candidate)
				}
			}
		}

		key := fmt.Sprintf("%s#%s", table.Path, unit.ID)
		objects = append(objects, object.New(ObjectType, key, provider))
	}
	return objects, nil
}
