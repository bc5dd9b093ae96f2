package resfile

import (
	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/registry"
)

func init() {
	registry.RegisterFactory(TableFactory(), "json", "yaml", "yml")
	registry.RegisterFactory(GlossaryFactory())

	registry.RegisterPropertyAdapter(NewUnitAdapter())
	registry.RegisterPropertyAdapter(NewTableAdapter())
	registry.RegisterPropertyAdapter(NewGlossaryAdapter())

	// The glossary-aware adapter registers first so packages carrying a
	// glossary secondary bind to it; plain tables fall through to the
	// table-only adapter.
	registry.RegisterAdapter(func(f object.Factories) object.Adapter {
		return NewGlossaryAwareAdapter(f, registry.Default().PropertyAdapters(ObjectType), zap.L())
	})
	registry.RegisterAdapter(func(f object.Factories) object.Adapter {
		return NewAdapter(f, registry.Default().PropertyAdapters(ObjectType), zap.L())
	})
}
