package resfile

import (
	"fmt"
	"os"

	"github.com/loclint/loclint/pkg/datasource"
	"github.com/loclint/loclint/pkg/errors"
)

// Data-source type names used in package descriptors.
const (
	TableTypeName    = "restable"
	GlossaryTypeName = "glossary"
)

// TableFactory opens resource tables from string locations (file paths).
func TableFactory() datasource.Factory {
	return datasource.FactoryFunc{
		Name: TableTypeName,
		Fn: func(location interface{}) (interface{}, error) {
			path, ok := location.(string)
			if !ok {
				return nil, fmt.Errorf("restable location must be a path, got %T", location)
			}
			if _, err := os.Stat(path); err != nil {
				return nil, errors.SourceNotFound(TableTypeName, path)
			}
			return ParseTable(path)
		},
	}
}

// GlossaryFactory opens glossaries from string locations.
func GlossaryFactory() datasource.Factory {
	return datasource.FactoryFunc{
		Name: GlossaryTypeName,
		Fn: func(location interface{}) (interface{}, error) {
			path, ok := location.(string)
			if !ok {
				return nil, fmt.Errorf("glossary location must be a path, got %T", location)
			}
			if _, err := os.Stat(path); err != nil {
				return nil, errors.SourceNotFound(GlossaryTypeName, path)
			}
			return ParseGlossary(path)
		},
	}
}
