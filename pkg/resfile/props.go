package resfile

import (
	"reflect"

	"github.com/loclint/loclint/pkg/property"
)

// ObjectType is the classification object variant produced from resource
// tables.
const ObjectType = "resource"

// Property IDs for resource objects. The namespace is per object type
// and bounded to one byte.
const (
	PropResourceID property.ID = iota + 1
	PropSourceText
	PropTargetText
	PropComment
	PropMaxLength
	PropPlaceholders

	// Table-level properties
	PropLocale
	PropFilePath

	// Glossary-level properties
	PropGlossaryLocale
	PropGlossaryTerms
)

// UnitAdapter serves per-unit properties. Its exact source type is *Unit:
// each classification object's provider chain binds it to that object's
// own unit record.
type UnitAdapter struct {
	property.Base
}

// NewUnitAdapter creates the per-unit property adapter.
func NewUnitAdapter() *UnitAdapter {
	return &UnitAdapter{Base: property.NewBase(ObjectType, reflect.TypeOf(&Unit{}), map[property.ID]string{
		PropResourceID:   "ResourceID",
		PropSourceText:   "SourceText",
		PropTargetText:   "TargetText",
		PropComment:      "Comment",
		PropMaxLength:    "MaxLength",
		PropPlaceholders: "Placeholders",
	})}
}

// GetProperty implements property.Adapter.
func (a *UnitAdapter) GetProperty(id property.ID, source interface{}) (property.Property, bool) {
	if !a.Claims(id, source) {
		return property.Property{}, false
	}
	u := source.(*Unit)

	var value interface{}
	switch id {
	case PropResourceID:
		value = u.ID
	case PropSourceText:
		value = u.Source
	case PropTargetText:
		value = u.Target
	case PropComment:
		value = u.Comment
	case PropMaxLength:
		value = u.MaxLength
	case PropPlaceholders:
		value = Placeholders(u.Source)
	default:
		return property.Property{}, false
	}
	return property.Property{Name: a.Name(id), ID: id, Value: value}, true
}

// TableAdapter serves table-level properties shared by every unit of a
// file. Its exact source type is *Table.
type TableAdapter struct {
	property.Base
}

// NewTableAdapter creates the table-level property adapter.
func NewTableAdapter() *TableAdapter {
	return &TableAdapter{Base: property.NewBase(ObjectType, reflect.TypeOf(&Table{}), map[property.ID]string{
		PropLocale:   "Locale",
		PropFilePath: "FilePath",
	})}
}

// GetProperty implements property.Adapter.
func (a *TableAdapter) GetProperty(id property.ID, source interface{}) (property.Property, bool) {
	if !a.Claims(id, source) {
		return property.Property{}, false
	}
	t := source.(*Table)

	var value interface{}
	switch id {
	case PropLocale:
		value = t.Locale
	case PropFilePath:
		value = t.Path
	default:
		return property.Property{}, false
	}
	return property.Property{Name: a.Name(id), ID: id, Value: value}, true
}

// GlossaryAdapter serves glossary-level properties from the secondary
// glossary source.
type GlossaryAdapter struct {
	property.Base
}

// NewGlossaryAdapter creates the glossary property adapter.
func NewGlossaryAdapter() *GlossaryAdapter {
	return &GlossaryAdapter{Base: property.NewBase(ObjectType, reflect.TypeOf(&Glossary{}), map[property.ID]string{
		PropGlossaryLocale: "GlossaryLocale",
		PropGlossaryTerms:  "GlossaryTerms",
	})}
}

// GetProperty implements property.Adapter.
func (a *GlossaryAdapter) GetProperty(id property.ID, source interface{}) (property.Property, bool) {
	if !a.Claims(id, source) {
		return property.Property{}, false
	}
	g := source.(*Glossary)

	var value interface{}
	switch id {
	case PropGlossaryLocale:
		value = g.Locale
	case PropGlossaryTerms:
		value = g.Terms
	default:
		return property.Property{}, false
	}
	return property.Property{Name: a.Name(id), ID: id, Value: value}, true
}
