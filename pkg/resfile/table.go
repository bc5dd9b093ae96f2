// Package resfile provides the resource-table data source: localization
// resource files parsed into per-unit records, plus the property and
// object adapters that expose them to the rule engine.
package resfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Unit is one localizable resource entry. Each unit becomes one
// classification object.
type Unit struct {
	ID        string `json:"id" yaml:"id"`
	Source    string `json:"source" yaml:"source"`
	Target    string `json:"target" yaml:"target"`
	Comment   string `json:"comment,omitempty" yaml:"comment,omitempty"`
	MaxLength int    `json:"max_length,omitempty" yaml:"max_length,omitempty"`
}

// Table is a parsed resource file: the primary data source for resource
// classification objects.
type Table struct {
	Path   string  `json:"-" yaml:"-"`
	Locale string  `json:"locale" yaml:"locale"`
	Units  []*Unit `json:"resources" yaml:"resources"`
}

// Glossary is a secondary data source: required terminology for a
// locale.
type Glossary struct {
	Locale string            `yaml:"locale"`
	Terms  map[string]string `yaml:"terms"`
}

// placeholderPattern matches .NET-style {0} and printf-style %s/%d
// placeholders in resource text.
var placeholderPattern = regexp.MustCompile(`\{\d+\}|%[sdvfq]`)

// Placeholders extracts the placeholder tokens of a string in order.
func Placeholders(s string) []string {
	return placeholderPattern.FindAllString(s, -1)
}

// ParseTable reads a resource table from a JSON or YAML file, deciding
// by extension.
func ParseTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported resource file extension: %s", path)
	}

	t.Path = path
	return &t, nil
}

// ParseGlossary reads a glossary from a YAML file.
func ParseGlossary(path string) (*Glossary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var g Glossary
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &g, nil
}
