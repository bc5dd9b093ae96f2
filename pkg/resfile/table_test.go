package resfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const jsonTable = `{
  "locale": "de-DE",
  "resources": [
    {"id": "greeting", "source": "Hello {0}", "target": "Hallo {0}"},
    {"id": "farewell", "source": "Bye", "target": "", "max_length": 12}
  ]
}`

const yamlTable = `locale: fr-FR
resources:
  - id: greeting
    source: "Hello %s"
    target: "Bonjour %s"
`

const yamlGlossary = `locale: de-DE
terms:
  browser: Browser
  cookie: Cookie
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	return writeFileIn(t, t.TempDir(), name, content)
}

func writeFileIn(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseTable_JSON(t *testing.T) {
	path := writeFile(t, "de.json", jsonTable)

	table, err := ParseTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if table.Locale != "de-DE" {
		t.Errorf("expected locale de-DE, got %q", table.Locale)
	}
	if table.Path != path {
		t.Errorf("expected path %q, got %q", path, table.Path)
	}
	if len(table.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(table.Units))
	}
	if table.Units[0].ID != "greeting" || table.Units[0].Target != "Hallo {0}" {
		t.Errorf("unexpected first unit: %+v", table.Units[0])
	}
	if table.Units[1].MaxLength != 12 {
		t.Errorf("expected max length 12, got %d", table.Units[1].MaxLength)
	}
}

func TestParseTable_YAML(t *testing.T) {
	path := writeFile(t, "fr.yaml", yamlTable)

	table, err := ParseTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Locale != "fr-FR" || len(table.Units) != 1 {
		t.Errorf("unexpected table: %+v", table)
	}
}

func TestParseTable_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "de.txt", "not a table")
	if _, err := ParseTable(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestParseGlossary(t *testing.T) {
	path := writeFile(t, "glossary.yaml", yamlGlossary)

	g, err := ParseGlossary(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Locale != "de-DE" {
		t.Errorf("expected locale de-DE, got %q", g.Locale)
	}
	if g.Terms["browser"] != "Browser" {
		t.Errorf("unexpected terms: %v", g.Terms)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello {0}, you have {1} items", []string{"{0}", "{1}"}},
		{"Usage: %s (%d)", []string{"%s", "%d"}},
		{"no placeholders", nil},
	}

	for _, tt := range tests {
		got := Placeholders(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Placeholders(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}
