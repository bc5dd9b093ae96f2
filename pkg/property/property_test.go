package property

import (
	"reflect"
	"testing"
)

type unitSource struct {
	Text string
}

type otherSource struct {
	Text string
}

const (
	propText ID = 1
	propLen  ID = 2
)

type textAdapter struct {
	Base
}

func newTextAdapter() *textAdapter {
	return &textAdapter{Base: NewBase("unit", reflect.TypeOf(&unitSource{}), map[ID]string{
		propText: "Text",
		propLen:  "Length",
	})}
}

func (a *textAdapter) GetProperty(id ID, source interface{}) (Property, bool) {
	if !a.Claims(id, source) {
		return Property{}, false
	}
	u := source.(*unitSource)
	switch id {
	case propText:
		return Property{Name: a.Name(id), ID: id, Value: u.Text}, true
	case propLen:
		return Property{Name: a.Name(id), ID: id, Value: len(u.Text)}, true
	}
	return Property{}, false
}

func TestSet_AddContains(t *testing.T) {
	var s Set
	for _, id := range []ID{0, 1, 63, 64, 127, 128, 255} {
		s.Add(id)
	}

	for _, id := range []ID{0, 1, 63, 64, 127, 128, 255} {
		if !s.Contains(id) {
			t.Errorf("expected set to contain %d", id)
		}
	}
	if s.Contains(2) {
		t.Error("set should not contain 2")
	}
	if s.Len() != 7 {
		t.Errorf("expected 7 members, got %d", s.Len())
	}
}

func TestSet_IDsAscending(t *testing.T) {
	s := NewSet(200, 3, 77)
	ids := s.IDs()

	want := []ID{3, 77, 200}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestSet_Union(t *testing.T) {
	a := NewSet(1, 2)
	b := NewSet(2, 200)

	u := a.Union(b)
	if u.Len() != 3 {
		t.Errorf("expected 3 members, got %d", u.Len())
	}
	if !u.Contains(200) {
		t.Error("union missing member from second set")
	}
}

func TestBase_ClaimsExactTypeOnly(t *testing.T) {
	adapter := newTextAdapter()

	if !adapter.Claims(propText, &unitSource{Text: "x"}) {
		t.Error("adapter should claim its exact source type")
	}

	// Identical shape is not enough: availability uses type identity.
	if adapter.Claims(propText, &otherSource{Text: "x"}) {
		t.Error("adapter must not claim a different type with the same shape")
	}

	// Value vs pointer is a different type.
	if adapter.Claims(propText, unitSource{Text: "x"}) {
		t.Error("adapter must not claim the value type when declared for the pointer type")
	}

	if adapter.Claims(99, &unitSource{}) {
		t.Error("adapter must not claim an unsupported ID")
	}
}

func TestProvider_FirstMatchWins(t *testing.T) {
	first := &unitSource{Text: "first"}
	second := &unitSource{Text: "second"}

	p := NewProvider()
	p.Add(newTextAdapter(), first)
	p.Add(newTextAdapter(), second)

	prop, ok := p.GetProperty(propText)
	if !ok {
		t.Fatal("expected property to resolve")
	}
	if prop.Value != "first" {
		t.Errorf("expected earlier pair to shadow later one, got %v", prop.Value)
	}
}

func TestProvider_NotFound(t *testing.T) {
	p := NewProvider()
	p.Add(newTextAdapter(), &unitSource{})

	if _, ok := p.GetProperty(99); ok {
		t.Error("unsupported ID must not resolve")
	}
}

func TestProvider_SourceTypeGate(t *testing.T) {
	// The adapter is registered but bound to the wrong source type, so
	// resolution falls through to the correctly bound pair.
	p := NewProvider()
	p.Add(newTextAdapter(), &otherSource{Text: "wrong"})
	p.Add(newTextAdapter(), &unitSource{Text: "right"})

	prop, ok := p.GetProperty(propText)
	if !ok {
		t.Fatal("expected property to resolve")
	}
	if prop.Value != "right" {
		t.Errorf("expected fall-through past mismatched pair, got %v", prop.Value)
	}
}

func TestProvider_Enabled(t *testing.T) {
	p := NewProvider()
	p.Add(newTextAdapter(), &unitSource{})

	enabled := p.Enabled()
	if !enabled.Contains(propText) || !enabled.Contains(propLen) {
		t.Error("enabled set missing supported IDs")
	}
	if enabled.Len() != 2 {
		t.Errorf("expected 2 enabled IDs, got %d", enabled.Len())
	}
}

func TestProvider_NameToID(t *testing.T) {
	p := NewProvider()
	p.Add(newTextAdapter(), &unitSource{})

	lookup := p.NameToID()
	if lookup["Text"] != propText {
		t.Errorf("expected Text -> %d, got %d", propText, lookup["Text"])
	}
	if lookup["Length"] != propLen {
		t.Errorf("expected Length -> %d, got %d", propLen, lookup["Length"])
	}
}

func TestProperty_String(t *testing.T) {
	if got := (Property{Value: "abc"}).String(); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
	if got := (Property{Value: 42}).String(); got != "42" {
		t.Errorf("expected 42, got %q", got)
	}
}
