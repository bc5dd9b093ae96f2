package baseline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("empty-translation", "strings.json#greeting")
	b := Fingerprint("empty-translation", "strings.json#greeting")
	if a != b {
		t.Errorf("fingerprint must be stable: %q vs %q", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}

	if Fingerprint("empty-translation", "strings.json#farewell") == a {
		t.Error("different objects must not collide")
	}
	if Fingerprint("length-limit", "strings.json#greeting") == a {
		t.Error("different rules must not collide")
	}

	// The separator keeps rule/key boundaries unambiguous.
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Error("boundary shift must change the fingerprint")
	}
}

func TestFileStore_RecordAndHas(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFile(filepath.Join(t.TempDir(), "baseline.json"))
	if err != nil {
		t.Fatal(err)
	}

	fp := Fingerprint("rule", "key")
	if ok, _ := s.Has(ctx, fp); ok {
		t.Error("empty store must not contain the fingerprint")
	}
	if err := s.Record(ctx, fp); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Has(ctx, fp); !ok {
		t.Error("recorded fingerprint must be found")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}

	// Recording twice keeps one entry.
	if err := s.Record(ctx, fp); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry after duplicate record, got %d", s.Len())
	}
}

func TestFileStore_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "baseline.json")

	s, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, Fingerprint("rule", "key")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := reopened.Has(ctx, Fingerprint("rule", "key")); !ok {
		t.Error("reopened store must contain the recorded fingerprint")
	}
	if reopened.Len() != 1 {
		t.Errorf("expected 1 entry after reopen, got %d", reopened.Len())
	}
}

func TestFileStore_CleanCloseWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	s, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("closing an untouched store must not create the file")
	}
}

func TestFileStore_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Error("expected error for malformed baseline file")
	}
}
