// Package baseline records failing verdict fingerprints from a prior
// run so later runs can suppress known findings. Critical for adopting
// the linter on an existing codebase without fixing every legacy finding
// first.
package baseline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store persists and queries verdict fingerprints.
type Store interface {
	// Has reports whether a fingerprint was recorded.
	Has(ctx context.Context, fingerprint string) (bool, error)

	// Record adds a fingerprint.
	Record(ctx context.Context, fingerprint string) error

	// Close flushes and releases the backend.
	Close() error
}

// Fingerprint derives the stable identity of a finding: the rule and the
// object it fired on. Message text is deliberately excluded so rewording
// a rule does not invalidate a baseline.
func Fingerprint(ruleName, objectKey string) string {
	sum := sha256.Sum256([]byte(ruleName + "\x00" + objectKey))
	return hex.EncodeToString(sum[:16])
}

// FileStore keeps the baseline in one JSON file.
type FileStore struct {
	path string

	mu      sync.Mutex
	entries map[string]time.Time
	dirty   bool
}

// OpenFile loads (or starts) a file-backed baseline.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path, entries: make(map[string]time.Time)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading baseline: %w", err)
	}
	if err := json.Unmarshal(raw, &s.entries); err != nil {
		return nil, fmt.Errorf("parsing baseline %s: %w", path, err)
	}
	return s, nil
}

// Has implements Store.
func (s *FileStore) Has(ctx context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[fingerprint]
	return ok, nil
}

// Record implements Store.
func (s *FileStore) Record(ctx context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[fingerprint]; !exists {
		s.entries[fingerprint] = time.Now().UTC()
		s.dirty = true
	}
	return nil
}

// Close writes the baseline back if it changed.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("writing baseline: %w", err)
	}
	s.dirty = false
	return nil
}

// Len returns the number of recorded fingerprints.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
