// Package hooks provides extension hooks for the analysis flow. Hooks
// allow injecting custom logic around package analysis and verdict
// dispatch without modifying the engine.
package hooks

import (
	"context"
	"sync"

	"github.com/loclint/loclint/pkg/datasource"
	"github.com/loclint/loclint/pkg/output"
)

// Manager manages all registered hooks.
type Manager struct {
	mu sync.RWMutex

	preAnalyzeHooks  []PreAnalyzeHook
	postVerdictHooks []PostVerdictHook
	preFlushHooks    []PreFlushHook
	errorHooks       []ErrorHook
}

// NewManager creates a new hook manager.
func NewManager() *Manager {
	return &Manager{}
}

// PreAnalyzeHook is called before a package is analyzed.
// Use cases: access checks, cache lookups, skipping, enrichment of ctx.
type PreAnalyzeHook func(ctx context.Context, pkg *datasource.Package) (context.Context, error)

// PostVerdictHook is called after each verdict is finalized but before it
// is flushed. Use cases: suppression, counting, annotation, alerting.
// Returning false drops the verdict from output.
type PostVerdictHook func(ctx context.Context, entry *output.Entry) (keep bool, err error)

// PreFlushHook is called once per package with the verdicts about to be
// flushed. Use cases: reordering policies, batching metadata.
type PreFlushHook func(ctx context.Context, entries []*output.Entry) error

// ErrorHook is called when an error occurs during analysis.
// Use cases: alerting, logging, recovery.
type ErrorHook func(ctx context.Context, err error, phase string) error

// RegisterPreAnalyze adds a pre-analyze hook.
func (m *Manager) RegisterPreAnalyze(hook PreAnalyzeHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preAnalyzeHooks = append(m.preAnalyzeHooks, hook)
}

// RegisterPostVerdict adds a post-verdict hook.
func (m *Manager) RegisterPostVerdict(hook PostVerdictHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postVerdictHooks = append(m.postVerdictHooks, hook)
}

// RegisterPreFlush adds a pre-flush hook.
func (m *Manager) RegisterPreFlush(hook PreFlushHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preFlushHooks = append(m.preFlushHooks, hook)
}

// RegisterError adds an error hook.
func (m *Manager) RegisterError(hook ErrorHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorHooks = append(m.errorHooks, hook)
}

// RunPreAnalyze executes all pre-analyze hooks.
func (m *Manager) RunPreAnalyze(ctx context.Context, pkg *datasource.Package) (context.Context, error) {
	m.mu.RLock()
	hooks := m.preAnalyzeHooks
	m.mu.RUnlock()

	for _, hook := range hooks {
		var err error
		ctx, err = hook(ctx, pkg)
		if err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

// RunPostVerdict executes all post-verdict hooks. The first hook that
// drops the verdict short-circuits.
func (m *Manager) RunPostVerdict(ctx context.Context, entry *output.Entry) (bool, error) {
	m.mu.RLock()
	hooks := m.postVerdictHooks
	m.mu.RUnlock()

	for _, hook := range hooks {
		keep, err := hook(ctx, entry)
		if err != nil {
			return false, err
		}
		if !keep {
			return false, nil
		}
	}
	return true, nil
}

// RunPreFlush executes all pre-flush hooks.
func (m *Manager) RunPreFlush(ctx context.Context, entries []*output.Entry) error {
	m.mu.RLock()
	hooks := m.preFlushHooks
	m.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, entries); err != nil {
			return err
		}
	}
	return nil
}

// RunError executes all error hooks and returns the original error.
func (m *Manager) RunError(ctx context.Context, err error, phase string) error {
	m.mu.RLock()
	hooks := m.errorHooks
	m.mu.RUnlock()

	for _, hook := range hooks {
		if hookErr := hook(ctx, err, phase); hookErr != nil {
			return hookErr
		}
	}
	return err
}

// Clear removes all registered hooks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.preAnalyzeHooks = nil
	m.postVerdictHooks = nil
	m.preFlushHooks = nil
	m.errorHooks = nil
}
