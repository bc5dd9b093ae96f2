// Package loader resolves rule implementations from precompiled (builtin)
// rule sets and from rule sources interpreted at load time. Sources are
// combined into one synthetic rule bundle per session; the bundle is
// persisted under the build directory and can be referenced directly by
// later sessions.
package loader

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/rule"
)

// Options configures a loader session.
type Options struct {
	// References names rule modules to load: builtin rule-set names,
	// bundle file paths, or bare bundle names resolved against the
	// search paths.
	References []string

	// Sources lists rule source files to build into one bundle. The
	// first is the primary compilation unit.
	Sources []string

	// BuildDir is where built bundles are persisted. Must be absolute
	// when set; empty falls back to the platform temp directory.
	BuildDir string

	// SearchPaths are directories consulted when resolving a bare
	// module name.
	SearchPaths []string

	// Macros is the variable-expansion table applied to every reference
	// and source path. Unknown variables fall back to the environment.
	Macros map[string]string

	// Symbols exposes extra host packages to interpreted rule sources,
	// beyond the core rule API.
	Symbols map[string]map[string]interface{}
}

// Loader is a rule-loading session. Reference and source sets grow
// monotonically; duplicates are ignored.
type Loader struct {
	log      *zap.Logger
	buildDir string
	macros   map[string]string
	symbols  map[string]map[string]interface{}

	mu         sync.Mutex
	searchDirs []string
	references []string
	sources    []string
	seen       map[string]struct{}

	rules   []rule.Rule
	modules []*Module
}

// Module is one loaded rule container.
type Module struct {
	Name  string
	Path  string
	Rules []rule.Definition
}

// builtin rule sets, registered at init time by statically linked rule
// packages and selected by reference name.
var (
	builtinMu sync.RWMutex
	builtins  = make(map[string][]rule.Definition)
)

// RegisterBuiltin registers a precompiled rule set under a name. Later
// registrations under the same name replace earlier ones.
func RegisterBuiltin(name string, defs []rule.Definition) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	builtins[name] = defs
}

// New constructs a loader: expands macros in every reference and source
// path, prepares the build directory, builds any rule sources into one
// bundle, and loads every referenced module. A failed build is fatal to
// the session and names the failed sources.
func New(opts Options, log *zap.Logger) (*Loader, error) {
	if log == nil {
		log = zap.NewNop()
	}

	buildDir, err := ensureBuildDir(opts.BuildDir)
	if err != nil {
		return nil, err
	}

	l := &Loader{
		log:        log,
		buildDir:   buildDir,
		macros:     opts.Macros,
		symbols:    opts.Symbols,
		searchDirs: append([]string(nil), opts.SearchPaths...),
		seen:       make(map[string]struct{}),
	}

	for _, ref := range opts.References {
		l.AddReference(ref)
	}
	for _, src := range opts.Sources {
		l.AddSource(src)
	}

	if len(l.sources) > 0 {
		primary := l.sources[0]
		target := filepath.Join(buildDir, bundleName(primary))
		mod, err := l.BuildModule(primary, target, l.sources[1:])
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeBuildFailed,
				"building rule sources failed: %s", strings.Join(l.sources, ", "))
		}
		l.AddReference(mod.Path)
	}

	if err := l.loadReferences(); err != nil {
		return nil, err
	}
	return l, nil
}

// AddReference registers a module reference after macro expansion.
// Duplicates are ignored.
func (l *Loader) AddReference(ref string) {
	l.add(&l.references, l.expand(ref))
}

// AddSource registers a rule source path after macro expansion.
// Duplicates are ignored.
func (l *Loader) AddSource(src string) {
	l.add(&l.sources, l.expand(src))
}

func (l *Loader) add(list *[]string, v string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[v]; dup {
		return
	}
	l.seen[v] = struct{}{}
	*list = append(*list, v)
}

// AddSearchPath adds a resolver directory. The same lock guards path-set
// mutation and lookup so resolution never iterates a mutating slice.
func (l *Loader) AddSearchPath(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.searchDirs {
		if existing == dir {
			return
		}
	}
	l.searchDirs = append(l.searchDirs, dir)
}

// Resolve locates a named module file across the search paths.
func (l *Loader) Resolve(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, dir := range l.searchDirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Rules returns every rule loaded in this session.
func (l *Loader) Rules() []rule.Rule {
	return l.rules
}

// Modules returns the loaded module descriptors.
func (l *Loader) Modules() []*Module {
	return l.modules
}

// BuildDir returns the session build directory.
func (l *Loader) BuildDir() string { return l.buildDir }

// expand substitutes ${Var} placeholders from the macro table, falling
// back to the process environment.
func (l *Loader) expand(path string) string {
	return os.Expand(path, func(name string) string {
		if v, ok := l.macros[name]; ok {
			return v
		}
		return os.Getenv(name)
	})
}

func (l *Loader) loadReferences() error {
	l.mu.Lock()
	refs := append([]string(nil), l.references...)
	l.mu.Unlock()

	for _, ref := range refs {
		mod, err := l.loadReference(ref)
		if err != nil {
			return err
		}
		l.modules = append(l.modules, mod)
		for _, def := range mod.Rules {
			l.rules = append(l.rules, rule.New(def))
		}
		l.log.Info("rule module loaded",
			zap.String("module", mod.Name),
			zap.Int("rules", len(mod.Rules)))
	}
	return nil
}

func (l *Loader) loadReference(ref string) (*Module, error) {
	builtinMu.RLock()
	defs, isBuiltin := builtins[ref]
	builtinMu.RUnlock()
	if isBuiltin {
		return &Module{Name: ref, Rules: defs}, nil
	}

	path := ref
	if _, err := os.Stat(path); err != nil {
		resolved, ok := l.Resolve(ref)
		if !ok {
			return nil, errors.New(errors.CodeModuleNotFound, "rule module not found").
				WithContext("reference", ref)
		}
		path = resolved
	}
	return l.loadBundle(path)
}

// ensureBuildDir validates and prepares the bundle build directory. A
// configured relative path is a fatal configuration error; an empty path
// falls back to the platform temp directory.
func ensureBuildDir(configured string) (string, error) {
	dir := configured
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "loclint-build")
	} else if !filepath.IsAbs(dir) {
		return "", errors.RelativeTempDir(dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.CodeBadConfig, "cannot create build directory").
			WithContext("path", dir)
	}
	return dir, nil
}

// bundleName derives the deterministic bundle file name for a primary
// source.
func bundleName(primary string) string {
	stem := strings.TrimSuffix(filepath.Base(primary), filepath.Ext(primary))
	return stem + ".rulepack"
}
