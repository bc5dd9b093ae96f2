package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"github.com/loclint/loclint/pkg/errors"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/property"
	"github.com/loclint/loclint/pkg/rule"
)

const (
	bundleHeader = "#loclint rulepack v1"
	sourceMarker = "//loclint:source "

	// exportSymbol is the entry point every rule bundle must define:
	//
	//	package rules
	//	func Export() []rule.Definition
	exportSymbol = "rules.Export"

	// buildTimeout bounds interpretation, the one unbounded step in a
	// loading session.
	buildTimeout = 30 * time.Second
)

// sourcePart is one file of a rule bundle.
type sourcePart struct {
	Name string
	Code string
}

// BuildModule builds the primary source plus all additional sources
// (deduplicated) into one rule bundle persisted at targetPath.
//
// If a file already exists at the target it is removed; when removal
// fails (locked, permissions) a freshly generated unique target name is
// substituted with a warning rather than aborting, so repeated runs
// against the same rule set need no manual cleanup.
//
// Every diagnostic is logged. If any source fails to compile, no module
// is returned and all diagnostics are surfaced together as one
// aggregated failure.
func (l *Loader) BuildModule(primarySource, targetPath string, additionalSources []string) (*Module, error) {
	if _, err := os.Stat(targetPath); err == nil {
		if rmErr := os.Remove(targetPath); rmErr != nil {
			alt := alternateTarget(targetPath)
			l.log.Warn("target bundle locked, using generated name",
				zap.String("target", targetPath),
				zap.String("alternate", alt),
				zap.Error(rmErr))
			targetPath = alt
		}
	}

	paths := dedupe(append([]string{primarySource}, additionalSources...))
	parts := make([]sourcePart, 0, len(paths))
	for _, p := range paths {
		code, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeBadReference, "cannot read rule source").
				WithContext("path", p)
		}
		parts = append(parts, sourcePart{Name: filepath.Base(p), Code: string(code)})
	}

	defs, err := l.interpret(parts)
	if err != nil {
		return nil, err
	}

	if err := writeBundle(targetPath, parts); err != nil {
		return nil, errors.Wrap(err, errors.CodeWriteFailed, "cannot persist rule bundle").
			WithContext("path", targetPath)
	}
	l.log.Info("rule bundle built",
		zap.String("path", targetPath),
		zap.Int("sources", len(parts)),
		zap.Int("rules", len(defs)))

	return &Module{Name: filepath.Base(targetPath), Path: targetPath, Rules: defs}, nil
}

// loadBundle loads a previously built bundle file.
func (l *Loader) loadBundle(path string) (*Module, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBadReference, "cannot read rule bundle").
			WithContext("path", path)
	}
	parts, err := splitBundle(string(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBadRuleBundle, "malformed rule bundle").
			WithContext("path", path)
	}
	defs, err := l.interpret(parts)
	if err != nil {
		return nil, err
	}
	return &Module{Name: filepath.Base(path), Path: path, Rules: defs}, nil
}

// interpret compiles all parts as one unit in a fresh interpreter and
// calls the bundle's Export entry point. All compile diagnostics are
// collected and reported together.
func (l *Loader) interpret(parts []sourcePart) ([]rule.Definition, error) {
	type result struct {
		defs []rule.Definition
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defs, err := l.interpretParts(parts)
		done <- result{defs: defs, err: err}
	}()

	select {
	case r := <-done:
		return r.defs, r.err
	case <-time.After(buildTimeout):
		return nil, errors.New(errors.CodeBuildFailed, "rule interpretation timed out").
			WithContext("timeout", buildTimeout.String())
	}
}

func (l *Loader) interpretParts(parts []sourcePart) ([]rule.Definition, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errors.Wrap(err, errors.CodeBuildFailed, "cannot load interpreter stdlib")
	}
	if err := i.Use(l.exports()); err != nil {
		return nil, errors.Wrap(err, errors.CodeBuildFailed, "cannot load rule API symbols")
	}

	var diags errors.MultiError
	programs := make([]*interp.Program, 0, len(parts))
	for _, part := range parts {
		prog, err := i.Compile(part.Code)
		if err != nil {
			l.log.Error("rule source diagnostic",
				zap.String("source", part.Name),
				zap.Error(err))
			diags.Append(fmt.Errorf("%s: %w", part.Name, err))
			continue
		}
		programs = append(programs, prog)
	}
	if diags.HasErrors() {
		return nil, errors.Wrap(&diags, errors.CodeBuildFailed, "rule sources failed to compile")
	}

	for idx, prog := range programs {
		if _, err := i.Execute(prog); err != nil {
			l.log.Error("rule source diagnostic",
				zap.String("source", parts[idx].Name),
				zap.Error(err))
			diags.Append(fmt.Errorf("%s: %w", parts[idx].Name, err))
		}
	}
	if diags.HasErrors() {
		return nil, errors.Wrap(&diags, errors.CodeBuildFailed, "rule sources failed to run")
	}

	v, err := i.Eval(exportSymbol)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMissingExport, "bundle does not define rules.Export")
	}
	export, ok := v.Interface().(func() []rule.Definition)
	if !ok {
		return nil, errors.New(errors.CodeMissingExport,
			"rules.Export has wrong signature (want func() []rule.Definition)")
	}
	return export(), nil
}

// exports builds the host symbol table visible to interpreted rule
// sources: the core rule API plus any session extras.
func (l *Loader) exports() interp.Exports {
	ex := interp.Exports{
		"github.com/loclint/loclint/pkg/rule/rule": {
			"Definition":        reflect.ValueOf((*rule.Definition)(nil)),
			"Checker":           reflect.ValueOf((*rule.Checker)(nil)),
			"Predicate":         reflect.ValueOf((*rule.Predicate)(nil)),
			"Rule":              reflect.ValueOf((*rule.Rule)(nil)),
			"MessageCreator":    reflect.ValueOf((*rule.MessageCreator)(nil)),
			"NewMessageCreator": reflect.ValueOf(rule.NewMessageCreator),
			"Render":            reflect.ValueOf(rule.Render),
		},
		"github.com/loclint/loclint/pkg/object/object": {
			"Object": reflect.ValueOf((*object.Object)(nil)),
		},
		"github.com/loclint/loclint/pkg/output/output": {
			"Severity":         reflect.ValueOf((*output.Severity)(nil)),
			"SeverityNormal":   reflect.ValueOf(output.SeverityNormal),
			"SeverityLow":      reflect.ValueOf(output.SeverityLow),
			"SeverityMedium":   reflect.ValueOf(output.SeverityMedium),
			"SeverityHigh":     reflect.ValueOf(output.SeverityHigh),
			"SeverityCritical": reflect.ValueOf(output.SeverityCritical),
		},
		"github.com/loclint/loclint/pkg/property/property": {
			"ID":       reflect.ValueOf((*property.ID)(nil)),
			"Property": reflect.ValueOf((*property.Property)(nil)),
		},
	}
	for path, symbols := range l.symbols {
		m, exists := ex[path]
		if !exists {
			m = make(map[string]reflect.Value, len(symbols))
			ex[path] = m
		}
		for name, val := range symbols {
			m[name] = reflect.ValueOf(val)
		}
	}
	return ex
}

// alternateTarget generates a unique sibling name for a locked target.
func alternateTarget(target string) string {
	ext := filepath.Ext(target)
	return strings.TrimSuffix(target, ext) + "-" + uuid.NewString() + ext
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0:0]
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// writeBundle persists the combined sources as one bundle file.
func writeBundle(path string, parts []sourcePart) error {
	var sb strings.Builder
	sb.WriteString(bundleHeader)
	sb.WriteString("\n")
	for _, part := range parts {
		sb.WriteString(sourceMarker)
		sb.WriteString(part.Name)
		sb.WriteString("\n")
		sb.WriteString(part.Code)
		if !strings.HasSuffix(part.Code, "\n") {
			sb.WriteString("\n")
		}
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// splitBundle parses a bundle file back into its source parts.
func splitBundle(raw string) ([]sourcePart, error) {
	lines := strings.SplitAfter(raw, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != bundleHeader {
		return nil, fmt.Errorf("missing bundle header")
	}

	var parts []sourcePart
	var current *sourcePart
	var body strings.Builder
	flush := func() {
		if current != nil {
			current.Code = body.String()
			parts = append(parts, *current)
			body.Reset()
		}
	}
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, sourceMarker) {
			flush()
			name := strings.TrimSpace(strings.TrimPrefix(line, sourceMarker))
			current = &sourcePart{Name: name}
			continue
		}
		if current != nil {
			body.WriteString(line)
		}
	}
	flush()

	if len(parts) == 0 {
		return nil, fmt.Errorf("bundle contains no sources")
	}
	return parts, nil
}
