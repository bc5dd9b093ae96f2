// Package rules holds the built-in rule set for resource objects,
// registered with the loader as the "core" module.
package rules

import (
	"context"
	"strings"

	"github.com/loclint/loclint/pkg/loader"
	"github.com/loclint/loclint/pkg/object"
	"github.com/loclint/loclint/pkg/output"
	"github.com/loclint/loclint/pkg/property"
	"github.com/loclint/loclint/pkg/resfile"
	"github.com/loclint/loclint/pkg/rule"
)

func init() {
	loader.RegisterBuiltin("core", Builtin())
}

// Builtin returns the core rule definitions for resource objects.
func Builtin() []rule.Definition {
	return []rule.Definition{
		emptyTranslation(),
		lengthLimit(),
		placeholderParity(),
		glossaryCompliance(),
	}
}

func emptyTranslation() rule.Definition {
	return rule.Definition{
		Name:        "empty-translation",
		Category:    "completeness",
		Description: "A localizable source string must have a non-empty translation.",
		ObjectType:  resfile.ObjectType,
		Run: func(ctx context.Context, obj *object.Object, ck *rule.Checker) error {
			ck.Check(func(o *object.Object) bool {
				if stringProp(o, resfile.PropSourceText) == "" {
					return true
				}
				return strings.TrimSpace(stringProp(o, resfile.PropTargetText)) != ""
			}, "translation is present", output.SeverityHigh)
			return nil
		},
	}
}

func lengthLimit() rule.Definition {
	return rule.Definition{
		Name:        "length-limit",
		Category:    "layout",
		Description: "A translation must fit within the declared maximum length.",
		ObjectType:  resfile.ObjectType,
		Run: func(ctx context.Context, obj *object.Object, ck *rule.Checker) error {
			// Verdict is true when no limit is declared, or when one is
			// declared and the target fits. The AND gate applies to the
			// fit check only.
			ck.Check(func(o *object.Object) bool {
				return intProp(o, resfile.PropMaxLength) == 0
			}, "no length limit declared")

			ck.Or().Check(func(o *object.Object) bool {
				return intProp(o, resfile.PropMaxLength) > 0
			}, "length limit declared")
			ck.And().Check(func(o *object.Object) bool {
				limit := intProp(o, resfile.PropMaxLength)
				return limit == 0 || len([]rune(stringProp(o, resfile.PropTargetText))) <= limit
			}, "translation fits length limit", output.SeverityMedium)
			return nil
		},
	}
}

func placeholderParity() rule.Definition {
	return rule.Definition{
		Name:        "placeholder-parity",
		Category:    "correctness",
		Description: "Placeholders in the source must all appear in the translation.",
		ObjectType:  resfile.ObjectType,
		Run: func(ctx context.Context, obj *object.Object, ck *rule.Checker) error {
			placeholders, _ := obj.GetProperty(resfile.PropPlaceholders)
			tokens, _ := placeholders.Value.([]string)

			mc := rule.NewMessageCreator().SetInit("translation must contain ")
			rendered := mc.SetContext(strings.Join(tokens, " "))

			ck.CheckCreator(func(o *object.Object) bool {
				target := stringProp(o, resfile.PropTargetText)
				if target == "" {
					return len(tokens) == 0
				}
				for _, tok := range tokens {
					if !strings.Contains(target, tok) {
						return false
					}
				}
				// The rendered message names every expected token; an
				// empty expectation renders back to the bare template.
				return rendered != ""
			}, mc, output.SeverityCritical)
			return nil
		},
	}
}

func glossaryCompliance() rule.Definition {
	return rule.Definition{
		Name:        "glossary-compliance",
		Category:    "terminology",
		Description: "Source terms with glossary entries must use the mandated translation.",
		ObjectType:  resfile.ObjectType,
		Run: func(ctx context.Context, obj *object.Object, ck *rule.Checker) error {
			terms := glossaryTerms(obj)

			// Verdict is true when no glossary is attached, or when one is
			// and every mandated term is honored. The AND gate applies to
			// the compliance check only.
			ck.Check(func(o *object.Object) bool {
				return len(terms) == 0
			}, "no glossary attached")

			ck.Or().Check(func(o *object.Object) bool {
				return len(terms) > 0
			}, "glossary available")
			ck.And().Check(func(o *object.Object) bool {
				source := strings.ToLower(stringProp(o, resfile.PropSourceText))
				target := stringProp(o, resfile.PropTargetText)
				for term, mandated := range terms {
					if strings.Contains(source, strings.ToLower(term)) &&
						!strings.Contains(target, mandated) {
						return false
					}
				}
				return true
			}, "mandated terminology used", output.SeverityHigh)
			return nil
		},
	}
}

func stringProp(o *object.Object, id property.ID) string {
	p, ok := o.GetProperty(id)
	if !ok {
		return ""
	}
	s, _ := p.Value.(string)
	return s
}

func intProp(o *object.Object, id property.ID) int {
	p, ok := o.GetProperty(id)
	if !ok {
		return 0
	}
	n, _ := p.Value.(int)
	return n
}

func glossaryTerms(o *object.Object) map[string]string {
	p, ok := o.GetProperty(resfile.PropGlossaryTerms)
	if !ok {
		return nil
	}
	terms, _ := p.Value.(map[string]string)
	return terms
}
