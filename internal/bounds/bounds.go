// Package bounds generates static trait-bound assertions for type declarations.
package bounds

import (
	"strings"

	"github.com/agentic-research/platgate/api"
	"github.com/agentic-research/platgate/internal/resolve"
)

// Assert builds a guarded assertion that decl implements every trait in
// traits. It returns nil when traits is empty.
//
// The check is generic over the declaration's own parameters, so no concrete
// instantiation is needed: lifetimes become '_ in the checked type, type and
// const parameters keep their bounds, defaults are dropped and the where
// clause is carried over. When a type bound or the where clause names a
// lifetime, the lifetimes are declared on the check as well.
func Assert(decl *api.TypeDecl, traits []string, guard resolve.Guard) *api.TraitAssertion {
	if len(traits) == 0 {
		return nil
	}

	named := namesLifetime(decl)
	var params []api.GenericParam
	args := make([]string, 0, len(decl.Generics))
	for _, g := range decl.Generics {
		if g.Kind == api.GenericLifetime && !named {
			args = append(args, "'_")
			continue
		}
		g.Default = ""
		params = append(params, g)
		args = append(args, g.Name)
	}

	target := decl.Name
	if len(args) > 0 {
		target += "<" + strings.Join(args, ", ") + ">"
	}
	return &api.TraitAssertion{
		Traits:   append([]string(nil), traits...),
		Generics: params,
		Where:    decl.Where,
		Target:   target,
		Cfg:      string(guard),
	}
}

// namesLifetime reports whether any declared lifetime appears in a type or
// const parameter bound or in the where clause.
func namesLifetime(decl *api.TypeDecl) bool {
	var texts []string
	for _, g := range decl.Generics {
		if g.Kind != api.GenericLifetime {
			texts = append(texts, g.Bounds)
		}
	}
	texts = append(texts, decl.Where)
	for _, g := range decl.Generics {
		if g.Kind != api.GenericLifetime {
			continue
		}
		for _, text := range texts {
			if mentions(text, g.Name) {
				return true
			}
		}
	}
	return false
}

// mentions reports whether text contains name as a whole token.
func mentions(text, name string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], name)
		if j < 0 {
			return false
		}
		end := i + j + len(name)
		if end == len(text) || !identChar(text[end]) {
			return true
		}
		i = end
	}
}

func identChar(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
