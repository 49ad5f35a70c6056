// Package linter reports advisory findings about annotated declarations.
package linter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/agentic-research/platgate/api"
	"github.com/agentic-research/platgate/internal/dispatch"
	"github.com/agentic-research/platgate/internal/ingest"
)

// definedFunctions matches every function name, with or without a body.
const definedFunctions = `[
	(function_item name: (identifier) @name)
	(function_signature_item name: (identifier) @name)
]`

// associatedScopes matches impl and trait bodies, the places `Self::` can
// resolve into.
const associatedScopes = `[
	(impl_item body: (declaration_list) @scope)
	(trait_item body: (declaration_list) @scope)
]`

// Lint warns about forwarding wrappers whose implementation function is not
// defined in the same file. A method must find its implementation inside an
// impl or trait body; a free function may find it anywhere. Implementations
// commonly live in per-platform files, so findings are warnings only.
func Lint(f *ingest.File, w ingest.Walker, suffix string) (hcl.Diagnostics, error) {
	if !ingest.IsSource(f.Name) {
		return nil, nil
	}
	if suffix == "" {
		suffix = dispatch.DefaultSuffix
	}

	anywhere, err := names(w, f.Root)
	if err != nil {
		return nil, fmt.Errorf("lint %s: %w", f.Name, err)
	}
	scopes, err := w.Query(f.Root, associatedScopes)
	if err != nil {
		return nil, fmt.Errorf("lint %s: %w", f.Name, err)
	}
	associated := make(map[string]bool)
	for _, s := range scopes {
		ctx := s.Context()
		if ctx == nil {
			continue
		}
		found, err := names(w, ctx)
		if err != nil {
			return nil, fmt.Errorf("lint %s: %w", f.Name, err)
		}
		for name := range found {
			associated[name] = true
		}
	}

	var diags hcl.Diagnostics
	for _, d := range f.Decls {
		c, ok := d.Item.(*api.Callable)
		if !ok || d.Directive.Kind != ingest.SysFunction || !c.Signature() {
			continue
		}
		impl := dispatch.ImplName(c.Name, suffix)
		defined := anywhere
		where := f.Name
		if c.Scope == api.ScopeAssociated {
			defined = associated
			where = "an impl or trait body of " + f.Name
		}
		if defined[impl] {
			continue
		}
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagWarning,
			Summary:  "Missing implementation",
			Detail:   fmt.Sprintf("`%s` forwards to `%s`, which is not defined in %s.", c.Name, impl, where),
			Subject:  c.Range.Ptr(),
		})
	}
	return diags, nil
}

func names(w ingest.Walker, root any) (map[string]bool, error) {
	matches, err := w.Query(root, definedFunctions)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(matches))
	for _, m := range matches {
		if name, ok := m.Values()["name"].(string); ok {
			out[name] = true
		}
	}
	return out, nil
}
