// Package alias generates per-platform names for a single declaration: type
// aliases for structs and module/re-export pairs for file-backed modules.
package alias

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/agentic-research/platgate/api"
	"github.com/agentic-research/platgate/internal/platform"
	"github.com/agentic-research/platgate/internal/resolve"
)

// Structs emits one `<Name><Suffix>` alias per atom, each under that atom's
// guard. Lifetimes are kept; bounds and defaults are dropped since aliases do
// not enforce them. Deprecation attributes are copied to every alias.
func Structs(decl *api.TypeDecl, atoms []platform.Atom) []*api.TypeAlias {
	var deprecated []string
	for _, a := range decl.Attrs {
		if isDeprecation(a) {
			deprecated = append(deprecated, a)
		}
	}

	params := make([]api.GenericParam, 0, len(decl.Generics))
	args := make([]string, 0, len(decl.Generics))
	for _, g := range decl.Generics {
		p := api.GenericParam{Kind: g.Kind, Name: g.Name}
		if g.Kind == api.GenericConst {
			p.Bounds = g.Bounds
		}
		params = append(params, p)
		args = append(args, g.Name)
	}
	target := decl.Name
	if len(args) > 0 {
		target += "<" + strings.Join(args, ", ") + ">"
	}

	out := make([]*api.TypeAlias, 0, len(atoms))
	for _, atom := range atoms {
		out = append(out, &api.TypeAlias{
			Attrs:    append([]string(nil), deprecated...),
			Vis:      decl.Vis,
			Name:     decl.Name + atom.Suffix(),
			Generics: append([]api.GenericParam(nil), params...),
			Target:   target,
			Cfg:      string(resolve.AtomGuard(atom)),
		})
	}
	return out
}

func isDeprecation(attr string) bool {
	s := strings.TrimSpace(strings.TrimPrefix(attr, "#["))
	return s == "deprecated]" || strings.HasPrefix(s, "deprecated(") ||
		strings.HasPrefix(s, "deprecated ") || strings.HasPrefix(s, "deprecated=")
}

// Modules expands a body-less module declaration or a single-identifier
// re-export into, per atom, `mod <atom>;` with the declared visibility and a
// private `use <atom> as <name>;`. Unsupported shapes produce a diagnostic and
// no items.
func Modules(item api.Item, atoms []platform.Atom) ([]api.Item, hcl.Diagnostics) {
	var (
		attrs []string
		vis   api.Visibility
		name  string
	)
	switch d := item.(type) {
	case *api.UseDecl:
		if diags := checkUse(d); diags.HasErrors() {
			return nil, diags
		}
		attrs, vis, name = d.Attrs, d.Vis, d.Name
	case *api.ModuleDecl:
		if d.Unsafe {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Unsafe module",
				Detail:   "platform_mod does not support `unsafe` modules.",
				Subject:  d.UnsafeRange.Ptr(),
			}}
		}
		if d.Inline {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Inline module",
				Detail: "platform_mod does not support inline modules with a body `{ ... }`. " +
					"Use a declaration like `mod name;` so the backing file can be swapped per platform.",
				Subject: d.Range.Ptr(),
			}}
		}
		attrs, vis, name = d.Attrs, d.Vis, d.Name
	default:
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported declaration",
			Detail:   "platform_mod expects a module declaration (`mod foo;`) or a use declaration (`use foo;`).",
		}}
	}

	out := make([]api.Item, 0, 2*len(atoms))
	for _, atom := range atoms {
		guard := string(resolve.AtomGuard(atom))
		out = append(out,
			&api.ModuleDecl{
				Attrs: append([]string(nil), attrs...),
				Vis:   vis,
				Name:  atom.Module(),
				Cfg:   guard,
			},
			&api.UseDecl{
				Attrs: append([]string(nil), attrs...),
				Vis:   api.Private,
				Shape: api.UseRename,
				Name:  name,
				Path:  atom.Module(),
				Alias: name,
				Cfg:   guard,
			},
		)
	}
	return out, nil
}

func checkUse(d *api.UseDecl) hcl.Diagnostics {
	if d.Absolute {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Absolute path",
			Detail:   "platform_mod does not support absolute paths (leading `::`). Use a local identifier.",
			Subject:  d.TreeRange.Ptr(),
		}}
	}
	if d.Shape != api.UseName {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Unsupported use %s", d.Shape),
			Detail: fmt.Sprintf("platform_mod on `use` only supports a single local identifier (`use name;`), found a %s.",
				d.Shape),
			Subject: d.TreeRange.Ptr(),
		}}
	}
	return nil
}
