// Package dispatch rewrites a signature-only callable declaration into a
// guarded wrapper whose body forwards to a platform-specific implementation.
package dispatch

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/agentic-research/platgate/api"
	"github.com/agentic-research/platgate/internal/resolve"
)

// DefaultSuffix names the implementation a wrapper forwards to.
const DefaultSuffix = "_impl"

// ImplName applies the naming convention linking a wrapper to its implementation.
func ImplName(name, suffix string) string {
	return name + suffix
}

// Transformer builds forwarding wrappers.
type Transformer struct {
	// Suffix defaults to DefaultSuffix when empty.
	Suffix string
}

func (t Transformer) suffix() string {
	if t.Suffix == "" {
		return DefaultSuffix
	}
	return t.Suffix
}

// Transform returns a copy of decl carrying guard. A declaration with a body,
// or one marked Plain, is only guarded. A signature-only declaration also
// gets a forwarding body. Diagnostics are additive: every unsupported
// parameter is reported. A variadic declaration yields no wrapper at all.
func (t Transformer) Transform(decl *api.Callable, guard resolve.Guard) (*api.Callable, hcl.Diagnostics) {
	out := clone(decl)
	out.Cfg = string(guard)
	if !decl.Signature() || decl.Plain {
		return out, nil
	}

	var diags hcl.Diagnostics
	fwd := &api.Forward{
		Path:      t.path(decl),
		Await:     decl.Async,
		Unsafe:    decl.Unsafe,
		Statement: decl.Return == "",
	}
	for _, p := range decl.Params {
		switch p.Kind {
		case api.ParamReceiver:
			fwd.Args = append(fwd.Args, "self")
		case api.ParamBinding:
			fwd.Args = append(fwd.Args, p.Name)
		default:
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported parameter pattern",
				Detail: fmt.Sprintf("Complex patterns in arguments are not supported: give the argument `%s` a name.",
					p.Pattern),
				Subject: p.Range.Ptr(),
			})
		}
	}
	for _, g := range decl.Generics {
		if g.Kind == api.GenericLifetime {
			continue
		}
		fwd.GenericArgs = append(fwd.GenericArgs, g.Name)
	}

	if decl.Variadic != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Variadic arguments are not permitted",
			Detail:   fmt.Sprintf("`%s` cannot be forwarded to %s.", decl.Variadic.Text, fwd.Path),
			Subject:  decl.Variadic.Range.Ptr(),
		})
		return nil, diags
	}

	out.Forward = fwd
	return out, diags
}

func (t Transformer) path(decl *api.Callable) string {
	name := ImplName(decl.Name, t.suffix())
	if decl.Scope == api.ScopeFree {
		return name
	}
	return "Self::" + name
}

func clone(decl *api.Callable) *api.Callable {
	out := *decl
	out.Attrs = append([]string(nil), decl.Attrs...)
	out.Generics = append([]api.GenericParam(nil), decl.Generics...)
	out.Params = append([]api.Param(nil), decl.Params...)
	if decl.Variadic != nil {
		v := *decl.Variadic
		out.Variadic = &v
	}
	out.Forward = nil
	return &out
}
