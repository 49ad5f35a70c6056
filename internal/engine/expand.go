// Package engine expands annotated declarations and orchestrates whole files
// and trees of files.
package engine

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"go.uber.org/zap"

	"github.com/agentic-research/platgate/api"
	"github.com/agentic-research/platgate/internal/alias"
	"github.com/agentic-research/platgate/internal/bounds"
	"github.com/agentic-research/platgate/internal/config"
	"github.com/agentic-research/platgate/internal/dispatch"
	"github.com/agentic-research/platgate/internal/ingest"
	"github.com/agentic-research/platgate/internal/options"
	"github.com/agentic-research/platgate/internal/platform"
	"github.com/agentic-research/platgate/internal/resolve"
)

// Engine holds read-only settings; it is safe for concurrent use.
type Engine struct {
	cfg *config.Config
	log *zap.Logger
	tr  dispatch.Transformer
}

// New returns an engine for cfg. A nil cfg means config.Default and a nil
// logger discards output.
func New(cfg *config.Config, log *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg: cfg,
		log: log,
		tr:  dispatch.Transformer{Suffix: cfg.ImplSuffix},
	}
}

// PlanEntry summarizes what one declaration expands to.
type PlanEntry struct {
	Kind      string   `yaml:"kind"`
	Name      string   `yaml:"name"`
	Location  string   `yaml:"location"`
	Include   []string `yaml:"include,omitempty"`
	Exclude   []string `yaml:"exclude,omitempty"`
	Traits    []string `yaml:"traits,omitempty"`
	Atoms     []string `yaml:"atoms"`
	Guard     string   `yaml:"guard,omitempty"`
	Generated []string `yaml:"generated,omitempty"`
	Errors    []string `yaml:"errors,omitempty"`
}

// Expansion is the output for one declaration.
type Expansion struct {
	Items []api.Item
	Diags hcl.Diagnostics
	Plan  PlanEntry
}

// Expand runs one declaration through option parsing, resolution and the
// generator its attribute selects. Option or front-end failures produce no
// generated items. Every error diagnostic is also appended as a
// compile_error! item when embedding is enabled.
func (e *Engine) Expand(d *ingest.Declaration) Expansion {
	exp := Expansion{Plan: PlanEntry{
		Kind:     d.Directive.Kind.String(),
		Name:     itemName(d.Item),
		Location: location(d.Directive.Range),
		Atoms:    []string{},
	}}
	defer func() {
		for _, diag := range exp.Diags.Errs() {
			exp.Plan.Errors = append(exp.Plan.Errors, diag.Error())
		}
		for _, it := range exp.Items {
			exp.Plan.Generated = append(exp.Plan.Generated, describe(it))
		}
	}()

	if d.Item == nil || d.Diags.HasErrors() {
		exp.Diags = d.Diags
		exp.Items = e.embed(nil, exp.Diags)
		return exp
	}

	opts, diags := options.Parse(d.Directive.Options, d.Directive.OptionsRange, d.Directive.Kind.AllowsTraits())
	if diags.HasErrors() {
		exp.Diags = diags
		exp.Items = e.embed(nil, diags)
		return exp
	}
	exp.Plan.Include = groupNames(opts.Include)
	exp.Plan.Exclude = groupNames(opts.Exclude)
	exp.Plan.Traits = opts.TraitPaths()

	res := resolve.Resolve(opts.Include, opts.Exclude, opts.Range)
	exp.Plan.Atoms = append(exp.Plan.Atoms, res.Atoms.Names()...)
	exp.Plan.Guard = string(res.Guard)

	var items []api.Item
	switch d.Directive.Kind {
	case ingest.SysFunction, ingest.SysTraitFunction:
		out, tdiags := e.tr.Transform(d.Item.(*api.Callable), res.Guard)
		diags = append(diags, tdiags...)
		if out != nil {
			items = append(items, out)
		}
	case ingest.SysStruct:
		decl := d.Item.(*api.TypeDecl)
		guarded := *decl
		guarded.Attrs = append([]string(nil), decl.Attrs...)
		guarded.Cfg = string(res.Guard)
		items = append(items, &guarded)
		for _, a := range alias.Structs(decl, res.Atoms.Atoms()) {
			items = append(items, a)
		}
		if check := bounds.Assert(decl, opts.TraitPaths(), res.Guard); check != nil {
			items = append(items, check)
		}
	case ingest.PlatformMod:
		mods, mdiags := alias.Modules(d.Item, res.Atoms.Atoms())
		diags = append(diags, mdiags...)
		items = append(items, mods...)
	}

	// Resolver diagnostics never replace output.
	diags = append(diags, res.Diags...)
	exp.Diags = diags
	exp.Items = e.embed(items, diags)

	e.log.Debug("expanded declaration",
		zap.String("kind", exp.Plan.Kind),
		zap.String("name", exp.Plan.Name),
		zap.String("location", exp.Plan.Location),
		zap.String("guard", exp.Plan.Guard),
		zap.Int("items", len(exp.Items)),
		zap.Int("diagnostics", len(exp.Diags)))
	return exp
}

func (e *Engine) embed(items []api.Item, diags hcl.Diagnostics) []api.Item {
	if !e.cfg.EmbedErrors {
		return items
	}
	for _, d := range diags {
		if d.Severity == hcl.DiagError {
			items = append(items, &api.CompileError{Message: message(d)})
		}
	}
	return items
}

func message(d *hcl.Diagnostic) string {
	if d.Detail == "" {
		return d.Summary
	}
	return d.Summary + ": " + strings.TrimSuffix(d.Detail, ".")
}

func location(r hcl.Range) string {
	return fmt.Sprintf("%s:%d:%d", r.Filename, r.Start.Line, r.Start.Column)
}

func groupNames(gs []platform.Group) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.String()
	}
	return out
}

func itemName(it api.Item) string {
	switch it := it.(type) {
	case *api.Callable:
		return it.Name
	case *api.TypeDecl:
		return it.Name
	case *api.ModuleDecl:
		return it.Name
	case *api.UseDecl:
		return it.Name
	}
	return ""
}

func describe(it api.Item) string {
	switch it := it.(type) {
	case *api.Callable:
		if it.Forward != nil {
			return "fn " + it.Name + " -> " + it.Forward.Path
		}
		return "fn " + it.Name
	case *api.TypeDecl:
		return it.Keyword + " " + it.Name
	case *api.TypeAlias:
		return "type " + it.Name + " = " + it.Target
	case *api.TraitAssertion:
		return "assert " + it.Target + ": " + strings.Join(it.Traits, " + ")
	case *api.ModuleDecl:
		return "mod " + it.Name
	case *api.UseDecl:
		return "use " + it.Path + " as " + it.Alias
	case *api.CompileError:
		return "compile_error"
	}
	return ""
}
