// Package emit re-serializes api items as Rust source text.
package emit

import (
	"strconv"
	"strings"

	"github.com/agentic-research/platgate/api"
	"github.com/agentic-research/platgate/internal/resolve"
)

// Unit is one level of indentation inside generated bodies.
const Unit = "    "

// Render serializes items in order. The first line is not indented, since it
// replaces text that already sits at the item's column; every following line
// the emitter produces starts with indent. Verbatim source (bodies, attributes,
// original type text) keeps its own layout.
func Render(items []api.Item, indent string) string {
	w := &writer{indent: indent}
	for _, it := range items {
		w.item(it)
	}
	return strings.Join(w.lines, "\n"+indent)
}

// Item renders a single item at column zero.
func Item(it api.Item) string {
	return Render([]api.Item{it}, "")
}

type writer struct {
	indent string
	lines  []string
}

func (w *writer) line(s string) {
	w.lines = append(w.lines, s)
}

// header writes the guard and attributes. Plain comments leading the run stay
// above the guard; doc comments are attributes and follow it.
func (w *writer) header(cfg string, attrs []string) {
	lead := 0
	for lead < len(attrs) && plainComment(attrs[lead]) {
		w.line(attrs[lead])
		lead++
	}
	if cfg != "" {
		w.line(resolve.Guard(cfg).Attribute())
	}
	for _, a := range attrs[lead:] {
		w.line(a)
	}
}

func plainComment(s string) bool {
	switch {
	case strings.HasPrefix(s, "///"), strings.HasPrefix(s, "//!"):
		return strings.HasPrefix(s, "////")
	case strings.HasPrefix(s, "//"):
		return true
	case strings.HasPrefix(s, "/**"), strings.HasPrefix(s, "/*!"):
		return strings.HasPrefix(s, "/***") || s == "/**/"
	case strings.HasPrefix(s, "/*"):
		return true
	}
	return false
}

func (w *writer) item(it api.Item) {
	switch it := it.(type) {
	case *api.Callable:
		w.callable(it)
	case *api.TypeDecl:
		w.header(it.Cfg, it.Attrs)
		w.line(it.Text)
	case *api.TypeAlias:
		w.header(it.Cfg, it.Attrs)
		w.line(it.Vis.Prefix() + "type " + it.Name + Generics(it.Generics) + " = " + it.Target + ";")
	case *api.TraitAssertion:
		w.assertion(it)
	case *api.ModuleDecl:
		w.header(it.Cfg, it.Attrs)
		w.line(it.Vis.Prefix() + "mod " + it.Name + ";")
	case *api.UseDecl:
		w.header(it.Cfg, it.Attrs)
		if it.Alias == "" {
			w.line(it.Vis.Prefix() + "use " + it.Path + ";")
		} else {
			w.line(it.Vis.Prefix() + "use " + it.Path + " as " + it.Alias + ";")
		}
	case *api.CompileError:
		w.line("compile_error!(" + strconv.Quote(it.Message) + ");")
	}
}

func (w *writer) callable(c *api.Callable) {
	w.header(c.Cfg, c.Attrs)
	sig := Signature(c)
	switch {
	case c.Forward != nil:
		w.line(sig + " {")
		w.line(Unit + Call(c.Forward))
		w.line("}")
	case c.Body != "":
		w.line(sig + " " + c.Body)
	default:
		w.line(sig + ";")
	}
}

func (w *writer) assertion(a *api.TraitAssertion) {
	w.header(a.Cfg, nil)
	w.line("const _: () = {")
	w.line(Unit + "fn _assert_traits<T: " + strings.Join(a.Traits, " + ") + " + ?Sized>() {}")
	check := Unit + "fn _check" + Generics(a.Generics) + "()"
	if a.Where != "" {
		check += " " + a.Where
	}
	w.line(check + " {")
	w.line(Unit + Unit + "_assert_traits::<" + a.Target + ">();")
	w.line(Unit + "}")
	w.line("};")
}

// Signature renders a callable's signature without body or terminator.
func Signature(c *api.Callable) string {
	var b strings.Builder
	b.WriteString(c.Vis.Prefix())
	if c.Const {
		b.WriteString("const ")
	}
	if c.Async {
		b.WriteString("async ")
	}
	if c.Unsafe {
		b.WriteString("unsafe ")
	}
	if c.Extern != "" {
		b.WriteString(c.Extern + " ")
	}
	b.WriteString("fn " + c.Name + Generics(c.Generics) + "(")

	params := make([]string, 0, len(c.Params)+1)
	for _, p := range c.Params {
		params = append(params, Param(p))
	}
	if c.Variadic != nil {
		params = append(params, c.Variadic.Text)
	}
	b.WriteString(strings.Join(params, ", ") + ")")

	if c.Return != "" {
		b.WriteString(" -> " + c.Return)
	}
	if c.Where != "" {
		b.WriteString(" " + c.Where)
	}
	return b.String()
}

// Param renders one parameter as it appears in a signature.
func Param(p api.Param) string {
	switch p.Kind {
	case api.ParamReceiver:
		if p.Type != "" {
			return p.Pattern + ": " + p.Type
		}
		return p.Pattern
	case api.ParamBinding:
		if p.Pattern != "" {
			return p.Pattern + ": " + p.Type
		}
		s := p.Name + ": " + p.Type
		if p.Mutable {
			s = "mut " + s
		}
		return s
	default:
		return p.Pattern + ": " + p.Type
	}
}

// Generics renders a generic parameter list in declaration form, or nothing.
func Generics(gs []api.GenericParam) string {
	if len(gs) == 0 {
		return ""
	}
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = GenericParam(g)
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// GenericParam renders one generic parameter in declaration form.
func GenericParam(g api.GenericParam) string {
	s := g.Name
	if g.Kind == api.GenericConst {
		s = "const " + s
	}
	if g.Bounds != "" {
		s += ": " + g.Bounds
	}
	if g.Default != "" {
		s += " = " + g.Default
	}
	return s
}

// Call renders a forwarding call expression or statement.
func Call(f *api.Forward) string {
	call := f.Path
	if len(f.GenericArgs) > 0 {
		call += "::<" + strings.Join(f.GenericArgs, ", ") + ">"
	}
	call += "(" + strings.Join(f.Args, ", ") + ")"
	if f.Await {
		call += ".await"
	}
	if f.Statement {
		call += ";"
	}
	if f.Unsafe {
		call = "unsafe { " + call + " }"
	}
	return call
}
