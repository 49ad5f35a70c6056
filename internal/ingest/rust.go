package ingest

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/platgate/api"
)

// DirectiveKind names the generator an attribute asks for.
type DirectiveKind int

const (
	// SysFunction guards a function; signature-only ones get a forwarding body.
	SysFunction DirectiveKind = iota
	// SysTraitFunction guards a trait method declaration without rewriting it.
	SysTraitFunction
	// SysStruct guards a type and adds per-platform aliases and trait checks.
	SysStruct
	// PlatformMod expands a module or re-export into per-platform modules.
	PlatformMod
)

var directiveNames = map[string]DirectiveKind{
	"sys_function":       SysFunction,
	"sys_trait_function": SysTraitFunction,
	"sys_struct":         SysStruct,
	"platform_mod":       PlatformMod,
}

func (k DirectiveKind) String() string {
	for name, kind := range directiveNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// AllowsTraits reports whether the option block may carry traits(...).
func (k DirectiveKind) AllowsTraits() bool {
	return k == SysStruct
}

// Directive is the attribute that marks a declaration for generation.
type Directive struct {
	Kind DirectiveKind
	// Options is the raw text between the attribute's parentheses.
	Options      []byte
	OptionsRange hcl.Range
	Range        hcl.Range
}

// Declaration is one annotated item found in a source file.
type Declaration struct {
	Directive Directive
	// Item is nil when Diags reports that the item cannot be expanded.
	Item  api.Item
	Diags hcl.Diagnostics
	// Start and End delimit the source bytes the expansion replaces: from the
	// first attribute or comment attached to the item through its end.
	Start, End int
	// Indent is the leading whitespace of the item's first line.
	Indent string
}

// File is the front end's view of one source file.
type File struct {
	Name   string
	Source []byte
	Decls  []*Declaration
	Diags  hcl.Diagnostics
	// Root is the syntax tree, kept for further queries until Close.
	Root SitterRoot
}

// Close releases the syntax tree.
func (f *File) Close() {
	f.Root.Close()
}

// ParseFile parses Rust source and collects every annotated declaration at
// module level or inside impl, trait and module bodies. Items nested under an
// annotated item are not visited. The caller must Close the returned file.
func ParseFile(ctx context.Context, filename string, src []byte) (*File, error) {
	root, err := ParseRoot(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	p := &rustParser{src: src, lines: newLineIndex(filename, src), handled: make(map[uint32]bool)}
	f := &File{Name: filename, Source: src, Root: root}
	p.container(root.Node, api.ScopeFree, &f.Decls)

	if root.Node.HasError() {
		var errs []*sitter.Node
		collectErrors(root.Node, &errs)
		for _, n := range errs {
			if p.handled[n.StartByte()] {
				continue
			}
			f.Diags = append(f.Diags, &hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "Syntax error in source",
				Detail:   "Declarations inside the unparsable region are not expanded.",
				Subject:  p.rangeOf(n).Ptr(),
			})
			break
		}
	}
	return f, nil
}

func collectErrors(n *sitter.Node, out *[]*sitter.Node) {
	if n.IsError() || n.IsMissing() {
		*out = append(*out, n)
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && (c.HasError() || c.IsMissing()) {
			collectErrors(c, out)
		}
	}
}

type rustParser struct {
	src   []byte
	lines lineIndex
	// handled holds the start bytes of error nodes the parser recovered from.
	handled map[uint32]bool
}

func (p *rustParser) text(n *sitter.Node) string {
	return string(p.src[n.StartByte():n.EndByte()])
}

func (p *rustParser) rangeOf(n *sitter.Node) hcl.Range {
	return p.lines.Range(int(n.StartByte()), int(n.EndByte()))
}

// container walks the items of a source_file or declaration_list. Attributes
// and comments directly preceding an item form its run.
func (p *rustParser) container(n *sitter.Node, scope api.Scope, out *[]*Declaration) {
	var (
		run    []*sitter.Node
		unsafe *sitter.Node
	)
	prevEnd := -1
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "ERROR":
			// The grammar has no `unsafe mod`; it yields an ERROR holding
			// only the keyword, followed by the mod_item.
			if i+1 < int(n.NamedChildCount()) && n.NamedChild(i+1).Type() == "mod_item" &&
				strings.TrimSpace(p.text(child)) == "unsafe" {
				unsafe = child
				continue
			}
		case "attribute_item":
			run = append(run, child)
			continue
		case "line_comment", "block_comment":
			// A trailing comment on the previous item's line belongs to that item.
			if len(run) == 0 && int(child.StartPoint().Row) == prevEnd {
				continue
			}
			run = append(run, child)
			continue
		}

		if d := p.declaration(child, run, unsafe, scope); d != nil {
			*out = append(*out, d)
			if unsafe != nil {
				p.handled[unsafe.StartByte()] = true
			}
		} else {
			p.descend(child, out)
		}
		run, unsafe = nil, nil
		prevEnd = int(child.EndPoint().Row)
	}
}

func (p *rustParser) descend(n *sitter.Node, out *[]*Declaration) {
	body := n.ChildByFieldName("body")
	if body == nil || body.Type() != "declaration_list" {
		return
	}
	switch n.Type() {
	case "mod_item":
		p.container(body, api.ScopeFree, out)
	case "impl_item", "trait_item":
		p.container(body, api.ScopeAssociated, out)
	}
}

// declaration returns nil when no attribute in run is a directive. unsafe is
// the stray keyword preceding a mod_item, or nil.
func (p *rustParser) declaration(item *sitter.Node, run []*sitter.Node, unsafe *sitter.Node, scope api.Scope) *Declaration {
	var (
		directives []Directive
		attrs      []string
	)
	for _, n := range run {
		if n.Type() == "attribute_item" {
			if dir, ok := p.directive(n); ok {
				directives = append(directives, dir)
				continue
			}
		}
		attrs = append(attrs, strings.TrimRight(p.text(n), "\r\n"))
	}
	if len(directives) == 0 {
		return nil
	}

	start := int(item.StartByte())
	if unsafe != nil {
		start = int(unsafe.StartByte())
	}
	if len(run) > 0 {
		start = int(run[0].StartByte())
	}
	d := &Declaration{
		Directive: directives[0],
		Start:     start,
		End:       int(item.EndByte()),
		Indent:    p.lines.Indent(start),
	}
	for _, extra := range directives[1:] {
		d.Diags = append(d.Diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Conflicting attributes",
			Detail: fmt.Sprintf("Only one of the platform attributes may be applied to a declaration; found %s and %s.",
				directives[0].Kind, extra.Kind),
			Subject: extra.Range.Ptr(),
		})
	}
	if d.Diags.HasErrors() {
		return d
	}

	it, diag := p.item(item, d.Directive.Kind, attrs, scope)
	if diag != nil {
		d.Diags = append(d.Diags, diag)
		return d
	}
	if mod, ok := it.(*api.ModuleDecl); ok && unsafe != nil {
		mod.Unsafe = true
		mod.UnsafeRange = p.rangeOf(unsafe)
		mod.Range = p.lines.Range(int(unsafe.StartByte()), int(item.EndByte()))
	}
	d.Item = it
	return d
}

// directive recognizes an attribute by the last segment of its path.
func (p *rustParser) directive(n *sitter.Node) (Directive, bool) {
	var attr *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "attribute" {
			attr = c
			break
		}
	}
	if attr == nil || attr.NamedChildCount() == 0 {
		return Directive{}, false
	}
	path := attr.NamedChild(0)
	name := path
	if path.Type() == "scoped_identifier" {
		name = path.ChildByFieldName("name")
	}
	if name == nil {
		return Directive{}, false
	}
	kind, ok := directiveNames[p.text(name)]
	if !ok {
		return Directive{}, false
	}

	dir := Directive{Kind: kind, Range: p.rangeOf(n)}
	end := int(path.EndByte())
	dir.OptionsRange = p.lines.Range(end, end)
	if args := attr.ChildByFieldName("arguments"); args != nil {
		lo, hi := int(args.StartByte())+1, int(args.EndByte())-1
		if hi >= lo {
			dir.Options = p.src[lo:hi]
			dir.OptionsRange = p.lines.Range(lo, hi)
		}
	}
	return dir, true
}

func (p *rustParser) unsupported(item *sitter.Node, kind DirectiveKind, want string) *hcl.Diagnostic {
	rng := p.rangeOf(item)
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Unsupported item",
		Detail:   fmt.Sprintf("%s expects %s, found %s.", kind, want, strings.TrimSuffix(item.Type(), "_item")),
		Subject:  &rng,
	}
}

func (p *rustParser) item(n *sitter.Node, kind DirectiveKind, attrs []string, scope api.Scope) (api.Item, *hcl.Diagnostic) {
	switch kind {
	case SysFunction, SysTraitFunction:
		if n.Type() != "function_item" && n.Type() != "function_signature_item" {
			return nil, p.unsupported(n, kind, "a function")
		}
		c := p.callable(n, attrs, scope)
		c.Plain = kind == SysTraitFunction
		return c, nil
	case SysStruct:
		switch n.Type() {
		case "struct_item", "enum_item", "union_item":
			return p.typeDecl(n, attrs), nil
		}
		return nil, p.unsupported(n, kind, "a struct, enum or union")
	case PlatformMod:
		switch n.Type() {
		case "mod_item":
			return p.moduleDecl(n, attrs), nil
		case "use_declaration":
			return p.useDecl(n, attrs), nil
		}
		return nil, p.unsupported(n, kind, "a module declaration (`mod foo;`) or a use declaration (`use foo;`)")
	}
	return nil, p.unsupported(n, kind, "a supported item")
}

func (p *rustParser) visibility(n *sitter.Node) api.Visibility {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "visibility_modifier" {
			return api.Visibility(p.text(c))
		}
	}
	return api.Private
}

func (p *rustParser) whereClause(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "where_clause" {
			return p.text(c)
		}
	}
	return ""
}

func (p *rustParser) callable(n *sitter.Node, attrs []string, scope api.Scope) *api.Callable {
	c := &api.Callable{
		Attrs: attrs,
		Vis:   p.visibility(n),
		Scope: scope,
		Where: p.whereClause(n),
		Range: p.rangeOf(n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		c.Name = p.text(name)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		mods := n.Child(i)
		if mods.Type() != "function_modifiers" {
			continue
		}
		for j := 0; j < int(mods.ChildCount()); j++ {
			m := mods.Child(j)
			switch m.Type() {
			case "async":
				c.Async = true
			case "const":
				c.Const = true
			case "unsafe":
				c.Unsafe = true
			case "extern_modifier":
				c.Extern = p.text(m)
			}
		}
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		c.Generics = p.generics(tp)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		p.params(params, c)
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		c.Return = p.text(ret)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		c.Body = p.text(body)
	}
	return c
}

func (p *rustParser) params(n *sitter.Node, c *api.Callable) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		rng := p.rangeOf(child)
		switch child.Type() {
		case "attribute_item", "line_comment", "block_comment":
		case "self_parameter":
			c.Params = append(c.Params, api.Param{Kind: api.ParamReceiver, Pattern: p.text(child), Range: rng})
		case "variadic_parameter":
			c.Variadic = &api.Variadic{Text: p.text(child), Range: rng}
		case "parameter":
			c.Params = append(c.Params, p.param(child))
		default:
			// Anonymous parameters: only a type is given.
			c.Params = append(c.Params, api.Param{Kind: api.ParamPattern, Pattern: "_", Type: p.text(child), Range: rng})
		}
	}
}

func (p *rustParser) param(n *sitter.Node) api.Param {
	out := api.Param{Range: p.rangeOf(n)}
	var mutable bool
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "mutable_specifier" {
			mutable = true
		}
	}
	if typ := n.ChildByFieldName("type"); typ != nil {
		out.Type = p.text(typ)
	}
	pat := n.ChildByFieldName("pattern")
	if pat == nil {
		out.Kind = api.ParamPattern
		return out
	}
	if pat.Type() == "mut_pattern" && pat.NamedChildCount() > 0 {
		mutable = true
		pat = pat.NamedChild(int(pat.NamedChildCount()) - 1)
	}
	switch pat.Type() {
	case "ref_pattern":
		// `ref x` and `ref mut x` forward as plain `x`; the signature keeps
		// the pattern.
		inner := pat.NamedChild(int(pat.NamedChildCount()) - 1)
		if inner != nil && inner.Type() == "mut_pattern" && inner.NamedChildCount() > 0 {
			inner = inner.NamedChild(int(inner.NamedChildCount()) - 1)
		}
		if inner != nil && inner.Type() == "identifier" {
			out.Kind = api.ParamBinding
			out.Name = p.text(inner)
			out.Pattern = p.text(pat)
			return out
		}
		out.Kind = api.ParamPattern
		out.Pattern = p.text(pat)
	case "self":
		out.Kind = api.ParamReceiver
		out.Pattern = "self"
		if mutable {
			out.Pattern = "mut self"
		}
	case "identifier":
		out.Kind = api.ParamBinding
		out.Name = p.text(pat)
		out.Mutable = mutable
	default:
		out.Kind = api.ParamPattern
		out.Pattern = p.text(pat)
	}
	return out
}

func trimBounds(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), ":"))
}

func (p *rustParser) generics(n *sitter.Node) []api.GenericParam {
	var out []api.GenericParam
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if g, ok := p.generic(n.NamedChild(i)); ok {
			out = append(out, g)
		}
	}
	return out
}

// generic covers both the older grammar (constrained/optional type
// parameters) and the newer one (lifetime_parameter, type_parameter).
func (p *rustParser) generic(n *sitter.Node) (api.GenericParam, bool) {
	g := api.GenericParam{Range: p.rangeOf(n)}
	field := func(name string) string {
		if c := n.ChildByFieldName(name); c != nil {
			return p.text(c)
		}
		return ""
	}
	switch n.Type() {
	case "lifetime":
		g.Kind, g.Name = api.GenericLifetime, p.text(n)
	case "type_identifier":
		g.Kind, g.Name = api.GenericType, p.text(n)
	case "lifetime_parameter":
		g.Kind, g.Name, g.Bounds = api.GenericLifetime, field("name"), trimBounds(field("bounds"))
	case "type_parameter":
		g.Kind, g.Name, g.Bounds = api.GenericType, field("name"), trimBounds(field("bounds"))
		g.Default = field("default_type")
	case "constrained_type_parameter":
		left := n.ChildByFieldName("left")
		if left == nil {
			return g, false
		}
		g.Kind = api.GenericType
		if left.Type() == "lifetime" {
			g.Kind = api.GenericLifetime
		}
		g.Name, g.Bounds = p.text(left), trimBounds(field("bounds"))
	case "optional_type_parameter":
		name := n.ChildByFieldName("name")
		if name == nil {
			return g, false
		}
		inner, ok := p.generic(name)
		if !ok {
			return g, false
		}
		g = inner
		g.Range = p.rangeOf(n)
		g.Default = field("default_type")
	case "const_parameter":
		g.Kind, g.Name, g.Bounds = api.GenericConst, field("name"), field("type")
		g.Default = field("value")
	default:
		return g, false
	}
	return g, g.Name != ""
}

func (p *rustParser) typeDecl(n *sitter.Node, attrs []string) *api.TypeDecl {
	d := &api.TypeDecl{
		Attrs:   attrs,
		Vis:     p.visibility(n),
		Keyword: strings.TrimSuffix(n.Type(), "_item"),
		Where:   p.whereClause(n),
		Text:    p.text(n),
		Range:   p.rangeOf(n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		d.Name = p.text(name)
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		d.Generics = p.generics(tp)
	}
	return d
}

func (p *rustParser) moduleDecl(n *sitter.Node, attrs []string) *api.ModuleDecl {
	d := &api.ModuleDecl{
		Attrs:  attrs,
		Vis:    p.visibility(n),
		Inline: n.ChildByFieldName("body") != nil,
		Range:  p.rangeOf(n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		d.Name = p.text(name)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == "unsafe" {
			d.Unsafe = true
			d.UnsafeRange = p.rangeOf(c)
		}
	}
	return d
}

func (p *rustParser) useDecl(n *sitter.Node, attrs []string) *api.UseDecl {
	d := &api.UseDecl{
		Attrs: attrs,
		Vis:   p.visibility(n),
		Range: p.rangeOf(n),
	}
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		d.Shape = api.UsePath
		d.TreeRange = d.Range
		return d
	}
	d.TreeRange = p.rangeOf(arg)
	d.Absolute = strings.HasPrefix(strings.TrimSpace(p.text(arg)), "::")

	switch arg.Type() {
	case "identifier":
		d.Shape, d.Name = api.UseName, p.text(arg)
	case "scoped_identifier":
		d.Shape = api.UsePath
		// `::name` has no path and names a single crate-root item.
		if arg.ChildByFieldName("path") == nil {
			d.Shape = api.UseName
			if name := arg.ChildByFieldName("name"); name != nil {
				d.Name = p.text(name)
			}
		}
	case "use_as_clause":
		d.Shape = api.UseRename
	case "use_wildcard":
		d.Shape = api.UseGlob
	case "use_list", "scoped_use_list":
		d.Shape = api.UseGroup
	default:
		d.Shape = api.UsePath
	}
	return d
}

// lineIndex maps byte offsets to hcl positions.
type lineIndex struct {
	filename string
	src      []byte
	starts   []int
}

func newLineIndex(filename string, src []byte) lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{filename: filename, src: src, starts: starts}
}

func (l lineIndex) line(b int) int {
	lo, hi := 0, len(l.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if l.starts[mid] <= b {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// Pos returns the 1-based line and character column of byte offset b.
func (l lineIndex) Pos(b int) hcl.Pos {
	ln := l.line(b)
	return hcl.Pos{
		Line:   ln + 1,
		Column: utf8.RuneCount(l.src[l.starts[ln]:b]) + 1,
		Byte:   b,
	}
}

func (l lineIndex) Range(start, end int) hcl.Range {
	return hcl.Range{Filename: l.filename, Start: l.Pos(start), End: l.Pos(end)}
}

// Indent returns the leading whitespace of the line containing b.
func (l lineIndex) Indent(b int) string {
	ls := l.starts[l.line(b)]
	i := ls
	for i < len(l.src) && (l.src[i] == ' ' || l.src[i] == '\t') {
		i++
	}
	return string(l.src[ls:i])
}
