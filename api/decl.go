package api

import "github.com/hashicorp/hcl/v2"

// Visibility is the visibility modifier of a declaration exactly as written
// ("pub", "pub(crate)", ...). The empty string is private to the declaring scope.
type Visibility string

// Private is the most restricted visibility available.
const Private Visibility = ""

// Prefix renders the visibility followed by a space, or nothing for Private.
func (v Visibility) Prefix() string {
	if v == Private {
		return ""
	}
	return string(v) + " "
}

// Item is any declaration that can be consumed or produced by the generators.
// Produced items carry the guard predicate in Cfg; an empty Cfg means unguarded.
type Item interface {
	item()
}

// GenericKind classifies one generic parameter.
type GenericKind int

const (
	GenericLifetime GenericKind = iota
	GenericType
	GenericConst
)

// GenericParam is one entry of a generic parameter list.
type GenericParam struct {
	Kind GenericKind
	// Name is the parameter name, including the leading quote for lifetimes.
	Name string
	// Bounds is the bound list after the colon for lifetimes and types
	// ("Clone + Send"), and the value type for const parameters ("usize").
	Bounds  string
	Default string
	Range   hcl.Range
}

// ParamKind classifies one entry of a callable's parameter list.
type ParamKind int

const (
	// ParamReceiver is the self receiver (&self, &mut self, self: Box<Self>).
	ParamReceiver ParamKind = iota
	// ParamBinding is a simple named binding, optionally `mut`.
	ParamBinding
	// ParamPattern is a destructuring pattern that cannot be forwarded by name.
	ParamPattern
)

// Param is one parameter of a callable.
type Param struct {
	Kind ParamKind
	// Name is the bound identifier for ParamBinding.
	Name    string
	Mutable bool
	// Pattern is the raw text of the receiver or destructuring pattern. For a
	// binding it is set only when the binding carries `ref` ("ref mut x").
	Pattern string
	// Type is empty for shorthand receivers.
	Type  string
	Range hcl.Range
}

// Variadic marks a C-style `...` parameter.
type Variadic struct {
	Text  string
	Range hcl.Range
}

// Scope says where a callable is declared.
type Scope int

const (
	// ScopeAssociated callables live in an impl or trait and are reached through Self.
	ScopeAssociated Scope = iota
	// ScopeFree callables live directly in a module.
	ScopeFree
)

// Forward is a generated forwarding call used as a wrapper body.
type Forward struct {
	Path        string
	GenericArgs []string
	Args        []string
	Await       bool
	Unsafe      bool
	// Statement terminates the call with a semicolon (unit return).
	Statement bool
}

// Callable is the parsed shape of a function or method.
type Callable struct {
	Attrs    []string
	Vis      Visibility
	Const    bool
	Async    bool
	Unsafe   bool
	Extern   string
	Name     string
	Generics []GenericParam
	Params   []Param
	Variadic *Variadic
	// Return is the return type text; empty means unit.
	Return string
	Where  string
	// Body is the verbatim block including braces. Empty for signature-only declarations.
	Body string
	// Plain forces the plain conditional mode even without a body (trait methods).
	Plain   bool
	Scope   Scope
	Forward *Forward
	Cfg     string
	Range   hcl.Range
}

func (*Callable) item() {}

// Signature reports whether the declaration has no body.
func (c *Callable) Signature() bool {
	return c.Body == ""
}

// TypeDecl is a struct, enum or union declaration.
type TypeDecl struct {
	Attrs    []string
	Vis      Visibility
	Keyword  string
	Name     string
	Generics []GenericParam
	Where    string
	// Text is the verbatim item source, without leading attributes.
	Text  string
	Cfg   string
	Range hcl.Range
}

func (*TypeDecl) item() {}

// TypeAlias is a generated `type Name<...> = Target;`.
type TypeAlias struct {
	Attrs    []string
	Vis      Visibility
	Name     string
	Generics []GenericParam
	Target   string
	Cfg      string
}

func (*TypeAlias) item() {}

// TraitAssertion is a generated static check that Target implements Traits.
type TraitAssertion struct {
	Traits   []string
	Generics []GenericParam
	Where    string
	Target   string
	Cfg      string
}

func (*TraitAssertion) item() {}

// ModuleDecl is a `mod name;` declaration.
type ModuleDecl struct {
	Attrs  []string
	Vis    Visibility
	Unsafe bool
	Name   string
	// Inline is true when the module carries a `{ ... }` body.
	Inline bool
	Cfg    string
	Range  hcl.Range
	// UnsafeRange locates the unsafe keyword when Unsafe is set.
	UnsafeRange hcl.Range
}

func (*ModuleDecl) item() {}

// UseShape classifies the tree of a use declaration.
type UseShape int

const (
	UseName UseShape = iota
	UsePath
	UseRename
	UseGlob
	UseGroup
)

func (s UseShape) String() string {
	switch s {
	case UseName:
		return "name"
	case UsePath:
		return "path"
	case UseRename:
		return "rename"
	case UseGlob:
		return "glob"
	case UseGroup:
		return "group"
	default:
		return "unknown"
	}
}

// UseDecl is a `use` declaration. Parsed declarations fill Shape, Absolute and
// Name; generated re-exports fill Path and Alias.
type UseDecl struct {
	Attrs    []string
	Vis      Visibility
	Shape    UseShape
	Absolute bool
	Name     string
	Path     string
	Alias    string
	Cfg      string
	Range    hcl.Range
	// TreeRange locates the use tree, for diagnostics about its shape.
	TreeRange hcl.Range
}

func (*UseDecl) item() {}

// CompileError surfaces a diagnostic to the downstream compiler.
type CompileError struct {
	Message string
}

func (*CompileError) item() {}
