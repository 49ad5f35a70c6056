package dispatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/platgate/api"
	"github.com/agentic-research/platgate/internal/resolve"
)

const linux = resolve.Guard(`target_os = "linux"`)

func receiver() api.Param {
	return api.Param{Kind: api.ParamReceiver, Pattern: "&self"}
}

func binding(name, typ string) api.Param {
	return api.Param{Kind: api.ParamBinding, Name: name, Type: typ}
}

func TestTransform_UnitReturnIsStatement(t *testing.T) {
	decl := &api.Callable{
		Vis:    "pub",
		Name:   "reboot",
		Params: []api.Param{receiver(), binding("a", "u32"), binding("b", "bool")},
	}
	out, diags := Transformer{}.Transform(decl, linux)
	require.Empty(t, diags)
	require.NotNil(t, out)

	want := &api.Forward{
		Path:      "Self::reboot_impl",
		Args:      []string{"self", "a", "b"},
		Statement: true,
	}
	if d := cmp.Diff(want, out.Forward); d != "" {
		t.Errorf("forward mismatch (-want +got):\n%s", d)
	}
	assert.Equal(t, string(linux), out.Cfg)
}

func TestTransform_AsyncValueTail(t *testing.T) {
	decl := &api.Callable{
		Async:  true,
		Name:   "uptime",
		Params: []api.Param{receiver()},
		Return: "std::time::Duration",
	}
	out, diags := Transformer{}.Transform(decl, linux)
	require.Empty(t, diags)
	assert.True(t, out.Forward.Await)
	assert.False(t, out.Forward.Statement)
	assert.Equal(t, []string{"self"}, out.Forward.Args)
}

func TestTransform_VariadicYieldsNoWrapper(t *testing.T) {
	vrange := hcl.Range{Filename: "ffi.rs", Start: hcl.Pos{Line: 2, Column: 30, Byte: 60}, End: hcl.Pos{Line: 2, Column: 33, Byte: 63}}
	decl := &api.Callable{
		Unsafe:   true,
		Extern:   `extern "C"`,
		Name:     "printf",
		Params:   []api.Param{binding("fmt", "*const u8")},
		Variadic: &api.Variadic{Text: "...", Range: vrange},
		Scope:    api.ScopeFree,
	}
	out, diags := Transformer{}.Transform(decl, linux)
	assert.Nil(t, out)
	require.Len(t, diags, 1)
	assert.Equal(t, "Variadic arguments are not permitted", diags[0].Summary)
	assert.Equal(t, vrange, *diags[0].Subject)
}

func TestTransform_PatternParamsAreAdditive(t *testing.T) {
	decl := &api.Callable{
		Name: "swap",
		Params: []api.Param{
			receiver(),
			{Kind: api.ParamPattern, Pattern: "(x, y)", Type: "(u8, u8)"},
			binding("z", "u8"),
			{Kind: api.ParamPattern, Pattern: "Point { x, .. }", Type: "Point"},
		},
	}
	out, diags := Transformer{}.Transform(decl, linux)
	require.NotNil(t, out)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, "Unsupported parameter pattern", d.Summary)
	}
	assert.Contains(t, diags[0].Detail, "(x, y)")
	assert.Equal(t, []string{"self", "z"}, out.Forward.Args)
}

func TestTransform_GenericArgsSkipLifetimes(t *testing.T) {
	decl := &api.Callable{
		Name: "read",
		Generics: []api.GenericParam{
			{Kind: api.GenericLifetime, Name: "'a"},
			{Kind: api.GenericType, Name: "T", Bounds: "AsRef<[u8]>"},
			{Kind: api.GenericConst, Name: "N", Bounds: "usize"},
		},
		Params: []api.Param{receiver(), binding("buf", "&'a T")},
		Return: "usize",
	}
	out, diags := Transformer{}.Transform(decl, linux)
	require.Empty(t, diags)
	assert.Equal(t, []string{"T", "N"}, out.Forward.GenericArgs)
}

func TestTransform_MutBindingForwardsName(t *testing.T) {
	p := binding("count", "usize")
	p.Mutable = true
	decl := &api.Callable{Name: "step", Params: []api.Param{receiver(), p}}
	out, _ := Transformer{}.Transform(decl, linux)
	assert.Equal(t, []string{"self", "count"}, out.Forward.Args)
	assert.True(t, out.Params[1].Mutable)
}

func TestTransform_Unsafe(t *testing.T) {
	decl := &api.Callable{Unsafe: true, Name: "poke", Params: []api.Param{receiver()}}
	out, _ := Transformer{}.Transform(decl, linux)
	assert.True(t, out.Forward.Unsafe)
}

func TestTransform_BodyOrPlainIsOnlyGuarded(t *testing.T) {
	withBody := &api.Callable{Name: "ping", Params: []api.Param{receiver()}, Body: "{ 1 }", Return: "u8"}
	out, diags := Transformer{}.Transform(withBody, linux)
	require.Empty(t, diags)
	assert.Nil(t, out.Forward)
	assert.Equal(t, "{ 1 }", out.Body)
	assert.Equal(t, string(linux), out.Cfg)

	plain := &api.Callable{Name: "ping", Params: []api.Param{receiver()}, Plain: true}
	out, diags = Transformer{}.Transform(plain, linux)
	require.Empty(t, diags)
	assert.Nil(t, out.Forward)
}

func TestTransform_FreeScopeAndCustomSuffix(t *testing.T) {
	decl := &api.Callable{Name: "hostname", Return: "String", Scope: api.ScopeFree}
	out, _ := Transformer{Suffix: "_sys"}.Transform(decl, linux)
	assert.Equal(t, "hostname_sys", out.Forward.Path)
	assert.Equal(t, "hostname_sys", ImplName("hostname", "_sys"))
}

func TestTransform_InputNotMutated(t *testing.T) {
	decl := &api.Callable{
		Name:     "reboot",
		Attrs:    []string{"#[inline]"},
		Params:   []api.Param{receiver()},
		Generics: []api.GenericParam{{Kind: api.GenericType, Name: "T"}},
	}
	before := *decl
	before.Attrs = append([]string(nil), decl.Attrs...)
	before.Params = append([]api.Param(nil), decl.Params...)
	before.Generics = append([]api.GenericParam(nil), decl.Generics...)

	out, _ := Transformer{}.Transform(decl, linux)
	out.Attrs[0] = "#[cold]"
	out.Params[0].Pattern = "self"

	if d := cmp.Diff(&before, decl); d != "" {
		t.Errorf("input mutated (-want +got):\n%s", d)
	}
}
