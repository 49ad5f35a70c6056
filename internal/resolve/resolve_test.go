package resolve

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/platgate/internal/options"
	"github.com/agentic-research/platgate/internal/platform"
)

var at = hcl.Range{Filename: "lib.rs", Start: hcl.Pos{Line: 3, Column: 15, Byte: 40}, End: hcl.Pos{Line: 3, Column: 30, Byte: 55}}

func resolveString(t *testing.T, src string) Resolution {
	t.Helper()
	opts, diags := options.ParseString(src, "lib.rs", false)
	require.False(t, diags.HasErrors(), diags.Error())
	return Resolve(opts.Include, opts.Exclude, opts.Range)
}

func TestResolve_EveryNonEmptySubsetInAnyOrder(t *testing.T) {
	atoms := platform.AllAtoms()
	groups := []platform.Group{platform.GroupLinux, platform.GroupMacOS, platform.GroupWindows}
	for mask := 1; mask < 8; mask++ {
		var want []platform.Atom
		var inc []platform.Group
		for i := range atoms {
			if mask&(1<<i) != 0 {
				want = append(want, atoms[i])
				inc = append(inc, groups[i])
			}
		}
		forward := Resolve(inc, nil, at)
		reversed := make([]platform.Group, len(inc))
		for i, g := range inc {
			reversed[len(inc)-1-i] = g
		}
		backward := Resolve(reversed, nil, at)

		assert.Equal(t, want, forward.Atoms.Atoms())
		assert.True(t, forward.Atoms.Equal(backward.Atoms))
		assert.Equal(t, forward.Guard, backward.Guard)
		assert.Empty(t, forward.Diags)
	}
}

func TestResolve_AllMinusWindowsEqualsPosix(t *testing.T) {
	a := resolveString(t, "include(all), exclude(windows)")
	b := resolveString(t, "include(posix)")
	assert.Equal(t, []string{"linux", "macos"}, a.Atoms.Names())
	assert.True(t, a.Atoms.Equal(b.Atoms))
	assert.Equal(t, Guard(`any(target_os = "linux", target_os = "macos")`), a.Guard)
	assert.Equal(t, a.Guard, b.Guard)
}

func TestResolve_ExcludeEverything(t *testing.T) {
	res := resolveString(t, "exclude(linux), exclude(macos), exclude(windows)")
	assert.True(t, res.Atoms.IsEmpty())
	assert.Equal(t, Guard("any()"), res.Guard)
	require.Len(t, res.Diags, 1)
	assert.Equal(t, hcl.DiagError, res.Diags[0].Severity)
	assert.Contains(t, res.Diags[0].Detail, "cancel each other out")
}

func TestResolve_DiagnosticAnchoredAtOptionBlock(t *testing.T) {
	res := Resolve([]platform.Group{platform.GroupPosix}, []platform.Group{platform.GroupAll}, at)
	require.Len(t, res.Diags, 1)
	assert.Equal(t, at, *res.Diags[0].Subject)
}

func TestResolve_Idempotent(t *testing.T) {
	src := "exclude(macos), include(windows, posix, linux)"
	first := resolveString(t, src)
	second := resolveString(t, src)
	assert.Equal(t, string(first.Guard), string(second.Guard))
	assert.Equal(t, Guard(`any(target_os = "linux", target_os = "windows")`), first.Guard)
}

func TestResolve_ExcludeWinsOverInclude(t *testing.T) {
	res := resolveString(t, "include(linux, windows), exclude(linux)")
	assert.Equal(t, []string{"windows"}, res.Atoms.Names())
	assert.Equal(t, Guard(`target_os = "windows"`), res.Guard)
}

func TestResolve_EmptyIncludeIsNotDefaulted(t *testing.T) {
	res := Resolve(nil, nil, at)
	assert.True(t, res.Atoms.IsEmpty())
	assert.Len(t, res.Diags, 1)
}

func TestGuard_Attribute(t *testing.T) {
	assert.Equal(t, `#[cfg(target_os = "macos")]`, AtomGuard(platform.MacOS).Attribute())
	assert.Equal(t, "#[cfg(any())]", Render(platform.NewSet()).Attribute())
}
