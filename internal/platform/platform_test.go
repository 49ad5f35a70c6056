package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroup_AllKeywords(t *testing.T) {
	for _, kw := range []string{"linux", "macos", "windows", "posix", "all"} {
		g, ok := ParseGroup(kw)
		require.True(t, ok, kw)
		assert.Equal(t, kw, g.String())
	}
	assert.Len(t, Keywords(), 5)
}

func TestParseGroup_Unknown(t *testing.T) {
	_, ok := ParseGroup("freebsd")
	assert.False(t, ok)
	_, ok = ParseGroup("Linux")
	assert.False(t, ok, "keywords are case sensitive")
}

func TestExpand_Composites(t *testing.T) {
	assert.Equal(t, []Atom{Linux, MacOS}, GroupPosix.Expand().Atoms())
	assert.Equal(t, []Atom{Linux, MacOS, Windows}, GroupAll.Expand().Atoms())
	assert.Equal(t, []Atom{Windows}, GroupWindows.Expand().Atoms())
}

func TestExpand_NeverEmpty(t *testing.T) {
	for i := range Keywords() {
		assert.False(t, Group(i).Expand().IsEmpty(), Group(i).String())
	}
}

func TestExpand_UnionIsIdempotent(t *testing.T) {
	s := Expand([]Group{GroupLinux, GroupPosix, GroupLinux})
	assert.Equal(t, []string{"linux", "macos"}, s.Names())
}

func TestSet_Algebra(t *testing.T) {
	a := NewSet(Windows, Linux)
	b := NewSet(Linux)

	assert.Equal(t, []Atom{Linux, Windows}, a.Atoms())
	assert.Equal(t, []Atom{Windows}, a.Difference(b).Atoms())
	assert.Equal(t, 2, a.Union(b).Len())
	assert.True(t, a.Contains(Windows))
	assert.False(t, a.Contains(MacOS))
	assert.True(t, a.Difference(a).IsEmpty())
	assert.True(t, NewSet(Linux, Windows).Equal(a))
	assert.Equal(t, "{linux, windows}", a.String())
}

func TestSet_ZeroValueIsEmpty(t *testing.T) {
	var s Set
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Atoms())
	assert.Equal(t, []Atom{MacOS}, s.Union(NewSet(MacOS)).Atoms())
}

func TestAtom_Naming(t *testing.T) {
	assert.Equal(t, "MacOS", MacOS.Suffix())
	assert.Equal(t, "windows", Windows.Module())
	assert.Equal(t, []Atom{Linux, MacOS, Windows}, AllAtoms())
}
