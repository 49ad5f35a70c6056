// Package platform holds the closed platform vocabulary: atoms, the groups
// that expand to them, and the atom sets the resolver computes with.
package platform

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// Atom is one concrete target platform.
type Atom uint32

const (
	Linux Atom = iota
	MacOS
	Windows
)

type atomInfo struct {
	name   string // target_os value and module file name
	suffix string // type alias suffix
}

// Declared in name order, so ascending ids are also lexicographic.
var atoms = [...]atomInfo{
	Linux:   {name: "linux", suffix: "Linux"},
	MacOS:   {name: "macos", suffix: "MacOS"},
	Windows: {name: "windows", suffix: "Windows"},
}

// AllAtoms returns every atom in name order.
func AllAtoms() []Atom {
	return []Atom{Linux, MacOS, Windows}
}

// String returns the target value of the atom ("linux").
func (a Atom) String() string {
	if int(a) < len(atoms) {
		return atoms[a].name
	}
	return "unknown"
}

// Suffix returns the human-readable suffix used for per-platform type aliases.
func (a Atom) Suffix() string {
	if int(a) < len(atoms) {
		return atoms[a].suffix
	}
	return ""
}

// Module returns the name of the module file backing this platform.
func (a Atom) Module() string {
	return a.String()
}

// Group is an atom or a named composite of atoms.
type Group uint8

const (
	GroupLinux Group = iota
	GroupMacOS
	GroupWindows
	GroupPosix
	GroupAll
)

var groups = [...]struct {
	keyword string
	atoms   []Atom
}{
	GroupLinux:   {"linux", []Atom{Linux}},
	GroupMacOS:   {"macos", []Atom{MacOS}},
	GroupWindows: {"windows", []Atom{Windows}},
	GroupPosix:   {"posix", []Atom{Linux, MacOS}},
	GroupAll:     {"all", []Atom{Linux, MacOS, Windows}},
}

// Keywords lists the recognized group keywords in table order.
func Keywords() []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.keyword
	}
	return out
}

// ParseGroup maps a keyword to its group.
func ParseGroup(keyword string) (Group, bool) {
	for i, g := range groups {
		if g.keyword == keyword {
			return Group(i), true
		}
	}
	return 0, false
}

func (g Group) String() string {
	if int(g) < len(groups) {
		return groups[g].keyword
	}
	return "unknown"
}

// Expand returns the atoms the group stands for. Never empty for a known group.
func (g Group) Expand() Set {
	if int(g) >= len(groups) {
		return NewSet()
	}
	return NewSet(groups[g].atoms...)
}

// Expand returns the union of the expansions of every group.
func Expand(gs []Group) Set {
	bm := roaring.New()
	for _, g := range gs {
		bm.Or(g.Expand().bitmap())
	}
	return Set{bm: bm}
}

// Set is an immutable set of atoms. The zero value is the empty set.
type Set struct {
	bm *roaring.Bitmap
}

// NewSet builds a set from atoms; duplicates collapse.
func NewSet(as ...Atom) Set {
	bm := roaring.New()
	for _, a := range as {
		bm.Add(uint32(a))
	}
	return Set{bm: bm}
}

func (s Set) bitmap() *roaring.Bitmap {
	if s.bm == nil {
		return roaring.New()
	}
	return s.bm
}

// Union returns s ∪ o.
func (s Set) Union(o Set) Set {
	return Set{bm: roaring.Or(s.bitmap(), o.bitmap())}
}

// Difference returns s \ o.
func (s Set) Difference(o Set) Set {
	return Set{bm: roaring.AndNot(s.bitmap(), o.bitmap())}
}

// Len returns the number of atoms in the set.
func (s Set) Len() int {
	return int(s.bitmap().GetCardinality())
}

// IsEmpty reports whether the set has no atoms.
func (s Set) IsEmpty() bool {
	return s.bitmap().IsEmpty()
}

// Contains reports whether a is in the set.
func (s Set) Contains(a Atom) bool {
	return s.bitmap().Contains(uint32(a))
}

// Equal reports whether both sets hold the same atoms.
func (s Set) Equal(o Set) bool {
	return s.bitmap().Equals(o.bitmap())
}

// Atoms returns the members ordered by name.
func (s Set) Atoms() []Atom {
	ids := s.bitmap().ToArray()
	out := make([]Atom, len(ids))
	for i, id := range ids {
		out[i] = Atom(id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Names returns the target values of the members, ordered.
func (s Set) Names() []string {
	as := s.Atoms()
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.String()
	}
	return out
}

func (s Set) String() string {
	return "{" + strings.Join(s.Names(), ", ") + "}"
}
