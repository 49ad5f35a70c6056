// Package resolve turns include/exclude group lists into the set of allowed
// platform atoms and the guard predicate that selects them.
package resolve

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/agentic-research/platgate/internal/platform"
)

// Guard is a boolean predicate over platform atoms, in cfg syntax.
type Guard string

// Attribute renders the guard as a conditional-compilation attribute.
func (g Guard) Attribute() string {
	return "#[cfg(" + string(g) + ")]"
}

// AtomGuard is the equality test against a single atom.
func AtomGuard(a platform.Atom) Guard {
	return Guard(fmt.Sprintf("target_os = %q", a.String()))
}

// Render builds the guard for an allowed set: a single equality test for one
// atom, otherwise an any(...) disjunction over the ordered atoms. The empty
// set renders any(), which is never satisfied.
func Render(allowed platform.Set) Guard {
	atoms := allowed.Atoms()
	if len(atoms) == 1 {
		return AtomGuard(atoms[0])
	}
	terms := make([]string, len(atoms))
	for i, a := range atoms {
		terms[i] = string(AtomGuard(a))
	}
	return Guard("any(" + strings.Join(terms, ", ") + ")")
}

// Resolution is the outcome of resolving one option block.
type Resolution struct {
	Atoms platform.Set
	Guard Guard
	Diags hcl.Diagnostics
}

// Resolve computes expand(include) minus expand(exclude). Callers apply the
// default-to-all rule to include before calling; an empty include here really
// is empty. An empty result is reported at rng, and the guard is still
// rendered.
func Resolve(include, exclude []platform.Group, rng hcl.Range) Resolution {
	allowed := platform.Expand(include).Difference(platform.Expand(exclude))
	res := Resolution{
		Atoms: allowed,
		Guard: Render(allowed),
	}
	if allowed.IsEmpty() {
		res.Diags = append(res.Diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Configuration excludes all platforms",
			Detail:   "'include' and 'exclude' cancel each other out.",
			Subject:  rng.Ptr(),
		})
	}
	return res
}
