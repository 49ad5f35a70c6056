package linter

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/platgate/internal/ingest"
)

const source = `pub struct Machine;

impl Machine {
    #[sys_function(include(linux))]
    pub fn reboot(&self);

    #[sys_function(include(linux))]
    pub fn halt(&self);

    #[sys_function(include(linux))]
    pub fn uptime(&self) -> u64 {
        0
    }

    fn reboot_impl(&self) {}
}
`

func lint(t *testing.T, name, src, suffix string) hcl.Diagnostics {
	t.Helper()
	f, err := ingest.ParseFile(context.Background(), name, []byte(src))
	require.NoError(t, err)
	defer f.Close()
	diags, err := Lint(f, ingest.NewSitterWalker(), suffix)
	require.NoError(t, err)
	return diags
}

func TestLint_MissingImplementation(t *testing.T) {
	diags := lint(t, "machine.rs", source, "")
	require.Len(t, diags, 1)
	assert.Equal(t, hcl.DiagWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Detail, "halt_impl")
	assert.Equal(t, 8, diags[0].Subject.Start.Line)
}

func TestLint_CustomSuffix(t *testing.T) {
	assert.Len(t, lint(t, "machine.rs", source, "_sys"), 2)
}

func TestLint_NonRustIgnored(t *testing.T) {
	assert.Empty(t, lint(t, "machine.txt", source, ""))
}

func TestLint_MethodNeedsAssociatedImplementation(t *testing.T) {
	src := `impl Machine {
    #[sys_function]
    fn reboot(&self);
}

#[sys_function]
fn hostname() -> String;

fn reboot_impl() {}

mod linux {
    pub fn hostname_impl() -> String { String::new() }
}
`
	diags := lint(t, "machine.rs", src, "")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Detail, "an impl or trait body")
	assert.Equal(t, 3, diags[0].Subject.Start.Line)
}
