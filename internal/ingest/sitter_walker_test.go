package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSitterRoot(t *testing.T, code []byte) SitterRoot {
	t.Helper()
	root, err := ParseRoot(context.Background(), code)
	require.NoError(t, err)
	t.Cleanup(root.Close)
	return root
}

func TestSitterWalkerRust_Functions(t *testing.T) {
	code := []byte(`
fn hello() {}

fn add(a: u32, b: u32) -> u32 {
    a + b
}
`)
	root := parseSitterRoot(t, code)
	w := NewSitterWalker()

	matches, err := w.Query(root, `(function_item name: (identifier) @name)`)
	require.NoError(t, err)

	assert.Len(t, matches, 2)
	assert.Equal(t, map[string]any{"name": "hello"}, matches[0].Values())
	assert.Equal(t, map[string]any{"name": "add"}, matches[1].Values())
}

func TestSitterWalkerRust_ScopedChildQuery(t *testing.T) {
	code := []byte(`
impl Machine {
    fn reboot_impl(&self) {}
}

fn reboot_impl() {}
`)
	root := parseSitterRoot(t, code)
	w := NewSitterWalker()

	impls, err := w.Query(root, `(impl_item type: (type_identifier) @type) @scope`)
	require.NoError(t, err)
	require.Len(t, impls, 1)
	assert.Equal(t, "Machine", impls[0].Values()["type"])

	inner, err := w.Query(impls[0].Context(), `(function_item name: (identifier) @name)`)
	require.NoError(t, err)
	assert.Len(t, inner, 1)

	noScope, err := w.Query(root, `(function_item name: (identifier) @name)`)
	require.NoError(t, err)
	assert.Nil(t, noScope[0].Context())
}

func TestSitterWalkerRust_Predicates(t *testing.T) {
	code := []byte("fn a_impl() {}\nfn b() {}\n")
	root := parseSitterRoot(t, code)
	w := NewSitterWalker()

	matches, err := w.Query(root, `((function_item name: (identifier) @name) (#match? @name "_impl$"))`)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a_impl", matches[0].Values()["name"])
}

func TestSitterWalker_Errors(t *testing.T) {
	w := NewSitterWalker()
	_, err := w.Query("not a root", "(function_item)")
	assert.Error(t, err)

	root := parseSitterRoot(t, []byte("fn a() {}"))
	_, err = w.Query(&root, "(not_a_node_type")
	assert.Error(t, err)
}
