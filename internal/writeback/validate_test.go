package writeback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASTErrors_ValidRust(t *testing.T) {
	src := []byte(`#[cfg(target_os = "linux")]
pub fn reboot(&self, a: u32) {
    Self::reboot_impl(self, a);
}
`)
	assert.Nil(t, ASTErrors(src, "lib.rs"))
}

func TestASTErrors_BrokenRust(t *testing.T) {
	src := []byte(`fn hello() -> &'static str {
    "world"
// missing closing brace
`)
	errs := ASTErrors(src, "lib.rs")
	require.NotEmpty(t, errs)
	assert.Equal(t, "lib.rs", errs[0].FilePath)
	assert.Contains(t, errs[0].Message, "AST")
}

func TestASTErrors_UnknownExtensionPassesThrough(t *testing.T) {
	assert.Nil(t, ASTErrors([]byte("{{{ not code"), "notes.txt"))
}

func TestASTErrors_ReportsEveryLocation(t *testing.T) {
	src := []byte("fn a() { let = 1; }\n\nfn b() { let = 2; }\n")
	errs := ASTErrors(src, "lib.rs")
	lines := make(map[uint32]bool)
	for _, e := range errs {
		assert.Equal(t, "lib.rs", e.FilePath)
		lines[e.Line] = true
	}
	assert.True(t, lines[0], "error in a")
	assert.True(t, lines[2], "error in b")
}

func TestASTErrors_CleanSource(t *testing.T) {
	assert.Nil(t, ASTErrors([]byte("mod linux;\nuse linux as driver;\n"), "lib.rs"))
}

func TestValidationError_OneIndexed(t *testing.T) {
	e := &ValidationError{FilePath: "a.rs", Line: 0, Column: 4, Message: "syntax error in AST"}
	assert.Equal(t, "a.rs:1:5: syntax error in AST", e.Error())
}
