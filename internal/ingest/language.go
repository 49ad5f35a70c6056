package ingest

import (
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// DetectLanguageFromExt returns the language name and tree-sitter Language
// for a given file extension. Returns ok=false for unsupported extensions.
func DetectLanguageFromExt(ext string) (langName string, lang *sitter.Language, ok bool) {
	switch ext {
	case ".rs":
		return "rust", rust.GetLanguage(), true
	default:
		return "", nil, false
	}
}

// IsSource reports whether path names a file the front end can parse.
func IsSource(path string) bool {
	_, _, ok := DetectLanguageFromExt(filepath.Ext(path))
	return ok
}

// NewParser returns a tree-sitter parser configured for Rust.
func NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())
	return p
}
