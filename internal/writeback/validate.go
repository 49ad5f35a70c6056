package writeback

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/platgate/internal/ingest"
)

// ValidationError contains structured information about a syntax error.
type ValidationError struct {
	FilePath string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line+1, e.Column+1, e.Message)
}

// ASTErrors parses content with tree-sitter and returns every ERROR or
// MISSING node location. Returns nil if there are none or the file has no
// known tree-sitter language.
func ASTErrors(content []byte, filePath string) []ValidationError {
	root, tree, err := parse(content, filePath)
	if err != nil || root == nil {
		return nil
	}
	defer tree.Close()
	if !root.HasError() {
		return nil
	}

	var errs []ValidationError
	collectErrors(root, filePath, &errs)
	return errs
}

func parse(content []byte, filePath string) (*sitter.Node, *sitter.Tree, error) {
	_, lang, ok := ingest.DetectLanguageFromExt(strings.ToLower(filepath.Ext(filePath)))
	if !ok {
		return nil, nil, nil // unknown language: pass through
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, nil, fmt.Errorf("tree-sitter parse failed for %s: %w", filePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, nil, fmt.Errorf("tree-sitter returned nil root for %s", filePath)
	}
	return root, tree, nil
}

// collectErrors gathers all ERROR/MISSING nodes in the tree.
func collectErrors(node *sitter.Node, filePath string, errs *[]ValidationError) {
	if node.IsError() || node.IsMissing() {
		*errs = append(*errs, ValidationError{
			FilePath: filePath,
			Line:     node.StartPoint().Row,
			Column:   node.StartPoint().Column,
			Message:  "syntax error in AST",
		})
		return // don't recurse into error children
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectErrors(child, filePath, errs)
		}
	}
}
