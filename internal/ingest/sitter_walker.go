package ingest

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// SitterWalker implements Walker for tree-sitter parsed code.
type SitterWalker struct{}

func NewSitterWalker() *SitterWalker {
	return &SitterWalker{}
}

// SitterRoot carries what a query needs: the node to search under, the
// source the node was parsed from, and the language to compile against.
type SitterRoot struct {
	Node   *sitter.Node
	Source []byte
	Lang   *sitter.Language

	tree *sitter.Tree
}

// ParseRoot parses Rust source and returns a SitterRoot for its syntax tree.
// The caller must Close the root when done with it and every node below it.
func ParseRoot(ctx context.Context, src []byte) (SitterRoot, error) {
	parser := NewParser()
	defer parser.Close()
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return SitterRoot{}, fmt.Errorf("parse: %w", err)
	}
	_, lang, _ := DetectLanguageFromExt(".rs")
	return SitterRoot{Node: tree.RootNode(), Source: src, Lang: lang, tree: tree}, nil
}

// Close releases the syntax tree. Roots derived from a match's Context share
// the parent tree and are not closed themselves.
func (r SitterRoot) Close() {
	if r.tree != nil {
		r.tree.Close()
	}
}

// Query implements Walker.
func (w *SitterWalker) Query(root any, selector string) ([]Match, error) {
	sr, ok := root.(SitterRoot)
	if !ok {
		if ptr, ok := root.(*SitterRoot); ok {
			sr = *ptr
		} else {
			return nil, fmt.Errorf("root must be SitterRoot, got %T", root)
		}
	}

	q, err := sitter.NewQuery([]byte(selector), sr.Lang)
	if err != nil {
		return nil, fmt.Errorf("invalid query '%s': %w", selector, err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()

	qc.Exec(q, sr.Node)

	var matches []Match
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, sr.Source)

		vals := make(map[string]string)
		var scope *sitter.Node

		for _, c := range m.Captures {
			name := q.CaptureNameForId(c.Index)

			if name == "scope" {
				scope = c.Node
			}

			start := c.Node.StartByte()
			end := c.Node.EndByte()
			if start < uint32(len(sr.Source)) && end <= uint32(len(sr.Source)) {
				vals[name] = string(sr.Source[start:end])
			} else {
				vals[name] = ""
			}
		}
		if len(m.Captures) == 0 {
			continue
		}
		matches = append(matches, &sitterMatch{
			values: vals,
			scope:  scope,
			root:   sr,
		})
	}

	return matches, nil
}

type sitterMatch struct {
	values map[string]string
	scope  *sitter.Node
	root   SitterRoot
}

// Values implements Match.
func (m *sitterMatch) Values() map[string]any {
	result := make(map[string]any, len(m.values))
	for k, v := range m.values {
		result[k] = v
	}
	return result
}

// Context implements Match.
func (m *sitterMatch) Context() any {
	if m.scope != nil {
		return SitterRoot{
			Node:   m.scope,
			Source: m.root.Source,
			Lang:   m.root.Lang,
		}
	}
	return nil
}
