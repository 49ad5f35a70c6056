package engine

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/hashicorp/hcl/v2"
	"go.uber.org/zap"

	"github.com/agentic-research/platgate/internal/emit"
	"github.com/agentic-research/platgate/internal/ingest"
	"github.com/agentic-research/platgate/internal/linter"
	"github.com/agentic-research/platgate/internal/writeback"
)

// FileResult is the outcome of expanding one source file.
type FileResult struct {
	Path   string
	Source []byte
	Output []byte
	Diags  hcl.Diagnostics
	Plan   []PlanEntry
}

// Changed reports whether expansion modified the file.
func (r *FileResult) Changed() bool {
	return !bytes.Equal(r.Source, r.Output)
}

// WriteTo stores the output at name in fs atomically.
func (r *FileResult) WriteTo(fs billy.Filesystem, name string) error {
	return writeback.WriteFile(fs, name, r.Output)
}

// ProcessFile expands every annotated declaration in content and splices the
// generated source in place of each one. Diagnostics never stop the pass; the
// returned error is reserved for failures to parse at all.
func (e *Engine) ProcessFile(ctx context.Context, name string, content []byte) (*FileResult, error) {
	f, err := ingest.ParseFile(ctx, name, content)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := &FileResult{Path: name, Source: content, Diags: f.Diags}
	edits := make([]writeback.Edit, 0, len(f.Decls))
	for _, d := range f.Decls {
		exp := e.Expand(d)
		res.Diags = append(res.Diags, exp.Diags...)
		res.Plan = append(res.Plan, exp.Plan)
		edits = append(edits, writeback.Edit{
			Start:   d.Start,
			End:     d.End,
			Content: []byte(emit.Render(exp.Items, d.Indent)),
		})
	}

	res.Output, err = writeback.Apply(content, edits)
	if err != nil {
		return nil, fmt.Errorf("splice %s: %w", name, err)
	}

	if e.cfg.Lint {
		ldiags, err := linter.Lint(f, ingest.NewSitterWalker(), e.cfg.ImplSuffix)
		if err != nil {
			return nil, err
		}
		res.Diags = append(res.Diags, ldiags...)
	}

	if len(edits) > 0 && len(f.Diags) == 0 {
		for _, ve := range writeback.ASTErrors(res.Output, name) {
			res.Diags = append(res.Diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Generated source does not parse",
				Detail:   fmt.Sprintf("The expanded file has a syntax error at %s.", ve.Error()),
			})
		}
	}

	e.log.Debug("processed file",
		zap.String("path", name),
		zap.Int("declarations", len(f.Decls)),
		zap.Int("diagnostics", len(res.Diags)))
	return res, nil
}
