package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/platgate/internal/ingest"
)

// Report collects the results of a run, ordered by path.
type Report struct {
	Files []*FileResult
}

// Diags returns the diagnostics of every file in order.
func (r *Report) Diags() hcl.Diagnostics {
	var out hcl.Diagnostics
	for _, f := range r.Files {
		out = append(out, f.Diags...)
	}
	return out
}

// HasErrors reports whether any file produced an error diagnostic.
func (r *Report) HasErrors() bool {
	return r.Diags().HasErrors()
}

// Sources maps each processed path to its source, for diagnostic snippets.
func (r *Report) Sources() map[string]*hcl.File {
	out := make(map[string]*hcl.File, len(r.Files))
	for _, f := range r.Files {
		out[f.Path] = &hcl.File{Bytes: f.Source}
	}
	return out
}

// Plan returns the plan entries of every file in order.
func (r *Report) Plan() []PlanEntry {
	var out []PlanEntry
	for _, f := range r.Files {
		out = append(out, f.Plan...)
	}
	return out
}

// Collect expands paths into the sorted set of source files below them.
// Directories are walked; excluded paths are skipped. Files named explicitly
// are kept even when they do not look like sources.
func (e *Engine) Collect(fs billy.Filesystem, paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.ToSlash(filepath.Clean(p))
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := fs.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = util.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel := filepath.ToSlash(filepath.Clean(p))
			if e.cfg.Excluded(rel) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.IsDir() && ingest.IsSource(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every source file under paths with at most cfg.Workers files
// in flight. Declarations share no state, so files are independent. Per-file
// read or parse failures are aggregated into the returned error; the report
// still holds every file that succeeded.
func (e *Engine) Run(ctx context.Context, fs billy.Filesystem, paths []string) (*Report, error) {
	files, err := e.Collect(fs, paths)
	if err != nil {
		return nil, err
	}

	results := make([]*FileResult, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := util.ReadFile(fs, name)
			if err != nil {
				errs[i] = fmt.Errorf("read %s: %w", name, err)
				return nil
			}
			res, err := e.ProcessFile(gctx, name, src)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result *multierror.Error
	report := &Report{}
	for i := range files {
		if errs[i] != nil {
			result = multierror.Append(result, errs[i])
			continue
		}
		report.Files = append(report.Files, results[i])
	}

	e.log.Info("run complete",
		zap.Int("files", len(files)),
		zap.Int("failed", len(files)-len(report.Files)),
		zap.Int("diagnostics", len(report.Diags())))
	return report, result.ErrorOrNil()
}
