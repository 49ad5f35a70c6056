package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/hashicorp/hcl/v2"

	"github.com/agentic-research/platgate/internal/engine"
)

// workspace opens the current directory and rewrites paths relative to it.
// Paths outside the working directory are rejected.
func workspace(paths []string) (billy.Filesystem, []string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, usageError(err)
		}
		r, err := filepath.Rel(cwd, abs)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return nil, nil, usageError(fmt.Errorf("%s is outside the working directory", p))
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return osfs.New(cwd), rel, nil
}

// runEngine expands the given paths and prints diagnostics to w.
// A non-nil report is returned even when some files failed to load.
func runEngine(ctx context.Context, w io.Writer, paths []string) (billy.Filesystem, *engine.Report, error) {
	fs, rel, err := workspace(paths)
	if err != nil {
		return nil, nil, err
	}
	report, err := engine.New(cfg, logger).Run(ctx, fs, rel)
	if report == nil {
		if err == nil {
			err = fmt.Errorf("no report")
		}
		return nil, nil, &ExitError{Code: 1, Err: err}
	}
	if err := printDiagnostics(w, report.Sources(), report.Diags()); err != nil {
		return nil, nil, err
	}
	if err != nil {
		return fs, report, &ExitError{Code: 1, Err: err}
	}
	return fs, report, nil
}

func printDiagnostics(w io.Writer, files map[string]*hcl.File, diags hcl.Diagnostics) error {
	if len(diags) == 0 {
		return nil
	}
	wr := hcl.NewDiagnosticTextWriter(w, files, 78, false)
	return wr.WriteDiagnostics(diags)
}

func countSeverity(diags hcl.Diagnostics, sev hcl.DiagnosticSeverity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
