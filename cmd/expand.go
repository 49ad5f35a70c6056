package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/hashicorp/hcl/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	outDir  string
	inPlace bool
	stdout  bool
	check   bool
	force   bool
)

func init() {
	expandCmd.Flags().StringVarP(&outDir, "out", "o", "", "Write expanded files below this directory")
	expandCmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "Rewrite source files in place")
	expandCmd.Flags().BoolVar(&stdout, "stdout", false, "Print expanded files to stdout (the default)")
	expandCmd.Flags().BoolVar(&check, "check", false, "Exit non-zero if any file would change")
	expandCmd.Flags().BoolVar(&force, "force", false, "Write output even when errors were reported")
}

var expandCmd = &cobra.Command{
	Use:   "expand [paths...]",
	Short: "Expand platform directives in Rust sources",
	Long: `Expand rewrites every sys_function, sys_trait_function, sys_struct and
platform_mod declaration into its platform-gated form. Directories are walked
for .rs files. Without --out or --in-place the result is printed to stdout.`,
	RunE: func(cmd *cobra.Command, paths []string) error {
		modes := 0
		for _, set := range []bool{outDir != "", inPlace, stdout, check} {
			if set {
				modes++
			}
		}
		if modes > 1 {
			return usageError(fmt.Errorf("only one of --out, --in-place, --stdout or --check may be given"))
		}

		fs, report, err := runEngine(cmd.Context(), cmd.ErrOrStderr(), paths)
		if err != nil {
			return err
		}
		diags := report.Diags()
		errCount := countSeverity(diags, hcl.DiagError)

		if check {
			stale := 0
			for _, f := range report.Files {
				if f.Changed() {
					stale++
					fmt.Fprintln(cmd.OutOrStdout(), warnMsg("%s would be rewritten", f.Path))
				}
			}
			if stale > 0 || errCount > 0 {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d file(s) out of date, %d error(s)", stale, errCount)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), successMsg("%d file(s) up to date", len(report.Files)))
			return nil
		}

		if errCount > 0 && !force {
			return &ExitError{Code: 1, Err: fmt.Errorf("%d error(s); nothing written", errCount)}
		}

		var dest billy.Filesystem
		switch {
		case inPlace:
			dest = fs
		case outDir != "":
			abs, err := filepath.Abs(outDir)
			if err != nil {
				return usageError(err)
			}
			dest = osfs.New(abs)
		default:
			out := cmd.OutOrStdout()
			for i, f := range report.Files {
				if len(report.Files) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "// %s\n", f.Path)
				}
				if _, err := out.Write(f.Output); err != nil {
					return err
				}
			}
			return exitOnErrors(errCount)
		}

		written := 0
		for _, f := range report.Files {
			// In place, untouched files are left alone. A separate output
			// tree receives every file so it stands on its own.
			if inPlace && !f.Changed() {
				continue
			}
			if err := f.WriteTo(dest, f.Path); err != nil {
				return &ExitError{Code: 1, Err: fmt.Errorf("write %s: %w", f.Path, err)}
			}
			logger.Debug("wrote file", zap.String("path", f.Path), zap.Bool("changed", f.Changed()))
			written++
		}
		if written == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), infoMsg("nothing to write"))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), successMsg("wrote %d file(s)", written))
		}
		return exitOnErrors(errCount)
	},
}

func exitOnErrors(n int) error {
	if n == 0 {
		return nil
	}
	return &ExitError{Code: 1, Err: fmt.Errorf("%d error(s)", n)}
}
