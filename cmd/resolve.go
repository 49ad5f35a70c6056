package cmd

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/spf13/cobra"

	"github.com/agentic-research/platgate/internal/options"
	"github.com/agentic-research/platgate/internal/platform"
	"github.com/agentic-research/platgate/internal/resolve"
)

const optionsFile = "<options>"

var resolveCmd = &cobra.Command{
	Use:   "resolve <options>",
	Short: "Show the platforms and cfg guard an option list selects",
	Example: `  platgate resolve 'include(posix), exclude(macos)'
  platgate resolve 'traits(Send, Sync)'`,
	Args: args(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, a []string) error {
		src := a[0]
		files := map[string]*hcl.File{optionsFile: {Bytes: []byte(src)}}

		opts, diags := options.ParseString(src, optionsFile, true)
		if !diags.HasErrors() {
			res := resolve.Resolve(opts.Include, opts.Exclude, opts.Range)
			diags = append(diags, res.Diags...)
			fmt.Fprint(cmd.OutOrStdout(), keyValues(
				pair{"include", groups(opts.Include, "all")},
				pair{"exclude", groups(opts.Exclude, "none")},
				pair{"traits", list(opts.TraitPaths(), "none")},
				pair{"platforms", list(res.Atoms.Names(), "none")},
				pair{"guard", res.Guard.Attribute()},
			))
		}
		if err := printDiagnostics(cmd.ErrOrStderr(), files, diags); err != nil {
			return err
		}
		return exitOnErrors(countSeverity(diags, hcl.DiagError))
	},
}

func groups(gs []platform.Group, empty string) string {
	names := make([]string, len(gs))
	for i, g := range gs {
		names[i] = g.String()
	}
	return list(names, empty)
}

func list(items []string, empty string) string {
	if len(items) == 0 {
		return labelStyle.Render(empty)
	}
	return strings.Join(items, ", ")
}
