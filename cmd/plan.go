package cmd

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/platgate/internal/engine"
)

// filePlan is the YAML shape of one file in the plan output.
type filePlan struct {
	Path         string             `yaml:"path"`
	Changed      bool               `yaml:"changed"`
	Declarations []engine.PlanEntry `yaml:"declarations"`
}

var planCmd = &cobra.Command{
	Use:   "plan [paths...]",
	Short: "Print what expansion would generate, as YAML",
	RunE: func(cmd *cobra.Command, paths []string) error {
		_, report, err := runEngine(cmd.Context(), cmd.ErrOrStderr(), paths)
		if err != nil {
			return err
		}

		var out []filePlan
		for _, f := range report.Files {
			if len(f.Plan) == 0 {
				continue
			}
			out = append(out, filePlan{Path: f.Path, Changed: f.Changed(), Declarations: f.Plan})
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
		return exitOnErrors(countSeverity(report.Diags(), hcl.DiagError))
	},
}
