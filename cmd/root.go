package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agentic-research/platgate/internal/config"
)

var (
	verbose     bool
	configPath  string
	workers     int
	implSuffix  string
	lint        bool
	embedErrors bool

	logger *zap.Logger
	cfg    *config.Config
)

// ExitError carries the process exit code for a failed command:
// 1 when diagnostics contain errors, 2 for usage and configuration problems.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) error {
	return &ExitError{Code: 2, Err: err}
}

// args wraps a cobra argument validator so its failures exit with code 2.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVarP(&configPath, "config", "c", config.FileName, "Path to project configuration")
	pf.IntVarP(&workers, "workers", "j", 0, "Files processed concurrently (overrides config)")
	pf.StringVar(&implSuffix, "impl-suffix", "", "Suffix of forwarded implementation names (overrides config)")
	pf.BoolVar(&lint, "lint", false, "Warn about wrappers whose implementation is missing from the file")
	pf.BoolVar(&embedErrors, "embed-errors", true, "Render error diagnostics as compile_error! in output")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	rootCmd.AddCommand(expandCmd, resolveCmd, planCmd)
}

var rootCmd = &cobra.Command{
	Use:           "platgate",
	Short:         "platgate: platform-gated code generation for Rust sources",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = loadConfig(cmd)
		if err != nil {
			return usageError(err)
		}
		logger.Debug("configuration loaded",
			zap.String("impl_suffix", cfg.ImplSuffix),
			zap.Int("workers", cfg.Workers),
			zap.Bool("lint", cfg.Lint),
			zap.Strings("exclude", cfg.Exclude))
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig reads the project file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
	}
	c, err := config.Load(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		c.Workers = workers
	}
	if flags.Changed("impl-suffix") {
		c.ImplSuffix = implSuffix
	}
	if flags.Changed("lint") {
		c.Lint = lint
	}
	if flags.Changed("embed-errors") {
		c.EmbedErrors = embedErrors
	}
	if diags := c.Validate(); diags.HasErrors() {
		return nil, diags
	}
	return c, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := 1
		var exit *ExitError
		if errors.As(err, &exit) {
			code = exit.Code
		}
		if exit == nil || exit.Err != nil {
			fmt.Fprintln(os.Stderr, errorMsg("%v", err))
		}
		os.Exit(code)
	}
}
