// Package config loads the optional platgate.hcl project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/agentic-research/platgate/internal/dispatch"
)

// FileName is the project file looked up in the working directory.
const FileName = "platgate.hcl"

// Config holds project-wide settings. Zero-valued fields in the file keep
// their defaults.
type Config struct {
	// ImplSuffix names the implementation a forwarding wrapper calls.
	ImplSuffix string `hcl:"impl_suffix,optional"`
	// Workers bounds how many files are processed concurrently.
	Workers int `hcl:"workers,optional"`
	// Lint enables the missing-implementation check.
	Lint bool `hcl:"lint,optional"`
	// EmbedErrors renders error diagnostics as compile_error! in output.
	EmbedErrors bool `hcl:"embed_errors,optional"`
	// Exclude lists doublestar globs of paths to skip.
	Exclude []string `hcl:"exclude,optional"`
}

// Default returns the settings used when no project file exists.
func Default() *Config {
	return &Config{
		ImplSuffix:  dispatch.DefaultSuffix,
		Workers:     runtime.GOMAXPROCS(0),
		EmbedErrors: true,
		Exclude:     []string{"target/**"},
	}
}

// Load decodes the file at name over the defaults. A missing file yields the
// defaults. Errors are hcl.Diagnostics wrapped with the file name.
func Load(fs billy.Filesystem, name string) (*Config, error) {
	cfg := Default()
	src, err := util.ReadFile(fs, name)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", name, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config %s: %w", name, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, nil, cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config %s: %w", name, diags)
	}
	if diags := cfg.Validate(); diags.HasErrors() {
		return nil, fmt.Errorf("invalid config %s: %w", name, diags)
	}
	return cfg, nil
}

// Validate checks settings that the decoder cannot.
func (c *Config) Validate() hcl.Diagnostics {
	var diags hcl.Diagnostics
	if !validSuffix(c.ImplSuffix) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid impl_suffix",
			Detail:   fmt.Sprintf("%q must be a non-empty run of letters, digits and underscores.", c.ImplSuffix),
		})
	}
	if c.Workers < 1 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid workers",
			Detail:   fmt.Sprintf("workers must be at least 1, got %d.", c.Workers),
		})
	}
	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid exclude pattern",
				Detail:   fmt.Sprintf("%q is not a valid glob.", p),
			})
		}
	}
	return diags
}

func validSuffix(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Excluded reports whether a slash-separated path matches any exclude glob.
func (c *Config) Excluded(path string) bool {
	path = filepath.ToSlash(path)
	for _, p := range c.Exclude {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
