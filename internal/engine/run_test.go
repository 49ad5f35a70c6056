package engine

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/agentic-research/platgate/internal/config"
)

func tree(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestRun_ProcessesTreeInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	fs := tree(t, map[string]string{
		"src/lib.rs":        "#[platform_mod(include(linux))]\nmod os;\n",
		"src/os/linux.rs":   "pub fn hostname_impl() -> String { String::new() }\n",
		"src/machine.rs":    "#[sys_function(include(macos))]\npub fn hostname() -> String;\n",
		"src/README.md":     "# not rust\n",
		"target/debug/x.rs": "#[sys_function(bogus)]\nfn x();\n",
	})

	cfg := config.Default()
	cfg.Workers = 2
	report, err := New(cfg, zaptest.NewLogger(t)).Run(context.Background(), fs, []string{"."})
	require.NoError(t, err)

	var paths []string
	for _, f := range report.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"src/lib.rs", "src/machine.rs", "src/os/linux.rs"}, paths)
	assert.False(t, report.HasErrors())
	assert.Len(t, report.Plan(), 2)
	assert.Contains(t, string(report.Files[1].Output), "hostname_impl()\n}")
	assert.False(t, report.Files[2].Changed())
	assert.Len(t, report.Sources(), 3)
}

func TestRun_ExplicitFilesAndDedupe(t *testing.T) {
	defer goleak.VerifyNone(t)

	fs := tree(t, map[string]string{
		"a.rs": "#[sys_function(exclude(all))]\nfn a();\n",
	})
	report, err := New(nil, nil).Run(context.Background(), fs, []string{"a.rs", "./a.rs", "."})
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.True(t, report.HasErrors())
	assert.Len(t, report.Diags(), 1)
}

func TestRun_MissingPath(t *testing.T) {
	_, err := New(nil, nil).Run(context.Background(), memfs.New(), []string{"nope"})
	assert.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	fs := tree(t, map[string]string{"a.rs": "fn a() {}\n", "b.rs": "fn b() {}\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, nil).Run(ctx, fs, []string{"."})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileResult_WriteTo(t *testing.T) {
	fs := memfs.New()
	res := &FileResult{Path: "lib.rs", Output: []byte("mod linux;\n")}
	require.NoError(t, res.WriteTo(fs, "out/lib.rs"))
	got, err := util.ReadFile(fs, "out/lib.rs")
	require.NoError(t, err)
	assert.Equal(t, "mod linux;\n", string(got))
}
