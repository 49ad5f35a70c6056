package writeback

import (
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFS struct {
	fs billy.Filesystem
}

func memFile(t *testing.T, name, content string) *memFS {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o640))
	return &memFS{fs}
}

func (m *memFS) read(t *testing.T, name string) string {
	t.Helper()
	b, err := util.ReadFile(m.fs, name)
	require.NoError(t, err)
	return string(b)
}

func TestWriteFile_NoTempFilesLeft(t *testing.T) {
	m := memFile(t, "dir/lib.rs", "abc")
	require.NoError(t, WriteFile(m.fs, "dir/lib.rs", []byte("aXc")))
	entries, err := m.fs.ReadDir("dir")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "lib.rs", entries[0].Name())
	assert.Equal(t, "aXc", m.read(t, "dir/lib.rs"))
}

func TestWriteFile_KeepsModeAndCreatesDirs(t *testing.T) {
	m := memFile(t, "lib.rs", "old")
	require.NoError(t, WriteFile(m.fs, "lib.rs", []byte("new")))
	info, err := m.fs.Stat("lib.rs")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	assert.Equal(t, "new", m.read(t, "lib.rs"))

	require.NoError(t, WriteFile(m.fs, "out/nested/os.rs", []byte("mod linux;")))
	assert.Equal(t, "mod linux;", m.read(t, "out/nested/os.rs"))
}

func TestApply_MultipleEditsAnyOrder(t *testing.T) {
	src := []byte("0123456789")
	got, err := Apply(src, []Edit{
		{Start: 8, End: 9, Content: []byte("EIGHT")},
		{Start: 0, End: 2, Content: nil},
		{Start: 4, End: 4, Content: []byte("+")},
	})
	require.NoError(t, err)
	assert.Equal(t, "23+4567EIGHT9", string(got))
	assert.Equal(t, "0123456789", string(src))
}

func TestApply_Overlap(t *testing.T) {
	_, err := Apply([]byte("0123456789"), []Edit{{Start: 2, End: 5}, {Start: 4, End: 6}})
	assert.Error(t, err)
}

func TestApply_InvalidRange(t *testing.T) {
	_, err := Apply([]byte("short"), []Edit{{Start: 3, End: 100}})
	assert.Error(t, err)
	_, err = Apply([]byte("short"), []Edit{{Start: 4, End: 2}})
	assert.Error(t, err)
}

func TestApply_NoEdits(t *testing.T) {
	got, err := Apply([]byte("same"), nil)
	require.NoError(t, err)
	assert.Equal(t, "same", string(got))
}
