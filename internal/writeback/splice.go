package writeback

import (
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Edit replaces src[Start:End] with Content.
type Edit struct {
	Start, End int
	Content    []byte
}

// Apply returns src with every edit applied. Edits may be given in any order
// but must not overlap; src is not modified.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	size := len(src)
	prev := 0
	for _, e := range sorted {
		if e.Start < prev || e.Start > e.End || e.End > len(src) {
			return nil, fmt.Errorf("invalid byte range [%d:%d] for file of length %d", e.Start, e.End, len(src))
		}
		size += len(e.Content) - (e.End - e.Start)
		prev = e.End
	}

	result := make([]byte, 0, size)
	prev = 0
	for _, e := range sorted {
		result = append(result, src[prev:e.Start]...)
		result = append(result, e.Content...)
		prev = e.End
	}
	return append(result, src[prev:]...), nil
}

// WriteFile writes content to name atomically: content is written to a temp
// file in the same directory first, then renamed over the target. Missing
// parent directories are created and an existing file's mode is kept.
func WriteFile(fs billy.Filesystem, name string, content []byte) error {
	dir := path.Dir(name)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := util.TempFile(fs, dir, ".platgate-splice-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, err := fs.Stat(name); err == nil {
		mode = info.Mode().Perm()
	}
	if ch, ok := fs.(billy.Chmod); ok {
		_ = ch.Chmod(tmpName, mode) // best-effort permission sync
	}

	if err := fs.Rename(tmpName, name); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", name, err)
	}
	return nil
}
