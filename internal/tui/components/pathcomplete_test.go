package components

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.Mkdir(filepath.Join(dir, n), 0o755))
	}
	return dir
}

func TestPathCompleter_SingleMatch(t *testing.T) {
	dir := mkdirs(t, "notes", "scripts")

	result := NewPathCompleter(true).Next(filepath.Join(dir, "no"))
	assert.Equal(t, filepath.Join(dir, "notes")+string(filepath.Separator), result)
}

func TestPathCompleter_CommonPrefixFirst(t *testing.T) {
	dir := mkdirs(t, "docs-api", "docs-guide")

	c := NewPathCompleter(true)
	assert.Equal(t, filepath.Join(dir, "docs-"), c.Next(filepath.Join(dir, "d")))
}

func TestPathCompleter_CyclesThroughMatches(t *testing.T) {
	dir := mkdirs(t, "alpha", "beta", "gamma")
	input := dir + string(filepath.Separator)

	c := NewPathCompleter(true)
	r1 := c.Next(input)
	r2 := c.Next(input)
	r3 := c.Next(input)
	r4 := c.Next(input)

	assert.Equal(t, filepath.Join(dir, "alpha")+string(filepath.Separator), r1)
	assert.Equal(t, filepath.Join(dir, "beta")+string(filepath.Separator), r2)
	assert.Equal(t, filepath.Join(dir, "gamma")+string(filepath.Separator), r3)
	assert.Equal(t, r1, r4, "cycling wraps around")
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, c.Matches())
}

func TestPathCompleter_ResetStopsCycling(t *testing.T) {
	dir := mkdirs(t, "alpha", "beta")
	input := dir + string(filepath.Separator)

	c := NewPathCompleter(true)
	r1 := c.Next(input)
	c.Reset()
	assert.Equal(t, r1, c.Next(input))
}

func TestPathCompleter_DirsOnly(t *testing.T) {
	dir := mkdirs(t, "subdir")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("data"), 0o644))
	input := dir + string(filepath.Separator)

	c := NewPathCompleter(true)
	assert.Equal(t, filepath.Join(dir, "subdir")+string(filepath.Separator), c.Next(input))
	assert.Equal(t, []string{"subdir"}, c.Matches())

	all := NewPathCompleter(false)
	all.Next(input)
	assert.Equal(t, []string{"file.txt", "subdir"}, all.Matches())
}

func TestPathCompleter_EmptyDir(t *testing.T) {
	input := t.TempDir() + string(filepath.Separator)
	assert.Equal(t, input, NewPathCompleter(true).Next(input))
}

func TestPathCompleter_WithReadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"workspace/README.md":   {Data: []byte("x")},
		"workspace/docs/a.md":   {Data: []byte("x")},
		"workspace/drafts/b.md": {Data: []byte("x")},
	}
	c := NewPathCompleter(true).WithReadDir(func(dir string) ([]fs.DirEntry, error) {
		return fs.ReadDir(fsys, filepath.ToSlash(dir))
	})

	// the common prefix adds nothing, so the first match is used
	assert.Equal(t, filepath.Join("workspace", "docs")+string(filepath.Separator), c.Next(filepath.Join("workspace", "d")))
	assert.Equal(t, []string{"docs", "drafts"}, c.Matches())
}

func TestPathCompleter_ReadErrorKeepsInput(t *testing.T) {
	c := NewPathCompleter(true).WithReadDir(func(string) ([]fs.DirEntry, error) {
		return nil, errors.New("permission denied")
	})
	assert.Equal(t, "locked/x", c.Next("locked/x"))
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		input      string
		wantParent string
		wantPrefix string
	}{
		{"", ".", ""},
		{".", ".", ""},
		{"my", ".", "my"},
		{"src/", "src", ""},
		{"/", string(filepath.Separator), ""},
		{filepath.Join("src", "com"), "src", "com"},
	}

	for _, tt := range tests {
		parent, prefix := splitPath(tt.input)
		assert.Equal(t, tt.wantParent, parent, tt.input)
		assert.Equal(t, tt.wantPrefix, prefix, tt.input)
	}
}

func TestLongestCommonPrefix(t *testing.T) {
	assert.Equal(t, "", longestCommonPrefix(nil))
	assert.Equal(t, "docs", longestCommonPrefix([]string{"docs"}))
	assert.Equal(t, "Do", longestCommonPrefix([]string{"Docs", "dot"}))
	assert.Equal(t, "", longestCommonPrefix([]string{"a", "b"}))
}
